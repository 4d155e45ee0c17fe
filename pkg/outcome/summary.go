package outcome

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSummaryLen = 512

// Summary returns a short, log-friendly snapshot of a response body.
// HTML error pages are reduced to their <title>.
func Summary(body string) string {
	s := strings.TrimSpace(body)
	if s == "" {
		return "<empty>"
	}

	if looksLikeHTML(s) {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
				return title
			}
		}
	}

	if len(s) > maxSummaryLen {
		return strings.ToValidUTF8(s[:maxSummaryLen], "") + "..."
	}
	return s
}

func looksLikeHTML(s string) bool {
	head := strings.ToLower(s)
	if len(head) > 64 {
		head = head[:64]
	}
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
