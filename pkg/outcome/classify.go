package outcome

import (
	"context"
	"net/http"
	"strings"

	"github.com/samvad-hq/restkit/pkg/httpclient"
	"github.com/samvad-hq/restkit/pkg/jsonutil"
)

const (
	// HeaderRateLimitBucket names the rate-limit bucket of a 429 response.
	HeaderRateLimitBucket = "X-RateLimit-Bucket"

	partialDataField = "data"
)

// Classify reads the body of resp exactly once and maps the exchange to an Outcome.
func Classify(resp httpclient.Response) Outcome {
	status := resp.StatusCode()
	body := readText(resp)

	switch {
	case status == http.StatusTooManyRequests:
		rl := RateLimited{Bucket: resp.Header().Get(HeaderRateLimitBucket)}
		if data, ok := jsonutil.StringField([]byte(body), partialDataField); ok {
			rl.PartialData = &data
		}
		return rl
	case status >= 200 && status < 300:
		return Success{Body: body}
	default:
		return Failure{
			URL:        resp.URL(),
			StatusCode: status,
			Body:       body,
		}
	}
}

// FromTransportError wraps an error returned by the transport before any response existed.
func FromTransportError(url string, err error) TransportError {
	te := TransportError{URL: url, Cause: err}
	if err != nil {
		te.Message = err.Error()
	}
	return te
}

// Exchange performs req with client and classifies the result.
func Exchange(ctx context.Context, client httpclient.Client, req httpclient.Request) Outcome {
	resp, err := client.Do(ctx, req)
	if err != nil {
		return FromTransportError(req.URL, err)
	}
	if resp == nil {
		return FromTransportError(req.URL, errNilResponse)
	}
	return Classify(resp)
}

// readText never fails: read errors and a consumed body both become "".
func readText(resp httpclient.Response) string {
	raw, err := resp.ReadBody()
	if err != nil || len(raw) == 0 {
		return ""
	}
	return strings.ToValidUTF8(string(raw), "\uFFFD")
}
