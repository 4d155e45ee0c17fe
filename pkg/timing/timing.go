// Package timing records when an HTTP call was sent and received and exposes
// the result as response headers.
package timing

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Header names written by Annotate.
const (
	HeaderSentTimestamp     = "X-CallSent-Timestamp"
	HeaderReceivedTimestamp = "X-CallReceived-Timestamp"
	HeaderLengthMillis      = "X-CallLength-Milliseconds"
)

// ErrNegativeDuration is returned when the receive instant precedes the send instant.
var ErrNegativeDuration = errors.New("call received before it was sent")

// CallTiming holds the send and receive instants of a single call.
type CallTiming struct {
	SentAt     time.Time
	ReceivedAt time.Time
}

// New builds a CallTiming, rejecting received < sent.
func New(sent, received time.Time) (CallTiming, error) {
	if received.Before(sent) {
		return CallTiming{}, fmt.Errorf("%w: sent %s, received %s", ErrNegativeDuration,
			sent.UTC().Format(time.RFC3339Nano), received.UTC().Format(time.RFC3339Nano))
	}
	return CallTiming{SentAt: sent, ReceivedAt: received}, nil
}

// MustNew is like New but panics on a violated precondition.
func MustNew(sent, received time.Time) CallTiming {
	ct, err := New(sent, received)
	if err != nil {
		panic(err)
	}
	return ct
}

// Duration returns ReceivedAt - SentAt.
func (c CallTiming) Duration() time.Duration {
	return c.ReceivedAt.Sub(c.SentAt)
}

// DurationMillis returns the call length in whole milliseconds.
func (c CallTiming) DurationMillis() int64 {
	return c.Duration().Milliseconds()
}

// Annotate writes the sent/received epoch seconds and the call length in milliseconds to h.
func Annotate(h http.Header, c CallTiming) {
	if h == nil {
		return
	}
	h.Set(HeaderSentTimestamp, strconv.FormatInt(c.SentAt.Unix(), 10))
	h.Set(HeaderReceivedTimestamp, strconv.FormatInt(c.ReceivedAt.Unix(), 10))
	h.Set(HeaderLengthMillis, strconv.FormatInt(c.DurationMillis(), 10))
}

// CallLength returns the annotated call length formatted as "<ms> ms".
func CallLength(h http.Header) (string, bool) {
	v, ok := HeaderValue(h, HeaderLengthMillis)
	if !ok {
		return "", false
	}
	return v + " ms", true
}

// HeaderValue looks up name case-insensitively and reports whether it was present.
func HeaderValue(h http.Header, name string) (string, bool) {
	if h == nil {
		return "", false
	}
	vals := h.Values(name)
	if len(vals) == 0 {
		// non-canonical keys set directly on the map
		for k, v := range h {
			if strings.EqualFold(k, name) && len(v) > 0 {
				return v[0], true
			}
		}
		return "", false
	}
	return vals[0], true
}

// FromHeaders rebuilds a CallTiming from annotated headers. Timestamps carry
// second precision; when the length header is present the received time is
// sent plus that length so Duration keeps millisecond precision.
func FromHeaders(h http.Header) (CallTiming, bool) {
	sent, ok := unixHeader(h, HeaderSentTimestamp)
	if !ok {
		return CallTiming{}, false
	}
	received, ok := unixHeader(h, HeaderReceivedTimestamp)
	if !ok {
		return CallTiming{}, false
	}
	if raw, ok := HeaderValue(h, HeaderLengthMillis); ok {
		if ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil && ms >= 0 {
			received = sent.Add(time.Duration(ms) * time.Millisecond)
		}
	}
	ct, err := New(sent, received)
	if err != nil {
		return CallTiming{}, false
	}
	return ct, true
}

func unixHeader(h http.Header, name string) (time.Time, bool) {
	raw, ok := HeaderValue(h, name)
	if !ok {
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}
