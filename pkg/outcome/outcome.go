// Package outcome classifies completed HTTP exchanges into a small set of
// variants: success, rate limited, failure and transport error.
//
// Classification never fails on response content. Callers decide whether a
// RateLimited or Failure outcome should be escalated, typically via Err.
package outcome

import "fmt"

// Kind identifies an Outcome variant.
type Kind int

const (
	KindUnknown Kind = iota
	KindSuccess
	KindRateLimited
	KindFailure
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRateLimited:
		return "rate_limited"
	case KindFailure:
		return "failure"
	case KindTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of classifying one HTTP exchange.
// The concrete type is one of Success, RateLimited, Failure or TransportError.
type Outcome interface {
	Kind() Kind
	// Err returns nil for Success and the outcome itself otherwise.
	Err() error

	sealed()
}

// Success is a 2xx response with its body decoded as text.
type Success struct {
	Body string
}

func (Success) Kind() Kind { return KindSuccess }
func (Success) Err() error { return nil }
func (Success) sealed()    {}

// RateLimited is a 429 response.
type RateLimited struct {
	Bucket      string
	PartialData *string
}

func (RateLimited) Kind() Kind   { return KindRateLimited }
func (r RateLimited) Err() error { return r }
func (RateLimited) sealed()      {}

func (r RateLimited) Error() string {
	partial := "none"
	if r.PartialData != nil {
		partial = *r.PartialData
	}
	return fmt.Sprintf("rate limited: bucket %s, partial data: %s", r.Bucket, partial)
}

// Failure is any non-2xx, non-429 response.
type Failure struct {
	URL        string
	StatusCode int
	Body       string
}

func (Failure) Kind() Kind   { return KindFailure }
func (f Failure) Err() error { return f }
func (Failure) sealed()      {}

func (f Failure) Error() string {
	return fmt.Sprintf("http request failed: url %s - status %d - body %s", f.URL, f.StatusCode, f.Body)
}

// TransportError wraps a failure of the transport call itself (refused, timeout, DNS).
type TransportError struct {
	URL     string
	Message string
	Cause   error
}

func (TransportError) Kind() Kind   { return KindTransport }
func (t TransportError) Err() error { return t }
func (TransportError) sealed()      {}

func (t TransportError) Error() string {
	return "network error: " + t.Message
}

func (t TransportError) Unwrap() error { return t.Cause }
