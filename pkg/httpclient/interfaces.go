package httpclient

import (
	"context"
	"errors"
	"net/http"
)

// ErrBodyConsumed is returned when a response body is read a second time.
var ErrBodyConsumed = errors.New("response body already consumed")

// Response is a minimal HTTP response contract.
// The body is a single-read resource: ReadBody returns ErrBodyConsumed after the first call.
type Response interface {
	StatusCode() int
	Header() http.Header
	URL() string
	ReadBody() ([]byte, error)
}

// Request describes a single outbound call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Do(ctx context.Context, req Request) (Response, error)
}
