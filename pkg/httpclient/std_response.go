package httpclient

import (
	"io"
	"net/http"
	"sync"
)

// stdResponse adapts a net/http response; the body stream is drained and closed on first read.
type stdResponse struct {
	resp *http.Response

	mu       sync.Mutex
	consumed bool
}

// FromHTTPResponse wraps resp so it satisfies Response.
func FromHTTPResponse(resp *http.Response) Response {
	return &stdResponse{resp: resp}
}

func (s *stdResponse) StatusCode() int { return s.resp.StatusCode }

func (s *stdResponse) Header() http.Header {
	if s.resp.Header == nil {
		s.resp.Header = http.Header{}
	}
	return s.resp.Header
}

func (s *stdResponse) URL() string {
	if s.resp.Request == nil || s.resp.Request.URL == nil {
		return ""
	}
	return s.resp.Request.URL.String()
}

func (s *stdResponse) ReadBody() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumed {
		return nil, ErrBodyConsumed
	}
	s.consumed = true

	if s.resp.Body == nil {
		return nil, nil
	}
	defer s.resp.Body.Close()
	return io.ReadAll(s.resp.Body)
}
