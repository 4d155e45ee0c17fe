package httpclient

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/restkit/pkg/timing"
)

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
// Retries stay disabled: whether to retry is the caller's decision.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetRetryCount(0)
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return r.Do(ctx, Request{Method: http.MethodGet, URL: url, Headers: headers})
}

// Do executes req and returns a single-read response annotated with call-timing headers.
func (r *RestyClient) Do(ctx context.Context, req Request) (Response, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	rr := r.client.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}
	if len(req.Body) > 0 {
		rr.SetBody(req.Body)
	}

	resp, err := rr.Execute(method, req.URL)
	if err != nil {
		return nil, err
	}
	return newRestyResponseAdapter(resp), nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp   *resty.Response
	header http.Header

	mu       sync.Mutex
	consumed bool
}

func newRestyResponseAdapter(resp *resty.Response) *restyResponseAdapter {
	header := resp.Header()
	if header == nil {
		header = http.Header{}
	}
	a := &restyResponseAdapter{resp: resp, header: header}
	if resp.Request != nil {
		if ct, err := timing.New(resp.Request.Time, resp.ReceivedAt()); err == nil {
			timing.Annotate(a.header, ct)
		}
	}
	return a
}

func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.header }

func (r *restyResponseAdapter) URL() string {
	if r.resp.Request == nil {
		return ""
	}
	return r.resp.Request.URL
}

func (r *restyResponseAdapter) ReadBody() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumed {
		return nil, ErrBodyConsumed
	}
	r.consumed = true
	return r.resp.Body(), nil
}
