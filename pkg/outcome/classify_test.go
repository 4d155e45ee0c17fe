package outcome

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/restkit/pkg/httpclient"
	"github.com/samvad-hq/restkit/pkg/jsonutil"
	"github.com/samvad-hq/restkit/pkg/timing"
	"github.com/tidwall/gjson"
)

// stubResponse implements httpclient.Response and counts body reads.
type stubResponse struct {
	status  int
	header  http.Header
	url     string
	body    []byte
	readErr error
	reads   int
}

func (s *stubResponse) StatusCode() int     { return s.status }
func (s *stubResponse) Header() http.Header { return s.header }
func (s *stubResponse) URL() string         { return s.url }
func (s *stubResponse) ReadBody() ([]byte, error) {
	s.reads++
	if s.reads > 1 {
		return nil, httpclient.ErrBodyConsumed
	}
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.body, nil
}

func TestClassifyRateLimited(t *testing.T) {
	h := http.Header{}
	h.Set("X-RateLimit-Bucket", "bucket123")
	resp := &stubResponse{
		status: http.StatusTooManyRequests,
		header: h,
		body:   []byte(`{"data":"Partial information"}`),
	}

	got := Classify(resp)
	rl, ok := got.(RateLimited)
	if !ok {
		t.Fatalf("expected RateLimited, got %#v", got)
	}
	if rl.Bucket != "bucket123" {
		t.Fatalf("bucket = %q", rl.Bucket)
	}
	if rl.PartialData == nil || *rl.PartialData != "Partial information" {
		t.Fatalf("partial data = %v", rl.PartialData)
	}
	if resp.reads != 1 {
		t.Fatalf("expected exactly one body read, got %d", resp.reads)
	}
}

func TestClassifyRateLimitedLenientBody(t *testing.T) {
	cases := map[string][]byte{
		"not json":      []byte("slow down"),
		"missing field": []byte(`{"message":"slow down"}`),
		"empty":         nil,
	}
	for name, body := range cases {
		got := Classify(&stubResponse{status: http.StatusTooManyRequests, header: http.Header{}, body: body})
		rl, ok := got.(RateLimited)
		if !ok {
			t.Fatalf("%s: expected RateLimited, got %#v", name, got)
		}
		if rl.Bucket != "" || rl.PartialData != nil {
			t.Fatalf("%s: unexpected %#v", name, rl)
		}
	}
}

func TestClassifyRateLimitedStructuredData(t *testing.T) {
	got := Classify(&stubResponse{
		status: http.StatusTooManyRequests,
		body:   []byte(`{"data":{"items":[1,2]}}`),
	})
	rl := got.(RateLimited)
	if rl.PartialData == nil || *rl.PartialData != `{"items":[1,2]}` {
		t.Fatalf("partial data = %v", rl.PartialData)
	}
	if !strings.Contains(rl.Error(), `{"items":[1,2]}`) {
		t.Fatalf("error message = %q", rl.Error())
	}
}

func TestClassifySuccessEmptyBody(t *testing.T) {
	resp := &stubResponse{status: http.StatusOK, header: http.Header{}}
	got := Classify(resp)

	s, ok := got.(Success)
	if !ok || s.Body != "" {
		t.Fatalf("expected empty Success, got %#v", got)
	}
	if got.Err() != nil {
		t.Fatalf("Success.Err() = %v", got.Err())
	}

	items, err := jsonutil.DecodeArray[string](gjson.Get(s.Body, "items"))
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty items, got %#v, %v", items, err)
	}
}

func TestClassifySuccessNonUTF8(t *testing.T) {
	got := Classify(&stubResponse{status: http.StatusNoContent, body: []byte{'o', 'k', 0xff}})
	s, ok := got.(Success)
	if !ok {
		t.Fatalf("expected Success, got %#v", got)
	}
	if s.Body != "ok\uFFFD" {
		t.Fatalf("body = %q", s.Body)
	}
}

func TestClassifyFailure(t *testing.T) {
	resp := &stubResponse{
		status: http.StatusInternalServerError,
		url:    "https://api.example.com/data",
		body:   []byte("boom"),
	}
	got := Classify(resp)

	f, ok := got.(Failure)
	if !ok {
		t.Fatalf("expected Failure, got %#v", got)
	}
	if f.URL != "https://api.example.com/data" || f.StatusCode != 500 || f.Body != "boom" {
		t.Fatalf("unexpected failure %#v", f)
	}
	want := "http request failed: url https://api.example.com/data - status 500 - body boom"
	if f.Error() != want {
		t.Fatalf("Error() = %q", f.Error())
	}
}

func TestClassifyFailureBodyReadError(t *testing.T) {
	got := Classify(&stubResponse{status: http.StatusNotFound, readErr: errors.New("reset by peer")})
	f, ok := got.(Failure)
	if !ok || f.Body != "" || f.StatusCode != 404 {
		t.Fatalf("unexpected %#v", got)
	}
}

func TestClassifyDoesNotRereadConsumedBody(t *testing.T) {
	resp := &stubResponse{status: http.StatusOK, body: []byte("first")}
	if _, err := resp.ReadBody(); err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	got := Classify(resp)
	if s, ok := got.(Success); !ok || s.Body != "" {
		t.Fatalf("expected empty Success on consumed body, got %#v", got)
	}
}

func TestExchangeAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("response body"))
		case "/limited":
			w.Header().Set("X-RateLimit-Bucket", "global")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"data":"partial"}`))
		default:
			http.Error(w, "nope", http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	client := httpclient.NewRestyClient(2 * time.Second)
	ctx := context.Background()

	ok := Exchange(ctx, client, httpclient.Request{URL: srv.URL + "/ok"})
	if s, isSuccess := ok.(Success); !isSuccess || s.Body != "response body" {
		t.Fatalf("expected success, got %#v", ok)
	}

	limited := Exchange(ctx, client, httpclient.Request{URL: srv.URL + "/limited"})
	rl, isRL := limited.(RateLimited)
	if !isRL || rl.Bucket != "global" || rl.PartialData == nil || *rl.PartialData != "partial" {
		t.Fatalf("expected rate limited, got %#v", limited)
	}

	failed := Exchange(ctx, client, httpclient.Request{Method: http.MethodPost, URL: srv.URL + "/missing"})
	f, isFailure := failed.(Failure)
	if !isFailure || f.StatusCode != http.StatusBadGateway || !strings.HasSuffix(f.URL, "/missing") {
		t.Fatalf("expected failure, got %#v", failed)
	}
}

func TestRestyResponsesCarryTimingHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := httpclient.NewRestyClient(time.Second).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, ok := timing.CallLength(resp.Header()); !ok {
		t.Fatalf("expected call length header, got %v", resp.Header())
	}
	if _, ok := timing.FromHeaders(resp.Header()); !ok {
		t.Fatalf("expected sent/received headers")
	}
	if _, err := resp.ReadBody(); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := resp.ReadBody(); !errors.Is(err, httpclient.ErrBodyConsumed) {
		t.Fatalf("second read err = %v", err)
	}
}

func TestExchangeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	got := Exchange(context.Background(), httpclient.NewRestyClient(time.Second), httpclient.Request{URL: url})
	te, ok := got.(TransportError)
	if !ok {
		t.Fatalf("expected TransportError, got %#v", got)
	}
	if te.URL != url || te.Message == "" || te.Cause == nil {
		t.Fatalf("unexpected transport error %#v", te)
	}
	if !strings.HasPrefix(te.Error(), "network error: ") {
		t.Fatalf("Error() = %q", te.Error())
	}
}
