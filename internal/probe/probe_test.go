package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/restkit/internal/storage"
	"github.com/samvad-hq/restkit/pkg/httpclient"
	"github.com/samvad-hq/restkit/pkg/outcome"
	"github.com/samvad-hq/restkit/pkg/publishers"
	"github.com/samvad-hq/restkit/pkg/targets"
)

// fakePublisher records published events and can inject errors.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishers.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

// fakeRecorder counts observations per kind.
type fakeRecorder struct {
	outcomes      map[string]int
	rateLimits    map[string]int
	durations     int
	publishErrors int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{outcomes: map[string]int{}, rateLimits: map[string]int{}}
}

func (f *fakeRecorder) ObserveOutcome(_, kind string)     { f.outcomes[kind]++ }
func (f *fakeRecorder) ObserveRateLimit(_, bucket string) { f.rateLimits[bucket]++ }
func (f *fakeRecorder) ObserveDuration(string, float64)   { f.durations++ }
func (f *fakeRecorder) ObservePublishError(string)        { f.publishErrors++ }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("healthy"))
	})
	mux.HandleFunc("/limited", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(outcome.HeaderRateLimitBucket, "global")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"data":"slow down"}`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newService(pub EventPublisher, store storage.Store, rec Recorder) *Service {
	svc := NewService(httpclient.NewRestyClient(2*time.Second), pub, nil, store, rec)
	svc.sleep = func(context.Context, time.Duration) error { return nil }
	return svc
}

func TestRunClassifiesAndPublishes(t *testing.T) {
	srv := newTestServer(t)
	pub := &fakePublisher{}
	rec := newFakeRecorder()
	svc := newService(pub, nil, rec)

	results, err := svc.Run(context.Background(), []targets.Target{
		{ID: "ok", Name: "OK", Method: http.MethodGet, URL: srv.URL + "/ok"},
		{ID: "limited", Name: "Limited", Method: http.MethodGet, URL: srv.URL + "/limited"},
		{ID: "broken", Name: "Broken", Method: http.MethodGet, URL: srv.URL + "/broken"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 || len(pub.events) != 3 {
		t.Fatalf("results=%d events=%d", len(results), len(pub.events))
	}

	if results[0].Outcome.Kind() != outcome.KindSuccess {
		t.Fatalf("ok target kind = %v", results[0].Outcome.Kind())
	}
	if results[0].Timing == nil {
		t.Fatalf("expected timing annotation from resty client")
	}

	rl, ok := results[1].Outcome.(outcome.RateLimited)
	if !ok || rl.Bucket != "global" || rl.PartialData == nil || *rl.PartialData != "slow down" {
		t.Fatalf("limited target outcome = %#v", results[1].Outcome)
	}
	if pub.events[1].Bucket != "global" || pub.events[1].TargetName != "Limited" {
		t.Fatalf("limited event = %#v", pub.events[1])
	}

	if results[2].Outcome.Kind() != outcome.KindFailure || pub.events[2].StatusCode != 500 {
		t.Fatalf("broken target outcome = %#v", results[2].Outcome)
	}

	if rec.outcomes["success"] != 1 || rec.outcomes["rate_limited"] != 1 || rec.outcomes["failure"] != 1 {
		t.Fatalf("recorded outcomes = %#v", rec.outcomes)
	}
	if rec.rateLimits["global"] != 1 || rec.durations != 3 {
		t.Fatalf("rate limits=%#v durations=%d", rec.rateLimits, rec.durations)
	}
}

func TestRunTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	pub := &fakePublisher{}
	results, err := newService(pub, nil, nil).Run(context.Background(), []targets.Target{
		{ID: "gone", Method: http.MethodGet, URL: url},
	})
	if err != nil {
		t.Fatalf("transport errors are outcomes, not run errors: %v", err)
	}
	if results[0].Outcome.Kind() != outcome.KindTransport {
		t.Fatalf("kind = %v", results[0].Outcome.Kind())
	}
	if results[0].Timing != nil {
		t.Fatalf("transport errors carry no timing")
	}
	if len(pub.events) != 1 || pub.events[0].Kind != "transport_error" {
		t.Fatalf("events = %#v", pub.events)
	}
}

func TestRunSkipsUnchangedOutcomes(t *testing.T) {
	srv := newTestServer(t)
	store, err := storage.NewStore(storage.TypeBBolt, filepath.Join(t.TempDir(), "outcomes.db"), storage.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	pub := &fakePublisher{}
	svc := newService(pub, store, nil)
	tgts := []targets.Target{{ID: "ok", Method: http.MethodGet, URL: srv.URL + "/ok"}}

	first, err := svc.Run(context.Background(), tgts)
	if err != nil || !first[0].Changed {
		t.Fatalf("first run: changed=%v err=%v", first[0].Changed, err)
	}
	second, err := svc.Run(context.Background(), tgts)
	if err != nil || second[0].Changed {
		t.Fatalf("second run: changed=%v err=%v", second[0].Changed, err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected a single published event, got %d", len(pub.events))
	}

	kind, ok, err := store.LastKind("ok")
	if err != nil || !ok || kind != "success" {
		t.Fatalf("stored kind=%q ok=%v err=%v", kind, ok, err)
	}
}

func TestRunPublishFailureKeepsStoredKind(t *testing.T) {
	srv := newTestServer(t)
	store, err := storage.NewStore(storage.TypeBBolt, filepath.Join(t.TempDir(), "outcomes.db"), storage.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	rec := newFakeRecorder()
	pub := &fakePublisher{err: errors.New("sink down")}
	svc := newService(pub, store, rec)

	_, err = svc.Run(context.Background(), []targets.Target{{ID: "ok", Method: http.MethodGet, URL: srv.URL + "/ok"}})
	if err == nil {
		t.Fatalf("expected publish error")
	}
	if rec.publishErrors != 1 {
		t.Fatalf("publish errors = %d", rec.publishErrors)
	}
	if _, ok, _ := store.LastKind("ok"); ok {
		t.Fatalf("kind should not be stored when nothing was delivered")
	}
}

func TestRunRequiresTargets(t *testing.T) {
	if _, err := newService(nil, nil, nil).Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty targets")
	}
	var svc *Service
	if _, err := svc.Run(context.Background(), []targets.Target{{ID: "x"}}); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := newService(nil, nil, nil).Run(ctx, []targets.Target{{ID: "ok", Method: http.MethodGet, URL: srv.URL + "/ok"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("no targets should be probed after cancellation")
	}
}
