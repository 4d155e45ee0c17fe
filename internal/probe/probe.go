package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/restkit/internal/logger"
	"github.com/samvad-hq/restkit/internal/storage"
	"github.com/samvad-hq/restkit/pkg/httpclient"
	"github.com/samvad-hq/restkit/pkg/outcome"
	"github.com/samvad-hq/restkit/pkg/publishers"
	"github.com/samvad-hq/restkit/pkg/targets"
	"github.com/samvad-hq/restkit/pkg/timing"
)

// Service exchanges with targets, classifies the responses and routes changes downstream.
type Service struct {
	client    httpclient.Client
	publisher EventPublisher
	log       logger.Logger
	store     storage.Store
	recorder  Recorder
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewService wires a probe service. Nil dependencies fall back to no-ops.
func NewService(client httpclient.Client, pub EventPublisher, log logger.Logger, store storage.Store, rec Recorder) *Service {
	if log == nil {
		log = logger.NopLogger{}
	}
	if store == nil {
		store, _ = storage.NewStore(storage.TypeNone, "", storage.Options{})
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{
		client:    client,
		publisher: pub,
		log:       log,
		store:     store,
		recorder:  rec,
		sleep:     sleepCtx,
	}
}

// Result is the classified outcome of one target exchange.
type Result struct {
	Target    targets.Target
	Outcome   outcome.Outcome
	Timing    *timing.CallTiming
	Changed   bool
	Published int
}

// Run executes one probe pass over targets.
func (s *Service) Run(ctx context.Context, tgts []targets.Target) ([]Result, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("probe service is not initialized")
	}
	if len(tgts) == 0 {
		return nil, fmt.Errorf("no targets configured for probing")
	}

	results := make([]Result, 0, len(tgts))
	var errs []error

	for i, t := range tgts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		res, err := s.runTarget(ctx, t)
		results = append(results, res)
		if err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("target probe failed", "target_error", map[string]any{
				"target_id": t.ID,
				"error":     err.Error(),
			})
		}

		if i < len(tgts)-1 {
			if err := s.sleep(ctx, t.RequestDelay()); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}

	return results, errors.Join(errs...)
}

func (s *Service) runTarget(ctx context.Context, t targets.Target) (Result, error) {
	res := Result{Target: t}

	req := targets.Request(t)
	resp, err := s.client.Do(ctx, req)
	if err != nil {
		res.Outcome = outcome.FromTransportError(req.URL, err)
	} else {
		if ct, ok := timing.FromHeaders(resp.Header()); ok {
			res.Timing = &ct
		}
		res.Outcome = outcome.Classify(resp)
	}

	kind := res.Outcome.Kind().String()
	s.record(t, res)

	fields := map[string]any{
		"target_id": t.ID,
		"kind":      kind,
	}
	if resp != nil {
		if length, ok := timing.CallLength(resp.Header()); ok {
			fields["call_length"] = length
		}
	}
	if err := res.Outcome.Err(); err != nil {
		fields["error"] = err.Error()
	}
	s.log.InfoObj("target probed", "probe_result", fields)

	last, seen, err := s.store.LastKind(t.ID)
	if err != nil {
		s.log.WarnObj("storage lookup failed; treating as changed", "storage_error", map[string]any{
			"target_id": t.ID,
			"error":     err.Error(),
		})
	}
	if seen && last == kind {
		s.log.DebugObj("outcome unchanged; skipping publish", "probe_skip", map[string]any{
			"target_id": t.ID,
			"kind":      kind,
		})
		return res, nil
	}
	res.Changed = true

	if s.publisher != nil {
		evt := publishers.NewEvent(t.ID, t.Name, res.Outcome, res.Timing)
		n, err := s.publisher.Publish(ctx, evt)
		res.Published = n
		if err != nil {
			s.recorder.ObservePublishError(t.ID)
			if n == 0 {
				// Leave the stored kind untouched so the next pass retries.
				return res, fmt.Errorf("publish outcome for target %s: %w", t.ID, err)
			}
			s.log.WarnObj("outcome partially published", "publish_error", map[string]any{
				"target_id": t.ID,
				"delivered": n,
				"error":     err.Error(),
			})
		}
	}

	if err := s.store.SetKind(t.ID, kind); err != nil {
		return res, fmt.Errorf("store outcome for target %s: %w", t.ID, err)
	}
	return res, nil
}

func (s *Service) record(t targets.Target, res Result) {
	s.recorder.ObserveOutcome(t.ID, res.Outcome.Kind().String())
	if rl, ok := res.Outcome.(outcome.RateLimited); ok {
		s.recorder.ObserveRateLimit(t.ID, rl.Bucket)
	}
	if res.Timing != nil {
		s.recorder.ObserveDuration(t.ID, res.Timing.Duration().Seconds())
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveOutcome(string, string)   {}
func (nopRecorder) ObserveRateLimit(string, string) {}
func (nopRecorder) ObserveDuration(string, float64) {}
func (nopRecorder) ObservePublishError(string)      {}
