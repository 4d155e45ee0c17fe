package publishers

import (
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/restkit/pkg/outcome"
	"github.com/samvad-hq/restkit/pkg/timeutil"
	"github.com/samvad-hq/restkit/pkg/timing"
)

// Event represents the payload published downstream for one classified exchange.
type Event struct {
	ID          string  `json:"id"`
	TargetID    string  `json:"target_id"`
	TargetName  string  `json:"target_name"`
	Kind        string  `json:"kind"`
	StatusCode  int     `json:"status_code,omitempty"`
	URL         string  `json:"url,omitempty"`
	Bucket      string  `json:"bucket,omitempty"`
	PartialData *string `json:"partial_data,omitempty"`
	BodySummary string  `json:"body_summary,omitempty"`
	Error       string  `json:"error,omitempty"`
	SentAt      string  `json:"sent_at,omitempty"`
	ReceivedAt  string  `json:"received_at,omitempty"`
	DurationMs  int64   `json:"duration_ms,omitempty"`
	ObservedAt  string  `json:"observed_at"`
}

// NewEvent constructs an Event for the given target and outcome.
// ct may be nil when the exchange carried no timing annotation.
func NewEvent(targetID, targetName string, o outcome.Outcome, ct *timing.CallTiming) Event {
	evt := Event{
		ID:         uuid.NewString(),
		TargetID:   targetID,
		TargetName: targetName,
		ObservedAt: timeutil.FormatISO8601(time.Now()),
	}
	if o == nil {
		evt.Kind = outcome.KindUnknown.String()
		return evt
	}
	evt.Kind = o.Kind().String()

	switch v := o.(type) {
	case outcome.Success:
		evt.BodySummary = outcome.Summary(v.Body)
	case outcome.RateLimited:
		evt.StatusCode = 429
		evt.Bucket = v.Bucket
		evt.PartialData = v.PartialData
	case outcome.Failure:
		evt.StatusCode = v.StatusCode
		evt.URL = v.URL
		evt.BodySummary = outcome.Summary(v.Body)
	case outcome.TransportError:
		evt.URL = v.URL
	}
	if err := o.Err(); err != nil {
		evt.Error = err.Error()
	}

	if ct != nil {
		evt.SentAt = timeutil.FormatISO8601(ct.SentAt)
		evt.ReceivedAt = timeutil.FormatISO8601(ct.ReceivedAt)
		evt.DurationMs = ct.DurationMillis()
	}
	return evt
}
