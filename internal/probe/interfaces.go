package probe

import (
	"context"

	"github.com/samvad-hq/restkit/pkg/publishers"
)

// EventPublisher publishes outcome events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Recorder receives per-exchange observations.
type Recorder interface {
	ObserveOutcome(targetID, kind string)
	ObserveRateLimit(targetID, bucket string)
	ObserveDuration(targetID string, seconds float64)
	ObservePublishError(targetID string)
}
