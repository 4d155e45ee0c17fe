package publishers

import "context"

// Publisher sends events to a downstream sink (SQS, SNS, Pub/Sub, Kafka, HTTP).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Closer is implemented by publishers holding connections that must be released.
type Closer interface {
	Close() error
}
