package queue

import (
	"context"
	"errors"
	"time"

	"registration/pkg/models"
)

var ErrNotInFlight = errors.New("message is not in flight")

// Message wraps a routed DomainEvent while it sits on a queue. ReceiveCount
// is incremented once per delivery attempt; when it exceeds the configured
// maximum the queue moves the message to its paired dead-letter queue.
type Message struct {
	ID           string
	Event        models.DomainEvent
	ReceiveCount int
	EnqueuedAt   time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, event models.DomainEvent) (string, error)
	Dequeue(ctx context.Context) (*Message, error)
	Ack(ctx context.Context, messageID string) error
	Nack(ctx context.Context, messageID string) error
}

type Config struct {
	MaxReceiveCount   int
	VisibilityTimeout time.Duration
}
