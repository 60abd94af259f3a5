package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"registration/internal/constants"
	"registration/internal/logger"
	"registration/pkg/metrics"
	"registration/pkg/models"
)

// InMemoryQueue is the reference queue implementation paired with a
// dead-letter queue. A message is always in exactly one of primary,
// in-flight or dead-letter; the receive-count increment and the
// primary-to-DLQ move happen under a single mutex so concurrent consumers
// can never double-move or lose a message.
type InMemoryQueue struct {
	name string
	cfg  Config
	log  logger.Logger

	mu       sync.Mutex
	pending  []*Message
	inFlight map[string]*inFlightEntry
	dlq      *InMemoryQueue
}

type inFlightEntry struct {
	msg      *Message
	deadline time.Time
}

func New(name string, cfg Config, log logger.Logger) *InMemoryQueue {
	if cfg.MaxReceiveCount <= 0 {
		cfg.MaxReceiveCount = constants.DefaultMaxReceiveCount
	}
	if cfg.VisibilityTimeout <= 0 {
		cfg.VisibilityTimeout = constants.DefaultVisibilityWindow
	}

	q := &InMemoryQueue{
		name:     name,
		cfg:      cfg,
		log:      log,
		pending:  make([]*Message, 0),
		inFlight: make(map[string]*inFlightEntry),
	}

	q.dlq = &InMemoryQueue{
		name:     name + "-dlq",
		cfg:      Config{MaxReceiveCount: cfg.MaxReceiveCount, VisibilityTimeout: cfg.VisibilityTimeout},
		log:      log,
		pending:  make([]*Message, 0),
		inFlight: make(map[string]*inFlightEntry),
	}

	return q
}

// DeadLetter exposes the paired dead-letter queue for inspection and replay.
func (q *InMemoryQueue) DeadLetter() *InMemoryQueue {
	return q.dlq
}

func (q *InMemoryQueue) Name() string {
	return q.name
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, event models.DomainEvent) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	msg := &Message{
		ID:         uuid.New().String(),
		Event:      event,
		EnqueuedAt: time.Now(),
	}

	q.mu.Lock()
	q.pending = append(q.pending, msg)
	depth := len(q.pending)
	q.mu.Unlock()

	metrics.SetQueueDepth(q.name, depth)
	return msg.ID, nil
}

// Dequeue returns the next deliverable message or nil when the queue is
// empty. Expired in-flight messages are requeued (or dead-lettered) first,
// and any head message whose receive count would exceed the maximum is moved
// to the DLQ instead of being delivered.
func (q *InMemoryQueue) Dequeue(ctx context.Context) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.expireInFlightLocked()

	for len(q.pending) > 0 {
		msg := q.pending[0]
		q.pending = q.pending[1:]

		msg.ReceiveCount++
		if msg.ReceiveCount > q.cfg.MaxReceiveCount {
			q.deadLetterLocked(msg)
			continue
		}

		q.inFlight[msg.ID] = &inFlightEntry{
			msg:      msg,
			deadline: time.Now().Add(q.cfg.VisibilityTimeout),
		}

		q.publishGaugesLocked()

		delivered := *msg
		return &delivered, nil
	}

	q.publishGaugesLocked()
	return nil, nil
}

func (q *InMemoryQueue) Ack(ctx context.Context, messageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.inFlight[messageID]; !ok {
		return ErrNotInFlight
	}

	delete(q.inFlight, messageID)
	q.publishGaugesLocked()
	return nil
}

// Nack returns an in-flight message to the front of the primary queue so it
// is redelivered before newer messages.
func (q *InMemoryQueue) Nack(ctx context.Context, messageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.inFlight[messageID]
	if !ok {
		return ErrNotInFlight
	}

	delete(q.inFlight, messageID)
	q.requeueLocked(entry.msg)
	q.publishGaugesLocked()
	return nil
}

// Len reports the number of messages waiting in the primary queue.
func (q *InMemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// InFlight reports the number of delivered but unacknowledged messages.
func (q *InMemoryQueue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inFlight)
}

func (q *InMemoryQueue) expireInFlightLocked() {
	now := time.Now()
	for id, entry := range q.inFlight {
		if now.After(entry.deadline) {
			delete(q.inFlight, id)
			q.requeueLocked(entry.msg)
		}
	}
}

// requeueLocked puts an unacknowledged message back at the front of the
// primary queue. The dead-letter decision is taken in exactly one place, the
// increment-and-compare in Dequeue.
func (q *InMemoryQueue) requeueLocked(msg *Message) {
	q.pending = append([]*Message{msg}, q.pending...)
}

func (q *InMemoryQueue) deadLetterLocked(msg *Message) {
	q.dlq.mu.Lock()
	q.dlq.pending = append(q.dlq.pending, msg)
	q.dlq.mu.Unlock()

	metrics.IncDLQMessages(q.name)
	if q.log != nil {
		q.log.Warnw("Message moved to dead-letter queue",
			"queue", q.name,
			"message_id", msg.ID,
			"receive_count", msg.ReceiveCount,
			"correlation_id", msg.Event.Metadata.CorrelationID,
		)
	}
}

func (q *InMemoryQueue) publishGaugesLocked() {
	metrics.SetQueueDepth(q.name, len(q.pending))
	metrics.SetQueueInFlight(q.name, len(q.inFlight))
}
