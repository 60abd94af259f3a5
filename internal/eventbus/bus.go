package eventbus

import (
	"context"

	"registration/internal/broker"
	"registration/internal/logger"
	"registration/pkg/logging"
	"registration/pkg/models"
	"registration/pkg/tracing"
)

// Bus is the in-process event fabric. Publishing hands the event to the
// router synchronously; delivery failures are decoupled from the publish
// itself and only surface in logs and metrics. An optional Kafka mirror
// re-produces every published event to an external topic so subsystems
// outside this process hear about it too.
type Bus struct {
	router      *Router
	mirror      broker.Producer
	mirrorTopic string
	log         logger.Logger
}

type BusOption func(*Bus)

// WithMirror mirrors every published event to the given Kafka topic.
func WithMirror(producer broker.Producer, topic string) BusOption {
	return func(b *Bus) {
		b.mirror = producer
		b.mirrorTopic = topic
	}
}

func NewBus(router *Router, log logger.Logger, opts ...BusOption) *Bus {
	b := &Bus{
		router: router,
		log:    log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers the event to the named bus and triggers rule evaluation.
// Fan-out failures do not fail the publish.
func (b *Bus) Publish(ctx context.Context, busID string, event models.DomainEvent) error {
	ctx, span := tracing.GetTracer("eventbus").Start(ctx, "eventbus.publish")
	defer span.End()

	ctx = logging.WithCorrelationID(ctx, event.Metadata.CorrelationID)

	results := b.router.Route(ctx, busID, event)
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}

	b.log.DebugwCtx(ctx, "Event routed",
		"bus", busID,
		"source", event.Source,
		"detail_type", event.DetailType,
		"deliveries", len(results),
		"failed", failed,
	)

	if b.mirror != nil && b.mirrorTopic != "" {
		if err := b.mirror.Publish(ctx, b.mirrorTopic, event); err != nil {
			// Mirror delivery is best effort; the in-process fan-out already
			// happened and must not be rolled back.
			b.log.ErrorwCtx(ctx, "Failed to mirror event to kafka",
				"topic", b.mirrorTopic,
				"error", err,
			)
		}
	}

	return nil
}

// Subscribe registers a routing rule on the underlying router.
func (b *Bus) Subscribe(rule Rule) {
	b.router.Subscribe(rule)
}
