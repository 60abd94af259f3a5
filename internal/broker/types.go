package broker

import (
	"context"

	"registration/pkg/models"
)

type Producer interface {
	Publish(ctx context.Context, topic string, event models.DomainEvent) error
	Close() error
}
