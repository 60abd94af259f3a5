package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the fact published after a customer registration has been
// persisted. Data carries the original raw request body and is opaque to the
// routing layer; Source and DetailType form the dispatch key.
type DomainEvent struct {
	Source     string          `json:"source"`
	DetailType string          `json:"detailType"`
	Metadata   EventMetadata   `json:"metadata"`
	Data       json.RawMessage `json:"data"`
}

type EventMetadata struct {
	CorrelationID string    `json:"correlation_id"`
	CausationID   string    `json:"causation_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewDomainEvent mints a fresh correlation id per publish; each re-driven
// workflow is distinguishable downstream by its correlation id while the
// causation id still ties the event to its execution.
func NewDomainEvent(source, detailType, causationID string, ts time.Time, data json.RawMessage) DomainEvent {
	return DomainEvent{
		Source:     source,
		DetailType: detailType,
		Metadata: EventMetadata{
			CorrelationID: uuid.New().String(),
			CausationID:   causationID,
			Timestamp:     ts,
		},
		Data: data,
	}
}
