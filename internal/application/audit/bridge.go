package audit

import (
	"context"
	"time"

	"github.com/gasflow/backend/internal/domain/audit"
	"github.com/gasflow/backend/internal/domain/shared"
)

// EventBridge translates domain events into audit rows through the
// buffered writer. It subscribes as a wildcard handler and never fails
// the publisher.
type EventBridge struct {
	buffer *BufferedWriter
}

// NewEventBridge creates a new event bridge
func NewEventBridge(buffer *BufferedWriter) *EventBridge {
	return &EventBridge{buffer: buffer}
}

// Handle converts one domain event to an audit row and offers it to
// the buffer
func (b *EventBridge) Handle(ctx context.Context, event shared.DomainEvent) error {
	row := &audit.Event{
		ID:         event.EventID(),
		TenantID:   event.TenantID(),
		OccurredAt: event.OccurredAt(),
		RecordedAt: time.Now().UTC(),
		ActorType:  audit.ActorSystem,
		Action:     event.EventType(),
		EntityType: event.AggregateType(),
		EntityID:   event.AggregateID().String(),
		Severity:   audit.SeverityInfo,
	}
	b.buffer.Enqueue(row)
	return nil
}

// EventTypes returns nil so the bridge receives every event
func (b *EventBridge) EventTypes() []string {
	return nil
}

// Ensure EventBridge implements EventHandler
var _ shared.EventHandler = (*EventBridge)(nil)
