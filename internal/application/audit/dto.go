package audit

import (
	"time"

	"github.com/gasflow/backend/internal/domain/audit"
	"github.com/google/uuid"
)

// EventInput is one row of an ingest batch
type EventInput struct {
	OccurredAt time.Time      `json:"occurred_at"`
	ActorID    *uuid.UUID     `json:"actor_id"`
	ActorType  string         `json:"actor_type"`
	Action     string         `json:"action" binding:"required"`
	EntityType string         `json:"entity_type" binding:"required"`
	EntityID   string         `json:"entity_id"`
	Severity   string         `json:"severity"`
	Metadata   map[string]any `json:"metadata"`
}

// RowError reports a rejected row by batch index
type RowError struct {
	Index   int    `json:"index"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IngestResult summarizes one ingest batch. Queued means the rows were
// accepted into the fallback queue rather than written directly.
type IngestResult struct {
	Accepted int        `json:"accepted"`
	Rejected int        `json:"rejected"`
	Queued   bool       `json:"queued"`
	Errors   []RowError `json:"errors,omitempty"`
}

// RequestMeta carries transport-level fields stamped onto every row of
// a batch
type RequestMeta struct {
	IP        string
	UserAgent string
	RequestID string
}

// EventResponse is the read shape of one audit event
type EventResponse struct {
	ID         uuid.UUID      `json:"id"`
	OccurredAt time.Time      `json:"occurred_at"`
	RecordedAt time.Time      `json:"recorded_at"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty"`
	ActorType  string         `json:"actor_type"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	Severity   string         `json:"severity"`
	IP         string         `json:"ip,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ListFilter narrows an audit query
type ListFilter struct {
	EntityType string     `form:"entity_type"`
	EntityID   string     `form:"entity_id"`
	Action     string     `form:"action"`
	Severity   string     `form:"severity"`
	ActorID    *uuid.UUID `form:"actor_id"`
	From       time.Time  `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         time.Time  `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
}

// ToEventResponse converts a domain event to its read shape
func ToEventResponse(e *audit.Event) *EventResponse {
	return &EventResponse{
		ID:         e.ID,
		OccurredAt: e.OccurredAt,
		RecordedAt: e.RecordedAt,
		ActorID:    e.ActorID,
		ActorType:  string(e.ActorType),
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Severity:   string(e.Severity),
		IP:         e.IP,
		RequestID:  e.RequestID,
		Metadata:   e.Metadata,
	}
}
