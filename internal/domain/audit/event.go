package audit

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ActorType classifies who performed the audited action
type ActorType string

const (
	ActorUser        ActorType = "user"
	ActorSystem      ActorType = "system"
	ActorIntegration ActorType = "integration"
)

// Severity classifies the audit event
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// MaxMetadataBytes caps the serialized metadata payload per event
const MaxMetadataBytes = 8192

// Event is one append-only audit row. Events are never updated or
// individually deleted; retention purges them in bulk.
type Event struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	OccurredAt time.Time
	RecordedAt time.Time
	ActorID    *uuid.UUID
	ActorType  ActorType
	Action     string
	EntityType string
	EntityID   string
	Severity   Severity
	IP         string
	UserAgent  string
	RequestID  string
	Metadata   map[string]any
}

// Input is the raw, not-yet-validated shape of an incoming event
type Input struct {
	OccurredAt time.Time
	ActorID    *uuid.UUID
	ActorType  ActorType
	Action     string
	EntityType string
	EntityID   string
	Severity   Severity
	IP         string
	UserAgent  string
	RequestID  string
	Metadata   map[string]any
}

// NewEvent validates one input row and stamps identity and recording
// time. Validation failures carry a code so batch ingest can report
// per-row errors.
func NewEvent(tenantID uuid.UUID, in Input) (*Event, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Tenant is required")
	}
	action := strings.TrimSpace(in.Action)
	if action == "" {
		return nil, shared.NewDomainError("MISSING_ACTION", "Action is required")
	}
	entityType := strings.TrimSpace(in.EntityType)
	if entityType == "" {
		return nil, shared.NewDomainError("MISSING_ENTITY_TYPE", "Entity type is required")
	}
	actorType := in.ActorType
	if actorType == "" {
		actorType = ActorUser
	}
	switch actorType {
	case ActorUser, ActorSystem, ActorIntegration:
	default:
		return nil, shared.NewDomainErrorf("INVALID_ACTOR_TYPE", "Unknown actor type %q", in.ActorType)
	}
	severity := in.Severity
	if severity == "" {
		severity = SeverityInfo
	}
	switch severity {
	case SeverityInfo, SeverityWarning, SeverityError:
	default:
		return nil, shared.NewDomainErrorf("INVALID_SEVERITY", "Unknown severity %q", in.Severity)
	}
	if in.Metadata != nil {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_METADATA", "Metadata is not serializable")
		}
		if len(raw) > MaxMetadataBytes {
			return nil, shared.NewDomainErrorf("METADATA_TOO_LARGE", "Metadata exceeds %d bytes", MaxMetadataBytes)
		}
	}
	now := time.Now().UTC()
	occurred := in.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}
	return &Event{
		ID:         uuid.New(),
		TenantID:   tenantID,
		OccurredAt: occurred.UTC(),
		RecordedAt: now,
		ActorID:    in.ActorID,
		ActorType:  actorType,
		Action:     action,
		EntityType: entityType,
		EntityID:   strings.TrimSpace(in.EntityID),
		Severity:   severity,
		IP:         in.IP,
		UserAgent:  in.UserAgent,
		RequestID:  in.RequestID,
		Metadata:   in.Metadata,
	}, nil
}
