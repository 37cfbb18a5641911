package models

import (
	"encoding/json"
	"time"

	"github.com/gasflow/backend/internal/domain/audit"
	"github.com/google/uuid"
)

// AuditEventModel is the persistence model for audit events. The table
// is append-only; there is no version column and rows are never
// updated.
type AuditEventModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_audit_tenant_occurred,priority:1"`
	OccurredAt time.Time  `gorm:"type:timestamptz;not null;index:idx_audit_tenant_occurred,priority:2,sort:desc"`
	RecordedAt time.Time  `gorm:"type:timestamptz;not null"`
	ActorID    *uuid.UUID `gorm:"type:uuid;index"`
	ActorType  string     `gorm:"type:varchar(20);not null"`
	Action     string     `gorm:"type:varchar(100);not null;index"`
	EntityType string     `gorm:"type:varchar(100);not null;index:idx_audit_entity,priority:1"`
	EntityID   string     `gorm:"type:varchar(100);index:idx_audit_entity,priority:2"`
	Severity   string     `gorm:"type:varchar(10);not null"`
	IP         string     `gorm:"type:varchar(45)"`
	UserAgent  string     `gorm:"type:varchar(255)"`
	RequestID  string     `gorm:"type:varchar(64)"`
	Metadata   string     `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (AuditEventModel) TableName() string { return "audit_events" }

// ToDomain converts the persistence model to a domain Event
func (m *AuditEventModel) ToDomain() audit.Event {
	var metadata map[string]any
	if m.Metadata != "" {
		_ = json.Unmarshal([]byte(m.Metadata), &metadata)
	}
	return audit.Event{
		ID:         m.ID,
		TenantID:   m.TenantID,
		OccurredAt: m.OccurredAt,
		RecordedAt: m.RecordedAt,
		ActorID:    m.ActorID,
		ActorType:  audit.ActorType(m.ActorType),
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Severity:   audit.Severity(m.Severity),
		IP:         m.IP,
		UserAgent:  m.UserAgent,
		RequestID:  m.RequestID,
		Metadata:   metadata,
	}
}

// FromDomain populates the model from a domain Event
func (m *AuditEventModel) FromDomain(e *audit.Event) {
	m.ID = e.ID
	m.TenantID = e.TenantID
	m.OccurredAt = e.OccurredAt
	m.RecordedAt = e.RecordedAt
	m.ActorID = e.ActorID
	m.ActorType = string(e.ActorType)
	m.Action = e.Action
	m.EntityType = e.EntityType
	m.EntityID = e.EntityID
	m.Severity = string(e.Severity)
	m.IP = e.IP
	m.UserAgent = e.UserAgent
	m.RequestID = e.RequestID
	if len(e.Metadata) > 0 {
		b, _ := json.Marshal(e.Metadata)
		m.Metadata = string(b)
	} else {
		m.Metadata = "{}"
	}
}
