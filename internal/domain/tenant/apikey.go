package tenant

import (
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// APIKey authenticates machine callers on the ingest surface. The
// secret is bcrypt-hashed; only the prefix is stored in the clear for
// lookup.
type APIKey struct {
	shared.TenantAggregateRoot
	Name       string
	Prefix     string
	SecretHash string
	LastUsedAt *time.Time
	RevokedAt  *time.Time
}

// NewAPIKey records a freshly generated key. The caller generates the
// secret and hashes it; the plaintext is shown once and never stored.
func NewAPIKey(tenantID uuid.UUID, name, prefix, secretHash string) (*APIKey, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "API key name cannot be empty")
	}
	if prefix == "" || secretHash == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Key prefix and hash are required")
	}
	return &APIKey{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                strings.TrimSpace(name),
		Prefix:              prefix,
		SecretHash:          secretHash,
	}, nil
}

// Revoke permanently disables the key
func (k *APIKey) Revoke() error {
	if k.RevokedAt != nil {
		return shared.NewDomainError("INVALID_STATE", "API key is already revoked")
	}
	now := time.Now().UTC()
	k.RevokedAt = &now
	k.UpdatedAt = now
	return nil
}

// IsRevoked reports whether the key can still authenticate
func (k *APIKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

// TouchUsed stamps last use, throttled so verification does not write
// on every request
func (k *APIKey) TouchUsed(minInterval time.Duration) bool {
	now := time.Now().UTC()
	if k.LastUsedAt != nil && now.Sub(*k.LastUsedAt) < minInterval {
		return false
	}
	k.LastUsedAt = &now
	return true
}

// UsageMetric names a billable usage counter
type UsageMetric string

const (
	MetricOrdersCreated       UsageMetric = "orders_created"
	MetricAuditEventsIngested UsageMetric = "audit_events_ingested"
)

// UsageRecord accumulates one metric for one tenant over a billing
// period (the first day of the month, UTC)
type UsageRecord struct {
	shared.BaseEntity
	TenantID uuid.UUID
	Metric   UsageMetric
	Quantity int64
	Period   time.Time
}

// PeriodFor truncates a timestamp to its billing period
func PeriodFor(at time.Time) time.Time {
	at = at.UTC()
	return time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NewUsageRecord starts a counter for a metric and period
func NewUsageRecord(tenantID uuid.UUID, metric UsageMetric, period time.Time, quantity int64) (*UsageRecord, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Tenant is required")
	}
	if quantity < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Usage quantity cannot be negative")
	}
	return &UsageRecord{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Metric:     metric,
		Quantity:   quantity,
		Period:     PeriodFor(period),
	}, nil
}
