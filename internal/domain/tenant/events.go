package tenant

import (
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types published by the tenant aggregates
const (
	EventTenantProvisioned   = "tenant.provisioned"
	EventSubscriptionChanged = "subscription.status_changed"
)

// TenantProvisionedEvent is raised when a new tenant is created
type TenantProvisionedEvent struct {
	shared.BaseDomainEvent
	Name string
	Slug string
}

// NewTenantProvisionedEvent creates a TenantProvisionedEvent
func NewTenantProvisionedEvent(t *Tenant) *TenantProvisionedEvent {
	return &TenantProvisionedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTenantProvisioned, "tenant", t.ID, t.ID),
		Name:            t.Name,
		Slug:            t.Slug,
	}
}

// SubscriptionChangedEvent is raised when a webhook moves the
// subscription status
type SubscriptionChangedEvent struct {
	shared.BaseDomainEvent
	PlanID uuid.UUID
	Status SubscriptionStatus
}

// NewSubscriptionChangedEvent creates a SubscriptionChangedEvent
func NewSubscriptionChangedEvent(s *Subscription) *SubscriptionChangedEvent {
	return &SubscriptionChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventSubscriptionChanged, "subscription", s.ID, s.TenantID),
		PlanID:          s.PlanID,
		Status:          s.Status,
	}
}
