package catalog

import (
	"github.com/gasflow/backend/internal/domain/shared"
)

// Event types published by the catalog aggregates
const (
	EventVariantCreated      = "variant.created"
	EventVariantDiscontinued = "variant.discontinued"
)

// VariantCreatedEvent is raised when a variant is created
type VariantCreatedEvent struct {
	shared.BaseDomainEvent
	SKU  string
	Kind VariantKind
}

// NewVariantCreatedEvent creates a VariantCreatedEvent
func NewVariantCreatedEvent(v *Variant) *VariantCreatedEvent {
	return &VariantCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventVariantCreated, "variant", v.ID, v.TenantID),
		SKU:             v.SKU,
		Kind:            v.Kind,
	}
}
