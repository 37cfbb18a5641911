package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VariantKind is the atomic SKU classification. Assets are physical
// cylinders, consumables are the gas itself, deposits are refundable
// charges, and bundles compose the other three.
type VariantKind string

const (
	KindAsset      VariantKind = "asset"
	KindConsumable VariantKind = "consumable"
	KindDeposit    VariantKind = "deposit"
	KindBundle     VariantKind = "bundle"
)

// IsValid checks if the kind is a known variant kind
func (k VariantKind) IsValid() bool {
	switch k {
	case KindAsset, KindConsumable, KindDeposit, KindBundle:
		return true
	}
	return false
}

// Unit is the unit of measure for a variant
type Unit string

const (
	UnitEach     Unit = "EA"
	UnitKilogram Unit = "KG"
	UnitLitre    Unit = "L"
)

// IsValid checks if the unit is a known unit of measure
func (u Unit) IsValid() bool {
	switch u {
	case UnitEach, UnitKilogram, UnitLitre:
		return true
	}
	return false
}

// VariantStatus represents the lifecycle status of a variant
type VariantStatus string

const (
	VariantStatusActive       VariantStatus = "active"
	VariantStatusDiscontinued VariantStatus = "discontinued"
)

// BundleComponent is one line of a bundle's composition
type BundleComponent struct {
	ID                 uuid.UUID
	ComponentVariantID uuid.UUID
	Quantity           decimal.Decimal
}

// ComponentQuantity pairs a variant with a quantity when a bundle is
// exploded into its parts
type ComponentQuantity struct {
	VariantID uuid.UUID
	Quantity  decimal.Decimal
}

// Variant is the sellable and stockable unit of the catalog. Kind is
// immutable after creation; only asset and consumable variants track
// stock.
type Variant struct {
	shared.TenantAggregateRoot
	ProductID    uuid.UUID
	SKU          string
	Name         string
	Kind         VariantKind
	Unit         Unit
	Barcode      string
	TrackStock   bool
	DefaultPrice decimal.Decimal
	TareWeightKg *decimal.Decimal // asset variants: empty cylinder weight
	CapacityKg   *decimal.Decimal // asset variants: gas capacity
	Status       VariantStatus
	Components   []BundleComponent
}

// NewVariant creates a new variant with kind-specific validation.
// Stock tracking is implied by the kind: assets and consumables track
// stock, deposits and bundles never do.
func NewVariant(tenantID, productID uuid.UUID, sku, name string, kind VariantKind, unit Unit) (*Variant, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 40 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 40 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Variant name cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", fmt.Sprintf("Unknown variant kind %q", kind))
	}
	if !unit.IsValid() {
		return nil, shared.NewDomainError("INVALID_UNIT", fmt.Sprintf("Unknown unit %q", unit))
	}

	v := &Variant{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		SKU:                 sku,
		Name:                strings.TrimSpace(name),
		Kind:                kind,
		Unit:                unit,
		TrackStock:          kind == KindAsset || kind == KindConsumable,
		DefaultPrice:        decimal.Zero,
		Status:              VariantStatusActive,
		Components:          make([]BundleComponent, 0),
	}
	v.AddDomainEvent(NewVariantCreatedEvent(v))
	return v, nil
}

// Update changes the mutable display fields
func (v *Variant) Update(name, barcode string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Variant name cannot be empty")
	}
	v.Name = strings.TrimSpace(name)
	v.Barcode = strings.TrimSpace(barcode)
	v.UpdatedAt = time.Now().UTC()
	return nil
}

// SetDefaultPrice sets the fallback price used when no price list
// resolves
func (v *Variant) SetDefaultPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Default price cannot be negative")
	}
	v.DefaultPrice = price
	v.UpdatedAt = time.Now().UTC()
	return nil
}

// SetCylinderSpec sets the physical cylinder properties. Only valid
// for asset variants.
func (v *Variant) SetCylinderSpec(tareWeightKg, capacityKg decimal.Decimal) error {
	if v.Kind != KindAsset {
		return shared.NewDomainError("INVALID_KIND", "Cylinder specs apply only to asset variants")
	}
	if tareWeightKg.LessThanOrEqual(decimal.Zero) || capacityKg.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_SPEC", "Tare weight and capacity must be positive")
	}
	v.TareWeightKg = &tareWeightKg
	v.CapacityKg = &capacityKg
	v.UpdatedAt = time.Now().UTC()
	return nil
}

// Discontinue marks the variant as discontinued. Discontinued
// variants are rejected on new order lines but keep their stock rows.
func (v *Variant) Discontinue() error {
	if v.Status == VariantStatusDiscontinued {
		return shared.NewDomainError("INVALID_STATE", "Variant is already discontinued")
	}
	v.Status = VariantStatusDiscontinued
	v.UpdatedAt = time.Now().UTC()
	return nil
}

// IsActive returns true while the variant is sellable
func (v *Variant) IsActive() bool {
	return v.Status == VariantStatusActive
}

// IsBundle returns true for bundle variants
func (v *Variant) IsBundle() bool {
	return v.Kind == KindBundle
}

// SetComponents replaces the bundle composition. Components must be
// non-bundle variants; the caller resolves and passes their kinds.
func (v *Variant) SetComponents(components []BundleComponent, kinds map[uuid.UUID]VariantKind) error {
	if v.Kind != KindBundle {
		return shared.NewDomainError("INVALID_KIND", "Only bundle variants have components")
	}
	if len(components) == 0 {
		return shared.NewDomainError("INVALID_COMPONENTS", "A bundle requires at least one component")
	}
	seen := make(map[uuid.UUID]bool, len(components))
	for i := range components {
		comp := &components[i]
		if comp.ComponentVariantID == uuid.Nil {
			return shared.NewDomainError("INVALID_COMPONENTS", "Component variant ID cannot be empty")
		}
		if comp.ComponentVariantID == v.ID {
			return shared.NewDomainError("INVALID_COMPONENTS", "A bundle cannot contain itself")
		}
		if comp.Quantity.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_COMPONENTS", "Component quantity must be positive")
		}
		if seen[comp.ComponentVariantID] {
			return shared.NewDomainError("INVALID_COMPONENTS", "Duplicate component variant")
		}
		seen[comp.ComponentVariantID] = true

		kind, ok := kinds[comp.ComponentVariantID]
		if !ok {
			return shared.NewDomainError("INVALID_COMPONENTS", "Component variant kind not resolved")
		}
		if kind == KindBundle {
			return shared.NewDomainError("INVALID_COMPONENTS", "Bundles cannot nest other bundles")
		}
		if comp.ID == uuid.Nil {
			comp.ID = uuid.New()
		}
	}
	v.Components = components
	v.UpdatedAt = time.Now().UTC()
	return nil
}

// Explode returns the component quantities for one unit of the
// bundle, scaled by qty
func (v *Variant) Explode(qty decimal.Decimal) ([]ComponentQuantity, error) {
	if v.Kind != KindBundle {
		return nil, shared.NewDomainError("INVALID_KIND", "Only bundle variants can be exploded")
	}
	if len(v.Components) == 0 {
		return nil, shared.NewDomainError("INVALID_STATE", "Bundle has no components")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	out := make([]ComponentQuantity, 0, len(v.Components))
	for _, comp := range v.Components {
		out = append(out, ComponentQuantity{
			VariantID: comp.ComponentVariantID,
			Quantity:  comp.Quantity.Mul(qty),
		})
	}
	return out, nil
}
