package pricing

import (
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of a price list
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Item is one price break within a price list. MinQuantity 0 is the
// base price; higher breaks win for larger quantities.
type Item struct {
	ID          uuid.UUID
	VariantID   uuid.UUID
	MinQuantity decimal.Decimal
	UnitPrice   decimal.Decimal
}

// PriceList is a tenant-scoped set of variant prices with optional
// validity window. At most one list per tenant is the default.
type PriceList struct {
	shared.TenantAggregateRoot
	Code      string
	Name      string
	Currency  string
	ValidFrom *time.Time
	ValidTo   *time.Time
	IsDefault bool
	Status    Status
	Items     []Item
}

// NewPriceList creates a new active price list
func NewPriceList(tenantID uuid.UUID, code, name, currency string) (*PriceList, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Price list code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Price list name cannot be empty")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency must be a three-letter ISO code")
	}
	return &PriceList{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                strings.TrimSpace(name),
		Currency:            currency,
		Status:              StatusActive,
		Items:               make([]Item, 0),
	}, nil
}

// SetValidity sets the optional validity window
func (p *PriceList) SetValidity(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return shared.NewDomainError("INVALID_VALIDITY", "Valid-to cannot precede valid-from")
	}
	p.ValidFrom = from
	p.ValidTo = to
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// UpsertItem inserts or replaces the price break for (variant,
// min_quantity)
func (p *PriceList) UpsertItem(variantID uuid.UUID, minQuantity, unitPrice decimal.Decimal) error {
	if p.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify an archived price list")
	}
	if variantID == uuid.Nil {
		return shared.NewDomainError("INVALID_VARIANT", "Variant ID cannot be empty")
	}
	if minQuantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Minimum quantity cannot be negative")
	}
	if unitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	for i := range p.Items {
		if p.Items[i].VariantID == variantID && p.Items[i].MinQuantity.Equal(minQuantity) {
			p.Items[i].UnitPrice = unitPrice
			p.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	p.Items = append(p.Items, Item{
		ID:          uuid.New(),
		VariantID:   variantID,
		MinQuantity: minQuantity,
		UnitPrice:   unitPrice,
	})
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// RemoveItem removes a price break by ID
func (p *PriceList) RemoveItem(itemID uuid.UUID) error {
	if p.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify an archived price list")
	}
	for i := range p.Items {
		if p.Items[i].ID == itemID {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			p.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Price list item not found")
}

// Archive retires the list. Archived lists never resolve prices.
func (p *PriceList) Archive() error {
	if p.Status == StatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Price list is already archived")
	}
	p.Status = StatusArchived
	p.IsDefault = false
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkDefault flags this list as the tenant default. The application
// service unsets the previous default in the same transaction.
func (p *PriceList) MarkDefault() error {
	if p.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active price lists can be the default")
	}
	p.IsDefault = true
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// UnmarkDefault clears the default flag
func (p *PriceList) UnmarkDefault() {
	p.IsDefault = false
	p.UpdatedAt = time.Now().UTC()
}

// IsValidAt reports whether the list's validity window covers the
// given instant
func (p *PriceList) IsValidAt(at time.Time) bool {
	if p.Status != StatusActive {
		return false
	}
	if p.ValidFrom != nil && at.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidTo != nil && at.After(*p.ValidTo) {
		return false
	}
	return true
}

// PriceFor returns the best price break for the variant at the given
// quantity: the highest MinQuantity that does not exceed qty. Returns
// nil when the list has no applicable break.
func (p *PriceList) PriceFor(variantID uuid.UUID, qty decimal.Decimal) *Item {
	var best *Item
	for i := range p.Items {
		item := &p.Items[i]
		if item.VariantID != variantID {
			continue
		}
		if item.MinQuantity.GreaterThan(qty) {
			continue
		}
		if best == nil || item.MinQuantity.GreaterThan(best.MinQuantity) {
			best = item
		}
	}
	return best
}
