package logistics

import (
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryLine records what actually left the truck for one order
// line. DeliveredQty may fall short of OrderedQty; EmptiesCollected
// only applies to asset variants (cylinders swapped at the door).
type DeliveryLine struct {
	ID               uuid.UUID
	DeliveryID       uuid.UUID
	OrderLineID      uuid.UUID
	VariantID        uuid.UUID
	SKU              string
	OrderedQty       decimal.Decimal
	DeliveredQty     decimal.Decimal
	EmptiesCollected decimal.Decimal
	TrackStock       bool
	IsAsset          bool
}

// DeliveryLineInput is the per-line input for recording a delivery
type DeliveryLineInput struct {
	OrderLineID      uuid.UUID
	VariantID        uuid.UUID
	SKU              string
	OrderedQty       decimal.Decimal
	DeliveredQty     decimal.Decimal
	EmptiesCollected decimal.Decimal
	TrackStock       bool
	IsAsset          bool
}

// Delivery is the proof-of-delivery document for one stop: what was
// handed over and what empties came back
type Delivery struct {
	shared.TenantAggregateRoot
	DeliveryNumber string
	TripID         uuid.UUID
	StopID         uuid.UUID
	OrderID        uuid.UUID
	CustomerID     uuid.UUID
	DeliveredAt    time.Time
	ReceivedBy     string
	Notes          string
	Lines          []DeliveryLine
}

// NewDelivery builds and validates a delivery in one step; deliveries
// are immutable once recorded
func NewDelivery(tenantID uuid.UUID, deliveryNumber string, tripID, stopID, orderID, customerID uuid.UUID, receivedBy string, lines []DeliveryLineInput) (*Delivery, error) {
	if strings.TrimSpace(deliveryNumber) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Delivery number cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "A delivery needs at least one line")
	}
	d := &Delivery{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		DeliveryNumber:      deliveryNumber,
		TripID:              tripID,
		StopID:              stopID,
		OrderID:             orderID,
		CustomerID:          customerID,
		DeliveredAt:         time.Now().UTC(),
		ReceivedBy:          strings.TrimSpace(receivedBy),
		Lines:               make([]DeliveryLine, 0, len(lines)),
	}
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, in := range lines {
		if seen[in.OrderLineID] {
			return nil, shared.NewDomainError("INVALID_INPUT", "Duplicate order line in delivery")
		}
		seen[in.OrderLineID] = true
		if in.DeliveredQty.IsNegative() {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Delivered quantity cannot be negative")
		}
		if in.DeliveredQty.GreaterThan(in.OrderedQty) {
			return nil, shared.NewDomainErrorf("INVALID_QUANTITY", "Delivered quantity %s exceeds ordered %s for %s", in.DeliveredQty, in.OrderedQty, in.SKU)
		}
		if in.EmptiesCollected.IsNegative() {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Empties collected cannot be negative")
		}
		if in.EmptiesCollected.IsPositive() && !in.IsAsset {
			return nil, shared.NewDomainErrorf("INVALID_INPUT", "Empties can only be collected against asset variants, not %s", in.SKU)
		}
		d.Lines = append(d.Lines, DeliveryLine{
			ID:               uuid.New(),
			DeliveryID:       d.ID,
			OrderLineID:      in.OrderLineID,
			VariantID:        in.VariantID,
			SKU:              in.SKU,
			OrderedQty:       in.OrderedQty,
			DeliveredQty:     in.DeliveredQty,
			EmptiesCollected: in.EmptiesCollected,
			TrackStock:       in.TrackStock,
			IsAsset:          in.IsAsset,
		})
	}
	d.AddDomainEvent(NewDeliveryRecordedEvent(d))
	return d, nil
}

// StockIssued returns delivered quantity per stock-tracked variant,
// the basis of the ISSUE document against truck stock
func (d *Delivery) StockIssued() map[uuid.UUID]decimal.Decimal {
	issued := make(map[uuid.UUID]decimal.Decimal)
	for _, l := range d.Lines {
		if !l.TrackStock || !l.DeliveredQty.IsPositive() {
			continue
		}
		issued[l.VariantID] = issued[l.VariantID].Add(l.DeliveredQty)
	}
	return issued
}

// EmptiesCollected returns collected empties per asset variant, the
// basis of the RECEIPT document into truck quarantine
func (d *Delivery) EmptiesCollected() map[uuid.UUID]decimal.Decimal {
	empties := make(map[uuid.UUID]decimal.Decimal)
	for _, l := range d.Lines {
		if !l.EmptiesCollected.IsPositive() {
			continue
		}
		empties[l.VariantID] = empties[l.VariantID].Add(l.EmptiesCollected)
	}
	return empties
}

// IsShort reports whether any line delivered less than ordered
func (d *Delivery) IsShort() bool {
	for _, l := range d.Lines {
		if l.DeliveredQty.LessThan(l.OrderedQty) {
			return true
		}
	}
	return false
}
