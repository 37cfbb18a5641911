package inventory

import (
	"fmt"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bucket is a stock status bucket partitioning quantity tracking per
// warehouse and variant
type Bucket string

const (
	BucketOnHand     Bucket = "on_hand"
	BucketInTransit  Bucket = "in_transit"
	BucketTruckStock Bucket = "truck_stock"
	BucketQuarantine Bucket = "quarantine"
)

// IsValid checks if the bucket is a known stock status bucket
func (b Bucket) IsValid() bool {
	switch b {
	case BucketOnHand, BucketInTransit, BucketTruckStock, BucketQuarantine:
		return true
	}
	return false
}

// StockLevel is one row per (warehouse, variant, bucket). The
// invariant 0 <= reserved_qty <= quantity holds at every point inside
// any transaction; violations fail the mutation.
type StockLevel struct {
	shared.TenantAggregateRoot
	WarehouseID uuid.UUID
	VariantID   uuid.UUID
	Bucket      Bucket
	Quantity    decimal.Decimal
	ReservedQty decimal.Decimal
	UnitCost    decimal.Decimal // weighted-average cost, receipt-maintained
}

// NewStockLevel creates an empty stock level row
func NewStockLevel(tenantID, warehouseID, variantID uuid.UUID, bucket Bucket) (*StockLevel, error) {
	if warehouseID == uuid.Nil || variantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Warehouse and variant IDs are required")
	}
	if !bucket.IsValid() {
		return nil, shared.NewDomainError("INVALID_BUCKET", fmt.Sprintf("Unknown stock bucket %q", bucket))
	}
	return &StockLevel{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		WarehouseID:         warehouseID,
		VariantID:           variantID,
		Bucket:              bucket,
		Quantity:            decimal.Zero,
		ReservedQty:         decimal.Zero,
		UnitCost:            decimal.Zero,
	}, nil
}

// Available returns quantity minus reserved quantity
func (s *StockLevel) Available() decimal.Decimal {
	return s.Quantity.Sub(s.ReservedQty)
}

// Add increases the quantity. When unitCost is non-nil the
// weighted-average cost is recalculated over the combined quantity.
func (s *StockLevel) Add(qty decimal.Decimal, unitCost *decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity to add must be positive")
	}
	if unitCost != nil {
		if unitCost.IsNegative() {
			return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
		}
		newQty := s.Quantity.Add(qty)
		if newQty.IsPositive() {
			existing := s.Quantity.Mul(s.UnitCost)
			incoming := qty.Mul(*unitCost)
			s.UnitCost = existing.Add(incoming).Div(newQty).Round(4)
		}
	}
	s.Quantity = s.Quantity.Add(qty)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Remove decreases the quantity. The removal must fit in the
// available (unreserved) quantity.
func (s *StockLevel) Remove(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity to remove must be positive")
	}
	if qty.GreaterThan(s.Available()) {
		return shared.NewDomainErrorf("INSUFFICIENT_STOCK",
			"Insufficient stock: requested %s, available %s", qty, s.Available())
	}
	s.Quantity = s.Quantity.Sub(qty)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Reserve earmarks quantity for an order. Reservation must fit in the
// available quantity.
func (s *StockLevel) Reserve(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity to reserve must be positive")
	}
	if qty.GreaterThan(s.Available()) {
		return shared.NewDomainErrorf("INSUFFICIENT_STOCK",
			"Insufficient stock to reserve: requested %s, available %s", qty, s.Available())
	}
	s.ReservedQty = s.ReservedQty.Add(qty)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// ReleaseReservation returns reserved quantity to the available pool
func (s *StockLevel) ReleaseReservation(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity to release must be positive")
	}
	if qty.GreaterThan(s.ReservedQty) {
		return shared.NewDomainError("INVALID_STATE", "Cannot release more than is reserved")
	}
	s.ReservedQty = s.ReservedQty.Sub(qty)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// ConsumeReservation removes reserved quantity from stock in one
// step, keeping the reserved-never-exceeds-quantity invariant.
func (s *StockLevel) ConsumeReservation(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity to consume must be positive")
	}
	if qty.GreaterThan(s.ReservedQty) {
		return shared.NewDomainError("INVALID_STATE", "Cannot consume more than is reserved")
	}
	s.ReservedQty = s.ReservedQty.Sub(qty)
	s.Quantity = s.Quantity.Sub(qty)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// AdjustBy applies a signed delta. Negative deltas must fit in the
// available quantity.
func (s *StockLevel) AdjustBy(delta decimal.Decimal) error {
	if delta.IsZero() {
		return shared.NewDomainError("INVALID_QUANTITY", "Adjustment delta cannot be zero")
	}
	if delta.IsPositive() {
		return s.Add(delta, nil)
	}
	return s.Remove(delta.Neg())
}

// IsEmpty reports whether the row carries no quantity and no
// reservations
func (s *StockLevel) IsEmpty() bool {
	return s.Quantity.IsZero() && s.ReservedQty.IsZero()
}
