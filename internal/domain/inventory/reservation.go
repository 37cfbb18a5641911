package inventory

import (
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReservationStatus represents the lifecycle status of a reservation
type ReservationStatus string

const (
	ReservationStatusActive   ReservationStatus = "active"
	ReservationStatusReleased ReservationStatus = "released"
	ReservationStatusConsumed ReservationStatus = "consumed"
)

// StockReservation earmarks on-hand stock for a confirmed order until
// it is loaded onto a trip, issued directly, or released.
type StockReservation struct {
	shared.TenantAggregateRoot
	OrderID     uuid.UUID
	WarehouseID uuid.UUID
	VariantID   uuid.UUID
	Bucket      Bucket
	Quantity    decimal.Decimal
	Status      ReservationStatus
	ExpiresAt   *time.Time
	ReleasedAt  *time.Time
	ConsumedAt  *time.Time
}

// NewStockReservation creates an active reservation against the
// on-hand bucket
func NewStockReservation(tenantID, orderID, warehouseID, variantID uuid.UUID, qty decimal.Decimal, expiresAt *time.Time) (*StockReservation, error) {
	if orderID == uuid.Nil || warehouseID == uuid.Nil || variantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order, warehouse and variant IDs are required")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Reservation quantity must be positive")
	}
	return &StockReservation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OrderID:             orderID,
		WarehouseID:         warehouseID,
		VariantID:           variantID,
		Bucket:              BucketOnHand,
		Quantity:            qty,
		Status:              ReservationStatusActive,
		ExpiresAt:           expiresAt,
	}, nil
}

// Release marks the reservation as released
func (r *StockReservation) Release() error {
	if r.Status != ReservationStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active reservations can be released")
	}
	now := time.Now().UTC()
	r.Status = ReservationStatusReleased
	r.ReleasedAt = &now
	r.UpdatedAt = now
	return nil
}

// Consume marks the reservation as consumed by a load or issue
func (r *StockReservation) Consume() error {
	if r.Status != ReservationStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active reservations can be consumed")
	}
	now := time.Now().UTC()
	r.Status = ReservationStatusConsumed
	r.ConsumedAt = &now
	r.UpdatedAt = now
	return nil
}

// IsExpired reports whether the reservation has an expiry in the past
func (r *StockReservation) IsExpired(now time.Time) bool {
	return r.Status == ReservationStatusActive && r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}
