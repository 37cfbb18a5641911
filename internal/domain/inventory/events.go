package inventory

import (
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types published by the inventory aggregates
const (
	EventStockDocumentPosted = "stock_document.posted"
	EventStockBelowZeroGuard = "stock_level.below_zero_guard"
	EventReservationReleased = "stock_reservation.released"
)

// StockDocumentPostedEvent is raised when a stock document is posted
type StockDocumentPostedEvent struct {
	shared.BaseDomainEvent
	DocNumber     string
	DocType       DocumentType
	WarehouseID   uuid.UUID
	TotalQuantity decimal.Decimal
}

// NewStockDocumentPostedEvent creates a StockDocumentPostedEvent
func NewStockDocumentPostedEvent(d *StockDocument) *StockDocumentPostedEvent {
	return &StockDocumentPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventStockDocumentPosted, "stock_document", d.ID, d.TenantID),
		DocNumber:       d.DocNumber,
		DocType:         d.Type,
		WarehouseID:     d.WarehouseID,
		TotalQuantity:   d.TotalQuantity(),
	}
}

// ReservationReleasedEvent is raised when a reservation is released
// back to the available pool (order cancelled or reservation expired)
type ReservationReleasedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID
	VariantID uuid.UUID
	Quantity  decimal.Decimal
}

// NewReservationReleasedEvent creates a ReservationReleasedEvent
func NewReservationReleasedEvent(r *StockReservation) *ReservationReleasedEvent {
	return &ReservationReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventReservationReleased, "stock_reservation", r.ID, r.TenantID),
		OrderID:         r.OrderID,
		VariantID:       r.VariantID,
		Quantity:        r.Quantity,
	}
}
