package order

import (
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types published by the order aggregate
const (
	EventOrderCreated   = "order.created"
	EventOrderConfirmed = "order.confirmed"
	EventOrderDelivered = "order.delivered"
	EventOrderCancelled = "order.cancelled"
)

// OrderCreatedEvent is raised when a draft order is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string
	CustomerID  uuid.UUID
}

// NewOrderCreatedEvent creates an OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCreated, "order", o.ID, o.TenantID),
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
	}
}

// OrderConfirmedEvent is raised when an order is confirmed and its
// stock reserved
type OrderConfirmedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string
	CustomerID  uuid.UUID
	WarehouseID uuid.UUID
	TotalAmount decimal.Decimal
}

// NewOrderConfirmedEvent creates an OrderConfirmedEvent
func NewOrderConfirmedEvent(o *Order) *OrderConfirmedEvent {
	return &OrderConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderConfirmed, "order", o.ID, o.TenantID),
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		WarehouseID:     o.WarehouseID,
		TotalAmount:     o.TotalAmount,
	}
}

// OrderDeliveredEvent is raised when the last delivery for the order
// is recorded
type OrderDeliveredEvent struct {
	shared.BaseDomainEvent
	OrderNumber string
	CustomerID  uuid.UUID
}

// NewOrderDeliveredEvent creates an OrderDeliveredEvent
func NewOrderDeliveredEvent(o *Order) *OrderDeliveredEvent {
	return &OrderDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderDelivered, "order", o.ID, o.TenantID),
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
	}
}

// OrderCancelledEvent is raised on cancellation. WasReserved tells
// subscribers whether stock reservations need releasing.
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderNumber string
	Reason      string
	WasReserved bool
}

// NewOrderCancelledEvent creates an OrderCancelledEvent
func NewOrderCancelledEvent(o *Order, wasReserved bool) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCancelled, "order", o.ID, o.TenantID),
		OrderNumber:     o.OrderNumber,
		Reason:          o.CancelReason,
		WasReserved:     wasReserved,
	}
}
