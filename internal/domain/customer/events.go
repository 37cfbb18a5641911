package customer

import (
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types published by the customer aggregate
const (
	EventCustomerCreated       = "customer.created"
	EventCustomerStatusChanged = "customer.status_changed"
	EventCustomerBalanceChanged = "customer.balance_changed"
)

// CustomerCreatedEvent is raised when a customer is created
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	Code string
	Name string
	Kind Kind
}

// NewCustomerCreatedEvent creates a CustomerCreatedEvent
func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCustomerCreated, "customer", c.ID, c.TenantID),
		Code:            c.Code,
		Name:            c.Name,
		Kind:            c.Kind,
	}
}

// CustomerStatusChangedEvent is raised on activate/deactivate/suspend
type CustomerStatusChangedEvent struct {
	shared.BaseDomainEvent
	Code      string
	NewStatus Status
}

// NewCustomerStatusChangedEvent creates a CustomerStatusChangedEvent
func NewCustomerStatusChangedEvent(c *Customer, status Status) *CustomerStatusChangedEvent {
	return &CustomerStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCustomerStatusChanged, "customer", c.ID, c.TenantID),
		Code:            c.Code,
		NewStatus:       status,
	}
}

// CustomerBalanceChangedEvent is raised when the receivable balance
// moves. Delta is positive for charges and negative for settlements.
type CustomerBalanceChangedEvent struct {
	shared.BaseDomainEvent
	Delta      decimal.Decimal
	NewBalance decimal.Decimal
}

// NewCustomerBalanceChangedEvent creates a CustomerBalanceChangedEvent
func NewCustomerBalanceChangedEvent(c *Customer, delta decimal.Decimal) *CustomerBalanceChangedEvent {
	return &CustomerBalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCustomerBalanceChanged, "customer", c.ID, c.TenantID),
		Delta:           delta,
		NewBalance:      c.Balance,
	}
}
