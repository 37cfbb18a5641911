package finance

import (
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types published by the finance aggregates
const (
	EventInvoiceIssued   = "invoice.issued"
	EventInvoicePaid     = "invoice.paid"
	EventInvoiceVoided   = "invoice.voided"
	EventPaymentReceived = "payment.received"
)

// InvoiceIssuedEvent is raised when a draft invoice becomes payable
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string
	CustomerID    uuid.UUID
	TotalAmount   decimal.Decimal
	Currency      string
}

// NewInvoiceIssuedEvent creates an InvoiceIssuedEvent
func NewInvoiceIssuedEvent(inv *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceIssued, "invoice", inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerID:      inv.CustomerID,
		TotalAmount:     inv.TotalAmount,
		Currency:        inv.Currency,
	}
}

// InvoicePaidEvent is raised when the balance reaches zero
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string
	CustomerID    uuid.UUID
	TotalAmount   decimal.Decimal
}

// NewInvoicePaidEvent creates an InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoicePaid, "invoice", inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerID:      inv.CustomerID,
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoiceVoidedEvent is raised when an unpaid invoice is voided
type InvoiceVoidedEvent struct {
	shared.BaseDomainEvent
	InvoiceNumber string
	Reason        string
}

// NewInvoiceVoidedEvent creates an InvoiceVoidedEvent
func NewInvoiceVoidedEvent(inv *Invoice, reason string) *InvoiceVoidedEvent {
	return &InvoiceVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventInvoiceVoided, "invoice", inv.ID, inv.TenantID),
		InvoiceNumber:   inv.InvoiceNumber,
		Reason:          reason,
	}
}

// PaymentReceivedEvent is raised when money is recorded
type PaymentReceivedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string
	InvoiceID     uuid.UUID
	CustomerID    uuid.UUID
	Method        PaymentMethod
	Amount        decimal.Decimal
}

// NewPaymentReceivedEvent creates a PaymentReceivedEvent
func NewPaymentReceivedEvent(p *Payment) *PaymentReceivedEvent {
	return &PaymentReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPaymentReceived, "payment", p.ID, p.TenantID),
		PaymentNumber:   p.PaymentNumber,
		InvoiceID:       p.InvoiceID,
		CustomerID:      p.CustomerID,
		Method:          p.Method,
		Amount:          p.Amount,
	}
}
