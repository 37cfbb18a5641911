package finance

import (
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer settled
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodMobile   PaymentMethod = "mobile"
)

// IsValid reports whether the method is one of the supported kinds
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodCard, PaymentMethodMobile:
		return true
	}
	return false
}

// PaymentStatus marks whether a payment still counts toward the
// invoice
type PaymentStatus string

const (
	PaymentStatusReceived PaymentStatus = "received"
	PaymentStatusVoided   PaymentStatus = "voided"
)

// Payment is a record of money received against an invoice. Payments
// are never edited; mistakes are corrected by voiding.
type Payment struct {
	shared.TenantAggregateRoot
	PaymentNumber string
	InvoiceID     uuid.UUID
	CustomerID    uuid.UUID
	Method        PaymentMethod
	Amount        decimal.Decimal
	Currency      string
	Reference     string
	Status        PaymentStatus
	ReceivedAt    time.Time
	VoidedAt      *time.Time
	VoidReason    string
	Notes         string
}

// NewPayment records a payment. Amount validity against the invoice
// balance is checked by Invoice.ApplyPayment in the same transaction.
func NewPayment(tenantID uuid.UUID, paymentNumber string, invoiceID, customerID uuid.UUID, method PaymentMethod, amount decimal.Decimal, currency, reference string) (*Payment, error) {
	if strings.TrimSpace(paymentNumber) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Payment number cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice is required")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_INPUT", "Unknown payment method %q", method)
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentNumber:       paymentNumber,
		InvoiceID:           invoiceID,
		CustomerID:          customerID,
		Method:              method,
		Amount:              amount,
		Currency:            strings.ToUpper(currency),
		Reference:           strings.TrimSpace(reference),
		Status:              PaymentStatusReceived,
		ReceivedAt:          time.Now().UTC(),
	}
	p.AddDomainEvent(NewPaymentReceivedEvent(p))
	return p, nil
}

// Void reverses the payment. The application service restores the
// invoice and customer balances in the same transaction.
func (p *Payment) Void(reason string) error {
	if p.Status == PaymentStatusVoided {
		return shared.NewDomainError("INVALID_STATE", "Payment is already voided")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Void reason is required")
	}
	now := time.Now().UTC()
	p.Status = PaymentStatusVoided
	p.VoidedAt = &now
	p.VoidReason = reason
	p.UpdatedAt = now
	return nil
}

// IsVoided reports whether the payment has been reversed
func (p *Payment) IsVoided() bool {
	return p.Status == PaymentStatusVoided
}
