package finance

import (
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the invoice lifecycle
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusIssued        InvoiceStatus = "issued"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusVoid          InvoiceStatus = "void"
)

// InvoiceLine is a billed line, priced from the order line but
// quantified by what was actually delivered
type InvoiceLine struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	OrderLineID *uuid.UUID
	VariantID   uuid.UUID
	SKU         string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	LineTotal   decimal.Decimal
}

// InvoiceLineInput is the per-line input for building an invoice
type InvoiceLineInput struct {
	OrderLineID *uuid.UUID
	VariantID   uuid.UUID
	SKU         string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
}

// Invoice is the receivable raised against a customer, usually from a
// delivered order
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber string
	CustomerID    uuid.UUID
	OrderID       *uuid.UUID
	Status        InvoiceStatus
	Currency      string
	Subtotal      decimal.Decimal
	TaxRate       decimal.Decimal
	TaxAmount     decimal.Decimal
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	IssuedAt      *time.Time
	DueDate       *time.Time
	VoidReason    string
	Notes         string
	Lines         []InvoiceLine
}

// NewInvoice creates a draft invoice. TaxRate is a fraction
// (0.16 for 16%), applied to the subtotal after line discounts.
func NewInvoice(tenantID uuid.UUID, invoiceNumber string, customerID uuid.UUID, orderID *uuid.UUID, currency string, taxRate decimal.Decimal, lines []InvoiceLineInput) (*Invoice, error) {
	if strings.TrimSpace(invoiceNumber) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer is required")
	}
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency cannot be empty")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Tax rate must be between 0 and 1")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "An invoice needs at least one line")
	}
	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		CustomerID:          customerID,
		OrderID:             orderID,
		Status:              InvoiceStatusDraft,
		Currency:            strings.ToUpper(currency),
		TaxRate:             taxRate,
		PaidAmount:          decimal.Zero,
		Lines:               make([]InvoiceLine, 0, len(lines)),
	}
	for _, in := range lines {
		line, err := buildLine(inv.ID, in)
		if err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, *line)
	}
	inv.recalculate()
	return inv, nil
}

func buildLine(invoiceID uuid.UUID, in InvoiceLineInput) (*InvoiceLine, error) {
	if !in.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Line quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if in.Discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Discount cannot be negative")
	}
	gross := in.Quantity.Mul(in.UnitPrice)
	if in.Discount.GreaterThan(gross) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Discount cannot exceed the line gross")
	}
	return &InvoiceLine{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		OrderLineID: in.OrderLineID,
		VariantID:   in.VariantID,
		SKU:         in.SKU,
		Description: in.Description,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		Discount:    in.Discount,
		LineTotal:   gross.Sub(in.Discount).Round(2),
	}, nil
}

func (inv *Invoice) recalculate() {
	subtotal := decimal.Zero
	for _, l := range inv.Lines {
		subtotal = subtotal.Add(l.LineTotal)
	}
	inv.Subtotal = subtotal
	inv.TaxAmount = subtotal.Mul(inv.TaxRate).Round(2)
	inv.TotalAmount = subtotal.Add(inv.TaxAmount)
}

// Issue finalizes the draft, stamps the issue date and computes the
// due date from the customer's payment terms
func (inv *Invoice) Issue(paymentTermDays int) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot issue an invoice in status %s", inv.Status)
	}
	if paymentTermDays < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Payment terms cannot be negative")
	}
	now := time.Now().UTC()
	due := now.AddDate(0, 0, paymentTermDays)
	inv.Status = InvoiceStatusIssued
	inv.IssuedAt = &now
	inv.DueDate = &due
	inv.UpdatedAt = now
	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))
	return nil
}

// Void cancels an invoice that has received no payments
func (inv *Invoice) Void(reason string) error {
	if inv.Status != InvoiceStatusDraft && inv.Status != InvoiceStatusIssued {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot void an invoice in status %s", inv.Status)
	}
	if inv.PaidAmount.IsPositive() {
		return shared.NewDomainError("INVALID_STATE", "Cannot void an invoice with recorded payments")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Void reason is required")
	}
	inv.Status = InvoiceStatusVoid
	inv.VoidReason = reason
	inv.UpdatedAt = time.Now().UTC()
	inv.AddDomainEvent(NewInvoiceVoidedEvent(inv, reason))
	return nil
}

// ApplyPayment records an amount against the balance. Overpayment is
// rejected; exact settlement flips the status to paid.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal) error {
	if inv.Status != InvoiceStatusIssued && inv.Status != InvoiceStatusPartiallyPaid {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot take payment on an invoice in status %s", inv.Status)
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	balance := inv.Balance()
	if amount.GreaterThan(balance) {
		return shared.NewDomainErrorf("OVERPAYMENT", "Payment %s exceeds outstanding balance %s", amount, balance)
	}
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	if inv.Balance().IsZero() {
		inv.Status = InvoiceStatusPaid
		inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	} else {
		inv.Status = InvoiceStatusPartiallyPaid
	}
	inv.UpdatedAt = time.Now().UTC()
	return nil
}

// UnapplyPayment reverses a voided payment's amount, moving the
// status back to issued or partially paid
func (inv *Invoice) UnapplyPayment(amount decimal.Decimal) error {
	if inv.Status != InvoiceStatusPartiallyPaid && inv.Status != InvoiceStatusPaid {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot reverse a payment on an invoice in status %s", inv.Status)
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Reversal amount must be positive")
	}
	if amount.GreaterThan(inv.PaidAmount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Reversal exceeds the paid amount")
	}
	inv.PaidAmount = inv.PaidAmount.Sub(amount)
	if inv.PaidAmount.IsZero() {
		inv.Status = InvoiceStatusIssued
	} else {
		inv.Status = InvoiceStatusPartiallyPaid
	}
	inv.UpdatedAt = time.Now().UTC()
	return nil
}

// Balance returns the outstanding amount
func (inv *Invoice) Balance() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.PaidAmount)
}

// IsOverdue reports whether the invoice is unpaid past its due date
func (inv *Invoice) IsOverdue(asOf time.Time) bool {
	if inv.Status != InvoiceStatusIssued && inv.Status != InvoiceStatusPartiallyPaid {
		return false
	}
	return inv.DueDate != nil && asOf.After(*inv.DueDate)
}

// AgingBucket classifies the outstanding balance by days overdue
type AgingBucket string

const (
	AgingCurrent AgingBucket = "current"
	Aging1To30   AgingBucket = "1_30"
	Aging31To60  AgingBucket = "31_60"
	Aging61To90  AgingBucket = "61_90"
	AgingOver90  AgingBucket = "over_90"
)

// AgingBucketFor returns the bucket for the invoice as of a date
func (inv *Invoice) AgingBucketFor(asOf time.Time) AgingBucket {
	if inv.DueDate == nil || !asOf.After(*inv.DueDate) {
		return AgingCurrent
	}
	days := int(asOf.Sub(*inv.DueDate).Hours() / 24)
	switch {
	case days <= 30:
		return Aging1To30
	case days <= 60:
		return Aging31To60
	case days <= 90:
		return Aging61To90
	default:
		return AgingOver90
	}
}
