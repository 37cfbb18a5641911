package models

import (
	"time"

	"github.com/gasflow/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_invoice_tenant_number,priority:2"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID       *uuid.UUID      `gorm:"type:uuid;index"`
	Status        string          `gorm:"type:varchar(20);not null;default:'draft';index"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IssuedAt      *time.Time      `gorm:"type:timestamptz"`
	DueDate       *time.Time      `gorm:"type:timestamptz;index"`
	VoidReason    string          `gorm:"type:text"`
	Notes         string          `gorm:"type:text"`

	Lines []InvoiceLineModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string { return "invoices" }

// InvoiceLineModel is one billed line of an invoice
type InvoiceLineModel struct {
	BaseModel
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderLineID *uuid.UUID      `gorm:"type:uuid"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null"`
	SKU         string          `gorm:"type:varchar(40);not null"`
	Description string          `gorm:"type:varchar(255)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string { return "invoice_lines" }

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	inv := &finance.Invoice{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		InvoiceNumber:       m.InvoiceNumber,
		CustomerID:          m.CustomerID,
		OrderID:             m.OrderID,
		Status:              finance.InvoiceStatus(m.Status),
		Currency:            m.Currency,
		Subtotal:            m.Subtotal,
		TaxRate:             m.TaxRate,
		TaxAmount:           m.TaxAmount,
		TotalAmount:         m.TotalAmount,
		PaidAmount:          m.PaidAmount,
		IssuedAt:            m.IssuedAt,
		DueDate:             m.DueDate,
		VoidReason:          m.VoidReason,
		Notes:               m.Notes,
		Lines:               make([]finance.InvoiceLine, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		inv.Lines = append(inv.Lines, finance.InvoiceLine{
			ID:          l.ID,
			InvoiceID:   l.InvoiceID,
			OrderLineID: l.OrderLineID,
			VariantID:   l.VariantID,
			SKU:         l.SKU,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Discount:    l.Discount,
			LineTotal:   l.LineTotal,
		})
	}
	return inv
}

// FromDomain populates the model from a domain Invoice
func (m *InvoiceModel) FromDomain(inv *finance.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.CustomerID = inv.CustomerID
	m.OrderID = inv.OrderID
	m.Status = string(inv.Status)
	m.Currency = inv.Currency
	m.Subtotal = inv.Subtotal
	m.TaxRate = inv.TaxRate
	m.TaxAmount = inv.TaxAmount
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.IssuedAt = inv.IssuedAt
	m.DueDate = inv.DueDate
	m.VoidReason = inv.VoidReason
	m.Notes = inv.Notes
	m.Lines = make([]InvoiceLineModel, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		m.Lines = append(m.Lines, InvoiceLineModel{
			BaseModel:   BaseModel{ID: l.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
			InvoiceID:   inv.ID,
			TenantID:    inv.TenantID,
			OrderLineID: l.OrderLineID,
			VariantID:   l.VariantID,
			SKU:         l.SKU,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Discount:    l.Discount,
			LineTotal:   l.LineTotal,
		})
	}
}

// PaymentModel is the persistence model for Payment records
type PaymentModel struct {
	TenantAggregateModel
	PaymentNumber string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_payment_tenant_number,priority:2"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method        string          `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	Reference     string          `gorm:"type:varchar(100)"`
	Status        string          `gorm:"type:varchar(20);not null;default:'received';index"`
	ReceivedAt    time.Time       `gorm:"type:timestamptz;not null"`
	VoidedAt      *time.Time      `gorm:"type:timestamptz"`
	VoidReason    string          `gorm:"type:text"`
	Notes         string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string { return "payments" }

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *finance.Payment {
	return &finance.Payment{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		PaymentNumber:       m.PaymentNumber,
		InvoiceID:           m.InvoiceID,
		CustomerID:          m.CustomerID,
		Method:              finance.PaymentMethod(m.Method),
		Amount:              m.Amount,
		Currency:            m.Currency,
		Reference:           m.Reference,
		Status:              finance.PaymentStatus(m.Status),
		ReceivedAt:          m.ReceivedAt,
		VoidedAt:            m.VoidedAt,
		VoidReason:          m.VoidReason,
		Notes:               m.Notes,
	}
}

// FromDomain populates the model from a domain Payment
func (m *PaymentModel) FromDomain(p *finance.Payment) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.InvoiceID = p.InvoiceID
	m.CustomerID = p.CustomerID
	m.Method = string(p.Method)
	m.Amount = p.Amount
	m.Currency = p.Currency
	m.Reference = p.Reference
	m.Status = string(p.Status)
	m.ReceivedAt = p.ReceivedAt
	m.VoidedAt = p.VoidedAt
	m.VoidReason = p.VoidReason
	m.Notes = p.Notes
}
