package finance

import (
	"time"

	"github.com/gasflow/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateInvoiceRequest raises a draft invoice from a delivered order
type GenerateInvoiceRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
	// TaxRate overrides the configured default, as a fraction
	// (0.16 for 16%)
	TaxRate *decimal.Decimal `json:"tax_rate"`
	Notes   string           `json:"notes"`
}

// VoidInvoiceRequest voids an invoice with a reason
type VoidInvoiceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RecordPaymentRequest records money received against an invoice
type RecordPaymentRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id" binding:"required"`
	Method    string          `json:"method" binding:"required,oneof=cash transfer card mobile"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
}

// VoidPaymentRequest voids a payment with a reason
type VoidPaymentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// InvoiceListFilter narrows invoice listings
type InvoiceListFilter struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir"`
	Status     string `form:"status"`
	CustomerID string `form:"customer_id"`
	Overdue    bool   `form:"overdue"`
}

// PaymentListFilter narrows payment listings
type PaymentListFilter struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	InvoiceID  string `form:"invoice_id"`
	CustomerID string `form:"customer_id"`
	Status     string `form:"status"`
	Method     string `form:"method"`
}

// AgingFilter scopes the receivables aging report
type AgingFilter struct {
	CustomerID string `form:"customer_id"`
	AsOf       string `form:"as_of" time_format:"2006-01-02"`
}

// InvoiceLineResponse is the read shape of one invoice line
type InvoiceLineResponse struct {
	ID          uuid.UUID       `json:"id"`
	OrderLineID *uuid.UUID      `json:"order_line_id,omitempty"`
	VariantID   uuid.UUID       `json:"variant_id"`
	SKU         string          `json:"sku"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// InvoiceResponse is the read shape of an invoice
type InvoiceResponse struct {
	ID            uuid.UUID             `json:"id"`
	InvoiceNumber string                `json:"invoice_number"`
	CustomerID    uuid.UUID             `json:"customer_id"`
	OrderID       *uuid.UUID            `json:"order_id,omitempty"`
	Status        string                `json:"status"`
	Currency      string                `json:"currency"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	TaxRate       decimal.Decimal       `json:"tax_rate"`
	TaxAmount     decimal.Decimal       `json:"tax_amount"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	PaidAmount    decimal.Decimal       `json:"paid_amount"`
	Balance       decimal.Decimal       `json:"balance"`
	IssuedAt      *time.Time            `json:"issued_at,omitempty"`
	DueDate       *time.Time            `json:"due_date,omitempty"`
	VoidReason    string                `json:"void_reason,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	Lines         []InvoiceLineResponse `json:"lines"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// PaymentResponse is the read shape of a payment
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	PaymentNumber string          `json:"payment_number"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Method        string          `json:"method"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Reference     string          `json:"reference,omitempty"`
	Status        string          `json:"status"`
	ReceivedAt    time.Time       `json:"received_at"`
	VoidedAt      *time.Time      `json:"voided_at,omitempty"`
	VoidReason    string          `json:"void_reason,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// AgingRowResponse is one row of the receivables aging report
type AgingRowResponse struct {
	CustomerID uuid.UUID       `json:"customer_id"`
	Bucket     string          `json:"bucket"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int64           `json:"count"`
}

// AgingReportResponse is the receivables aging report
type AgingReportResponse struct {
	AsOf time.Time          `json:"as_of"`
	Rows []AgingRowResponse `json:"rows"`
}

// ToInvoiceResponse converts a domain invoice
func ToInvoiceResponse(inv *finance.Invoice) *InvoiceResponse {
	resp := &InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		OrderID:       inv.OrderID,
		Status:        string(inv.Status),
		Currency:      inv.Currency,
		Subtotal:      inv.Subtotal,
		TaxRate:       inv.TaxRate,
		TaxAmount:     inv.TaxAmount,
		TotalAmount:   inv.TotalAmount,
		PaidAmount:    inv.PaidAmount,
		Balance:       inv.Balance(),
		IssuedAt:      inv.IssuedAt,
		DueDate:       inv.DueDate,
		VoidReason:    inv.VoidReason,
		Notes:         inv.Notes,
		Lines:         make([]InvoiceLineResponse, 0, len(inv.Lines)),
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	for _, l := range inv.Lines {
		resp.Lines = append(resp.Lines, InvoiceLineResponse{
			ID:          l.ID,
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
	return resp
}

// ToPaymentResponse converts a domain payment
func ToPaymentResponse(p *finance.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:            p.ID,
		PaymentNumber: p.PaymentNumber,
		InvoiceID:     p.InvoiceID,
		CustomerID:    p.CustomerID,
		Method:        string(p.Method),
		Amount:        p.Amount,
		Currency:      p.Currency,
		Reference:     p.Reference,
		Status:        string(p.Status),
		ReceivedAt:    p.ReceivedAt,
		VoidedAt:      p.VoidedAt,
		VoidReason:    p.VoidReason,
		Notes:         p.Notes,
	}
}
