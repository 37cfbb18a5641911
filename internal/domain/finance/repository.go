package finance

import (
	"context"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgingRow is one line of the receivables aging report
type AgingRow struct {
	CustomerID uuid.UUID
	Bucket     AgingBucket
	Amount     decimal.Decimal
	Count      int64
}

// InvoiceRepository persists Invoice aggregates with their lines
type InvoiceRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*Invoice, error)
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]Invoice, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Invoice, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// FindOutstanding returns issued and partially paid invoices,
	// optionally narrowed to one customer.
	FindOutstanding(ctx context.Context, tenantID uuid.UUID, customerID *uuid.UUID) ([]Invoice, error)
	// Aging aggregates outstanding balances into overdue buckets as of
	// the given date.
	Aging(ctx context.Context, tenantID uuid.UUID, asOf time.Time, customerID *uuid.UUID) ([]AgingRow, error)
	Save(ctx context.Context, inv *Invoice) error
	SaveWithLock(ctx context.Context, inv *Invoice) error
}

// PaymentRepository persists Payment records
type PaymentRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Payment, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Payment, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, p *Payment) error
}
