package finance

import (
	"context"

	"github.com/gasflow/backend/internal/domain/customer"
	"github.com/gasflow/backend/internal/domain/finance"
	"github.com/gasflow/backend/internal/domain/inventory"
)

// TransactionalRepositories exposes the repositories bound to one
// database transaction. Issuing an invoice or taking a payment moves
// the invoice and the customer balance together.
type TransactionalRepositories interface {
	Invoices() finance.InvoiceRepository
	Payments() finance.PaymentRepository
	Customers() customer.Repository
	Sequences() inventory.NumberSequenceRepository
}

// TransactionScope runs a function against transaction-bound
// repositories
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// NoOpTransactionScope passes through to plain repositories without a
// transaction. Used in tests.
type NoOpTransactionScope struct {
	InvoiceRepo  finance.InvoiceRepository
	PaymentRepo  finance.PaymentRepository
	CustomerRepo customer.Repository
	Seqs         inventory.NumberSequenceRepository
}

// Execute runs fn against the plain repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Invoices returns the invoice repository
func (s *NoOpTransactionScope) Invoices() finance.InvoiceRepository { return s.InvoiceRepo }

// Payments returns the payment repository
func (s *NoOpTransactionScope) Payments() finance.PaymentRepository { return s.PaymentRepo }

// Customers returns the customer repository
func (s *NoOpTransactionScope) Customers() customer.Repository { return s.CustomerRepo }

// Sequences returns the number sequence repository
func (s *NoOpTransactionScope) Sequences() inventory.NumberSequenceRepository { return s.Seqs }
