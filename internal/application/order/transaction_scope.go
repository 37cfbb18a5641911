package order

import (
	"context"

	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/gasflow/backend/internal/domain/order"
	"github.com/gasflow/backend/internal/domain/tenant"
)

// TransactionalRepositories exposes the repositories bound to one
// database transaction. Confirming an order writes the order, its
// reservations, the stock earmarks and the usage counter atomically.
type TransactionalRepositories interface {
	Orders() order.Repository
	StockLevels() inventory.StockLevelRepository
	Reservations() inventory.ReservationRepository
	Sequences() inventory.NumberSequenceRepository
	Usage() tenant.UsageRepository
}

// TransactionScope runs a function against transaction-bound
// repositories
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// NoOpTransactionScope passes through to plain repositories without a
// transaction. Used in tests.
type NoOpTransactionScope struct {
	OrderRepo order.Repository
	Levels    inventory.StockLevelRepository
	Resvs     inventory.ReservationRepository
	Seqs      inventory.NumberSequenceRepository
	UsageRepo tenant.UsageRepository
}

// Execute runs fn against the plain repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Orders returns the order repository
func (s *NoOpTransactionScope) Orders() order.Repository { return s.OrderRepo }

// StockLevels returns the stock level repository
func (s *NoOpTransactionScope) StockLevels() inventory.StockLevelRepository { return s.Levels }

// Reservations returns the reservation repository
func (s *NoOpTransactionScope) Reservations() inventory.ReservationRepository { return s.Resvs }

// Sequences returns the number sequence repository
func (s *NoOpTransactionScope) Sequences() inventory.NumberSequenceRepository { return s.Seqs }

// Usage returns the usage repository
func (s *NoOpTransactionScope) Usage() tenant.UsageRepository { return s.UsageRepo }
