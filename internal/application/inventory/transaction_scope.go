package inventory

import (
	"context"

	"github.com/gasflow/backend/internal/domain/inventory"
)

// TransactionalRepositories exposes the repositories bound to one
// database transaction. Movements, documents and reservations written
// through them commit or roll back together.
type TransactionalRepositories interface {
	StockLevels() inventory.StockLevelRepository
	StockDocuments() inventory.StockDocumentRepository
	Reservations() inventory.ReservationRepository
	Sequences() inventory.NumberSequenceRepository
}

// TransactionScope runs a function against transaction-bound
// repositories. The implementation opens the transaction, passes the
// bound repositories to fn, and commits when fn returns nil.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// NoOpTransactionScope passes through to plain repositories without a
// transaction. Used in tests.
type NoOpTransactionScope struct {
	Levels    inventory.StockLevelRepository
	Documents inventory.StockDocumentRepository
	Resvs     inventory.ReservationRepository
	Seqs      inventory.NumberSequenceRepository
}

// Execute runs fn against the plain repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockLevels returns the stock level repository
func (s *NoOpTransactionScope) StockLevels() inventory.StockLevelRepository { return s.Levels }

// StockDocuments returns the stock document repository
func (s *NoOpTransactionScope) StockDocuments() inventory.StockDocumentRepository {
	return s.Documents
}

// Reservations returns the reservation repository
func (s *NoOpTransactionScope) Reservations() inventory.ReservationRepository { return s.Resvs }

// Sequences returns the number sequence repository
func (s *NoOpTransactionScope) Sequences() inventory.NumberSequenceRepository { return s.Seqs }
