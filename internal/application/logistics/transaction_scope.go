package logistics

import (
	"context"

	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/gasflow/backend/internal/domain/logistics"
	"github.com/gasflow/backend/internal/domain/order"
)

// TransactionalRepositories exposes the repositories bound to one
// database transaction. Trip transitions move orders, stock documents,
// stock levels and reservations together; all of it commits or none.
type TransactionalRepositories interface {
	Trips() logistics.TripRepository
	Deliveries() logistics.DeliveryRepository
	Orders() order.Repository
	StockLevels() inventory.StockLevelRepository
	StockDocuments() inventory.StockDocumentRepository
	Reservations() inventory.ReservationRepository
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
	TripRepo     logistics.TripRepository
	DeliveryRepo logistics.DeliveryRepository
	OrderRepo    order.Repository
	Levels       inventory.StockLevelRepository
	Documents    inventory.StockDocumentRepository
	Resvs        inventory.ReservationRepository
	Seqs         inventory.NumberSequenceRepository
}

// Execute runs fn against the plain repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Trips returns the trip repository
func (s *NoOpTransactionScope) Trips() logistics.TripRepository { return s.TripRepo }

// Deliveries returns the delivery repository
func (s *NoOpTransactionScope) Deliveries() logistics.DeliveryRepository { return s.DeliveryRepo }

// Orders returns the order repository
func (s *NoOpTransactionScope) Orders() order.Repository { return s.OrderRepo }

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
