package persistence

import (
	"context"

	financeapp "github.com/gasflow/backend/internal/application/finance"
	inventoryapp "github.com/gasflow/backend/internal/application/inventory"
	logisticsapp "github.com/gasflow/backend/internal/application/logistics"
	orderapp "github.com/gasflow/backend/internal/application/order"
	"github.com/gasflow/backend/internal/domain/customer"
	"github.com/gasflow/backend/internal/domain/finance"
	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/gasflow/backend/internal/domain/logistics"
	"github.com/gasflow/backend/internal/domain/order"
	"github.com/gasflow/backend/internal/domain/tenant"
	"gorm.io/gorm"
)

// gormTxRepos hands out repositories constructed over one transaction
// handle. It satisfies the TransactionalRepositories interface of
// every application scope, so one type backs all four scopes.
type gormTxRepos struct {
	tx *gorm.DB
}

func (r *gormTxRepos) Orders() order.Repository { return NewGormOrderRepository(r.tx) }

func (r *gormTxRepos) Trips() logistics.TripRepository { return NewGormTripRepository(r.tx) }

func (r *gormTxRepos) Deliveries() logistics.DeliveryRepository {
	return NewGormDeliveryRepository(r.tx)
}

func (r *gormTxRepos) StockLevels() inventory.StockLevelRepository {
	return NewGormStockLevelRepository(r.tx)
}

func (r *gormTxRepos) StockDocuments() inventory.StockDocumentRepository {
	return NewGormStockDocumentRepository(r.tx)
}

func (r *gormTxRepos) Reservations() inventory.ReservationRepository {
	return NewGormReservationRepository(r.tx)
}

func (r *gormTxRepos) Sequences() inventory.NumberSequenceRepository {
	return NewGormNumberSequenceRepository(r.tx)
}

func (r *gormTxRepos) Usage() tenant.UsageRepository { return NewGormUsageRepository(r.tx) }

func (r *gormTxRepos) Invoices() finance.InvoiceRepository { return NewGormInvoiceRepository(r.tx) }

func (r *gormTxRepos) Payments() finance.PaymentRepository { return NewGormPaymentRepository(r.tx) }

func (r *gormTxRepos) Customers() customer.Repository { return NewGormCustomerRepository(r.tx) }

// GormInventoryTransactionScope runs inventory postings in one
// database transaction
type GormInventoryTransactionScope struct {
	db *gorm.DB
}

// NewGormInventoryTransactionScope creates an inventory transaction scope
func NewGormInventoryTransactionScope(db *gorm.DB) *GormInventoryTransactionScope {
	return &GormInventoryTransactionScope{db: db}
}

// Execute runs fn inside a transaction, rolling back on error
func (s *GormInventoryTransactionScope) Execute(ctx context.Context, fn func(repos inventoryapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTxRepos{tx: tx})
	})
}

// GormOrderTransactionScope runs order confirmation and cancellation
// in one database transaction
type GormOrderTransactionScope struct {
	db *gorm.DB
}

// NewGormOrderTransactionScope creates an order transaction scope
func NewGormOrderTransactionScope(db *gorm.DB) *GormOrderTransactionScope {
	return &GormOrderTransactionScope{db: db}
}

// Execute runs fn inside a transaction, rolling back on error
func (s *GormOrderTransactionScope) Execute(ctx context.Context, fn func(repos orderapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTxRepos{tx: tx})
	})
}

// GormLogisticsTransactionScope runs trip transitions in one database
// transaction
type GormLogisticsTransactionScope struct {
	db *gorm.DB
}

// NewGormLogisticsTransactionScope creates a logistics transaction scope
func NewGormLogisticsTransactionScope(db *gorm.DB) *GormLogisticsTransactionScope {
	return &GormLogisticsTransactionScope{db: db}
}

// Execute runs fn inside a transaction, rolling back on error
func (s *GormLogisticsTransactionScope) Execute(ctx context.Context, fn func(repos logisticsapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTxRepos{tx: tx})
	})
}

// GormFinanceTransactionScope runs invoice and payment mutations in
// one database transaction
type GormFinanceTransactionScope struct {
	db *gorm.DB
}

// NewGormFinanceTransactionScope creates a finance transaction scope
func NewGormFinanceTransactionScope(db *gorm.DB) *GormFinanceTransactionScope {
	return &GormFinanceTransactionScope{db: db}
}

// Execute runs fn inside a transaction, rolling back on error
func (s *GormFinanceTransactionScope) Execute(ctx context.Context, fn func(repos financeapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTxRepos{tx: tx})
	})
}
