package inventory

import (
	"context"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// WarehouseRepository persists Warehouse aggregates
type WarehouseRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Warehouse, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Warehouse, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Warehouse, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, w *Warehouse) error
}

// StockLevelQuery filters stock level listings
type StockLevelQuery struct {
	WarehouseID *uuid.UUID
	VariantID   *uuid.UUID
	Bucket      *Bucket
	NonZeroOnly bool
}

// StockLevelRepository persists bucketed stock level rows. Find
// methods with "ForUpdate" acquire a row lock inside the current
// transaction; all saves are optimistic-locked on version.
type StockLevelRepository interface {
	Find(ctx context.Context, tenantID, warehouseID, variantID uuid.UUID, bucket Bucket) (*StockLevel, error)
	// FindOrCreate returns the existing row or a fresh zero row that is
	// persisted on first save.
	FindOrCreate(ctx context.Context, tenantID, warehouseID, variantID uuid.UUID, bucket Bucket) (*StockLevel, error)
	List(ctx context.Context, tenantID uuid.UUID, query StockLevelQuery, filter shared.Filter) ([]StockLevel, error)
	CountList(ctx context.Context, tenantID uuid.UUID, query StockLevelQuery) (int64, error)
	SaveWithLock(ctx context.Context, level *StockLevel) error
	// HasStock reports whether any row for the warehouse carries
	// quantity or reservations. Used by warehouse deactivation.
	HasStock(ctx context.Context, tenantID, warehouseID uuid.UUID) (bool, error)
}

// StockDocumentRepository persists stock documents and their lines
type StockDocumentRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*StockDocument, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, docNumber string) (*StockDocument, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockDocument, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, d *StockDocument) error
	SaveWithLock(ctx context.Context, d *StockDocument) error
}

// ReservationRepository persists stock reservations
type ReservationRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*StockReservation, error)
	FindActiveByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]StockReservation, error)
	FindExpired(ctx context.Context, now time.Time, limit int) ([]StockReservation, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockReservation, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, r *StockReservation) error
	SaveBatch(ctx context.Context, rs []*StockReservation) error
}

// NumberSequenceRepository issues gapless per-tenant document numbers
// with a row-locked increment, formatted like SD-2026-000042.
type NumberSequenceRepository interface {
	Next(ctx context.Context, tenantID uuid.UUID, kind string, year int) (int64, error)
}
