package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormStockLevelRepository_Find(t *testing.T) {
	t.Run("finds the row for warehouse, variant and bucket", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormStockLevelRepository(db)

		tenantID := uuid.New()
		warehouseID := uuid.New()
		variantID := uuid.New()
		levelID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "version", "tenant_id", "warehouse_id", "variant_id", "bucket", "quantity", "reserved_qty"}).
			AddRow(levelID, 1, tenantID, warehouseID, variantID, "on_hand", decimal.NewFromInt(120), decimal.NewFromInt(10))

		mock.ExpectQuery(`SELECT \* FROM "stock_levels" WHERE tenant_id = \$1 AND warehouse_id = \$2 AND variant_id = \$3 AND bucket = \$4 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, warehouseID, variantID, "on_hand", 1).
			WillReturnRows(rows)

		level, err := repo.Find(context.Background(), tenantID, warehouseID, variantID, inventory.BucketOnHand)

		require.NoError(t, err)
		assert.Equal(t, levelID, level.ID)
		assert.True(t, level.Quantity.Equal(decimal.NewFromInt(120)))
		assert.True(t, level.ReservedQty.Equal(decimal.NewFromInt(10)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is not found", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormStockLevelRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "stock_levels"`).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.Find(context.Background(), uuid.New(), uuid.New(), uuid.New(), inventory.BucketOnHand)

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockLevelRepository_FindOrCreate(t *testing.T) {
	t.Run("returns a fresh zero row when none exists", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormStockLevelRepository(db)

		tenantID := uuid.New()
		warehouseID := uuid.New()
		variantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "stock_levels"`).
			WillReturnError(gorm.ErrRecordNotFound)

		level, err := repo.FindOrCreate(context.Background(), tenantID, warehouseID, variantID, inventory.BucketOnHand)

		require.NoError(t, err)
		assert.Equal(t, warehouseID, level.WarehouseID)
		assert.Equal(t, variantID, level.VariantID)
		assert.True(t, level.Quantity.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockLevelRepository_SaveWithLock(t *testing.T) {
	t.Run("stale version is a concurrency conflict", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormStockLevelRepository(db)

		level, err := inventory.NewStockLevel(uuid.New(), uuid.New(), uuid.New(), inventory.BucketOnHand)
		require.NoError(t, err)
		level.Version = 1

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "stock_levels" WHERE id = \$1`).
			WithArgs(level.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(3))
		mock.ExpectRollback()

		err = repo.SaveWithLock(context.Background(), level)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unseen row is inserted", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormStockLevelRepository(db)

		level, err := inventory.NewStockLevel(uuid.New(), uuid.New(), uuid.New(), inventory.BucketOnHand)
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "stock_levels" WHERE id = \$1`).
			WithArgs(level.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}))
		mock.ExpectExec(`INSERT INTO "stock_levels"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = repo.SaveWithLock(context.Background(), level)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockLevelRepository_HasStock(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormStockLevelRepository(db)

	tenantID := uuid.New()
	warehouseID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "stock_levels" WHERE tenant_id = \$1 AND warehouse_id = \$2 AND \(quantity <> 0 OR reserved_qty <> 0\)`).
		WithArgs(tenantID, warehouseID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	has, err := repo.HasStock(context.Background(), tenantID, warehouseID)

	require.NoError(t, err)
	assert.True(t, has)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormReservationRepository_FindExpired(t *testing.T) {
	t.Run("queries active reservations past their expiry", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormReservationRepository(db)

		now := time.Now().UTC()
		reservationID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "version", "tenant_id", "order_id", "warehouse_id", "variant_id", "bucket", "quantity", "status", "expires_at"}).
			AddRow(reservationID, 1, uuid.New(), uuid.New(), uuid.New(), uuid.New(), "on_hand", decimal.NewFromInt(3), "active", now.Add(-time.Hour))

		mock.ExpectQuery(`SELECT \* FROM "stock_reservations" WHERE status = \$1 AND expires_at IS NOT NULL AND expires_at < \$2 ORDER BY expires_at ASC LIMIT .*`).
			WithArgs("active", now, 50).
			WillReturnRows(rows)

		expired, err := repo.FindExpired(context.Background(), now, 50)

		require.NoError(t, err)
		require.Len(t, expired, 1)
		assert.Equal(t, reservationID, expired[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormNumberSequenceRepository_Next(t *testing.T) {
	t.Run("first draw creates the counter at one", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormNumberSequenceRepository(db)

		tenantID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "number_sequences" WHERE tenant_id = \$1 AND kind = \$2 AND year = \$3 ORDER BY .* LIMIT .* FOR UPDATE`).
			WithArgs(tenantID, "SO", 2026, 1).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectExec(`INSERT INTO "number_sequences"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		next, err := repo.Next(context.Background(), tenantID, "SO", 2026)

		require.NoError(t, err)
		assert.Equal(t, int64(1), next)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("subsequent draws increment under a row lock", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormNumberSequenceRepository(db)

		tenantID := uuid.New()
		seqID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "kind", "year", "last_value"}).
			AddRow(seqID, tenantID, "SO", 2026, int64(41))

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "number_sequences" WHERE tenant_id = \$1 AND kind = \$2 AND year = \$3 ORDER BY .* LIMIT .* FOR UPDATE`).
			WithArgs(tenantID, "SO", 2026, 1).
			WillReturnRows(rows)
		mock.ExpectExec(`UPDATE "number_sequences" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		next, err := repo.Next(context.Background(), tenantID, "SO", 2026)

		require.NoError(t, err)
		assert.Equal(t, int64(42), next)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
