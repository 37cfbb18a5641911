package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gasflow/backend/internal/domain/customer"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB opens a GORM connection backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func customerRows(customerID, tenantID uuid.UUID, code string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "version", "tenant_id", "code", "name", "kind", "status", "payment_term_days", "credit_limit", "balance"}).
		AddRow(customerID, 1, tenantID, code, "Acme Restaurants", "commercial", "active", 15, decimal.Zero, decimal.Zero)
}

func TestGormCustomerRepository_FindByID(t *testing.T) {
	t.Run("finds customer with addresses", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(db)

		customerID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, customerID, 1).
			WillReturnRows(customerRows(customerID, tenantID, "ACME-01"))
		mock.ExpectQuery(`SELECT \* FROM "customer_addresses" WHERE "customer_addresses"\."customer_id" = \$1`).
			WithArgs(customerID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "tenant_id", "kind", "line1", "city"}).
				AddRow(uuid.New(), customerID, tenantID, "delivery", "12 Main St", "Springfield"))

		c, err := repo.FindByID(context.Background(), tenantID, customerID)

		require.NoError(t, err)
		assert.Equal(t, customerID, c.ID)
		assert.Equal(t, "ACME-01", c.Code)
		assert.Equal(t, customer.KindCommercial, c.Kind)
		assert.Len(t, c.Addresses, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing rows to not found", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(db)

		tenantID := uuid.New()
		customerID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, customerID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		c, err := repo.FindByID(context.Background(), tenantID, customerID)

		assert.Nil(t, c)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_FindByCode(t *testing.T) {
	t.Run("uppercases the code before querying", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(db)

		customerID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "customers" WHERE tenant_id = \$1 AND code = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "ACME-01", 1).
			WillReturnRows(customerRows(customerID, tenantID, "ACME-01"))
		mock.ExpectQuery(`SELECT \* FROM "customer_addresses"`).
			WithArgs(customerID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id"}))

		c, err := repo.FindByCode(context.Background(), tenantID, "acme-01")

		require.NoError(t, err)
		assert.Equal(t, "ACME-01", c.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_ExistsByCode(t *testing.T) {
	t.Run("reports existing code", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(db)

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "customers" WHERE tenant_id = \$1 AND code = \$2`).
			WithArgs(tenantID, "ACME-01").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		exists, err := repo.ExistsByCode(context.Background(), tenantID, "acme-01")

		require.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports missing code", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(db)

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "customers" WHERE tenant_id = \$1 AND code = \$2`).
			WithArgs(tenantID, "NOPE").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		exists, err := repo.ExistsByCode(context.Background(), tenantID, "nope")

		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_Count(t *testing.T) {
	t.Run("applies status filter", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(db)

		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "customers" WHERE tenant_id = \$1 AND status = \$2`).
			WithArgs(tenantID, "active").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.Count(context.Background(), tenantID, shared.Filter{
			Filters: map[string]interface{}{"status": "active"},
		})

		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_HasOrders(t *testing.T) {
	t.Run("reports referenced customer", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(db)

		tenantID := uuid.New()
		customerID := uuid.New()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "orders" WHERE tenant_id = \$1 AND customer_id = \$2`).
			WithArgs(tenantID, customerID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		has, err := repo.HasOrders(context.Background(), tenantID, customerID)

		require.NoError(t, err)
		assert.True(t, has)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_SaveWithLock(t *testing.T) {
	t.Run("missing row is not found", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(db)

		c, err := customer.NewCustomer(uuid.New(), "ACME-01", "Acme Restaurants", customer.KindCommercial)
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "customers" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(c.TenantID, c.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(0))
		mock.ExpectRollback()

		err = repo.SaveWithLock(context.Background(), c)

		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version is a concurrency conflict", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormCustomerRepository(db)

		c, err := customer.NewCustomer(uuid.New(), "ACME-01", "Acme Restaurants", customer.KindCommercial)
		require.NoError(t, err)
		c.Version = 1

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "version" FROM "customers" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(c.TenantID, c.ID).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))
		mock.ExpectRollback()

		err = repo.SaveWithLock(context.Background(), c)

		assert.Equal(t, shared.ErrConcurrencyConflict, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormCustomerRepository_InterfaceCompliance(t *testing.T) {
	db, _, mockDB := newMockDB(t)
	defer mockDB.Close()

	var _ customer.Repository = NewGormCustomerRepository(db)
}
