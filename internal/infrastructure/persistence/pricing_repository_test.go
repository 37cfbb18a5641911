package persistence

import (
	"context"
	"testing"

	"github.com/gasflow/backend/internal/domain/pricing"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/gasflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupPricingDB opens an in-memory SQLite database for behavior tests.
// SQL-shape tests stay on sqlmock; this covers the save/reconcile logic
// against a real engine.
func setupPricingDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PriceListModel{}, &models.PriceListItemModel{}))
	return db
}

func testPriceList(t *testing.T, tenantID uuid.UUID, code string) *pricing.PriceList {
	t.Helper()
	p, err := pricing.NewPriceList(tenantID, code, code, "USD")
	require.NoError(t, err)
	return p
}

func TestGormPriceListRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("round-trips a list with its breaks", func(t *testing.T) {
		repo := NewGormPriceListRepository(setupPricingDB(t))
		p := testPriceList(t, tenantID, "RETAIL")
		variantID := uuid.New()
		require.NoError(t, p.UpsertItem(variantID, decimal.Zero, decimal.NewFromInt(25)))
		require.NoError(t, p.UpsertItem(variantID, decimal.NewFromInt(10), decimal.NewFromInt(22)))

		require.NoError(t, repo.Save(ctx, p))

		found, err := repo.FindByID(ctx, tenantID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "RETAIL", found.Code)
		assert.Equal(t, "USD", found.Currency)
		require.Len(t, found.Items, 2)
	})

	t.Run("save reconciles removed breaks", func(t *testing.T) {
		repo := NewGormPriceListRepository(setupPricingDB(t))
		p := testPriceList(t, tenantID, "RETAIL")
		keep := uuid.New()
		drop := uuid.New()
		require.NoError(t, p.UpsertItem(keep, decimal.Zero, decimal.NewFromInt(25)))
		require.NoError(t, p.UpsertItem(drop, decimal.Zero, decimal.NewFromInt(30)))
		require.NoError(t, repo.Save(ctx, p))

		p.Items = p.Items[:1]
		require.NoError(t, repo.Save(ctx, p))

		found, err := repo.FindByID(ctx, tenantID, p.ID)
		require.NoError(t, err)
		require.Len(t, found.Items, 1)
		assert.Equal(t, keep, found.Items[0].VariantID)
	})

	t.Run("lists are invisible to other tenants", func(t *testing.T) {
		repo := NewGormPriceListRepository(setupPricingDB(t))
		p := testPriceList(t, tenantID, "RETAIL")
		require.NoError(t, repo.Save(ctx, p))

		_, err := repo.FindByID(ctx, uuid.New(), p.ID)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormPriceListRepository_FindByCode(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormPriceListRepository(setupPricingDB(t))
	p := testPriceList(t, tenantID, "RETAIL")
	require.NoError(t, repo.Save(ctx, p))

	found, err := repo.FindByCode(ctx, tenantID, "retail")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	exists, err := repo.ExistsByCode(ctx, tenantID, "retail")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGormPriceListRepository_Default(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormPriceListRepository(setupPricingDB(t))

	first := testPriceList(t, tenantID, "RETAIL")
	require.NoError(t, first.MarkDefault())
	require.NoError(t, repo.Save(ctx, first))

	second := testPriceList(t, tenantID, "WHOLESALE")
	require.NoError(t, repo.Save(ctx, second))

	def, err := repo.FindDefault(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, def.ID)

	// switching the default: clear then save the new one
	require.NoError(t, repo.ClearDefault(ctx, tenantID))
	require.NoError(t, second.MarkDefault())
	require.NoError(t, repo.Save(ctx, second))

	def, err = repo.FindDefault(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, def.ID)
}

func TestGormPriceListRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := NewGormPriceListRepository(setupPricingDB(t))

	active := testPriceList(t, tenantID, "RETAIL")
	require.NoError(t, repo.Save(ctx, active))
	archived := testPriceList(t, tenantID, "OLD")
	require.NoError(t, archived.Archive())
	require.NoError(t, repo.Save(ctx, archived))

	lists, err := repo.FindAll(ctx, tenantID, shared.Filter{
		Filters: map[string]interface{}{"status": "active"},
	})
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "RETAIL", lists[0].Code)

	count, err := repo.Count(ctx, tenantID, shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
