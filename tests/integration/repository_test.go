package integration

import (
	"context"
	"testing"

	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/gasflow/backend/internal/domain/customer"
	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gasflow/backend/internal/infrastructure/persistence"
)

func TestCustomerRepositoryRoundTrip(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormCustomerRepository(tdb.DB)

	tn := tdb.SeedTenant("Acme Gas", "acme-gas")
	other := tdb.SeedTenant("Harbor Gas", "harbor-gas")

	c, err := customer.NewCustomer(tn.ID, "ACME-01", "Acme Restaurants", customer.KindCommercial)
	require.NoError(t, err)
	_, err = c.AddAddress(customer.Address{
		Kind:      customer.AddressKindDelivery,
		Line1:     "12 Main St",
		City:      "Springfield",
		IsPrimary: true,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))

	t.Run("round-trips the aggregate with addresses", func(t *testing.T) {
		found, err := repo.FindByCode(ctx, tn.ID, "acme-01")
		require.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)
		require.Len(t, found.Addresses, 1)
		assert.True(t, found.Addresses[0].IsPrimary)
	})

	t.Run("codes are unique per tenant, not globally", func(t *testing.T) {
		dup, err := customer.NewCustomer(tn.ID, "ACME-01", "Duplicate", customer.KindCommercial)
		require.NoError(t, err)
		assert.Error(t, repo.Save(ctx, dup))

		sameCodeOtherTenant, err := customer.NewCustomer(other.ID, "ACME-01", "Unrelated", customer.KindCommercial)
		require.NoError(t, err)
		assert.NoError(t, repo.Save(ctx, sameCodeOtherTenant))
	})

	t.Run("tenants cannot read each other's rows", func(t *testing.T) {
		_, err := repo.FindByID(ctx, other.ID, c.ID)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestStockLevelOptimisticLocking(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()

	tn := tdb.SeedTenant("Acme Gas", "acme-gas")

	warehouse, err := inventory.NewWarehouse(tn.ID, "MAIN", "Main Depot")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormWarehouseRepository(tdb.DB).Save(ctx, warehouse))

	product, err := catalog.NewProduct(tn.ID, "CYL-13", "13kg Cylinder", "cylinders")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormProductRepository(tdb.DB).Save(ctx, product))

	variant, err := catalog.NewVariant(tn.ID, product.ID, "LPG-13-FULL", "13kg Full", catalog.KindAsset, catalog.UnitEach)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormVariantRepository(tdb.DB).Save(ctx, variant))

	levels := persistence.NewGormStockLevelRepository(tdb.DB)

	level, err := inventory.NewStockLevel(tn.ID, warehouse.ID, variant.ID, inventory.BucketOnHand)
	require.NoError(t, err)
	cost := decimal.NewFromInt(10)
	require.NoError(t, level.Add(decimal.NewFromInt(100), &cost))
	require.NoError(t, levels.SaveWithLock(ctx, level))

	t.Run("concurrent writers conflict on the version column", func(t *testing.T) {
		first, err := levels.Find(ctx, tn.ID, warehouse.ID, variant.ID, inventory.BucketOnHand)
		require.NoError(t, err)
		second, err := levels.Find(ctx, tn.ID, warehouse.ID, variant.ID, inventory.BucketOnHand)
		require.NoError(t, err)

		require.NoError(t, first.Remove(decimal.NewFromInt(5)))
		require.NoError(t, levels.SaveWithLock(ctx, first))

		require.NoError(t, second.Remove(decimal.NewFromInt(5)))
		err = levels.SaveWithLock(ctx, second)
		assert.Equal(t, shared.ErrConcurrencyConflict, err)
	})

	t.Run("retry after reload succeeds", func(t *testing.T) {
		fresh, err := levels.Find(ctx, tn.ID, warehouse.ID, variant.ID, inventory.BucketOnHand)
		require.NoError(t, err)
		require.NoError(t, fresh.Remove(decimal.NewFromInt(5)))
		require.NoError(t, levels.SaveWithLock(ctx, fresh))

		final, err := levels.Find(ctx, tn.ID, warehouse.ID, variant.ID, inventory.BucketOnHand)
		require.NoError(t, err)
		assert.True(t, final.Quantity.Equal(decimal.NewFromInt(90)))
	})
}

func TestNumberSequences(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()

	tn := tdb.SeedTenant("Acme Gas", "acme-gas")
	seqs := persistence.NewGormNumberSequenceRepository(tdb.DB)

	t.Run("draws are gapless per kind and year", func(t *testing.T) {
		for want := int64(1); want <= 3; want++ {
			got, err := seqs.Next(ctx, tn.ID, "SO", 2026)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("kinds and years count independently", func(t *testing.T) {
		got, err := seqs.Next(ctx, tn.ID, "INV", 2026)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)

		got, err = seqs.Next(ctx, tn.ID, "SO", 2027)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})
}
