package inventory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockWarehouseRepository is a mock implementation of inventory.WarehouseRepository
type MockWarehouseRepository struct {
	mock.Mock
}

func (m *MockWarehouseRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Warehouse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*inventory.Warehouse, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.Warehouse, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]inventory.Warehouse), args.Error(1)
}

func (m *MockWarehouseRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWarehouseRepository) CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWarehouseRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockWarehouseRepository) Save(ctx context.Context, w *inventory.Warehouse) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

// MockVariantRepository is a mock implementation of catalog.VariantRepository
type MockVariantRepository struct {
	mock.Mock
}

func (m *MockVariantRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Variant, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Variant), args.Error(1)
}

func (m *MockVariantRepository) FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*catalog.Variant, error) {
	args := m.Called(ctx, tenantID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Variant), args.Error(1)
}

func (m *MockVariantRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Variant, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]catalog.Variant), args.Error(1)
}

func (m *MockVariantRepository) FindByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]catalog.Variant, error) {
	args := m.Called(ctx, tenantID, productID)
	return args.Get(0).([]catalog.Variant), args.Error(1)
}

func (m *MockVariantRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]catalog.Variant, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]catalog.Variant), args.Error(1)
}

func (m *MockVariantRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVariantRepository) ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error) {
	args := m.Called(ctx, tenantID, sku)
	return args.Bool(0), args.Error(1)
}

func (m *MockVariantRepository) Save(ctx context.Context, v *catalog.Variant) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVariantRepository) SaveWithLock(ctx context.Context, v *catalog.Variant) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

// stubQuota rejects warehouse creation when err is set
type stubQuota struct {
	err error
}

func (q *stubQuota) CheckWarehouseQuota(ctx context.Context, tenantID uuid.UUID) error {
	return q.err
}

// stubPublisher collects published events
type stubPublisher struct {
	events []shared.DomainEvent
}

func (p *stubPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

// fakeStockLevels keeps stock level rows in memory
type fakeStockLevels struct {
	rows map[string]*inventory.StockLevel
}

func newFakeStockLevels() *fakeStockLevels {
	return &fakeStockLevels{rows: make(map[string]*inventory.StockLevel)}
}

func levelKey(warehouseID, variantID uuid.UUID, bucket inventory.Bucket) string {
	return fmt.Sprintf("%s/%s/%s", warehouseID, variantID, bucket)
}

func (f *fakeStockLevels) seed(t *testing.T, tenantID, warehouseID, variantID uuid.UUID, bucket inventory.Bucket, qty decimal.Decimal) *inventory.StockLevel {
	t.Helper()
	lvl, err := inventory.NewStockLevel(tenantID, warehouseID, variantID, bucket)
	require.NoError(t, err)
	require.NoError(t, lvl.Add(qty, nil))
	f.rows[levelKey(warehouseID, variantID, bucket)] = lvl
	return lvl
}

func (f *fakeStockLevels) Find(ctx context.Context, tenantID, warehouseID, variantID uuid.UUID, bucket inventory.Bucket) (*inventory.StockLevel, error) {
	lvl, ok := f.rows[levelKey(warehouseID, variantID, bucket)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return lvl, nil
}

func (f *fakeStockLevels) FindOrCreate(ctx context.Context, tenantID, warehouseID, variantID uuid.UUID, bucket inventory.Bucket) (*inventory.StockLevel, error) {
	if lvl, ok := f.rows[levelKey(warehouseID, variantID, bucket)]; ok {
		return lvl, nil
	}
	lvl, err := inventory.NewStockLevel(tenantID, warehouseID, variantID, bucket)
	if err != nil {
		return nil, err
	}
	f.rows[levelKey(warehouseID, variantID, bucket)] = lvl
	return lvl, nil
}

func (f *fakeStockLevels) List(ctx context.Context, tenantID uuid.UUID, query inventory.StockLevelQuery, filter shared.Filter) ([]inventory.StockLevel, error) {
	out := make([]inventory.StockLevel, 0, len(f.rows))
	for _, lvl := range f.rows {
		out = append(out, *lvl)
	}
	return out, nil
}

func (f *fakeStockLevels) CountList(ctx context.Context, tenantID uuid.UUID, query inventory.StockLevelQuery) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeStockLevels) SaveWithLock(ctx context.Context, level *inventory.StockLevel) error {
	f.rows[levelKey(level.WarehouseID, level.VariantID, level.Bucket)] = level
	return nil
}

func (f *fakeStockLevels) HasStock(ctx context.Context, tenantID, warehouseID uuid.UUID) (bool, error) {
	for _, lvl := range f.rows {
		if lvl.WarehouseID == warehouseID && !lvl.IsEmpty() {
			return true, nil
		}
	}
	return false, nil
}

// fakeDocuments keeps stock documents in memory
type fakeDocuments struct {
	rows []*inventory.StockDocument
}

func (f *fakeDocuments) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StockDocument, error) {
	for _, d := range f.rows {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeDocuments) FindByNumber(ctx context.Context, tenantID uuid.UUID, docNumber string) (*inventory.StockDocument, error) {
	for _, d := range f.rows {
		if d.DocNumber == docNumber {
			return d, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeDocuments) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.StockDocument, error) {
	out := make([]inventory.StockDocument, 0, len(f.rows))
	for _, d := range f.rows {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDocuments) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeDocuments) Save(ctx context.Context, d *inventory.StockDocument) error {
	for i := range f.rows {
		if f.rows[i].ID == d.ID {
			f.rows[i] = d
			return nil
		}
	}
	f.rows = append(f.rows, d)
	return nil
}

func (f *fakeDocuments) SaveWithLock(ctx context.Context, d *inventory.StockDocument) error {
	return f.Save(ctx, d)
}

// fakeReservations keeps reservations in memory
type fakeReservations struct {
	rows []*inventory.StockReservation
}

func (f *fakeReservations) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StockReservation, error) {
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeReservations) FindActiveByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]inventory.StockReservation, error) {
	out := make([]inventory.StockReservation, 0)
	for _, r := range f.rows {
		if r.OrderID == orderID && r.Status == inventory.ReservationStatusActive {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReservations) FindExpired(ctx context.Context, now time.Time, limit int) ([]inventory.StockReservation, error) {
	out := make([]inventory.StockReservation, 0)
	for _, r := range f.rows {
		if r.Status == inventory.ReservationStatusActive && r.IsExpired(now) {
			out = append(out, *r)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeReservations) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.StockReservation, error) {
	out := make([]inventory.StockReservation, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeReservations) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeReservations) Save(ctx context.Context, r *inventory.StockReservation) error {
	for i := range f.rows {
		if f.rows[i].ID == r.ID {
			f.rows[i] = r
			return nil
		}
	}
	f.rows = append(f.rows, r)
	return nil
}

func (f *fakeReservations) SaveBatch(ctx context.Context, rs []*inventory.StockReservation) error {
	for _, r := range rs {
		if err := f.Save(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// fakeSequences issues sequential numbers in memory
type fakeSequences struct {
	last map[string]int64
}

func (f *fakeSequences) Next(ctx context.Context, tenantID uuid.UUID, kind string, year int) (int64, error) {
	if f.last == nil {
		f.last = make(map[string]int64)
	}
	key := fmt.Sprintf("%s/%s/%d", tenantID, kind, year)
	f.last[key]++
	return f.last[key], nil
}

type inventoryTestEnv struct {
	warehouses *MockWarehouseRepository
	variants   *MockVariantRepository
	levels     *fakeStockLevels
	documents  *fakeDocuments
	resvs      *fakeReservations
	quota      *stubQuota
	publisher  *stubPublisher
	service    *Service
}

func newInventoryTestEnv() *inventoryTestEnv {
	env := &inventoryTestEnv{
		warehouses: new(MockWarehouseRepository),
		variants:   new(MockVariantRepository),
		levels:     newFakeStockLevels(),
		documents:  &fakeDocuments{},
		resvs:      &fakeReservations{},
		quota:      &stubQuota{},
		publisher:  &stubPublisher{},
	}
	scope := &NoOpTransactionScope{
		Levels:    env.levels,
		Documents: env.documents,
		Resvs:     env.resvs,
		Seqs:      &fakeSequences{},
	}
	env.service = NewService(
		env.warehouses,
		env.levels,
		env.documents,
		env.resvs,
		env.variants,
		scope,
		env.quota,
		env.publisher,
		zap.NewNop(),
	)
	return env
}

func trackedVariant(t *testing.T, tenantID uuid.UUID, sku string) *catalog.Variant {
	t.Helper()
	v, err := catalog.NewVariant(tenantID, uuid.New(), sku, sku, catalog.KindAsset, catalog.UnitEach)
	require.NoError(t, err)
	return v
}

func activeWarehouse(t *testing.T, tenantID uuid.UUID, code string) *inventory.Warehouse {
	t.Helper()
	w, err := inventory.NewWarehouse(tenantID, code, code)
	require.NoError(t, err)
	return w
}

func TestCreateWarehouse(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates warehouse with normalized code", func(t *testing.T) {
		env := newInventoryTestEnv()
		env.warehouses.On("ExistsByCode", mock.Anything, tenantID, "WH-MAIN").Return(false, nil)
		env.warehouses.On("Save", mock.Anything, mock.AnythingOfType("*inventory.Warehouse")).Return(nil)

		resp, err := env.service.CreateWarehouse(context.Background(), tenantID, CreateWarehouseRequest{
			Code: "wh-main",
			Name: "Main Depot",
		})

		require.NoError(t, err)
		assert.Equal(t, "WH-MAIN", resp.Code)
		assert.Equal(t, "active", resp.Status)
	})

	t.Run("quota error blocks creation", func(t *testing.T) {
		env := newInventoryTestEnv()
		env.quota.err = shared.NewDomainError("QUOTA_EXCEEDED", "Warehouse limit reached")

		_, err := env.service.CreateWarehouse(context.Background(), tenantID, CreateWarehouseRequest{
			Code: "WH-2",
			Name: "Second Depot",
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "QUOTA_EXCEEDED", domainErr.Code)
		env.warehouses.AssertNotCalled(t, "Save")
	})

	t.Run("rejects duplicate code", func(t *testing.T) {
		env := newInventoryTestEnv()
		env.warehouses.On("ExistsByCode", mock.Anything, tenantID, "WH-MAIN").Return(true, nil)

		_, err := env.service.CreateWarehouse(context.Background(), tenantID, CreateWarehouseRequest{
			Code: "WH-MAIN",
			Name: "Main Depot",
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})
}

func TestDeactivateWarehouse(t *testing.T) {
	tenantID := uuid.New()

	t.Run("blocked while stock remains", func(t *testing.T) {
		env := newInventoryTestEnv()
		w := activeWarehouse(t, tenantID, "WH-1")
		env.levels.seed(t, tenantID, w.ID, uuid.New(), inventory.BucketOnHand, decimal.NewFromInt(5))

		env.warehouses.On("FindByID", mock.Anything, tenantID, w.ID).Return(w, nil)

		_, err := env.service.DeactivateWarehouse(context.Background(), tenantID, w.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})

	t.Run("succeeds once empty", func(t *testing.T) {
		env := newInventoryTestEnv()
		w := activeWarehouse(t, tenantID, "WH-1")

		env.warehouses.On("FindByID", mock.Anything, tenantID, w.ID).Return(w, nil)
		env.warehouses.On("Save", mock.Anything, w).Return(nil)

		resp, err := env.service.DeactivateWarehouse(context.Background(), tenantID, w.ID)
		require.NoError(t, err)
		assert.Equal(t, "inactive", resp.Status)
	})
}

func TestDirectMovements(t *testing.T) {
	tenantID := uuid.New()

	t.Run("receive adds on-hand stock", func(t *testing.T) {
		env := newInventoryTestEnv()
		w := activeWarehouse(t, tenantID, "WH-1")
		v := trackedVariant(t, tenantID, "LPG-13")

		env.warehouses.On("FindByID", mock.Anything, tenantID, w.ID).Return(w, nil)
		env.variants.On("FindByIDs", mock.Anything, tenantID, []uuid.UUID{v.ID}).Return([]catalog.Variant{*v}, nil)

		cost := decimal.NewFromInt(12)
		resp, err := env.service.Receive(context.Background(), tenantID, DirectMovementRequest{
			WarehouseID: w.ID,
			Lines: []DocumentLineRequest{
				{VariantID: v.ID, Quantity: decimal.NewFromInt(10), UnitCost: &cost},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "posted", resp.Status)
		assert.Equal(t, fmt.Sprintf("SD-%d-000001", time.Now().UTC().Year()), resp.DocNumber)

		lvl, err := env.levels.Find(context.Background(), tenantID, w.ID, v.ID, inventory.BucketOnHand)
		require.NoError(t, err)
		assert.True(t, lvl.Quantity.Equal(decimal.NewFromInt(10)))
		assert.NotEmpty(t, env.publisher.events)
	})

	t.Run("issue beyond available is blocked", func(t *testing.T) {
		env := newInventoryTestEnv()
		w := activeWarehouse(t, tenantID, "WH-1")
		v := trackedVariant(t, tenantID, "LPG-13")
		env.levels.seed(t, tenantID, w.ID, v.ID, inventory.BucketOnHand, decimal.NewFromInt(3))

		env.warehouses.On("FindByID", mock.Anything, tenantID, w.ID).Return(w, nil)
		env.variants.On("FindByIDs", mock.Anything, tenantID, []uuid.UUID{v.ID}).Return([]catalog.Variant{*v}, nil)

		_, err := env.service.Issue(context.Background(), tenantID, DirectMovementRequest{
			WarehouseID: w.ID,
			Lines: []DocumentLineRequest{
				{VariantID: v.ID, Quantity: decimal.NewFromInt(5)},
			},
		})
		assert.Error(t, err)
	})

	t.Run("rejects variants that do not track stock", func(t *testing.T) {
		env := newInventoryTestEnv()
		w := activeWarehouse(t, tenantID, "WH-1")
		dep, err := catalog.NewVariant(tenantID, uuid.New(), "DEP-13", "Cylinder Deposit", catalog.KindDeposit, catalog.UnitEach)
		require.NoError(t, err)

		env.warehouses.On("FindByID", mock.Anything, tenantID, w.ID).Return(w, nil)
		env.variants.On("FindByIDs", mock.Anything, tenantID, []uuid.UUID{dep.ID}).Return([]catalog.Variant{*dep}, nil)

		_, err = env.service.Receive(context.Background(), tenantID, DirectMovementRequest{
			WarehouseID: w.ID,
			Lines: []DocumentLineRequest{
				{VariantID: dep.ID, Quantity: decimal.NewFromInt(1)},
			},
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_VARIANT", domainErr.Code)
	})

	t.Run("transfer moves stock through in-transit", func(t *testing.T) {
		env := newInventoryTestEnv()
		src := activeWarehouse(t, tenantID, "WH-1")
		dst := activeWarehouse(t, tenantID, "WH-2")
		v := trackedVariant(t, tenantID, "LPG-13")
		env.levels.seed(t, tenantID, src.ID, v.ID, inventory.BucketOnHand, decimal.NewFromInt(8))

		env.warehouses.On("FindByID", mock.Anything, tenantID, src.ID).Return(src, nil)
		env.warehouses.On("FindByID", mock.Anything, tenantID, dst.ID).Return(dst, nil)
		env.variants.On("FindByIDs", mock.Anything, tenantID, []uuid.UUID{v.ID}).Return([]catalog.Variant{*v}, nil)

		_, err := env.service.Transfer(context.Background(), tenantID, DirectMovementRequest{
			WarehouseID:     src.ID,
			DestWarehouseID: &dst.ID,
			Lines: []DocumentLineRequest{
				{VariantID: v.ID, Quantity: decimal.NewFromInt(8)},
			},
		})
		require.NoError(t, err)

		transit, err := env.levels.Find(context.Background(), tenantID, dst.ID, v.ID, inventory.BucketInTransit)
		require.NoError(t, err)
		assert.True(t, transit.Quantity.Equal(decimal.NewFromInt(8)))

		_, err = env.service.ReceiveTransfer(context.Background(), tenantID, DirectMovementRequest{
			WarehouseID:     src.ID,
			DestWarehouseID: &dst.ID,
			Lines: []DocumentLineRequest{
				{VariantID: v.ID, Quantity: decimal.NewFromInt(5)},
			},
		})
		require.NoError(t, err)

		transit, err = env.levels.Find(context.Background(), tenantID, dst.ID, v.ID, inventory.BucketInTransit)
		require.NoError(t, err)
		assert.True(t, transit.Quantity.Equal(decimal.NewFromInt(3)))

		onHand, err := env.levels.Find(context.Background(), tenantID, dst.ID, v.ID, inventory.BucketOnHand)
		require.NoError(t, err)
		assert.True(t, onHand.Quantity.Equal(decimal.NewFromInt(5)))
	})
}

func TestCancelDocument(t *testing.T) {
	tenantID := uuid.New()

	t.Run("cancelling a posted receipt posts a reversal", func(t *testing.T) {
		env := newInventoryTestEnv()
		w := activeWarehouse(t, tenantID, "WH-1")
		v := trackedVariant(t, tenantID, "LPG-13")

		env.warehouses.On("FindByID", mock.Anything, tenantID, w.ID).Return(w, nil)
		env.variants.On("FindByIDs", mock.Anything, tenantID, []uuid.UUID{v.ID}).Return([]catalog.Variant{*v}, nil)

		posted, err := env.service.Receive(context.Background(), tenantID, DirectMovementRequest{
			WarehouseID: w.ID,
			Lines: []DocumentLineRequest{
				{VariantID: v.ID, Quantity: decimal.NewFromInt(10)},
			},
		})
		require.NoError(t, err)

		resp, err := env.service.CancelDocument(context.Background(), tenantID, posted.ID, "wrong shipment")
		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)

		lvl, err := env.levels.Find(context.Background(), tenantID, w.ID, v.ID, inventory.BucketOnHand)
		require.NoError(t, err)
		assert.True(t, lvl.Quantity.IsZero())

		require.Len(t, env.documents.rows, 2)
		reversal := env.documents.rows[1]
		assert.Equal(t, inventory.DocStatusPosted, reversal.Status)
		require.NotNil(t, reversal.Ref.DocumentID)
		assert.Equal(t, posted.ID, *reversal.Ref.DocumentID)
	})

	t.Run("cancelled documents stay cancelled", func(t *testing.T) {
		env := newInventoryTestEnv()
		w := activeWarehouse(t, tenantID, "WH-1")
		doc, err := inventory.NewStockDocument(tenantID, "SD-2026-000009", inventory.DocTypeReceipt, w.ID)
		require.NoError(t, err)
		require.NoError(t, doc.MarkCancelled())
		require.NoError(t, env.documents.Save(context.Background(), doc))

		_, err = env.service.CancelDocument(context.Background(), tenantID, doc.ID, "")
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

func TestExpireReservations(t *testing.T) {
	tenantID := uuid.New()
	warehouseID := uuid.New()
	variantID := uuid.New()

	env := newInventoryTestEnv()
	lvl := env.levels.seed(t, tenantID, warehouseID, variantID, inventory.BucketOnHand, decimal.NewFromInt(10))
	require.NoError(t, lvl.Reserve(decimal.NewFromInt(4)))

	past := time.Now().UTC().Add(-time.Hour)
	r, err := inventory.NewStockReservation(tenantID, uuid.New(), warehouseID, variantID, decimal.NewFromInt(4), &past)
	require.NoError(t, err)
	require.NoError(t, env.resvs.Save(context.Background(), r))

	released, err := env.service.ExpireReservations(context.Background(), time.Now().UTC(), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	assert.True(t, lvl.ReservedQty.IsZero())
	stored, err := env.resvs.FindByID(context.Background(), tenantID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.ReservationStatusReleased, stored.Status)
}
