package order

import (
	"context"
	"fmt"
	"testing"
	"time"

	pricingapp "github.com/gasflow/backend/internal/application/pricing"
	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/gasflow/backend/internal/domain/customer"
	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/gasflow/backend/internal/domain/order"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/gasflow/backend/internal/domain/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*order.Order, error) {
	args := m.Called(ctx, tenantID, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CountConfirmedInPeriod(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) ExistsForCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, customerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

// MockCustomerRepository is a mock implementation of customer.Repository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*customer.Customer, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]customer.Customer, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) SaveWithLock(ctx context.Context, c *customer.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) HasOrders(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, customerID)
	return args.Bool(0), args.Error(1)
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

// stubResolver returns a fixed resolved price
type stubResolver struct {
	price decimal.Decimal
	err   error
	calls int
}

func (r *stubResolver) Resolve(ctx context.Context, cust *customer.Customer, variant *catalog.Variant, qty decimal.Decimal, at time.Time) (*pricingapp.ResolvedPrice, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &pricingapp.ResolvedPrice{
		UnitPrice: r.price,
		Currency:  "USD",
		Source:    pricingapp.SourceCustomerList,
	}, nil
}

// stubQuota rejects confirmation when err is set
type stubQuota struct {
	err error
}

func (q *stubQuota) CheckOrderQuota(ctx context.Context, tenantID uuid.UUID, at time.Time) error {
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

func (f *fakeStockLevels) seed(t *testing.T, tenantID, warehouseID, variantID uuid.UUID, qty decimal.Decimal) *inventory.StockLevel {
	t.Helper()
	lvl, err := inventory.NewStockLevel(tenantID, warehouseID, variantID, inventory.BucketOnHand)
	require.NoError(t, err)
	require.NoError(t, lvl.Add(qty, nil))
	f.rows[levelKey(warehouseID, variantID, inventory.BucketOnHand)] = lvl
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
	return nil, nil
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

// fakeUsage counts metric increments in memory
type fakeUsage struct {
	counts map[tenant.UsageMetric]int64
}

func (f *fakeUsage) Increment(ctx context.Context, tenantID uuid.UUID, metric tenant.UsageMetric, period time.Time, quantity int64) error {
	if f.counts == nil {
		f.counts = make(map[tenant.UsageMetric]int64)
	}
	f.counts[metric] += quantity
	return nil
}

func (f *fakeUsage) FindByTenantPeriod(ctx context.Context, tenantID uuid.UUID, period time.Time) ([]tenant.UsageRecord, error) {
	return nil, nil
}

func (f *fakeUsage) ProcessedWebhook(ctx context.Context, eventID string) (bool, error) {
	return false, nil
}

type orderTestEnv struct {
	orders    *MockOrderRepository
	customers *MockCustomerRepository
	variants  *MockVariantRepository
	resolver  *stubResolver
	quota     *stubQuota
	levels    *fakeStockLevels
	resvs     *fakeReservations
	usage     *fakeUsage
	publisher *stubPublisher
	service   *Service
}

func newOrderTestEnv(reservationTTL time.Duration) *orderTestEnv {
	env := &orderTestEnv{
		orders:    new(MockOrderRepository),
		customers: new(MockCustomerRepository),
		variants:  new(MockVariantRepository),
		resolver:  &stubResolver{price: decimal.NewFromInt(25)},
		quota:     &stubQuota{},
		levels:    newFakeStockLevels(),
		resvs:     &fakeReservations{},
		usage:     &fakeUsage{},
		publisher: &stubPublisher{},
	}
	scope := &NoOpTransactionScope{
		OrderRepo: env.orders,
		Levels:    env.levels,
		Resvs:     env.resvs,
		Seqs:      &fakeSequences{},
		UsageRepo: env.usage,
	}
	env.service = NewService(
		env.orders,
		env.customers,
		env.variants,
		env.resolver,
		env.quota,
		scope,
		reservationTTL,
		env.publisher,
		zap.NewNop(),
	)
	return env
}

func activeCustomer(t *testing.T, tenantID uuid.UUID) *customer.Customer {
	t.Helper()
	c, err := customer.NewCustomer(tenantID, "C1", "Acme", customer.KindCommercial)
	require.NoError(t, err)
	return c
}

func gasVariant(t *testing.T, tenantID uuid.UUID) *catalog.Variant {
	t.Helper()
	v, err := catalog.NewVariant(tenantID, uuid.New(), "LPG-13", "13kg Cylinder", catalog.KindAsset, catalog.UnitEach)
	require.NoError(t, err)
	return v
}

func TestCreateOrder(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates draft with issued number", func(t *testing.T) {
		env := newOrderTestEnv(0)
		cust := activeCustomer(t, tenantID)

		env.customers.On("FindByID", mock.Anything, tenantID, cust.ID).Return(cust, nil)
		env.orders.On("Save", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)

		resp, err := env.service.Create(context.Background(), tenantID, CreateOrderRequest{
			CustomerID:  cust.ID,
			WarehouseID: uuid.New(),
			Currency:    "USD",
		})

		require.NoError(t, err)
		assert.Equal(t, "draft", resp.Status)
		assert.Equal(t, fmt.Sprintf("SO-%d-000001", time.Now().UTC().Year()), resp.OrderNumber)
		assert.NotEmpty(t, env.publisher.events)
	})

	t.Run("rejects suspended customer", func(t *testing.T) {
		env := newOrderTestEnv(0)
		cust := activeCustomer(t, tenantID)
		require.NoError(t, cust.Suspend())

		env.customers.On("FindByID", mock.Anything, tenantID, cust.ID).Return(cust, nil)

		_, err := env.service.Create(context.Background(), tenantID, CreateOrderRequest{
			CustomerID:  cust.ID,
			WarehouseID: uuid.New(),
			Currency:    "USD",
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		env.orders.AssertNotCalled(t, "Save")
	})

	t.Run("rejects unknown delivery address", func(t *testing.T) {
		env := newOrderTestEnv(0)
		cust := activeCustomer(t, tenantID)

		env.customers.On("FindByID", mock.Anything, tenantID, cust.ID).Return(cust, nil)

		addrID := uuid.New()
		_, err := env.service.Create(context.Background(), tenantID, CreateOrderRequest{
			CustomerID:        cust.ID,
			WarehouseID:       uuid.New(),
			DeliveryAddressID: &addrID,
			Currency:          "USD",
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ADDRESS_NOT_FOUND", domainErr.Code)
	})
}

func TestAddLine(t *testing.T) {
	tenantID := uuid.New()
	warehouseID := uuid.New()

	newDraft := func(t *testing.T, custID uuid.UUID) *order.Order {
		t.Helper()
		o, err := order.NewOrder(tenantID, "SO-2026-000001", custID, warehouseID, "USD")
		require.NoError(t, err)
		return o
	}

	t.Run("resolves price through price lists", func(t *testing.T) {
		env := newOrderTestEnv(0)
		cust := activeCustomer(t, tenantID)
		v := gasVariant(t, tenantID)
		o := newDraft(t, cust.ID)

		env.orders.On("FindByID", mock.Anything, tenantID, o.ID).Return(o, nil)
		env.variants.On("FindByID", mock.Anything, tenantID, v.ID).Return(v, nil)
		env.customers.On("FindByID", mock.Anything, tenantID, cust.ID).Return(cust, nil)
		env.orders.On("SaveWithLock", mock.Anything, o).Return(nil)

		resp, err := env.service.AddLine(context.Background(), tenantID, o.ID, AddLineRequest{
			VariantID: v.ID,
			Quantity:  decimal.NewFromInt(2),
		})

		require.NoError(t, err)
		require.Len(t, resp.Lines, 1)
		assert.True(t, resp.Lines[0].UnitPrice.Equal(decimal.NewFromInt(25)))
		assert.Equal(t, "customer_list", resp.Lines[0].PriceSource)
		assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, 1, env.resolver.calls)
	})

	t.Run("manual price skips the resolver", func(t *testing.T) {
		env := newOrderTestEnv(0)
		cust := activeCustomer(t, tenantID)
		v := gasVariant(t, tenantID)
		o := newDraft(t, cust.ID)

		env.orders.On("FindByID", mock.Anything, tenantID, o.ID).Return(o, nil)
		env.variants.On("FindByID", mock.Anything, tenantID, v.ID).Return(v, nil)
		env.orders.On("SaveWithLock", mock.Anything, o).Return(nil)

		manual := decimal.NewFromInt(30)
		resp, err := env.service.AddLine(context.Background(), tenantID, o.ID, AddLineRequest{
			VariantID: v.ID,
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: &manual,
		})

		require.NoError(t, err)
		require.Len(t, resp.Lines, 1)
		assert.Equal(t, "manual", resp.Lines[0].PriceSource)
		assert.Equal(t, 0, env.resolver.calls)
		env.customers.AssertNotCalled(t, "FindByID")
	})

	t.Run("bundle explodes into component lines", func(t *testing.T) {
		env := newOrderTestEnv(0)
		cust := activeCustomer(t, tenantID)
		o := newDraft(t, cust.ID)

		comp, err := catalog.NewVariant(tenantID, uuid.New(), "LPG-13", "13kg Cylinder", catalog.KindAsset, catalog.UnitEach)
		require.NoError(t, err)
		bundle, err := catalog.NewVariant(tenantID, uuid.New(), "STARTER", "Starter Pack", catalog.KindBundle, catalog.UnitEach)
		require.NoError(t, err)
		require.NoError(t, bundle.SetComponents(
			[]catalog.BundleComponent{{ComponentVariantID: comp.ID, Quantity: decimal.NewFromInt(2)}},
			map[uuid.UUID]catalog.VariantKind{comp.ID: catalog.KindAsset},
		))

		env.orders.On("FindByID", mock.Anything, tenantID, o.ID).Return(o, nil)
		env.variants.On("FindByID", mock.Anything, tenantID, bundle.ID).Return(bundle, nil)
		env.customers.On("FindByID", mock.Anything, tenantID, cust.ID).Return(cust, nil)
		env.variants.On("FindByIDs", mock.Anything, tenantID, []uuid.UUID{comp.ID}).Return([]catalog.Variant{*comp}, nil)
		env.orders.On("SaveWithLock", mock.Anything, o).Return(nil)

		resp, err := env.service.AddLine(context.Background(), tenantID, o.ID, AddLineRequest{
			VariantID: bundle.ID,
			Quantity:  decimal.NewFromInt(1),
		})

		require.NoError(t, err)
		require.Len(t, resp.Lines, 2)
		assert.Equal(t, "bundle_component", resp.Lines[1].PriceSource)
		assert.True(t, resp.Lines[1].Quantity.Equal(decimal.NewFromInt(2)))
	})
}

func TestConfirmOrder(t *testing.T) {
	tenantID := uuid.New()
	warehouseID := uuid.New()

	draftWithLine := func(t *testing.T, cust *customer.Customer, v *catalog.Variant, qty int64) *order.Order {
		t.Helper()
		o, err := order.NewOrder(tenantID, "SO-2026-000001", cust.ID, warehouseID, "USD")
		require.NoError(t, err)
		_, err = o.AddLine(order.LineInput{
			Variant:     v,
			Quantity:    decimal.NewFromInt(qty),
			UnitPrice:   decimal.NewFromInt(25),
			PriceSource: order.PriceSourceManual,
		}, nil)
		require.NoError(t, err)
		o.ClearDomainEvents()
		return o
	}

	t.Run("reserves stock and counts usage", func(t *testing.T) {
		env := newOrderTestEnv(2 * time.Hour)
		cust := activeCustomer(t, tenantID)
		v := gasVariant(t, tenantID)
		o := draftWithLine(t, cust, v, 3)
		env.levels.seed(t, tenantID, warehouseID, v.ID, decimal.NewFromInt(10))

		env.orders.On("FindByID", mock.Anything, tenantID, o.ID).Return(o, nil)
		env.customers.On("FindByID", mock.Anything, tenantID, cust.ID).Return(cust, nil)
		env.orders.On("SaveWithLock", mock.Anything, o).Return(nil)

		resp, err := env.service.Confirm(context.Background(), tenantID, o.ID)

		require.NoError(t, err)
		assert.Equal(t, "confirmed", resp.Status)
		require.NotNil(t, resp.ConfirmedAt)

		lvl, err := env.levels.Find(context.Background(), tenantID, warehouseID, v.ID, inventory.BucketOnHand)
		require.NoError(t, err)
		assert.True(t, lvl.ReservedQty.Equal(decimal.NewFromInt(3)))

		require.Len(t, env.resvs.rows, 1)
		require.NotNil(t, env.resvs.rows[0].ExpiresAt)
		assert.Equal(t, int64(1), env.usage.counts[tenant.MetricOrdersCreated])
	})

	t.Run("insufficient stock blocks confirmation", func(t *testing.T) {
		env := newOrderTestEnv(0)
		cust := activeCustomer(t, tenantID)
		v := gasVariant(t, tenantID)
		o := draftWithLine(t, cust, v, 5)
		env.levels.seed(t, tenantID, warehouseID, v.ID, decimal.NewFromInt(2))

		env.orders.On("FindByID", mock.Anything, tenantID, o.ID).Return(o, nil)
		env.customers.On("FindByID", mock.Anything, tenantID, cust.ID).Return(cust, nil)

		_, err := env.service.Confirm(context.Background(), tenantID, o.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
		env.orders.AssertNotCalled(t, "SaveWithLock")
	})

	t.Run("quota error passes through", func(t *testing.T) {
		env := newOrderTestEnv(0)
		env.quota.err = shared.NewDomainError("QUOTA_EXCEEDED", "Monthly order quota reached")
		cust := activeCustomer(t, tenantID)
		v := gasVariant(t, tenantID)
		o := draftWithLine(t, cust, v, 1)

		env.orders.On("FindByID", mock.Anything, tenantID, o.ID).Return(o, nil)
		env.customers.On("FindByID", mock.Anything, tenantID, cust.ID).Return(cust, nil)

		_, err := env.service.Confirm(context.Background(), tenantID, o.ID)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "QUOTA_EXCEEDED", domainErr.Code)
	})

	t.Run("credit limit blocks confirmation", func(t *testing.T) {
		env := newOrderTestEnv(0)
		cust := activeCustomer(t, tenantID)
		require.NoError(t, cust.SetCreditLimit(decimal.NewFromInt(10)))
		v := gasVariant(t, tenantID)
		o := draftWithLine(t, cust, v, 1)

		env.orders.On("FindByID", mock.Anything, tenantID, o.ID).Return(o, nil)
		env.customers.On("FindByID", mock.Anything, tenantID, cust.ID).Return(cust, nil)

		_, err := env.service.Confirm(context.Background(), tenantID, o.ID)
		assert.ErrorIs(t, err, shared.ErrCreditLimitExceeded)
	})

	t.Run("empty draft cannot confirm", func(t *testing.T) {
		env := newOrderTestEnv(0)
		cust := activeCustomer(t, tenantID)
		o, err := order.NewOrder(tenantID, "SO-2026-000002", cust.ID, warehouseID, "USD")
		require.NoError(t, err)

		env.orders.On("FindByID", mock.Anything, tenantID, o.ID).Return(o, nil)
		env.customers.On("FindByID", mock.Anything, tenantID, cust.ID).Return(cust, nil)

		_, err = env.service.Confirm(context.Background(), tenantID, o.ID)
		assert.Error(t, err)
	})
}

func TestCancelOrder(t *testing.T) {
	tenantID := uuid.New()
	warehouseID := uuid.New()

	t.Run("cancelling a confirmed order releases reservations", func(t *testing.T) {
		env := newOrderTestEnv(0)
		cust := activeCustomer(t, tenantID)
		v := gasVariant(t, tenantID)

		o, err := order.NewOrder(tenantID, "SO-2026-000001", cust.ID, warehouseID, "USD")
		require.NoError(t, err)
		_, err = o.AddLine(order.LineInput{
			Variant:     v,
			Quantity:    decimal.NewFromInt(4),
			UnitPrice:   decimal.NewFromInt(25),
			PriceSource: order.PriceSourceManual,
		}, nil)
		require.NoError(t, err)
		env.levels.seed(t, tenantID, warehouseID, v.ID, decimal.NewFromInt(10))

		env.orders.On("FindByID", mock.Anything, tenantID, o.ID).Return(o, nil)
		env.customers.On("FindByID", mock.Anything, tenantID, cust.ID).Return(cust, nil)
		env.orders.On("SaveWithLock", mock.Anything, o).Return(nil)

		_, err = env.service.Confirm(context.Background(), tenantID, o.ID)
		require.NoError(t, err)

		resp, err := env.service.Cancel(context.Background(), tenantID, o.ID, CancelOrderRequest{Reason: "customer called off"})
		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
		assert.Equal(t, "customer called off", resp.CancelReason)

		lvl, err := env.levels.Find(context.Background(), tenantID, warehouseID, v.ID, inventory.BucketOnHand)
		require.NoError(t, err)
		assert.True(t, lvl.ReservedQty.IsZero())
		assert.True(t, lvl.Quantity.Equal(decimal.NewFromInt(10)))
	})

	t.Run("delivered orders cannot be cancelled", func(t *testing.T) {
		env := newOrderTestEnv(0)
		cust := activeCustomer(t, tenantID)
		v := gasVariant(t, tenantID)

		o, err := order.NewOrder(tenantID, "SO-2026-000001", cust.ID, warehouseID, "USD")
		require.NoError(t, err)
		_, err = o.AddLine(order.LineInput{
			Variant:     v,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(25),
			PriceSource: order.PriceSourceManual,
		}, nil)
		require.NoError(t, err)
		require.NoError(t, o.Confirm())
		require.NoError(t, o.Schedule(uuid.New()))
		require.NoError(t, o.MarkEnRoute())
		require.NoError(t, o.MarkDelivered())

		env.orders.On("FindByID", mock.Anything, tenantID, o.ID).Return(o, nil)

		_, err = env.service.Cancel(context.Background(), tenantID, o.ID, CancelOrderRequest{Reason: "too late"})
		assert.Error(t, err)
	})
}
