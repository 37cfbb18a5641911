package logistics

import (
	"context"
	"fmt"
	"testing"
	"time"

	inventoryapp "github.com/gasflow/backend/internal/application/inventory"
	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/gasflow/backend/internal/domain/logistics"
	"github.com/gasflow/backend/internal/domain/order"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// The trip lifecycle touches trips, orders, stock documents, levels
// and reservations together, so these tests run against in-memory
// fakes instead of per-method mocks.

type fakeVehicles struct {
	rows map[uuid.UUID]*logistics.Vehicle
}

func (f *fakeVehicles) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*logistics.Vehicle, error) {
	if v, ok := f.rows[id]; ok {
		return v, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeVehicles) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*logistics.Vehicle, error) {
	for _, v := range f.rows {
		if v.Code == code {
			return v, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeVehicles) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]logistics.Vehicle, error) {
	out := make([]logistics.Vehicle, 0, len(f.rows))
	for _, v := range f.rows {
		out = append(out, *v)
	}
	return out, nil
}

func (f *fakeVehicles) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeVehicles) Save(ctx context.Context, v *logistics.Vehicle) error {
	if f.rows == nil {
		f.rows = make(map[uuid.UUID]*logistics.Vehicle)
	}
	f.rows[v.ID] = v
	return nil
}

type fakeDrivers struct {
	rows map[uuid.UUID]*logistics.Driver
}

func (f *fakeDrivers) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*logistics.Driver, error) {
	if d, ok := f.rows[id]; ok {
		return d, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeDrivers) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]logistics.Driver, error) {
	out := make([]logistics.Driver, 0, len(f.rows))
	for _, d := range f.rows {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDrivers) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeDrivers) Save(ctx context.Context, d *logistics.Driver) error {
	if f.rows == nil {
		f.rows = make(map[uuid.UUID]*logistics.Driver)
	}
	f.rows[d.ID] = d
	return nil
}

type fakeWarehouses struct {
	rows map[uuid.UUID]*inventory.Warehouse
}

func (f *fakeWarehouses) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Warehouse, error) {
	if w, ok := f.rows[id]; ok {
		return w, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeWarehouses) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*inventory.Warehouse, error) {
	for _, w := range f.rows {
		if w.Code == code {
			return w, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeWarehouses) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.Warehouse, error) {
	out := make([]inventory.Warehouse, 0, len(f.rows))
	for _, w := range f.rows {
		out = append(out, *w)
	}
	return out, nil
}

func (f *fakeWarehouses) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeWarehouses) CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	for _, w := range f.rows {
		if w.IsActive() {
			n++
		}
	}
	return n, nil
}

func (f *fakeWarehouses) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	_, err := f.FindByCode(ctx, tenantID, code)
	return err == nil, nil
}

func (f *fakeWarehouses) Save(ctx context.Context, w *inventory.Warehouse) error {
	if f.rows == nil {
		f.rows = make(map[uuid.UUID]*inventory.Warehouse)
	}
	f.rows[w.ID] = w
	return nil
}

type fakeTrips struct {
	rows map[uuid.UUID]*logistics.Trip
}

func (f *fakeTrips) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*logistics.Trip, error) {
	if t, ok := f.rows[id]; ok {
		return t, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeTrips) FindByNumber(ctx context.Context, tenantID uuid.UUID, tripNumber string) (*logistics.Trip, error) {
	for _, t := range f.rows {
		if t.TripNumber == tripNumber {
			return t, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeTrips) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]logistics.Trip, error) {
	out := make([]logistics.Trip, 0, len(f.rows))
	for _, t := range f.rows {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTrips) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeTrips) FindActiveByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) (*logistics.Trip, error) {
	for _, t := range f.rows {
		switch t.Status {
		case logistics.TripStatusPlanning, logistics.TripStatusLoading, logistics.TripStatusEnRoute:
			if t.VehicleID == vehicleID {
				return t, nil
			}
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeTrips) FindByPlannedDate(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]logistics.Trip, error) {
	return nil, nil
}

func (f *fakeTrips) Save(ctx context.Context, t *logistics.Trip) error {
	if f.rows == nil {
		f.rows = make(map[uuid.UUID]*logistics.Trip)
	}
	f.rows[t.ID] = t
	return nil
}

func (f *fakeTrips) SaveWithLock(ctx context.Context, t *logistics.Trip) error {
	return f.Save(ctx, t)
}

type fakeDeliveries struct {
	rows []*logistics.Delivery
}

func (f *fakeDeliveries) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*logistics.Delivery, error) {
	for _, d := range f.rows {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeDeliveries) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]logistics.Delivery, error) {
	out := make([]logistics.Delivery, 0)
	for _, d := range f.rows {
		if d.OrderID == orderID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDeliveries) FindByTrip(ctx context.Context, tenantID, tripID uuid.UUID) ([]logistics.Delivery, error) {
	out := make([]logistics.Delivery, 0)
	for _, d := range f.rows {
		if d.TripID == tripID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDeliveries) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]logistics.Delivery, error) {
	out := make([]logistics.Delivery, 0, len(f.rows))
	for _, d := range f.rows {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDeliveries) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeDeliveries) Save(ctx context.Context, d *logistics.Delivery) error {
	for i := range f.rows {
		if f.rows[i].ID == d.ID {
			f.rows[i] = d
			return nil
		}
	}
	f.rows = append(f.rows, d)
	return nil
}

type fakeOrders struct {
	rows map[uuid.UUID]*order.Order
}

func (f *fakeOrders) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*order.Order, error) {
	if o, ok := f.rows[id]; ok {
		return o, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeOrders) FindByNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*order.Order, error) {
	for _, o := range f.rows {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeOrders) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]order.Order, error) {
	out := make([]order.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := f.rows[id]; ok {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrders) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	out := make([]order.Order, 0, len(f.rows))
	for _, o := range f.rows {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrders) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeOrders) CountConfirmedInPeriod(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeOrders) ExistsForCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error) {
	for _, o := range f.rows {
		if o.CustomerID == customerID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOrders) Save(ctx context.Context, o *order.Order) error {
	if f.rows == nil {
		f.rows = make(map[uuid.UUID]*order.Order)
	}
	f.rows[o.ID] = o
	return nil
}

func (f *fakeOrders) SaveWithLock(ctx context.Context, o *order.Order) error {
	return f.Save(ctx, o)
}

type fakeStockLevels struct {
	rows map[string]*inventory.StockLevel
}

func levelKey(warehouseID, variantID uuid.UUID, bucket inventory.Bucket) string {
	return fmt.Sprintf("%s/%s/%s", warehouseID, variantID, bucket)
}

func (f *fakeStockLevels) Find(ctx context.Context, tenantID, warehouseID, variantID uuid.UUID, bucket inventory.Bucket) (*inventory.StockLevel, error) {
	if lvl, ok := f.rows[levelKey(warehouseID, variantID, bucket)]; ok {
		return lvl, nil
	}
	return nil, shared.ErrNotFound
}

func (f *fakeStockLevels) FindOrCreate(ctx context.Context, tenantID, warehouseID, variantID uuid.UUID, bucket inventory.Bucket) (*inventory.StockLevel, error) {
	if f.rows == nil {
		f.rows = make(map[string]*inventory.StockLevel)
	}
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
	if f.rows == nil {
		f.rows = make(map[string]*inventory.StockLevel)
	}
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

// stubPublisher collects published events
type stubPublisher struct {
	events []shared.DomainEvent
}

func (p *stubPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type tripTestEnv struct {
	tenantID   uuid.UUID
	vehicles   *fakeVehicles
	drivers    *fakeDrivers
	warehouses *fakeWarehouses
	trips      *fakeTrips
	deliveries *fakeDeliveries
	orders     *fakeOrders
	levels     *fakeStockLevels
	documents  *fakeDocuments
	resvs      *fakeReservations
	publisher  *stubPublisher
	service    *Service

	vehicle   *logistics.Vehicle
	driver    *logistics.Driver
	warehouse *inventory.Warehouse
	variant   *catalog.Variant
}

func newTripTestEnv(t *testing.T) *tripTestEnv {
	t.Helper()
	env := &tripTestEnv{
		tenantID:   uuid.New(),
		vehicles:   &fakeVehicles{},
		drivers:    &fakeDrivers{},
		warehouses: &fakeWarehouses{},
		trips:      &fakeTrips{},
		deliveries: &fakeDeliveries{},
		orders:     &fakeOrders{},
		levels:     &fakeStockLevels{},
		documents:  &fakeDocuments{},
		resvs:      &fakeReservations{},
		publisher:  &stubPublisher{},
	}
	scope := &NoOpTransactionScope{
		TripRepo:     env.trips,
		DeliveryRepo: env.deliveries,
		OrderRepo:    env.orders,
		Levels:       env.levels,
		Documents:    env.documents,
		Resvs:        env.resvs,
		Seqs:         &fakeSequences{},
	}
	env.service = NewService(
		env.vehicles,
		env.drivers,
		env.trips,
		env.deliveries,
		env.orders,
		env.warehouses,
		scope,
		env.publisher,
		zap.NewNop(),
	)

	ctx := context.Background()
	var err error
	env.vehicle, err = logistics.NewVehicle(env.tenantID, "TRK-1", "AB-123-CD")
	require.NoError(t, err)
	require.NoError(t, env.vehicles.Save(ctx, env.vehicle))

	env.driver, err = logistics.NewDriver(env.tenantID, "Sam Porter", "555-0101", "DL-9913")
	require.NoError(t, err)
	require.NoError(t, env.drivers.Save(ctx, env.driver))

	env.warehouse, err = inventory.NewWarehouse(env.tenantID, "WH-1", "Main Depot")
	require.NoError(t, err)
	require.NoError(t, env.warehouses.Save(ctx, env.warehouse))

	env.variant, err = catalog.NewVariant(env.tenantID, uuid.New(), "LPG-13", "13kg Cylinder", catalog.KindAsset, catalog.UnitEach)
	require.NoError(t, err)
	return env
}

// confirmedOrder builds a confirmed order with one stock-tracked line
// and an active reservation, the state AddStop expects.
func (env *tripTestEnv) confirmedOrder(t *testing.T, qty int64) *order.Order {
	t.Helper()
	ctx := context.Background()

	o, err := order.NewOrder(env.tenantID, fmt.Sprintf("SO-2026-%06d", len(env.orders.rows)+1), uuid.New(), env.warehouse.ID, "USD")
	require.NoError(t, err)
	_, err = o.AddLine(order.LineInput{
		Variant:     env.variant,
		Quantity:    decimal.NewFromInt(qty),
		UnitPrice:   decimal.NewFromInt(25),
		PriceSource: order.PriceSourceManual,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, o.Confirm())
	o.ClearDomainEvents()
	require.NoError(t, env.orders.Save(ctx, o))

	demands := []inventoryapp.StockDemand{{VariantID: env.variant.ID, Quantity: decimal.NewFromInt(qty)}}
	require.NoError(t, inventoryapp.ReserveForOrder(ctx, env.levels, env.resvs, env.tenantID, o.ID, env.warehouse.ID, demands, nil))
	return o
}

func (env *tripTestEnv) seedStock(t *testing.T, qty int64) {
	t.Helper()
	lvl, err := env.levels.FindOrCreate(context.Background(), env.tenantID, env.warehouse.ID, env.variant.ID, inventory.BucketOnHand)
	require.NoError(t, err)
	require.NoError(t, lvl.Add(decimal.NewFromInt(qty), nil))
}

func (env *tripTestEnv) order(t *testing.T, id uuid.UUID) *order.Order {
	t.Helper()
	o, err := env.orders.FindByID(context.Background(), env.tenantID, id)
	require.NoError(t, err)
	return o
}

func (env *tripTestEnv) level(t *testing.T, bucket inventory.Bucket) *inventory.StockLevel {
	t.Helper()
	lvl, err := env.levels.FindOrCreate(context.Background(), env.tenantID, env.warehouse.ID, env.variant.ID, bucket)
	require.NoError(t, err)
	return lvl
}

func TestCreateTrip(t *testing.T) {
	t.Run("creates planning trip with issued number", func(t *testing.T) {
		env := newTripTestEnv(t)

		resp, err := env.service.CreateTrip(context.Background(), env.tenantID, CreateTripRequest{
			VehicleID:   env.vehicle.ID,
			DriverID:    env.driver.ID,
			WarehouseID: env.warehouse.ID,
			PlannedDate: time.Now().AddDate(0, 0, 1),
		})

		require.NoError(t, err)
		assert.Equal(t, "planning", resp.Status)
		assert.Equal(t, fmt.Sprintf("TR-%d-000001", time.Now().UTC().Year()), resp.TripNumber)
	})

	t.Run("one open trip per vehicle", func(t *testing.T) {
		env := newTripTestEnv(t)
		req := CreateTripRequest{
			VehicleID:   env.vehicle.ID,
			DriverID:    env.driver.ID,
			WarehouseID: env.warehouse.ID,
			PlannedDate: time.Now().AddDate(0, 0, 1),
		}

		_, err := env.service.CreateTrip(context.Background(), env.tenantID, req)
		require.NoError(t, err)

		_, err = env.service.CreateTrip(context.Background(), env.tenantID, req)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})

	t.Run("inactive vehicle is rejected", func(t *testing.T) {
		env := newTripTestEnv(t)
		require.NoError(t, env.vehicle.Deactivate())

		_, err := env.service.CreateTrip(context.Background(), env.tenantID, CreateTripRequest{
			VehicleID:   env.vehicle.ID,
			DriverID:    env.driver.ID,
			WarehouseID: env.warehouse.ID,
			PlannedDate: time.Now().AddDate(0, 0, 1),
		})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

func TestTripStops(t *testing.T) {
	t.Run("add stop schedules the order", func(t *testing.T) {
		env := newTripTestEnv(t)
		env.seedStock(t, 10)
		o := env.confirmedOrder(t, 3)

		trip, err := env.service.CreateTrip(context.Background(), env.tenantID, CreateTripRequest{
			VehicleID:   env.vehicle.ID,
			DriverID:    env.driver.ID,
			WarehouseID: env.warehouse.ID,
			PlannedDate: time.Now().AddDate(0, 0, 1),
		})
		require.NoError(t, err)

		resp, err := env.service.AddStop(context.Background(), env.tenantID, trip.ID, AddStopRequest{OrderID: o.ID})
		require.NoError(t, err)
		require.Len(t, resp.Stops, 1)
		assert.Equal(t, "pending", resp.Stops[0].Status)
		assert.Equal(t, order.StatusScheduled, o.Status)
	})

	t.Run("orders from another warehouse are rejected", func(t *testing.T) {
		env := newTripTestEnv(t)
		other, err := inventory.NewWarehouse(env.tenantID, "WH-2", "Second Depot")
		require.NoError(t, err)
		require.NoError(t, env.warehouses.Save(context.Background(), other))

		o, err := order.NewOrder(env.tenantID, "SO-2026-000099", uuid.New(), other.ID, "USD")
		require.NoError(t, err)
		require.NoError(t, env.orders.Save(context.Background(), o))

		trip, err := env.service.CreateTrip(context.Background(), env.tenantID, CreateTripRequest{
			VehicleID:   env.vehicle.ID,
			DriverID:    env.driver.ID,
			WarehouseID: env.warehouse.ID,
			PlannedDate: time.Now().AddDate(0, 0, 1),
		})
		require.NoError(t, err)

		_, err = env.service.AddStop(context.Background(), env.tenantID, trip.ID, AddStopRequest{OrderID: o.ID})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_WAREHOUSE", domainErr.Code)
	})

	t.Run("remove stop returns the order to confirmed", func(t *testing.T) {
		env := newTripTestEnv(t)
		env.seedStock(t, 10)
		o := env.confirmedOrder(t, 3)

		trip, err := env.service.CreateTrip(context.Background(), env.tenantID, CreateTripRequest{
			VehicleID:   env.vehicle.ID,
			DriverID:    env.driver.ID,
			WarehouseID: env.warehouse.ID,
			PlannedDate: time.Now().AddDate(0, 0, 1),
		})
		require.NoError(t, err)

		withStop, err := env.service.AddStop(context.Background(), env.tenantID, trip.ID, AddStopRequest{OrderID: o.ID})
		require.NoError(t, err)

		resp, err := env.service.RemoveStop(context.Background(), env.tenantID, trip.ID, withStop.Stops[0].ID)
		require.NoError(t, err)
		assert.Empty(t, resp.Stops)
		assert.Equal(t, order.StatusConfirmed, o.Status)
	})
}

func TestTripLifecycle(t *testing.T) {
	env := newTripTestEnv(t)
	ctx := context.Background()
	env.seedStock(t, 10)
	o := env.confirmedOrder(t, 3)

	trip, err := env.service.CreateTrip(ctx, env.tenantID, CreateTripRequest{
		VehicleID:   env.vehicle.ID,
		DriverID:    env.driver.ID,
		WarehouseID: env.warehouse.ID,
		PlannedDate: time.Now().AddDate(0, 0, 1),
	})
	require.NoError(t, err)

	withStop, err := env.service.AddStop(ctx, env.tenantID, trip.ID, AddStopRequest{OrderID: o.ID})
	require.NoError(t, err)
	stopID := withStop.Stops[0].ID

	// Loading moves the aggregated demand onto the truck and consumes
	// the order reservations.
	loaded, err := env.service.StartLoading(ctx, env.tenantID, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "loading", loaded.Status)
	require.NotNil(t, loaded.LoadDocID)

	onHand := env.level(t, inventory.BucketOnHand)
	truck := env.level(t, inventory.BucketTruckStock)
	assert.True(t, onHand.Quantity.Equal(decimal.NewFromInt(7)))
	assert.True(t, onHand.ReservedQty.IsZero())
	assert.True(t, truck.Quantity.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, inventory.ReservationStatusConsumed, env.resvs.rows[0].Status)

	departed, err := env.service.Depart(ctx, env.tenantID, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "en_route", departed.Status)
	assert.Equal(t, order.StatusEnRoute, env.order(t, o.ID).Status)

	// Two of three cylinders handed over, one empty collected.
	one := decimal.NewFromInt(1)
	delivery, err := env.service.RecordDelivery(ctx, env.tenantID, trip.ID, stopID, RecordDeliveryRequest{
		ReceivedBy: "A. Customer",
		Lines: []DeliveryLineRequest{
			{OrderLineID: o.Lines[0].ID, DeliveredQty: decimal.NewFromInt(2), EmptiesCollected: &one},
		},
	})
	require.NoError(t, err)
	assert.True(t, delivery.Short)
	assert.Equal(t, order.StatusDelivered, env.order(t, o.ID).Status)

	truck = env.level(t, inventory.BucketTruckStock)
	quarantine := env.level(t, inventory.BucketQuarantine)
	assert.True(t, truck.Quantity.Equal(decimal.NewFromInt(1)))
	assert.True(t, quarantine.Quantity.Equal(one))

	// Completing unloads the undelivered remainder back to on-hand.
	completed, err := env.service.Complete(ctx, env.tenantID, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", completed.Status)
	require.NotNil(t, completed.UnloadDocID)

	onHand = env.level(t, inventory.BucketOnHand)
	truck = env.level(t, inventory.BucketTruckStock)
	assert.True(t, onHand.Quantity.Equal(decimal.NewFromInt(8)))
	assert.True(t, truck.Quantity.IsZero())
}

func TestFailStop(t *testing.T) {
	env := newTripTestEnv(t)
	ctx := context.Background()
	env.seedStock(t, 10)
	o := env.confirmedOrder(t, 3)

	trip, err := env.service.CreateTrip(ctx, env.tenantID, CreateTripRequest{
		VehicleID:   env.vehicle.ID,
		DriverID:    env.driver.ID,
		WarehouseID: env.warehouse.ID,
		PlannedDate: time.Now().AddDate(0, 0, 1),
	})
	require.NoError(t, err)

	withStop, err := env.service.AddStop(ctx, env.tenantID, trip.ID, AddStopRequest{OrderID: o.ID})
	require.NoError(t, err)
	stopID := withStop.Stops[0].ID

	_, err = env.service.StartLoading(ctx, env.tenantID, trip.ID)
	require.NoError(t, err)
	_, err = env.service.Depart(ctx, env.tenantID, trip.ID)
	require.NoError(t, err)

	resp, err := env.service.FailStop(ctx, env.tenantID, trip.ID, stopID, StopReasonRequest{Reason: "nobody home"})
	require.NoError(t, err)
	assert.Equal(t, "failed", resp.Stops[0].Status)
	assert.Equal(t, order.StatusConfirmed, env.order(t, o.ID).Status)

	// The failed order is re-earmarked out of remaining stock.
	active, err := env.resvs.FindActiveByOrder(ctx, env.tenantID, o.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].Quantity.Equal(decimal.NewFromInt(3)))
}

func TestCancelTrip(t *testing.T) {
	t.Run("cancel while loading unloads and re-reserves", func(t *testing.T) {
		env := newTripTestEnv(t)
		ctx := context.Background()
		env.seedStock(t, 10)
		o := env.confirmedOrder(t, 3)

		trip, err := env.service.CreateTrip(ctx, env.tenantID, CreateTripRequest{
			VehicleID:   env.vehicle.ID,
			DriverID:    env.driver.ID,
			WarehouseID: env.warehouse.ID,
			PlannedDate: time.Now().AddDate(0, 0, 1),
		})
		require.NoError(t, err)
		_, err = env.service.AddStop(ctx, env.tenantID, trip.ID, AddStopRequest{OrderID: o.ID})
		require.NoError(t, err)
		_, err = env.service.StartLoading(ctx, env.tenantID, trip.ID)
		require.NoError(t, err)

		resp, err := env.service.CancelTrip(ctx, env.tenantID, trip.ID, CancelTripRequest{Reason: "truck broke down"})
		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
		assert.Equal(t, order.StatusConfirmed, env.order(t, o.ID).Status)

		onHand := env.level(t, inventory.BucketOnHand)
		truck := env.level(t, inventory.BucketTruckStock)
		assert.True(t, onHand.Quantity.Equal(decimal.NewFromInt(10)))
		assert.True(t, truck.Quantity.IsZero())

		active, err := env.resvs.FindActiveByOrder(ctx, env.tenantID, o.ID)
		require.NoError(t, err)
		require.Len(t, active, 1)
	})

	t.Run("en-route trips cannot be cancelled", func(t *testing.T) {
		env := newTripTestEnv(t)
		ctx := context.Background()
		env.seedStock(t, 10)
		o := env.confirmedOrder(t, 2)

		trip, err := env.service.CreateTrip(ctx, env.tenantID, CreateTripRequest{
			VehicleID:   env.vehicle.ID,
			DriverID:    env.driver.ID,
			WarehouseID: env.warehouse.ID,
			PlannedDate: time.Now().AddDate(0, 0, 1),
		})
		require.NoError(t, err)
		_, err = env.service.AddStop(ctx, env.tenantID, trip.ID, AddStopRequest{OrderID: o.ID})
		require.NoError(t, err)
		_, err = env.service.StartLoading(ctx, env.tenantID, trip.ID)
		require.NoError(t, err)
		_, err = env.service.Depart(ctx, env.tenantID, trip.ID)
		require.NoError(t, err)

		_, err = env.service.CancelTrip(ctx, env.tenantID, trip.ID, CancelTripRequest{Reason: "too late"})
		assert.Error(t, err)
	})
}
