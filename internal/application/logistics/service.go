// Package logistics implements fleet management and the trip
// lifecycle: planning stops, loading truck stock, recording
// deliveries at the door and settling what comes back.
package logistics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	inventoryapp "github.com/gasflow/backend/internal/application/inventory"
	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/gasflow/backend/internal/domain/logistics"
	"github.com/gasflow/backend/internal/domain/order"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service implements fleet and trip use cases
type Service struct {
	vehicles   logistics.VehicleRepository
	drivers    logistics.DriverRepository
	trips      logistics.TripRepository
	deliveries logistics.DeliveryRepository
	orders     order.Repository
	warehouses inventory.WarehouseRepository
	scope      TransactionScope
	publisher  shared.EventPublisher
	logger     *zap.Logger
}

// NewService creates a new logistics service
func NewService(
	vehicles logistics.VehicleRepository,
	drivers logistics.DriverRepository,
	trips logistics.TripRepository,
	deliveries logistics.DeliveryRepository,
	orders order.Repository,
	warehouses inventory.WarehouseRepository,
	scope TransactionScope,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		vehicles:   vehicles,
		drivers:    drivers,
		trips:      trips,
		deliveries: deliveries,
		orders:     orders,
		warehouses: warehouses,
		scope:      scope,
		publisher:  publisher,
		logger:     logger,
	}
}

// CreateVehicle registers a delivery truck
func (s *Service) CreateVehicle(ctx context.Context, tenantID uuid.UUID, req CreateVehicleRequest) (*VehicleResponse, error) {
	if _, err := s.vehicles.FindByCode(ctx, tenantID, req.Code); err == nil {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Vehicle with code %s already exists", req.Code)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	v, err := logistics.NewVehicle(tenantID, req.Code, req.PlateNumber)
	if err != nil {
		return nil, err
	}
	if req.CapacityKg != nil {
		if err := v.SetCapacity(*req.CapacityKg); err != nil {
			return nil, err
		}
	}
	if err := s.vehicles.Save(ctx, v); err != nil {
		return nil, err
	}
	return ToVehicleResponse(v), nil
}

// UpdateVehicle changes the mutable vehicle fields
func (s *Service) UpdateVehicle(ctx context.Context, tenantID, id uuid.UUID, req UpdateVehicleRequest) (*VehicleResponse, error) {
	v, err := s.vehicles.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.CapacityKg != nil {
		if err := v.SetCapacity(*req.CapacityKg); err != nil {
			return nil, err
		}
	}
	if err := s.vehicles.Save(ctx, v); err != nil {
		return nil, err
	}
	return ToVehicleResponse(v), nil
}

// DeactivateVehicle retires a vehicle. A vehicle with an open trip
// cannot be retired.
func (s *Service) DeactivateVehicle(ctx context.Context, tenantID, id uuid.UUID) (*VehicleResponse, error) {
	v, err := s.vehicles.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	active, err := s.trips.FindActiveByVehicle(ctx, tenantID, id)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if active != nil {
		return nil, shared.NewDomainErrorf("INVALID_STATE", "Vehicle is on trip %s", active.TripNumber)
	}
	if err := v.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.vehicles.Save(ctx, v); err != nil {
		return nil, err
	}
	return ToVehicleResponse(v), nil
}

// GetVehicle returns a vehicle by ID
func (s *Service) GetVehicle(ctx context.Context, tenantID, id uuid.UUID) (*VehicleResponse, error) {
	v, err := s.vehicles.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToVehicleResponse(v), nil
}

// ListVehicles returns a page of vehicles
func (s *Service) ListVehicles(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[VehicleResponse], error) {
	filter.Normalize()
	vehicles, err := s.vehicles.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	total, err := s.vehicles.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count vehicles: %w", err)
	}
	items := make([]VehicleResponse, len(vehicles))
	for i := range vehicles {
		items[i] = *ToVehicleResponse(&vehicles[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// CreateDriver registers a driver
func (s *Service) CreateDriver(ctx context.Context, tenantID uuid.UUID, req CreateDriverRequest) (*DriverResponse, error) {
	d, err := logistics.NewDriver(tenantID, req.Name, req.Phone, req.LicenseNumber)
	if err != nil {
		return nil, err
	}
	if err := s.drivers.Save(ctx, d); err != nil {
		return nil, err
	}
	return ToDriverResponse(d), nil
}

// DeactivateDriver retires a driver
func (s *Service) DeactivateDriver(ctx context.Context, tenantID, id uuid.UUID) (*DriverResponse, error) {
	d, err := s.drivers.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := d.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.drivers.Save(ctx, d); err != nil {
		return nil, err
	}
	return ToDriverResponse(d), nil
}

// GetDriver returns a driver by ID
func (s *Service) GetDriver(ctx context.Context, tenantID, id uuid.UUID) (*DriverResponse, error) {
	d, err := s.drivers.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToDriverResponse(d), nil
}

// ListDrivers returns a page of drivers
func (s *Service) ListDrivers(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[DriverResponse], error) {
	filter.Normalize()
	drivers, err := s.drivers.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	total, err := s.drivers.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count drivers: %w", err)
	}
	items := make([]DriverResponse, len(drivers))
	for i := range drivers {
		items[i] = *ToDriverResponse(&drivers[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// CreateTrip plans a trip for a vehicle, driver and origin warehouse.
// A vehicle runs at most one open trip at a time.
func (s *Service) CreateTrip(ctx context.Context, tenantID uuid.UUID, req CreateTripRequest) (*TripResponse, error) {
	vehicle, err := s.vehicles.FindByID(ctx, tenantID, req.VehicleID)
	if err != nil {
		return nil, err
	}
	if !vehicle.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Vehicle is not active")
	}
	driver, err := s.drivers.FindByID(ctx, tenantID, req.DriverID)
	if err != nil {
		return nil, err
	}
	if !driver.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Driver is not active")
	}
	warehouse, err := s.warehouses.FindByID(ctx, tenantID, req.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !warehouse.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Warehouse is not active")
	}
	open, err := s.trips.FindActiveByVehicle(ctx, tenantID, req.VehicleID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if open != nil {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Vehicle is already on trip %s", open.TripNumber)
	}

	var trip *logistics.Trip
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := inventoryapp.NextDocNumber(ctx, repos.Sequences(), tenantID, inventoryapp.NumberKindTrip, time.Now())
		if err != nil {
			return err
		}
		trip, err = logistics.NewTrip(tenantID, number, req.VehicleID, req.DriverID, req.WarehouseID, req.PlannedDate)
		if err != nil {
			return err
		}
		trip.Notes = req.Notes
		return repos.Trips().Save(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, trip)

	s.logger.Info("trip created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("trip_number", trip.TripNumber),
		zap.String("vehicle_code", vehicle.Code),
	)
	return ToTripResponse(trip), nil
}

// AddStop schedules a confirmed order as the trip's next stop
func (s *Service) AddStop(ctx context.Context, tenantID, tripID uuid.UUID, req AddStopRequest) (*TripResponse, error) {
	var trip *logistics.Trip
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		trip, err = repos.Trips().FindByID(ctx, tenantID, tripID)
		if err != nil {
			return err
		}
		o, err := repos.Orders().FindByID(ctx, tenantID, req.OrderID)
		if err != nil {
			return err
		}
		if o.WarehouseID != trip.WarehouseID {
			return shared.NewDomainError("INVALID_WAREHOUSE", "Order must be fulfilled from the trip's warehouse")
		}
		if err := o.Schedule(trip.ID); err != nil {
			return err
		}
		if _, err := trip.AddStop(o.ID); err != nil {
			return err
		}
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}
		return repos.Trips().SaveWithLock(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	return ToTripResponse(trip), nil
}

// RemoveStop drops a stop from a planning trip and returns the order
// to confirmed
func (s *Service) RemoveStop(ctx context.Context, tenantID, tripID, stopID uuid.UUID) (*TripResponse, error) {
	var trip *logistics.Trip
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		trip, err = repos.Trips().FindByID(ctx, tenantID, tripID)
		if err != nil {
			return err
		}
		removed, err := trip.RemoveStop(stopID)
		if err != nil {
			return err
		}
		o, err := repos.Orders().FindByID(ctx, tenantID, removed.OrderID)
		if err != nil {
			return err
		}
		if err := o.Unschedule(); err != nil {
			return err
		}
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}
		return repos.Trips().SaveWithLock(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	return ToTripResponse(trip), nil
}

// ReorderStops replaces the visit sequence of a planning trip
func (s *Service) ReorderStops(ctx context.Context, tenantID, tripID uuid.UUID, req ReorderStopsRequest) (*TripResponse, error) {
	trip, err := s.trips.FindByID(ctx, tenantID, tripID)
	if err != nil {
		return nil, err
	}
	if err := trip.ReorderStops(req.StopIDs); err != nil {
		return nil, err
	}
	if err := s.trips.SaveWithLock(ctx, trip); err != nil {
		return nil, err
	}
	return ToTripResponse(trip), nil
}

// StartLoading posts the truck-stock LOAD document aggregating the
// stock-tracked demand of every scheduled order and consumes their
// reservations
func (s *Service) StartLoading(ctx context.Context, tenantID, tripID uuid.UUID) (*TripResponse, error) {
	var trip *logistics.Trip
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		trip, err = repos.Trips().FindByID(ctx, tenantID, tripID)
		if err != nil {
			return err
		}
		if err := trip.StartLoading(); err != nil {
			return err
		}
		orders, err := repos.Orders().FindByIDs(ctx, tenantID, trip.OrderIDs())
		if err != nil {
			return err
		}

		demand := make(map[uuid.UUID]decimal.Decimal)
		for i := range orders {
			for variantID, qty := range orders[i].StockDemand() {
				demand[variantID] = demand[variantID].Add(qty)
			}
		}
		if len(demand) > 0 {
			// Consume the reservations first so the load's removal
			// fits in the freed-up available quantity.
			for i := range orders {
				if err := inventoryapp.ConsumeOrderReservations(ctx, repos.StockLevels(), repos.Reservations(), tenantID, orders[i].ID); err != nil {
					return err
				}
			}
			lines := demandLines(demand, nil, nil)
			ref := inventory.DocumentRef{TripID: &trip.ID}
			doc, err := postTripDocument(ctx, repos, tenantID, inventory.DocTypeLoad, trip.WarehouseID, ref, fmt.Sprintf("Load for trip %s", trip.TripNumber), lines)
			if err != nil {
				return err
			}
			trip.AttachLoadDocument(doc.ID)
		}
		return repos.Trips().SaveWithLock(ctx, trip)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("trip loading",
		zap.String("tenant_id", tenantID.String()),
		zap.String("trip_number", trip.TripNumber),
		zap.Int("stops", len(trip.Stops)),
	)
	return ToTripResponse(trip), nil
}

// Depart moves the trip en route and dispatches its orders
func (s *Service) Depart(ctx context.Context, tenantID, tripID uuid.UUID) (*TripResponse, error) {
	var trip *logistics.Trip
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		trip, err = repos.Trips().FindByID(ctx, tenantID, tripID)
		if err != nil {
			return err
		}
		if err := trip.Depart(); err != nil {
			return err
		}
		orders, err := repos.Orders().FindByIDs(ctx, tenantID, trip.OrderIDs())
		if err != nil {
			return err
		}
		for i := range orders {
			if err := orders[i].MarkEnRoute(); err != nil {
				return err
			}
			if err := repos.Orders().SaveWithLock(ctx, &orders[i]); err != nil {
				return err
			}
		}
		return repos.Trips().SaveWithLock(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, trip)

	s.logger.Info("trip departed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("trip_number", trip.TripNumber),
	)
	return ToTripResponse(trip), nil
}

// RecordDelivery records the proof of delivery for one stop: it issues
// the delivered quantities from truck stock, books collected empties
// into quarantine and marks the order delivered
func (s *Service) RecordDelivery(ctx context.Context, tenantID, tripID, stopID uuid.UUID, req RecordDeliveryRequest) (*DeliveryResponse, error) {
	var (
		trip *logistics.Trip
		d    *logistics.Delivery
		o    *order.Order
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		trip, err = repos.Trips().FindByID(ctx, tenantID, tripID)
		if err != nil {
			return err
		}
		stop := findStop(trip, stopID)
		if stop == nil {
			return shared.NewDomainError("NOT_FOUND", "Stop not found on this trip")
		}
		o, err = repos.Orders().FindByID(ctx, tenantID, stop.OrderID)
		if err != nil {
			return err
		}

		inputs := make([]logistics.DeliveryLineInput, 0, len(req.Lines))
		for _, l := range req.Lines {
			line := o.GetLine(l.OrderLineID)
			if line == nil {
				return shared.NewDomainError("LINE_NOT_FOUND", "Order line not found")
			}
			empties := decimal.Zero
			if l.EmptiesCollected != nil {
				empties = *l.EmptiesCollected
			}
			inputs = append(inputs, logistics.DeliveryLineInput{
				OrderLineID:      line.ID,
				VariantID:        line.VariantID,
				SKU:              line.SKU,
				OrderedQty:       line.Quantity,
				DeliveredQty:     l.DeliveredQty,
				EmptiesCollected: empties,
				TrackStock:       tracksStock(line.Kind),
				IsAsset:          line.Kind == catalog.KindAsset,
			})
		}

		number, err := inventoryapp.NextDocNumber(ctx, repos.Sequences(), tenantID, inventoryapp.NumberKindDelivery, time.Now())
		if err != nil {
			return err
		}
		d, err = logistics.NewDelivery(tenantID, number, trip.ID, stop.ID, o.ID, o.CustomerID, req.ReceivedBy, inputs)
		if err != nil {
			return err
		}
		if req.Notes != "" {
			d.Notes = req.Notes
		}

		if issued := d.StockIssued(); len(issued) > 0 {
			truckStock := inventory.BucketTruckStock
			lines := demandLines(issued, &truckStock, nil)
			ref := inventory.DocumentRef{TripID: &trip.ID, OrderID: &o.ID}
			if _, err := postTripDocument(ctx, repos, tenantID, inventory.DocTypeIssue, trip.WarehouseID, ref, fmt.Sprintf("Delivery %s", d.DeliveryNumber), lines); err != nil {
				return err
			}
		}
		if empties := d.EmptiesCollected(); len(empties) > 0 {
			quarantine := inventory.BucketQuarantine
			lines := demandLines(empties, nil, &quarantine)
			ref := inventory.DocumentRef{TripID: &trip.ID, OrderID: &o.ID}
			if _, err := postTripDocument(ctx, repos, tenantID, inventory.DocTypeReceipt, trip.WarehouseID, ref, fmt.Sprintf("Empties collected on %s", d.DeliveryNumber), lines); err != nil {
				return err
			}
		}

		if err := repos.Deliveries().Save(ctx, d); err != nil {
			return err
		}
		if err := o.MarkDelivered(); err != nil {
			return err
		}
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}
		if err := trip.RecordStopDelivered(stop.ID, d.ID); err != nil {
			return err
		}
		return repos.Trips().SaveWithLock(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, d, o)

	s.logger.Info("delivery recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("trip_number", trip.TripNumber),
		zap.String("delivery_number", d.DeliveryNumber),
		zap.Bool("short", d.IsShort()),
	)
	return ToDeliveryResponse(d), nil
}

// FailStop marks a stop failed and returns its order to confirmed.
// The order's reservation is re-created when available stock allows.
func (s *Service) FailStop(ctx context.Context, tenantID, tripID, stopID uuid.UUID, req StopReasonRequest) (*TripResponse, error) {
	return s.closeStop(ctx, tenantID, tripID, stopID, req.Reason, false)
}

// SkipStop marks a stop skipped and returns its order to confirmed
func (s *Service) SkipStop(ctx context.Context, tenantID, tripID, stopID uuid.UUID, req StopReasonRequest) (*TripResponse, error) {
	return s.closeStop(ctx, tenantID, tripID, stopID, req.Reason, true)
}

func (s *Service) closeStop(ctx context.Context, tenantID, tripID, stopID uuid.UUID, reason string, skip bool) (*TripResponse, error) {
	var trip *logistics.Trip
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		trip, err = repos.Trips().FindByID(ctx, tenantID, tripID)
		if err != nil {
			return err
		}
		stop := findStop(trip, stopID)
		if stop == nil {
			return shared.NewDomainError("NOT_FOUND", "Stop not found on this trip")
		}
		if skip {
			err = trip.SkipStop(stopID, reason)
		} else {
			err = trip.FailStop(stopID, reason)
		}
		if err != nil {
			return err
		}
		o, err := repos.Orders().FindByID(ctx, tenantID, stop.OrderID)
		if err != nil {
			return err
		}
		if err := o.MarkUndelivered(); err != nil {
			return err
		}
		if err := s.reReserve(ctx, repos, o); err != nil {
			return err
		}
		if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
			return err
		}
		return repos.Trips().SaveWithLock(ctx, trip)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stop closed without delivery",
		zap.String("tenant_id", tenantID.String()),
		zap.String("trip_number", trip.TripNumber),
		zap.String("order_id", tripStopOrder(trip, stopID).String()),
		zap.Bool("skipped", skip),
		zap.String("reason", reason),
	)
	return ToTripResponse(trip), nil
}

// Complete closes the trip once every stop is resolved and posts the
// UNLOAD document returning the undelivered remainder to on-hand
func (s *Service) Complete(ctx context.Context, tenantID, tripID uuid.UUID) (*TripResponse, error) {
	var trip *logistics.Trip
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		trip, err = repos.Trips().FindByID(ctx, tenantID, tripID)
		if err != nil {
			return err
		}
		if err := trip.Complete(); err != nil {
			return err
		}
		if err := s.unloadRemainder(ctx, repos, trip); err != nil {
			return err
		}
		return repos.Trips().SaveWithLock(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, trip)

	s.logger.Info("trip completed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("trip_number", trip.TripNumber),
	)
	return ToTripResponse(trip), nil
}

// CancelTrip aborts a trip before departure. A loaded truck unloads
// back to on-hand; scheduled orders return to confirmed and their
// reservations are re-created when stock allows.
func (s *Service) CancelTrip(ctx context.Context, tenantID, tripID uuid.UUID, req CancelTripRequest) (*TripResponse, error) {
	var trip *logistics.Trip
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		trip, err = repos.Trips().FindByID(ctx, tenantID, tripID)
		if err != nil {
			return err
		}
		wasLoading := trip.Status == logistics.TripStatusLoading
		if err := trip.Cancel(req.Reason); err != nil {
			return err
		}
		if wasLoading {
			if err := s.unloadRemainder(ctx, repos, trip); err != nil {
				return err
			}
		}
		orders, err := repos.Orders().FindByIDs(ctx, tenantID, trip.OrderIDs())
		if err != nil {
			return err
		}
		for i := range orders {
			o := &orders[i]
			if o.Status != order.StatusScheduled {
				continue
			}
			if err := o.Unschedule(); err != nil {
				return err
			}
			// Reservations were consumed by the load; re-earmark out
			// of the unloaded stock.
			if wasLoading {
				if err := s.reReserve(ctx, repos, o); err != nil {
					return err
				}
			}
			if err := repos.Orders().SaveWithLock(ctx, o); err != nil {
				return err
			}
		}
		return repos.Trips().SaveWithLock(ctx, trip)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, trip)

	s.logger.Info("trip cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("trip_number", trip.TripNumber),
		zap.String("reason", req.Reason),
	)
	return ToTripResponse(trip), nil
}

// GetTrip returns a trip with its stops
func (s *Service) GetTrip(ctx context.Context, tenantID, id uuid.UUID) (*TripResponse, error) {
	trip, err := s.trips.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToTripResponse(trip), nil
}

// ListTrips returns a page of trips
func (s *Service) ListTrips(ctx context.Context, tenantID uuid.UUID, filter TripListFilter) (*shared.Paginated[TripResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  map[string]interface{}{},
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.VehicleID != "" {
		f.Filters["vehicle_id"] = filter.VehicleID
	}
	if filter.DriverID != "" {
		f.Filters["driver_id"] = filter.DriverID
	}
	if filter.DateFrom != "" {
		f.Filters["date_from"] = filter.DateFrom
	}
	if filter.DateTo != "" {
		f.Filters["date_to"] = filter.DateTo
	}
	f.Normalize()

	trips, err := s.trips.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	total, err := s.trips.Count(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count trips: %w", err)
	}
	items := make([]TripResponse, len(trips))
	for i := range trips {
		items[i] = *ToTripResponse(&trips[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// GetDelivery returns a delivery by ID
func (s *Service) GetDelivery(ctx context.Context, tenantID, id uuid.UUID) (*DeliveryResponse, error) {
	d, err := s.deliveries.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToDeliveryResponse(d), nil
}

// ListDeliveries returns a page of deliveries
func (s *Service) ListDeliveries(ctx context.Context, tenantID uuid.UUID, filter DeliveryListFilter) (*shared.Paginated[DeliveryResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Filters:  map[string]interface{}{},
	}
	if filter.TripID != "" {
		f.Filters["trip_id"] = filter.TripID
	}
	if filter.OrderID != "" {
		f.Filters["order_id"] = filter.OrderID
	}
	f.Normalize()

	deliveries, err := s.deliveries.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	total, err := s.deliveries.Count(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count deliveries: %w", err)
	}
	items := make([]DeliveryResponse, len(deliveries))
	for i := range deliveries {
		items[i] = *ToDeliveryResponse(&deliveries[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// unloadRemainder posts the UNLOAD document for whatever the trip
// loaded but did not deliver: loaded quantities minus the quantities
// issued by the trip's deliveries, back into on-hand
func (s *Service) unloadRemainder(ctx context.Context, repos TransactionalRepositories, trip *logistics.Trip) error {
	if trip.LoadDocID == nil {
		return nil
	}
	loadDoc, err := repos.StockDocuments().FindByID(ctx, trip.TenantID, *trip.LoadDocID)
	if err != nil {
		return err
	}
	remaining := make(map[uuid.UUID]decimal.Decimal)
	for _, l := range loadDoc.Lines {
		remaining[l.VariantID] = remaining[l.VariantID].Add(l.Quantity)
	}
	deliveries, err := repos.Deliveries().FindByTrip(ctx, trip.TenantID, trip.ID)
	if err != nil {
		return err
	}
	for i := range deliveries {
		for variantID, qty := range deliveries[i].StockIssued() {
			remaining[variantID] = remaining[variantID].Sub(qty)
		}
	}
	for variantID, qty := range remaining {
		if !qty.IsPositive() {
			delete(remaining, variantID)
		}
	}
	if len(remaining) == 0 {
		return nil
	}

	onHand := inventory.BucketOnHand
	lines := demandLines(remaining, nil, &onHand)
	ref := inventory.DocumentRef{TripID: &trip.ID}
	doc, err := postTripDocument(ctx, repos, trip.TenantID, inventory.DocTypeUnload, trip.WarehouseID, ref, fmt.Sprintf("Unload for trip %s", trip.TripNumber), lines)
	if err != nil {
		return err
	}
	trip.AttachUnloadDocument(doc.ID)
	return nil
}

// reReserve re-creates an order's stock reservation when the available
// on-hand stock covers every demand. A shortfall is logged and the
// order stays confirmed without an earmark.
func (s *Service) reReserve(ctx context.Context, repos TransactionalRepositories, o *order.Order) error {
	demands := make([]inventoryapp.StockDemand, 0)
	for variantID, qty := range o.StockDemand() {
		demands = append(demands, inventoryapp.StockDemand{VariantID: variantID, Quantity: qty})
	}
	for _, d := range demands {
		lvl, err := repos.StockLevels().FindOrCreate(ctx, o.TenantID, o.WarehouseID, d.VariantID, inventory.BucketOnHand)
		if err != nil {
			return err
		}
		if lvl.Available().LessThan(d.Quantity) {
			s.logger.Warn("stock no longer covers order, reservation not re-created",
				zap.String("tenant_id", o.TenantID.String()),
				zap.String("order_number", o.OrderNumber),
				zap.String("variant_id", d.VariantID.String()),
			)
			return nil
		}
	}
	return inventoryapp.ReserveForOrder(ctx, repos.StockLevels(), repos.Reservations(), o.TenantID, o.ID, o.WarehouseID, demands, nil)
}

// postTripDocument builds, posts and saves one stock document inside
// the current transaction
func postTripDocument(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, docType inventory.DocumentType, warehouseID uuid.UUID, ref inventory.DocumentRef, reason string, lines []inventory.StockDocumentLine) (*inventory.StockDocument, error) {
	number, err := inventoryapp.NextDocNumber(ctx, repos.Sequences(), tenantID, inventoryapp.NumberKindStockDoc, time.Now())
	if err != nil {
		return nil, err
	}
	doc, err := inventory.NewStockDocument(tenantID, number, docType, warehouseID)
	if err != nil {
		return nil, err
	}
	doc.SetRef(ref)
	doc.SetReason(reason)
	for _, line := range lines {
		if err := doc.AddLine(line); err != nil {
			return nil, err
		}
	}
	if err := doc.MarkPosted(); err != nil {
		return nil, err
	}
	if err := inventoryapp.ApplyDocument(ctx, repos.StockLevels(), doc); err != nil {
		return nil, err
	}
	if err := repos.StockDocuments().Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// demandLines converts a per-variant quantity map into document lines
// in a stable variant order
func demandLines(demand map[uuid.UUID]decimal.Decimal, fromBucket, toBucket *inventory.Bucket) []inventory.StockDocumentLine {
	ids := make([]uuid.UUID, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	lines := make([]inventory.StockDocumentLine, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, inventory.StockDocumentLine{
			VariantID:  id,
			Quantity:   demand[id],
			FromBucket: fromBucket,
			ToBucket:   toBucket,
		})
	}
	return lines
}

func tracksStock(kind catalog.VariantKind) bool {
	return kind == catalog.KindAsset || kind == catalog.KindConsumable
}

func findStop(t *logistics.Trip, stopID uuid.UUID) *logistics.TripStop {
	for i := range t.Stops {
		if t.Stops[i].ID == stopID {
			return &t.Stops[i]
		}
	}
	return nil
}

func tripStopOrder(t *logistics.Trip, stopID uuid.UUID) uuid.UUID {
	if stop := findStop(t, stopID); stop != nil {
		return stop.OrderID
	}
	return uuid.Nil
}

type eventCarrier interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

func (s *Service) publishEvents(ctx context.Context, carriers ...eventCarrier) {
	for _, c := range carriers {
		events := c.GetDomainEvents()
		if len(events) == 0 {
			continue
		}
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish logistics events", zap.Error(err))
		}
		c.ClearDomainEvents()
	}
}
