package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/logistics"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/gasflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVehicleRepository implements logistics.VehicleRepository using GORM
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// FindByID finds a vehicle by ID within a tenant
func (r *GormVehicleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*logistics.Vehicle, error) {
	var model models.VehicleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a vehicle by its code within a tenant
func (r *GormVehicleRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*logistics.Vehicle, error) {
	var model models.VehicleModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all vehicles for a tenant matching the filter
func (r *GormVehicleRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]logistics.Vehicle, error) {
	var vehicleModels []models.VehicleModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.VehicleModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&vehicleModels).Error; err != nil {
		return nil, err
	}

	vehicles := make([]logistics.Vehicle, len(vehicleModels))
	for i, model := range vehicleModels {
		vehicles[i] = *model.ToDomain()
	}
	return vehicles, nil
}

// Count counts vehicles for a tenant matching the filter
func (r *GormVehicleRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.VehicleModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a vehicle
func (r *GormVehicleRepository) Save(ctx context.Context, v *logistics.Vehicle) error {
	var model models.VehicleModel
	model.FromDomain(v)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *GormVehicleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, CommonSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormVehicleRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("code ILIKE ? OR plate_number ILIKE ?", pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	return query
}

// GormDriverRepository implements logistics.DriverRepository using GORM
type GormDriverRepository struct {
	db *gorm.DB
}

// NewGormDriverRepository creates a new GormDriverRepository
func NewGormDriverRepository(db *gorm.DB) *GormDriverRepository {
	return &GormDriverRepository{db: db}
}

// FindByID finds a driver by ID within a tenant
func (r *GormDriverRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*logistics.Driver, error) {
	var model models.DriverModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all drivers for a tenant matching the filter
func (r *GormDriverRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]logistics.Driver, error) {
	var driverModels []models.DriverModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.DriverModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&driverModels).Error; err != nil {
		return nil, err
	}

	drivers := make([]logistics.Driver, len(driverModels))
	for i, model := range driverModels {
		drivers[i] = *model.ToDomain()
	}
	return drivers, nil
}

// Count counts drivers for a tenant matching the filter
func (r *GormDriverRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.DriverModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a driver
func (r *GormDriverRepository) Save(ctx context.Context, d *logistics.Driver) error {
	var model models.DriverModel
	model.FromDomain(d)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *GormDriverRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, CommonSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormDriverRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR phone ILIKE ?", pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	return query
}

// GormTripRepository implements logistics.TripRepository using GORM
type GormTripRepository struct {
	db *gorm.DB
}

// NewGormTripRepository creates a new GormTripRepository
func NewGormTripRepository(db *gorm.DB) *GormTripRepository {
	return &GormTripRepository{db: db}
}

// FindByID finds a trip with its stops by ID within a tenant
func (r *GormTripRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*logistics.Trip, error) {
	var model models.TripModel
	if err := r.db.WithContext(ctx).
		Preload("Stops", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a trip by its trip number within a tenant
func (r *GormTripRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, tripNumber string) (*logistics.Trip, error) {
	var model models.TripModel
	if err := r.db.WithContext(ctx).
		Preload("Stops", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Where("tenant_id = ? AND trip_number = ?", tenantID, tripNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all trips for a tenant matching the filter
func (r *GormTripRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]logistics.Trip, error) {
	var tripModels []models.TripModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.TripModel{}).
			Preload("Stops", func(db *gorm.DB) *gorm.DB {
				return db.Order("sequence ASC")
			}).
			Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&tripModels).Error; err != nil {
		return nil, err
	}

	trips := make([]logistics.Trip, len(tripModels))
	for i, model := range tripModels {
		trips[i] = *model.ToDomain()
	}
	return trips, nil
}

// Count counts trips for a tenant matching the filter
func (r *GormTripRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.TripModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindActiveByVehicle returns the open trip for a vehicle, if any
func (r *GormTripRepository) FindActiveByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) (*logistics.Trip, error) {
	var model models.TripModel
	if err := r.db.WithContext(ctx).
		Preload("Stops", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Where("tenant_id = ? AND vehicle_id = ? AND status IN ?", tenantID, vehicleID, []string{
			string(logistics.TripStatusPlanning),
			string(logistics.TripStatusLoading),
			string(logistics.TripStatusEnRoute),
		}).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPlannedDate finds trips planned inside [from, to)
func (r *GormTripRepository) FindByPlannedDate(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]logistics.Trip, error) {
	var tripModels []models.TripModel
	if err := r.db.WithContext(ctx).
		Preload("Stops", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Where("tenant_id = ? AND planned_date >= ? AND planned_date < ?", tenantID, from, to).
		Order("planned_date ASC").
		Find(&tripModels).Error; err != nil {
		return nil, err
	}

	trips := make([]logistics.Trip, len(tripModels))
	for i, model := range tripModels {
		trips[i] = *model.ToDomain()
	}
	return trips, nil
}

// Save creates or updates a trip with its stops
func (r *GormTripRepository) Save(ctx context.Context, t *logistics.Trip) error {
	var model models.TripModel
	model.FromDomain(t)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Stops").Save(&model).Error; err != nil {
			return err
		}
		return r.reconcileStops(tx, &model)
	})
}

// SaveWithLock saves a trip with an optimistic version check
func (r *GormTripRepository) SaveWithLock(ctx context.Context, t *logistics.Trip) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&models.TripModel{}).
			Where("tenant_id = ? AND id = ?", t.TenantID, t.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			return err
		}
		if currentVersion == 0 {
			return shared.ErrNotFound
		}
		if currentVersion != t.Version {
			return shared.ErrConcurrencyConflict
		}

		t.Version++
		var model models.TripModel
		model.FromDomain(t)

		result := tx.Model(&models.TripModel{}).
			Where("id = ? AND version = ?", t.ID, currentVersion).
			Omit("Stops").
			Updates(&model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return r.reconcileStops(tx, &model)
	})
}

// reconcileStops deletes stop rows removed from the aggregate and
// upserts the rest
func (r *GormTripRepository) reconcileStops(tx *gorm.DB, model *models.TripModel) error {
	currentIDs := make([]uuid.UUID, len(model.Stops))
	for i, s := range model.Stops {
		currentIDs[i] = s.ID
	}

	del := tx.Where("trip_id = ?", model.ID)
	if len(currentIDs) > 0 {
		del = del.Where("id NOT IN ?", currentIDs)
	}
	if err := del.Delete(&models.TripStopModel{}).Error; err != nil {
		return err
	}

	for i := range model.Stops {
		if err := tx.Save(&model.Stops[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormTripRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, TripSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormTripRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("trip_number ILIKE ?", pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "vehicle_id":
			query = query.Where("vehicle_id = ?", value)
		case "driver_id":
			query = query.Where("driver_id = ?", value)
		case "warehouse_id":
			query = query.Where("warehouse_id = ?", value)
		}
	}
	return query
}

// GormDeliveryRepository implements logistics.DeliveryRepository using GORM
type GormDeliveryRepository struct {
	db *gorm.DB
}

// NewGormDeliveryRepository creates a new GormDeliveryRepository
func NewGormDeliveryRepository(db *gorm.DB) *GormDeliveryRepository {
	return &GormDeliveryRepository{db: db}
}

// FindByID finds a delivery with its lines by ID within a tenant
func (r *GormDeliveryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*logistics.Delivery, error) {
	var model models.DeliveryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder finds the deliveries recorded against an order
func (r *GormDeliveryRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]logistics.Delivery, error) {
	var deliveryModels []models.DeliveryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("delivered_at ASC").
		Find(&deliveryModels).Error; err != nil {
		return nil, err
	}
	return toDeliveries(deliveryModels), nil
}

// FindByTrip finds the deliveries recorded during a trip
func (r *GormDeliveryRepository) FindByTrip(ctx context.Context, tenantID, tripID uuid.UUID) ([]logistics.Delivery, error) {
	var deliveryModels []models.DeliveryModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND trip_id = ?", tenantID, tripID).
		Order("delivered_at ASC").
		Find(&deliveryModels).Error; err != nil {
		return nil, err
	}
	return toDeliveries(deliveryModels), nil
}

// FindAll finds all deliveries for a tenant matching the filter
func (r *GormDeliveryRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]logistics.Delivery, error) {
	var deliveryModels []models.DeliveryModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.DeliveryModel{}).
			Preload("Lines").
			Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&deliveryModels).Error; err != nil {
		return nil, err
	}
	return toDeliveries(deliveryModels), nil
}

// Count counts deliveries for a tenant matching the filter
func (r *GormDeliveryRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.DeliveryModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a delivery with its lines
func (r *GormDeliveryRepository) Save(ctx context.Context, d *logistics.Delivery) error {
	var model models.DeliveryModel
	model.FromDomain(d)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(&model).Error; err != nil {
			return err
		}

		currentIDs := make([]uuid.UUID, len(model.Lines))
		for i, l := range model.Lines {
			currentIDs[i] = l.ID
		}
		del := tx.Where("delivery_id = ?", model.ID)
		if len(currentIDs) > 0 {
			del = del.Where("id NOT IN ?", currentIDs)
		}
		if err := del.Delete(&models.DeliveryLineModel{}).Error; err != nil {
			return err
		}

		for i := range model.Lines {
			if err := tx.Save(&model.Lines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormDeliveryRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, DeliverySortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormDeliveryRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("delivery_number ILIKE ?", pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "trip_id":
			query = query.Where("trip_id = ?", value)
		case "order_id":
			query = query.Where("order_id = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		}
	}
	return query
}

func toDeliveries(deliveryModels []models.DeliveryModel) []logistics.Delivery {
	deliveries := make([]logistics.Delivery, len(deliveryModels))
	for i, model := range deliveryModels {
		deliveries[i] = *model.ToDomain()
	}
	return deliveries
}

// Ensure repositories implement their domain interfaces
var (
	_ logistics.VehicleRepository  = (*GormVehicleRepository)(nil)
	_ logistics.DriverRepository   = (*GormDriverRepository)(nil)
	_ logistics.TripRepository     = (*GormTripRepository)(nil)
	_ logistics.DeliveryRepository = (*GormDeliveryRepository)(nil)
)
