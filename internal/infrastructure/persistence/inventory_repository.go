package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/gasflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWarehouseRepository implements inventory.WarehouseRepository using GORM
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// FindByID finds a warehouse by ID within a tenant
func (r *GormWarehouseRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Warehouse, error) {
	var model models.WarehouseModel
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

// FindByCode finds a warehouse by its code within a tenant
func (r *GormWarehouseRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*inventory.Warehouse, error) {
	var model models.WarehouseModel
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

// FindAll finds all warehouses for a tenant matching the filter
func (r *GormWarehouseRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.Warehouse, error) {
	var warehouseModels []models.WarehouseModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.WarehouseModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&warehouseModels).Error; err != nil {
		return nil, err
	}

	warehouses := make([]inventory.Warehouse, len(warehouseModels))
	for i, model := range warehouseModels {
		warehouses[i] = *model.ToDomain()
	}
	return warehouses, nil
}

// Count counts warehouses for a tenant matching the filter
func (r *GormWarehouseRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.WarehouseModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountActive counts active warehouses for a tenant. Used by the plan
// limit check.
func (r *GormWarehouseRepository) CountActive(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.WarehouseModel{}).
		Where("tenant_id = ? AND status = ?", tenantID, string(inventory.WarehouseStatusActive)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks if a warehouse with the given code exists in the tenant
func (r *GormWarehouseRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.WarehouseModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a warehouse
func (r *GormWarehouseRepository) Save(ctx context.Context, w *inventory.Warehouse) error {
	var model models.WarehouseModel
	model.FromDomain(w)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *GormWarehouseRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, WarehouseSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormWarehouseRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	return query
}

// GormStockLevelRepository implements inventory.StockLevelRepository using GORM
type GormStockLevelRepository struct {
	db *gorm.DB
}

// NewGormStockLevelRepository creates a new GormStockLevelRepository
func NewGormStockLevelRepository(db *gorm.DB) *GormStockLevelRepository {
	return &GormStockLevelRepository{db: db}
}

// Find finds the stock level row for (warehouse, variant, bucket)
func (r *GormStockLevelRepository) Find(ctx context.Context, tenantID, warehouseID, variantID uuid.UUID, bucket inventory.Bucket) (*inventory.StockLevel, error) {
	var model models.StockLevelModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND warehouse_id = ? AND variant_id = ? AND bucket = ?",
			tenantID, warehouseID, variantID, string(bucket)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOrCreate returns the existing row or a fresh zero row. The fresh
// row is persisted on first save.
func (r *GormStockLevelRepository) FindOrCreate(ctx context.Context, tenantID, warehouseID, variantID uuid.UUID, bucket inventory.Bucket) (*inventory.StockLevel, error) {
	level, err := r.Find(ctx, tenantID, warehouseID, variantID, bucket)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return inventory.NewStockLevel(tenantID, warehouseID, variantID, bucket)
}

// List lists stock level rows matching the query
func (r *GormStockLevelRepository) List(ctx context.Context, tenantID uuid.UUID, query inventory.StockLevelQuery, filter shared.Filter) ([]inventory.StockLevel, error) {
	var levelModels []models.StockLevelModel
	q := r.applyQuery(r.db.WithContext(ctx).Model(&models.StockLevelModel{}).Where("tenant_id = ?", tenantID), query)
	if filter.Page > 0 && filter.PageSize > 0 {
		q = q.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, StockLevelSortFields, "updated_at")
	q = q.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if err := q.Find(&levelModels).Error; err != nil {
		return nil, err
	}

	levels := make([]inventory.StockLevel, len(levelModels))
	for i, model := range levelModels {
		levels[i] = *model.ToDomain()
	}
	return levels, nil
}

// CountList counts stock level rows matching the query
func (r *GormStockLevelRepository) CountList(ctx context.Context, tenantID uuid.UUID, query inventory.StockLevelQuery) (int64, error) {
	var count int64
	q := r.applyQuery(r.db.WithContext(ctx).Model(&models.StockLevelModel{}).Where("tenant_id = ?", tenantID), query)
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SaveWithLock saves a stock level with an optimistic version check.
// Rows not yet persisted are inserted.
func (r *GormStockLevelRepository) SaveWithLock(ctx context.Context, level *inventory.StockLevel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&models.StockLevelModel{}).
			Where("id = ?", level.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			return err
		}

		var model models.StockLevelModel
		if currentVersion == 0 {
			model.FromDomain(level)
			return tx.Create(&model).Error
		}
		if currentVersion != level.Version {
			return shared.ErrConcurrencyConflict
		}

		level.Version++
		model.FromDomain(level)

		result := tx.Model(&models.StockLevelModel{}).
			Where("id = ? AND version = ?", level.ID, currentVersion).
			Updates(&model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}

// HasStock reports whether any row for the warehouse carries quantity
// or reservations
func (r *GormStockLevelRepository) HasStock(ctx context.Context, tenantID, warehouseID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StockLevelModel{}).
		Where("tenant_id = ? AND warehouse_id = ? AND (quantity <> 0 OR reserved_qty <> 0)", tenantID, warehouseID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormStockLevelRepository) applyQuery(q *gorm.DB, query inventory.StockLevelQuery) *gorm.DB {
	if query.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *query.WarehouseID)
	}
	if query.VariantID != nil {
		q = q.Where("variant_id = ?", *query.VariantID)
	}
	if query.Bucket != nil {
		q = q.Where("bucket = ?", string(*query.Bucket))
	}
	if query.NonZeroOnly {
		q = q.Where("quantity <> 0 OR reserved_qty <> 0")
	}
	return q
}

// GormStockDocumentRepository implements inventory.StockDocumentRepository using GORM
type GormStockDocumentRepository struct {
	db *gorm.DB
}

// NewGormStockDocumentRepository creates a new GormStockDocumentRepository
func NewGormStockDocumentRepository(db *gorm.DB) *GormStockDocumentRepository {
	return &GormStockDocumentRepository{db: db}
}

// FindByID finds a stock document with its lines by ID
func (r *GormStockDocumentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StockDocument, error) {
	var model models.StockDocumentModel
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

// FindByNumber finds a stock document by its document number
func (r *GormStockDocumentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, docNumber string) (*inventory.StockDocument, error) {
	var model models.StockDocumentModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND doc_number = ?", tenantID, docNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all stock documents for a tenant matching the filter
func (r *GormStockDocumentRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.StockDocument, error) {
	var docModels []models.StockDocumentModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.StockDocumentModel{}).
			Preload("Lines").
			Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&docModels).Error; err != nil {
		return nil, err
	}

	docs := make([]inventory.StockDocument, len(docModels))
	for i, model := range docModels {
		docs[i] = *model.ToDomain()
	}
	return docs, nil
}

// Count counts stock documents for a tenant matching the filter
func (r *GormStockDocumentRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.StockDocumentModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a stock document with its lines
func (r *GormStockDocumentRepository) Save(ctx context.Context, d *inventory.StockDocument) error {
	var model models.StockDocumentModel
	model.FromDomain(d)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(&model).Error; err != nil {
			return err
		}
		return r.reconcileLines(tx, &model)
	})
}

// SaveWithLock saves a stock document with an optimistic version check
func (r *GormStockDocumentRepository) SaveWithLock(ctx context.Context, d *inventory.StockDocument) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&models.StockDocumentModel{}).
			Where("tenant_id = ? AND id = ?", d.TenantID, d.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			return err
		}
		if currentVersion == 0 {
			return shared.ErrNotFound
		}
		if currentVersion != d.Version {
			return shared.ErrConcurrencyConflict
		}

		d.Version++
		var model models.StockDocumentModel
		model.FromDomain(d)

		result := tx.Model(&models.StockDocumentModel{}).
			Where("id = ? AND version = ?", d.ID, currentVersion).
			Omit("Lines").
			Updates(&model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return r.reconcileLines(tx, &model)
	})
}

func (r *GormStockDocumentRepository) reconcileLines(tx *gorm.DB, model *models.StockDocumentModel) error {
	currentIDs := make([]uuid.UUID, len(model.Lines))
	for i, l := range model.Lines {
		currentIDs[i] = l.ID
	}

	del := tx.Where("document_id = ?", model.ID)
	if len(currentIDs) > 0 {
		del = del.Where("id NOT IN ?", currentIDs)
	}
	if err := del.Delete(&models.StockDocumentLineModel{}).Error; err != nil {
		return err
	}

	for i := range model.Lines {
		if err := tx.Save(&model.Lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormStockDocumentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, StockDocumentSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormStockDocumentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("doc_number ILIKE ?", pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "type":
			query = query.Where("type = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "warehouse_id":
			query = query.Where("warehouse_id = ?", value)
		case "order_id":
			query = query.Where("ref_order_id = ?", value)
		case "trip_id":
			query = query.Where("ref_trip_id = ?", value)
		}
	}
	return query
}

// GormReservationRepository implements inventory.ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindByID finds a reservation by ID within a tenant
func (r *GormReservationRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StockReservation, error) {
	var model models.StockReservationModel
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

// FindActiveByOrder finds the active reservations of an order
func (r *GormReservationRepository) FindActiveByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]inventory.StockReservation, error) {
	var reservationModels []models.StockReservationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ? AND status = ?",
			tenantID, orderID, string(inventory.ReservationStatusActive)).
		Find(&reservationModels).Error; err != nil {
		return nil, err
	}

	reservations := make([]inventory.StockReservation, len(reservationModels))
	for i, model := range reservationModels {
		reservations[i] = *model.ToDomain()
	}
	return reservations, nil
}

// FindExpired finds active reservations whose expiry has passed,
// across all tenants. Used by the expiry sweep job.
func (r *GormReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]inventory.StockReservation, error) {
	var reservationModels []models.StockReservationModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?",
			string(inventory.ReservationStatusActive), now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&reservationModels).Error; err != nil {
		return nil, err
	}

	reservations := make([]inventory.StockReservation, len(reservationModels))
	for i, model := range reservationModels {
		reservations[i] = *model.ToDomain()
	}
	return reservations, nil
}

// FindAll finds all reservations for a tenant matching the filter
func (r *GormReservationRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.StockReservation, error) {
	var reservationModels []models.StockReservationModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.StockReservationModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&reservationModels).Error; err != nil {
		return nil, err
	}

	reservations := make([]inventory.StockReservation, len(reservationModels))
	for i, model := range reservationModels {
		reservations[i] = *model.ToDomain()
	}
	return reservations, nil
}

// Count counts reservations for a tenant matching the filter
func (r *GormReservationRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.StockReservationModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a reservation
func (r *GormReservationRepository) Save(ctx context.Context, res *inventory.StockReservation) error {
	var model models.StockReservationModel
	model.FromDomain(res)
	return r.db.WithContext(ctx).Save(&model).Error
}

// SaveBatch creates or updates multiple reservations
func (r *GormReservationRepository) SaveBatch(ctx context.Context, rs []*inventory.StockReservation) error {
	if len(rs) == 0 {
		return nil
	}
	reservationModels := make([]*models.StockReservationModel, len(rs))
	for i, res := range rs {
		reservationModels[i] = &models.StockReservationModel{}
		reservationModels[i].FromDomain(res)
	}
	return r.db.WithContext(ctx).Save(reservationModels).Error
}

func (r *GormReservationRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, ReservationSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormReservationRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "order_id":
			query = query.Where("order_id = ?", value)
		case "warehouse_id":
			query = query.Where("warehouse_id = ?", value)
		case "variant_id":
			query = query.Where("variant_id = ?", value)
		}
	}
	return query
}

// GormNumberSequenceRepository implements inventory.NumberSequenceRepository
// with a row-locked increment so numbers are gapless per tenant
type GormNumberSequenceRepository struct {
	db *gorm.DB
}

// NewGormNumberSequenceRepository creates a new GormNumberSequenceRepository
func NewGormNumberSequenceRepository(db *gorm.DB) *GormNumberSequenceRepository {
	return &GormNumberSequenceRepository{db: db}
}

// Next increments and returns the counter for (tenant, kind, year)
// under a row lock
func (r *GormNumberSequenceRepository) Next(ctx context.Context, tenantID uuid.UUID, kind string, year int) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq models.NumberSequenceModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND kind = ? AND year = ?", tenantID, kind, year).
			First(&seq).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			now := time.Now().UTC()
			seq = models.NumberSequenceModel{
				ID:        uuid.New(),
				TenantID:  tenantID,
				Kind:      kind,
				Year:      year,
				LastValue: 1,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&seq).Error; err != nil {
				return err
			}
			next = 1
			return nil
		}
		if err != nil {
			return err
		}

		seq.LastValue++
		seq.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&seq).Error; err != nil {
			return err
		}
		next = seq.LastValue
		return nil
	})
	return next, err
}

// Ensure repositories implement their domain interfaces
var (
	_ inventory.WarehouseRepository      = (*GormWarehouseRepository)(nil)
	_ inventory.StockLevelRepository     = (*GormStockLevelRepository)(nil)
	_ inventory.StockDocumentRepository  = (*GormStockDocumentRepository)(nil)
	_ inventory.ReservationRepository    = (*GormReservationRepository)(nil)
	_ inventory.NumberSequenceRepository = (*GormNumberSequenceRepository)(nil)
)
