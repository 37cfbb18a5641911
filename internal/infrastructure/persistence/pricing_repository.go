package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/gasflow/backend/internal/domain/pricing"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/gasflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPriceListRepository implements pricing.Repository using GORM
type GormPriceListRepository struct {
	db *gorm.DB
}

// NewGormPriceListRepository creates a new GormPriceListRepository
func NewGormPriceListRepository(db *gorm.DB) *GormPriceListRepository {
	return &GormPriceListRepository{db: db}
}

// FindByID finds a price list with its items by ID within a tenant
func (r *GormPriceListRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*pricing.PriceList, error) {
	var model models.PriceListModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a price list by its code within a tenant
func (r *GormPriceListRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*pricing.PriceList, error) {
	var model models.PriceListModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindDefault finds the tenant's default price list
func (r *GormPriceListRepository) FindDefault(ctx context.Context, tenantID uuid.UUID) (*pricing.PriceList, error) {
	var model models.PriceListModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND is_default = ? AND status = ?", tenantID, true, string(pricing.StatusActive)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all price lists for a tenant matching the filter
func (r *GormPriceListRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]pricing.PriceList, error) {
	var listModels []models.PriceListModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.PriceListModel{}).
			Preload("Items").
			Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&listModels).Error; err != nil {
		return nil, err
	}

	lists := make([]pricing.PriceList, len(listModels))
	for i, model := range listModels {
		lists[i] = *model.ToDomain()
	}
	return lists, nil
}

// Count counts price lists for a tenant matching the filter
func (r *GormPriceListRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.PriceListModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks if a price list with the given code exists in the tenant
func (r *GormPriceListRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PriceListModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a price list with its items
func (r *GormPriceListRepository) Save(ctx context.Context, p *pricing.PriceList) error {
	var model models.PriceListModel
	model.FromDomain(p)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(&model).Error; err != nil {
			return err
		}
		return r.reconcileItems(tx, &model)
	})
}

// ClearDefault unsets the default flag on every list of the tenant
func (r *GormPriceListRepository) ClearDefault(ctx context.Context, tenantID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PriceListModel{}).
		Where("tenant_id = ? AND is_default = ?", tenantID, true).
		Update("is_default", false).Error
}

func (r *GormPriceListRepository) reconcileItems(tx *gorm.DB, model *models.PriceListModel) error {
	currentIDs := make([]uuid.UUID, len(model.Items))
	for i, it := range model.Items {
		currentIDs[i] = it.ID
	}

	del := tx.Where("price_list_id = ?", model.ID)
	if len(currentIDs) > 0 {
		del = del.Where("id NOT IN ?", currentIDs)
	}
	if err := del.Delete(&models.PriceListItemModel{}).Error; err != nil {
		return err
	}

	for i := range model.Items {
		if err := tx.Save(&model.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormPriceListRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, PriceListSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormPriceListRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "currency":
			query = query.Where("currency = ?", value)
		case "is_default":
			query = query.Where("is_default = ?", value)
		}
	}
	return query
}

// Ensure GormPriceListRepository implements pricing.Repository
var _ pricing.Repository = (*GormPriceListRepository)(nil)
