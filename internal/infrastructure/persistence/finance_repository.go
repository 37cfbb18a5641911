package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/gasflow/backend/internal/domain/finance"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/gasflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements finance.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice with its lines by ID within a tenant
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
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

// FindByNumber finds an invoice by its invoice number within a tenant
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND invoice_number = ?", tenantID, invoiceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrder finds the invoices raised against an order
func (r *GormInvoiceRepository) FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]finance.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toInvoices(invoiceModels), nil
}

// FindAll finds all invoices for a tenant matching the filter
func (r *GormInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]finance.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
			Preload("Lines").
			Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toInvoices(invoiceModels), nil
}

// Count counts invoices for a tenant matching the filter
func (r *GormInvoiceRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindOutstanding returns issued and partially paid invoices,
// optionally narrowed to one customer
func (r *GormInvoiceRepository) FindOutstanding(ctx context.Context, tenantID uuid.UUID, customerID *uuid.UUID) ([]finance.Invoice, error) {
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND status IN ?", tenantID, []string{
			string(finance.InvoiceStatusIssued),
			string(finance.InvoiceStatusPartiallyPaid),
		})
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}

	var invoiceModels []models.InvoiceModel
	if err := query.Order("due_date ASC").Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toInvoices(invoiceModels), nil
}

// Aging aggregates outstanding balances into overdue buckets as of the
// given date. Bucketing happens in SQL so the report never loads
// invoice rows into memory.
func (r *GormInvoiceRepository) Aging(ctx context.Context, tenantID uuid.UUID, asOf time.Time, customerID *uuid.UUID) ([]finance.AgingRow, error) {
	const bucketExpr = `CASE
		WHEN due_date >= ? THEN 'current'
		WHEN due_date >= ? THEN '1_30'
		WHEN due_date >= ? THEN '31_60'
		WHEN due_date >= ? THEN '61_90'
		ELSE 'over_90'
	END`

	day := asOf.Truncate(24 * time.Hour)
	args := []interface{}{
		day,
		day.AddDate(0, 0, -30),
		day.AddDate(0, 0, -60),
		day.AddDate(0, 0, -90),
	}

	query := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Select("customer_id, "+bucketExpr+" AS bucket, SUM(total_amount - paid_amount) AS amount, COUNT(*) AS count", args...).
		Where("tenant_id = ? AND status IN ?", tenantID, []string{
			string(finance.InvoiceStatusIssued),
			string(finance.InvoiceStatusPartiallyPaid),
		})
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}

	var rows []struct {
		CustomerID uuid.UUID
		Bucket     string
		Amount     string
		Count      int64
	}
	if err := query.Group("customer_id, bucket").Order("customer_id, bucket").Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]finance.AgingRow, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, err
		}
		result = append(result, finance.AgingRow{
			CustomerID: row.CustomerID,
			Bucket:     finance.AgingBucket(row.Bucket),
			Amount:     amount,
			Count:      row.Count,
		})
	}
	return result, nil
}

// Save creates or updates an invoice with its lines
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *finance.Invoice) error {
	var model models.InvoiceModel
	model.FromDomain(inv)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(&model).Error; err != nil {
			return err
		}
		return r.reconcileLines(tx, &model)
	})
}

// SaveWithLock saves an invoice with an optimistic version check
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, inv *finance.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&models.InvoiceModel{}).
			Where("tenant_id = ? AND id = ?", inv.TenantID, inv.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			return err
		}
		if currentVersion == 0 {
			return shared.ErrNotFound
		}
		if currentVersion != inv.Version {
			return shared.ErrConcurrencyConflict
		}

		inv.Version++
		var model models.InvoiceModel
		model.FromDomain(inv)

		result := tx.Model(&models.InvoiceModel{}).
			Where("id = ? AND version = ?", inv.ID, currentVersion).
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

func (r *GormInvoiceRepository) reconcileLines(tx *gorm.DB, model *models.InvoiceModel) error {
	currentIDs := make([]uuid.UUID, len(model.Lines))
	for i, l := range model.Lines {
		currentIDs[i] = l.ID
	}

	del := tx.Where("invoice_id = ?", model.ID)
	if len(currentIDs) > 0 {
		del = del.Where("id NOT IN ?", currentIDs)
	}
	if err := del.Delete(&models.InvoiceLineModel{}).Error; err != nil {
		return err
	}

	for i := range model.Lines {
		if err := tx.Save(&model.Lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("invoice_number ILIKE ?", pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "order_id":
			query = query.Where("order_id = ?", value)
		case "due_before":
			query = query.Where("due_date < ?", value)
		}
	}
	return query
}

func toInvoices(invoiceModels []models.InvoiceModel) []finance.Invoice {
	invoices := make([]finance.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices
}

// GormPaymentRepository implements finance.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by ID within a tenant
func (r *GormPaymentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	var model models.PaymentModel
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

// FindByInvoice finds the payments applied to an invoice
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]finance.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("received_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]finance.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// FindAll finds all payments for a tenant matching the filter
func (r *GormPaymentRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]finance.Payment, error) {
	var paymentModels []models.PaymentModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&paymentModels).Error; err != nil {
		return nil, err
	}

	payments := make([]finance.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// Count counts payments for a tenant matching the filter
func (r *GormPaymentRepository) Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, p *finance.Payment) error {
	var model models.PaymentModel
	model.FromDomain(p)
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, PaymentSortFields, "created_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormPaymentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("payment_number ILIKE ? OR reference ILIKE ?", pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "method":
			query = query.Where("method = ?", value)
		case "invoice_id":
			query = query.Where("invoice_id = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		}
	}
	return query
}

// Ensure repositories implement their domain interfaces
var (
	_ finance.InvoiceRepository = (*GormInvoiceRepository)(nil)
	_ finance.PaymentRepository = (*GormPaymentRepository)(nil)
)
