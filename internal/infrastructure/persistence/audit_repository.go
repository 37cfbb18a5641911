package persistence

import (
	"context"
	"time"

	"github.com/gasflow/backend/internal/domain/audit"
	"github.com/gasflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository implements audit.Repository using GORM. This is
// the small-batch path; bulk COPY lives in PgxAuditWriter.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// InsertBatch inserts a batch of audit events
func (r *GormAuditRepository) InsertBatch(ctx context.Context, events []*audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	eventModels := make([]models.AuditEventModel, len(events))
	for i, e := range events {
		eventModels[i].FromDomain(e)
	}
	return r.db.WithContext(ctx).CreateInBatches(eventModels, 100).Error
}

// Find returns a page of audit events matching the query together with
// the total count
func (r *GormAuditRepository) Find(ctx context.Context, tenantID uuid.UUID, q audit.Query) ([]audit.Event, int64, error) {
	q.Normalize()

	var total int64
	if err := r.applyQuery(
		r.db.WithContext(ctx).Model(&models.AuditEventModel{}).Where("tenant_id = ?", tenantID),
		q,
	).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var eventModels []models.AuditEventModel
	if err := r.applyQuery(
		r.db.WithContext(ctx).Model(&models.AuditEventModel{}).Where("tenant_id = ?", tenantID),
		q,
	).
		Order("occurred_at DESC").
		Offset(q.Offset()).
		Limit(q.PageSize).
		Find(&eventModels).Error; err != nil {
		return nil, 0, err
	}

	events := make([]audit.Event, len(eventModels))
	for i, model := range eventModels {
		events[i] = model.ToDomain()
	}
	return events, total, nil
}

// FindPurgeable returns up to limit events older than the cutoff,
// oldest first
func (r *GormAuditRepository) FindPurgeable(ctx context.Context, tenantID uuid.UUID, before time.Time, limit int) ([]audit.Event, error) {
	var eventModels []models.AuditEventModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND occurred_at < ?", tenantID, before).
		Order("occurred_at ASC").
		Limit(limit).
		Find(&eventModels).Error; err != nil {
		return nil, err
	}

	events := make([]audit.Event, len(eventModels))
	for i, m := range eventModels {
		events[i] = m.ToDomain()
	}
	return events, nil
}

// DeleteByIDs removes the given events. Retention calls this only
// after the chunk has been archived.
func (r *GormAuditRepository) DeleteByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Delete(&models.AuditEventModel{}).Error
}

func (r *GormAuditRepository) applyQuery(query *gorm.DB, q audit.Query) *gorm.DB {
	if q.EntityType != "" {
		query = query.Where("entity_type = ?", q.EntityType)
	}
	if q.EntityID != "" {
		query = query.Where("entity_id = ?", q.EntityID)
	}
	if q.Action != "" {
		query = query.Where("action = ?", q.Action)
	}
	if q.Severity != "" {
		query = query.Where("severity = ?", string(q.Severity))
	}
	if q.ActorID != nil {
		query = query.Where("actor_id = ?", *q.ActorID)
	}
	if !q.From.IsZero() {
		query = query.Where("occurred_at >= ?", q.From)
	}
	if !q.To.IsZero() {
		query = query.Where("occurred_at < ?", q.To)
	}
	return query
}

// Ensure GormAuditRepository implements audit.Repository
var _ audit.Repository = (*GormAuditRepository)(nil)
