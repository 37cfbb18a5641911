package audit

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gasflow/backend/internal/domain/audit"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/gasflow/backend/internal/domain/tenant"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStorage is the archive sink for purged audit chunks
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// purgeChunkSize bounds one delete round trip
const purgeChunkSize = 5000

// RetentionService purges audit events past their tenant's retention
// window, archiving each chunk to object storage as gzip JSONL first
type RetentionService struct {
	repo          audit.Repository
	tenants       tenant.Repository
	subscriptions tenant.SubscriptionRepository
	plans         tenant.PlanRepository
	storage       ObjectStorage
	defaultDays   int
	logger        *zap.Logger
}

// NewRetentionService creates a new retention service
func NewRetentionService(
	repo audit.Repository,
	tenants tenant.Repository,
	subscriptions tenant.SubscriptionRepository,
	plans tenant.PlanRepository,
	storage ObjectStorage,
	defaultDays int,
	logger *zap.Logger,
) *RetentionService {
	return &RetentionService{
		repo:          repo,
		tenants:       tenants,
		subscriptions: subscriptions,
		plans:         plans,
		storage:       storage,
		defaultDays:   defaultDays,
		logger:        logger,
	}
}

// Run purges all tenants once. Per-tenant failures are logged and do
// not stop the sweep.
func (s *RetentionService) Run(ctx context.Context) error {
	tenants, err := s.tenants.FindAll(ctx, shared.Filter{})
	if err != nil {
		return fmt.Errorf("failed to list tenants for retention: %w", err)
	}

	for i := range tenants {
		if err := s.purgeTenant(ctx, &tenants[i]); err != nil {
			s.logger.Error("audit retention failed for tenant",
				zap.String("tenant_id", tenants[i].ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *RetentionService) purgeTenant(ctx context.Context, t *tenant.Tenant) error {
	days := s.retentionDays(ctx, t.ID)
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	for {
		expired, err := s.repo.FindPurgeable(ctx, t.ID, cutoff, purgeChunkSize)
		if err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}

		// archive before delete so a storage outage leaves the rows in
		// place for the next sweep
		if err := s.archive(ctx, t.ID, expired); err != nil {
			return fmt.Errorf("failed to archive audit chunk: %w", err)
		}

		ids := make([]uuid.UUID, len(expired))
		for i := range expired {
			ids[i] = expired[i].ID
		}
		if err := s.repo.DeleteByIDs(ctx, t.ID, ids); err != nil {
			return err
		}

		s.logger.Info("purged audit chunk",
			zap.String("tenant_id", t.ID.String()),
			zap.Int("events", len(expired)),
			zap.Time("cutoff", cutoff),
		)

		if len(expired) < purgeChunkSize {
			return nil
		}
	}
}

// retentionDays resolves the tenant's plan retention, falling back to
// the configured default when no subscription exists
func (s *RetentionService) retentionDays(ctx context.Context, tenantID uuid.UUID) int {
	sub, err := s.subscriptions.FindByTenant(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("failed to resolve subscription for retention",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
		return s.defaultDays
	}

	plan, err := s.plans.FindByID(ctx, sub.PlanID)
	if err != nil {
		return s.defaultDays
	}
	if plan.AuditRetentionDays <= 0 {
		return s.defaultDays
	}
	return plan.AuditRetentionDays
}

// archive writes one purged chunk as gzip JSONL
func (s *RetentionService) archive(ctx context.Context, tenantID uuid.UUID, events []audit.Event) error {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	for i := range events {
		if err := enc.Encode(&events[i]); err != nil {
			return fmt.Errorf("failed to encode audit event: %w", err)
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}

	key := fmt.Sprintf("audit-archive/%s/%s/%s.jsonl.gz",
		tenantID, time.Now().UTC().Format("2006-01-02"), uuid.New())
	return s.storage.Put(ctx, key, buf.Bytes(), "application/gzip")
}
