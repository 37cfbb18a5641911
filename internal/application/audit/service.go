package audit

import (
	"context"
	"errors"
	"time"

	"github.com/gasflow/backend/internal/domain/audit"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/gasflow/backend/internal/domain/tenant"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles audit ingest and queries
type Service struct {
	writer *Writer
	repo   audit.Repository
	usage  tenant.UsageRepository
	logger *zap.Logger
}

// NewService creates a new audit service
func NewService(writer *Writer, repo audit.Repository, usage tenant.UsageRepository, logger *zap.Logger) *Service {
	return &Service{
		writer: writer,
		repo:   repo,
		usage:  usage,
		logger: logger,
	}
}

// Ingest validates and persists a batch of events. Rows are validated
// individually: bad rows are rejected by index, good rows proceed. A
// batch over maxBatch fails whole before any row is written.
func (s *Service) Ingest(ctx context.Context, tenantID uuid.UUID, rows []EventInput, meta RequestMeta, maxBatch int) (*IngestResult, error) {
	if len(rows) == 0 {
		return nil, shared.NewDomainError("EMPTY_BATCH", "Batch contains no events")
	}
	if len(rows) > maxBatch {
		return nil, shared.NewDomainErrorf("BATCH_TOO_LARGE", "Batch of %d exceeds the maximum of %d", len(rows), maxBatch)
	}

	result := &IngestResult{}
	events := make([]*audit.Event, 0, len(rows))
	for i, row := range rows {
		event, err := audit.NewEvent(tenantID, audit.Input{
			OccurredAt: row.OccurredAt,
			ActorID:    row.ActorID,
			ActorType:  audit.ActorType(row.ActorType),
			Action:     row.Action,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Severity:   audit.Severity(row.Severity),
			IP:         meta.IP,
			UserAgent:  meta.UserAgent,
			RequestID:  meta.RequestID,
			Metadata:   row.Metadata,
		})
		if err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, toRowError(i, err))
			continue
		}
		events = append(events, event)
	}

	queued, err := s.writer.Write(ctx, events)
	if err != nil {
		return nil, err
	}
	result.Accepted = len(events)
	result.Queued = queued

	s.recordUsage(ctx, tenantID, int64(len(events)))

	return result, nil
}

// List returns a page of audit events for a tenant, newest first
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]EventResponse, int64, error) {
	query := audit.Query{
		EntityType: filter.EntityType,
		EntityID:   filter.EntityID,
		Action:     filter.Action,
		Severity:   audit.Severity(filter.Severity),
		ActorID:    filter.ActorID,
		From:       filter.From,
		To:         filter.To,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}

	events, total, err := s.repo.Find(ctx, tenantID, query)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]EventResponse, len(events))
	for i := range events {
		responses[i] = *ToEventResponse(&events[i])
	}
	return responses, total, nil
}

// recordUsage accumulates the ingest counter; usage accounting never
// fails an ingest
func (s *Service) recordUsage(ctx context.Context, tenantID uuid.UUID, quantity int64) {
	if quantity == 0 {
		return
	}
	period := tenant.PeriodFor(time.Now())
	if err := s.usage.Increment(ctx, tenantID, tenant.MetricAuditEventsIngested, period, quantity); err != nil {
		s.logger.Warn("failed to record audit usage",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	}
}

func toRowError(index int, err error) RowError {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return RowError{Index: index, Code: domainErr.Code, Message: domainErr.Message}
	}
	return RowError{Index: index, Code: "INVALID_INPUT", Message: err.Error()}
}
