package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Query filters the audit log. Zero values mean "no filter".
type Query struct {
	EntityType string
	EntityID   string
	Action     string
	Severity   Severity
	ActorID    *uuid.UUID
	From       time.Time
	To         time.Time
	Page       int
	PageSize   int
}

// Normalize clamps pagination to sane bounds
func (q *Query) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 50
	}
	if q.PageSize > 200 {
		q.PageSize = 200
	}
}

// Offset returns the row offset for the current page
func (q *Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Repository writes and reads audit events. InsertBatch is the small-
// batch path; bulk COPY lives behind the BulkWriter interface so the
// ingest pipeline can pick per batch size.
type Repository interface {
	InsertBatch(ctx context.Context, events []*Event) error
	Find(ctx context.Context, tenantID uuid.UUID, q Query) ([]Event, int64, error)
	// FindPurgeable returns up to limit events older than the cutoff,
	// oldest first. Retention archives the chunk before deleting it.
	FindPurgeable(ctx context.Context, tenantID uuid.UUID, before time.Time, limit int) ([]Event, error)
	DeleteByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) error
}

// BulkWriter is the high-throughput insert path, backed by pgx
// CopyFrom on a dedicated pool
type BulkWriter interface {
	CopyBatch(ctx context.Context, events []*Event) error
}
