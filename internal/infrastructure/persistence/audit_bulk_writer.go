package persistence

import (
	"context"
	"encoding/json"

	"github.com/gasflow/backend/internal/domain/audit"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var auditCopyColumns = []string{
	"id",
	"tenant_id",
	"occurred_at",
	"recorded_at",
	"actor_id",
	"actor_type",
	"action",
	"entity_type",
	"entity_id",
	"severity",
	"ip",
	"user_agent",
	"request_id",
	"metadata",
}

// PgxAuditWriter implements audit.BulkWriter with pgx CopyFrom on a
// dedicated pool, so large ingest batches bypass the GORM connection
// pool entirely.
type PgxAuditWriter struct {
	pool *pgxpool.Pool
}

// NewPgxAuditWriter creates a new PgxAuditWriter
func NewPgxAuditWriter(pool *pgxpool.Pool) *PgxAuditWriter {
	return &PgxAuditWriter{pool: pool}
}

// CopyBatch streams a batch of audit events into the audit_events table
func (w *PgxAuditWriter) CopyBatch(ctx context.Context, events []*audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([][]interface{}, len(events))
	for i, e := range events {
		metadata := "{}"
		if len(e.Metadata) > 0 {
			b, err := json.Marshal(e.Metadata)
			if err != nil {
				return err
			}
			metadata = string(b)
		}
		rows[i] = []interface{}{
			e.ID,
			e.TenantID,
			e.OccurredAt,
			e.RecordedAt,
			e.ActorID,
			string(e.ActorType),
			e.Action,
			e.EntityType,
			e.EntityID,
			string(e.Severity),
			e.IP,
			e.UserAgent,
			e.RequestID,
			metadata,
		}
	}

	_, err := w.pool.CopyFrom(ctx,
		pgx.Identifier{"audit_events"},
		auditCopyColumns,
		pgx.CopyFromRows(rows),
	)
	return err
}

// Close releases the underlying pool
func (w *PgxAuditWriter) Close() {
	w.pool.Close()
}

// Ensure PgxAuditWriter implements audit.BulkWriter
var _ audit.BulkWriter = (*PgxAuditWriter)(nil)
