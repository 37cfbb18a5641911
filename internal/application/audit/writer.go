package audit

import (
	"context"

	"github.com/gasflow/backend/internal/domain/audit"
	"go.uber.org/zap"
)

// FallbackQueue buffers batches whose primary write failed until a
// drain job replays them
type FallbackQueue interface {
	Enqueue(ctx context.Context, events []*audit.Event) error
	Dequeue(ctx context.Context) ([]*audit.Event, error)
	Len(ctx context.Context) (int64, error)
}

// Writer is the single funnel for persisting audit events. Routing is
// an if/else on batch size: small batches take the ORM insert path,
// large batches stream through COPY on a dedicated pool. When the
// primary write fails the batch lands on the fallback queue instead of
// failing the caller.
type Writer struct {
	repo          audit.Repository
	bulk          audit.BulkWriter
	fallback      FallbackQueue
	copyThreshold int
	logger        *zap.Logger
}

// NewWriter creates a new audit writer
func NewWriter(repo audit.Repository, bulk audit.BulkWriter, fallback FallbackQueue, copyThreshold int, logger *zap.Logger) *Writer {
	return &Writer{
		repo:          repo,
		bulk:          bulk,
		fallback:      fallback,
		copyThreshold: copyThreshold,
		logger:        logger,
	}
}

// Write persists a batch. Returns queued=true when the batch went to
// the fallback queue; the error is non-nil only when both paths failed.
func (w *Writer) Write(ctx context.Context, events []*audit.Event) (queued bool, err error) {
	if len(events) == 0 {
		return false, nil
	}

	writeErr := w.writePrimary(ctx, events)
	if writeErr == nil {
		return false, nil
	}

	w.logger.Warn("primary audit write failed, falling back to queue",
		zap.Int("batch_size", len(events)),
		zap.Error(writeErr),
	)

	if qErr := w.fallback.Enqueue(ctx, events); qErr != nil {
		w.logger.Error("audit fallback enqueue failed",
			zap.Int("batch_size", len(events)),
			zap.Error(qErr),
		)
		return false, writeErr
	}
	return true, nil
}

func (w *Writer) writePrimary(ctx context.Context, events []*audit.Event) error {
	if len(events) <= w.copyThreshold {
		return w.repo.InsertBatch(ctx, events)
	}
	return w.bulk.CopyBatch(ctx, events)
}

// Drain replays queued batches back through the primary path. Stops at
// the first failure (the batch is re-queued) or after maxBatches, and
// returns the number of events restored.
func (w *Writer) Drain(ctx context.Context, maxBatches int) (int, error) {
	restored := 0
	for i := 0; i < maxBatches; i++ {
		events, err := w.fallback.Dequeue(ctx)
		if err != nil {
			return restored, err
		}
		if events == nil {
			return restored, nil
		}

		if err := w.writePrimary(ctx, events); err != nil {
			// put the batch back; the next drain run retries it
			if qErr := w.fallback.Enqueue(ctx, events); qErr != nil {
				w.logger.Error("failed to re-queue audit batch after drain failure",
					zap.Int("batch_size", len(events)),
					zap.Error(qErr),
				)
			}
			return restored, err
		}
		restored += len(events)
	}
	return restored, nil
}
