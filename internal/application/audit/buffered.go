package audit

import (
	"context"
	"sync"
	"time"

	"github.com/gasflow/backend/internal/domain/audit"
	"go.uber.org/zap"
)

// BufferedWriter absorbs fire-and-forget events from in-process
// callers. Enqueue never blocks; events drop with a warning when the
// buffer is full. A background loop flushes on size and on a timer.
type BufferedWriter struct {
	writer        *Writer
	ch            chan *audit.Event
	flushSize     int
	flushInterval time.Duration
	logger        *zap.Logger

	stopOnce sync.Once
	done     chan struct{}
	stopped  chan struct{}
}

// NewBufferedWriter creates a buffered writer on top of the funnel
// writer. Call Start to run the flush loop.
func NewBufferedWriter(writer *Writer, bufferSize, flushSize int, flushInterval time.Duration, logger *zap.Logger) *BufferedWriter {
	return &BufferedWriter{
		writer:        writer,
		ch:            make(chan *audit.Event, bufferSize),
		flushSize:     flushSize,
		flushInterval: flushInterval,
		logger:        logger,
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
}

// Start runs the flush loop until Stop is called
func (b *BufferedWriter) Start() {
	go b.run()
}

// Enqueue offers an event to the buffer without blocking. Dropped
// events are counted in the log, never surfaced to the caller.
func (b *BufferedWriter) Enqueue(e *audit.Event) {
	select {
	case b.ch <- e:
	default:
		b.logger.Warn("audit buffer full, dropping event",
			zap.String("action", e.Action),
			zap.String("entity_type", e.EntityType),
		)
	}
}

// Stop flushes the remaining buffer and stops the loop
func (b *BufferedWriter) Stop(ctx context.Context) {
	b.stopOnce.Do(func() { close(b.done) })
	select {
	case <-b.stopped:
	case <-ctx.Done():
	}
}

func (b *BufferedWriter) run() {
	defer close(b.stopped)

	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	batch := make([]*audit.Event, 0, b.flushSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := b.writer.Write(ctx, batch); err != nil {
			b.logger.Error("buffered audit flush failed",
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
		}
		cancel()
		batch = make([]*audit.Event, 0, b.flushSize)
	}

	for {
		select {
		case e := <-b.ch:
			batch = append(batch, e)
			if len(batch) >= b.flushSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-b.done:
			// drain whatever is left in the channel, then flush
			for {
				select {
				case e := <-b.ch:
					batch = append(batch, e)
					if len(batch) >= b.flushSize {
						flush()
					}
					continue
				default:
				}
				break
			}
			flush()
			return
		}
	}
}
