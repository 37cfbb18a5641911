package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gasflow/backend/internal/domain/audit"
	"github.com/redis/go-redis/v9"
)

// AuditFallbackQueue holds audit batches that failed their primary
// database write. Batches are LPUSHed as JSON blobs and drained by a
// cron job with RPOP, so the queue behaves FIFO.
type AuditFallbackQueue struct {
	client *redis.Client
	key    string
}

// NewAuditFallbackQueue creates a queue on the given Redis list key
func NewAuditFallbackQueue(client *redis.Client, key string) *AuditFallbackQueue {
	return &AuditFallbackQueue{client: client, key: key}
}

// Enqueue pushes a batch of events onto the queue
func (q *AuditFallbackQueue) Enqueue(ctx context.Context, events []*audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to serialize audit batch: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue audit batch: %w", err)
	}
	return nil
}

// Dequeue pops the oldest batch from the queue. Returns nil without an
// error when the queue is empty.
func (q *AuditFallbackQueue) Dequeue(ctx context.Context) ([]*audit.Event, error) {
	payload, err := q.client.RPop(ctx, q.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue audit batch: %w", err)
	}

	var events []*audit.Event
	if err := json.Unmarshal(payload, &events); err != nil {
		return nil, fmt.Errorf("failed to deserialize audit batch: %w", err)
	}
	return events, nil
}

// Len returns the number of queued batches
func (q *AuditFallbackQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
