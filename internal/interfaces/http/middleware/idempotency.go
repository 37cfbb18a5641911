package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gasflow/backend/internal/infrastructure/cache"
	"github.com/gasflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyTTL is how long a processed key blocks re-execution
const IdempotencyTTL = 24 * time.Hour

// IdempotencyMarker claims a key atomically. True means this request
// owns the key and should execute; false means it was seen before.
type IdempotencyMarker interface {
	MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, id string) error
}

// ResponseCache stores response snapshots for replay
type ResponseCache interface {
	Save(ctx context.Context, key string, resp *cache.StoredResponse, ttl time.Duration) error
	Get(ctx context.Context, key string) (*cache.StoredResponse, error)
}

// bodyRecorder tees the response body so it can be cached after the
// handler runs
type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency makes a mutating endpoint safe to retry. When the client
// sends an Idempotency-Key, the first request executes and its response
// is cached; retries replay the cached response with
// Idempotency-Replayed: true. A retry arriving while the first request
// is still executing gets a 409.
func Idempotency(marker IdempotencyMarker, responses ResponseCache, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if key == "" {
			c.Next()
			return
		}

		// Scope the key so the same value cannot collide across tenants
		// or endpoints
		scoped := key + ":" + c.Request.Method + ":" + c.FullPath()
		if tenantID, ok := GetTenantID(c); ok {
			scoped = tenantID.String() + ":" + scoped
		}

		ctx := c.Request.Context()
		fresh, err := marker.MarkProcessed(ctx, scoped, IdempotencyTTL)
		if err != nil {
			// Redis being down must not take order intake with it
			log.Warn("Idempotency check failed, proceeding without replay protection",
				zap.Error(err))
			c.Next()
			return
		}

		if !fresh {
			stored, err := responses.Get(ctx, scoped)
			if err != nil {
				log.Warn("Failed to load stored idempotent response", zap.Error(err))
			}
			if stored != nil {
				c.Header("Idempotency-Replayed", "true")
				c.Data(stored.Status, stored.ContentType, stored.Body)
				c.Abort()
				return
			}
			// Key claimed but no response yet: the original request is
			// still in flight
			c.AbortWithStatusJSON(http.StatusConflict,
				dto.NewErrorResponse(dto.ErrCodeConflict,
					"A request with this idempotency key is still being processed",
					c.GetString(RequestIDKey)))
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder

		c.Next()

		// Server faults release the key so the client retry re-executes
		if c.Writer.Status() >= http.StatusInternalServerError {
			if err := marker.Forget(ctx, scoped); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
			return
		}

		stored := &cache.StoredResponse{
			Status:      c.Writer.Status(),
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		}
		if err := responses.Save(ctx, scoped, stored, IdempotencyTTL); err != nil {
			log.Warn("Failed to store idempotent response", zap.Error(err))
		}
	}
}
