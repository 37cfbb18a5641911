package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gasflow/backend/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeMarker claims keys in memory
type fakeMarker struct {
	claimed   map[string]bool
	markErr   error
	forgotten []string
}

func (f *fakeMarker) MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	if f.markErr != nil {
		return false, f.markErr
	}
	if f.claimed == nil {
		f.claimed = make(map[string]bool)
	}
	if f.claimed[id] {
		return false, nil
	}
	f.claimed[id] = true
	return true, nil
}

func (f *fakeMarker) Forget(ctx context.Context, id string) error {
	delete(f.claimed, id)
	f.forgotten = append(f.forgotten, id)
	return nil
}

// fakeResponses stores response snapshots in memory
type fakeResponses struct {
	stored map[string]*cache.StoredResponse
}

func (f *fakeResponses) Save(ctx context.Context, key string, resp *cache.StoredResponse, ttl time.Duration) error {
	if f.stored == nil {
		f.stored = make(map[string]*cache.StoredResponse)
	}
	f.stored[key] = resp
	return nil
}

func (f *fakeResponses) Get(ctx context.Context, key string) (*cache.StoredResponse, error) {
	return f.stored[key], nil
}

func newIdempotentRouter(marker IdempotencyMarker, responses ResponseCache, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/orders", Idempotency(marker, responses, zap.NewNop()), handler)
	return r
}

func postOrders(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	t.Run("first request executes, retry replays the stored response", func(t *testing.T) {
		marker := &fakeMarker{}
		responses := &fakeResponses{}
		calls := 0
		r := newIdempotentRouter(marker, responses, func(c *gin.Context) {
			calls++
			c.JSON(http.StatusCreated, gin.H{"order": calls})
		})

		first := postOrders(r, "abc-123")
		assert.Equal(t, http.StatusCreated, first.Code)
		assert.Empty(t, first.Header().Get("Idempotency-Replayed"))

		second := postOrders(r, "abc-123")
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, "true", second.Header().Get("Idempotency-Replayed"))
		assert.Equal(t, first.Body.String(), second.Body.String())
		assert.Equal(t, 1, calls)
	})

	t.Run("keys are scoped by method and path", func(t *testing.T) {
		marker := &fakeMarker{}
		r := newIdempotentRouter(marker, &fakeResponses{}, func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})

		postOrders(r, "abc-123")
		require.Len(t, marker.claimed, 1)
		assert.True(t, marker.claimed["abc-123:POST:/api/v1/orders"])
	})

	t.Run("keys are scoped by tenant when one is bound", func(t *testing.T) {
		marker := &fakeMarker{}
		tenantID := uuid.New()
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.POST("/api/v1/orders",
			func(c *gin.Context) { c.Set(TenantIDKey, tenantID) },
			Idempotency(marker, &fakeResponses{}, zap.NewNop()),
			func(c *gin.Context) { c.Status(http.StatusCreated) })

		postOrders(r, "abc-123")
		require.Len(t, marker.claimed, 1)
		assert.True(t, marker.claimed[tenantID.String()+":abc-123:POST:/api/v1/orders"])
	})

	t.Run("retry while the original is in flight conflicts", func(t *testing.T) {
		marker := &fakeMarker{claimed: map[string]bool{"abc-123:POST:/api/v1/orders": true}}
		r := newIdempotentRouter(marker, &fakeResponses{}, func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})

		w := postOrders(r, "abc-123")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "CONFLICT")
	})

	t.Run("server faults release the key and skip the cache", func(t *testing.T) {
		marker := &fakeMarker{}
		responses := &fakeResponses{}
		r := newIdempotentRouter(marker, responses, func(c *gin.Context) {
			c.Status(http.StatusInternalServerError)
		})

		postOrders(r, "abc-123")
		assert.Empty(t, marker.claimed)
		assert.Len(t, marker.forgotten, 1)
		assert.Empty(t, responses.stored)
	})

	t.Run("marker outage degrades to plain execution", func(t *testing.T) {
		marker := &fakeMarker{markErr: errors.New("redis down")}
		calls := 0
		r := newIdempotentRouter(marker, &fakeResponses{}, func(c *gin.Context) {
			calls++
			c.Status(http.StatusCreated)
		})

		postOrders(r, "abc-123")
		postOrders(r, "abc-123")
		assert.Equal(t, 2, calls)
	})

	t.Run("no key means no protection", func(t *testing.T) {
		marker := &fakeMarker{}
		calls := 0
		r := newIdempotentRouter(marker, &fakeResponses{}, func(c *gin.Context) {
			calls++
			c.Status(http.StatusCreated)
		})

		postOrders(r, "")
		postOrders(r, "")
		assert.Equal(t, 2, calls)
		assert.Empty(t, marker.claimed)
	})
}
