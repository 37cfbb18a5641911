package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks liveness of a backing dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// redisPinger adapts go-redis, whose Ping returns a status command
type redisPinger struct {
	ping func(ctx context.Context) error
}

func (p redisPinger) Ping(ctx context.Context) error { return p.ping(ctx) }

// RedisPinger wraps a redis ping function as a Pinger
func RedisPinger(ping func(ctx context.Context) error) Pinger {
	return redisPinger{ping: ping}
}

// SystemHandler serves health and readiness probes
type SystemHandler struct {
	db      Pinger
	redis   Pinger
	version string
}

// NewSystemHandler creates a system handler. Either dependency may be
// nil, in which case it is not checked.
func NewSystemHandler(db, redis Pinger, version string) *SystemHandler {
	return &SystemHandler{db: db, redis: redis, version: version}
}

// RegisterRoutes mounts the probes at the engine root, outside the
// authenticated API group
func (h *SystemHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
}

// Healthz reports process liveness only
func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

// Readyz reports whether backing stores are reachable
func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			checks["database"] = "unreachable"
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			checks["redis"] = "unreachable"
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	state := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status": state,
		"checks": checks,
	})
}
