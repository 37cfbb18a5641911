package router

import (
	"github.com/gasflow/backend/internal/infrastructure/config"
	"github.com/gasflow/backend/internal/interfaces/http/handler"
	"github.com/gasflow/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	System    *handler.SystemHandler
	Tenant    *handler.TenantHandler
	Customer  *handler.CustomerHandler
	Catalog   *handler.CatalogHandler
	Pricing   *handler.PricingHandler
	Inventory *handler.InventoryHandler
	Order     *handler.OrderHandler
	Logistics *handler.LogisticsHandler
	Finance   *handler.FinanceHandler
	Audit     *handler.AuditHandler
}

// Options carries the cross-cutting pieces the router wires into the
// middleware chain
type Options struct {
	Config           *config.Config
	Logger           *zap.Logger
	JWTAuth          gin.HandlerFunc
	APIKeyAuth       gin.HandlerFunc
	Idempotency      gin.HandlerFunc
	TelemetryEnabled bool
}

// New builds the gin engine with the full middleware chain and route
// tree. Middleware order matters: request ID first so every later
// stage can log it, recovery before anything that can panic, then the
// cheap guards before auth.
func New(handlers Handlers, opts Options) *gin.Engine {
	cfg := opts.Config

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	if len(cfg.Server.TrustedProxies) > 0 {
		_ = r.SetTrustedProxies(cfg.Server.TrustedProxies)
	}

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.Secure())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	if cfg.Server.BodyLimit > 0 {
		r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))
	}
	if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow)
		r.Use(middleware.RateLimit(limiter))
	}
	if opts.TelemetryEnabled {
		r.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
		r.Use(middleware.Metrics(cfg.Telemetry.ServiceName))
	}

	handlers.System.RegisterRoutes(r)

	// Webhook authentication is the provider signature, not a JWT
	r.POST("/webhooks/stripe", handlers.Tenant.StripeWebhook)

	// High-volume ingest authenticates with an API key so edge agents
	// never hold user tokens
	ingest := r.Group("/ingest/v1")
	ingest.Use(opts.APIKeyAuth)
	ingest.POST("/audit/events", handlers.Audit.IngestEdge)

	api := r.Group("/api/v1")
	api.Use(opts.JWTAuth)

	handlers.Tenant.RegisterRoutes(api)
	handlers.Customer.RegisterRoutes(api)
	handlers.Catalog.RegisterRoutes(api)
	handlers.Pricing.RegisterRoutes(api)
	handlers.Inventory.RegisterRoutes(api)
	handlers.Order.RegisterRoutes(api, opts.Idempotency)
	handlers.Logistics.RegisterRoutes(api)
	handlers.Finance.RegisterRoutes(api)
	handlers.Audit.RegisterRoutes(api, opts.Idempotency)

	return r
}
