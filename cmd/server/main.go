package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditapp "github.com/gasflow/backend/internal/application/audit"
	catalogapp "github.com/gasflow/backend/internal/application/catalog"
	customerapp "github.com/gasflow/backend/internal/application/customer"
	financeapp "github.com/gasflow/backend/internal/application/finance"
	inventoryapp "github.com/gasflow/backend/internal/application/inventory"
	logisticsapp "github.com/gasflow/backend/internal/application/logistics"
	orderapp "github.com/gasflow/backend/internal/application/order"
	pricingapp "github.com/gasflow/backend/internal/application/pricing"
	tenantbillingapp "github.com/gasflow/backend/internal/application/tenantbilling"
	"github.com/gasflow/backend/internal/infrastructure/auth"
	"github.com/gasflow/backend/internal/infrastructure/billing"
	"github.com/gasflow/backend/internal/infrastructure/cache"
	"github.com/gasflow/backend/internal/infrastructure/config"
	"github.com/gasflow/backend/internal/infrastructure/event"
	"github.com/gasflow/backend/internal/infrastructure/jobs"
	"github.com/gasflow/backend/internal/infrastructure/logger"
	"github.com/gasflow/backend/internal/infrastructure/persistence"
	"github.com/gasflow/backend/internal/infrastructure/storage"
	"github.com/gasflow/backend/internal/infrastructure/telemetry"
	"github.com/gasflow/backend/internal/interfaces/http/handler"
	"github.com/gasflow/backend/internal/interfaces/http/middleware"
	"github.com/gasflow/backend/internal/interfaces/http/router"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	// A missing .env is fine; the environment wins either way
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting gasflow backend",
		zap.String("version", version),
		zap.String("mode", cfg.Server.Mode),
		zap.Int("port", cfg.Server.Port),
	)

	ctx := context.Background()

	tel, err := telemetry.New(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("failed to initialize telemetry", zap.Error(err))
	}

	db, err := persistence.NewDatabase(cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()
	if tel.Enabled() {
		if err := telemetry.RegisterDBTracing(db.DB, cfg.Database.DBName, log); err != nil {
			log.Warn("failed to register database tracing", zap.Error(err))
		}
	}

	auditPool, err := persistence.NewAuditPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to open audit pool", zap.Error(err))
	}
	defer auditPool.Close()

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("error closing redis client", zap.Error(err))
		}
	}()

	// Repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	variantRepo := persistence.NewGormVariantRepository(db.DB)
	priceListRepo := persistence.NewGormPriceListRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	stockLevelRepo := persistence.NewGormStockLevelRepository(db.DB)
	stockDocumentRepo := persistence.NewGormStockDocumentRepository(db.DB)
	reservationRepo := persistence.NewGormReservationRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	vehicleRepo := persistence.NewGormVehicleRepository(db.DB)
	driverRepo := persistence.NewGormDriverRepository(db.DB)
	tripRepo := persistence.NewGormTripRepository(db.DB)
	deliveryRepo := persistence.NewGormDeliveryRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	planRepo := persistence.NewGormPlanRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	apiKeyRepo := persistence.NewGormAPIKeyRepository(db.DB)
	usageRepo := persistence.NewGormUsageRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)

	// Event bus with the audit bridge as a wildcard subscriber: every
	// domain event becomes an audit row without the services knowing
	bus := event.NewInMemoryEventBus(log)
	if err := bus.Start(ctx); err != nil {
		log.Fatal("failed to start event bus", zap.Error(err))
	}

	fallbackQueue := cache.NewAuditFallbackQueue(redisClient, cfg.Audit.FallbackQueue)
	bulkWriter := persistence.NewPgxAuditWriter(auditPool)
	auditWriter := auditapp.NewWriter(auditRepo, bulkWriter, fallbackQueue, cfg.Audit.CopyThreshold, log)
	auditBuffer := auditapp.NewBufferedWriter(auditWriter, cfg.Audit.BufferSize, cfg.Audit.CopyThreshold, cfg.Audit.FlushInterval, log)
	auditBuffer.Start()
	bus.Subscribe(auditapp.NewEventBridge(auditBuffer))

	var archiveStorage auditapp.ObjectStorage
	if cfg.Storage.Bucket != "" {
		s3Storage, err := storage.NewS3ObjectStorage(cfg.Storage, log)
		if err != nil {
			log.Fatal("failed to initialize object storage", zap.Error(err))
		}
		archiveStorage = s3Storage
	} else {
		log.Warn("no archive bucket configured, purged audit events will not be archived")
		archiveStorage = storage.NewStubObjectStorage()
	}

	var gateway tenantbillingapp.BillingGateway
	if cfg.Billing.StripeSecretKey != "" {
		stripeGateway, err := billing.NewStripeGateway(cfg.Billing, log)
		if err != nil {
			log.Fatal("failed to initialize billing gateway", zap.Error(err))
		}
		gateway = stripeGateway
	} else {
		log.Warn("no stripe key configured, paid subscriptions are disabled")
		gateway = billing.NewDisabledGateway()
	}

	// Application services
	entitlements := tenantbillingapp.NewEntitlements(subscriptionRepo, planRepo, warehouseRepo, orderRepo, log)
	resolver := pricingapp.NewResolver(priceListRepo, log)

	customerService := customerapp.NewService(customerRepo, bus, log)
	catalogService := catalogapp.NewService(productRepo, variantRepo, bus, log)
	pricingService := pricingapp.NewService(priceListRepo, log)
	inventoryService := inventoryapp.NewService(
		warehouseRepo,
		stockLevelRepo,
		stockDocumentRepo,
		reservationRepo,
		variantRepo,
		persistence.NewGormInventoryTransactionScope(db.DB),
		entitlements,
		bus,
		log,
	)
	orderService := orderapp.NewService(
		orderRepo,
		customerRepo,
		variantRepo,
		resolver,
		entitlements,
		persistence.NewGormOrderTransactionScope(db.DB),
		cfg.Inventory.ReservationTTL,
		bus,
		log,
	)
	logisticsService := logisticsapp.NewService(
		vehicleRepo,
		driverRepo,
		tripRepo,
		deliveryRepo,
		orderRepo,
		warehouseRepo,
		persistence.NewGormLogisticsTransactionScope(db.DB),
		bus,
		log,
	)
	financeService := financeapp.NewService(
		invoiceRepo,
		paymentRepo,
		orderRepo,
		deliveryRepo,
		persistence.NewGormFinanceTransactionScope(db.DB),
		decimal.NewFromFloat(cfg.Finance.DefaultTaxRate),
		bus,
		log,
	)
	tenantService := tenantbillingapp.NewService(
		tenantRepo,
		planRepo,
		subscriptionRepo,
		apiKeyRepo,
		usageRepo,
		gateway,
		auth.NewAPIKeyCipher(),
		log,
	)
	auditService := auditapp.NewService(auditWriter, auditRepo, usageRepo, log)
	retentionService := auditapp.NewRetentionService(
		auditRepo,
		tenantRepo,
		subscriptionRepo,
		planRepo,
		archiveStorage,
		cfg.Audit.RetentionDays,
		log,
	)

	// Background jobs
	var jobRunner *jobs.Runner
	if cfg.Jobs.Enabled {
		jobRunner = jobs.NewRunner(log)
		if err := jobs.RegisterAll(jobRunner, cfg.Jobs, cfg.Inventory.ExpiryBatchSize, inventoryService, auditWriter, retentionService); err != nil {
			log.Fatal("failed to register jobs", zap.Error(err))
		}
		jobRunner.Start()
	}

	// Auth and idempotency middleware
	jwtService := auth.NewJWTService(cfg.Auth)
	devFallback := ""
	if !cfg.IsProduction() {
		devFallback = cfg.Auth.DevTenantFallback
	}
	jwtAuth := middleware.JWTAuth(middleware.AuthConfig{
		JWTService:        jwtService,
		DevTenantFallback: devFallback,
		Logger:            log,
	})
	apiKeyAuth := middleware.APIKeyAuth(tenantService)
	idempotency := middleware.Idempotency(
		cache.NewRedisIdempotencyStore(redisClient, ""),
		cache.NewRedisResponseCache(redisClient, ""),
		log,
	)

	engine := router.New(router.Handlers{
		System:    handler.NewSystemHandler(db, handler.RedisPinger(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }), version),
		Tenant:    handler.NewTenantHandler(tenantService),
		Customer:  handler.NewCustomerHandler(customerService),
		Catalog:   handler.NewCatalogHandler(catalogService),
		Pricing:   handler.NewPricingHandler(pricingService),
		Inventory: handler.NewInventoryHandler(inventoryService),
		Order:     handler.NewOrderHandler(orderService),
		Logistics: handler.NewLogisticsHandler(logisticsService),
		Finance:   handler.NewFinanceHandler(financeService),
		Audit:     handler.NewAuditHandler(auditService, cfg.Audit.MaxBatchAPI, cfg.Audit.MaxBatchIngest),
	}, router.Options{
		Config:           cfg,
		Logger:           log,
		JWTAuth:          jwtAuth,
		APIKeyAuth:       apiKeyAuth,
		Idempotency:      idempotency,
		TelemetryEnabled: tel.Enabled(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
	if jobRunner != nil {
		jobRunner.Stop()
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("event bus shutdown failed", zap.Error(err))
	}
	// Flush whatever the bridge buffered before the pools close
	auditBuffer.Stop(shutdownCtx)
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", zap.Error(err))
	}

	log.Info("shutdown complete")
}
