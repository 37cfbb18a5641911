package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Log       LogConfig
	Audit     AuditConfig
	Inventory InventoryConfig
	Finance   FinanceConfig
	Billing   BillingConfig
	Jobs      JobsConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host           string
	Port           int
	Mode           string // debug, release, test (gin mode)
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	BodyLimit      int64
	RateLimit      int
	RateWindow     time.Duration
	CORSOrigins    []string
	TrustedProxies []string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	// AuditPoolSize sizes the dedicated pgx pool used for bulk audit
	// COPY; it is kept small so audit bursts cannot starve the main pool
	AuditPoolSize int
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds token and API-key settings
type AuthConfig struct {
	JWTSecret       string
	TokenExpiration time.Duration
	Issuer          string
	// DevTenantFallback, when set outside production, stands in for the
	// tenant claim so local tools can hit the API without a real token
	DevTenantFallback string
}

// LogConfig holds logging configuration. The rotation settings only
// apply when Output is a file path.
type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// AuditConfig holds audit pipeline settings
type AuditConfig struct {
	MaxBatchAPI    int
	MaxBatchIngest int
	// CopyThreshold is the batch size above which inserts switch from
	// GORM batched INSERTs to pgx CopyFrom
	CopyThreshold int
	BufferSize    int
	FlushInterval time.Duration
	FallbackQueue string
	RetentionDays int
	ArchiveBucket string
}

// InventoryConfig holds stock handling settings
type InventoryConfig struct {
	// ReservationTTL bounds how long a confirmed order holds stock
	// before the expiry job releases it. Zero means reservations never
	// expire.
	ReservationTTL time.Duration
	// ExpiryBatchSize caps how many expired reservations one job run
	// releases
	ExpiryBatchSize int
}

// FinanceConfig holds invoicing settings
type FinanceConfig struct {
	// DefaultTaxRate is a fraction (0.16 for 16%) applied to invoices
	// generated without an explicit rate
	DefaultTaxRate float64
}

// BillingConfig holds payment provider settings
type BillingConfig struct {
	StripeSecretKey     string
	StripeWebhookSecret string
	// PlanPriceMap maps plan codes to Stripe price IDs
	PlanPriceMap map[string]string
}

// JobsConfig holds cron schedules
type JobsConfig struct {
	Enabled               bool
	ReservationExpirySpec string
	AuditDrainSpec        string
	AuditPurgeSpec        string
}

// StorageConfig holds object storage settings for audit archives
type StorageConfig struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	PathStyle bool
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	SampleRatio float64
	Insecure    bool
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with GASFLOW_ prefix (e.g. GASFLOW_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// no config file is fine, defaults and env vars take over
	}

	v.SetEnvPrefix("GASFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("server.host"),
			Port:           v.GetInt("server.port"),
			Mode:           v.GetString("server.mode"),
			ReadTimeout:    v.GetDuration("server.read_timeout"),
			WriteTimeout:   v.GetDuration("server.write_timeout"),
			IdleTimeout:    v.GetDuration("server.idle_timeout"),
			BodyLimit:      v.GetInt64("server.body_limit"),
			RateLimit:      v.GetInt("server.rate_limit"),
			RateWindow:     v.GetDuration("server.rate_window"),
			CORSOrigins:    v.GetStringSlice("server.cors_origins"),
			TrustedProxies: v.GetStringSlice("server.trusted_proxies"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("database.conn_max_idle_time"),
			AuditPoolSize:   v.GetInt("database.audit_pool_size"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			JWTSecret:         v.GetString("auth.jwt_secret"),
			TokenExpiration:   v.GetDuration("auth.token_expiration"),
			Issuer:            v.GetString("auth.issuer"),
			DevTenantFallback: v.GetString("auth.dev_tenant_fallback"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Output:     v.GetString("log.output"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		Audit: AuditConfig{
			MaxBatchAPI:    v.GetInt("audit.max_batch_api"),
			MaxBatchIngest: v.GetInt("audit.max_batch_ingest"),
			CopyThreshold:  v.GetInt("audit.copy_threshold"),
			BufferSize:     v.GetInt("audit.buffer_size"),
			FlushInterval:  v.GetDuration("audit.flush_interval"),
			FallbackQueue:  v.GetString("audit.fallback_queue"),
			RetentionDays:  v.GetInt("audit.retention_days"),
			ArchiveBucket:  v.GetString("audit.archive_bucket"),
		},
		Inventory: InventoryConfig{
			ReservationTTL:  v.GetDuration("inventory.reservation_ttl"),
			ExpiryBatchSize: v.GetInt("inventory.expiry_batch_size"),
		},
		Finance: FinanceConfig{
			DefaultTaxRate: v.GetFloat64("finance.default_tax_rate"),
		},
		Billing: BillingConfig{
			StripeSecretKey:     v.GetString("billing.stripe_secret_key"),
			StripeWebhookSecret: v.GetString("billing.stripe_webhook_secret"),
			PlanPriceMap:        v.GetStringMapString("billing.plan_price_map"),
		},
		Jobs: JobsConfig{
			Enabled:               v.GetBool("jobs.enabled"),
			ReservationExpirySpec: v.GetString("jobs.reservation_expiry_spec"),
			AuditDrainSpec:        v.GetString("jobs.audit_drain_spec"),
			AuditPurgeSpec:        v.GetString("jobs.audit_purge_spec"),
		},
		Storage: StorageConfig{
			Endpoint:  v.GetString("storage.endpoint"),
			Bucket:    v.GetString("storage.bucket"),
			Region:    v.GetString("storage.region"),
			AccessKey: v.GetString("storage.access_key"),
			SecretKey: v.GetString("storage.secret_key"),
			PathStyle: v.GetBool("storage.path_style"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     v.GetBool("telemetry.enabled"),
			Endpoint:    v.GetString("telemetry.endpoint"),
			ServiceName: v.GetString("telemetry.service_name"),
			SampleRatio: v.GetFloat64("telemetry.sample_ratio"),
			Insecure:    v.GetBool("telemetry.insecure"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Server.BodyLimit == 0 {
		cfg.Server.BodyLimit = 10 << 20 // 10MB
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 300
	}
	if cfg.Server.RateWindow == 0 {
		cfg.Server.RateWindow = time.Minute
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "gasflow"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30 * time.Minute
	}
	if cfg.Database.AuditPoolSize == 0 {
		cfg.Database.AuditPoolSize = 4
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Auth.TokenExpiration == 0 {
		cfg.Auth.TokenExpiration = 15 * time.Minute
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "gasflow-backend"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Audit.MaxBatchAPI == 0 {
		cfg.Audit.MaxBatchAPI = 500
	}
	if cfg.Audit.MaxBatchIngest == 0 {
		cfg.Audit.MaxBatchIngest = 1000
	}
	if cfg.Audit.CopyThreshold == 0 {
		cfg.Audit.CopyThreshold = 200
	}
	if cfg.Audit.BufferSize == 0 {
		cfg.Audit.BufferSize = 4096
	}
	if cfg.Audit.FlushInterval == 0 {
		cfg.Audit.FlushInterval = 2 * time.Second
	}
	if cfg.Audit.FallbackQueue == "" {
		cfg.Audit.FallbackQueue = "audit:fallback"
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = 365
	}
	if cfg.Inventory.ReservationTTL == 0 {
		cfg.Inventory.ReservationTTL = 24 * time.Hour
	}
	if cfg.Inventory.ExpiryBatchSize == 0 {
		cfg.Inventory.ExpiryBatchSize = 200
	}
	if cfg.Jobs.ReservationExpirySpec == "" {
		cfg.Jobs.ReservationExpirySpec = "*/5 * * * *"
	}
	if cfg.Jobs.AuditDrainSpec == "" {
		cfg.Jobs.AuditDrainSpec = "* * * * *"
	}
	if cfg.Jobs.AuditPurgeSpec == "" {
		cfg.Jobs.AuditPurgeSpec = "0 3 * * *"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "gasflow-backend"
	}
	if cfg.Telemetry.SampleRatio == 0 {
		cfg.Telemetry.SampleRatio = 1.0
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Audit.CopyThreshold > c.Audit.MaxBatchIngest {
		return fmt.Errorf("audit.copy_threshold (%d) cannot exceed audit.max_batch_ingest (%d)",
			c.Audit.CopyThreshold, c.Audit.MaxBatchIngest)
	}
	if c.Finance.DefaultTaxRate < 0.0 || c.Finance.DefaultTaxRate > 1.0 {
		return fmt.Errorf("finance.default_tax_rate must be between 0.0 and 1.0, got %f", c.Finance.DefaultTaxRate)
	}
	if c.Telemetry.SampleRatio < 0.0 || c.Telemetry.SampleRatio > 1.0 {
		return fmt.Errorf("telemetry.sample_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SampleRatio)
	}

	if c.IsProduction() {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required in production")
		}
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("auth.jwt_secret must be at least 32 characters in production")
		}
		if c.Auth.DevTenantFallback != "" {
			return fmt.Errorf("auth.dev_tenant_fallback must be empty in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.Server.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("server.cors_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// IsProduction reports whether the server runs in release mode
func (c *Config) IsProduction() bool {
	return c.Server.Mode == "release"
}

// Addr returns the listen address
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisAddr returns the Redis connection address
func (r *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
