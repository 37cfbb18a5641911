package models

import (
	"encoding/json"
	"time"

	"github.com/gasflow/backend/internal/domain/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TenantModel is the persistence model for the Tenant aggregate.
// Tenants are platform-level rows and carry no tenant scope of their
// own.
type TenantModel struct {
	AggregateModel
	Name     string `gorm:"type:varchar(255);not null"`
	Slug     string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Status   string `gorm:"type:varchar(20);not null;default:'active'"`
	Settings string `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string { return "tenants" }

// ToDomain converts the persistence model to a domain Tenant
func (m *TenantModel) ToDomain() *tenant.Tenant {
	settings := make(map[string]string)
	if m.Settings != "" {
		_ = json.Unmarshal([]byte(m.Settings), &settings)
	}
	return &tenant.Tenant{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Slug:              m.Slug,
		Status:            tenant.TenantStatus(m.Status),
		Settings:          settings,
	}
}

// FromDomain populates the model from a domain Tenant
func (m *TenantModel) FromDomain(t *tenant.Tenant) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Name = t.Name
	m.Slug = t.Slug
	m.Status = string(t.Status)
	if len(t.Settings) > 0 {
		b, _ := json.Marshal(t.Settings)
		m.Settings = string(b)
	} else {
		m.Settings = "{}"
	}
}

// PlanModel is the persistence model for Plan definitions
type PlanModel struct {
	AggregateModel
	Code               string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	Name               string          `gorm:"type:varchar(255);not null"`
	MonthlyPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency           string          `gorm:"type:varchar(3);not null"`
	MaxWarehouses      int             `gorm:"not null;default:0"`
	MaxOrdersPerMonth  int             `gorm:"not null;default:0"`
	AuditRetentionDays int             `gorm:"not null;default:0"`
	StripePriceID      string          `gorm:"type:varchar(100)"`
	IsActive           bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (PlanModel) TableName() string { return "plans" }

// ToDomain converts the persistence model to a domain Plan
func (m *PlanModel) ToDomain() *tenant.Plan {
	return &tenant.Plan{
		BaseAggregateRoot:  m.ToAggregateRoot(),
		Code:               m.Code,
		Name:               m.Name,
		MonthlyPrice:       m.MonthlyPrice,
		Currency:           m.Currency,
		MaxWarehouses:      m.MaxWarehouses,
		MaxOrdersPerMonth:  m.MaxOrdersPerMonth,
		AuditRetentionDays: m.AuditRetentionDays,
		StripePriceID:      m.StripePriceID,
		IsActive:           m.IsActive,
	}
}

// FromDomain populates the model from a domain Plan
func (m *PlanModel) FromDomain(p *tenant.Plan) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.MonthlyPrice = p.MonthlyPrice
	m.Currency = p.Currency
	m.MaxWarehouses = p.MaxWarehouses
	m.MaxOrdersPerMonth = p.MaxOrdersPerMonth
	m.AuditRetentionDays = p.AuditRetentionDays
	m.StripePriceID = p.StripePriceID
	m.IsActive = p.IsActive
}

// SubscriptionModel is the persistence model for Subscription records
type SubscriptionModel struct {
	AggregateModel
	TenantID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	PlanID            uuid.UUID `gorm:"type:uuid;not null;index"`
	Status            string    `gorm:"type:varchar(20);not null;default:'trialing'"`
	PeriodStart       time.Time `gorm:"type:timestamptz;not null"`
	PeriodEnd         time.Time `gorm:"type:timestamptz;not null"`
	StripeCustomerID  string    `gorm:"type:varchar(100);index"`
	StripeSubID       string    `gorm:"type:varchar(100);index"`
	CancelAtPeriodEnd bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (SubscriptionModel) TableName() string { return "subscriptions" }

// ToDomain converts the persistence model to a domain Subscription
func (m *SubscriptionModel) ToDomain() *tenant.Subscription {
	return &tenant.Subscription{
		BaseAggregateRoot: m.ToAggregateRoot(),
		TenantID:          m.TenantID,
		PlanID:            m.PlanID,
		Status:            tenant.SubscriptionStatus(m.Status),
		PeriodStart:       m.PeriodStart,
		PeriodEnd:         m.PeriodEnd,
		StripeCustomerID:  m.StripeCustomerID,
		StripeSubID:       m.StripeSubID,
		CancelAtPeriodEnd: m.CancelAtPeriodEnd,
	}
}

// FromDomain populates the model from a domain Subscription
func (m *SubscriptionModel) FromDomain(s *tenant.Subscription) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.TenantID = s.TenantID
	m.PlanID = s.PlanID
	m.Status = string(s.Status)
	m.PeriodStart = s.PeriodStart
	m.PeriodEnd = s.PeriodEnd
	m.StripeCustomerID = s.StripeCustomerID
	m.StripeSubID = s.StripeSubID
	m.CancelAtPeriodEnd = s.CancelAtPeriodEnd
}

// APIKeyModel is the persistence model for ingest API keys
type APIKeyModel struct {
	TenantAggregateModel
	Name       string     `gorm:"type:varchar(100);not null"`
	Prefix     string     `gorm:"type:varchar(20);not null;uniqueIndex"`
	SecretHash string     `gorm:"type:varchar(100);not null"`
	LastUsedAt *time.Time `gorm:"type:timestamptz"`
	RevokedAt  *time.Time `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (APIKeyModel) TableName() string { return "api_keys" }

// ToDomain converts the persistence model to a domain APIKey
func (m *APIKeyModel) ToDomain() *tenant.APIKey {
	return &tenant.APIKey{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		Prefix:              m.Prefix,
		SecretHash:          m.SecretHash,
		LastUsedAt:          m.LastUsedAt,
		RevokedAt:           m.RevokedAt,
	}
}

// FromDomain populates the model from a domain APIKey
func (m *APIKeyModel) FromDomain(k *tenant.APIKey) {
	m.FromDomainTenantAggregateRoot(k.TenantAggregateRoot)
	m.Name = k.Name
	m.Prefix = k.Prefix
	m.SecretHash = k.SecretHash
	m.LastUsedAt = k.LastUsedAt
	m.RevokedAt = k.RevokedAt
}

// UsageRecordModel accumulates one usage metric per tenant and billing
// period
type UsageRecordModel struct {
	BaseModel
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_usage_key,priority:1"`
	Metric   string    `gorm:"type:varchar(40);not null;uniqueIndex:idx_usage_key,priority:2"`
	Period   time.Time `gorm:"type:date;not null;uniqueIndex:idx_usage_key,priority:3"`
	Quantity int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (UsageRecordModel) TableName() string { return "usage_records" }

// ToDomain converts the persistence model to a domain UsageRecord
func (m *UsageRecordModel) ToDomain() tenant.UsageRecord {
	return tenant.UsageRecord{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		Metric:     tenant.UsageMetric(m.Metric),
		Quantity:   m.Quantity,
		Period:     m.Period,
	}
}

// ProcessedWebhookModel deduplicates billing provider webhook events
type ProcessedWebhookModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	EventID     string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	ProcessedAt time.Time `gorm:"type:timestamptz;not null"`
}

// TableName returns the table name for GORM
func (ProcessedWebhookModel) TableName() string { return "processed_webhooks" }
