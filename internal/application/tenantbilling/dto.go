package tenantbilling

import (
	"time"

	"github.com/gasflow/backend/internal/domain/tenant"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProvisionTenantRequest creates a new tenant
type ProvisionTenantRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// TenantResponse is the read shape of a tenant
type TenantResponse struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Slug      string            `json:"slug"`
	Status    string            `json:"status"`
	Settings  map[string]string `json:"settings,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// PlanResponse is the read shape of a plan
type PlanResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	MonthlyPrice       decimal.Decimal `json:"monthly_price"`
	Currency           string          `json:"currency"`
	MaxWarehouses      int             `json:"max_warehouses"`
	MaxOrdersPerMonth  int             `json:"max_orders_per_month"`
	AuditRetentionDays int             `json:"audit_retention_days"`
}

// SubscribeRequest subscribes a tenant to a plan
type SubscribeRequest struct {
	PlanCode string `json:"plan_code" binding:"required"`
}

// SubscriptionResponse is the read shape of a subscription
type SubscriptionResponse struct {
	ID                uuid.UUID `json:"id"`
	TenantID          uuid.UUID `json:"tenant_id"`
	PlanID            uuid.UUID `json:"plan_id"`
	Status            string    `json:"status"`
	PeriodStart       time.Time `json:"period_start"`
	PeriodEnd         time.Time `json:"period_end"`
	CancelAtPeriodEnd bool      `json:"cancel_at_period_end"`
}

// CreateAPIKeyRequest names a new API key
type CreateAPIKeyRequest struct {
	Name string `json:"name" binding:"required"`
}

// APIKeyCreatedResponse carries the plaintext token exactly once
type APIKeyCreatedResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Prefix string    `json:"prefix"`
	Token  string    `json:"token"`
}

// APIKeyResponse is the read shape of an API key (no secret)
type APIKeyResponse struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// UsageResponse is one usage counter for a period
type UsageResponse struct {
	Metric   string    `json:"metric"`
	Quantity int64     `json:"quantity"`
	Period   time.Time `json:"period"`
}

// ToTenantResponse converts a domain tenant
func ToTenantResponse(t *tenant.Tenant) *TenantResponse {
	return &TenantResponse{
		ID:        t.ID,
		Name:      t.Name,
		Slug:      t.Slug,
		Status:    string(t.Status),
		Settings:  t.Settings,
		CreatedAt: t.CreatedAt,
	}
}

// ToPlanResponse converts a domain plan
func ToPlanResponse(p *tenant.Plan) *PlanResponse {
	return &PlanResponse{
		ID:                 p.ID,
		Code:               p.Code,
		Name:               p.Name,
		MonthlyPrice:       p.MonthlyPrice,
		Currency:           p.Currency,
		MaxWarehouses:      p.MaxWarehouses,
		MaxOrdersPerMonth:  p.MaxOrdersPerMonth,
		AuditRetentionDays: p.AuditRetentionDays,
	}
}

// ToSubscriptionResponse converts a domain subscription
func ToSubscriptionResponse(s *tenant.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		ID:                s.ID,
		TenantID:          s.TenantID,
		PlanID:            s.PlanID,
		Status:            string(s.Status),
		PeriodStart:       s.PeriodStart,
		PeriodEnd:         s.PeriodEnd,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
	}
}

// ToAPIKeyResponse converts a domain API key
func ToAPIKeyResponse(k *tenant.APIKey) *APIKeyResponse {
	return &APIKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		Prefix:     k.Prefix,
		LastUsedAt: k.LastUsedAt,
		RevokedAt:  k.RevokedAt,
		CreatedAt:  k.CreatedAt,
	}
}
