package tenant

import (
	"context"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository persists Tenant aggregates
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Tenant, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, t *Tenant) error
}

// PlanRepository persists Plan definitions
type PlanRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Plan, error)
	FindByCode(ctx context.Context, code string) (*Plan, error)
	FindActive(ctx context.Context) ([]Plan, error)
	Save(ctx context.Context, p *Plan) error
}

// SubscriptionRepository persists Subscription records
type SubscriptionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)
	FindByStripeSubID(ctx context.Context, stripeSubID string) (*Subscription, error)
	Save(ctx context.Context, s *Subscription) error
}

// APIKeyRepository persists APIKey records
type APIKeyRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*APIKey, error)
	// FindByPrefix looks the key up across tenants; the prefix embeds
	// enough entropy to be unique.
	FindByPrefix(ctx context.Context, prefix string) (*APIKey, error)
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]APIKey, error)
	Save(ctx context.Context, k *APIKey) error
}

// UsageRepository accumulates usage counters per tenant and period
type UsageRepository interface {
	// Increment adds quantity to the (tenant, metric, period) counter,
	// creating the row on first use.
	Increment(ctx context.Context, tenantID uuid.UUID, metric UsageMetric, period time.Time, quantity int64) error
	FindByTenantPeriod(ctx context.Context, tenantID uuid.UUID, period time.Time) ([]UsageRecord, error)
	// ProcessedWebhook records a provider event ID and reports whether
	// it was seen before. Used to make webhook handling idempotent.
	ProcessedWebhook(ctx context.Context, eventID string) (alreadySeen bool, err error)
}
