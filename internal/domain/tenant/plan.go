package tenant

import (
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Plan is a billable tier with usage limits. Zero limits mean
// unlimited.
type Plan struct {
	shared.BaseAggregateRoot
	Code               string
	Name               string
	MonthlyPrice       decimal.Decimal
	Currency           string
	MaxWarehouses      int
	MaxOrdersPerMonth  int
	AuditRetentionDays int
	StripePriceID      string
	IsActive           bool
}

// NewPlan creates a subscribable plan
func NewPlan(code, name string, monthlyPrice decimal.Decimal, currency string) (*Plan, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Plan code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Plan name cannot be empty")
	}
	if monthlyPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Monthly price cannot be negative")
	}
	return &Plan{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              strings.TrimSpace(name),
		MonthlyPrice:      monthlyPrice,
		Currency:          strings.ToUpper(currency),
		IsActive:          true,
	}, nil
}

// SetLimits configures the plan quotas. Zero means unlimited.
func (p *Plan) SetLimits(maxWarehouses, maxOrdersPerMonth, auditRetentionDays int) error {
	if maxWarehouses < 0 || maxOrdersPerMonth < 0 || auditRetentionDays < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Plan limits cannot be negative")
	}
	p.MaxWarehouses = maxWarehouses
	p.MaxOrdersPerMonth = maxOrdersPerMonth
	p.AuditRetentionDays = auditRetentionDays
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// AllowsWarehouses reports whether the tenant may add another
// warehouse given its current count
func (p *Plan) AllowsWarehouses(current int64) bool {
	return p.MaxWarehouses == 0 || current < int64(p.MaxWarehouses)
}

// AllowsOrder reports whether the tenant may confirm another order
// this month given the count so far
func (p *Plan) AllowsOrder(confirmedThisMonth int64) bool {
	return p.MaxOrdersPerMonth == 0 || confirmedThisMonth < int64(p.MaxOrdersPerMonth)
}

// SubscriptionStatus mirrors the billing provider's subscription state
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing  SubscriptionStatus = "trialing"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription links a tenant to a plan and tracks the billing state
// driven by provider webhooks
type Subscription struct {
	shared.BaseAggregateRoot
	TenantID          uuid.UUID
	PlanID            uuid.UUID
	Status            SubscriptionStatus
	PeriodStart       time.Time
	PeriodEnd         time.Time
	StripeCustomerID  string
	StripeSubID       string
	CancelAtPeriodEnd bool
}

// NewSubscription starts a subscription in trialing
func NewSubscription(tenantID, planID uuid.UUID, periodStart, periodEnd time.Time) (*Subscription, error) {
	if tenantID == uuid.Nil || planID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Tenant and plan are required")
	}
	if !periodEnd.After(periodStart) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Period end must be after period start")
	}
	return &Subscription{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TenantID:          tenantID,
		PlanID:            planID,
		Status:            SubscriptionStatusTrialing,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
	}, nil
}

// LinkStripe attaches the provider identifiers after checkout
func (s *Subscription) LinkStripe(customerID, subscriptionID string) {
	s.StripeCustomerID = customerID
	s.StripeSubID = subscriptionID
	s.UpdatedAt = time.Now().UTC()
}

// ApplyProviderStatus transitions the subscription from a webhook.
// Unknown statuses are rejected so a provider change surfaces loudly.
func (s *Subscription) ApplyProviderStatus(status SubscriptionStatus, periodStart, periodEnd time.Time) error {
	switch status {
	case SubscriptionStatusTrialing, SubscriptionStatusActive, SubscriptionStatusPastDue, SubscriptionStatusCancelled:
	default:
		return shared.NewDomainErrorf("INVALID_INPUT", "Unknown subscription status %q", status)
	}
	s.Status = status
	if !periodStart.IsZero() {
		s.PeriodStart = periodStart
	}
	if !periodEnd.IsZero() {
		s.PeriodEnd = periodEnd
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// RequestCancellation flags the subscription to lapse at period end
func (s *Subscription) RequestCancellation() error {
	if s.Status == SubscriptionStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Subscription is already cancelled")
	}
	s.CancelAtPeriodEnd = true
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// IsUsable reports whether the subscription entitles the tenant to
// service. Past-due keeps working until the provider cancels.
func (s *Subscription) IsUsable() bool {
	return s.Status == SubscriptionStatusTrialing || s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusPastDue
}
