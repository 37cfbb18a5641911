// Package tenantbilling provisions tenants, manages their plan
// subscriptions through the billing provider, and issues the API keys
// used on the ingest surface.
package tenantbilling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/gasflow/backend/internal/domain/tenant"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// touchInterval throttles last_used_at writes during key verification
const touchInterval = time.Minute

// Service coordinates tenant lifecycle, subscriptions and API keys
type Service struct {
	tenants       tenant.Repository
	plans         tenant.PlanRepository
	subscriptions tenant.SubscriptionRepository
	apiKeys       tenant.APIKeyRepository
	usage         tenant.UsageRepository
	gateway       BillingGateway
	cipher        APIKeyCipher
	logger        *zap.Logger
}

// NewService creates a new tenant billing service
func NewService(
	tenants tenant.Repository,
	plans tenant.PlanRepository,
	subscriptions tenant.SubscriptionRepository,
	apiKeys tenant.APIKeyRepository,
	usage tenant.UsageRepository,
	gateway BillingGateway,
	cipher APIKeyCipher,
	logger *zap.Logger,
) *Service {
	return &Service{
		tenants:       tenants,
		plans:         plans,
		subscriptions: subscriptions,
		apiKeys:       apiKeys,
		usage:         usage,
		gateway:       gateway,
		cipher:        cipher,
		logger:        logger,
	}
}

// ProvisionTenant creates a new tenant. Slugs are unique across the
// platform.
func (s *Service) ProvisionTenant(ctx context.Context, req ProvisionTenantRequest) (*TenantResponse, error) {
	t, err := tenant.NewTenant(req.Name, req.Slug)
	if err != nil {
		return nil, err
	}

	existing, err := s.tenants.FindBySlug(ctx, t.Slug)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check slug uniqueness: %w", err)
	}
	if existing != nil {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Tenant with slug %q already exists", t.Slug)
	}

	if err := s.tenants.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save tenant: %w", err)
	}

	s.logger.Info("tenant provisioned",
		zap.String("tenant_id", t.ID.String()),
		zap.String("slug", t.Slug),
	)
	return ToTenantResponse(t), nil
}

// GetTenant returns one tenant by ID
func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (*TenantResponse, error) {
	t, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToTenantResponse(t), nil
}

// SuspendTenant blocks all tenant traffic
func (s *Service) SuspendTenant(ctx context.Context, id uuid.UUID) (*TenantResponse, error) {
	t, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Suspend(); err != nil {
		return nil, err
	}
	if err := s.tenants.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save tenant: %w", err)
	}
	return ToTenantResponse(t), nil
}

// ReactivateTenant restores a suspended tenant
func (s *Service) ReactivateTenant(ctx context.Context, id uuid.UUID) (*TenantResponse, error) {
	t, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Reactivate(); err != nil {
		return nil, err
	}
	if err := s.tenants.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save tenant: %w", err)
	}
	return ToTenantResponse(t), nil
}

// ListPlans returns the subscribable plans
func (s *Service) ListPlans(ctx context.Context) ([]PlanResponse, error) {
	plans, err := s.plans.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	out := make([]PlanResponse, len(plans))
	for i := range plans {
		out[i] = *ToPlanResponse(&plans[i])
	}
	return out, nil
}

// Subscribe registers the tenant with the billing provider and starts
// a subscription on the requested plan
func (s *Service) Subscribe(ctx context.Context, tenantID uuid.UUID, req SubscribeRequest) (*SubscriptionResponse, error) {
	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	plan, err := s.plans.FindByCode(ctx, req.PlanCode)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, shared.NewDomainErrorf("INVALID_STATE", "Plan %q is not subscribable", plan.Code)
	}
	if plan.StripePriceID == "" {
		return nil, shared.NewDomainErrorf("INVALID_STATE", "Plan %q has no billing price configured", plan.Code)
	}

	existing, err := s.subscriptions.FindByTenant(ctx, tenantID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing subscription: %w", err)
	}
	if existing != nil && existing.IsUsable() {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Tenant already has an active subscription")
	}

	now := time.Now().UTC()
	sub, err := tenant.NewSubscription(tenantID, plan.ID, now, now.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}

	customerID, err := s.gateway.CreateCustomer(ctx, t.Name, t.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to create billing customer: %w", err)
	}

	remote, err := s.gateway.CreateSubscription(ctx, customerID, plan.StripePriceID)
	if err != nil {
		return nil, fmt.Errorf("failed to create billing subscription: %w", err)
	}

	sub.LinkStripe(customerID, remote.ID)
	if remote.Status != "" {
		if err := sub.ApplyProviderStatus(tenant.SubscriptionStatus(remote.Status), remote.PeriodStart, remote.PeriodEnd); err != nil {
			return nil, err
		}
	}

	if err := s.subscriptions.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	s.logger.Info("tenant subscribed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("plan", plan.Code),
		zap.String("stripe_sub_id", remote.ID),
	)
	return ToSubscriptionResponse(sub), nil
}

// GetSubscription returns the tenant's subscription
func (s *Service) GetSubscription(ctx context.Context, tenantID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.subscriptions.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToSubscriptionResponse(sub), nil
}

// CancelSubscription flags the subscription to lapse at period end.
// The tenant keeps service until the provider reports cancellation.
func (s *Service) CancelSubscription(ctx context.Context, tenantID uuid.UUID) (*SubscriptionResponse, error) {
	sub, err := s.subscriptions.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := sub.RequestCancellation(); err != nil {
		return nil, err
	}
	if sub.StripeSubID != "" {
		if err := s.gateway.CancelAtPeriodEnd(ctx, sub.StripeSubID); err != nil {
			return nil, fmt.Errorf("failed to cancel billing subscription: %w", err)
		}
	}
	if err := s.subscriptions.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}
	return ToSubscriptionResponse(sub), nil
}

// HandleWebhook verifies and applies one provider notification.
// Replays are deduplicated on the provider event ID; unknown event
// types and unknown subscriptions are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")
	}

	alreadySeen, err := s.usage.ProcessedWebhook(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	if alreadySeen {
		s.logger.Debug("duplicate webhook ignored", zap.String("event_id", event.ID))
		return nil
	}

	if event.SubscriptionID == "" || event.Status == "" {
		s.logger.Debug("webhook type ignored",
			zap.String("event_id", event.ID),
			zap.String("type", event.Type),
		)
		return nil
	}

	sub, err := s.subscriptions.FindByStripeSubID(ctx, event.SubscriptionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("webhook for unknown subscription",
				zap.String("event_id", event.ID),
				zap.String("stripe_sub_id", event.SubscriptionID),
			)
			return nil
		}
		return err
	}

	status := tenant.SubscriptionStatus(event.Status)
	if err := sub.ApplyProviderStatus(status, event.PeriodStart, event.PeriodEnd); err != nil {
		return err
	}
	sub.CancelAtPeriodEnd = event.CancelAtPeriodEnd
	if err := s.subscriptions.Save(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	if status == tenant.SubscriptionStatusCancelled {
		s.suspendForLapsedBilling(ctx, sub.TenantID)
	}

	s.logger.Info("subscription updated from webhook",
		zap.String("event_id", event.ID),
		zap.String("tenant_id", sub.TenantID.String()),
		zap.String("status", string(status)),
	)
	return nil
}

// suspendForLapsedBilling suspends the tenant when the provider
// cancels the subscription. Already-suspended tenants are left alone.
func (s *Service) suspendForLapsedBilling(ctx context.Context, tenantID uuid.UUID) {
	t, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		s.logger.Error("failed to load tenant for suspension",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return
	}
	if !t.IsActive() {
		return
	}
	if err := t.Suspend(); err != nil {
		return
	}
	if err := s.tenants.Save(ctx, t); err != nil {
		s.logger.Error("failed to suspend tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return
	}
	s.logger.Warn("tenant suspended for lapsed billing",
		zap.String("tenant_id", tenantID.String()),
	)
}

// CreateAPIKey issues a new key. The plaintext token is returned once
// and never stored.
func (s *Service) CreateAPIKey(ctx context.Context, tenantID uuid.UUID, req CreateAPIKeyRequest) (*APIKeyCreatedResponse, error) {
	token, prefix, secretHash, err := s.cipher.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}

	key, err := tenant.NewAPIKey(tenantID, req.Name, prefix, secretHash)
	if err != nil {
		return nil, err
	}
	if err := s.apiKeys.Save(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to save API key: %w", err)
	}

	s.logger.Info("API key created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("prefix", prefix),
	)
	return &APIKeyCreatedResponse{
		ID:     key.ID,
		Name:   key.Name,
		Prefix: key.Prefix,
		Token:  token,
	}, nil
}

// ListAPIKeys returns the tenant's keys without secrets
func (s *Service) ListAPIKeys(ctx context.Context, tenantID uuid.UUID) ([]APIKeyResponse, error) {
	keys, err := s.apiKeys.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	out := make([]APIKeyResponse, len(keys))
	for i := range keys {
		out[i] = *ToAPIKeyResponse(&keys[i])
	}
	return out, nil
}

// RevokeAPIKey permanently disables a key
func (s *Service) RevokeAPIKey(ctx context.Context, tenantID, keyID uuid.UUID) error {
	key, err := s.apiKeys.FindByID(ctx, tenantID, keyID)
	if err != nil {
		return err
	}
	if err := key.Revoke(); err != nil {
		return err
	}
	if err := s.apiKeys.Save(ctx, key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	s.logger.Info("API key revoked",
		zap.String("tenant_id", tenantID.String()),
		zap.String("prefix", key.Prefix),
	)
	return nil
}

// VerifyAPIKey authenticates a presented token and returns its key.
// The tenant must be active. Last use is stamped at most once per
// minute so verification stays read-mostly.
func (s *Service) VerifyAPIKey(ctx context.Context, token string) (*tenant.APIKey, error) {
	prefix, secret, err := s.cipher.Split(token)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}

	key, err := s.apiKeys.FindByPrefix(ctx, prefix)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}
	if key.IsRevoked() || !s.cipher.Verify(key.SecretHash, secret) {
		return nil, shared.ErrUnauthorized
	}

	t, err := s.tenants.FindByID(ctx, key.TenantID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive() {
		return nil, shared.ErrForbidden
	}

	if key.TouchUsed(touchInterval) {
		if err := s.apiKeys.Save(ctx, key); err != nil {
			s.logger.Warn("failed to stamp API key last use",
				zap.String("prefix", key.Prefix),
				zap.Error(err),
			)
		}
	}
	return key, nil
}

// GetUsage returns the tenant's usage counters for one billing period
func (s *Service) GetUsage(ctx context.Context, tenantID uuid.UUID, period time.Time) ([]UsageResponse, error) {
	records, err := s.usage.FindByTenantPeriod(ctx, tenantID, tenant.PeriodFor(period))
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}
	out := make([]UsageResponse, len(records))
	for i := range records {
		out[i] = UsageResponse{
			Metric:   string(records[i].Metric),
			Quantity: records[i].Quantity,
			Period:   records[i].Period,
		}
	}
	return out, nil
}
