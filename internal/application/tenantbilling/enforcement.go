package tenantbilling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/gasflow/backend/internal/domain/order"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/gasflow/backend/internal/domain/tenant"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entitlements enforces plan limits. Tenants without a subscription
// are not limited; zero limits on a plan mean unlimited.
type Entitlements struct {
	subscriptions tenant.SubscriptionRepository
	plans         tenant.PlanRepository
	warehouses    inventory.WarehouseRepository
	orders        order.Repository
	logger        *zap.Logger
}

// NewEntitlements creates a new entitlements checker
func NewEntitlements(
	subscriptions tenant.SubscriptionRepository,
	plans tenant.PlanRepository,
	warehouses inventory.WarehouseRepository,
	orders order.Repository,
	logger *zap.Logger,
) *Entitlements {
	return &Entitlements{
		subscriptions: subscriptions,
		plans:         plans,
		warehouses:    warehouses,
		orders:        orders,
		logger:        logger,
	}
}

// CheckWarehouseQuota fails with ErrQuotaExceeded when activating one
// more warehouse would exceed the plan limit
func (e *Entitlements) CheckWarehouseQuota(ctx context.Context, tenantID uuid.UUID) error {
	plan, err := e.resolvePlan(ctx, tenantID)
	if err != nil {
		return err
	}
	if plan == nil || plan.MaxWarehouses == 0 {
		return nil
	}

	count, err := e.warehouses.CountActive(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to count warehouses: %w", err)
	}
	if !plan.AllowsWarehouses(count) {
		return shared.ErrQuotaExceeded
	}
	return nil
}

// CheckOrderQuota fails with ErrQuotaExceeded when confirming one more
// order would exceed the plan's monthly limit
func (e *Entitlements) CheckOrderQuota(ctx context.Context, tenantID uuid.UUID, at time.Time) error {
	plan, err := e.resolvePlan(ctx, tenantID)
	if err != nil {
		return err
	}
	if plan == nil || plan.MaxOrdersPerMonth == 0 {
		return nil
	}

	from := tenant.PeriodFor(at)
	to := from.AddDate(0, 1, 0)
	count, err := e.orders.CountConfirmedInPeriod(ctx, tenantID, from, to)
	if err != nil {
		return fmt.Errorf("failed to count confirmed orders: %w", err)
	}
	if !plan.AllowsOrder(count) {
		return shared.ErrQuotaExceeded
	}
	return nil
}

// resolvePlan returns the tenant's current plan, or nil when the
// tenant has no usable subscription
func (e *Entitlements) resolvePlan(ctx context.Context, tenantID uuid.UUID) (*tenant.Plan, error) {
	sub, err := e.subscriptions.FindByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve subscription: %w", err)
	}
	if !sub.IsUsable() {
		return nil, nil
	}

	plan, err := e.plans.FindByID(ctx, sub.PlanID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			e.logger.Warn("subscription references missing plan",
				zap.String("tenant_id", tenantID.String()),
				zap.String("plan_id", sub.PlanID.String()),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve plan: %w", err)
	}
	return plan, nil
}
