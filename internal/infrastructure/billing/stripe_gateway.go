// Package billing implements the payment provider gateway on Stripe.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gasflow/backend/internal/application/tenantbilling"
	"github.com/gasflow/backend/internal/infrastructure/config"
	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// StripeGateway implements the billing gateway against the Stripe API
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

// NewStripeGateway creates a new StripeGateway
func NewStripeGateway(cfg config.BillingConfig, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.StripeSecretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)
	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.StripeWebhookSecret,
		logger:        logger,
	}, nil
}

// CreateCustomer registers the tenant as a Stripe customer
func (g *StripeGateway) CreateCustomer(ctx context.Context, name, slug string) (string, error) {
	params := &stripe.CustomerParams{
		Name: stripe.String(name),
		Metadata: map[string]string{
			"tenant_slug": slug,
		},
	}
	params.Context = ctx

	customer, err := g.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}
	return customer.ID, nil
}

// CreateSubscription subscribes a Stripe customer to a price
func (g *StripeGateway) CreateSubscription(ctx context.Context, customerID, priceID string) (*tenantbilling.GatewaySubscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	params.Context = ctx

	sub, err := g.api.Subscriptions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe subscription: %w", err)
	}
	return &tenantbilling.GatewaySubscription{
		ID:          sub.ID,
		CustomerID:  customerID,
		Status:      mapSubscriptionStatus(sub.Status),
		PeriodStart: time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		PeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}, nil
}

// CancelAtPeriodEnd flags the subscription to lapse at period end
func (g *StripeGateway) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	if _, err := g.api.Subscriptions.Update(subscriptionID, params); err != nil {
		return fmt.Errorf("failed to cancel stripe subscription: %w", err)
	}
	return nil
}

// VerifyWebhook checks the Stripe signature and translates the event.
// Event types that do not carry a subscription come back with an empty
// SubscriptionID so the caller can acknowledge and ignore them.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*tenantbilling.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook verification failed: %w", err)
	}

	out := &tenantbilling.WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	switch event.Type {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to parse subscription event: %w", err)
		}
		out.SubscriptionID = sub.ID
		out.Status = mapSubscriptionStatus(sub.Status)
		out.PeriodStart = time.Unix(sub.CurrentPeriodStart, 0).UTC()
		out.PeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		out.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		if event.Type == "customer.subscription.deleted" {
			out.Status = "cancelled"
		}
	default:
		g.logger.Debug("unhandled stripe event type", zap.String("type", string(event.Type)))
	}
	return out, nil
}

// mapSubscriptionStatus translates Stripe statuses to the domain's
// four-state model
func mapSubscriptionStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusTrialing:
		return "trialing"
	case stripe.SubscriptionStatusActive:
		return "active"
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusIncomplete:
		return "past_due"
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return "cancelled"
	default:
		return ""
	}
}

// Ensure StripeGateway implements the application port
var _ tenantbilling.BillingGateway = (*StripeGateway)(nil)
