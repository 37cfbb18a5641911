package tenantbilling

import (
	"context"
	"time"
)

// GatewaySubscription is the provider-side view of a subscription
type GatewaySubscription struct {
	ID          string
	CustomerID  string
	Status      string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// WebhookEvent is one verified provider notification
type WebhookEvent struct {
	ID                string
	Type              string
	SubscriptionID    string
	Status            string
	PeriodStart       time.Time
	PeriodEnd         time.Time
	CancelAtPeriodEnd bool
}

// BillingGateway abstracts the payment provider. The Stripe
// implementation lives in infrastructure/billing.
type BillingGateway interface {
	// CreateCustomer registers the tenant with the provider and returns
	// the provider customer ID
	CreateCustomer(ctx context.Context, name, slug string) (string, error)
	// CreateSubscription subscribes a provider customer to a price
	CreateSubscription(ctx context.Context, customerID, priceID string) (*GatewaySubscription, error)
	// CancelAtPeriodEnd flags the subscription to lapse at period end
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
	// VerifyWebhook checks the signature and parses the notification
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
