package billing

import (
	"context"

	"github.com/gasflow/backend/internal/application/tenantbilling"
	"github.com/gasflow/backend/internal/domain/shared"
)

// DisabledGateway stands in when no Stripe key is configured. Tenants
// can be provisioned and run on the free plan; any paid operation
// fails cleanly.
type DisabledGateway struct{}

// NewDisabledGateway creates a gateway that rejects paid operations
func NewDisabledGateway() *DisabledGateway {
	return &DisabledGateway{}
}

func (g *DisabledGateway) CreateCustomer(ctx context.Context, name, slug string) (string, error) {
	return "", shared.NewDomainError("INVALID_STATE", "Billing is not configured")
}

func (g *DisabledGateway) CreateSubscription(ctx context.Context, customerID, priceID string) (*tenantbilling.GatewaySubscription, error) {
	return nil, shared.NewDomainError("INVALID_STATE", "Billing is not configured")
}

func (g *DisabledGateway) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	return shared.NewDomainError("INVALID_STATE", "Billing is not configured")
}

func (g *DisabledGateway) VerifyWebhook(payload []byte, signature string) (*tenantbilling.WebhookEvent, error) {
	return nil, shared.NewDomainError("INVALID_STATE", "Billing is not configured")
}

// Ensure DisabledGateway implements the application port
var _ tenantbilling.BillingGateway = (*DisabledGateway)(nil)
