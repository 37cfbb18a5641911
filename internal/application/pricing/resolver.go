package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/gasflow/backend/internal/domain/customer"
	"github.com/gasflow/backend/internal/domain/pricing"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PriceSource tells where a resolved price came from
type PriceSource string

const (
	SourceCustomerList PriceSource = "customer_list"
	SourceDefaultList  PriceSource = "default_list"
	SourceVariant      PriceSource = "variant_default"
)

// ResolvedPrice is the outcome of price resolution for one line
type ResolvedPrice struct {
	UnitPrice   decimal.Decimal
	Currency    string
	Source      PriceSource
	PriceListID *uuid.UUID
}

// Resolver resolves unit prices in order: the customer's assigned
// list, the tenant's default list, then the variant's fallback price.
// Lists only resolve while active and within their validity window.
type Resolver struct {
	priceLists pricing.Repository
	logger     *zap.Logger
}

// NewResolver creates a new price resolver
func NewResolver(priceLists pricing.Repository, logger *zap.Logger) *Resolver {
	return &Resolver{
		priceLists: priceLists,
		logger:     logger,
	}
}

// Resolve returns the unit price for the variant at the given quantity
// and pricing date. Misses fall through each source; a final miss is a
// price-not-resolved error.
func (r *Resolver) Resolve(ctx context.Context, cust *customer.Customer, variant *catalog.Variant, qty decimal.Decimal, at time.Time) (*ResolvedPrice, error) {
	if cust.PriceListID != nil {
		list, err := r.priceLists.FindByID(ctx, cust.TenantID, *cust.PriceListID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if list != nil && list.IsValidAt(at) {
			if item := list.PriceFor(variant.ID, qty); item != nil {
				return &ResolvedPrice{
					UnitPrice:   item.UnitPrice,
					Currency:    list.Currency,
					Source:      SourceCustomerList,
					PriceListID: &list.ID,
				}, nil
			}
		}
	}

	def, err := r.priceLists.FindDefault(ctx, cust.TenantID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if def != nil && def.IsValidAt(at) {
		if item := def.PriceFor(variant.ID, qty); item != nil {
			return &ResolvedPrice{
				UnitPrice:   item.UnitPrice,
				Currency:    def.Currency,
				Source:      SourceDefaultList,
				PriceListID: &def.ID,
			}, nil
		}
	}

	if variant.DefaultPrice.IsPositive() {
		return &ResolvedPrice{
			UnitPrice: variant.DefaultPrice,
			Currency:  r.fallbackCurrency(def),
			Source:    SourceVariant,
		}, nil
	}

	r.logger.Debug("price not resolved",
		zap.String("tenant_id", cust.TenantID.String()),
		zap.String("variant_id", variant.ID.String()),
		zap.String("sku", variant.SKU),
	)
	return nil, shared.ErrPriceNotResolved
}

// fallbackCurrency uses the default list's currency for variant
// fallback prices, since variants carry no currency of their own
func (r *Resolver) fallbackCurrency(def *pricing.PriceList) string {
	if def != nil {
		return def.Currency
	}
	return ""
}
