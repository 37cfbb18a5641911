// Package pricing manages price lists and resolves the unit price for
// an order line from the customer's list, the tenant default, or the
// variant's fallback price.
package pricing

import (
	"context"
	"fmt"

	"github.com/gasflow/backend/internal/domain/pricing"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements price list use cases
type Service struct {
	priceLists pricing.Repository
	logger     *zap.Logger
}

// NewService creates a new pricing service
func NewService(priceLists pricing.Repository, logger *zap.Logger) *Service {
	return &Service{
		priceLists: priceLists,
		logger:     logger,
	}
}

// Create registers a new price list. Codes are unique per tenant.
func (s *Service) Create(ctx context.Context, tenantID uuid.UUID, req CreatePriceListRequest) (*PriceListResponse, error) {
	p, err := pricing.NewPriceList(tenantID, req.Code, req.Name, req.Currency)
	if err != nil {
		return nil, err
	}
	if err := p.SetValidity(req.ValidFrom, req.ValidTo); err != nil {
		return nil, err
	}

	exists, err := s.priceLists.ExistsByCode(ctx, tenantID, p.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check code uniqueness: %w", err)
	}
	if exists {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Price list with code %q already exists", p.Code)
	}

	if err := s.priceLists.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save price list: %w", err)
	}
	s.logger.Info("price list created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("price_list_id", p.ID.String()),
		zap.String("code", p.Code),
	)
	return ToPriceListResponse(p), nil
}

// Update changes the list header fields
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdatePriceListRequest) (*PriceListResponse, error) {
	p, err := s.priceLists.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.ValidFrom != nil || req.ValidTo != nil {
		from, to := p.ValidFrom, p.ValidTo
		if req.ValidFrom != nil {
			from = req.ValidFrom
		}
		if req.ValidTo != nil {
			to = req.ValidTo
		}
		if err := p.SetValidity(from, to); err != nil {
			return nil, err
		}
	}
	if err := s.priceLists.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save price list: %w", err)
	}
	return ToPriceListResponse(p), nil
}

// Get returns one price list with its items
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*PriceListResponse, error) {
	p, err := s.priceLists.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToPriceListResponse(p), nil
}

// List returns a page of price lists
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) (*shared.Paginated[PriceListResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  map[string]interface{}{},
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	f.Normalize()

	lists, err := s.priceLists.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list price lists: %w", err)
	}
	total, err := s.priceLists.Count(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count price lists: %w", err)
	}

	items := make([]PriceListResponse, len(lists))
	for i := range lists {
		items[i] = *ToPriceListResponse(&lists[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// UpsertItem inserts or replaces a price break
func (s *Service) UpsertItem(ctx context.Context, tenantID, id uuid.UUID, req UpsertItemRequest) (*PriceListResponse, error) {
	p, err := s.priceLists.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := p.UpsertItem(req.VariantID, req.MinQuantity, req.UnitPrice); err != nil {
		return nil, err
	}
	if err := s.priceLists.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save price list: %w", err)
	}
	return ToPriceListResponse(p), nil
}

// RemoveItem removes a price break
func (s *Service) RemoveItem(ctx context.Context, tenantID, id, itemID uuid.UUID) (*PriceListResponse, error) {
	p, err := s.priceLists.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := p.RemoveItem(itemID); err != nil {
		return nil, err
	}
	if err := s.priceLists.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save price list: %w", err)
	}
	return ToPriceListResponse(p), nil
}

// Archive retires the list. Archived lists never resolve prices.
func (s *Service) Archive(ctx context.Context, tenantID, id uuid.UUID) (*PriceListResponse, error) {
	p, err := s.priceLists.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := p.Archive(); err != nil {
		return nil, err
	}
	if err := s.priceLists.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save price list: %w", err)
	}
	return ToPriceListResponse(p), nil
}

// SetDefault marks the list as the tenant default, unsetting any
// previous default
func (s *Service) SetDefault(ctx context.Context, tenantID, id uuid.UUID) (*PriceListResponse, error) {
	p, err := s.priceLists.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := p.MarkDefault(); err != nil {
		return nil, err
	}
	if err := s.priceLists.ClearDefault(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("failed to clear previous default: %w", err)
	}
	if err := s.priceLists.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save price list: %w", err)
	}
	s.logger.Info("default price list changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("price_list_id", p.ID.String()),
	)
	return ToPriceListResponse(p), nil
}
