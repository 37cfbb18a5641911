// Package catalog manages the product and variant master data: the
// cylinders, gas, deposits and bundles a tenant sells.
package catalog

import (
	"context"
	"fmt"

	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements catalog use cases
type Service struct {
	products  catalog.ProductRepository
	variants  catalog.VariantRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewService creates a new catalog service
func NewService(
	products catalog.ProductRepository,
	variants catalog.VariantRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		products:  products,
		variants:  variants,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateProduct registers a new product. Codes are unique per tenant.
func (s *Service) CreateProduct(ctx context.Context, tenantID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	p, err := catalog.NewProduct(tenantID, req.Code, req.Name, req.Category)
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		p.Description = req.Description
	}

	exists, err := s.products.ExistsByCode(ctx, tenantID, p.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check code uniqueness: %w", err)
	}
	if exists {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Product with code %q already exists", p.Code)
	}

	if err := s.products.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	s.logger.Info("product created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("product_id", p.ID.String()),
		zap.String("code", p.Code),
	)
	return ToProductResponse(p), nil
}

// UpdateProduct changes the mutable product fields
func (s *Service) UpdateProduct(ctx context.Context, tenantID, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	p, err := s.products.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := p.Update(req.Name, req.Category, req.Description); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	return ToProductResponse(p), nil
}

// DiscontinueProduct retires a product from the catalog
func (s *Service) DiscontinueProduct(ctx context.Context, tenantID, id uuid.UUID) (*ProductResponse, error) {
	p, err := s.products.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := p.Discontinue(); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	return ToProductResponse(p), nil
}

// GetProduct returns one product
func (s *Service) GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*ProductResponse, error) {
	p, err := s.products.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToProductResponse(p), nil
}

// ListProducts returns a page of products
func (s *Service) ListProducts(ctx context.Context, tenantID uuid.UUID, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
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
	if filter.Category != "" {
		f.Filters["category"] = filter.Category
	}
	f.Normalize()

	products, err := s.products.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	total, err := s.products.Count(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = *ToProductResponse(&products[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// CreateVariant registers a new variant. SKUs are unique per tenant;
// kind-specific fields are validated by the aggregate.
func (s *Service) CreateVariant(ctx context.Context, tenantID uuid.UUID, req CreateVariantRequest) (*VariantResponse, error) {
	product, err := s.products.FindByID(ctx, tenantID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add variants to a discontinued product")
	}

	v, err := catalog.NewVariant(tenantID, product.ID, req.SKU, req.Name, catalog.VariantKind(req.Kind), catalog.Unit(req.Unit))
	if err != nil {
		return nil, err
	}

	exists, err := s.variants.ExistsBySKU(ctx, tenantID, v.SKU)
	if err != nil {
		return nil, fmt.Errorf("failed to check SKU uniqueness: %w", err)
	}
	if exists {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Variant with SKU %q already exists", v.SKU)
	}

	if req.Barcode != "" {
		if err := v.Update(v.Name, req.Barcode); err != nil {
			return nil, err
		}
	}
	if req.DefaultPrice != nil {
		if err := v.SetDefaultPrice(*req.DefaultPrice); err != nil {
			return nil, err
		}
	}
	if req.TareWeightKg != nil && req.CapacityKg != nil {
		if err := v.SetCylinderSpec(*req.TareWeightKg, *req.CapacityKg); err != nil {
			return nil, err
		}
	}
	if len(req.Components) > 0 {
		if err := s.applyComponents(ctx, tenantID, v, req.Components); err != nil {
			return nil, err
		}
	}

	if err := s.variants.Save(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to save variant: %w", err)
	}
	s.publishEvents(ctx, v)

	s.logger.Info("variant created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("variant_id", v.ID.String()),
		zap.String("sku", v.SKU),
		zap.String("kind", string(v.Kind)),
	)
	return ToVariantResponse(v), nil
}

// UpdateVariant changes the mutable variant fields. Kind is immutable.
func (s *Service) UpdateVariant(ctx context.Context, tenantID, id uuid.UUID, req UpdateVariantRequest) (*VariantResponse, error) {
	v, err := s.variants.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := v.Update(req.Name, req.Barcode); err != nil {
		return nil, err
	}
	if req.DefaultPrice != nil {
		if err := v.SetDefaultPrice(*req.DefaultPrice); err != nil {
			return nil, err
		}
	}
	if req.TareWeightKg != nil && req.CapacityKg != nil {
		if err := v.SetCylinderSpec(*req.TareWeightKg, *req.CapacityKg); err != nil {
			return nil, err
		}
	}
	if err := s.variants.SaveWithLock(ctx, v); err != nil {
		return nil, err
	}
	return ToVariantResponse(v), nil
}

// DiscontinueVariant retires a variant. Stock rows survive so existing
// inventory can still be issued and returned.
func (s *Service) DiscontinueVariant(ctx context.Context, tenantID, id uuid.UUID) (*VariantResponse, error) {
	v, err := s.variants.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := v.Discontinue(); err != nil {
		return nil, err
	}
	if err := s.variants.SaveWithLock(ctx, v); err != nil {
		return nil, err
	}
	return ToVariantResponse(v), nil
}

// SetComponents replaces a bundle's composition
func (s *Service) SetComponents(ctx context.Context, tenantID, id uuid.UUID, req SetComponentsRequest) (*VariantResponse, error) {
	v, err := s.variants.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyComponents(ctx, tenantID, v, req.Components); err != nil {
		return nil, err
	}
	if err := s.variants.SaveWithLock(ctx, v); err != nil {
		return nil, err
	}
	return ToVariantResponse(v), nil
}

// applyComponents resolves the component variants and hands their kinds
// to the aggregate, which rejects nesting and unknown components
func (s *Service) applyComponents(ctx context.Context, tenantID uuid.UUID, v *catalog.Variant, inputs []BundleComponentInput) error {
	ids := make([]uuid.UUID, 0, len(inputs))
	components := make([]catalog.BundleComponent, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.VariantID)
		components = append(components, catalog.BundleComponent{
			ComponentVariantID: in.VariantID,
			Quantity:           in.Quantity,
		})
	}

	resolved, err := s.variants.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return fmt.Errorf("failed to resolve components: %w", err)
	}
	if len(resolved) != len(ids) {
		return shared.NewDomainError("INVALID_COMPONENTS", "One or more component variants do not exist")
	}
	kinds := make(map[uuid.UUID]catalog.VariantKind, len(resolved))
	for i := range resolved {
		kinds[resolved[i].ID] = resolved[i].Kind
	}
	return v.SetComponents(components, kinds)
}

// GetVariant returns one variant with its components
func (s *Service) GetVariant(ctx context.Context, tenantID, id uuid.UUID) (*VariantResponse, error) {
	v, err := s.variants.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToVariantResponse(v), nil
}

// GetVariantBySKU returns one variant by its SKU
func (s *Service) GetVariantBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*VariantResponse, error) {
	v, err := s.variants.FindBySKU(ctx, tenantID, sku)
	if err != nil {
		return nil, err
	}
	return ToVariantResponse(v), nil
}

// ListVariants returns a page of variants
func (s *Service) ListVariants(ctx context.Context, tenantID uuid.UUID, filter VariantListFilter) (*shared.Paginated[VariantResponse], error) {
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
	if filter.Kind != "" {
		f.Filters["kind"] = filter.Kind
	}
	if filter.ProductID != "" {
		f.Filters["product_id"] = filter.ProductID
	}
	f.Normalize()

	variants, err := s.variants.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	total, err := s.variants.Count(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to count variants: %w", err)
	}

	items := make([]VariantResponse, len(variants))
	for i := range variants {
		items[i] = *ToVariantResponse(&variants[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

func (s *Service) publishEvents(ctx context.Context, v *catalog.Variant) {
	events := v.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish catalog events",
			zap.String("variant_id", v.ID.String()),
			zap.Error(err),
		)
	}
	v.ClearDomainEvents()
}
