package catalog

import (
	"context"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository persists Product aggregates
type ProductRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Product, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Product, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, p *Product) error
}

// VariantRepository persists Variant aggregates together with their
// bundle components
type VariantRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Variant, error)
	FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*Variant, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Variant, error)
	FindByProduct(ctx context.Context, tenantID, productID uuid.UUID) ([]Variant, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Variant, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error)
	Save(ctx context.Context, v *Variant) error
	SaveWithLock(ctx context.Context, v *Variant) error
}
