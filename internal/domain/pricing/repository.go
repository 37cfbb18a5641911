package pricing

import (
	"context"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository persists PriceList aggregates with their items
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*PriceList, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*PriceList, error)
	FindDefault(ctx context.Context, tenantID uuid.UUID) (*PriceList, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PriceList, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, p *PriceList) error
	// ClearDefault unsets the default flag on every list of the tenant.
	// Used before marking a new default in the same transaction.
	ClearDefault(ctx context.Context, tenantID uuid.UUID) error
}
