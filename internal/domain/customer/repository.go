package customer

import (
	"context"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository persists Customer aggregates. Implementations load and
// save the aggregate together with its addresses.
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Customer, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Customer, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)
	Save(ctx context.Context, c *Customer) error
	// SaveWithLock saves with an optimistic version check and returns
	// a concurrency-conflict error when the row was modified elsewhere.
	SaveWithLock(ctx context.Context, c *Customer) error
	// HasOrders reports whether any order references the customer.
	// Customers with order history cannot be deleted.
	HasOrders(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error)
}
