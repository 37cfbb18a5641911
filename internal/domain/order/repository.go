package order

import (
	"context"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository persists Order aggregates with their lines
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*Order, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Order, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Order, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// CountConfirmedInPeriod counts orders confirmed inside [from, to).
	// Used for the monthly plan quota check.
	CountConfirmedInPeriod(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (int64, error)
	ExistsForCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error)
	Save(ctx context.Context, o *Order) error
	SaveWithLock(ctx context.Context, o *Order) error
}
