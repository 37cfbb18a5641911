package logistics

import (
	"context"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// VehicleRepository persists Vehicle aggregates
type VehicleRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Vehicle, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Vehicle, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Vehicle, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, v *Vehicle) error
}

// DriverRepository persists Driver aggregates
type DriverRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Driver, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Driver, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, d *Driver) error
}

// TripRepository persists Trip aggregates with their stops
type TripRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Trip, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, tripNumber string) (*Trip, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Trip, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// FindActiveByVehicle returns the open trip for a vehicle, if any.
	// A vehicle runs at most one trip in planning/loading/en_route.
	FindActiveByVehicle(ctx context.Context, tenantID, vehicleID uuid.UUID) (*Trip, error)
	FindByPlannedDate(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]Trip, error)
	Save(ctx context.Context, t *Trip) error
	SaveWithLock(ctx context.Context, t *Trip) error
}

// DeliveryRepository persists Delivery documents
type DeliveryRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Delivery, error)
	FindByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]Delivery, error)
	FindByTrip(ctx context.Context, tenantID, tripID uuid.UUID) ([]Delivery, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Delivery, error)
	Count(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, d *Delivery) error
}
