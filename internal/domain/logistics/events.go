package logistics

import (
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types published by the logistics aggregates
const (
	EventTripCreated      = "trip.created"
	EventTripDeparted     = "trip.departed"
	EventTripCompleted    = "trip.completed"
	EventTripCancelled    = "trip.cancelled"
	EventDeliveryRecorded = "delivery.recorded"
)

// TripCreatedEvent is raised when a trip enters planning
type TripCreatedEvent struct {
	shared.BaseDomainEvent
	TripNumber  string
	VehicleID   uuid.UUID
	DriverID    uuid.UUID
	PlannedDate time.Time
}

// NewTripCreatedEvent creates a TripCreatedEvent
func NewTripCreatedEvent(t *Trip) *TripCreatedEvent {
	return &TripCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTripCreated, "trip", t.ID, t.TenantID),
		TripNumber:      t.TripNumber,
		VehicleID:       t.VehicleID,
		DriverID:        t.DriverID,
		PlannedDate:     t.PlannedDate,
	}
}

// TripDepartedEvent is raised when the loaded truck leaves the yard
type TripDepartedEvent struct {
	shared.BaseDomainEvent
	TripNumber string
	StopCount  int
}

// NewTripDepartedEvent creates a TripDepartedEvent
func NewTripDepartedEvent(t *Trip) *TripDepartedEvent {
	return &TripDepartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTripDeparted, "trip", t.ID, t.TenantID),
		TripNumber:      t.TripNumber,
		StopCount:       len(t.Stops),
	}
}

// TripCompletedEvent is raised when the truck returns and unloads
type TripCompletedEvent struct {
	shared.BaseDomainEvent
	TripNumber string
}

// NewTripCompletedEvent creates a TripCompletedEvent
func NewTripCompletedEvent(t *Trip) *TripCompletedEvent {
	return &TripCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTripCompleted, "trip", t.ID, t.TenantID),
		TripNumber:      t.TripNumber,
	}
}

// TripCancelledEvent is raised when a trip is aborted before departure
type TripCancelledEvent struct {
	shared.BaseDomainEvent
	TripNumber string
	Reason     string
}

// NewTripCancelledEvent creates a TripCancelledEvent
func NewTripCancelledEvent(t *Trip, reason string) *TripCancelledEvent {
	return &TripCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTripCancelled, "trip", t.ID, t.TenantID),
		TripNumber:      t.TripNumber,
		Reason:          reason,
	}
}

// DeliveryRecordedEvent is raised when a proof-of-delivery is captured
type DeliveryRecordedEvent struct {
	shared.BaseDomainEvent
	DeliveryNumber string
	TripID         uuid.UUID
	OrderID        uuid.UUID
	CustomerID     uuid.UUID
	Short          bool
}

// NewDeliveryRecordedEvent creates a DeliveryRecordedEvent
func NewDeliveryRecordedEvent(d *Delivery) *DeliveryRecordedEvent {
	return &DeliveryRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventDeliveryRecorded, "delivery", d.ID, d.TenantID),
		DeliveryNumber:  d.DeliveryNumber,
		TripID:          d.TripID,
		OrderID:         d.OrderID,
		CustomerID:      d.CustomerID,
		Short:           d.IsShort(),
	}
}
