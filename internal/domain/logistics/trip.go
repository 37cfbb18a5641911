package logistics

import (
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TripStatus represents where a trip is in its lifecycle
type TripStatus string

const (
	TripStatusPlanning  TripStatus = "planning"
	TripStatusLoading   TripStatus = "loading"
	TripStatusEnRoute   TripStatus = "en_route"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// StopStatus represents the outcome of a single stop
type StopStatus string

const (
	StopStatusPending   StopStatus = "pending"
	StopStatusDelivered StopStatus = "delivered"
	StopStatusFailed    StopStatus = "failed"
	StopStatusSkipped   StopStatus = "skipped"
)

// IsTerminal returns true once the stop outcome is recorded
func (s StopStatus) IsTerminal() bool {
	return s == StopStatusDelivered || s == StopStatusFailed || s == StopStatusSkipped
}

// TripStop is one order scheduled on a trip, in visit sequence
type TripStop struct {
	ID         uuid.UUID
	TripID     uuid.UUID
	OrderID    uuid.UUID
	Sequence   int
	Status     StopStatus
	DeliveryID *uuid.UUID
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Trip is one vehicle run: load at a warehouse, visit stops in
// sequence, unload whatever came back
type Trip struct {
	shared.TenantAggregateRoot
	TripNumber  string
	VehicleID   uuid.UUID
	DriverID    uuid.UUID
	WarehouseID uuid.UUID
	Status      TripStatus
	PlannedDate time.Time
	DepartedAt  *time.Time
	CompletedAt *time.Time
	LoadDocID   *uuid.UUID
	UnloadDocID *uuid.UUID
	Notes       string
	Stops       []TripStop
}

var tripTransitions = map[TripStatus][]TripStatus{
	TripStatusPlanning:  {TripStatusLoading, TripStatusCancelled},
	TripStatusLoading:   {TripStatusEnRoute, TripStatusCancelled},
	TripStatusEnRoute:   {TripStatusCompleted},
	TripStatusCompleted: {},
	TripStatusCancelled: {},
}

// CanTransitionTo reports whether the status change is legal
func (s TripStatus) CanTransitionTo(target TripStatus) bool {
	for _, allowed := range tripTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// NewTrip creates a trip in planning
func NewTrip(tenantID uuid.UUID, tripNumber string, vehicleID, driverID, warehouseID uuid.UUID, plannedDate time.Time) (*Trip, error) {
	if strings.TrimSpace(tripNumber) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Trip number cannot be empty")
	}
	if vehicleID == uuid.Nil || driverID == uuid.Nil || warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Vehicle, driver and warehouse are required")
	}
	t := &Trip{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		TripNumber:          tripNumber,
		VehicleID:           vehicleID,
		DriverID:            driverID,
		WarehouseID:         warehouseID,
		Status:              TripStatusPlanning,
		PlannedDate:         plannedDate,
	}
	t.AddDomainEvent(NewTripCreatedEvent(t))
	return t, nil
}

// AddStop appends an order as the last stop. Each order may appear
// at most once per trip; cross-trip exclusivity is enforced by the
// order's own scheduled state.
func (t *Trip) AddStop(orderID uuid.UUID) (*TripStop, error) {
	if t.Status != TripStatusPlanning {
		return nil, shared.NewDomainError("INVALID_STATE", "Stops can only be added while the trip is in planning")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order ID is required")
	}
	for _, s := range t.Stops {
		if s.OrderID == orderID {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Order is already a stop on this trip")
		}
	}
	now := time.Now().UTC()
	stop := TripStop{
		ID:        uuid.New(),
		TripID:    t.ID,
		OrderID:   orderID,
		Sequence:  len(t.Stops) + 1,
		Status:    StopStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.Stops = append(t.Stops, stop)
	t.UpdatedAt = now
	return &t.Stops[len(t.Stops)-1], nil
}

// RemoveStop drops a stop and closes the sequence gap
func (t *Trip) RemoveStop(stopID uuid.UUID) (*TripStop, error) {
	if t.Status != TripStatusPlanning {
		return nil, shared.NewDomainError("INVALID_STATE", "Stops can only be removed while the trip is in planning")
	}
	idx := t.stopIndex(stopID)
	if idx < 0 {
		return nil, shared.NewDomainError("NOT_FOUND", "Stop not found on this trip")
	}
	removed := t.Stops[idx]
	t.Stops = append(t.Stops[:idx], t.Stops[idx+1:]...)
	t.resequence()
	t.UpdatedAt = time.Now().UTC()
	return &removed, nil
}

// ReorderStops replaces the visit order. The slice must be a
// permutation of the current stop IDs.
func (t *Trip) ReorderStops(stopIDs []uuid.UUID) error {
	if t.Status != TripStatusPlanning {
		return shared.NewDomainError("INVALID_STATE", "Stops can only be reordered while the trip is in planning")
	}
	if len(stopIDs) != len(t.Stops) {
		return shared.NewDomainError("INVALID_INPUT", "Reorder must list every stop exactly once")
	}
	byID := make(map[uuid.UUID]TripStop, len(t.Stops))
	for _, s := range t.Stops {
		byID[s.ID] = s
	}
	reordered := make([]TripStop, 0, len(stopIDs))
	for _, id := range stopIDs {
		s, ok := byID[id]
		if !ok {
			return shared.NewDomainError("INVALID_INPUT", "Unknown stop in reorder list")
		}
		delete(byID, id)
		reordered = append(reordered, s)
	}
	t.Stops = reordered
	t.resequence()
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// StartLoading moves the trip to loading. The truck-stock LOAD
// document is created by the application layer in the same
// transaction.
func (t *Trip) StartLoading() error {
	if !t.Status.CanTransitionTo(TripStatusLoading) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot start loading a trip in status %s", t.Status)
	}
	t.Status = TripStatusLoading
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// AttachLoadDocument links the posted truck-stock LOAD document
func (t *Trip) AttachLoadDocument(docID uuid.UUID) {
	t.LoadDocID = &docID
	t.UpdatedAt = time.Now().UTC()
}

// AttachUnloadDocument links the posted UNLOAD document
func (t *Trip) AttachUnloadDocument(docID uuid.UUID) {
	t.UnloadDocID = &docID
	t.UpdatedAt = time.Now().UTC()
}

// Depart moves the trip en route and stamps the departure time
func (t *Trip) Depart() error {
	if !t.Status.CanTransitionTo(TripStatusEnRoute) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot depart a trip in status %s", t.Status)
	}
	now := time.Now().UTC()
	t.Status = TripStatusEnRoute
	t.DepartedAt = &now
	t.UpdatedAt = now
	t.AddDomainEvent(NewTripDepartedEvent(t))
	return nil
}

// RecordStopDelivered marks a pending stop delivered and links the
// delivery document
func (t *Trip) RecordStopDelivered(stopID, deliveryID uuid.UUID) error {
	return t.closeStop(stopID, StopStatusDelivered, &deliveryID, "")
}

// FailStop marks a pending stop failed with a reason
func (t *Trip) FailStop(stopID uuid.UUID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Failure reason is required")
	}
	return t.closeStop(stopID, StopStatusFailed, nil, reason)
}

// SkipStop marks a pending stop skipped with a reason
func (t *Trip) SkipStop(stopID uuid.UUID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Skip reason is required")
	}
	return t.closeStop(stopID, StopStatusSkipped, nil, reason)
}

func (t *Trip) closeStop(stopID uuid.UUID, status StopStatus, deliveryID *uuid.UUID, notes string) error {
	if t.Status != TripStatusEnRoute {
		return shared.NewDomainError("INVALID_STATE", "Stops can only be resolved while the trip is en route")
	}
	idx := t.stopIndex(stopID)
	if idx < 0 {
		return shared.NewDomainError("NOT_FOUND", "Stop not found on this trip")
	}
	stop := &t.Stops[idx]
	if stop.Status != StopStatusPending {
		return shared.NewDomainErrorf("INVALID_STATE", "Stop is already %s", stop.Status)
	}
	stop.Status = status
	stop.DeliveryID = deliveryID
	if notes != "" {
		stop.Notes = notes
	}
	now := time.Now().UTC()
	stop.UpdatedAt = now
	t.UpdatedAt = now
	return nil
}

// Complete closes the trip once every stop has an outcome. A trip
// with no stops may still complete (an empty repositioning run).
func (t *Trip) Complete() error {
	if !t.Status.CanTransitionTo(TripStatusCompleted) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot complete a trip in status %s", t.Status)
	}
	for _, s := range t.Stops {
		if !s.Status.IsTerminal() {
			return shared.NewDomainError("INVALID_STATE", "All stops must be delivered, failed or skipped before completion")
		}
	}
	now := time.Now().UTC()
	t.Status = TripStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.AddDomainEvent(NewTripCompletedEvent(t))
	return nil
}

// Cancel aborts a trip before departure
func (t *Trip) Cancel(reason string) error {
	if !t.Status.CanTransitionTo(TripStatusCancelled) {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot cancel a trip in status %s", t.Status)
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_INPUT", "Cancellation reason is required")
	}
	t.Status = TripStatusCancelled
	t.Notes = reason
	t.UpdatedAt = time.Now().UTC()
	t.AddDomainEvent(NewTripCancelledEvent(t, reason))
	return nil
}

// PendingStops returns stops not yet resolved
func (t *Trip) PendingStops() []TripStop {
	var pending []TripStop
	for _, s := range t.Stops {
		if s.Status == StopStatusPending {
			pending = append(pending, s)
		}
	}
	return pending
}

// FindStopByOrder returns the stop for an order, if scheduled
func (t *Trip) FindStopByOrder(orderID uuid.UUID) *TripStop {
	for i := range t.Stops {
		if t.Stops[i].OrderID == orderID {
			return &t.Stops[i]
		}
	}
	return nil
}

// OrderIDs returns the order IDs of all stops in sequence
func (t *Trip) OrderIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Stops))
	for _, s := range t.Stops {
		ids = append(ids, s.OrderID)
	}
	return ids
}

func (t *Trip) stopIndex(stopID uuid.UUID) int {
	for i := range t.Stops {
		if t.Stops[i].ID == stopID {
			return i
		}
	}
	return -1
}

func (t *Trip) resequence() {
	for i := range t.Stops {
		t.Stops[i].Sequence = i + 1
	}
}
