package logistics

import (
	"time"

	"github.com/gasflow/backend/internal/domain/logistics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateVehicleRequest registers a new delivery truck
type CreateVehicleRequest struct {
	Code        string           `json:"code" binding:"required,max=20"`
	PlateNumber string           `json:"plate_number" binding:"required,max=20"`
	CapacityKg  *decimal.Decimal `json:"capacity_kg"`
}

// UpdateVehicleRequest updates the mutable vehicle fields
type UpdateVehicleRequest struct {
	CapacityKg *decimal.Decimal `json:"capacity_kg"`
}

// VehicleResponse is the read shape of a vehicle
type VehicleResponse struct {
	ID          uuid.UUID        `json:"id"`
	Code        string           `json:"code"`
	PlateNumber string           `json:"plate_number"`
	CapacityKg  *decimal.Decimal `json:"capacity_kg,omitempty"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CreateDriverRequest registers a new driver
type CreateDriverRequest struct {
	Name          string `json:"name" binding:"required,max=200"`
	Phone         string `json:"phone" binding:"max=50"`
	LicenseNumber string `json:"license_number" binding:"required,max=50"`
}

// DriverResponse is the read shape of a driver
type DriverResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone,omitempty"`
	LicenseNumber string    `json:"license_number"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateTripRequest plans a new trip
type CreateTripRequest struct {
	VehicleID   uuid.UUID `json:"vehicle_id" binding:"required"`
	DriverID    uuid.UUID `json:"driver_id" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
	PlannedDate time.Time `json:"planned_date" binding:"required"`
	Notes       string    `json:"notes"`
}

// AddStopRequest schedules a confirmed order on a trip
type AddStopRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
}

// ReorderStopsRequest replaces the visit order of a trip's stops
type ReorderStopsRequest struct {
	StopIDs []uuid.UUID `json:"stop_ids" binding:"required,min=1"`
}

// StopReasonRequest carries the reason for failing or skipping a stop
type StopReasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelTripRequest aborts a trip with a reason
type CancelTripRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DeliveryLineRequest records the outcome for one order line at the
// door
type DeliveryLineRequest struct {
	OrderLineID      uuid.UUID        `json:"order_line_id" binding:"required"`
	DeliveredQty     decimal.Decimal  `json:"delivered_qty"`
	EmptiesCollected *decimal.Decimal `json:"empties_collected"`
}

// RecordDeliveryRequest records the proof of delivery for one stop
type RecordDeliveryRequest struct {
	ReceivedBy string                `json:"received_by" binding:"max=200"`
	Notes      string                `json:"notes"`
	Lines      []DeliveryLineRequest `json:"lines" binding:"required,min=1"`
}

// TripListFilter narrows trip listings
type TripListFilter struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	OrderBy   string `form:"order_by"`
	OrderDir  string `form:"order_dir"`
	Status    string `form:"status"`
	VehicleID string `form:"vehicle_id"`
	DriverID  string `form:"driver_id"`
	DateFrom  string `form:"date_from"`
	DateTo    string `form:"date_to"`
}

// DeliveryListFilter narrows delivery listings
type DeliveryListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	TripID   string `form:"trip_id"`
	OrderID  string `form:"order_id"`
}

// StopResponse is the read shape of one trip stop
type StopResponse struct {
	ID         uuid.UUID  `json:"id"`
	OrderID    uuid.UUID  `json:"order_id"`
	Sequence   int        `json:"sequence"`
	Status     string     `json:"status"`
	DeliveryID *uuid.UUID `json:"delivery_id,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// TripResponse is the read shape of a trip
type TripResponse struct {
	ID          uuid.UUID      `json:"id"`
	TripNumber  string         `json:"trip_number"`
	VehicleID   uuid.UUID      `json:"vehicle_id"`
	DriverID    uuid.UUID      `json:"driver_id"`
	WarehouseID uuid.UUID      `json:"warehouse_id"`
	Status      string         `json:"status"`
	PlannedDate time.Time      `json:"planned_date"`
	DepartedAt  *time.Time     `json:"departed_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	LoadDocID   *uuid.UUID     `json:"load_doc_id,omitempty"`
	UnloadDocID *uuid.UUID     `json:"unload_doc_id,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	Stops       []StopResponse `json:"stops"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DeliveryLineResponse is the read shape of one delivery line
type DeliveryLineResponse struct {
	ID               uuid.UUID       `json:"id"`
	OrderLineID      uuid.UUID       `json:"order_line_id"`
	VariantID        uuid.UUID       `json:"variant_id"`
	SKU              string          `json:"sku"`
	OrderedQty       decimal.Decimal `json:"ordered_qty"`
	DeliveredQty     decimal.Decimal `json:"delivered_qty"`
	EmptiesCollected decimal.Decimal `json:"empties_collected"`
}

// DeliveryResponse is the read shape of a delivery
type DeliveryResponse struct {
	ID             uuid.UUID              `json:"id"`
	DeliveryNumber string                 `json:"delivery_number"`
	TripID         uuid.UUID              `json:"trip_id"`
	StopID         uuid.UUID              `json:"stop_id"`
	OrderID        uuid.UUID              `json:"order_id"`
	CustomerID     uuid.UUID              `json:"customer_id"`
	DeliveredAt    time.Time              `json:"delivered_at"`
	ReceivedBy     string                 `json:"received_by,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	Short          bool                   `json:"short"`
	Lines          []DeliveryLineResponse `json:"lines"`
}

// ToVehicleResponse converts a domain vehicle
func ToVehicleResponse(v *logistics.Vehicle) *VehicleResponse {
	return &VehicleResponse{
		ID:          v.ID,
		Code:        v.Code,
		PlateNumber: v.PlateNumber,
		CapacityKg:  v.CapacityKg,
		Status:      string(v.Status),
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

// ToDriverResponse converts a domain driver
func ToDriverResponse(d *logistics.Driver) *DriverResponse {
	return &DriverResponse{
		ID:            d.ID,
		Name:          d.Name,
		Phone:         d.Phone,
		LicenseNumber: d.LicenseNumber,
		Status:        string(d.Status),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// ToTripResponse converts a domain trip with its stops
func ToTripResponse(t *logistics.Trip) *TripResponse {
	resp := &TripResponse{
		ID:          t.ID,
		TripNumber:  t.TripNumber,
		VehicleID:   t.VehicleID,
		DriverID:    t.DriverID,
		WarehouseID: t.WarehouseID,
		Status:      string(t.Status),
		PlannedDate: t.PlannedDate,
		DepartedAt:  t.DepartedAt,
		CompletedAt: t.CompletedAt,
		LoadDocID:   t.LoadDocID,
		UnloadDocID: t.UnloadDocID,
		Notes:       t.Notes,
		Stops:       make([]StopResponse, 0, len(t.Stops)),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, s := range t.Stops {
		resp.Stops = append(resp.Stops, StopResponse{
			ID:         s.ID,
			OrderID:    s.OrderID,
			Sequence:   s.Sequence,
			Status:     string(s.Status),
			DeliveryID: s.DeliveryID,
			Notes:      s.Notes,
		})
	}
	return resp
}

// ToDeliveryResponse converts a domain delivery
func ToDeliveryResponse(d *logistics.Delivery) *DeliveryResponse {
	resp := &DeliveryResponse{
		ID:             d.ID,
		DeliveryNumber: d.DeliveryNumber,
		TripID:         d.TripID,
		StopID:         d.StopID,
		OrderID:        d.OrderID,
		CustomerID:     d.CustomerID,
		DeliveredAt:    d.DeliveredAt,
		ReceivedBy:     d.ReceivedBy,
		Notes:          d.Notes,
		Short:          d.IsShort(),
		Lines:          make([]DeliveryLineResponse, 0, len(d.Lines)),
	}
	for _, l := range d.Lines {
		resp.Lines = append(resp.Lines, DeliveryLineResponse{
			ID:               l.ID,
			OrderLineID:      l.OrderLineID,
			VariantID:        l.VariantID,
			SKU:              l.SKU,
			OrderedQty:       l.OrderedQty,
			DeliveredQty:     l.DeliveredQty,
			EmptiesCollected: l.EmptiesCollected,
		})
	}
	return resp
}
