package models

import (
	"time"

	"github.com/gasflow/backend/internal/domain/logistics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleModel is the persistence model for the Vehicle aggregate
type VehicleModel struct {
	TenantAggregateModel
	Code        string           `gorm:"type:varchar(30);not null;uniqueIndex:idx_vehicle_tenant_code,priority:2"`
	PlateNumber string           `gorm:"type:varchar(30);not null"`
	CapacityKg  *decimal.Decimal `gorm:"type:decimal(10,2)"`
	Status      string           `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (VehicleModel) TableName() string { return "vehicles" }

// ToDomain converts the persistence model to a domain Vehicle
func (m *VehicleModel) ToDomain() *logistics.Vehicle {
	return &logistics.Vehicle{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Code:                m.Code,
		PlateNumber:         m.PlateNumber,
		CapacityKg:          m.CapacityKg,
		Status:              logistics.VehicleStatus(m.Status),
	}
}

// FromDomain populates the model from a domain Vehicle
func (m *VehicleModel) FromDomain(v *logistics.Vehicle) {
	m.FromDomainTenantAggregateRoot(v.TenantAggregateRoot)
	m.Code = v.Code
	m.PlateNumber = v.PlateNumber
	m.CapacityKg = v.CapacityKg
	m.Status = string(v.Status)
}

// DriverModel is the persistence model for the Driver aggregate
type DriverModel struct {
	TenantAggregateModel
	Name          string `gorm:"type:varchar(255);not null"`
	Phone         string `gorm:"type:varchar(50)"`
	LicenseNumber string `gorm:"type:varchar(50);not null"`
	Status        string `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (DriverModel) TableName() string { return "drivers" }

// ToDomain converts the persistence model to a domain Driver
func (m *DriverModel) ToDomain() *logistics.Driver {
	return &logistics.Driver{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		Phone:               m.Phone,
		LicenseNumber:       m.LicenseNumber,
		Status:              logistics.DriverStatus(m.Status),
	}
}

// FromDomain populates the model from a domain Driver
func (m *DriverModel) FromDomain(d *logistics.Driver) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.Name = d.Name
	m.Phone = d.Phone
	m.LicenseNumber = d.LicenseNumber
	m.Status = string(d.Status)
}

// TripModel is the persistence model for the Trip aggregate
type TripModel struct {
	TenantAggregateModel
	TripNumber  string     `gorm:"type:varchar(30);not null;uniqueIndex:idx_trip_tenant_number,priority:2"`
	VehicleID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	DriverID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status      string     `gorm:"type:varchar(20);not null;default:'planning';index"`
	PlannedDate time.Time  `gorm:"type:timestamptz;not null;index"`
	DepartedAt  *time.Time `gorm:"type:timestamptz"`
	CompletedAt *time.Time `gorm:"type:timestamptz"`
	Notes       string     `gorm:"type:text"`

	Stops []TripStopModel `gorm:"foreignKey:TripID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (TripModel) TableName() string { return "trips" }

// TripStopModel is one order stop on a trip
type TripStopModel struct {
	BaseModel
	TripID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrderID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Sequence   int        `gorm:"not null"`
	Status     string     `gorm:"type:varchar(20);not null;default:'pending'"`
	DeliveryID *uuid.UUID `gorm:"type:uuid"`
	Notes      string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TripStopModel) TableName() string { return "trip_stops" }

// ToDomain converts the persistence model to a domain Trip
func (m *TripModel) ToDomain() *logistics.Trip {
	t := &logistics.Trip{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		TripNumber:          m.TripNumber,
		VehicleID:           m.VehicleID,
		DriverID:            m.DriverID,
		WarehouseID:         m.WarehouseID,
		Status:              logistics.TripStatus(m.Status),
		PlannedDate:         m.PlannedDate,
		DepartedAt:          m.DepartedAt,
		CompletedAt:         m.CompletedAt,
		Notes:               m.Notes,
		Stops:               make([]logistics.TripStop, 0, len(m.Stops)),
	}
	for _, s := range m.Stops {
		t.Stops = append(t.Stops, logistics.TripStop{
			ID:         s.ID,
			TripID:     s.TripID,
			OrderID:    s.OrderID,
			Sequence:   s.Sequence,
			Status:     logistics.StopStatus(s.Status),
			DeliveryID: s.DeliveryID,
			Notes:      s.Notes,
			CreatedAt:  s.CreatedAt,
			UpdatedAt:  s.UpdatedAt,
		})
	}
	return t
}

// FromDomain populates the model from a domain Trip
func (m *TripModel) FromDomain(t *logistics.Trip) {
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	m.TripNumber = t.TripNumber
	m.VehicleID = t.VehicleID
	m.DriverID = t.DriverID
	m.WarehouseID = t.WarehouseID
	m.Status = string(t.Status)
	m.PlannedDate = t.PlannedDate
	m.DepartedAt = t.DepartedAt
	m.CompletedAt = t.CompletedAt
	m.Notes = t.Notes
	m.Stops = make([]TripStopModel, 0, len(t.Stops))
	for _, s := range t.Stops {
		m.Stops = append(m.Stops, TripStopModel{
			BaseModel:  BaseModel{ID: s.ID, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt},
			TripID:     t.ID,
			TenantID:   t.TenantID,
			OrderID:    s.OrderID,
			Sequence:   s.Sequence,
			Status:     string(s.Status),
			DeliveryID: s.DeliveryID,
			Notes:      s.Notes,
		})
	}
}

// DeliveryModel is the persistence model for Delivery documents
type DeliveryModel struct {
	TenantAggregateModel
	DeliveryNumber string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_delivery_tenant_number,priority:2"`
	TripID         uuid.UUID `gorm:"type:uuid;not null;index"`
	StopID         uuid.UUID `gorm:"type:uuid;not null"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index"`
	CustomerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	DeliveredAt    time.Time `gorm:"type:timestamptz;not null"`
	ReceivedBy     string    `gorm:"type:varchar(255)"`
	Notes          string    `gorm:"type:text"`

	Lines []DeliveryLineModel `gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (DeliveryModel) TableName() string { return "deliveries" }

// DeliveryLineModel is one line of a delivery document
type DeliveryLineModel struct {
	BaseModel
	DeliveryID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderLineID      uuid.UUID       `gorm:"type:uuid;not null"`
	VariantID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU              string          `gorm:"type:varchar(40);not null"`
	OrderedQty       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DeliveredQty     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	EmptiesCollected decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TrackStock       bool            `gorm:"not null;default:false"`
	IsAsset          bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (DeliveryLineModel) TableName() string { return "delivery_lines" }

// ToDomain converts the persistence model to a domain Delivery
func (m *DeliveryModel) ToDomain() *logistics.Delivery {
	d := &logistics.Delivery{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		DeliveryNumber:      m.DeliveryNumber,
		TripID:              m.TripID,
		StopID:              m.StopID,
		OrderID:             m.OrderID,
		CustomerID:          m.CustomerID,
		DeliveredAt:         m.DeliveredAt,
		ReceivedBy:          m.ReceivedBy,
		Notes:               m.Notes,
		Lines:               make([]logistics.DeliveryLine, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		d.Lines = append(d.Lines, logistics.DeliveryLine{
			ID:               l.ID,
			DeliveryID:       l.DeliveryID,
			OrderLineID:      l.OrderLineID,
			VariantID:        l.VariantID,
			SKU:              l.SKU,
			OrderedQty:       l.OrderedQty,
			DeliveredQty:     l.DeliveredQty,
			EmptiesCollected: l.EmptiesCollected,
			TrackStock:       l.TrackStock,
			IsAsset:          l.IsAsset,
		})
	}
	return d
}

// FromDomain populates the model from a domain Delivery
func (m *DeliveryModel) FromDomain(d *logistics.Delivery) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.DeliveryNumber = d.DeliveryNumber
	m.TripID = d.TripID
	m.StopID = d.StopID
	m.OrderID = d.OrderID
	m.CustomerID = d.CustomerID
	m.DeliveredAt = d.DeliveredAt
	m.ReceivedBy = d.ReceivedBy
	m.Notes = d.Notes
	m.Lines = make([]DeliveryLineModel, 0, len(d.Lines))
	for _, l := range d.Lines {
		m.Lines = append(m.Lines, DeliveryLineModel{
			BaseModel:        BaseModel{ID: l.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
			DeliveryID:       d.ID,
			TenantID:         d.TenantID,
			OrderLineID:      l.OrderLineID,
			VariantID:        l.VariantID,
			SKU:              l.SKU,
			OrderedQty:       l.OrderedQty,
			DeliveredQty:     l.DeliveredQty,
			EmptiesCollected: l.EmptiesCollected,
			TrackStock:       l.TrackStock,
			IsAsset:          l.IsAsset,
		})
	}
}
