package logistics

import (
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleStatus represents the lifecycle status of a vehicle
type VehicleStatus string

const (
	VehicleStatusActive   VehicleStatus = "active"
	VehicleStatusInactive VehicleStatus = "inactive"
)

// Vehicle is a delivery truck carrying cylinder stock on trips
type Vehicle struct {
	shared.TenantAggregateRoot
	Code        string
	PlateNumber string
	CapacityKg  *decimal.Decimal
	Status      VehicleStatus
}

// NewVehicle creates a new active vehicle
func NewVehicle(tenantID uuid.UUID, code, plateNumber string) (*Vehicle, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Vehicle code cannot be empty")
	}
	if strings.TrimSpace(plateNumber) == "" {
		return nil, shared.NewDomainError("INVALID_PLATE", "Plate number cannot be empty")
	}
	return &Vehicle{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		PlateNumber:         strings.ToUpper(strings.TrimSpace(plateNumber)),
		Status:              VehicleStatusActive,
	}, nil
}

// SetCapacity sets the load capacity in kilograms
func (v *Vehicle) SetCapacity(capacityKg decimal.Decimal) error {
	if capacityKg.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_CAPACITY", "Capacity must be positive")
	}
	v.CapacityKg = &capacityKg
	v.UpdatedAt = time.Now().UTC()
	return nil
}

// Deactivate retires the vehicle
func (v *Vehicle) Deactivate() error {
	if v.Status == VehicleStatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Vehicle is already inactive")
	}
	v.Status = VehicleStatusInactive
	v.UpdatedAt = time.Now().UTC()
	return nil
}

// IsActive returns true while the vehicle can be assigned to trips
func (v *Vehicle) IsActive() bool {
	return v.Status == VehicleStatusActive
}

// DriverStatus represents the lifecycle status of a driver
type DriverStatus string

const (
	DriverStatusActive   DriverStatus = "active"
	DriverStatusInactive DriverStatus = "inactive"
)

// Driver operates a vehicle on delivery trips
type Driver struct {
	shared.TenantAggregateRoot
	Name          string
	Phone         string
	LicenseNumber string
	Status        DriverStatus
}

// NewDriver creates a new active driver
func NewDriver(tenantID uuid.UUID, name, phone, licenseNumber string) (*Driver, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Driver name cannot be empty")
	}
	if strings.TrimSpace(licenseNumber) == "" {
		return nil, shared.NewDomainError("INVALID_LICENSE", "License number cannot be empty")
	}
	return &Driver{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                strings.TrimSpace(name),
		Phone:               phone,
		LicenseNumber:       strings.TrimSpace(licenseNumber),
		Status:              DriverStatusActive,
	}, nil
}

// Deactivate retires the driver
func (d *Driver) Deactivate() error {
	if d.Status == DriverStatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Driver is already inactive")
	}
	d.Status = DriverStatusInactive
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// IsActive returns true while the driver can be assigned to trips
func (d *Driver) IsActive() bool {
	return d.Status == DriverStatusActive
}
