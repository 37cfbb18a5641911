package inventory

import (
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// WarehouseStatus represents the lifecycle status of a warehouse
type WarehouseStatus string

const (
	WarehouseStatusActive   WarehouseStatus = "active"
	WarehouseStatusInactive WarehouseStatus = "inactive"
)

// Warehouse is a physical depot holding cylinder and bulk gas stock
type Warehouse struct {
	shared.TenantAggregateRoot
	Code    string
	Name    string
	Address string
	Status  WarehouseStatus
}

// NewWarehouse creates a new active warehouse
func NewWarehouse(tenantID uuid.UUID, code, name string) (*Warehouse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Warehouse code cannot be empty")
	}
	if len(code) > 20 {
		return nil, shared.NewDomainError("INVALID_CODE", "Warehouse code cannot exceed 20 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Warehouse name cannot be empty")
	}
	return &Warehouse{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                strings.TrimSpace(name),
		Status:              WarehouseStatusActive,
	}, nil
}

// Update changes the mutable warehouse fields
func (w *Warehouse) Update(name, address string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Warehouse name cannot be empty")
	}
	w.Name = strings.TrimSpace(name)
	w.Address = address
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// Deactivate retires the warehouse. The application service verifies
// that no stock remains before calling this.
func (w *Warehouse) Deactivate() error {
	if w.Status == WarehouseStatusInactive {
		return shared.NewDomainError("INVALID_STATE", "Warehouse is already inactive")
	}
	w.Status = WarehouseStatusInactive
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// Activate re-enables the warehouse
func (w *Warehouse) Activate() error {
	if w.Status == WarehouseStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Warehouse is already active")
	}
	w.Status = WarehouseStatusActive
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// IsActive returns true while the warehouse accepts movements
func (w *Warehouse) IsActive() bool {
	return w.Status == WarehouseStatusActive
}
