package catalog

import (
	"strings"
	"time"

	"github.com/gasflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// Product groups variants under a commercial name, e.g. "9kg LPG
// Cylinder" with asset, deposit and bundle variants beneath it.
type Product struct {
	shared.TenantAggregateRoot
	Code        string
	Name        string
	Category    string
	Description string
	Status      ProductStatus
}

// NewProduct creates a new active product
func NewProduct(tenantID uuid.UUID, code, name, category string) (*Product, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if len(code) > 30 {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot exceed 30 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	return &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                strings.TrimSpace(name),
		Category:            strings.TrimSpace(category),
		Status:              ProductStatusActive,
	}, nil
}

// Update changes the mutable product fields
func (p *Product) Update(name, category, description string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	p.Name = strings.TrimSpace(name)
	p.Category = strings.TrimSpace(category)
	p.Description = description
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Discontinue marks the product as discontinued
func (p *Product) Discontinue() error {
	if p.Status == ProductStatusDiscontinued {
		return shared.NewDomainError("INVALID_STATE", "Product is already discontinued")
	}
	p.Status = ProductStatusDiscontinued
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// IsActive returns true while the product accepts new variants
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}
