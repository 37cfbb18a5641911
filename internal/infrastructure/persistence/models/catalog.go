package models

import (
	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate
type ProductModel struct {
	TenantAggregateModel
	Code        string `gorm:"type:varchar(30);not null;uniqueIndex:idx_product_tenant_code,priority:2"`
	Name        string `gorm:"type:varchar(255);not null"`
	Category    string `gorm:"type:varchar(100);index"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string { return "products" }

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Category:            m.Category,
		Description:         m.Description,
		Status:              catalog.ProductStatus(m.Status),
	}
}

// FromDomain populates the model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.Category = p.Category
	m.Description = p.Description
	m.Status = string(p.Status)
}

// VariantModel is the persistence model for the Variant aggregate
type VariantModel struct {
	TenantAggregateModel
	ProductID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	SKU          string           `gorm:"type:varchar(40);not null;uniqueIndex:idx_variant_tenant_sku,priority:2"`
	Name         string           `gorm:"type:varchar(255);not null"`
	Kind         string           `gorm:"type:varchar(20);not null"`
	Unit         string           `gorm:"type:varchar(10);not null"`
	Barcode      string           `gorm:"type:varchar(100);index"`
	TrackStock   bool             `gorm:"not null;default:false"`
	DefaultPrice decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	TareWeightKg *decimal.Decimal `gorm:"type:decimal(10,3)"`
	CapacityKg   *decimal.Decimal `gorm:"type:decimal(10,3)"`
	Status       string           `gorm:"type:varchar(20);not null;default:'active'"`

	Components []BundleComponentModel `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (VariantModel) TableName() string { return "variants" }

// BundleComponentModel is one composition line of a bundle variant
type BundleComponentModel struct {
	BaseModel
	VariantID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	TenantID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	ComponentVariantID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (BundleComponentModel) TableName() string { return "bundle_components" }

// ToDomain converts the persistence model to a domain Variant
func (m *VariantModel) ToDomain() *catalog.Variant {
	v := &catalog.Variant{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		ProductID:           m.ProductID,
		SKU:                 m.SKU,
		Name:                m.Name,
		Kind:                catalog.VariantKind(m.Kind),
		Unit:                catalog.Unit(m.Unit),
		Barcode:             m.Barcode,
		TrackStock:          m.TrackStock,
		DefaultPrice:        m.DefaultPrice,
		TareWeightKg:        m.TareWeightKg,
		CapacityKg:          m.CapacityKg,
		Status:              catalog.VariantStatus(m.Status),
		Components:          make([]catalog.BundleComponent, 0, len(m.Components)),
	}
	for _, c := range m.Components {
		v.Components = append(v.Components, catalog.BundleComponent{
			ID:                 c.ID,
			ComponentVariantID: c.ComponentVariantID,
			Quantity:           c.Quantity,
		})
	}
	return v
}

// FromDomain populates the model from a domain Variant
func (m *VariantModel) FromDomain(v *catalog.Variant) {
	m.FromDomainTenantAggregateRoot(v.TenantAggregateRoot)
	m.ProductID = v.ProductID
	m.SKU = v.SKU
	m.Name = v.Name
	m.Kind = string(v.Kind)
	m.Unit = string(v.Unit)
	m.Barcode = v.Barcode
	m.TrackStock = v.TrackStock
	m.DefaultPrice = v.DefaultPrice
	m.TareWeightKg = v.TareWeightKg
	m.CapacityKg = v.CapacityKg
	m.Status = string(v.Status)
	m.Components = make([]BundleComponentModel, 0, len(v.Components))
	for _, c := range v.Components {
		m.Components = append(m.Components, BundleComponentModel{
			BaseModel:          BaseModel{ID: c.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
			VariantID:          v.ID,
			TenantID:           v.TenantID,
			ComponentVariantID: c.ComponentVariantID,
			Quantity:           c.Quantity,
		})
	}
}
