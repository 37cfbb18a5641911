package models

import (
	"time"

	"github.com/gasflow/backend/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceListModel is the persistence model for the PriceList aggregate
type PriceListModel struct {
	TenantAggregateModel
	Code      string     `gorm:"type:varchar(30);not null;uniqueIndex:idx_price_list_tenant_code,priority:2"`
	Name      string     `gorm:"type:varchar(255);not null"`
	Currency  string     `gorm:"type:varchar(3);not null"`
	ValidFrom *time.Time `gorm:"type:timestamptz"`
	ValidTo   *time.Time `gorm:"type:timestamptz"`
	IsDefault bool       `gorm:"not null;default:false;index"`
	Status    string     `gorm:"type:varchar(20);not null;default:'active'"`

	Items []PriceListItemModel `gorm:"foreignKey:PriceListID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (PriceListModel) TableName() string { return "price_lists" }

// PriceListItemModel is one price break within a price list
type PriceListItemModel struct {
	BaseModel
	PriceListID uuid.UUID       `gorm:"type:uuid;not null;index"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	MinQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PriceListItemModel) TableName() string { return "price_list_items" }

// ToDomain converts the persistence model to a domain PriceList
func (m *PriceListModel) ToDomain() *pricing.PriceList {
	p := &pricing.PriceList{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Currency:            m.Currency,
		ValidFrom:           m.ValidFrom,
		ValidTo:             m.ValidTo,
		IsDefault:           m.IsDefault,
		Status:              pricing.Status(m.Status),
		Items:               make([]pricing.Item, 0, len(m.Items)),
	}
	for _, it := range m.Items {
		p.Items = append(p.Items, pricing.Item{
			ID:          it.ID,
			VariantID:   it.VariantID,
			MinQuantity: it.MinQuantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return p
}

// FromDomain populates the model from a domain PriceList
func (m *PriceListModel) FromDomain(p *pricing.PriceList) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.Currency = p.Currency
	m.ValidFrom = p.ValidFrom
	m.ValidTo = p.ValidTo
	m.IsDefault = p.IsDefault
	m.Status = string(p.Status)
	m.Items = make([]PriceListItemModel, 0, len(p.Items))
	for _, it := range p.Items {
		m.Items = append(m.Items, PriceListItemModel{
			BaseModel:   BaseModel{ID: it.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
			PriceListID: p.ID,
			TenantID:    p.TenantID,
			VariantID:   it.VariantID,
			MinQuantity: it.MinQuantity,
			UnitPrice:   it.UnitPrice,
		})
	}
}
