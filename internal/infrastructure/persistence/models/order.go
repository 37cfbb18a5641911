package models

import (
	"time"

	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/gasflow/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	TenantAggregateModel
	OrderNumber       string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_order_tenant_number,priority:2"`
	CustomerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	DeliveryAddressID *uuid.UUID      `gorm:"type:uuid"`
	WarehouseID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	RequestedDate     *time.Time      `gorm:"type:timestamptz"`
	Status            string          `gorm:"type:varchar(20);not null;default:'draft';index"`
	Currency          string          `gorm:"type:varchar(3);not null"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Notes             string          `gorm:"type:text"`
	TripID            *uuid.UUID      `gorm:"type:uuid;index"`
	ConfirmedAt       *time.Time      `gorm:"type:timestamptz;index"`
	DeliveredAt       *time.Time      `gorm:"type:timestamptz"`
	CancelledAt       *time.Time      `gorm:"type:timestamptz"`
	CancelReason      string          `gorm:"type:text"`

	Lines []OrderLineModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string { return "orders" }

// OrderLineModel is one line of an order; component lines carry a
// parent line reference
type OrderLineModel struct {
	BaseModel
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	TenantID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU            string          `gorm:"type:varchar(40);not null"`
	Name           string          `gorm:"type:varchar(255);not null"`
	Kind           string          `gorm:"type:varchar(20);not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LineTotal      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ParentLineID   *uuid.UUID      `gorm:"type:uuid"`
	PriceSource    string          `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string { return "order_lines" }

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		OrderNumber:         m.OrderNumber,
		CustomerID:          m.CustomerID,
		DeliveryAddressID:   m.DeliveryAddressID,
		WarehouseID:         m.WarehouseID,
		RequestedDate:       m.RequestedDate,
		Status:              order.Status(m.Status),
		Currency:            m.Currency,
		TotalAmount:         m.TotalAmount,
		Notes:               m.Notes,
		TripID:              m.TripID,
		ConfirmedAt:         m.ConfirmedAt,
		DeliveredAt:         m.DeliveredAt,
		CancelledAt:         m.CancelledAt,
		CancelReason:        m.CancelReason,
		Lines:               make([]order.Line, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		o.Lines = append(o.Lines, order.Line{
			ID:             l.ID,
			VariantID:      l.VariantID,
			SKU:            l.SKU,
			Name:           l.Name,
			Kind:           catalog.VariantKind(l.Kind),
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			DiscountAmount: l.DiscountAmount,
			LineTotal:      l.LineTotal,
			ParentLineID:   l.ParentLineID,
			PriceSource:    order.PriceSource(l.PriceSource),
			CreatedAt:      l.CreatedAt,
			UpdatedAt:      l.UpdatedAt,
		})
	}
	return o
}

// FromDomain populates the model from a domain Order
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.CustomerID
	m.DeliveryAddressID = o.DeliveryAddressID
	m.WarehouseID = o.WarehouseID
	m.RequestedDate = o.RequestedDate
	m.Status = string(o.Status)
	m.Currency = o.Currency
	m.TotalAmount = o.TotalAmount
	m.Notes = o.Notes
	m.TripID = o.TripID
	m.ConfirmedAt = o.ConfirmedAt
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.Lines = make([]OrderLineModel, 0, len(o.Lines))
	for _, l := range o.Lines {
		m.Lines = append(m.Lines, OrderLineModel{
			BaseModel:      BaseModel{ID: l.ID, CreatedAt: l.CreatedAt, UpdatedAt: l.UpdatedAt},
			OrderID:        o.ID,
			TenantID:       o.TenantID,
			VariantID:      l.VariantID,
			SKU:            l.SKU,
			Name:           l.Name,
			Kind:           string(l.Kind),
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			DiscountAmount: l.DiscountAmount,
			LineTotal:      l.LineTotal,
			ParentLineID:   l.ParentLineID,
			PriceSource:    string(l.PriceSource),
		})
	}
}
