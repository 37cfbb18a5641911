package models

import (
	"time"

	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WarehouseModel is the persistence model for the Warehouse aggregate
type WarehouseModel struct {
	TenantAggregateModel
	Code    string `gorm:"type:varchar(20);not null;uniqueIndex:idx_warehouse_tenant_code,priority:2"`
	Name    string `gorm:"type:varchar(255);not null"`
	Address string `gorm:"type:text"`
	Status  string `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string { return "warehouses" }

// ToDomain converts the persistence model to a domain Warehouse
func (m *WarehouseModel) ToDomain() *inventory.Warehouse {
	return &inventory.Warehouse{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Code:                m.Code,
		Name:                m.Name,
		Address:             m.Address,
		Status:              inventory.WarehouseStatus(m.Status),
	}
}

// FromDomain populates the model from a domain Warehouse
func (m *WarehouseModel) FromDomain(w *inventory.Warehouse) {
	m.FromDomainTenantAggregateRoot(w.TenantAggregateRoot)
	m.Code = w.Code
	m.Name = w.Name
	m.Address = w.Address
	m.Status = string(w.Status)
}

// StockLevelModel is the persistence model for bucketed stock rows.
// One row per (tenant, warehouse, variant, bucket).
type StockLevelModel struct {
	TenantAggregateModel
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_key,priority:2"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_key,priority:3"`
	Bucket      string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_stock_level_key,priority:4"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReservedQty decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockLevelModel) TableName() string { return "stock_levels" }

// ToDomain converts the persistence model to a domain StockLevel
func (m *StockLevelModel) ToDomain() *inventory.StockLevel {
	return &inventory.StockLevel{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		WarehouseID:         m.WarehouseID,
		VariantID:           m.VariantID,
		Bucket:              inventory.Bucket(m.Bucket),
		Quantity:            m.Quantity,
		ReservedQty:         m.ReservedQty,
		UnitCost:            m.UnitCost,
	}
}

// FromDomain populates the model from a domain StockLevel
func (m *StockLevelModel) FromDomain(s *inventory.StockLevel) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.WarehouseID = s.WarehouseID
	m.VariantID = s.VariantID
	m.Bucket = string(s.Bucket)
	m.Quantity = s.Quantity
	m.ReservedQty = s.ReservedQty
	m.UnitCost = s.UnitCost
}

// StockDocumentModel is the persistence model for stock documents
type StockDocumentModel struct {
	TenantAggregateModel
	DocNumber       string     `gorm:"type:varchar(30);not null;uniqueIndex:idx_stock_doc_tenant_number,priority:2"`
	Type            string     `gorm:"type:varchar(20);not null;index"`
	Status          string     `gorm:"type:varchar(20);not null;default:'draft';index"`
	WarehouseID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	DestWarehouseID *uuid.UUID `gorm:"type:uuid"`
	RefTripID       *uuid.UUID `gorm:"type:uuid;index"`
	RefOrderID      *uuid.UUID `gorm:"type:uuid;index"`
	RefDocumentID   *uuid.UUID `gorm:"type:uuid"`
	Reason          string     `gorm:"type:text"`
	PostedAt        *time.Time `gorm:"type:timestamptz"`
	CancelledAt     *time.Time `gorm:"type:timestamptz"`

	Lines []StockDocumentLineModel `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (StockDocumentModel) TableName() string { return "stock_documents" }

// StockDocumentLineModel is one movement line of a stock document
type StockDocumentLineModel struct {
	BaseModel
	DocumentID uuid.UUID        `gorm:"type:uuid;not null;index"`
	TenantID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	VariantID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	Quantity   decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	FromBucket *string          `gorm:"type:varchar(20)"`
	ToBucket   *string          `gorm:"type:varchar(20)"`
	UnitCost   *decimal.Decimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (StockDocumentLineModel) TableName() string { return "stock_document_lines" }

// ToDomain converts the persistence model to a domain StockDocument
func (m *StockDocumentModel) ToDomain() *inventory.StockDocument {
	d := &inventory.StockDocument{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		DocNumber:           m.DocNumber,
		Type:                inventory.DocumentType(m.Type),
		Status:              inventory.DocumentStatus(m.Status),
		WarehouseID:         m.WarehouseID,
		DestWarehouseID:     m.DestWarehouseID,
		Ref: inventory.DocumentRef{
			TripID:     m.RefTripID,
			OrderID:    m.RefOrderID,
			DocumentID: m.RefDocumentID,
		},
		Reason:      m.Reason,
		PostedAt:    m.PostedAt,
		CancelledAt: m.CancelledAt,
		Lines:       make([]inventory.StockDocumentLine, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		line := inventory.StockDocumentLine{
			ID:        l.ID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		}
		if l.FromBucket != nil {
			b := inventory.Bucket(*l.FromBucket)
			line.FromBucket = &b
		}
		if l.ToBucket != nil {
			b := inventory.Bucket(*l.ToBucket)
			line.ToBucket = &b
		}
		d.Lines = append(d.Lines, line)
	}
	return d
}

// FromDomain populates the model from a domain StockDocument
func (m *StockDocumentModel) FromDomain(d *inventory.StockDocument) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.DocNumber = d.DocNumber
	m.Type = string(d.Type)
	m.Status = string(d.Status)
	m.WarehouseID = d.WarehouseID
	m.DestWarehouseID = d.DestWarehouseID
	m.RefTripID = d.Ref.TripID
	m.RefOrderID = d.Ref.OrderID
	m.RefDocumentID = d.Ref.DocumentID
	m.Reason = d.Reason
	m.PostedAt = d.PostedAt
	m.CancelledAt = d.CancelledAt
	m.Lines = make([]StockDocumentLineModel, 0, len(d.Lines))
	for _, l := range d.Lines {
		lm := StockDocumentLineModel{
			BaseModel:  BaseModel{ID: l.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
			DocumentID: d.ID,
			TenantID:   d.TenantID,
			VariantID:  l.VariantID,
			Quantity:   l.Quantity,
			UnitCost:   l.UnitCost,
		}
		if l.FromBucket != nil {
			s := string(*l.FromBucket)
			lm.FromBucket = &s
		}
		if l.ToBucket != nil {
			s := string(*l.ToBucket)
			lm.ToBucket = &s
		}
		m.Lines = append(m.Lines, lm)
	}
}

// StockReservationModel is the persistence model for stock reservations
type StockReservationModel struct {
	TenantAggregateModel
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Bucket      string          `gorm:"type:varchar(20);not null;default:'on_hand'"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status      string          `gorm:"type:varchar(20);not null;default:'active';index"`
	ExpiresAt   *time.Time      `gorm:"type:timestamptz;index"`
	ReleasedAt  *time.Time      `gorm:"type:timestamptz"`
	ConsumedAt  *time.Time      `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (StockReservationModel) TableName() string { return "stock_reservations" }

// ToDomain converts the persistence model to a domain StockReservation
func (m *StockReservationModel) ToDomain() *inventory.StockReservation {
	return &inventory.StockReservation{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		OrderID:             m.OrderID,
		WarehouseID:         m.WarehouseID,
		VariantID:           m.VariantID,
		Bucket:              inventory.Bucket(m.Bucket),
		Quantity:            m.Quantity,
		Status:              inventory.ReservationStatus(m.Status),
		ExpiresAt:           m.ExpiresAt,
		ReleasedAt:          m.ReleasedAt,
		ConsumedAt:          m.ConsumedAt,
	}
}

// FromDomain populates the model from a domain StockReservation
func (m *StockReservationModel) FromDomain(r *inventory.StockReservation) {
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	m.OrderID = r.OrderID
	m.WarehouseID = r.WarehouseID
	m.VariantID = r.VariantID
	m.Bucket = string(r.Bucket)
	m.Quantity = r.Quantity
	m.Status = string(r.Status)
	m.ExpiresAt = r.ExpiresAt
	m.ReleasedAt = r.ReleasedAt
	m.ConsumedAt = r.ConsumedAt
}

// NumberSequenceModel backs the gapless per-tenant document numbering.
// Rows are incremented under a row lock.
type NumberSequenceModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_number_seq_key,priority:1"`
	Kind      string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_number_seq_key,priority:2"`
	Year      int       `gorm:"not null;uniqueIndex:idx_number_seq_key,priority:3"`
	LastValue int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (NumberSequenceModel) TableName() string { return "number_sequences" }
