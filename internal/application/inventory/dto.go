package inventory

import (
	"time"

	"github.com/gasflow/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateWarehouseRequest creates a new depot
type CreateWarehouseRequest struct {
	Code    string `json:"code" binding:"required,max=20"`
	Name    string `json:"name" binding:"required,max=200"`
	Address string `json:"address"`
}

// UpdateWarehouseRequest updates the mutable warehouse fields
type UpdateWarehouseRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Address string `json:"address"`
}

// WarehouseResponse is the read shape of a warehouse
type WarehouseResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockLevelFilter narrows stock level listings
type StockLevelFilter struct {
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
	WarehouseID string `form:"warehouse_id"`
	VariantID   string `form:"variant_id"`
	Bucket      string `form:"bucket"`
	NonZeroOnly bool   `form:"non_zero_only"`
}

// StockLevelResponse is the read shape of one stock level row
type StockLevelResponse struct {
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	VariantID   uuid.UUID       `json:"variant_id"`
	Bucket      string          `json:"bucket"`
	Quantity    decimal.Decimal `json:"quantity"`
	ReservedQty decimal.Decimal `json:"reserved_qty"`
	Available   decimal.Decimal `json:"available"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DocumentLineRequest is the write shape of one movement line
type DocumentLineRequest struct {
	VariantID  uuid.UUID        `json:"variant_id" binding:"required"`
	Quantity   decimal.Decimal  `json:"quantity" binding:"required"`
	FromBucket *string          `json:"from_bucket"`
	ToBucket   *string          `json:"to_bucket"`
	UnitCost   *decimal.Decimal `json:"unit_cost"`
}

// CreateDocumentRequest creates a draft stock document
type CreateDocumentRequest struct {
	Type            string                `json:"type" binding:"required"`
	WarehouseID     uuid.UUID             `json:"warehouse_id" binding:"required"`
	DestWarehouseID *uuid.UUID            `json:"dest_warehouse_id"`
	Reason          string                `json:"reason"`
	RefDocumentID   *uuid.UUID            `json:"ref_document_id"`
	Lines           []DocumentLineRequest `json:"lines"`
}

// DirectMovementRequest builds and posts a single-step document.
// Used by the receive/issue/transfer/adjust/reclassify shortcuts.
type DirectMovementRequest struct {
	WarehouseID     uuid.UUID             `json:"warehouse_id" binding:"required"`
	DestWarehouseID *uuid.UUID            `json:"dest_warehouse_id"`
	Reason          string                `json:"reason"`
	RefDocumentID   *uuid.UUID            `json:"ref_document_id"`
	Lines           []DocumentLineRequest `json:"lines" binding:"required,min=1"`
}

// DocumentListFilter narrows stock document listings
type DocumentListFilter struct {
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
	OrderBy     string `form:"order_by"`
	OrderDir    string `form:"order_dir"`
	Type        string `form:"type"`
	Status      string `form:"status"`
	WarehouseID string `form:"warehouse_id"`
}

// DocumentLineResponse is the read shape of one movement line
type DocumentLineResponse struct {
	ID         uuid.UUID        `json:"id"`
	VariantID  uuid.UUID        `json:"variant_id"`
	Quantity   decimal.Decimal  `json:"quantity"`
	FromBucket *string          `json:"from_bucket,omitempty"`
	ToBucket   *string          `json:"to_bucket,omitempty"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
}

// DocumentResponse is the read shape of a stock document
type DocumentResponse struct {
	ID              uuid.UUID              `json:"id"`
	DocNumber       string                 `json:"doc_number"`
	Type            string                 `json:"type"`
	Status          string                 `json:"status"`
	WarehouseID     uuid.UUID              `json:"warehouse_id"`
	DestWarehouseID *uuid.UUID             `json:"dest_warehouse_id,omitempty"`
	RefTripID       *uuid.UUID             `json:"ref_trip_id,omitempty"`
	RefOrderID      *uuid.UUID             `json:"ref_order_id,omitempty"`
	RefDocumentID   *uuid.UUID             `json:"ref_document_id,omitempty"`
	Reason          string                 `json:"reason,omitempty"`
	PostedAt        *time.Time             `json:"posted_at,omitempty"`
	CancelledAt     *time.Time             `json:"cancelled_at,omitempty"`
	Lines           []DocumentLineResponse `json:"lines"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// ReservationListFilter narrows reservation listings
type ReservationListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Status   string `form:"status"`
	OrderID  string `form:"order_id"`
}

// ReservationResponse is the read shape of a stock reservation
type ReservationResponse struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	VariantID   uuid.UUID       `json:"variant_id"`
	Bucket      string          `json:"bucket"`
	Quantity    decimal.Decimal `json:"quantity"`
	Status      string          `json:"status"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ToWarehouseResponse converts a domain warehouse
func ToWarehouseResponse(w *inventory.Warehouse) *WarehouseResponse {
	return &WarehouseResponse{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Address:   w.Address,
		Status:    string(w.Status),
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// ToStockLevelResponse converts a domain stock level row
func ToStockLevelResponse(s *inventory.StockLevel) *StockLevelResponse {
	return &StockLevelResponse{
		WarehouseID: s.WarehouseID,
		VariantID:   s.VariantID,
		Bucket:      string(s.Bucket),
		Quantity:    s.Quantity,
		ReservedQty: s.ReservedQty,
		Available:   s.Available(),
		UnitCost:    s.UnitCost,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ToDocumentResponse converts a domain stock document
func ToDocumentResponse(d *inventory.StockDocument) *DocumentResponse {
	resp := &DocumentResponse{
		ID:              d.ID,
		DocNumber:       d.DocNumber,
		Type:            string(d.Type),
		Status:          string(d.Status),
		WarehouseID:     d.WarehouseID,
		DestWarehouseID: d.DestWarehouseID,
		RefTripID:       d.Ref.TripID,
		RefOrderID:      d.Ref.OrderID,
		RefDocumentID:   d.Ref.DocumentID,
		Reason:          d.Reason,
		PostedAt:        d.PostedAt,
		CancelledAt:     d.CancelledAt,
		Lines:           make([]DocumentLineResponse, 0, len(d.Lines)),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	for _, l := range d.Lines {
		line := DocumentLineResponse{
			ID:        l.ID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		}
		if l.FromBucket != nil {
			from := string(*l.FromBucket)
			line.FromBucket = &from
		}
		if l.ToBucket != nil {
			to := string(*l.ToBucket)
			line.ToBucket = &to
		}
		resp.Lines = append(resp.Lines, line)
	}
	return resp
}

// ToReservationResponse converts a domain reservation
func ToReservationResponse(r *inventory.StockReservation) *ReservationResponse {
	return &ReservationResponse{
		ID:          r.ID,
		OrderID:     r.OrderID,
		WarehouseID: r.WarehouseID,
		VariantID:   r.VariantID,
		Bucket:      string(r.Bucket),
		Quantity:    r.Quantity,
		Status:      string(r.Status),
		ExpiresAt:   r.ExpiresAt,
		CreatedAt:   r.CreatedAt,
	}
}

// toDomainLine converts the request shape to a domain document line
func toDomainLine(req DocumentLineRequest) inventory.StockDocumentLine {
	line := inventory.StockDocumentLine{
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		UnitCost:  req.UnitCost,
	}
	if req.FromBucket != nil {
		b := inventory.Bucket(*req.FromBucket)
		line.FromBucket = &b
	}
	if req.ToBucket != nil {
		b := inventory.Bucket(*req.ToBucket)
		line.ToBucket = &b
	}
	return line
}
