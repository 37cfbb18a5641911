package order

import (
	"time"

	"github.com/gasflow/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest creates a draft order
type CreateOrderRequest struct {
	CustomerID        uuid.UUID  `json:"customer_id" binding:"required"`
	WarehouseID       uuid.UUID  `json:"warehouse_id" binding:"required"`
	DeliveryAddressID *uuid.UUID `json:"delivery_address_id"`
	RequestedDate     *time.Time `json:"requested_date"`
	Currency          string     `json:"currency" binding:"required,len=3"`
	Notes             string     `json:"notes"`
}

// UpdateOrderRequest updates the mutable draft header fields
type UpdateOrderRequest struct {
	DeliveryAddressID *uuid.UUID `json:"delivery_address_id"`
	RequestedDate     *time.Time `json:"requested_date"`
	Notes             string     `json:"notes"`
}

// AddLineRequest adds a line to a draft order. When UnitPrice is set
// the price is taken as a manual override; otherwise it is resolved
// through the price lists.
type AddLineRequest struct {
	VariantID uuid.UUID        `json:"variant_id" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Discount  *decimal.Decimal `json:"discount"`
}

// UpdateLineRequest changes quantity, price or discount on a draft line
type UpdateLineRequest struct {
	Quantity  *decimal.Decimal `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	Discount  *decimal.Decimal `json:"discount"`
}

// CancelOrderRequest cancels an order with a reason
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListFilter narrows order listings
type ListFilter struct {
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir"`
	Search     string     `form:"search"`
	Status     string     `form:"status"`
	CustomerID string     `form:"customer_id"`
	DateFrom   *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo     *time.Time `form:"date_to" time_format:"2006-01-02"`
}

// LineResponse is the read shape of one order line
type LineResponse struct {
	ID             uuid.UUID       `json:"id"`
	VariantID      uuid.UUID       `json:"variant_id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	LineTotal      decimal.Decimal `json:"line_total"`
	ParentLineID   *uuid.UUID      `json:"parent_line_id,omitempty"`
	PriceSource    string          `json:"price_source"`
}

// OrderResponse is the read shape of an order
type OrderResponse struct {
	ID                uuid.UUID       `json:"id"`
	OrderNumber       string          `json:"order_number"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	DeliveryAddressID *uuid.UUID      `json:"delivery_address_id,omitempty"`
	WarehouseID       uuid.UUID       `json:"warehouse_id"`
	RequestedDate     *time.Time      `json:"requested_date,omitempty"`
	Status            string          `json:"status"`
	Currency          string          `json:"currency"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Notes             string          `json:"notes,omitempty"`
	TripID            *uuid.UUID      `json:"trip_id,omitempty"`
	ConfirmedAt       *time.Time      `json:"confirmed_at,omitempty"`
	DeliveredAt       *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt       *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason      string          `json:"cancel_reason,omitempty"`
	Lines             []LineResponse  `json:"lines"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToOrderResponse converts a domain order
func ToOrderResponse(o *order.Order) *OrderResponse {
	resp := &OrderResponse{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		CustomerID:        o.CustomerID,
		DeliveryAddressID: o.DeliveryAddressID,
		WarehouseID:       o.WarehouseID,
		RequestedDate:     o.RequestedDate,
		Status:            string(o.Status),
		Currency:          o.Currency,
		TotalAmount:       o.TotalAmount,
		Notes:             o.Notes,
		TripID:            o.TripID,
		ConfirmedAt:       o.ConfirmedAt,
		DeliveredAt:       o.DeliveredAt,
		CancelledAt:       o.CancelledAt,
		CancelReason:      o.CancelReason,
		Lines:             make([]LineResponse, 0, len(o.Lines)),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, LineResponse{
			ID:             l.ID,
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
	return resp
}
