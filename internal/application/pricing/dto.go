package pricing

import (
	"time"

	"github.com/gasflow/backend/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePriceListRequest creates a new price list
type CreatePriceListRequest struct {
	Code      string     `json:"code" binding:"required,max=30"`
	Name      string     `json:"name" binding:"required,max=200"`
	Currency  string     `json:"currency" binding:"required,len=3"`
	ValidFrom *time.Time `json:"valid_from"`
	ValidTo   *time.Time `json:"valid_to"`
}

// UpdatePriceListRequest updates the list header
type UpdatePriceListRequest struct {
	Name      *string    `json:"name"`
	ValidFrom *time.Time `json:"valid_from"`
	ValidTo   *time.Time `json:"valid_to"`
}

// UpsertItemRequest inserts or replaces one price break
type UpsertItemRequest struct {
	VariantID   uuid.UUID       `json:"variant_id" binding:"required"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// ListFilter narrows price list listings
type ListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
	Search   string `form:"search"`
	Status   string `form:"status"`
}

// ItemResponse is the read shape of one price break
type ItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	VariantID   uuid.UUID       `json:"variant_id"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// PriceListResponse is the read shape of a price list
type PriceListResponse struct {
	ID        uuid.UUID      `json:"id"`
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Currency  string         `json:"currency"`
	ValidFrom *time.Time     `json:"valid_from,omitempty"`
	ValidTo   *time.Time     `json:"valid_to,omitempty"`
	IsDefault bool           `json:"is_default"`
	Status    string         `json:"status"`
	Items     []ItemResponse `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ToPriceListResponse converts a domain price list
func ToPriceListResponse(p *pricing.PriceList) *PriceListResponse {
	resp := &PriceListResponse{
		ID:        p.ID,
		Code:      p.Code,
		Name:      p.Name,
		Currency:  p.Currency,
		ValidFrom: p.ValidFrom,
		ValidTo:   p.ValidTo,
		IsDefault: p.IsDefault,
		Status:    string(p.Status),
		Items:     make([]ItemResponse, 0, len(p.Items)),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	for _, it := range p.Items {
		resp.Items = append(resp.Items, ItemResponse{
			ID:          it.ID,
			VariantID:   it.VariantID,
			MinQuantity: it.MinQuantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return resp
}
