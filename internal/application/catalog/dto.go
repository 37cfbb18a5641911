package catalog

import (
	"time"

	"github.com/gasflow/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest creates a new product
type CreateProductRequest struct {
	Code        string `json:"code" binding:"required,max=30"`
	Name        string `json:"name" binding:"required,max=200"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// UpdateProductRequest updates the mutable product fields
type UpdateProductRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// CreateVariantRequest creates a new variant under a product
type CreateVariantRequest struct {
	ProductID    uuid.UUID              `json:"product_id" binding:"required"`
	SKU          string                 `json:"sku" binding:"required,max=40"`
	Name         string                 `json:"name" binding:"required,max=200"`
	Kind         string                 `json:"kind" binding:"required,oneof=asset consumable deposit bundle"`
	Unit         string                 `json:"unit" binding:"required,oneof=EA KG L"`
	Barcode      string                 `json:"barcode"`
	DefaultPrice *decimal.Decimal       `json:"default_price"`
	TareWeightKg *decimal.Decimal       `json:"tare_weight_kg"`
	CapacityKg   *decimal.Decimal       `json:"capacity_kg"`
	Components   []BundleComponentInput `json:"components"`
}

// UpdateVariantRequest updates the mutable variant fields
type UpdateVariantRequest struct {
	Name         string           `json:"name" binding:"required,max=200"`
	Barcode      string           `json:"barcode"`
	DefaultPrice *decimal.Decimal `json:"default_price"`
	TareWeightKg *decimal.Decimal `json:"tare_weight_kg"`
	CapacityKg   *decimal.Decimal `json:"capacity_kg"`
}

// BundleComponentInput is the write shape of one bundle component
type BundleComponentInput struct {
	VariantID uuid.UUID       `json:"variant_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// SetComponentsRequest replaces a bundle's composition
type SetComponentsRequest struct {
	Components []BundleComponentInput `json:"components" binding:"required,min=1"`
}

// ProductListFilter narrows product listings
type ProductListFilter struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
	Search   string `form:"search"`
	Status   string `form:"status"`
	Category string `form:"category"`
}

// VariantListFilter narrows variant listings
type VariantListFilter struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	OrderBy   string `form:"order_by"`
	OrderDir  string `form:"order_dir"`
	Search    string `form:"search"`
	Status    string `form:"status"`
	Kind      string `form:"kind"`
	ProductID string `form:"product_id"`
}

// ProductResponse is the read shape of a product
type ProductResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BundleComponentResponse is the read shape of one bundle component
type BundleComponentResponse struct {
	VariantID uuid.UUID       `json:"variant_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// VariantResponse is the read shape of a variant
type VariantResponse struct {
	ID           uuid.UUID                 `json:"id"`
	ProductID    uuid.UUID                 `json:"product_id"`
	SKU          string                    `json:"sku"`
	Name         string                    `json:"name"`
	Kind         string                    `json:"kind"`
	Unit         string                    `json:"unit"`
	Barcode      string                    `json:"barcode,omitempty"`
	TrackStock   bool                      `json:"track_stock"`
	DefaultPrice decimal.Decimal           `json:"default_price"`
	TareWeightKg *decimal.Decimal          `json:"tare_weight_kg,omitempty"`
	CapacityKg   *decimal.Decimal          `json:"capacity_kg,omitempty"`
	Status       string                    `json:"status"`
	Components   []BundleComponentResponse `json:"components,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

// ToProductResponse converts a domain product
func ToProductResponse(p *catalog.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToVariantResponse converts a domain variant
func ToVariantResponse(v *catalog.Variant) *VariantResponse {
	resp := &VariantResponse{
		ID:           v.ID,
		ProductID:    v.ProductID,
		SKU:          v.SKU,
		Name:         v.Name,
		Kind:         string(v.Kind),
		Unit:         string(v.Unit),
		Barcode:      v.Barcode,
		TrackStock:   v.TrackStock,
		DefaultPrice: v.DefaultPrice,
		TareWeightKg: v.TareWeightKg,
		CapacityKg:   v.CapacityKg,
		Status:       string(v.Status),
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
	for _, c := range v.Components {
		resp.Components = append(resp.Components, BundleComponentResponse{
			VariantID: c.ComponentVariantID,
			Quantity:  c.Quantity,
		})
	}
	return resp
}
