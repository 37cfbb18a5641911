package handler

import (
	"context"

	customerapp "github.com/gasflow/backend/internal/application/customer"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CustomerHandler serves customer endpoints
type CustomerHandler struct {
	BaseHandler
	service *customerapp.Service
}

// NewCustomerHandler creates a customer handler
func NewCustomerHandler(service *customerapp.Service) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// RegisterRoutes mounts customer routes on the API group
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/customers")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.POST("/:id/activate", h.Activate)
	g.POST("/:id/deactivate", h.Deactivate)
	g.POST("/:id/suspend", h.Suspend)
	g.POST("/:id/addresses", h.AddAddress)
	g.PUT("/:id/addresses/:addressId", h.UpdateAddress)
	g.DELETE("/:id/addresses/:addressId", h.RemoveAddress)
	g.POST("/:id/addresses/:addressId/primary", h.SetPrimaryAddress)
	g.PUT("/:id/price-list", h.AssignPriceList)
	g.DELETE("/:id/price-list", h.ClearPriceList)
}

// Create registers a new customer
func (h *CustomerHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req customerapp.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns customers matching the filter
func (h *CustomerHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter customerapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	page, err := h.service.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get returns one customer
func (h *CustomerHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update changes customer master data
func (h *CustomerHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req customerapp.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Activate moves a customer to active
func (h *CustomerHandler) Activate(c *gin.Context) {
	h.transition(c, h.service.Activate)
}

// Deactivate moves a customer to inactive
func (h *CustomerHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.service.Deactivate)
}

// Suspend blocks a customer from ordering
func (h *CustomerHandler) Suspend(c *gin.Context) {
	h.transition(c, h.service.Suspend)
}

func (h *CustomerHandler) transition(c *gin.Context, fn func(ctx context.Context, tenantID, id uuid.UUID) (*customerapp.CustomerResponse, error)) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := fn(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddAddress adds a delivery or billing address
func (h *CustomerHandler) AddAddress(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req customerapp.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.AddAddress(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateAddress changes an existing address
func (h *CustomerHandler) UpdateAddress(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	addressID, ok := h.pathUUID(c, "addressId")
	if !ok {
		return
	}
	var req customerapp.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.UpdateAddress(c.Request.Context(), tenantID, id, addressID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveAddress deletes an address
func (h *CustomerHandler) RemoveAddress(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	addressID, ok := h.pathUUID(c, "addressId")
	if !ok {
		return
	}
	resp, err := h.service.RemoveAddress(c.Request.Context(), tenantID, id, addressID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetPrimaryAddress marks an address as the default delivery address
func (h *CustomerHandler) SetPrimaryAddress(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	addressID, ok := h.pathUUID(c, "addressId")
	if !ok {
		return
	}
	resp, err := h.service.SetPrimaryAddress(c.Request.Context(), tenantID, id, addressID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// assignPriceListRequest binds the price list assignment body
type assignPriceListRequest struct {
	PriceListID uuid.UUID `json:"price_list_id" binding:"required"`
}

// AssignPriceList pins a customer to a price list
func (h *CustomerHandler) AssignPriceList(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req assignPriceListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.AssignPriceList(c.Request.Context(), tenantID, id, req.PriceListID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ClearPriceList removes the customer's price list pin
func (h *CustomerHandler) ClearPriceList(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.ClearPriceList(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
