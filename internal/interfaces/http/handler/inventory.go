package handler

import (
	"context"

	inventoryapp "github.com/gasflow/backend/internal/application/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InventoryHandler serves warehouse, stock level, stock document and
// reservation endpoints
type InventoryHandler struct {
	BaseHandler
	service *inventoryapp.Service
}

// NewInventoryHandler creates an inventory handler
func NewInventoryHandler(service *inventoryapp.Service) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// RegisterRoutes mounts inventory routes on the API group
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	warehouses := rg.Group("/warehouses")
	warehouses.POST("", h.CreateWarehouse)
	warehouses.GET("", h.ListWarehouses)
	warehouses.GET("/:id", h.GetWarehouse)
	warehouses.PUT("/:id", h.UpdateWarehouse)
	warehouses.POST("/:id/activate", h.ActivateWarehouse)
	warehouses.POST("/:id/deactivate", h.DeactivateWarehouse)

	rg.GET("/stock-levels", h.ListStockLevels)
	rg.GET("/reservations", h.ListReservations)

	docs := rg.Group("/stock-documents")
	docs.POST("", h.CreateDocument)
	docs.GET("", h.ListDocuments)
	docs.GET("/:id", h.GetDocument)
	docs.POST("/:id/lines", h.AddDocumentLine)
	docs.DELETE("/:id/lines/:lineId", h.RemoveDocumentLine)
	docs.POST("/:id/post", h.PostDocument)
	docs.POST("/:id/cancel", h.CancelDocument)

	// one-shot movements: build, post and apply in a single call
	docs.POST("/receive", h.movement(h.service.Receive))
	docs.POST("/issue", h.movement(h.service.Issue))
	docs.POST("/transfer", h.movement(h.service.Transfer))
	docs.POST("/transfer-receive", h.movement(h.service.ReceiveTransfer))
	docs.POST("/adjust", h.movement(h.service.Adjust))
	docs.POST("/reclassify", h.movement(h.service.Reclassify))
}

// CreateWarehouse registers a warehouse
func (h *InventoryHandler) CreateWarehouse(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req inventoryapp.CreateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.CreateWarehouse(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListWarehouses returns the tenant's warehouses
func (h *InventoryHandler) ListWarehouses(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	page, err := h.service.ListWarehouses(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetWarehouse returns one warehouse
func (h *InventoryHandler) GetWarehouse(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.GetWarehouse(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateWarehouse changes warehouse master data
func (h *InventoryHandler) UpdateWarehouse(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.UpdateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.UpdateWarehouse(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ActivateWarehouse reopens a warehouse
func (h *InventoryHandler) ActivateWarehouse(c *gin.Context) {
	h.warehouseTransition(c, h.service.ActivateWarehouse)
}

// DeactivateWarehouse closes a warehouse for new movements
func (h *InventoryHandler) DeactivateWarehouse(c *gin.Context) {
	h.warehouseTransition(c, h.service.DeactivateWarehouse)
}

func (h *InventoryHandler) warehouseTransition(c *gin.Context, fn func(ctx context.Context, tenantID, id uuid.UUID) (*inventoryapp.WarehouseResponse, error)) {
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

// ListStockLevels returns on-hand quantities by warehouse, variant and
// bucket
func (h *InventoryHandler) ListStockLevels(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter inventoryapp.StockLevelFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	page, err := h.service.ListStockLevels(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListReservations returns stock reservations
func (h *InventoryHandler) ListReservations(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter inventoryapp.ReservationListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	page, err := h.service.ListReservations(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// CreateDocument opens a draft stock document
func (h *InventoryHandler) CreateDocument(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req inventoryapp.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.CreateDocument(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListDocuments returns stock documents matching the filter
func (h *InventoryHandler) ListDocuments(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter inventoryapp.DocumentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	page, err := h.service.ListDocuments(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetDocument returns one stock document
func (h *InventoryHandler) GetDocument(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.GetDocument(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddDocumentLine adds a line to a draft document
func (h *InventoryHandler) AddDocumentLine(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.DocumentLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.AddDocumentLine(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveDocumentLine removes a line from a draft document
func (h *InventoryHandler) RemoveDocumentLine(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.pathUUID(c, "lineId")
	if !ok {
		return
	}
	resp, err := h.service.RemoveDocumentLine(c.Request.Context(), tenantID, id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// PostDocument applies a draft document to stock
func (h *InventoryHandler) PostDocument(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.PostDocument(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// cancelDocumentRequest binds the cancellation body
type cancelDocumentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelDocument cancels a draft or reverses a posted document
func (h *InventoryHandler) CancelDocument(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req cancelDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.CancelDocument(c.Request.Context(), tenantID, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// movement wraps the one-shot direct movement operations
func (h *InventoryHandler) movement(fn func(ctx context.Context, tenantID uuid.UUID, req inventoryapp.DirectMovementRequest) (*inventoryapp.DocumentResponse, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := h.tenantID(c)
		if !ok {
			return
		}
		var req inventoryapp.DirectMovementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.HandleBindingError(c, err)
			return
		}
		resp, err := fn(c.Request.Context(), tenantID, req)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Created(c, resp)
	}
}
