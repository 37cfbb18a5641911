package handler

import (
	"context"

	logisticsapp "github.com/gasflow/backend/internal/application/logistics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LogisticsHandler serves vehicle, driver, trip and delivery endpoints
type LogisticsHandler struct {
	BaseHandler
	service *logisticsapp.Service
}

// NewLogisticsHandler creates a logistics handler
func NewLogisticsHandler(service *logisticsapp.Service) *LogisticsHandler {
	return &LogisticsHandler{service: service}
}

// RegisterRoutes mounts logistics routes on the API group
func (h *LogisticsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	vehicles := rg.Group("/vehicles")
	vehicles.POST("", h.CreateVehicle)
	vehicles.GET("", h.ListVehicles)
	vehicles.GET("/:id", h.GetVehicle)
	vehicles.PUT("/:id", h.UpdateVehicle)
	vehicles.POST("/:id/deactivate", h.DeactivateVehicle)

	drivers := rg.Group("/drivers")
	drivers.POST("", h.CreateDriver)
	drivers.GET("", h.ListDrivers)
	drivers.GET("/:id", h.GetDriver)
	drivers.POST("/:id/deactivate", h.DeactivateDriver)

	trips := rg.Group("/trips")
	trips.POST("", h.CreateTrip)
	trips.GET("", h.ListTrips)
	trips.GET("/:id", h.GetTrip)
	trips.POST("/:id/stops", h.AddStop)
	trips.DELETE("/:id/stops/:stopId", h.RemoveStop)
	trips.PUT("/:id/stops/order", h.ReorderStops)
	trips.POST("/:id/load", h.StartLoading)
	trips.POST("/:id/depart", h.Depart)
	trips.POST("/:id/stops/:stopId/deliver", h.RecordDelivery)
	trips.POST("/:id/stops/:stopId/fail", h.FailStop)
	trips.POST("/:id/stops/:stopId/skip", h.SkipStop)
	trips.POST("/:id/complete", h.Complete)
	trips.POST("/:id/cancel", h.CancelTrip)

	deliveries := rg.Group("/deliveries")
	deliveries.GET("", h.ListDeliveries)
	deliveries.GET("/:id", h.GetDelivery)
}

// CreateVehicle registers a vehicle
func (h *LogisticsHandler) CreateVehicle(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req logisticsapp.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.CreateVehicle(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListVehicles returns the tenant's vehicles
func (h *LogisticsHandler) ListVehicles(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	page, err := h.service.ListVehicles(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetVehicle returns one vehicle
func (h *LogisticsHandler) GetVehicle(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.GetVehicle(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateVehicle changes vehicle master data
func (h *LogisticsHandler) UpdateVehicle(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req logisticsapp.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.UpdateVehicle(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeactivateVehicle takes a vehicle out of service
func (h *LogisticsHandler) DeactivateVehicle(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.DeactivateVehicle(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateDriver registers a driver
func (h *LogisticsHandler) CreateDriver(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req logisticsapp.CreateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.CreateDriver(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListDrivers returns the tenant's drivers
func (h *LogisticsHandler) ListDrivers(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	page, err := h.service.ListDrivers(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetDriver returns one driver
func (h *LogisticsHandler) GetDriver(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.GetDriver(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeactivateDriver takes a driver out of service
func (h *LogisticsHandler) DeactivateDriver(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.DeactivateDriver(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateTrip plans a delivery trip
func (h *LogisticsHandler) CreateTrip(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req logisticsapp.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.CreateTrip(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListTrips returns trips matching the filter
func (h *LogisticsHandler) ListTrips(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter logisticsapp.TripListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	page, err := h.service.ListTrips(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetTrip returns one trip with its stops
func (h *LogisticsHandler) GetTrip(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.GetTrip(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddStop schedules a confirmed order onto a planned trip
func (h *LogisticsHandler) AddStop(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req logisticsapp.AddStopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.AddStop(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RemoveStop takes an order off a planned trip
func (h *LogisticsHandler) RemoveStop(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	stopID, ok := h.pathUUID(c, "stopId")
	if !ok {
		return
	}
	resp, err := h.service.RemoveStop(c.Request.Context(), tenantID, id, stopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ReorderStops rewrites the stop sequence of a planned trip
func (h *LogisticsHandler) ReorderStops(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req logisticsapp.ReorderStopsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.ReorderStops(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// StartLoading posts the load document and moves the trip to loading
func (h *LogisticsHandler) StartLoading(c *gin.Context) {
	h.tripTransition(c, h.service.StartLoading)
}

// Depart moves the trip en route
func (h *LogisticsHandler) Depart(c *gin.Context) {
	h.tripTransition(c, h.service.Depart)
}

// Complete unloads the remainder and closes the trip
func (h *LogisticsHandler) Complete(c *gin.Context) {
	h.tripTransition(c, h.service.Complete)
}

func (h *LogisticsHandler) tripTransition(c *gin.Context, fn func(ctx context.Context, tenantID, tripID uuid.UUID) (*logisticsapp.TripResponse, error)) {
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

// RecordDelivery records what was handed over at a stop
func (h *LogisticsHandler) RecordDelivery(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	stopID, ok := h.pathUUID(c, "stopId")
	if !ok {
		return
	}
	var req logisticsapp.RecordDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.RecordDelivery(c.Request.Context(), tenantID, id, stopID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// FailStop marks a stop as failed and returns the order to confirmed
func (h *LogisticsHandler) FailStop(c *gin.Context) {
	h.stopClosure(c, h.service.FailStop)
}

// SkipStop marks a stop as skipped and returns the order to confirmed
func (h *LogisticsHandler) SkipStop(c *gin.Context) {
	h.stopClosure(c, h.service.SkipStop)
}

func (h *LogisticsHandler) stopClosure(c *gin.Context, fn func(ctx context.Context, tenantID, tripID, stopID uuid.UUID, req logisticsapp.StopReasonRequest) (*logisticsapp.TripResponse, error)) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	stopID, ok := h.pathUUID(c, "stopId")
	if !ok {
		return
	}
	var req logisticsapp.StopReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := fn(c.Request.Context(), tenantID, id, stopID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CancelTrip cancels a trip before departure
func (h *LogisticsHandler) CancelTrip(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req logisticsapp.CancelTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.CancelTrip(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListDeliveries returns delivery records matching the filter
func (h *LogisticsHandler) ListDeliveries(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter logisticsapp.DeliveryListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	page, err := h.service.ListDeliveries(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetDelivery returns one delivery record
func (h *LogisticsHandler) GetDelivery(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.GetDelivery(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
