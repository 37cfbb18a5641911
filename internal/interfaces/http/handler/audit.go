package handler

import (
	auditapp "github.com/gasflow/backend/internal/application/audit"
	"github.com/gasflow/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuditHandler serves the audit trail. The same handler backs the
// authenticated API path and the API-key ingest path; only the batch
// cap differs.
type AuditHandler struct {
	BaseHandler
	service        *auditapp.Service
	maxBatchAPI    int
	maxBatchIngest int
}

// NewAuditHandler creates an audit handler
func NewAuditHandler(service *auditapp.Service, maxBatchAPI, maxBatchIngest int) *AuditHandler {
	return &AuditHandler{
		service:        service,
		maxBatchAPI:    maxBatchAPI,
		maxBatchIngest: maxBatchIngest,
	}
}

// RegisterRoutes mounts the authenticated audit routes on the API
// group. The ingest route is mounted separately by the router.
func (h *AuditHandler) RegisterRoutes(rg *gin.RouterGroup, idempotency gin.HandlerFunc) {
	g := rg.Group("/audit")
	g.POST("/events", idempotency, h.IngestAPI)
	g.GET("/events", h.List)
}

// ingestRequest binds an audit event batch
type ingestRequest struct {
	Events []auditapp.EventInput `json:"events" binding:"required,min=1"`
}

// IngestAPI accepts an event batch on the authenticated path
func (h *AuditHandler) IngestAPI(c *gin.Context) {
	h.ingest(c, h.maxBatchAPI)
}

// IngestEdge accepts an event batch on the API-key ingest path, which
// allows larger batches
func (h *AuditHandler) IngestEdge(c *gin.Context) {
	h.ingest(c, h.maxBatchIngest)
}

func (h *AuditHandler) ingest(c *gin.Context, maxBatch int) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	meta := auditapp.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: c.GetString(middleware.RequestIDKey),
	}

	result, err := h.service.Ingest(c.Request.Context(), tenantID, req.Events, meta, maxBatch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// List returns audit events newest first
func (h *AuditHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter auditapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.HandleBindingError(c, err)
		return
	}

	events, total, err := h.service.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, events, total, page, pageSize)
}
