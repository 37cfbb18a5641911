package handler

import (
	"io"
	"net/http"
	"time"

	tenantbillingapp "github.com/gasflow/backend/internal/application/tenantbilling"
	"github.com/gasflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// TenantHandler serves tenant provisioning, plans, subscriptions, API
// keys, usage and the billing webhook
type TenantHandler struct {
	BaseHandler
	service *tenantbillingapp.Service
}

// NewTenantHandler creates a tenant handler
func NewTenantHandler(service *tenantbillingapp.Service) *TenantHandler {
	return &TenantHandler{service: service}
}

// RegisterRoutes mounts tenant and billing routes on the API group
func (h *TenantHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tenants := rg.Group("/tenants")
	tenants.POST("", h.Provision)
	tenants.GET("/:id", h.Get)
	tenants.POST("/:id/suspend", h.Suspend)
	tenants.POST("/:id/reactivate", h.Reactivate)

	rg.GET("/plans", h.ListPlans)

	subscription := rg.Group("/subscription")
	subscription.POST("", h.Subscribe)
	subscription.GET("", h.GetSubscription)
	subscription.DELETE("", h.CancelSubscription)

	apiKeys := rg.Group("/api-keys")
	apiKeys.POST("", h.CreateAPIKey)
	apiKeys.GET("", h.ListAPIKeys)
	apiKeys.DELETE("/:id", h.RevokeAPIKey)

	rg.GET("/usage", h.GetUsage)
}

// Provision creates a tenant on the free plan
func (h *TenantHandler) Provision(c *gin.Context) {
	var req tenantbillingapp.ProvisionTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.ProvisionTenant(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns one tenant
func (h *TenantHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.GetTenant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Suspend blocks a tenant
func (h *TenantHandler) Suspend(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.SuspendTenant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Reactivate restores a suspended tenant
func (h *TenantHandler) Reactivate(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.ReactivateTenant(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListPlans returns the plan catalog
func (h *TenantHandler) ListPlans(c *gin.Context) {
	resp, err := h.service.ListPlans(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Subscribe starts or changes the tenant's subscription
func (h *TenantHandler) Subscribe(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req tenantbillingapp.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.Subscribe(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetSubscription returns the tenant's subscription
func (h *TenantHandler) GetSubscription(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetSubscription(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CancelSubscription cancels at period end
func (h *TenantHandler) CancelSubscription(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	resp, err := h.service.CancelSubscription(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateAPIKey mints an API key; the token is shown exactly once
func (h *TenantHandler) CreateAPIKey(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var req tenantbillingapp.CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindingError(c, err)
		return
	}
	resp, err := h.service.CreateAPIKey(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListAPIKeys returns the tenant's API keys without secrets
func (h *TenantHandler) ListAPIKeys(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	resp, err := h.service.ListAPIKeys(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RevokeAPIKey disables an API key
func (h *TenantHandler) RevokeAPIKey(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.RevokeAPIKey(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetUsage returns metered usage for a billing period (YYYY-MM,
// defaults to the current month)
func (h *TenantHandler) GetUsage(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	period := time.Now()
	if p := c.Query("period"); p != "" {
		parsed, err := time.Parse("2006-01", p)
		if err != nil {
			h.BadRequest(c, "Invalid period, expected YYYY-MM")
			return
		}
		period = parsed
	}
	resp, err := h.service.GetUsage(c.Request.Context(), tenantID, period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// StripeWebhook receives billing events from Stripe. Authentication is
// the signature header, not a JWT.
func (h *TenantHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read webhook payload")
		return
	}
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Missing Stripe-Signature header")
		return
	}

	if err := h.service.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"received": true})
}
