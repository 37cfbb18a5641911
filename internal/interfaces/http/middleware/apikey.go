package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gasflow/backend/internal/domain/tenant"
	"github.com/gasflow/backend/internal/infrastructure/logger"
	"github.com/gasflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// APIKeyVerifier checks an API key token and returns its key record
type APIKeyVerifier interface {
	VerifyAPIKey(ctx context.Context, token string) (*tenant.APIKey, error)
}

// APIKeyAuth authenticates ingest requests with an API key from the
// X-API-Key header (or Authorization: Bearer). The key's tenant becomes
// the request tenant.
func APIKeyAuth(verifier APIKeyVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-API-Key")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, bearerPrefix) {
				token = strings.TrimPrefix(authHeader, bearerPrefix)
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Missing API key", c.GetString(RequestIDKey)))
			return
		}

		key, err := verifier.VerifyAPIKey(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Invalid API key", c.GetString(RequestIDKey)))
			return
		}

		c.Set(TenantIDKey, key.TenantID)
		c.Request = c.Request.WithContext(
			logger.WithTenantID(c.Request.Context(), key.TenantID.String()))

		c.Next()
	}
}
