package middleware

import (
	"net/http"
	"strings"

	"github.com/gasflow/backend/internal/infrastructure/auth"
	"github.com/gasflow/backend/internal/infrastructure/logger"
	"github.com/gasflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// AuthConfig configures the JWT middleware
type AuthConfig struct {
	JWTService *auth.JWTService
	// DevTenantFallback, when non-empty, stands in for the tenant claim
	// on unauthenticated requests. Never set in production.
	DevTenantFallback string
	SkipPaths         []string
	SkipPathPrefixes  []string
	Logger            *zap.Logger
}

// JWTAuth validates the bearer token and stores tenant, actor and role
// in the request context
func JWTAuth(cfg AuthConfig) gin.HandlerFunc {
	var devTenant uuid.UUID
	if cfg.DevTenantFallback != "" {
		devTenant = uuid.MustParse(cfg.DevTenantFallback)
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if devTenant != uuid.Nil {
				setIdentity(c, devTenant, uuid.Nil, "dev")
				c.Next()
				return
			}
			abortUnauthorized(c, "Missing authorization header")
			return
		}

		if !strings.HasPrefix(authHeader, bearerPrefix) {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)
		claims, err := cfg.JWTService.ValidateToken(tokenString)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Token validation failed",
					zap.String("path", path),
					zap.Error(err),
				)
			}
			if err == auth.ErrExpiredToken {
				abortUnauthorized(c, "Token has expired")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}

		tenantID, err := claims.GetTenantUUID()
		if err != nil {
			abortUnauthorized(c, "Invalid tenant claim")
			return
		}
		actorID, err := claims.GetSubjectUUID()
		if err != nil {
			abortUnauthorized(c, "Invalid subject claim")
			return
		}

		setIdentity(c, tenantID, actorID, claims.Role)
		c.Next()
	}
}

func setIdentity(c *gin.Context, tenantID, actorID uuid.UUID, role string) {
	c.Set(TenantIDKey, tenantID)
	c.Set(ActorIDKey, actorID)
	c.Set(RoleKey, role)

	ctx := logger.WithTenantID(c.Request.Context(), tenantID.String())
	if actorID != uuid.Nil {
		ctx = logger.WithUserID(ctx, actorID.String())
	}
	c.Request = c.Request.WithContext(ctx)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(dto.ErrCodeUnauthorized, message, c.GetString(RequestIDKey)))
}

// GetTenantID returns the tenant bound to the request
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(TenantIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// GetActorID returns the authenticated subject, uuid.Nil for the dev
// fallback identity
func GetActorID(c *gin.Context) uuid.UUID {
	v, exists := c.Get(ActorIDKey)
	if !exists {
		return uuid.Nil
	}
	id, _ := v.(uuid.UUID)
	return id
}
