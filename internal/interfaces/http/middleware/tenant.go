package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/logger"
	"github.com/subhransupk/shelfcure-sub008/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Gin context keys set by Tenant and User
const (
	TenantIDKey = "tenant_id"
	UserIDKey   = "user_id"
)

// TenantConfig holds configuration for the tenant middleware
type TenantConfig struct {
	// SkipPaths are served without a tenant, e.g. the health check
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultTenantConfig returns the default tenant configuration
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		SkipPaths: []string{"/health", "/api/v1/health"},
	}
}

// Tenant requires an X-Tenant-ID header holding a UUID. Every ledger query
// is scoped by it. Missing headers are rejected with 401, malformed ones
// with 400.
func Tenant(cfg TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		raw := strings.TrimSpace(c.GetHeader(TenantHeader))
		if raw == "" {
			abort(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Tenant identification required")
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			abort(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Invalid tenant ID format")
			return
		}

		c.Set(TenantIDKey, tenantID)

		ctx := c.Request.Context()
		ctx, l := logger.WithTenantID(ctx, logger.FromContextOr(ctx, cfg.Logger), tenantID.String())
		c.Request = c.Request.WithContext(ctx)
		l.Debug("Tenant identified")

		c.Next()
	}
}

// User reads the optional X-User-ID header. The actor is recorded on ledger
// entries; a malformed value is rejected rather than silently dropped.
func User() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(UserHeader))
		if raw == "" {
			c.Next()
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			abort(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Invalid user ID format")
			return
		}

		c.Set(UserIDKey, userID)
		ctx := c.Request.Context()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), userID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetTenantID returns the tenant set by Tenant
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(TenantIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetUserID returns the actor set by User, nil when the request has none
func GetUserID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
