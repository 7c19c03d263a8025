package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/cache"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/logger"
	"github.com/subhransupk/shelfcure-sub008/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyKey is the gin context key holding the client's Idempotency-Key
const IdempotencyKey = "idempotency_key"

// MaxIdempotencyKeyLength caps client supplied keys
const MaxIdempotencyKeyLength = 200

// Idempotency claims the request's Idempotency-Key before the handler runs.
// A key already claimed, by a request in flight or one that succeeded
// within ttl, is rejected with 409 DUPLICATE_REQUEST. A claim whose request
// failed is released so the client can retry with the same key. Requests
// without the header pass through. Must run after Tenant.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			abort(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
			return
		}

		tenantID, ok := GetTenantID(c)
		if !ok {
			abort(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Tenant identification required")
			return
		}

		ctx := c.Request.Context()
		log := logger.FromContext(ctx).With(zap.String("idempotency_key", key))
		storeKey := cache.PaymentKey(tenantID.String(), key)

		claimed, err := store.Claim(ctx, storeKey, ttl)
		if err != nil {
			log.Error("Failed to claim idempotency key", zap.Error(err))
			abort(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Idempotency store unavailable, retry the request")
			return
		}
		if !claimed {
			log.Warn("Duplicate request rejected")
			abort(c, http.StatusConflict, shared.CodeDuplicateRequest, shared.ErrDuplicateRequest.Message)
			return
		}

		c.Set(IdempotencyKey, key)
		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(context.WithoutCancel(ctx), storeKey); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
		}
	}
}

// GetIdempotencyKey returns the key claimed by Idempotency
func GetIdempotencyKey(c *gin.Context) string {
	return c.GetString(IdempotencyKey)
}
