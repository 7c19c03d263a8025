package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/subhransupk/shelfcure-sub008/internal/interfaces/http/dto"
)

// DefaultBodyLimit is the largest request body the API accepts
const DefaultBodyLimit int64 = 1 << 20

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size", GetRequestID(c)))
			return
		}

		// Chunked bodies carry no length, cap the reader instead
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
