// Package handler holds the gin handlers of the ledger API.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/logger"
	"github.com/subhransupk/shelfcure-sub008/internal/interfaces/http/dto"
	"github.com/subhransupk/shelfcure-sub008/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeBadRequest, message, middleware.GetRequestID(c)))
}

// BindingError sends a 400 response describing why the body did not bind
func (h *BaseHandler) BindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, middleware.BindingErrorResponse(err, middleware.GetRequestID(c)))
}

// HandleError converts err into an error response. Unknown errors are
// logged; their message never reaches the client.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, resp := dto.FromError(err, middleware.GetRequestID(c))
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("Request failed", zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, resp)
}

// tenantID returns the tenant resolved by the tenant middleware
func (h *BaseHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetTenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeUnauthorized, "Tenant identification required", middleware.GetRequestID(c)))
	}
	return id, ok
}

// pathID parses the :id path parameter, answering 400 when malformed
func (h *BaseHandler) pathID(c *gin.Context, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}
