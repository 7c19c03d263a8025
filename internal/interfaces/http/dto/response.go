// Package dto holds the JSON envelope shared by every HTTP response and the
// mapping from error codes to HTTP status codes.
package dto

import (
	"errors"
	"net/http"

	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
)

// Response is the envelope of every API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Meta is pagination metadata
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta creates a success response with pagination meta
func NewSuccessResponseWithMeta(data any, total int64, page, pageSize int) Response {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	}
}

// NewErrorResponseWithRequestID creates an error response tagged with the request ID
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	resp := NewErrorResponse(code, message)
	resp.Error.RequestID = requestID
	return resp
}

// FromError converts err into a status code and error envelope. Domain
// errors keep their code; invariant violations also report the attempted
// and permitted amounts. Anything else is an internal error and its message
// is not exposed.
func FromError(err error, requestID string) (int, Response) {
	var violation *shared.InvariantViolationError
	if errors.As(err, &violation) {
		resp := NewErrorResponseWithRequestID(violation.Code, violation.Message, requestID)
		resp.Error.Details = map[string]any{
			"attempted": violation.Attempted.String(),
			"permitted": violation.Permitted.String(),
		}
		return GetHTTPStatus(violation.Code), resp
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return GetHTTPStatus(domainErr.Code), NewErrorResponseWithRequestID(domainErr.Code, domainErr.Message, requestID)
	}

	return http.StatusInternalServerError,
		NewErrorResponseWithRequestID(ErrCodeInternal, "An unexpected error occurred", requestID)
}
