package dto

import (
	"net/http"

	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
)

// Transport level error codes. Domain errors use the shared.Code* values.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeTooLarge     = "REQUEST_TOO_LARGE"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeUnavailable  = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeUnavailable:  http.StatusServiceUnavailable,

	// Rejected input, including amounts that would break a balance invariant
	shared.CodeValidation:     http.StatusBadRequest,
	shared.CodeInvalidBalance: http.StatusBadRequest,
	shared.CodeExcessPayment:  http.StatusBadRequest,

	shared.CodeNotFound: http.StatusNotFound,

	// The request may succeed if retried or re-read
	shared.CodeAlreadyExists:       http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,
	shared.CodeContention:          http.StatusConflict,
	shared.CodeDuplicateRequest:    http.StatusConflict,
	shared.CodeDriftDetected:       http.StatusConflict,

	shared.CodeInvalidState: http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
