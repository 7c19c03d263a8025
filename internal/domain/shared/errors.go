package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so sentinels survive
// being re-created with a more specific message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInvalidState        = "INVALID_STATE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeContention          = "CONTENTION"
	CodeInvalidBalance      = "INVALID_BALANCE"
	CodeExcessPayment       = "EXCESS_PAYMENT"
	CodeDriftDetected       = "DRIFT_DETECTED"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
)

// Common domain errors
var (
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrContention          = NewDomainError(CodeContention, "Too many concurrent updates, retry the request")
	ErrInvalidBalance      = NewDomainError(CodeInvalidBalance, "Resulting balance would be negative")
	ErrExcessPayment       = NewDomainError(CodeExcessPayment, "Payment exceeds outstanding amount")
	ErrDriftDetected       = NewDomainError(CodeDriftDetected, "Stored state differs from recorded history")
	ErrDuplicateRequest    = NewDomainError(CodeDuplicateRequest, "Request with this idempotency key was already submitted")
)

// NewValidationError reports malformed input. It is never retried.
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewNotFoundError reports an unknown entity of the given kind.
func NewNotFoundError(kind string) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", kind))
}

// NewContentionError reports that an atomic update kept losing races
// until the retry budget ran out. Callers may retry the whole request.
func NewContentionError(attempts int) *DomainError {
	return NewDomainError(CodeContention,
		fmt.Sprintf("update aborted after %d attempts due to concurrent modifications; retry the request", attempts))
}

// InvariantViolationError is returned when an operation would break a
// balance invariant. It carries the attempted amount and the largest amount
// that would have been accepted so callers can correct their input.
type InvariantViolationError struct {
	*DomainError
	Attempted decimal.Decimal `json:"attempted"`
	Permitted decimal.Decimal `json:"permitted"`
}

// Unwrap exposes the underlying DomainError to errors.Is / errors.As
func (e *InvariantViolationError) Unwrap() error {
	return e.DomainError
}

// NewInvalidBalanceError is returned when applying change to previous would
// leave a negative balance.
func NewInvalidBalanceError(previous, change decimal.Decimal) *InvariantViolationError {
	return &InvariantViolationError{
		DomainError: NewDomainError(CodeInvalidBalance, fmt.Sprintf(
			"balance change of %s would leave balance of %s negative",
			change.StringFixed(2), previous.StringFixed(2))),
		Attempted: change.Abs(),
		Permitted: previous,
	}
}

// NewExcessPaymentError is returned when a payment is larger than the amount owed.
func NewExcessPaymentError(attempted, owed decimal.Decimal) *InvariantViolationError {
	return &InvariantViolationError{
		DomainError: NewDomainError(CodeExcessPayment, fmt.Sprintf(
			"payment amount %s exceeds outstanding balance of %s",
			attempted.StringFixed(2), owed.StringFixed(2))),
		Attempted: attempted,
		Permitted: owed,
	}
}
