package middleware

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/subhransupk/shelfcure-sub008/internal/interfaces/http/dto"
)

var setupOnce sync.Once

// SetupValidator makes gin's validator report JSON field names
func SetupValidator() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name == "" {
					name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
				}
				return name
			})
		}
	})
}

// BindingErrorResponse converts a gin binding error into a 400 envelope.
// Field level failures are listed in error.details keyed by field name.
func BindingErrorResponse(err error, requestID string) dto.Response {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, "Malformed request body", requestID)
	}

	resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, "Request validation failed", requestID)
	resp.Error.Details = make(map[string]any, len(validationErrors))
	for _, e := range validationErrors {
		resp.Error.Details[e.Field()] = validationMessage(e)
	}
	return resp
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	default:
		return "Invalid value"
	}
}
