// Package validation checks application commands before they reach a transaction.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/erp/costledger/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator. Field names in errors use json tags.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		instance = v
	})
	return instance
}

// FieldError is one failed field check
type FieldError struct {
	Field   string
	Message string
}

// Struct validates a command and returns an INVALID_INPUT domain error listing
// every failed field, or nil.
func Struct(cmd any) error {
	err := Validator().Struct(cmd)
	if err == nil {
		return nil
	}
	fields := Fields(err)
	if len(fields) == 0 {
		return shared.NewInvalidInputError(err.Error())
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return shared.NewInvalidInputError("Validation failed: " + strings.Join(parts, "; "))
}

// Fields extracts per-field failures from a validator error
func Fields(err error) []FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	out := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		out = append(out, FieldError{
			Field:   fieldPath(e),
			Message: message(e),
		})
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " items"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	default:
		return "Invalid value"
	}
}
