// Package validation checks request payloads against their `validate` struct
// tags before any collaborator is called.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	dErrors "authgate/pkg/domain-errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their json names so attribution matches the wire.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return strings.ToLower(fld.Name)
			}
			return name
		})
	})
	return validate
}

// Struct validates s using tags like `validate:"required,email"`. On failure
// it returns a validation domain error with one Fields entry per failing
// field (fields fail in declaration order, so Field names the first). The
// client-facing description stays generic; the precise reasons are kept on
// the wrapped error for logs.
func Struct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid data")
	}

	fields := make([]string, 0, len(verrs))
	reasons := make([]string, 0, len(verrs))
	for _, ve := range verrs {
		fields = append(fields, ve.Field())
		reasons = append(reasons, ve.Field()+" "+describe(ve))
	}
	reason := errors.New(strings.Join(reasons, "; "))
	return dErrors.Wrap(reason, dErrors.CodeValidation, "invalid data").WithFields(fields...)
}

// describe turns a failed rule into a short human-readable reason.
func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	default:
		return "is invalid"
	}
}
