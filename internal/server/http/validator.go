package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Additional-Code/storefront/pkg/errorbank"
)

// Validator adapts go-playground/validator to echo.Validator and reports
// failures as bad requests naming the offending JSON fields.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a Validator that reports fields by their json tag.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}

	missing := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		missing = append(missing, fe.Field())
	}
	return errorbank.BadRequest("missing required fields: "+strings.Join(missing, ", "),
		errorbank.WithDetail("fields", missing),
		errorbank.WithCause(err),
	)
}
