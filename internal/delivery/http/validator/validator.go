// Package validator plugs go-playground/validator into echo.
package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator implements echo.Validator.
type CustomValidator struct {
	validate *validator.Validate
}

// New returns a validator that reports fields by their json names.
func New() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return &CustomValidator{validate: v}
}

// Validate validates a bound request struct.
func (cv *CustomValidator) Validate(i any) error {
	return cv.validate.Struct(i)
}

// Describe renders validation errors as "field: tag" pairs.
func Describe(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		if fe.Param() != "" {
			parts = append(parts, fe.Field()+": "+fe.Tag()+"="+fe.Param())

			continue
		}
		parts = append(parts, fe.Field()+": "+fe.Tag())
	}

	return strings.Join(parts, "; ")
}
