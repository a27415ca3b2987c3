package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator reports fields by their json names and adds a "notblank" tag
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &Validator{validate: v}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationErrors converts validation errors to a field -> message map
func FormatValidationErrors(err error) map[string]string {
	out := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		if err != nil {
			out["request"] = err.Error()
		}
		return out
	}
	for _, e := range validationErrs {
		field := e.Field()
		switch e.Tag() {
		case "required", "notblank":
			out[field] = fmt.Sprintf("%s is required", field)
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s characters", field, e.Param())
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s characters", field, e.Param())
		case "gte":
			out[field] = fmt.Sprintf("%s must be greater than or equal to %s", field, e.Param())
		case "lte":
			out[field] = fmt.Sprintf("%s must be less than or equal to %s", field, e.Param())
		case "oneof":
			out[field] = fmt.Sprintf("%s must be one of: %s", field, e.Param())
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return out
}

// SanitizeString removes null bytes and invalid UTF-8, then trims
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(strings.ToValidUTF8(s, ""))
}
