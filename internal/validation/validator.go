// Package validation checks struct values with validator/v10 and converts
// failures into domain validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/randomchars42/Sortingshop/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that names fields after their ini or json tag.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"ini", "json"} {
			name, _, _ := strings.Cut(fld.Tag.Get(key), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string)
	names := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Namespace()] = v.friendlyMessage(e)
		names = append(names, e.Namespace()+" "+fieldErrors[e.Namespace()])
	}

	return domainerrors.ValidationWithDetails("validation failed: "+strings.Join(names, "; "), fieldErrors)
}

//nolint:gocyclo // Switch statement covering validation tags is intentionally exhaustive.
func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required when " + e.Param()
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s entries", e.Param())
		}
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "startswith":
		return "must start with " + e.Param()
	case "hostname_port":
		return "must be a host:port pair"
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	default:
		return "is invalid"
	}
}
