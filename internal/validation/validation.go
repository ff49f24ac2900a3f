// Package validation checks request payloads with struct tags and reports
// failures as apperr.ErrValidation.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sipico/palette-api/internal/apperr"
)

var (
	// colorNamePattern: lowercase letters, digits and hyphens, starting with a letter.
	colorNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

	// slugPattern: lowercase alphanumeric words joined by single hyphens.
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report JSON field names rather than Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("colorname", func(fl validator.FieldLevel) bool {
		return IsColorName(fl.Field().String())
	})
	_ = validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return IsSlug(fl.Field().String())
	})
}

// IsColorName reports whether s is a valid proposed color name.
func IsColorName(s string) bool {
	return colorNamePattern.MatchString(s)
}

// IsSlug reports whether s is a valid palette slug.
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Struct validates v against its `validate` tags. Field failures are
// returned wrapped in apperr.ErrValidation with one message per field.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation could not run: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", apperr.ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, lengthUnit(fe))
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, lengthUnit(fe))
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	case "colorname":
		return field + " must start with a letter and contain only lowercase letters, digits and hyphens"
	case "slug":
		return field + " must be lowercase words separated by single hyphens"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func lengthUnit(fe validator.FieldError) string {
	if fe.Kind() == reflect.Slice {
		return fe.Param() + " items"
	}
	return fe.Param() + " characters"
}
