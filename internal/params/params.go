// Package params parses request query parameters into typed values.
//
// Every numeric parameter is parsed explicitly; a value that does not parse
// is reported as a validation error naming the parameter instead of being
// silently dropped. Range rules on parsed structs are declared with
// go-playground/validator tags and checked by Struct.
package params

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/classdata/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report violations under the query parameter name, not the Go field.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("param"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Int returns the integer value of name, or nil when the parameter is absent
// or empty.
func Int(q url.Values, name string) (*int64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, invalid(name, "an integer", raw)
	}
	return &v, nil
}

// IntDefault is Int with a fallback for an absent parameter.
func IntDefault(q url.Values, name string, def int) (int, error) {
	v, err := Int(q, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return def, nil
	}
	if int64(int(*v)) != *v {
		return 0, invalid(name, "an integer", q.Get(name))
	}
	return int(*v), nil
}

// Float returns the numeric value of name, or nil when absent or empty.
// NaN and infinities are rejected.
func Float(q url.Values, name string) (*float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, invalid(name, "a finite number", raw)
	}
	return &v, nil
}

// Struct checks the validator tags on s and returns the first violation as
// a validation error.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return apperr.Validation(apperr.CodeInvalidParam, "%s %s, got %v", fe.Field(), rule(fe), fe.Value())
}

func rule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte", "min":
		return "must be >= " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	case "lte", "max":
		return "must be <= " + fe.Param()
	case "lt":
		return "must be < " + fe.Param()
	case "required":
		return "is required"
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}

func invalid(name, want, raw string) error {
	return apperr.Validation(apperr.CodeInvalidParam, "%s must be %s, got %q", name, want, raw)
}
