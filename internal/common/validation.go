package common

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError is one failed rule on one config field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s=%v: %s", e.Field, e.Value, e.Message)
}

// Rule checks a single value. It returns nil when the value passes.
type Rule func(field string, value any) *ValidationError

// Validator collects failures across fields so a config reports every
// problem at once.
type Validator struct {
	failures []ValidationError
}

func NewValidator() *Validator { return &Validator{} }

func (v *Validator) Field(name string, value any, rules ...Rule) *Validator {
	for _, rule := range rules {
		if f := rule(name, value); f != nil {
			v.failures = append(v.failures, *f)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool { return len(v.failures) > 0 }

// ErrorMessage joins every failure with "; ", or returns "" when none.
func (v *Validator) ErrorMessage() string {
	parts := make([]string, len(v.failures))
	for i, f := range v.failures {
		parts[i] = f.Error()
	}
	return strings.Join(parts, "; ")
}

func fail(field string, value any, msg string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: msg}
}

// Required rejects nil, blank strings and empty string slices.
func Required(field string, value any) *ValidationError {
	switch v := value.(type) {
	case nil:
		return fail(field, value, "is required")
	case string:
		if strings.TrimSpace(v) == "" {
			return fail(field, value, "is required")
		}
	case []string:
		if len(v) == 0 {
			return fail(field, value, "is required")
		}
	}
	return nil
}

// OneOf accepts a string equal (case-insensitively) to one of options.
func OneOf(options ...string) Rule {
	return func(field string, value any) *ValidationError {
		s, ok := value.(string)
		if !ok {
			return fail(field, value, "must be a string")
		}
		for _, o := range options {
			if strings.EqualFold(s, o) {
				return nil
			}
		}
		return fail(field, value, "must be one of "+strings.Join(options, ", "))
	}
}

// Positive accepts ints and durations greater than zero.
func Positive(field string, value any) *ValidationError {
	n, ok := asInt64(value)
	switch {
	case !ok:
		return fail(field, value, "must be numeric")
	case n <= 0:
		return fail(field, value, "must be greater than zero")
	}
	return nil
}

// NonNegative accepts ints and durations of zero or more.
func NonNegative(field string, value any) *ValidationError {
	n, ok := asInt64(value)
	switch {
	case !ok:
		return fail(field, value, "must be numeric")
	case n < 0:
		return fail(field, value, "must not be negative")
	}
	return nil
}

func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case time.Duration:
		return int64(v), true
	}
	return 0, false
}
