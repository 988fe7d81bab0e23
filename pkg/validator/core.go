package validator

import (
	"errors"
	"strings"
)

// Numeric is the set of types NonZero accepts.
type Numeric interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// ValidationError is a single failed check. Message is meant for display.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is every failed check of one input, in rule order.
type ValidationErrors []ValidationError

// Error joins the display messages, so the error reads well when printed.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "invalid input"
	}
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field failed any check.
func (ve ValidationErrors) Has(field string) bool {
	for _, e := range ve {
		if e.Field == field {
			return true
		}
	}
	return false
}

// First returns the message of the first failed check, which is what a
// single-line form shows.
func (ve ValidationErrors) First() string {
	if len(ve) == 0 {
		return ""
	}
	return ve[0].Message
}

// Rule is one check with the error reported when it fails.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply runs every rule and returns the failures as ValidationErrors, or nil.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, rule := range rules {
		if !rule.Check() {
			errs = append(errs, rule.Error)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ExtractValidationErrors unwraps ValidationErrors from err, or returns nil.
func ExtractValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}
