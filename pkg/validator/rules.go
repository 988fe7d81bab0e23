package validator

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted by the API filters.
const DateLayout = "2006-01-02"

// Required validates that a string is not empty after trimming whitespace.
func Required(field, value, message string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: newError(field, message, "field is required"),
	}
}

func MinLen(field, value string, min int, message string) Rule {
	return Rule{
		Check: func() bool {
			return len([]rune(value)) >= min
		},
		Error: newError(field, message, fmt.Sprintf("must be at least %d characters long", min)),
	}
}

// Email validates a bare address such as "user@example.com".
// Display-name forms are rejected.
func Email(field, value, message string) Rule {
	return Rule{
		Check: func() bool {
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != value {
				return false
			}
			at := strings.LastIndex(value, "@")
			return at > 0 && strings.Contains(value[at+1:], ".")
		},
		Error: newError(field, message, "must be a valid email address"),
	}
}

// Equal validates that a confirmation value matches the original.
func Equal(field, value, other, message string) Rule {
	return Rule{
		Check: func() bool {
			return value == other
		},
		Error: newError(field, message, "values do not match"),
	}
}

// NonZero validates that a numeric value is set.
func NonZero[T Numeric](field string, value T, message string) Rule {
	var zero T
	return Rule{
		Check: func() bool {
			return value != zero
		},
		Error: newError(field, message, "must not be zero"),
	}
}

// OneOf validates that value belongs to allowed. Empty values pass, combine
// with Required when the field is mandatory.
func OneOf[T comparable](field string, value T, allowed []T, message string) Rule {
	return Rule{
		Check: func() bool {
			var zero T
			return value == zero || slices.Contains(allowed, value)
		},
		Error: newError(field, message, fmt.Sprintf("must be one of: %v", allowed)),
	}
}

// Date validates an optional calendar date in DateLayout.
func Date(field, value, message string) Rule {
	return Rule{
		Check: func() bool {
			if value == "" {
				return true
			}
			_, err := time.Parse(DateLayout, value)
			return err == nil
		},
		Error: newError(field, message, "must be a date in YYYY-MM-DD format"),
	}
}

// DateRange validates that start is not after end. Either bound may be empty.
func DateRange(field, start, end, message string) Rule {
	return Rule{
		Check: func() bool {
			if start == "" || end == "" {
				return true
			}
			s, errS := time.Parse(DateLayout, start)
			e, errE := time.Parse(DateLayout, end)
			if errS != nil || errE != nil {
				return true // reported by Date
			}
			return !s.After(e)
		},
		Error: newError(field, message, "start date must not be after end date"),
	}
}

func newError(field, message, fallback string) ValidationError {
	if message == "" {
		message = fallback
	}
	return ValidationError{Field: field, Message: message}
}
