// Package sanitizer normalises user input before it is validated and sent to
// the API.
//
// Field helpers (Email, Text, Notes, Filename, Amount) are built from small
// string transforms that can be chained with Apply or Compose:
//
//	clean := sanitizer.Compose(sanitizer.RemoveControlChars, sanitizer.SingleLine)
//	purpose := clean(raw)
//
// Sanitisers never reject input. A value that cannot be cleaned into
// something valid is left for the validator package to report.
package sanitizer
