package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// StatusNetworkError is the status code carried by errors raised when no
// HTTP response was received at all.
const StatusNetworkError = 0

// Sentinel causes wrapped by *Error. Use errors.Is to classify a failure.
var (
	ErrNetwork        = errors.New("network request failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrRequestFailed  = errors.New("request failed")
	ErrInvalidBody    = errors.New("invalid response body")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidBaseURL = errors.New("invalid API base URL")
)

// Error is returned for every failed remote call: non-2xx responses and
// transport failures alike.
type Error struct {
	Message    string
	StatusCode int
	// Payload holds the raw JSON error envelope when the server sent one.
	Payload json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	if e.StatusCode == StatusNetworkError {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the server rejected the credentials.
func (e *Error) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// AsError extracts *Error from err.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Unauthorized()
}

// IsNetwork reports whether err is a transport failure with no response.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// StatusCode returns the HTTP status carried by err, or StatusNetworkError
// when err is not an *Error.
func StatusCode(err error) int {
	if apiErr, ok := AsError(err); ok {
		return apiErr.StatusCode
	}
	return StatusNetworkError
}

// Message returns a user-displayable message for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
