package auth

import "errors"

var (
	ErrAlreadyStarted   = errors.New("session controller already started")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrLoginFailed      = errors.New("login failed")
	ErrSessionChanged   = errors.New("session changed while the request was in flight")
	ErrClosed           = errors.New("session controller closed")
)
