package session

import "errors"

var (
	// ErrNoSession is returned by Load when no complete session is persisted.
	ErrNoSession = errors.New("no persisted session")

	// ErrInvalidSession is returned by Save for a session missing its token or user.
	ErrInvalidSession = errors.New("session must carry both token and user")

	ErrStorage = errors.New("session storage failed")
)
