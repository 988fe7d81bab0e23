package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/biztrack/pkg/apiclient"
	"github.com/dmitrymomot/biztrack/pkg/bizapi"
	"github.com/dmitrymomot/biztrack/pkg/logger"
	"github.com/dmitrymomot/biztrack/pkg/sanitizer"
	"github.com/dmitrymomot/biztrack/pkg/session"
)

// API is the part of the remote API the controller drives.
// *bizapi.Service satisfies it.
type API interface {
	Login(ctx context.Context, email, password string) (*bizapi.LoginResult, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, token string) (*session.User, error)
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) (*bizapi.Result, error)
	ForgotPassword(ctx context.Context, email string) (*bizapi.Result, error)
	ResetPassword(ctx context.Context, resetToken, password string) (*bizapi.Result, error)
}

// SessionStore persists the session. *session.Store satisfies it.
type SessionStore interface {
	Save(ctx context.Context, sess session.Session) error
	Load(ctx context.Context) (session.Session, error)
	Clear(ctx context.Context) error
}

// Controller owns the session lifecycle: restoring a persisted session at
// startup, login and logout, periodic re-validation and forced expiry on 401.
//
// Network calls are never made while c.mu is held, because a 401 from any of
// them re-enters the controller through HandleUnauthorized. Every session
// change bumps a generation counter; a validation result for an older
// generation is discarded, so a late response cannot resurrect a session
// that has since ended or been replaced.
type Controller struct {
	api       API
	store     SessionStore
	nav       Navigator
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	logger    *slog.Logger
	machine   *machine

	// mu serialises session changes, state transitions and navigation.
	mu         sync.Mutex
	current    atomic.Pointer[session.Session]
	gen        uint64
	loop       *revalidation
	revalidate bool
	restoring  bool
	closed     bool
}

// NewController creates a controller in the Uninitialized state. Call Start
// to restore a persisted session.
func NewController(api API, store SessionStore, opts ...Option) *Controller {
	c := &Controller{
		api:        api,
		store:      store,
		nav:        noopNavigator{},
		interval:   DefaultRevalidateInterval,
		newTicker:  newRealTicker,
		logger:     logger.Discard(),
		revalidate: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("auth"))
	c.machine = newMachine(c.logger, c.nav)
	return c
}

// Start restores the persisted session, if any. A stored session is made
// visible through Session immediately, but the controller only reaches
// Authenticated, and only signals MainApp, after the server has confirmed
// the token. Any validation failure clears the store and signals AuthFlow.
//
// Start blocks until validation completes. Drivers that want to render
// during validation call it from a goroutine. If ctx is cancelled before the
// server answers, the controller stays in Restoring with the stored session
// kept, and Start may be called again to retry.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.restoring {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	if !c.machine.Is(Restoring) {
		if _, err := c.machine.Fire(ctx, EventStart); err != nil {
			c.mu.Unlock()
			return ErrAlreadyStarted
		}
	}

	sess, err := c.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			c.logger.WarnContext(ctx, "failed to load session", logger.Error(err))
		}
		_ = c.endLocked(ctx, EventRestoreFailed)
		c.mu.Unlock()
		return nil
	}

	gen := c.installLocked(sess)
	c.restoring = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.restoring = false
		c.mu.Unlock()
	}()

	c.logger.DebugContext(ctx, "validating restored session", logger.UserID(sess.User.ID))
	return c.validate(ctx, gen, sess.Token)
}

// Login authenticates with the API and establishes a new session. Invalid
// input is rejected before any request. On failure the current state is
// left untouched.
func (c *Controller) Login(ctx context.Context, email, password string) (*session.User, error) {
	email = sanitizer.Email(email)
	if err := validateLogin(email, password); err != nil {
		return nil, err
	}

	res, err := c.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	sess := res.Session()
	if !res.Success || !sess.Valid() {
		if res.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrLoginFailed, res.Message)
		}
		return nil, ErrLoginFailed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	gen := c.installLocked(sess)
	if _, err := c.machine.Fire(ctx, EventLogin); err != nil {
		return nil, err
	}
	c.startRevalidationLocked(ctx, gen, sess.Token)

	c.logger.InfoContext(ctx, "logged in", logger.UserID(sess.User.ID))
	u := *sess.User
	return &u, nil
}

// Logout ends the session locally, then tells the server on a best-effort
// basis. The server call's outcome is ignored. The only error returned is a
// failure to clear local storage, and even then the controller has reached
// Unauthenticated.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	token := c.Token()
	loop := c.stopRevalidationLocked()
	clearErr := c.endLocked(ctx, EventLogout)
	c.mu.Unlock()

	loop.wait()

	if token != "" {
		if err := c.api.Logout(ctx, token); err != nil {
			c.logger.DebugContext(ctx, "server logout failed, ignoring", logger.Error(err))
		}
	}
	return clearErr
}

// HandleUnauthorized is the 401 hook for the API client. It force-expires
// the session the rejected request was made with. 401s for requests sent
// without a token, or with a token that is no longer current, are ignored.
func (c *Controller) HandleUnauthorized(ctx context.Context, token string, _ *apiclient.Error) {
	if token == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.Token() {
		c.logger.DebugContext(ctx, "ignoring 401 for a previous session")
		return
	}
	c.logger.InfoContext(ctx, "session expired")
	c.stopRevalidationLocked()
	_ = c.endLocked(ctx, EventExpired)
}

// RefreshProfile re-validates the current session and returns the fresh
// user. It follows the same path as the periodic check, so a failure ends
// the session.
func (c *Controller) RefreshProfile(ctx context.Context) (*session.User, error) {
	c.mu.Lock()
	sess := c.Session()
	gen := c.gen
	c.mu.Unlock()

	if !sess.Valid() {
		return nil, ErrNotAuthenticated
	}
	if err := c.validate(ctx, gen, sess.Token); err != nil {
		return nil, err
	}
	if u := c.Session().User; u != nil {
		cp := *u
		return &cp, nil
	}
	return nil, ErrNotAuthenticated
}

// ChangePassword validates the input and forwards it to the API with the
// current token. The session is not modified.
func (c *Controller) ChangePassword(ctx context.Context, currentPassword, newPassword, confirm string) (*bizapi.Result, error) {
	if err := validateChangePassword(currentPassword, newPassword, confirm); err != nil {
		return nil, err
	}
	token := c.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	return c.api.ChangePassword(ctx, token, currentPassword, newPassword)
}

// ForgotPassword requests a reset email. It never touches the session.
func (c *Controller) ForgotPassword(ctx context.Context, email string) (*bizapi.Result, error) {
	email = sanitizer.Email(email)
	if err := validateForgotPassword(email); err != nil {
		return nil, err
	}
	return c.api.ForgotPassword(ctx, email)
}

// ResetPassword sets a new password with an emailed reset token. It never
// touches the session.
func (c *Controller) ResetPassword(ctx context.Context, resetToken, password, confirm string) (*bizapi.Result, error) {
	if err := validateResetPassword(resetToken, password, confirm); err != nil {
		return nil, err
	}
	return c.api.ResetPassword(ctx, resetToken, password)
}

// StartRevalidation enables periodic checks. If a session is active the
// loop starts now, otherwise with the next session.
func (c *Controller) StartRevalidation(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.revalidate = true
	if c.machine.Is(Authenticated) {
		if sess := c.Session(); sess.Valid() {
			c.startRevalidationLocked(ctx, c.gen, sess.Token)
		}
	}
}

// StopRevalidation disables periodic checks and waits for a running check
// to finish.
func (c *Controller) StopRevalidation() {
	c.mu.Lock()
	c.revalidate = false
	loop := c.stopRevalidationLocked()
	c.mu.Unlock()

	loop.wait()
}

// Close stops background work. The persisted session is kept.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	loop := c.stopRevalidationLocked()
	c.mu.Unlock()

	loop.wait()
	return nil
}

// Session returns a copy of the in-memory session. During restore this is
// the not yet validated stored session.
func (c *Controller) Session() session.Session {
	if s := c.current.Load(); s != nil {
		out := *s
		if s.User != nil {
			u := *s.User
			out.User = &u
		}
		return out
	}
	return session.Session{}
}

// Token returns the current bearer token, or an empty string when signed out.
func (c *Controller) Token() string {
	if s := c.current.Load(); s != nil {
		return s.Token
	}
	return ""
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.machine.Current()
}

// validate confirms token with the server. It is the single path used by
// startup restore, periodic checks and RefreshProfile.
func (c *Controller) validate(ctx context.Context, gen uint64, token string) error {
	c.mu.Lock()
	stale := c.gen != gen
	c.mu.Unlock()
	if stale {
		return ErrSessionChanged
	}

	user, err := c.api.Profile(ctx, token)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		c.logger.DebugContext(ctx, "discarding validation result for a previous session")
		if err != nil {
			return errors.Join(ErrSessionChanged, err)
		}
		return ErrSessionChanged
	}

	if err != nil {
		if ctx.Err() != nil {
			// Cancelled by the caller, not rejected by the server.
			return err
		}
		c.logger.InfoContext(ctx, "session validation failed", logger.Error(err))
		c.stopRevalidationLocked()
		ev := EventInvalidated
		if c.machine.Is(Restoring) {
			ev = EventRestoreFailed
		}
		_ = c.endLocked(ctx, ev)
		return err
	}

	sess := session.New(token, *user)
	if err := c.store.Save(ctx, sess); err != nil {
		c.logger.WarnContext(ctx, "failed to persist refreshed user", logger.Error(err))
	}
	c.current.Store(&sess)

	if c.machine.Is(Restoring) {
		if _, err := c.machine.Fire(ctx, EventRestored); err != nil {
			return err
		}
		c.startRevalidationLocked(ctx, gen, token)
	}
	return nil
}

// installLocked replaces the in-memory session and returns its generation.
// Callers hold c.mu.
func (c *Controller) installLocked(sess session.Session) uint64 {
	c.gen++
	c.current.Store(&sess)
	return c.gen
}

// endLocked drops the session everywhere and moves to Unauthenticated. It is
// idempotent, so concurrent logout and expiry converge. Callers hold c.mu
// and have stopped the revalidation loop.
func (c *Controller) endLocked(ctx context.Context, ev Event) error {
	c.gen++
	c.current.Store(nil)

	err := c.store.Clear(context.WithoutCancel(ctx))
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to clear stored session", logger.Error(err))
	}
	c.machine.Force(ctx, Unauthenticated, ev)
	return err
}
