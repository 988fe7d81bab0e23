package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/biztrack/pkg/kvstore"
	"github.com/dmitrymomot/biztrack/pkg/logger"
)

const (
	defaultTokenKey = "token"
	defaultUserKey  = "user"
)

// Store persists the session record in a key-value store as two keys: the
// raw token and the JSON-encoded user.
type Store struct {
	kv       kvstore.Store
	tokenKey string
	userKey  string
	logger   *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithKeyPrefix prefixes both storage keys.
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *Store) {
		s.tokenKey = prefix + defaultTokenKey
		s.userKey = prefix + defaultUserKey
	}
}

// WithLogger sets the logger used to report discarded records.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewStore(kv kvstore.Store, opts ...StoreOption) *Store {
	s := &Store{
		kv:       kv,
		tokenKey: defaultTokenKey,
		userKey:  defaultUserKey,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("session.store"))
	return s
}

// Save writes the token and user. With a batch-capable backend both keys are
// written atomically. Otherwise the user is written first, so a failure in
// between leaves a user without a token, which Load treats as no session.
func (s *Store) Save(ctx context.Context, sess Session) error {
	if !sess.Valid() {
		return ErrInvalidSession
	}

	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}

	if b, ok := s.kv.(kvstore.Batch); ok {
		if err := b.SetMany(ctx, map[string]string{
			s.userKey:  string(userJSON),
			s.tokenKey: sess.Token,
		}); err != nil {
			return errors.Join(ErrStorage, err)
		}
		return nil
	}

	if err := s.kv.Set(ctx, s.userKey, string(userJSON)); err != nil {
		return errors.Join(ErrStorage, err)
	}
	if err := s.kv.Set(ctx, s.tokenKey, sess.Token); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

// Load returns the persisted session or ErrNoSession. A record with only one
// of the two keys, or with an unreadable user, is cleared and reported as
// ErrNoSession.
func (s *Store) Load(ctx context.Context) (Session, error) {
	token, tokenErr := s.kv.Get(ctx, s.tokenKey)
	if tokenErr != nil && !errors.Is(tokenErr, kvstore.ErrNotFound) {
		return Session{}, errors.Join(ErrStorage, tokenErr)
	}
	userJSON, userErr := s.kv.Get(ctx, s.userKey)
	if userErr != nil && !errors.Is(userErr, kvstore.ErrNotFound) {
		return Session{}, errors.Join(ErrStorage, userErr)
	}

	hasToken := tokenErr == nil && token != ""
	hasUser := userErr == nil && userJSON != ""

	if !hasToken && !hasUser {
		return Session{}, ErrNoSession
	}
	if hasToken != hasUser {
		s.logger.WarnContext(ctx, "discarding partial session record",
			slog.Bool("has_token", hasToken),
			slog.Bool("has_user", hasUser),
		)
		return Session{}, s.discard(ctx)
	}

	var user User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil || user.ID == "" {
		s.logger.WarnContext(ctx, "discarding unreadable session user", logger.Error(err))
		return Session{}, s.discard(ctx)
	}

	return New(token, user), nil
}

// Clear removes both keys. Clearing an absent session is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if b, ok := s.kv.(kvstore.Batch); ok {
		if err := b.DeleteMany(ctx, s.tokenKey, s.userKey); err != nil {
			return errors.Join(ErrStorage, err)
		}
		return nil
	}

	// Token first: a failure in between leaves a user without a token.
	if err := s.kv.Delete(ctx, s.tokenKey); err != nil {
		return errors.Join(ErrStorage, err)
	}
	if err := s.kv.Delete(ctx, s.userKey); err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

// discard clears a stale record and reports ErrNoSession, joined with the
// clear failure if there was one.
func (s *Store) discard(ctx context.Context) error {
	if err := s.Clear(ctx); err != nil {
		return errors.Join(ErrNoSession, err)
	}
	return ErrNoSession
}
