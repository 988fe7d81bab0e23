package session_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/biztrack/pkg/kvstore"
	"github.com/dmitrymomot/biztrack/pkg/logger"
	"github.com/dmitrymomot/biztrack/pkg/session"
)

// plainStore hides the Batch methods of the wrapped store.
type plainStore struct {
	kvstore.Store
}

// flakyStore fails Set for one key and records write order.
type flakyStore struct {
	kvstore.Store
	failKey string
	writes  []string
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	f.writes = append(f.writes, key)
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}

func testUser() session.User {
	return session.User{
		ID:        "665f1c2e9b1e8a0012345678",
		Name:      "Ahmed",
		Email:     "ahmed@example.com",
		Role:      session.RoleSuperAdmin,
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	backends := map[string]kvstore.Store{
		"batch": kvstore.NewMemoryStore(),
		"plain": plainStore{kvstore.NewMemoryStore()},
	}
	for name, kv := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := session.NewStore(kv)

			want := session.New("jwt-token", testUser())
			require.NoError(t, store.Save(ctx, want))

			got, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want.Token, got.Token)
			require.NotNil(t, got.User)
			assert.Equal(t, *want.User, *got.User)
			assert.True(t, got.Valid())
		})
	}
}

func TestStore_SaveRejectsPartialSession(t *testing.T) {
	t.Parallel()
	store := session.NewStore(kvstore.NewMemoryStore())
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, session.Session{Token: "only-token"}), session.ErrInvalidSession)
	u := testUser()
	assert.ErrorIs(t, store.Save(ctx, session.Session{User: &u}), session.ErrInvalidSession)
	assert.ErrorIs(t, store.Save(ctx, session.Session{}), session.ErrInvalidSession)
}

func TestStore_LoadEmpty(t *testing.T) {
	t.Parallel()
	store := session.NewStore(kvstore.NewMemoryStore())

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestStore_LoadCollapsesPartialRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("token without user", func(t *testing.T) {
		kv := kvstore.NewMemoryStore()
		require.NoError(t, kv.Set(ctx, "token", "orphan"))

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelDebug))

		_, err := session.NewStore(kv, session.WithLogger(log)).Load(ctx)
		assert.ErrorIs(t, err, session.ErrNoSession)
		assert.Zero(t, kv.Len(), "stale token must be cleared")
		assert.Contains(t, buf.String(), `"has_token":true`)
		assert.Contains(t, buf.String(), `"has_user":false`)
		assert.NotContains(t, buf.String(), "orphan")
	})

	t.Run("user without token", func(t *testing.T) {
		kv := kvstore.NewMemoryStore()
		require.NoError(t, kv.Set(ctx, "user", `{"_id":"1","name":"A"}`))

		_, err := session.NewStore(kv).Load(ctx)
		assert.ErrorIs(t, err, session.ErrNoSession)
		assert.Zero(t, kv.Len(), "stale user must be cleared")
	})

	t.Run("unreadable user", func(t *testing.T) {
		kv := kvstore.NewMemoryStore()
		require.NoError(t, kv.SetMany(ctx, map[string]string{"token": "t", "user": "{broken"}))

		_, err := session.NewStore(kv).Load(ctx)
		assert.ErrorIs(t, err, session.ErrNoSession)
		assert.Zero(t, kv.Len())
	})
}

func TestStore_SaveWritesUserBeforeToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	flaky := &flakyStore{Store: kvstore.NewMemoryStore(), failKey: "token"}
	store := session.NewStore(flaky)

	err := store.Save(ctx, session.New("jwt", testUser()))
	require.ErrorIs(t, err, session.ErrStorage)
	assert.Equal(t, []string{"user", "token"}, flaky.writes)

	// The half-written record must not come back as a session.
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, session.ErrNoSession)
	_, err = flaky.Get(ctx, "user")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, kv := range map[string]kvstore.Store{
		"batch": kvstore.NewMemoryStore(),
		"plain": plainStore{kvstore.NewMemoryStore()},
	} {
		t.Run(name, func(t *testing.T) {
			store := session.NewStore(kv)
			require.NoError(t, store.Clear(ctx))

			require.NoError(t, store.Save(ctx, session.New("jwt", testUser())))
			require.NoError(t, store.Clear(ctx))
			require.NoError(t, store.Clear(ctx))

			_, err := store.Load(ctx)
			assert.ErrorIs(t, err, session.ErrNoSession)
		})
	}
}

func TestStore_KeyPrefix(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()

	store := session.NewStore(kv, session.WithKeyPrefix("biztrack."))
	require.NoError(t, store.Save(ctx, session.New("jwt", testUser())))

	v, err := kv.Get(ctx, "biztrack.token")
	require.NoError(t, err)
	assert.Equal(t, "jwt", v)
}

func TestSession(t *testing.T) {
	t.Parallel()

	var zero session.Session
	assert.True(t, zero.IsZero())
	assert.False(t, zero.Valid())

	s := session.New("t", testUser())
	assert.True(t, s.Valid())
	assert.True(t, s.User.IsSuperAdmin())

	refreshed := s.WithUser(session.User{ID: "x", Role: session.RoleUser})
	assert.Equal(t, "t", refreshed.Token)
	assert.False(t, refreshed.User.IsSuperAdmin())
	assert.True(t, s.User.IsSuperAdmin(), "original is not mutated")
}
