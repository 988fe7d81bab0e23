package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/biztrack/internal/fakeapi"
	"github.com/dmitrymomot/biztrack/pkg/apiclient"
	"github.com/dmitrymomot/biztrack/pkg/auth"
	"github.com/dmitrymomot/biztrack/pkg/bizapi"
	"github.com/dmitrymomot/biztrack/pkg/kvstore"
	"github.com/dmitrymomot/biztrack/pkg/session"
)

const (
	testEmail    = "u@x.com"
	testPassword = "password1"
	profileRoute = "GET /api/auth/profile"
)

// navRecorder collects navigation signals in order.
type navRecorder struct {
	mu    sync.Mutex
	dests []auth.Destination
}

func (r *navRecorder) Navigate(_ context.Context, to auth.Destination) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dests = append(r.dests, to)
}

func (r *navRecorder) All() []auth.Destination {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]auth.Destination(nil), r.dests...)
}

// manualClock hands out tickers that only fire on Tick.
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

type manualTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (c *manualClock) NewTicker(time.Duration) auth.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

// Tick fires every ticker, stopped or not, without blocking.
func (c *manualClock) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tickers {
		select {
		case t.ch <- time.Now():
		default:
		}
	}
}

func (c *manualClock) Running() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.tickers {
		t.mu.Lock()
		if !t.stopped {
			n++
		}
		t.mu.Unlock()
	}
	return n
}

type harness struct {
	api   *fakeapi.API
	svc   *bizapi.Service
	kv    *kvstore.MemoryStore
	store *session.Store
	ctrl  *auth.Controller
	nav   *navRecorder
	clock *manualClock
	user  session.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	api := fakeapi.Start(t)
	user := api.AddUser(testEmail, testPassword, "Wasey", session.RoleUser)

	client, err := apiclient.New(api.URL)
	require.NoError(t, err)
	svc := bizapi.New(client)

	h := &harness{
		api:   api,
		svc:   svc,
		kv:    kvstore.NewMemoryStore(),
		nav:   &navRecorder{},
		clock: &manualClock{},
		user:  user,
	}
	h.store = session.NewStore(h.kv)
	h.ctrl = auth.NewController(svc, h.store,
		auth.WithNavigator(h.nav),
		auth.WithClock(h.clock.NewTicker),
		auth.WithRevalidateInterval(time.Minute),
	)
	client.OnUnauthorized(h.ctrl.HandleUnauthorized)
	t.Cleanup(func() { _ = h.ctrl.Close() })
	return h
}

// persist stores a session for the test user and returns its token.
func (h *harness) persist(t *testing.T, token string) {
	t.Helper()
	require.NoError(t, h.store.Save(context.Background(), session.New(token, h.user)))
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.ctrl.Start(ctx))
	_, err := h.ctrl.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
}

// mockAPI is a testify mock of auth.API.
type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Login(ctx context.Context, email, password string) (*bizapi.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bizapi.LoginResult), args.Error(1)
}

func (m *mockAPI) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAPI) Profile(ctx context.Context, token string) (*session.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.User), args.Error(1)
}

func (m *mockAPI) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) (*bizapi.Result, error) {
	args := m.Called(ctx, token, currentPassword, newPassword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bizapi.Result), args.Error(1)
}

func (m *mockAPI) ForgotPassword(ctx context.Context, email string) (*bizapi.Result, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bizapi.Result), args.Error(1)
}

func (m *mockAPI) ResetPassword(ctx context.Context, resetToken, password string) (*bizapi.Result, error) {
	args := m.Called(ctx, resetToken, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bizapi.Result), args.Error(1)
}
