package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/biztrack/internal/fakeapi"
	"github.com/dmitrymomot/biztrack/pkg/apiclient"
	"github.com/dmitrymomot/biztrack/pkg/auth"
	"github.com/dmitrymomot/biztrack/pkg/kvstore"
	"github.com/dmitrymomot/biztrack/pkg/session"
)

type cli struct {
	t     *testing.T
	api   *fakeapi.API
	store *session.Store
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	api := fakeapi.Start(t)
	api.AddUser("admin@x.com", "password1", "Faisal", session.RoleSuperAdmin)
	return &cli{t: t, api: api, store: session.NewStore(kvstore.NewMemoryStore())}
}

// run executes one command the way a fresh process would, sharing only the
// session store with earlier runs.
func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	client, err := apiclient.New(c.api.URL)
	require.NoError(c.t, err)

	var out bytes.Buffer
	a := newApp(appDeps{
		client:   client,
		sessions: c.store,
		lang:     language.English,
		in:       strings.NewReader(stdin),
		out:      &out,
	})
	defer func() { _ = a.ctrl.Close() }()

	err = a.exec(context.Background(), args[0], args[1:])
	return out.String(), err
}

func TestLoginAndWhoami(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	out, err := c.run("password1\n", "login", "-email", "admin@x.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Faisal (admin@x.com)")

	out, err = c.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Faisal <admin@x.com>")
	assert.Contains(t, out, "Role: Superadmin")

	out, err = c.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	_, err = c.run("", "whoami")
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestLoginFailure(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	_, err := c.run("", "login", "-email", "admin@x.com", "-password", "nope")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", describe(err))

	_, err = c.run("", "login", "-email", "bad", "-password", "x")
	assert.Equal(t, "Please enter a valid email address", describe(err))
}

func TestBalanceAndTransactions(t *testing.T) {
	t.Parallel()
	c := newCLI(t)
	c.api.SetBalance(1000)
	_, err := c.run("", "login", "-email", "admin@x.com", "-password", "password1")
	require.NoError(t, err)

	out, err := c.run("", "balance")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance: 1,000.00")

	out, err = c.run("", "balance", "-adjust", "250.5", "-reason", "top up")
	require.NoError(t, err)
	assert.Contains(t, out, "1,000.00 -> 1,250.50")

	_, err = c.run("", "balance", "-set", "1", "-adjust", "1", "-reason", "x")
	assert.Error(t, err)

	out, err = c.run("", "add", "-amount", "50", "-category", "Food", "-purpose", "Lunch", "-paid-by", "Wasey", "-date", "2024-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded expense 50.00")

	out, err = c.run("", "transactions", "-category", "Food")
	require.NoError(t, err)
	assert.Contains(t, out, "Lunch")
	assert.Contains(t, out, "2024-03-01")

	out, err = c.run("", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "top up")

	out, err = c.run("", "dashboard", "-recent", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance: 1,200.50")
	assert.Contains(t, out, "Lunch")

	out, err = c.run("", "logs")
	require.NoError(t, err)
	assert.Contains(t, out, "Faisal")
}

func TestAddWithReceipt(t *testing.T) {
	t.Parallel()
	c := newCLI(t)
	_, err := c.run("", "login", "-email", "admin@x.com", "-password", "password1")
	require.NoError(t, err)

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	path := filepath.Join(t.TempDir(), "r.png")
	require.NoError(t, os.WriteFile(path, png, 0o600))

	_, err = c.run("", "add", "-amount", "12", "-category", "Supplies", "-purpose", "Paper", "-paid-by", "Company", "-receipt", path)
	require.NoError(t, err)

	reqs := c.api.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, "POST /api/transactions", last.Method+" "+last.Path)
	assert.True(t, strings.HasPrefix(last.ContentType, "multipart/form-data; boundary="))
}

func TestExpiredStoredSession(t *testing.T) {
	t.Parallel()
	c := newCLI(t)
	_, err := c.run("", "login", "-email", "admin@x.com", "-password", "password1")
	require.NoError(t, err)

	c.api.RevokeAll()
	_, err = c.run("", "balance")
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)

	_, err = c.store.Load(context.Background())
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()
	c := newCLI(t)

	_, err := c.run("", "frobnicate")
	assert.ErrorContains(t, err, "unknown command")
}

func TestCommandSharesRequestID(t *testing.T) {
	t.Parallel()
	c := newCLI(t)
	_, err := c.run("", "login", "-email", "admin@x.com", "-password", "password1")
	require.NoError(t, err)
	before := len(c.api.Requests())

	_, err = c.run("", "dashboard")
	require.NoError(t, err)

	reqs := c.api.Requests()[before:]
	require.Len(t, reqs, 3, "profile check, balance and transactions")
	for _, r := range reqs[1:] {
		assert.Equal(t, reqs[0].RequestID, r.RequestID)
	}
}
