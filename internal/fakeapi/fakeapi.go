// Package fakeapi is an in-memory BizTrack REST API for tests.
package fakeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrymomot/biztrack/pkg/bizapi"
	"github.com/dmitrymomot/biztrack/pkg/requestid"
	"github.com/dmitrymomot/biztrack/pkg/session"
)

// Request is a recorded call.
type Request struct {
	Method        string
	Path          string
	ContentType   string
	Authorization string
	RequestID     string
}

type account struct {
	user     session.User
	password string
}

// API holds the fake server state. All methods are safe for concurrent use.
type API struct {
	mu           sync.Mutex
	accounts     map[string]*account // by email
	tokens       map[string]string   // token -> email
	resetTokens  map[string]string   // reset token -> email
	transactions []bizapi.Transaction
	balance      float64
	balanceAt    time.Time
	history      []bizapi.BalanceHistoryItem
	logs         []bizapi.ActionLog
	requests     []Request
	hooks        map[string]func()
	rejectAll    bool
	failLogout   bool

	router chi.Router
	server *httptest.Server
	URL    string
}

func New() *API {
	a := &API{
		accounts:    make(map[string]*account),
		tokens:      make(map[string]string),
		resetTokens: make(map[string]string),
		hooks:       make(map[string]func()),
		balanceAt:   time.Now().UTC(),
	}
	a.router = a.routes()
	return a
}

// Start serves a new fake API for the duration of the test.
func Start(t testing.TB) *API {
	t.Helper()
	a := New()
	a.server = httptest.NewServer(a)
	a.URL = a.server.URL
	t.Cleanup(a.server.Close)
	return a
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// AddUser registers an account and returns its user record.
func (a *API) AddUser(email, password, name string, role session.Role) session.User {
	a.mu.Lock()
	defer a.mu.Unlock()

	u := session.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	a.accounts[strings.ToLower(email)] = &account{user: u, password: password}
	return u
}

// IssueToken returns a valid bearer token for email without a login call.
func (a *API) IssueToken(email string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	token := uuid.NewString()
	a.tokens[token] = strings.ToLower(email)
	return token
}

// RevokeAll invalidates every issued token, as a server-side expiry would.
func (a *API) RevokeAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.tokens)
}

// RejectAll makes every authenticated route answer 401 while set.
func (a *API) RejectAll(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rejectAll = v
}

// FailLogout makes the logout route answer 500 while set.
func (a *API) FailLogout(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failLogout = v
}

// OnRequest runs fn before the handler of the given route, e.g.
// "GET /api/auth/profile". It may block to hold a response.
func (a *API) OnRequest(route string, fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks[route] = fn
}

// ResetToken returns the last reset token issued for email.
func (a *API) ResetToken(email string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	for token, e := range a.resetTokens {
		if e == strings.ToLower(email) {
			return token
		}
	}
	return ""
}

// SetBalance seeds the current balance.
func (a *API) SetBalance(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance = v
}

// Requests returns a copy of every recorded call.
func (a *API) Requests() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Request(nil), a.requests...)
}

// Calls counts recorded calls to route, e.g. "GET /api/auth/profile".
func (a *API) Calls(route string) int {
	n := 0
	for _, r := range a.Requests() {
		if r.Method+" "+r.Path == route {
			n++
		}
	}
	return n
}

func (a *API) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, requestid.Middleware)

	r.Route("/api", func(r chi.Router) {
		r.Use(a.record)

		r.Post("/auth/login", a.login)
		r.Post("/auth/forgot-password", a.forgotPassword)
		r.Post("/auth/reset-password/{token}", a.resetPassword)

		r.Group(func(r chi.Router) {
			r.Use(a.authenticate)

			r.Post("/auth/logout", a.logout)
			r.Get("/auth/profile", a.profile)
			r.Put("/auth/change-password", a.changePassword)

			r.Get("/transactions", a.listTransactions)
			r.Post("/transactions", a.createTransaction)
			r.Get("/transactions/{id}", a.getTransaction)
			r.Put("/transactions/{id}", a.updateTransaction)
			r.Delete("/transactions/{id}", a.deleteTransaction)

			r.Get("/balance", a.getBalance)
			r.Get("/balance/history", a.balanceHistory)
			r.Get("/action-log", a.actionLogs)

			r.Group(func(r chi.Router) {
				r.Use(superAdminOnly)
				r.Put("/balance/set", a.setBalance)
				r.Post("/balance/adjust", a.adjustBalance)
			})
		})
	})
	return r
}

// record stores the call, then runs any hook registered for it.
func (a *API) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests = append(a.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			ContentType:   r.Header.Get("Content-Type"),
			Authorization: r.Header.Get("Authorization"),
			RequestID:     requestid.FromContext(r.Context()),
		})
		hook := a.hooks[r.Method+" "+r.URL.Path]
		a.mu.Unlock()

		if hook != nil {
			hook()
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

		a.mu.Lock()
		email, found := a.tokens[token]
		acc := a.accounts[email]
		reject := a.rejectAll
		a.mu.Unlock()

		if !ok || !found || acc == nil || reject {
			writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, acc.user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func superAdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).IsSuperAdmin() {
			writeError(w, http.StatusForbidden, "Access denied. SuperAdmin only.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) session.User {
	u, _ := r.Context().Value(ctxKey{}).(session.User)
	return u
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// logAction appends an audit entry. Callers hold a.mu.
func (a *API) logAction(u session.User, action, entityType, entityID string) {
	a.logs = append(a.logs, bizapi.ActionLog{
		ID:         uuid.NewString(),
		Action:     action,
		User:       bizapi.ActionUser{ID: u.ID, Name: u.Name, Email: u.Email},
		EntityID:   entityID,
		EntityType: entityType,
		Timestamp:  time.Now().UTC(),
	})
}
