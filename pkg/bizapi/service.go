package bizapi

import (
	"context"

	"github.com/dmitrymomot/biztrack/pkg/apiclient"
)

// Endpoint paths of the BizTrack REST API.
const (
	pathLogin          = "/api/auth/login"
	pathLogout         = "/api/auth/logout"
	pathProfile        = "/api/auth/profile"
	pathChangePassword = "/api/auth/change-password"
	pathForgotPassword = "/api/auth/forgot-password"
	pathResetPassword  = "/api/auth/reset-password/"
	pathTransactions   = "/api/transactions"
	pathBalance        = "/api/balance"
	pathBalanceSet     = "/api/balance/set"
	pathBalanceAdjust  = "/api/balance/adjust"
	pathBalanceHistory = "/api/balance/history"
	pathActionLog      = "/api/action-log"
)

// Doer performs a single API call. *apiclient.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, method, path string, out any, opts ...apiclient.RequestOption) error
}

// Service exposes one typed method per remote operation. It holds no
// session state: every authenticated call takes the bearer token explicitly,
// and every failure from the client is returned unchanged.
type Service struct {
	client Doer
}

// New creates a Service over client.
func New(client Doer) *Service {
	return &Service{client: client}
}

// Result is the minimal success envelope returned by most endpoints.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// dataEnvelope is the {success, data} shape used by transaction endpoints.
type dataEnvelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}
