package bizapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrymomot/biztrack/pkg/apiclient"
	"github.com/dmitrymomot/biztrack/pkg/sanitizer"
	"github.com/dmitrymomot/biztrack/pkg/validator"
)

type balanceChange struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// Balance fetches the current balance.
func (s *Service) Balance(ctx context.Context, token string) (*Balance, error) {
	var out Balance
	if err := s.client.Do(ctx, http.MethodGet, pathBalance, &out,
		apiclient.WithToken(token),
		apiclient.WithFallbackMessage("Failed to load balance data"),
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetBalance overwrites the balance, typically to correct it. Restricted to
// super admins by the server.
func (s *Service) SetBalance(ctx context.Context, token string, amount float64, reason string) (*BalanceResult, error) {
	amount, reason = sanitizer.Amount(amount), sanitizer.Text(reason)
	if err := validator.Apply(
		validator.Required("reason", reason, "Please enter a reason for the balance change"),
	); err != nil {
		return nil, err
	}
	return s.changeBalance(ctx, http.MethodPut, pathBalanceSet, token, balanceChange{amount, reason})
}

// AdjustBalance adds a signed amount to the balance.
func (s *Service) AdjustBalance(ctx context.Context, token string, amount float64, reason string) (*BalanceResult, error) {
	amount, reason = sanitizer.Amount(amount), sanitizer.Text(reason)
	if err := validator.Apply(
		validator.NonZero("amount", amount, "Please enter a valid amount"),
		validator.Required("reason", reason, "Please enter a reason for the balance change"),
	); err != nil {
		return nil, err
	}
	return s.changeBalance(ctx, http.MethodPost, pathBalanceAdjust, token, balanceChange{amount, reason})
}

func (s *Service) changeBalance(ctx context.Context, method, path, token string, body balanceChange) (*BalanceResult, error) {
	var out BalanceResult
	if err := s.client.Do(ctx, method, path, &out,
		apiclient.WithToken(token),
		apiclient.WithJSON(body),
		apiclient.WithFallbackMessage("Failed to update balance"),
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// BalanceHistory lists balance changes within r.
func (s *Service) BalanceHistory(ctx context.Context, token string, r HistoryRange) (*BalanceHistory, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var out BalanceHistory
	if err := s.client.Do(ctx, http.MethodGet, pathBalanceHistory, &out,
		apiclient.WithToken(token),
		apiclient.WithQuery(url.Values{"startDate": {r.StartDate}, "endDate": {r.EndDate}}),
		apiclient.WithFallbackMessage("Failed to load balance data"),
	); err != nil {
		return nil, err
	}
	return &out, nil
}
