package bizapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrymomot/biztrack/pkg/apiclient"
)

// ListTransactions returns one page of transactions matching f.
func (s *Service) ListTransactions(ctx context.Context, token string, f TransactionFilters) (*TransactionList, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var out TransactionList
	if err := s.client.Do(ctx, http.MethodGet, pathTransactions, &out,
		apiclient.WithToken(token),
		apiclient.WithQuery(f.query()),
		apiclient.WithFallbackMessage("Failed to fetch transactions"),
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTransaction fetches a single transaction by ID.
func (s *Service) GetTransaction(ctx context.Context, token, id string) (*Transaction, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	return s.transaction(ctx, http.MethodGet, transactionPath(id),
		apiclient.WithToken(token),
		apiclient.WithFallbackMessage("Failed to load transaction details"),
	)
}

// CreateTransaction records a new transaction. With receipts the payload is
// sent as multipart form data, otherwise as JSON. A zero Date means now.
func (s *Service) CreateTransaction(ctx context.Context, token string, in TransactionInput, receipts ...Receipt) (*Transaction, error) {
	in = in.normalized()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	body := apiclient.WithJSON(in)
	if len(receipts) > 0 {
		parts := make([]apiclient.FilePart, 0, len(receipts))
		for _, r := range receipts {
			parts = append(parts, r.part())
		}
		body = apiclient.WithMultipart(in.formFields(), parts...)
	}

	return s.transaction(ctx, http.MethodPost, pathTransactions,
		apiclient.WithToken(token),
		body,
		apiclient.WithFallbackMessage("Failed to create transaction"),
	)
}

// UpdateTransaction applies a partial update. Only set fields are sent.
func (s *Service) UpdateTransaction(ctx context.Context, token, id string, u TransactionUpdate) (*Transaction, error) {
	if id == "" {
		return nil, ErrMissingID
	}
	u = u.normalized()
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return s.transaction(ctx, http.MethodPut, transactionPath(id),
		apiclient.WithToken(token),
		apiclient.WithJSON(u),
		apiclient.WithFallbackMessage("Failed to update transaction"),
	)
}

// DeleteTransaction removes a transaction.
func (s *Service) DeleteTransaction(ctx context.Context, token, id string) error {
	if id == "" {
		return ErrMissingID
	}
	return s.client.Do(ctx, http.MethodDelete, transactionPath(id), nil,
		apiclient.WithToken(token),
		apiclient.WithFallbackMessage("Failed to delete transaction"),
	)
}

func (s *Service) transaction(ctx context.Context, method, path string, opts ...apiclient.RequestOption) (*Transaction, error) {
	var out dataEnvelope[*Transaction]
	if err := s.client.Do(ctx, method, path, &out, opts...); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, ErrEmptyResponse
	}
	return out.Data, nil
}

func transactionPath(id string) string {
	return pathTransactions + "/" + url.PathEscape(id)
}
