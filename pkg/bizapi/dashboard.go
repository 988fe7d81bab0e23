package bizapi

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const defaultRecent = 5

// Dashboard is the combined home screen data.
type Dashboard struct {
	Balance *Balance
	Recent  []Transaction
}

// Dashboard loads the balance and the most recent transactions concurrently.
// The first failure cancels the other call and is returned.
func (s *Service) Dashboard(ctx context.Context, token string, recent int) (*Dashboard, error) {
	if recent <= 0 {
		recent = defaultRecent
	}

	var (
		d     Dashboard
		g, gc = errgroup.WithContext(ctx)
	)
	g.Go(func() error {
		b, err := s.Balance(gc, token)
		if err != nil {
			return err
		}
		d.Balance = b
		return nil
	})
	g.Go(func() error {
		list, err := s.ListTransactions(gc, token, TransactionFilters{Page: 1, Limit: recent})
		if err != nil {
			return err
		}
		d.Recent = list.Transactions
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}
