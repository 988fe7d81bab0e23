package bizapi

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/biztrack/pkg/apiclient"
)

// ActionLogs lists the audit trail of user and balance actions.
func (s *Service) ActionLogs(ctx context.Context, token string) (*ActionLogList, error) {
	var out ActionLogList
	if err := s.client.Do(ctx, http.MethodGet, pathActionLog, &out,
		apiclient.WithToken(token),
		apiclient.WithFallbackMessage("Failed to load action logs"),
	); err != nil {
		return nil, err
	}
	return &out, nil
}
