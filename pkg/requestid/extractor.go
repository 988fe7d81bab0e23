package requestid

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/biztrack/pkg/logger"
)

// LoggerExtractor adds the context's request ID to every log record.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return logger.RequestID(id), true
		}
		return slog.Attr{}, false
	}
}
