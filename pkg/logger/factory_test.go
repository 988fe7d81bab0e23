package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/biztrack/pkg/logger"
)

type ctxKey struct{}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Info("hello")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text formatter", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithTextFormatter())
		log.Info("hello")
		assert.Contains(t, buf.String(), "level=INFO")
	})

	t.Run("level filtering", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevelName("warn"))
		log.Info("dropped")
		assert.Empty(t, buf.String())
		log.Warn("kept")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("static attributes", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithAttr(slog.String("app", "biztrack")))
		log.Info("hello")
		assert.Equal(t, "biztrack", decode(t, buf)["app"])
	})

	t.Run("context value extraction", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithContextValue("request_id", ctxKey{}))
		ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
		log.InfoContext(ctx, "hello")
		assert.Equal(t, "req-1", decode(t, buf)["request_id"])
	})

	t.Run("invalid format panics", func(t *testing.T) {
		assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
	})
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("development defaults to debug text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		opts := logger.FromConfig(logger.Config{Env: "development"}, "biztrack")
		log := logger.New(append(opts, logger.WithOutput(buf))...)
		log.Debug("msg")
		out := buf.String()
		assert.Contains(t, out, "level=DEBUG")
		assert.Contains(t, out, "app=biztrack")
		assert.Contains(t, out, "env=development")
	})

	t.Run("production overrides", func(t *testing.T) {
		buf := &bytes.Buffer{}
		opts := logger.FromConfig(logger.Config{Env: "prod", Level: "error", Format: "JSON"}, "biztrack")
		log := logger.New(append(opts, logger.WithOutput(buf))...)
		log.Warn("dropped")
		assert.Empty(t, buf.String())
		log.Error("kept")
		entry := decode(t, buf)
		assert.Equal(t, "production", entry["env"])
	})
}

func TestAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	assert.Equal(t, "error", logger.Error(errors.New("boom")).Key)
	assert.Equal(t, slog.Attr{}, logger.UserID(""))
	assert.Equal(t, "u1", logger.UserID("u1").Value.String())
	assert.Equal(t, slog.Attr{}, logger.RequestID(""))
	assert.Equal(t, int64(401), logger.StatusCode(401).Value.Int64())

	tr := logger.Transition("restoring", "authenticated")
	require.Equal(t, slog.KindGroup, tr.Value.Kind())
	group := tr.Value.Group()
	require.Len(t, group, 2)
	assert.Equal(t, "restoring", group[0].Value.String())
	assert.Equal(t, "authenticated", group[1].Value.String())
}

func TestDiscard(t *testing.T) {
	t.Parallel()
	log := logger.Discard()
	require.NotNil(t, log)
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}

func TestSecretsAreRedacted(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf))
	log.Info("login", slog.String("token", "abc"), slog.String("newPassword", "hunter2"), slog.String("email", "u@x.com"))

	entry := decode(t, buf)
	assert.Equal(t, logger.Redacted, entry["token"])
	assert.Equal(t, logger.Redacted, entry["newPassword"])
	assert.Equal(t, "u@x.com", entry["email"])
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestSecretFlagsAreKept(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf))
	log.Warn("partial", slog.Bool("has_token", true), slog.Int("token_count", 2), slog.Any("refresh_token", "r-1"))

	entry := decode(t, buf)
	assert.Equal(t, true, entry["has_token"])
	assert.Equal(t, float64(2), entry["token_count"])
	assert.Equal(t, logger.Redacted, entry["refresh_token"])
}
