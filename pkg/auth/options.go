package auth

import (
	"log/slog"
	"time"
)

// DefaultRevalidateInterval is how often a session is re-checked unless
// configured otherwise.
const DefaultRevalidateInterval = 5 * time.Minute

// Config holds the environment-driven controller settings.
type Config struct {
	RevalidateInterval time.Duration `env:"BIZTRACK_REVALIDATE_INTERVAL" envDefault:"5m"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithNavigator sets the receiver of MainApp and AuthFlow signals.
func WithNavigator(n Navigator) Option {
	return func(c *Controller) {
		if n != nil {
			c.nav = n
		}
	}
}

// WithRevalidateInterval sets how often an authenticated session is checked
// against the server. Zero or negative disables periodic checks.
func WithRevalidateInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.interval = d
	}
}

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces the ticker factory used for periodic checks.
func WithClock(newTicker func(time.Duration) Ticker) Option {
	return func(c *Controller) {
		if newTicker != nil {
			c.newTicker = newTicker
		}
	}
}

// FromConfig converts environment configuration into options.
func FromConfig(cfg Config) []Option {
	return []Option{WithRevalidateInterval(cfg.RevalidateInterval)}
}
