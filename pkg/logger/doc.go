// Package logger builds *slog.Logger instances for the BizTrack client with
// functional options, consistent attribute helpers and transparent injection
// of values stored in context.Context.
//
// New picks slog.NewTextHandler or slog.NewJSONHandler based on the configured
// Format. Registered ContextExtractor callbacks run for every record, and any
// attribute whose key mentions a token, password or secret is written as
// Redacted.
//
// Attribute helpers (Component, RequestID, Method, Path, StatusCode,
// Transition, Event) keep key names identical across packages.
//
// # Usage
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//
//	log := logger.New(append(logger.FromConfig(cfg, "biztrack"),
//	    logger.WithOutput(os.Stderr),
//	)...)
//	log.Info("session restored", logger.UserID(user.ID))
//
// Core packages accept a logger through their own WithLogger options and
// default to Discard.
package logger
