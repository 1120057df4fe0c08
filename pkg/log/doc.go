// Package log provides the structured logging system shared by Morax
// components. It wraps log/slog with a small leveled Logger interface,
// typed Field constructors, and text/JSON output selection.
//
// Example:
//
//	logger := log.NewLogger(log.WithLevel(log.InfoLevel))
//	logger = logger.WithComponent("bookie")
//	logger.Info("log roll", log.Int("new_log_id", 7))
package log
