// Package logging provides structured logging helpers built on log/slog.
//
// It defines the attribute keys used across the codebase so that log
// output stays consistent and machine-parseable, plus helpers for
// anonymizing email addresses before they reach log streams.
package logging
