// Package logging provides structured logging for the authority boundary
// ledger, built on log/slog. It standardizes level and format parsing so
// every component logs the same way, and hands out component-scoped loggers.
package logging
