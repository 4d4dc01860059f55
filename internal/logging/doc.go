// Package logging assembles structured slog loggers and formatting helpers used
// across audiodesc.
//
// It owns the configurable console/JSON handlers and output plumbing, and
// exposes context-aware helpers so request handlers and workflows tag log
// lines with the endpoint, platform task ID, and correlation ID. Loggers can
// share a *slog.LevelVar so the daemon can change verbosity on config reload.
// A no-op logger is provided for tests and wiring code that cannot fail.
package logging
