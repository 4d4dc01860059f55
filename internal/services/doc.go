// Package services defines shared utilities consumed by the workflows and the
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp endpoint names, platform task IDs, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP statuses (bad request, bad gateway, timeout).
//
// Use these helpers when wiring new workflow logic so operational behaviour
// (error classification, observability) stays uniform across endpoints.
package services
