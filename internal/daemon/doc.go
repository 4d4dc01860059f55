// Package daemon coordinates the long-running audiodesc process.
//
// It wires the workflow service into an HTTP API server, guards the process
// with a flock-based instance lock, and watches the config file so the log
// level can change without a restart. The server decodes request bodies
// strictly, maps workflow errors to HTTP statuses through services.HTTPStatus,
// stamps every request with a correlation ID, and throttles analyze requests
// with a token bucket.
//
// Keep orchestration logic here: individual workflow steps live in the
// workflow package while the daemon focuses on startup, shutdown, and request
// plumbing.
package daemon
