// Package llm provides an OpenRouter chat client used by the openrouter
// generator backend.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteText: send a prompt, receive free-form text.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). A Retry-After header overrides the computed delay.
// Context cancellation aborts retries immediately.
package llm
