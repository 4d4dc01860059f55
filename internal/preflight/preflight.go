package preflight

import (
	"context"
	"net/http"

	"audiodesc/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options controls which checks RunAll performs.
type Options struct {
	// Online enables checks that call the engine and generator APIs.
	Online bool
	// HTTPClient overrides the client used by online checks.
	HTTPClient *http.Client
}

// RunAll executes all applicable preflight checks for the given config.
// Backend checks only run for the configured generator backend.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	switch cfg.Generator.Backend {
	case config.BackendGemini:
		results = append(results, CheckGeminiKeys(cfg.Gemini.APIKey))
	}

	if !opts.Online {
		return results
	}

	results = append(results, CheckPlatform(ctx, cfg, opts.HTTPClient))
	if cfg.Generator.Backend == config.BackendOpenRouter {
		results = append(results, CheckLLM(ctx, "OpenRouter", cfg.LLM, opts.HTTPClient))
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
