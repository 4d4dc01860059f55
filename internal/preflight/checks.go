package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"audiodesc/internal/config"
	"audiodesc/internal/platform"
	"audiodesc/internal/services/gemini"
	"audiodesc/internal/services/llm"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLM, httpClient *http.Client) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1), llm.WithHTTPClient(httpClient))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeNetworkError("LLM API", err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckPlatform verifies engine connectivity and authentication by resolving
// the importer plugin instance, the same call the daemon makes at startup.
func CheckPlatform(ctx context.Context, cfg *config.Config, httpClient *http.Client) Result {
	const name = "Engine"

	opts := []platform.Option{}
	if httpClient != nil {
		opts = append(opts, platform.WithHTTPClient(httpClient))
	}
	client, err := platform.New(platform.Config{
		BaseURL:   cfg.Platform.BaseURL,
		APIKey:    cfg.Platform.APIKey,
		Workspace: cfg.Platform.Workspace,
		Timeout:   cfg.PlatformTimeout(),
	}, opts...)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	instance, err := client.UsePlugin(checkCtx, cfg.Plugins.Importer, "", nil)
	if err != nil {
		var apiErr *platform.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return Result{Name: name, Detail: "auth failed (invalid api key)"}
			case http.StatusNotFound:
				return Result{Name: name, Detail: fmt.Sprintf("plugin %q not found", cfg.Plugins.Importer)}
			}
		}
		return Result{Name: name, Detail: summarizeNetworkError("engine", err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("Reachable (importer instance %s)", instance.Handle)}
}

// CheckGeminiKeys reports how many Gemini keys are available for rotation.
func CheckGeminiKeys(raw string) Result {
	const name = "Gemini keys"
	keys := gemini.SplitKeys(raw)
	if len(keys) == 0 {
		return Result{Name: name, Detail: "no API key configured"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d key(s) configured", len(keys))}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// summarizeNetworkError produces a human-readable summary for failed remote checks.
func summarizeNetworkError(target string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("health check timed out (%s unresponsive)", target)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("health check timed out (%s unreachable)", target)
	}
	return err.Error()
}
