package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"audiodesc/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func engineConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Platform.APIKey = "good-key"
	cfg.Platform.BaseURL = baseURL + "/api/v1/"
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	return &cfg
}

func fakeEngine(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"statusCode":"unauthorized","statusMessage":"bad key"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"pluginInstance": map[string]any{"id": "pi-1", "handle": "importer-1"}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckPlatform_OK(t *testing.T) {
	srv := fakeEngine(t)
	result := CheckPlatform(context.Background(), engineConfig(t, srv.URL), nil)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckPlatform_BadKey(t *testing.T) {
	srv := fakeEngine(t)
	cfg := engineConfig(t, srv.URL)
	cfg.Platform.APIKey = "bad-key"
	result := CheckPlatform(context.Background(), cfg, nil)
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if result.Detail != "auth failed (invalid api key)" {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckLLM_MissingKey(t *testing.T) {
	result := CheckLLM(context.Background(), "OpenRouter", config.LLM{}, nil)
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckGeminiKeys(t *testing.T) {
	if r := CheckGeminiKeys(""); r.Passed {
		t.Fatal("expected failure without keys")
	}
	if r := CheckGeminiKeys("a, b"); !r.Passed || r.Detail != "2 key(s) configured" {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil, Options{})
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_OfflineConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()

	results := RunAll(context.Background(), &cfg, Options{})
	// Should have state + log directory checks
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if Failed(results) {
		t.Fatalf("unexpected failures: %+v", results)
	}
}

func TestRunAll_OnlineIncludesEngine(t *testing.T) {
	srv := fakeEngine(t)
	cfg := engineConfig(t, srv.URL)

	results := RunAll(context.Background(), cfg, Options{Online: true})
	found := false
	for _, r := range results {
		if r.Name == "Engine" {
			found = true
			if !r.Passed {
				t.Errorf("Engine check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected Engine check in results")
	}
}
