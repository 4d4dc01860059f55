package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"audiodesc/internal/config"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AUDIODESC_PLATFORM_API_KEY",
		"STEAMSHIP_API_KEY",
		"AUDIODESC_API_TOKEN",
		"OPENROUTER_API_KEY",
		"GEMINI_API_KEY",
		"GOOGLE_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigUsesEnvPlatformKeyAndExpandsPaths(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("STEAMSHIP_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "audiodesc")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.LockPath() != filepath.Join(wantState, "audiodescd.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if cfg.Platform.APIKey != "test-key" {
		t.Fatalf("expected platform key from env, got %q", cfg.Platform.APIKey)
	}
	if cfg.Server.Bind != "127.0.0.1:7490" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if cfg.Plugins.Importer != "youtube-file-importer" {
		t.Fatalf("unexpected importer: %q", cfg.Plugins.Importer)
	}
	if cfg.Plugins.Transcriber != "deepgram-s2t-blockifier-2" {
		t.Fatalf("unexpected transcriber: %q", cfg.Plugins.Transcriber)
	}
	if cfg.Generator.Backend != config.BackendPlugin {
		t.Fatalf("unexpected backend: %q", cfg.Generator.Backend)
	}
	if cfg.ImportTimeout() != 5*time.Minute {
		t.Fatalf("unexpected import timeout: %s", cfg.ImportTimeout())
	}
	if cfg.PollInterval() != 2*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	pluginCfg := cfg.GeneratorPluginConfig()
	if pluginCfg["max_words"] != 250 || pluginCfg["temperature"] != 0.7 || pluginCfg["model"] != "text-davinci-003" {
		t.Fatalf("unexpected generator plugin config: %#v", pluginCfg)
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearKeyEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "custom.toml")
	contents := `
[paths]
state_dir = "~/state"
log_dir = "~/logs"

[server]
bind = "0.0.0.0:9000"
api_token = "  secret  "

[platform]
api_key = "file-key"
workspace = "demo"

[workflow]
poll_interval_seconds = 3
max_poll_interval_seconds = 30

[generator]
backend = "OpenRouter"

[llm]
api_key = "or-key"

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, "state") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.LogPath() != filepath.Join(tempHome, "logs", "audiodesc.log") {
		t.Fatalf("unexpected log path: %q", cfg.LogPath())
	}
	if cfg.Server.APIToken != "secret" {
		t.Fatalf("expected trimmed api token, got %q", cfg.Server.APIToken)
	}
	if cfg.Platform.Workspace != "demo" {
		t.Fatalf("unexpected workspace: %q", cfg.Platform.Workspace)
	}
	if cfg.MaxPollInterval() != 30*time.Second {
		t.Fatalf("unexpected max poll interval: %s", cfg.MaxPollInterval())
	}
	if cfg.Generator.Backend != config.BackendOpenRouter {
		t.Fatalf("expected lower-cased backend, got %q", cfg.Generator.Backend)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	// Unset sections keep defaults.
	if cfg.Plugins.Generator != "prompt-generation-default" {
		t.Fatalf("unexpected generator plugin: %q", cfg.Plugins.Generator)
	}
}

func TestConfigFileKeyWinsOverEnv(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("STEAMSHIP_API_KEY", "env-key")
	t.Setenv("GEMINI_API_KEY", "env-gemini")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	contents := `
[platform]
api_key = "file-key"

[generator]
backend = "gemini"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Platform.APIKey != "file-key" {
		t.Fatalf("expected file key to win, got %q", cfg.Platform.APIKey)
	}
	if cfg.Gemini.APIKey != "env-gemini" {
		t.Fatalf("expected gemini key from env, got %q", cfg.Gemini.APIKey)
	}
}

func TestLoadRejectsMissingPlatformKey(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected error for missing platform key")
	}
	if !strings.Contains(err.Error(), "platform.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	clearKeyEnv(t)
	configPath := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(configPath, []byte("[platform\napi_key = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "youtube-file-importer") {
		t.Fatalf("sample config missing importer handle: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	defaults := config.Default()
	if cfg.Workflow.PromptTemplate != defaults.Workflow.PromptTemplate {
		t.Fatalf("sample prompt template drifted from defaults: %q", cfg.Workflow.PromptTemplate)
	}
	if cfg.Plugins != defaults.Plugins {
		t.Fatalf("sample plugins drifted from defaults: %+v", cfg.Plugins)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Platform.APIKey = "key"
		return cfg
	}
	if cfg := base(); cfg.Validate() != nil {
		t.Fatalf("expected defaults with key to validate: %v", cfg.Validate())
	}

	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"bad base url", func(c *config.Config) { c.Platform.BaseURL = "ftp://example" }, "platform.base_url"},
		{"bad bind", func(c *config.Config) { c.Server.Bind = "localhost" }, "server.bind"},
		{"negative rate", func(c *config.Config) { c.Server.AnalyzeRequestsPerMinute = -1 }, "analyze_requests_per_minute"},
		{"temperature", func(c *config.Config) { c.Plugins.GeneratorTemperature = 3 }, "generator_temperature"},
		{"poll bounds", func(c *config.Config) { c.Workflow.MaxPollIntervalSeconds = 1 }, "max_poll_interval_seconds"},
		{"prompt placeholder", func(c *config.Config) { c.Workflow.PromptTemplate = "no placeholder" }, "prompt_template"},
		{"backend", func(c *config.Config) { c.Generator.Backend = "markov" }, "generator.backend"},
		{"openrouter key", func(c *config.Config) { c.Generator.Backend = config.BackendOpenRouter }, "llm.api_key"},
		{"gemini key", func(c *config.Config) { c.Generator.Backend = config.BackendGemini }, "gemini.api_key"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(root, "state")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
