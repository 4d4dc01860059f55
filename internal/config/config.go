package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Server contains the HTTP daemon settings.
type Server struct {
	Bind                     string `toml:"bind"`
	APIToken                 string `toml:"api_token"`
	AnalyzeRequestsPerMinute int    `toml:"analyze_requests_per_minute"`
}

// Platform contains connection settings for the hosted plugin engine.
type Platform struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Workspace      string `toml:"workspace"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Plugins names the platform plugins the workflows invoke.
type Plugins struct {
	Importer             string  `toml:"importer"`
	Transcriber          string  `toml:"transcriber"`
	Generator            string  `toml:"generator"`
	GeneratorInstance    string  `toml:"generator_instance"`
	GeneratorModel       string  `toml:"generator_model"`
	GeneratorTemperature float64 `toml:"generator_temperature"`
	GeneratorMaxWords    int     `toml:"generator_max_words"`
}

// Workflow contains wait bounds and the generation prompt.
type Workflow struct {
	ImportTimeoutSeconds   int    `toml:"import_timeout_seconds"`
	GenerateTimeoutSeconds int    `toml:"generate_timeout_seconds"`
	PollIntervalSeconds    int    `toml:"poll_interval_seconds"`
	MaxPollIntervalSeconds int    `toml:"max_poll_interval_seconds"`
	PromptTemplate         string `toml:"prompt_template"`
}

// Generator selects the text generation backend.
type Generator struct {
	Backend string `toml:"backend"`
}

// LLM contains OpenRouter connection settings for the openrouter backend.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Gemini contains settings for the gemini backend.
type Gemini struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for audiodesc.
//
// Configuration sections by subsystem:
//   - Paths: state (lock file) and log directories
//   - Server: bind address, bearer token, analyze throttling
//   - Platform: hosted engine base URL, API key, workspace
//   - Plugins: importer, transcriber and generator plugin handles
//   - Workflow: import/generate wait bounds, poll intervals, prompt template
//   - Generator: which backend produces the final post
//   - LLM / Gemini: settings for the alternative generator backends
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Server    Server    `toml:"server"`
	Platform  Platform  `toml:"platform"`
	Plugins   Plugins   `toml:"plugins"`
	Workflow  Workflow  `toml:"workflow"`
	Generator Generator `toml:"generator"`
	LLM       LLM       `toml:"llm"`
	Gemini    Gemini    `toml:"gemini"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("audiodesc.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "audiodescd.lock")
}

// LogPath returns the daemon log file location.
func (c *Config) LogPath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "audiodesc.log")
}

// PlatformTimeout returns the per-request HTTP timeout for the engine API.
func (c *Config) PlatformTimeout() time.Duration {
	return seconds(c.Platform.TimeoutSeconds)
}

// ImportTimeout bounds the synchronous wait on the import task.
func (c *Config) ImportTimeout() time.Duration {
	return seconds(c.Workflow.ImportTimeoutSeconds)
}

// GenerateTimeout bounds the synchronous wait on the generation task.
func (c *Config) GenerateTimeout() time.Duration {
	return seconds(c.Workflow.GenerateTimeoutSeconds)
}

// PollInterval is the first delay between task status lookups.
func (c *Config) PollInterval() time.Duration {
	return seconds(c.Workflow.PollIntervalSeconds)
}

// MaxPollInterval caps the delay between task status lookups.
func (c *Config) MaxPollInterval() time.Duration {
	return seconds(c.Workflow.MaxPollIntervalSeconds)
}

// GeneratorPluginConfig returns the instance config passed when the
// generation plugin instance is created.
func (c *Config) GeneratorPluginConfig() map[string]any {
	return map[string]any{
		"temperature": c.Plugins.GeneratorTemperature,
		"max_words":   c.Plugins.GeneratorMaxWords,
		"model":       c.Plugins.GeneratorModel,
	}
}

func seconds(value int) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
