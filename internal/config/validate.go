package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePlatform(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validatePlugins(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateGenerator(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePlatform() error {
	if c.Platform.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("platform.api_key is required. Set STEAMSHIP_API_KEY env var or edit %s (create with 'audiodesc config init')", defaultPath)
	}
	if err := validateHTTPURL(c.Platform.BaseURL); err != nil {
		return fmt.Errorf("platform.base_url: %w", err)
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind must be host:port: %w", err)
	}
	if c.Server.AnalyzeRequestsPerMinute < 0 {
		return errors.New("server.analyze_requests_per_minute must be zero (unlimited) or positive")
	}
	return nil
}

func (c *Config) validatePlugins() error {
	if c.Plugins.GeneratorTemperature < 0 || c.Plugins.GeneratorTemperature > 2 {
		return errors.New("plugins.generator_temperature must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxPollIntervalSeconds < c.Workflow.PollIntervalSeconds {
		return errors.New("workflow.max_poll_interval_seconds must be >= workflow.poll_interval_seconds")
	}
	if err := ValidatePromptTemplate(c.Workflow.PromptTemplate); err != nil {
		return fmt.Errorf("workflow.prompt_template: %w", err)
	}
	return nil
}

// ValidatePromptTemplate reports whether template carries exactly one %s
// placeholder for the summary. An empty template selects the default.
func ValidatePromptTemplate(template string) error {
	if strings.TrimSpace(template) == "" {
		return nil
	}
	if strings.Count(template, "%s") != 1 {
		return errors.New("must contain exactly one %s placeholder")
	}
	return nil
}

func (c *Config) validateGenerator() error {
	switch c.Generator.Backend {
	case BackendPlugin:
		return nil
	case BackendOpenRouter:
		if c.LLM.APIKey == "" {
			return errors.New("llm.api_key is required when generator.backend is openrouter (or set OPENROUTER_API_KEY)")
		}
		if err := validateHTTPURL(c.LLM.BaseURL); err != nil {
			return fmt.Errorf("llm.base_url: %w", err)
		}
		return nil
	case BackendGemini:
		if c.Gemini.APIKey == "" {
			return errors.New("gemini.api_key is required when generator.backend is gemini (or set GEMINI_API_KEY)")
		}
		return nil
	default:
		return fmt.Errorf("generator.backend %q is not supported (use plugin, openrouter or gemini)", c.Generator.Backend)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("host is required")
	}
	return nil
}
