package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizePlatform()
	c.normalizePlugins()
	c.normalizeWorkflow()
	c.normalizeGenerator()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("AUDIODESC_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizePlatform() {
	c.Platform.BaseURL = strings.TrimSpace(c.Platform.BaseURL)
	if c.Platform.BaseURL == "" {
		c.Platform.BaseURL = defaultPlatformBaseURL
	}
	c.Platform.APIKey = strings.TrimSpace(c.Platform.APIKey)
	if c.Platform.APIKey == "" {
		c.Platform.APIKey = firstEnv("AUDIODESC_PLATFORM_API_KEY", "STEAMSHIP_API_KEY")
	}
	c.Platform.Workspace = strings.TrimSpace(c.Platform.Workspace)
	if c.Platform.TimeoutSeconds <= 0 {
		c.Platform.TimeoutSeconds = defaultPlatformTimeoutSeconds
	}
}

func (c *Config) normalizePlugins() {
	c.Plugins.Importer = defaultString(c.Plugins.Importer, defaultImporterHandle)
	c.Plugins.Transcriber = defaultString(c.Plugins.Transcriber, defaultTranscriberHandle)
	c.Plugins.Generator = defaultString(c.Plugins.Generator, defaultGeneratorHandle)
	c.Plugins.GeneratorInstance = defaultString(c.Plugins.GeneratorInstance, defaultGeneratorInstance)
	c.Plugins.GeneratorModel = defaultString(c.Plugins.GeneratorModel, defaultGeneratorModel)
	if c.Plugins.GeneratorMaxWords <= 0 {
		c.Plugins.GeneratorMaxWords = defaultGeneratorMaxWords
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.ImportTimeoutSeconds <= 0 {
		c.Workflow.ImportTimeoutSeconds = defaultImportTimeoutSeconds
	}
	if c.Workflow.GenerateTimeoutSeconds <= 0 {
		c.Workflow.GenerateTimeoutSeconds = defaultGenerateTimeoutSeconds
	}
	if c.Workflow.PollIntervalSeconds <= 0 {
		c.Workflow.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Workflow.MaxPollIntervalSeconds <= 0 {
		c.Workflow.MaxPollIntervalSeconds = defaultMaxPollSeconds
	}
	if strings.TrimSpace(c.Workflow.PromptTemplate) == "" {
		c.Workflow.PromptTemplate = defaultPromptTemplate
	}
}

func (c *Config) normalizeGenerator() {
	c.Generator.Backend = strings.ToLower(strings.TrimSpace(c.Generator.Backend))
	if c.Generator.Backend == "" {
		c.Generator.Backend = defaultGeneratorBackend
	}

	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = firstEnv("OPENROUTER_API_KEY")
	}
	c.LLM.BaseURL = defaultString(c.LLM.BaseURL, defaultLLMBaseURL)
	c.LLM.Model = defaultString(c.LLM.Model, defaultLLMModel)
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = defaultString(c.LLM.Title, defaultLLMTitle)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}

	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	c.Gemini.Model = defaultString(c.Gemini.Model, defaultGeminiModel)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func defaultString(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
