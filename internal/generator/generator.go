// Package generator turns a transcript summary into the text of a social media
// post.
//
// Three backends share the same prompt template: the engine's prompt
// generation plugin (default), an OpenRouter chat model, and a Gemini model.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"audiodesc/internal/config"
	"audiodesc/internal/platform"
	"audiodesc/internal/services"
	"audiodesc/internal/services/gemini"
	"audiodesc/internal/services/llm"
)

// DefaultPromptTemplate is used when no template is configured.
const DefaultPromptTemplate = "Generate a Linkedin Post describing my latest video. This is the Summary of the Video: %s"

// Generator produces post text from a summary.
type Generator interface {
	Generate(ctx context.Context, summary string) (string, error)
	Backend() string
}

// BuildPrompt embeds summary into template at its %s placeholder. Templates
// are checked with config.ValidatePromptTemplate when a backend is built; an
// empty template selects DefaultPromptTemplate.
func BuildPrompt(template, summary string) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultPromptTemplate
	}
	return strings.Replace(template, "%s", summary, 1)
}

func validateSummary(summary string) (string, error) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", services.Wrap(services.ErrValidation, "generate", "summary", "audio summary is required", nil)
	}
	return summary, nil
}

func emptyResult(backend string) error {
	return services.Wrap(services.ErrMalformedArtifact, "generate", backend, "generation returned empty text", nil)
}

// New builds the generator selected by cfg.Generator.Backend. The plugin
// backend resolves its engine plugin instance immediately.
func New(ctx context.Context, cfg *config.Config, engine Engine, logger *slog.Logger) (Generator, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "generate", "init", "config required", nil)
	}
	template := cfg.Workflow.PromptTemplate
	if err := config.ValidatePromptTemplate(template); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "generate", "init", "prompt template", err)
	}
	temperature := cfg.Plugins.GeneratorTemperature

	switch cfg.Generator.Backend {
	case config.BackendPlugin, "":
		plugin, err := NewPlugin(ctx, engine, PluginOptions{
			PluginHandle:   cfg.Plugins.Generator,
			InstanceHandle: cfg.Plugins.GeneratorInstance,
			InstanceConfig: cfg.GeneratorPluginConfig(),
			PromptTemplate: template,
			Wait: platform.WaitOptions{
				Timeout:     cfg.GenerateTimeout(),
				Interval:    cfg.PollInterval(),
				MaxInterval: cfg.MaxPollInterval(),
			},
		}, logger)
		if err != nil {
			return nil, err
		}
		return plugin, nil
	case config.BackendOpenRouter:
		client := llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Referer:        cfg.LLM.Referer,
			Title:          cfg.LLM.Title,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		})
		return NewChat(client, template, temperature, logger), nil
	case config.BackendGemini:
		client, err := gemini.NewClient(gemini.Config{
			APIKeys: gemini.SplitKeys(cfg.Gemini.APIKey),
			Model:   cfg.Gemini.Model,
		}, logger)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "generate", "init gemini", "", err)
		}
		return NewGemini(client, template, float32(temperature), logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "generate", "init", fmt.Sprintf("unsupported backend %q", cfg.Generator.Backend), nil)
	}
}
