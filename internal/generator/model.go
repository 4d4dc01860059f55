package generator

import (
	"context"
	"log/slog"
	"strings"

	"audiodesc/internal/config"
	"audiodesc/internal/logging"
	"audiodesc/internal/services"
)

// TextCompleter is satisfied by *llm.Client.
type TextCompleter interface {
	CompleteText(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
	Model() string
}

// Chat generates text with an OpenRouter chat model.
type Chat struct {
	client      TextCompleter
	template    string
	temperature float64
	logger      *slog.Logger
}

// NewChat returns the openrouter backend.
func NewChat(client TextCompleter, template string, temperature float64, logger *slog.Logger) *Chat {
	return &Chat{client: client, template: template, temperature: temperature, logger: logging.NewComponentLogger(logger, "generator")}
}

// Backend implements Generator.
func (c *Chat) Backend() string { return config.BackendOpenRouter }

// Generate implements Generator.
func (c *Chat) Generate(ctx context.Context, summary string) (string, error) {
	summary, err := validateSummary(summary)
	if err != nil {
		return "", err
	}
	text, err := c.client.CompleteText(ctx, "", BuildPrompt(c.template, summary), c.temperature)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "generate", "openrouter "+c.client.Model(), "", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", emptyResult(config.BackendOpenRouter)
	}
	logging.WithContext(ctx, c.logger).Info("generation complete",
		logging.String("model", c.client.Model()),
		logging.Int("chars", len(text)),
	)
	return text, nil
}

// ContentGenerator is satisfied by *gemini.Client.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
	Model() string
}

// Gemini generates text with a Gemini model.
type Gemini struct {
	client      ContentGenerator
	template    string
	temperature float32
	logger      *slog.Logger
}

// NewGemini returns the gemini backend.
func NewGemini(client ContentGenerator, template string, temperature float32, logger *slog.Logger) *Gemini {
	return &Gemini{client: client, template: template, temperature: temperature, logger: logging.NewComponentLogger(logger, "generator")}
}

// Backend implements Generator.
func (g *Gemini) Backend() string { return config.BackendGemini }

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, summary string) (string, error) {
	summary, err := validateSummary(summary)
	if err != nil {
		return "", err
	}
	text, err := g.client.Generate(ctx, BuildPrompt(g.template, summary), g.temperature)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "generate", "gemini "+g.client.Model(), "", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", emptyResult(config.BackendGemini)
	}
	logging.WithContext(ctx, g.logger).Info("generation complete",
		logging.String("model", g.client.Model()),
		logging.Int("chars", len(text)),
	)
	return text, nil
}
