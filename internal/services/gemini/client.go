// Package gemini wraps the Google Gen AI SDK for the gemini generator backend.
//
// Several API keys may be configured (comma separated); the client rotates to
// the next key when the current one is rate limited or out of quota.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"audiodesc/internal/logging"
)

// Config captures the Gemini settings.
type Config struct {
	APIKeys []string
	Model   string
	// BaseURL overrides the API endpoint; empty uses the SDK default.
	BaseURL    string
	HTTPClient *http.Client
}

// Client generates text with Gemini models.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	current int
}

// SplitKeys parses a comma separated key list, dropping blanks.
func SplitKeys(raw string) []string {
	var keys []string
	for _, part := range strings.Split(raw, ",") {
		if key := strings.TrimSpace(part); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// NewClient validates cfg and returns a client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if len(cfg.APIKeys) == 0 {
		return nil, errors.New("gemini: api key required")
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		return nil, errors.New("gemini: model required")
	}
	return &Client{cfg: cfg, logger: logging.NewComponentLogger(logger, "gemini")}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Generate sends prompt to the model and returns the concatenated text parts
// of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("gemini generate: prompt required")
	}

	var lastErr error
	for range c.cfg.APIKeys {
		key, index := c.currentKey()
		text, err := c.generateWithKey(ctx, key, prompt, temperature)
		if err == nil {
			return text, nil
		}
		if !quotaExhausted(err) {
			return "", err
		}
		c.logger.Warn("gemini key rate limited, rotating",
			logging.Int("key_index", index+1),
			logging.String(logging.FieldEventType, "gemini_key_rotated"),
			logging.Error(err),
		)
		c.rotate(index)
		lastErr = err
	}
	return "", fmt.Errorf("gemini generate: all API keys exhausted: %w", lastErr)
}

func (c *Client) generateWithKey(ctx context.Context, key, prompt string, temperature float32) (string, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.cfg.HTTPClient,
	}
	if c.cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return "", fmt.Errorf("gemini: create client: %w", err)
	}

	genCfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(temperature)}
	result, err := client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", nil
	}
	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(text.String()), nil
}

func (c *Client) currentKey() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.APIKeys[c.current], c.current
}

// rotate advances past index unless another caller already did.
func (c *Client) rotate(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == index {
		c.current = (c.current + 1) % len(c.cfg.APIKeys)
	}
}

func quotaExhausted(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
