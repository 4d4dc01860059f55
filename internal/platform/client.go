package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"audiodesc/internal/logging"
)

const (
	defaultBaseURL     = "https://api.steamship.com/api/v1/"
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBytes   = 32 << 20
	workspaceHeader    = "X-Workspace-Handle"
)

// ErrAPIKeyRequired is returned by New when no API key is configured.
var ErrAPIKeyRequired = errors.New("platform: api key required")

// Config captures the connection settings for the engine API.
type Config struct {
	BaseURL   string
	APIKey    string
	Workspace string
	Timeout   time.Duration
}

// Client calls the hosted engine API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs an engine client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("platform: base url: %w", err)
	}
	cfg.Workspace = strings.TrimSpace(cfg.Workspace)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}

	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "platform")
	return client, nil
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Status *Task           `json:"status"`
	Reason string          `json:"reason"`
	Error  *struct {
		Code    string `json:"statusCode"`
		Message string `json:"statusMessage"`
	} `json:"error"`
}

// call posts body to <base_url>/<operation>, decodes data into out when out is
// non-nil, and returns the envelope status task (which may be nil).
func (c *Client) call(ctx context.Context, operation string, body any, out any) (*Task, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, operation)
	if err != nil {
		return nil, fmt.Errorf("platform %s: build url: %w", operation, err)
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("platform %s: encode body: %w", operation, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("platform %s: new request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Workspace != "" {
		req.Header.Set(workspaceHeader, c.cfg.Workspace)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("platform %s: %w", operation, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("platform %s: read response: %w", operation, err)
	}
	c.logger.Debug("engine call",
		logging.String("operation", operation),
		logging.Int("status_code", resp.StatusCode),
		logging.Duration("elapsed", time.Since(started)),
	)

	var env envelope
	decodeErr := json.Unmarshal(payload, &env)

	if resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Operation: operation, StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Code, apiErr.Message = envelopeFailure(env)
		}
		if apiErr.Message == "" {
			apiErr.Message = snippet(payload)
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("platform %s: decode response: %w", operation, decodeErr)
	}
	// A failed status without a task id is a synchronous rejection of the call.
	if env.Status != nil && env.Status.State == TaskFailed && env.Status.TaskID == "" {
		code, msg := envelopeFailure(env)
		return nil, &APIError{Operation: operation, StatusCode: resp.StatusCode, Code: code, Message: msg}
	}
	if env.Error != nil {
		return nil, &APIError{Operation: operation, StatusCode: resp.StatusCode, Code: env.Error.Code, Message: env.Error.Message}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("platform %s: decode data: %w", operation, err)
		}
	}
	return env.Status, nil
}

func envelopeFailure(env envelope) (string, string) {
	if env.Error != nil {
		return env.Error.Code, env.Error.Message
	}
	if env.Status != nil {
		msg := env.Status.StatusMessage
		if msg == "" {
			msg = env.Reason
		}
		return env.Status.StatusCode, msg
	}
	return "", env.Reason
}

func snippet(payload []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(payload))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
