package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultServer is the daemon address used when none is configured.
const DefaultServer = "http://127.0.0.1:7490"

// HTTPError is returned for any non-2xx daemon response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("daemon returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the audiodesc daemon over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithToken sets the bearer token sent with each request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// NewClient returns a client for the daemon at server. A bare host:port is
// treated as http.
func NewClient(server string, opts ...ClientOption) *Client {
	server = strings.TrimSpace(server)
	if server == "" {
		server = DefaultServer
	}
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	c := &Client{
		baseURL:    strings.TrimRight(server, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BaseURL returns the normalized daemon address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Analyze submits a video URL.
func (c *Client) Analyze(ctx context.Context, url string) (*AnalyzeResponse, error) {
	var resp AnalyzeResponse
	if err := c.do(ctx, http.MethodPost, PathAnalyze, AnalyzeRequest{URL: url}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches a task's state and, when succeeded, the generated text.
func (c *Client) Status(ctx context.Context, taskID string) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.do(ctx, http.MethodPost, PathStatus, StatusRequest{TaskID: taskID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Query runs a tag filter expression and returns the raw File records.
func (c *Client) Query(ctx context.Context, query string) (QueryResponse, error) {
	var resp QueryResponse
	if err := c.do(ctx, http.MethodPost, PathQuery, QueryRequest{Query: query}, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		resp = QueryResponse{}
	}
	return resp, nil
}

// Generate runs the generation step on summary.
func (c *Client) Generate(ctx context.Context, summary string) (*GenerateResponse, error) {
	var resp GenerateResponse
	if err := c.do(ctx, http.MethodPost, PathGenerate, GenerateRequest{AudioSummary: summary}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health reports daemon readiness.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, PathHealth, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp.StatusCode, payload)
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func newHTTPError(status int, payload []byte) *HTTPError {
	var body ErrorResponse
	message := strings.TrimSpace(string(payload))
	if err := json.Unmarshal(payload, &body); err == nil && strings.TrimSpace(body.Error) != "" {
		message = strings.TrimSpace(body.Error)
	}
	if len(message) > 512 {
		message = message[:512] + "..."
	}
	return &HTTPError{StatusCode: status, Message: message}
}

// StatusCode extracts the HTTP status from an *HTTPError, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
