package api

import "encoding/json"

// Endpoint paths served by the daemon.
const (
	PathAnalyze  = "/analyze_youtube"
	PathStatus   = "/status"
	PathQuery    = "/query"
	PathGenerate = "/generate"
	PathHealth   = "/healthz"
)

// RequestIDHeader carries the correlation ID in both directions.
const RequestIDHeader = "X-Request-ID"

// AnalyzeRequest submits a video URL for import and transcription.
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// AnalyzeResponse identifies the transcription task started for a video.
type AnalyzeResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// StatusRequest asks for the state of a transcription task.
type StatusRequest struct {
	TaskID string `json:"task_id"`
}

// StatusResponse reports a task state. File carries the generated post text
// and is present only once the task has succeeded.
type StatusResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	File   string `json:"file,omitempty"`
}

// QueryRequest carries a tag filter expression.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse is the list of matching File records in the engine's own
// schema. Records are passed through as raw JSON.
type QueryResponse []json.RawMessage

// GenerateRequest runs the generation step on a summary directly.
type GenerateRequest struct {
	AudioSummary string `json:"audio_summary"`
}

// GenerateResponse holds the generated post text.
type GenerateResponse struct {
	Text string `json:"text"`
}

// ComponentHealth mirrors readiness reporting for one daemon dependency.
type ComponentHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components []ComponentHealth `json:"components,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Terminal reports whether a task status will no longer change.
func Terminal(status string) bool {
	return status == "succeeded" || status == "failed"
}
