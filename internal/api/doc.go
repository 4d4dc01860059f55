// Package api defines the HTTP wire types shared by the audiodesc daemon and
// its CLI, plus a small client for the daemon.
//
// # Key Types
//
// AnalyzeRequest/AnalyzeResponse: submit a video URL, receive the
// transcription task handle.
//
// StatusRequest/StatusResponse: poll a task; the generated post text appears
// in File once the task has succeeded.
//
// QueryResponse: engine File records passed through as json.RawMessage so the
// daemon never re-shapes them.
//
// # Design Notes
//
// DTOs use snake_case JSON tags to match the public endpoint contract. Every
// error body is ErrorResponse; the Client turns any non-2xx response into an
// *HTTPError carrying the status code and message.
package api
