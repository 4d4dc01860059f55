package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"audiodesc/internal/api"
)

func TestClientAnalyzeSendsTokenAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != api.PathAnalyze {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req api.AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.URL != "https://youtu.be/abc" {
			t.Errorf("unexpected url %q", req.URL)
		}
		_ = json.NewEncoder(w).Encode(api.AnalyzeResponse{TaskID: "t-1", Status: "waiting"})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, api.WithToken("secret"))
	resp, err := client.Analyze(context.Background(), "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if resp.TaskID != "t-1" || resp.Status != "waiting" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestClientStatusAndGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case api.PathStatus:
			_, _ = w.Write([]byte(`{"task_id":"t-1","status":"succeeded","file":"a post"}`))
		case api.PathGenerate:
			var req api.GenerateRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			_ = json.NewEncoder(w).Encode(api.GenerateResponse{Text: "post for " + req.AudioSummary})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL)
	status, err := client.Status(context.Background(), "t-1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.File != "a post" || !api.Terminal(status.Status) {
		t.Fatalf("unexpected status %+v", status)
	}
	gen, err := client.Generate(context.Background(), "summary")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gen.Text != "post for summary" {
		t.Fatalf("unexpected text %q", gen.Text)
	}
}

func TestClientQueryKeepsRecordsRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"f1","custom":{"x":1}}]`))
	}))
	defer srv.Close()

	files, err := api.NewClient(srv.URL).Query(context.Background(), "blocktag")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(files) != 1 || string(files[0]) != `{"id":"f1","custom":{"x":1}}` {
		t.Fatalf("unexpected files %s", files)
	}
}

func TestClientHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"malformed artifact: blocks[0]"}`))
	}))
	defer srv.Close()

	_, err := api.NewClient(srv.URL).Status(context.Background(), "t-1")
	var httpErr *api.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusBadGateway || httpErr.Message != "malformed artifact: blocks[0]" {
		t.Fatalf("unexpected error %+v", httpErr)
	}
	if api.StatusCode(err) != http.StatusBadGateway {
		t.Fatalf("StatusCode = %d", api.StatusCode(err))
	}
}

func TestNewClientNormalizesServer(t *testing.T) {
	if got := api.NewClient("").BaseURL(); got != api.DefaultServer {
		t.Fatalf("unexpected default %q", got)
	}
	if got := api.NewClient("localhost:9000/").BaseURL(); got != "http://localhost:9000" {
		t.Fatalf("unexpected normalized url %q", got)
	}
}
