package platform_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"audiodesc/internal/platform"
)

type recordedRequest struct {
	Path   string
	Auth   string
	Space  string
	Body   map[string]any
	Method string
}

func newEngine(t *testing.T, handler func(op string, body map[string]any) (int, any)) (*platform.Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		op := strings.TrimPrefix(r.URL.Path, "/api/v1/")
		requests = append(requests, recordedRequest{
			Path:   op,
			Auth:   r.Header.Get("Authorization"),
			Space:  r.Header.Get("X-Workspace-Handle"),
			Body:   body,
			Method: r.Method,
		})
		status, payload := handler(op, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)

	client, err := platform.New(platform.Config{BaseURL: srv.URL + "/api/v1/", APIKey: "key-123", Workspace: "demo"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, &requests
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := platform.New(platform.Config{BaseURL: "http://example"}); !errors.Is(err, platform.ErrAPIKeyRequired) {
		t.Fatalf("expected ErrAPIKeyRequired, got %v", err)
	}
}

func TestUsePluginSendsFetchIfExists(t *testing.T) {
	client, requests := newEngine(t, func(op string, body map[string]any) (int, any) {
		return http.StatusOK, map[string]any{
			"data": map[string]any{"pluginInstance": map[string]any{"id": "pi-1", "handle": body["handle"], "pluginId": "p-1"}},
		}
	})

	instance, err := client.UsePlugin(context.Background(), "prompt-generation-default", "my-new-instance", map[string]any{"max_words": 250})
	if err != nil {
		t.Fatalf("UsePlugin: %v", err)
	}
	if instance.Handle != "my-new-instance" || instance.ID != "pi-1" {
		t.Fatalf("unexpected instance: %+v", instance)
	}
	req := (*requests)[0]
	if req.Path != "plugin/instance/create" || req.Method != http.MethodPost {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Auth != "Bearer key-123" || req.Space != "demo" {
		t.Fatalf("missing auth headers: %+v", req)
	}
	if req.Body["fetchIfExists"] != true || req.Body["pluginHandle"] != "prompt-generation-default" {
		t.Fatalf("unexpected body: %#v", req.Body)
	}
	if cfg, ok := req.Body["config"].(map[string]any); !ok || cfg["max_words"] != float64(250) {
		t.Fatalf("unexpected config: %#v", req.Body["config"])
	}
}

func TestImportFileReturnsTask(t *testing.T) {
	client, requests := newEngine(t, func(op string, body map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"status": map[string]any{"taskId": "t-1", "state": "waiting"}}
	})

	task, err := client.ImportFile(context.Background(), &platform.PluginInstance{Handle: "importer"}, "https://youtu.be/x")
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if task.TaskID != "t-1" || task.State != platform.TaskWaiting {
		t.Fatalf("unexpected task: %+v", task)
	}
	body := (*requests)[0].Body
	if body["type"] != "fileImporter" || body["pluginInstance"] != "importer" || body["url"] != "https://youtu.be/x" {
		t.Fatalf("unexpected body: %#v", body)
	}
}

func TestBlockifySendsFileID(t *testing.T) {
	client, requests := newEngine(t, func(op string, body map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"status": map[string]any{"taskId": "t-2", "state": "running", "input": `{"id":"f-1"}`}}
	})

	task, err := client.Blockify(context.Background(), &platform.PluginInstance{Handle: "s2t"}, "f-1")
	if err != nil {
		t.Fatalf("Blockify: %v", err)
	}
	if task.Input != `{"id":"f-1"}` {
		t.Fatalf("unexpected input: %q", task.Input)
	}
	if got := (*requests)[0]; got.Path != "plugin/instance/blockify" || got.Body["id"] != "f-1" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestGetFileAcceptsWrappedAndBareShapes(t *testing.T) {
	calls := 0
	client, _ := newEngine(t, func(op string, body map[string]any) (int, any) {
		calls++
		file := map[string]any{
			"id": body["id"],
			"blocks": []any{map[string]any{
				"id":   "b-1",
				"tags": []any{map[string]any{"kind": "summary", "name": "a talk about Go", "value": map[string]any{"string-value": "x"}}},
			}},
		}
		if calls == 1 {
			return http.StatusOK, map[string]any{"data": map[string]any{"file": file}}
		}
		return http.StatusOK, map[string]any{"data": file}
	})

	for i := 0; i < 2; i++ {
		file, err := client.GetFile(context.Background(), "f-9")
		if err != nil {
			t.Fatalf("GetFile: %v", err)
		}
		if file.ID != "f-9" || len(file.Blocks) != 1 || file.Blocks[0].Tags[0].Name != "a talk about Go" {
			t.Fatalf("unexpected file: %+v", file)
		}
		if file.Blocks[0].Tags[0].Value["string-value"] != "x" {
			t.Fatalf("unexpected tag value: %#v", file.Blocks[0].Tags[0].Value)
		}
	}
}

func TestQueryFilesReturnsRecordsVerbatim(t *testing.T) {
	client, requests := newEngine(t, func(op string, body map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"data": map[string]any{"files": []any{
			map[string]any{"id": "f-1", "extra": "kept", "tags": []any{map[string]any{"kind": "test_file", "name": "file123"}}},
		}}}
	})

	files, err := client.QueryFiles(context.Background(), `filetag and kind "test_file"`)
	if err != nil {
		t.Fatalf("QueryFiles: %v", err)
	}
	if len(files) != 1 || !strings.Contains(string(files[0]), `"extra":"kept"`) {
		t.Fatalf("expected verbatim record, got %s", files)
	}
	if (*requests)[0].Body["tagFilterQuery"] != `filetag and kind "test_file"` {
		t.Fatalf("query not forwarded verbatim: %#v", (*requests)[0].Body)
	}
}

func TestQueryFilesEmptyResultIsEmptySlice(t *testing.T) {
	client, _ := newEngine(t, func(op string, body map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"data": map[string]any{}}
	})
	files, err := client.QueryFiles(context.Background(), "all")
	if err != nil {
		t.Fatalf("QueryFiles: %v", err)
	}
	if files == nil || len(files) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", files)
	}
}

func TestHTTPErrorBecomesAPIError(t *testing.T) {
	client, _ := newEngine(t, func(op string, body map[string]any) (int, any) {
		return http.StatusNotFound, map[string]any{"status": map[string]any{"state": "failed", "statusCode": "ObjectNotFound", "statusMessage": "no such file"}}
	})

	_, err := client.GetFile(context.Background(), "missing")
	var apiErr *platform.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.NotFound() || apiErr.Code != "ObjectNotFound" || apiErr.Message != "no such file" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestEnvelopeFailureWithoutTaskIsAPIError(t *testing.T) {
	client, _ := newEngine(t, func(op string, body map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"status": map[string]any{"state": "failed", "statusMessage": "bad plugin"}}
	})
	_, err := client.UsePlugin(context.Background(), "nope", "", nil)
	var apiErr *platform.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "bad plugin" {
		t.Fatalf("expected envelope APIError, got %v", err)
	}
}

func TestTaskOutputDecodesStringEncodedJSON(t *testing.T) {
	task := &platform.Task{Output: json.RawMessage(`"{\"id\":\"f-1\",\"handle\":\"video\"}"`)}
	var file platform.File
	if err := platform.TaskOutput(task, &file); err != nil {
		t.Fatalf("TaskOutput: %v", err)
	}
	if file.ID != "f-1" || file.Handle != "video" {
		t.Fatalf("unexpected file: %+v", file)
	}

	task.Output = json.RawMessage(`{"id":"f-2"}`)
	if err := platform.TaskOutput(task, &file); err != nil || file.ID != "f-2" {
		t.Fatalf("unexpected decode: %+v %v", file, err)
	}

	if err := platform.TaskOutput(&platform.Task{}, &file); err == nil {
		t.Fatal("expected error for empty output")
	}
}

func taskServer(t *testing.T, states ...string) (*platform.Client, *int32) {
	t.Helper()
	var polls int32
	client, _ := newEngine(t, func(op string, body map[string]any) (int, any) {
		if op != "task/status" {
			t.Errorf("unexpected op %s", op)
		}
		n := int(atomic.AddInt32(&polls, 1)) - 1
		if n >= len(states) {
			n = len(states) - 1
		}
		status := map[string]any{"taskId": body["taskId"], "state": states[n]}
		if states[n] == "failed" {
			status["statusMessage"] = "video unavailable"
		}
		if states[n] == "succeeded" {
			status["output"] = `{"id":"f-1"}`
		}
		return http.StatusOK, map[string]any{"status": status}
	})
	return client, &polls
}

func fastWait(timeout time.Duration) platform.WaitOptions {
	return platform.WaitOptions{Timeout: timeout, Interval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestWaitTaskSucceeds(t *testing.T) {
	client, polls := taskServer(t, "running", "running", "succeeded")

	task, err := client.WaitTask(context.Background(), &platform.Task{TaskID: "t-1", State: platform.TaskWaiting}, fastWait(5*time.Second))
	if err != nil {
		t.Fatalf("WaitTask: %v", err)
	}
	if task.State != platform.TaskSucceeded {
		t.Fatalf("unexpected state: %s", task.State)
	}
	if atomic.LoadInt32(polls) != 3 {
		t.Fatalf("expected 3 polls, got %d", atomic.LoadInt32(polls))
	}
	var file platform.File
	if err := platform.TaskOutput(task, &file); err != nil || file.ID != "f-1" {
		t.Fatalf("unexpected output: %+v %v", file, err)
	}
}

func TestWaitTaskFailedReturnsTaskError(t *testing.T) {
	client, _ := taskServer(t, "running", "failed")

	_, err := client.WaitTask(context.Background(), &platform.Task{TaskID: "t-1"}, fastWait(5*time.Second))
	var taskErr *platform.TaskError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected TaskError, got %v", err)
	}
	if taskErr.TaskID != "t-1" || taskErr.Message != "video unavailable" {
		t.Fatalf("unexpected task error: %+v", taskErr)
	}
}

func TestWaitTaskTimesOut(t *testing.T) {
	client, _ := taskServer(t, "running")

	_, err := client.WaitTask(context.Background(), &platform.Task{TaskID: "t-1"}, fastWait(30*time.Millisecond))
	if !errors.Is(err, platform.ErrWaitTimeout) {
		t.Fatalf("expected ErrWaitTimeout, got %v", err)
	}
}

func TestWaitTaskStopsOnMalformedStatus(t *testing.T) {
	var polls int32
	client, _ := newEngine(t, func(op string, body map[string]any) (int, any) {
		atomic.AddInt32(&polls, 1)
		return http.StatusOK, map[string]any{"data": map[string]any{}}
	})

	_, err := client.WaitTask(context.Background(), &platform.Task{TaskID: "t-1"}, fastWait(5*time.Second))
	if err == nil || errors.Is(err, platform.ErrWaitTimeout) {
		t.Fatalf("expected malformed status error, got %v", err)
	}
	if !strings.Contains(err.Error(), "response missing status") {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&polls); got != 1 {
		t.Fatalf("expected a single poll, got %d", got)
	}
}

func TestWaitTaskRetriesTransportErrors(t *testing.T) {
	client, err := platform.New(platform.Config{BaseURL: "http://127.0.0.1:1/api/v1/", APIKey: "key-123"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.WaitTask(context.Background(), &platform.Task{TaskID: "t-1"}, fastWait(30*time.Millisecond))
	if !errors.Is(err, platform.ErrWaitTimeout) {
		t.Fatalf("expected ErrWaitTimeout after transport failures, got %v", err)
	}
}

func TestWaitTaskHonoursCancellation(t *testing.T) {
	client, _ := taskServer(t, "running")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.WaitTask(ctx, &platform.Task{TaskID: "t-1"}, fastWait(time.Second))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitTaskTerminalInputSkipsPolling(t *testing.T) {
	client, polls := taskServer(t, "running")

	task, err := client.WaitTask(context.Background(), &platform.Task{TaskID: "t-1", State: platform.TaskSucceeded}, fastWait(time.Second))
	if err != nil || task.State != platform.TaskSucceeded {
		t.Fatalf("unexpected result: %+v %v", task, err)
	}
	if atomic.LoadInt32(polls) != 0 {
		t.Fatalf("expected no polls, got %d", atomic.LoadInt32(polls))
	}
}
