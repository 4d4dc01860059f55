package platform

import (
	"encoding/json"
	"fmt"
)

// TaskState is the lifecycle state the engine reports for an asynchronous task.
type TaskState string

const (
	TaskWaiting   TaskState = "waiting"
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// Terminal reports whether the engine will no longer change the state.
func (s TaskState) Terminal() bool {
	return s == TaskSucceeded || s == TaskFailed
}

// Task is an engine job handle.
type Task struct {
	TaskID           string          `json:"taskId"`
	State            TaskState       `json:"state"`
	StatusMessage    string          `json:"statusMessage,omitempty"`
	StatusSuggestion string          `json:"statusSuggestion,omitempty"`
	StatusCode       string          `json:"statusCode,omitempty"`
	Input            string          `json:"input,omitempty"`
	Output           json.RawMessage `json:"output,omitempty"`
}

// File is a container of blocks stored by the engine.
type File struct {
	ID       string  `json:"id"`
	Handle   string  `json:"handle,omitempty"`
	MimeType string  `json:"mimeType,omitempty"`
	Blocks   []Block `json:"blocks,omitempty"`
	Tags     []Tag   `json:"tags,omitempty"`
}

// Block is a unit of content within a File.
type Block struct {
	ID       string `json:"id,omitempty"`
	FileID   string `json:"fileId,omitempty"`
	Text     string `json:"text,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Tags     []Tag  `json:"tags,omitempty"`
}

// Tag annotates a file or block with a kind, a name and an optional value object.
type Tag struct {
	ID       string         `json:"id,omitempty"`
	FileID   string         `json:"fileId,omitempty"`
	BlockID  string         `json:"blockId,omitempty"`
	Kind     string         `json:"kind,omitempty"`
	Name     string         `json:"name,omitempty"`
	Value    map[string]any `json:"value,omitempty"`
	StartIdx *int           `json:"startIdx,omitempty"`
	EndIdx   *int           `json:"endIdx,omitempty"`
}

// PluginInstance is a configured, invocable copy of a plugin in a workspace.
type PluginInstance struct {
	ID              string         `json:"id"`
	Handle          string         `json:"handle"`
	PluginID        string         `json:"pluginId,omitempty"`
	PluginVersionID string         `json:"pluginVersionId,omitempty"`
	WorkspaceID     string         `json:"workspaceId,omitempty"`
	Config          map[string]any `json:"config,omitempty"`
}

// TaskOutput decodes the task output into out. The engine may encode the
// output either as a JSON value or as a string holding JSON.
func TaskOutput(task *Task, out any) error {
	if task == nil || len(task.Output) == 0 || string(task.Output) == "null" {
		return fmt.Errorf("task output: empty")
	}
	raw := []byte(task.Output)
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = []byte(encoded)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("task output: decode: %w", err)
	}
	return nil
}
