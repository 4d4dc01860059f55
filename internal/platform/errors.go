package platform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrWaitTimeout indicates a task did not reach a terminal state within the
// allotted wait.
var ErrWaitTimeout = errors.New("platform: task wait timed out")

// APIError reports an HTTP or envelope level failure returned by the engine.
type APIError struct {
	Operation  string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	parts := []string{fmt.Sprintf("platform %s: http %d", e.Operation, e.StatusCode)}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	return strings.Join(parts, ": ")
}

// NotFound reports whether the engine rejected the call because the target
// does not exist.
func (e *APIError) NotFound() bool {
	return e.StatusCode == 404
}

// TaskError reports a task that finished in the failed state.
type TaskError struct {
	TaskID     string
	State      TaskState
	Message    string
	Suggestion string
}

func (e *TaskError) Error() string {
	msg := fmt.Sprintf("platform task %s %s", e.TaskID, e.State)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Suggestion != "" {
		msg += " (" + e.Suggestion + ")"
	}
	return msg
}

func taskError(task *Task) *TaskError {
	return &TaskError{
		TaskID:     task.TaskID,
		State:      task.State,
		Message:    strings.TrimSpace(task.StatusMessage),
		Suggestion: strings.TrimSpace(task.StatusSuggestion),
	}
}
