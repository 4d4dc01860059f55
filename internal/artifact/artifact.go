// Package artifact validates the fixed-position fields the workflows read from
// engine Files and task payloads.
//
// The transcription and generation plugins place their results on the first
// tag of the first block. Every accessor here checks that shape and reports a
// violation as services.ErrMalformedArtifact naming the missing path.
package artifact

import (
	"encoding/json"
	"fmt"
	"strings"

	"audiodesc/internal/platform"
	"audiodesc/internal/services"
)

// GeneratedTextKey is the tag value key the generation plugin writes to.
const GeneratedTextKey = "string-value"

func malformed(path, detail string) error {
	return services.Wrap(services.ErrMalformedArtifact, "artifact", path, detail, nil)
}

// FileIDFromTaskInput recovers the file identifier recorded in a task's input
// payload. The engine writes "id"; older payloads use "fileId".
func FileIDFromTaskInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", malformed("task.input", "empty")
	}
	var payload struct {
		ID     string `json:"id"`
		FileID string `json:"fileId"`
	}
	if err := json.Unmarshal([]byte(input), &payload); err != nil {
		return "", services.Wrap(services.ErrMalformedArtifact, "artifact", "task.input", "not a JSON object", err)
	}
	if id := strings.TrimSpace(payload.ID); id != "" {
		return id, nil
	}
	if id := strings.TrimSpace(payload.FileID); id != "" {
		return id, nil
	}
	return "", malformed("task.input.id", "missing")
}

// TranscriptSummary returns the summary the transcriber stored as the name of
// the first tag on the first block.
func TranscriptSummary(file *platform.File) (string, error) {
	tag, err := firstBlockTag(file)
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(tag.Name)
	if name == "" {
		return "", malformed("blocks[0].tags[0].name", "empty")
	}
	return name, nil
}

// GeneratedText returns the text the generator stored under the string-value
// key of the first tag on the first block.
func GeneratedText(file *platform.File) (string, error) {
	tag, err := firstBlockTag(file)
	if err != nil {
		return "", err
	}
	path := "blocks[0].tags[0].value." + GeneratedTextKey
	if tag.Value == nil {
		return "", malformed("blocks[0].tags[0].value", "missing")
	}
	raw, ok := tag.Value[GeneratedTextKey]
	if !ok {
		return "", malformed(path, "missing")
	}
	text, ok := raw.(string)
	if !ok {
		return "", malformed(path, fmt.Sprintf("expected string, got %T", raw))
	}
	if strings.TrimSpace(text) == "" {
		return "", malformed(path, "empty")
	}
	return strings.TrimSpace(text), nil
}

func firstBlockTag(file *platform.File) (platform.Tag, error) {
	if file == nil {
		return platform.Tag{}, malformed("file", "missing")
	}
	if len(file.Blocks) == 0 {
		return platform.Tag{}, malformed("blocks[0]", fmt.Sprintf("file %s has no blocks", file.ID))
	}
	if len(file.Blocks[0].Tags) == 0 {
		return platform.Tag{}, malformed("blocks[0].tags[0]", fmt.Sprintf("file %s first block has no tags", file.ID))
	}
	return file.Blocks[0].Tags[0], nil
}
