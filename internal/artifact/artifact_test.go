package artifact_test

import (
	"errors"
	"strings"
	"testing"

	"audiodesc/internal/artifact"
	"audiodesc/internal/platform"
	"audiodesc/internal/services"
)

func fileWithTag(tag platform.Tag) *platform.File {
	return &platform.File{ID: "f-1", Blocks: []platform.Block{{ID: "b-1", Tags: []platform.Tag{tag}}}}
}

func TestFileIDFromTaskInput(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{name: "id", input: `{"id":"f-1","pluginInstance":"s2t"}`, want: "f-1"},
		{name: "fileId fallback", input: `{"fileId":"f-2"}`, want: "f-2"},
		{name: "empty", input: "", wantErr: "task.input"},
		{name: "not json", input: "f-1", wantErr: "task.input"},
		{name: "missing", input: `{"other":1}`, wantErr: "task.input.id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := artifact.FileIDFromTaskInput(tc.input)
			if tc.wantErr != "" {
				if !errors.Is(err, services.ErrMalformedArtifact) {
					t.Fatalf("expected malformed artifact, got %v", err)
				}
				if !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("error %q does not name %q", err, tc.wantErr)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %q, %v; want %q", got, err, tc.want)
			}
		})
	}
}

func TestTranscriptSummary(t *testing.T) {
	summary, err := artifact.TranscriptSummary(fileWithTag(platform.Tag{Kind: "summary", Name: " a talk about Go "}))
	if err != nil {
		t.Fatalf("TranscriptSummary: %v", err)
	}
	if summary != "a talk about Go" {
		t.Fatalf("unexpected summary %q", summary)
	}

	malformed := map[string]*platform.File{
		"blocks[0]":              {ID: "f-1"},
		"blocks[0].tags[0]":      {ID: "f-1", Blocks: []platform.Block{{ID: "b-1"}}},
		"blocks[0].tags[0].name": fileWithTag(platform.Tag{Kind: "summary"}),
		"file":                   nil,
	}
	for path, file := range malformed {
		_, err := artifact.TranscriptSummary(file)
		if !errors.Is(err, services.ErrMalformedArtifact) {
			t.Fatalf("%s: expected malformed artifact, got %v", path, err)
		}
		if !strings.Contains(err.Error(), path) {
			t.Fatalf("%s: error %q does not name path", path, err)
		}
	}
}

func TestGeneratedText(t *testing.T) {
	text, err := artifact.GeneratedText(fileWithTag(platform.Tag{Value: map[string]any{"string-value": "Excited to share my latest video!\n"}}))
	if err != nil {
		t.Fatalf("GeneratedText: %v", err)
	}
	if text != "Excited to share my latest video!" {
		t.Fatalf("unexpected text %q", text)
	}

	cases := map[string]platform.Tag{
		"value missing": {Name: "x"},
		"key missing":   {Value: map[string]any{"other": "x"}},
		"not a string":  {Value: map[string]any{"string-value": 42.0}},
		"empty string":  {Value: map[string]any{"string-value": "  "}},
	}
	for name, tag := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := artifact.GeneratedText(fileWithTag(tag))
			if !errors.Is(err, services.ErrMalformedArtifact) {
				t.Fatalf("expected malformed artifact, got %v", err)
			}
			if !strings.Contains(err.Error(), "blocks[0].tags[0].value") {
				t.Fatalf("error %q does not name value path", err)
			}
		})
	}
}
