package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type importFileRequest struct {
	Type           string `json:"type"`
	PluginInstance string `json:"pluginInstance"`
	URL            string `json:"url"`
}

// ImportFile asks an importer instance to fetch url into a new File. The
// returned task's output is the imported File once it succeeds.
func (c *Client) ImportFile(ctx context.Context, instance *PluginInstance, url string) (*Task, error) {
	if instance == nil || instance.Handle == "" {
		return nil, errors.New("platform import file: plugin instance required")
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("platform import file: url required")
	}
	task, err := c.call(ctx, "file/create", importFileRequest{Type: "fileImporter", PluginInstance: instance.Handle, URL: url}, nil)
	if err != nil {
		return nil, err
	}
	if task == nil || task.TaskID == "" {
		return nil, errors.New("platform import file: response missing task handle")
	}
	return task, nil
}

type createFileRequest struct {
	Type     string  `json:"type"`
	MimeType string  `json:"mimeType,omitempty"`
	Blocks   []Block `json:"blocks,omitempty"`
	Tags     []Tag   `json:"tags,omitempty"`
}

// CreateFile stores a new File built from the supplied blocks and tags.
func (c *Client) CreateFile(ctx context.Context, mimeType string, blocks []Block, tags []Tag) (*File, error) {
	req := createFileRequest{Type: "blocks", MimeType: mimeType, Blocks: blocks, Tags: tags}
	file, err := c.fileCall(ctx, "file/create", req)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// GetFile fetches a File including its blocks and tags.
func (c *Client) GetFile(ctx context.Context, id string) (*File, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("platform get file: id required")
	}
	return c.fileCall(ctx, "file/get", map[string]string{"id": id})
}

func (c *Client) fileCall(ctx context.Context, operation string, body any) (*File, error) {
	var data json.RawMessage
	if _, err := c.call(ctx, operation, body, &data); err != nil {
		return nil, err
	}
	file, err := decodeFile(data)
	if err != nil {
		return nil, fmt.Errorf("platform %s: %w", operation, err)
	}
	return file, nil
}

// decodeFile accepts both {"file": {...}} and a bare File object.
func decodeFile(data json.RawMessage) (*File, error) {
	if len(data) == 0 {
		return nil, errors.New("response missing file")
	}
	var wrapper struct {
		File *File `json:"file"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.File != nil {
		return wrapper.File, nil
	}
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode file: %w", err)
	}
	if file.ID == "" {
		return nil, errors.New("response missing file")
	}
	return &file, nil
}

// QueryFiles runs a tag filter query and returns the matching File records
// exactly as the engine produced them.
func (c *Client) QueryFiles(ctx context.Context, tagFilterQuery string) ([]json.RawMessage, error) {
	if strings.TrimSpace(tagFilterQuery) == "" {
		return nil, errors.New("platform query files: query required")
	}
	var result struct {
		Files []json.RawMessage `json:"files"`
	}
	if _, err := c.call(ctx, "file/query", map[string]string{"tagFilterQuery": tagFilterQuery}, &result); err != nil {
		return nil, err
	}
	if result.Files == nil {
		result.Files = []json.RawMessage{}
	}
	return result.Files, nil
}
