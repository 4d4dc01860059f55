package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type createInstanceRequest struct {
	PluginHandle  string         `json:"pluginHandle"`
	Handle        string         `json:"handle,omitempty"`
	Config        map[string]any `json:"config,omitempty"`
	FetchIfExists bool           `json:"fetchIfExists"`
}

// UsePlugin creates (or fetches, when it already exists) an instance of the
// named plugin. An empty instanceHandle lets the engine pick one.
func (c *Client) UsePlugin(ctx context.Context, pluginHandle, instanceHandle string, config map[string]any) (*PluginInstance, error) {
	pluginHandle = strings.TrimSpace(pluginHandle)
	if pluginHandle == "" {
		return nil, errors.New("platform use plugin: plugin handle required")
	}
	req := createInstanceRequest{
		PluginHandle:  pluginHandle,
		Handle:        strings.TrimSpace(instanceHandle),
		Config:        config,
		FetchIfExists: true,
	}
	var wrapper struct {
		PluginInstance *PluginInstance `json:"pluginInstance"`
	}
	if _, err := c.call(ctx, "plugin/instance/create", req, &wrapper); err != nil {
		return nil, err
	}
	if wrapper.PluginInstance == nil || wrapper.PluginInstance.Handle == "" {
		return nil, fmt.Errorf("platform use plugin %s: response missing plugin instance", pluginHandle)
	}
	return wrapper.PluginInstance, nil
}

type instanceFileRequest struct {
	PluginInstance string `json:"pluginInstance"`
	ID             string `json:"id"`
}

// Blockify submits a file to a blockifier instance (speech to text for
// audio). The returned task's input records the file id.
func (c *Client) Blockify(ctx context.Context, instance *PluginInstance, fileID string) (*Task, error) {
	return c.instanceTask(ctx, "plugin/instance/blockify", instance, fileID)
}

// TagFile submits a file to a tagger or generator instance.
func (c *Client) TagFile(ctx context.Context, instance *PluginInstance, fileID string) (*Task, error) {
	return c.instanceTask(ctx, "plugin/instance/tag", instance, fileID)
}

func (c *Client) instanceTask(ctx context.Context, operation string, instance *PluginInstance, fileID string) (*Task, error) {
	if instance == nil || instance.Handle == "" {
		return nil, fmt.Errorf("platform %s: plugin instance required", operation)
	}
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil, fmt.Errorf("platform %s: file id required", operation)
	}
	task, err := c.call(ctx, operation, instanceFileRequest{PluginInstance: instance.Handle, ID: fileID}, nil)
	if err != nil {
		return nil, err
	}
	if task == nil || task.TaskID == "" {
		return nil, fmt.Errorf("platform %s: response missing task handle", operation)
	}
	return task, nil
}
