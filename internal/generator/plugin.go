package generator

import (
	"context"
	"log/slog"
	"strings"

	"audiodesc/internal/artifact"
	"audiodesc/internal/config"
	"audiodesc/internal/logging"
	"audiodesc/internal/platform"
	"audiodesc/internal/services"
)

// Engine is the subset of the platform client the plugin backend needs.
type Engine interface {
	UsePlugin(ctx context.Context, pluginHandle, instanceHandle string, config map[string]any) (*platform.PluginInstance, error)
	CreateFile(ctx context.Context, mimeType string, blocks []platform.Block, tags []platform.Tag) (*platform.File, error)
	TagFile(ctx context.Context, instance *platform.PluginInstance, fileID string) (*platform.Task, error)
	WaitTask(ctx context.Context, task *platform.Task, opts platform.WaitOptions) (*platform.Task, error)
	GetFile(ctx context.Context, id string) (*platform.File, error)
}

// PluginOptions configures the plugin backend.
type PluginOptions struct {
	PluginHandle   string
	InstanceHandle string
	InstanceConfig map[string]any
	PromptTemplate string
	Wait           platform.WaitOptions
}

// Plugin generates text with the engine's prompt generation plugin: the
// prompt becomes the single block of a new text file, the file is tagged by
// the plugin instance, and the result is read back from the first tag.
type Plugin struct {
	engine   Engine
	instance *platform.PluginInstance
	template string
	wait     platform.WaitOptions
	logger   *slog.Logger
}

// NewPlugin resolves the generation plugin instance and returns the backend.
func NewPlugin(ctx context.Context, engine Engine, opts PluginOptions, logger *slog.Logger) (*Plugin, error) {
	if engine == nil {
		return nil, services.Wrap(services.ErrConfiguration, "generate", "init plugin", "engine client required", nil)
	}
	if err := config.ValidatePromptTemplate(opts.PromptTemplate); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "generate", "init plugin", "prompt template", err)
	}
	instance, err := engine.UsePlugin(ctx, opts.PluginHandle, opts.InstanceHandle, opts.InstanceConfig)
	if err != nil {
		return nil, services.Wrap(platform.ErrorMarker(err), "generate", "use plugin "+opts.PluginHandle, "", err)
	}
	return &Plugin{
		engine:   engine,
		instance: instance,
		template: opts.PromptTemplate,
		wait:     opts.Wait,
		logger:   logging.NewComponentLogger(logger, "generator"),
	}, nil
}

// Backend implements Generator.
func (p *Plugin) Backend() string { return config.BackendPlugin }

// Generate implements Generator.
func (p *Plugin) Generate(ctx context.Context, summary string) (string, error) {
	summary, err := validateSummary(summary)
	if err != nil {
		return "", err
	}
	prompt := BuildPrompt(p.template, summary)
	logger := logging.WithContext(ctx, p.logger)

	file, err := p.engine.CreateFile(ctx, "text/plain", []platform.Block{{Text: prompt}}, nil)
	if err != nil {
		return "", services.Wrap(platform.ErrorMarker(err), "generate", "create prompt file", "", err)
	}
	task, err := p.engine.TagFile(ctx, p.instance, file.ID)
	if err != nil {
		return "", services.Wrap(platform.ErrorMarker(err), "generate", "tag prompt file", "", err)
	}
	logger.Debug("generation submitted",
		logging.String(logging.FieldFileID, file.ID),
		logging.String(logging.FieldTaskID, task.TaskID),
	)
	if _, err := p.engine.WaitTask(ctx, task, p.wait); err != nil {
		return "", services.Wrap(platform.ErrorMarker(err), "generate", "wait for generation", "", err)
	}

	tagged, err := p.engine.GetFile(ctx, file.ID)
	if err != nil {
		return "", services.Wrap(platform.ErrorMarker(err), "generate", "fetch generated file", "", err)
	}
	text, err := artifact.GeneratedText(tagged)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", emptyResult(config.BackendPlugin)
	}
	logger.Info("generation complete",
		logging.String(logging.FieldFileID, file.ID),
		logging.Int("chars", len(text)),
	)
	return text, nil
}
