package workflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"audiodesc/internal/artifact"
	"audiodesc/internal/generator"
	"audiodesc/internal/logging"
	"audiodesc/internal/platform"
	"audiodesc/internal/services"
)

// Engine is the subset of the platform client the workflows use.
type Engine interface {
	UsePlugin(ctx context.Context, pluginHandle, instanceHandle string, config map[string]any) (*platform.PluginInstance, error)
	ImportFile(ctx context.Context, instance *platform.PluginInstance, url string) (*platform.Task, error)
	Blockify(ctx context.Context, instance *platform.PluginInstance, fileID string) (*platform.Task, error)
	GetTask(ctx context.Context, id string) (*platform.Task, error)
	WaitTask(ctx context.Context, task *platform.Task, opts platform.WaitOptions) (*platform.Task, error)
	GetFile(ctx context.Context, id string) (*platform.File, error)
	QueryFiles(ctx context.Context, tagFilterQuery string) ([]json.RawMessage, error)
}

// Options configures the Service.
type Options struct {
	ImporterHandle    string
	TranscriberHandle string
	// ImportWait bounds the synchronous wait on the import task.
	ImportWait platform.WaitOptions
}

// Service runs the analyze, status, query, and generate operations.
type Service struct {
	engine      Engine
	generator   generator.Generator
	importer    *platform.PluginInstance
	transcriber *platform.PluginInstance
	importWait  platform.WaitOptions
	logger      *slog.Logger
}

// AnalyzeResult is the transcription task handle returned by AnalyzeYouTube.
type AnalyzeResult struct {
	TaskID string
	Status platform.TaskState
}

// StatusResult reports a task state and, once it succeeded, the generated text.
type StatusResult struct {
	TaskID string
	Status platform.TaskState
	File   string
}

// NewService resolves the importer and transcriber plugin instances and
// returns a ready Service.
func NewService(ctx context.Context, engine Engine, gen generator.Generator, opts Options, logger *slog.Logger) (*Service, error) {
	if engine == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init", "engine client required", nil)
	}
	if gen == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "init", "generator required", nil)
	}
	importer, err := engine.UsePlugin(ctx, opts.ImporterHandle, "", nil)
	if err != nil {
		return nil, services.Wrap(platform.ErrorMarker(err), "workflow", "use plugin "+opts.ImporterHandle, "", err)
	}
	transcriber, err := engine.UsePlugin(ctx, opts.TranscriberHandle, "", nil)
	if err != nil {
		return nil, services.Wrap(platform.ErrorMarker(err), "workflow", "use plugin "+opts.TranscriberHandle, "", err)
	}
	svc := &Service{
		engine:      engine,
		generator:   gen,
		importer:    importer,
		transcriber: transcriber,
		importWait:  opts.ImportWait,
		logger:      logging.NewComponentLogger(logger, "workflow"),
	}
	svc.logger.Info("plugin instances ready",
		logging.String("importer", importer.Handle),
		logging.String("transcriber", transcriber.Handle),
		logging.String("generator_backend", gen.Backend()),
	)
	return svc, nil
}

// ValidateVideoURL checks that raw is an absolute http or https URL.
func ValidateVideoURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", services.Wrap(services.ErrValidation, "analyze", "url", "url is required", nil)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "analyze", "url", "invalid url", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", services.Wrap(services.ErrValidation, "analyze", "url", "url must be an absolute http or https URL", nil)
	}
	return raw, nil
}

// AnalyzeYouTube imports the video at rawURL, waits for the import, and
// submits the imported file for transcription. It returns as soon as the
// transcription task exists.
func (s *Service) AnalyzeYouTube(ctx context.Context, rawURL string) (AnalyzeResult, error) {
	videoURL, err := ValidateVideoURL(rawURL)
	if err != nil {
		return AnalyzeResult{}, err
	}
	logger := logging.WithContext(ctx, s.logger)

	importTask, err := s.engine.ImportFile(ctx, s.importer, videoURL)
	if err != nil {
		return AnalyzeResult{}, services.Wrap(platform.ErrorMarker(err), "analyze", "import", "", err)
	}
	logger.Info("import submitted", logging.String(logging.FieldTaskID, importTask.TaskID), logging.String("url", videoURL))

	done, err := s.engine.WaitTask(ctx, importTask, s.importWait)
	if err != nil {
		return AnalyzeResult{}, services.Wrap(platform.ErrorMarker(err), "analyze", "wait for import", "", err)
	}
	var imported platform.File
	if err := platform.TaskOutput(done, &imported); err != nil {
		return AnalyzeResult{}, services.Wrap(services.ErrMalformedArtifact, "analyze", "import output", "", err)
	}
	if strings.TrimSpace(imported.ID) == "" {
		return AnalyzeResult{}, services.Wrap(services.ErrMalformedArtifact, "analyze", "import output", "imported file has no id", nil)
	}

	transcription, err := s.engine.Blockify(ctx, s.transcriber, imported.ID)
	if err != nil {
		return AnalyzeResult{}, services.Wrap(platform.ErrorMarker(err), "analyze", "transcribe", "", err)
	}
	logger.Info("transcription submitted",
		logging.String(logging.FieldFileID, imported.ID),
		logging.String(logging.FieldTaskID, transcription.TaskID),
		logging.String("state", string(transcription.State)),
	)
	return AnalyzeResult{TaskID: transcription.TaskID, Status: transcription.State}, nil
}

// Status reports the task state. Only a succeeded task triggers artifact
// extraction and generation.
func (s *Service) Status(ctx context.Context, taskID string) (StatusResult, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return StatusResult{}, services.Wrap(services.ErrValidation, "status", "task_id", "task_id is required", nil)
	}
	ctx = services.WithTaskID(ctx, taskID)
	logger := logging.WithContext(ctx, s.logger)

	task, err := s.engine.GetTask(ctx, taskID)
	if err != nil {
		return StatusResult{}, services.Wrap(platform.ErrorMarker(err), "status", "get task", "", err)
	}
	result := StatusResult{TaskID: taskID, Status: task.State}
	if task.State != platform.TaskSucceeded {
		logger.Debug("task not succeeded", logging.String("state", string(task.State)))
		return result, nil
	}

	fileID, err := artifact.FileIDFromTaskInput(task.Input)
	if err != nil {
		return StatusResult{}, err
	}
	file, err := s.engine.GetFile(ctx, fileID)
	if err != nil {
		return StatusResult{}, services.Wrap(platform.ErrorMarker(err), "status", "get file", "", err)
	}
	summary, err := artifact.TranscriptSummary(file)
	if err != nil {
		return StatusResult{}, err
	}
	logger.Info("transcript summary extracted", logging.String(logging.FieldFileID, fileID), logging.Int("summary_chars", len(summary)))

	text, err := s.generator.Generate(ctx, summary)
	if err != nil {
		return StatusResult{}, err
	}
	result.File = text
	return result, nil
}

// Query forwards expression to the engine and returns the matching file
// records unmodified.
func (s *Service) Query(ctx context.Context, expression string) ([]json.RawMessage, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, services.Wrap(services.ErrValidation, "query", "query", "query is required", nil)
	}
	files, err := s.engine.QueryFiles(ctx, expression)
	if err != nil {
		return nil, services.Wrap(platform.ErrorMarker(err), "query", "file query", "", err)
	}
	logging.WithContext(ctx, s.logger).Debug("query complete", logging.Int("matches", len(files)))
	return files, nil
}

// Generate runs the generator on a caller supplied summary.
func (s *Service) Generate(ctx context.Context, summary string) (string, error) {
	return s.generator.Generate(ctx, summary)
}
