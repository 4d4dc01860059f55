package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"audiodesc/internal/config"
	"audiodesc/internal/daemon"
	"audiodesc/internal/generator"
	"audiodesc/internal/logging"
	"audiodesc/internal/platform"
	"audiodesc/internal/workflow"
)

func run(ctx context.Context, configPath string) error {
	cfg, resolvedPath, exists, err := config.Load(strings.TrimSpace(configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	levelVar := new(slog.LevelVar)
	logger, err := logging.NewFromConfig(cfg, levelVar)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if !exists {
		logger.Info("config file not found; using defaults and environment", logging.String("path", resolvedPath))
	}

	d, err := buildDaemon(ctx, cfg, logger, levelVar, watchPath(resolvedPath, exists))
	if err != nil {
		logging.ErrorWithContext(logger, "daemon startup failed", "startup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check platform credentials and plugin handles"),
		)
		return err
	}
	if err := d.Run(ctx); err != nil {
		return err
	}
	logger.Info("audiodescd shutting down")
	return nil
}

func buildDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger, levelVar *slog.LevelVar, configPath string) (*daemon.Daemon, error) {
	engine, err := platform.New(platform.Config{
		BaseURL:   cfg.Platform.BaseURL,
		APIKey:    cfg.Platform.APIKey,
		Workspace: cfg.Platform.Workspace,
		Timeout:   cfg.PlatformTimeout(),
	}, platform.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create platform client: %w", err)
	}

	gen, err := generator.New(ctx, cfg, engine, logger)
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}

	svc, err := workflow.NewService(ctx, engine, gen, workflow.Options{
		ImporterHandle:    cfg.Plugins.Importer,
		TranscriberHandle: cfg.Plugins.Transcriber,
		ImportWait: platform.WaitOptions{
			Timeout:     cfg.ImportTimeout(),
			Interval:    cfg.PollInterval(),
			MaxInterval: cfg.MaxPollInterval(),
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create workflow service: %w", err)
	}

	return daemon.New(cfg, svc, logger, daemon.Options{
		ConfigPath: configPath,
		LevelVar:   levelVar,
	})
}

func watchPath(path string, exists bool) string {
	if !exists {
		return ""
	}
	return path
}
