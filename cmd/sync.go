package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/toparr/internal/formatter"
	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/repositories"
	"github.com/desertthunder/toparr/internal/services"
	"github.com/desertthunder/toparr/internal/shared"
	"github.com/desertthunder/toparr/internal/tasks"
	"github.com/desertthunder/toparr/internal/ui"
	"github.com/urfave/cli/v3"
)

// Sync aggregates the configured providers and reconciles the result against the library.
//
// The lock is held for the whole run. History is recorded when the database can be opened.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	config, err := shared.LoadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if cmd.IsSet("top") {
		config.Sync.TopN = cmd.Int("top")
	}
	if cmd.IsSet("workers") {
		config.Sync.Workers = cmd.Int("workers")
	}
	if err := config.Validate(); err != nil {
		return err
	}

	format := cmd.String("format")
	switch format {
	case formatter.FormatText, formatter.FormatJSON, formatter.FormatCSV:
	default:
		return fmt.Errorf("%w: --format must be text, json or csv, got %q", shared.ErrInvalidFlag, format)
	}

	logger, closer, err := shared.NewRunLogger(r.console, config.Log.File, config.Log.Level)
	if err != nil {
		return err
	}
	defer closer.Close()

	if config.Sync.LockPath != "" {
		lock := shared.NewRunLock(config.Sync.LockPath)
		if err := lock.Acquire(); err != nil {
			return err
		}
		defer lock.Release()
	}

	history, closeHistory := r.openHistory(config, logger)
	defer closeHistory()

	engine := r.newEngine(ctx, config, logger, cmd.Bool("dry-run"), history)

	prog := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	showProgress := cmd.Bool("progress")
	go func() {
		defer close(done)
		for u := range prog {
			if showProgress {
				logger.Print(ui.Progress(u))
			}
		}
	}()

	run, runErr := engine.Run(ctx, prog)
	close(prog)
	<-done

	if run != nil {
		if err := r.renderRun(run, format); err != nil {
			return err
		}
		r.writeConsole(ui.Summary(run))
	}
	return runErr
}

// newEngine wires the clients for one run.
//
// Metadata and library lookups share one pacer; the library's list and add calls are unpaced
// and guarded by a circuit breaker instead.
func (r *Runner) newEngine(ctx context.Context, config *shared.Config, logger *log.Logger, dryRun bool, history tasks.RunRecorder) *tasks.SyncEngine {
	pacer := services.NewPacer(config.Sync.Pacing.Duration)
	metadata := r.metadataClient(ctx, config, pacer)
	radarr := r.libraryClient(config, pacer)
	library := services.NewBreakerLibrary(radarr, services.BreakerOpts{
		Name:   radarr.Name(),
		Logger: shared.WithLogger(logger, "component", "breaker"),
	})

	var lookup services.DetailLookup = radarr
	if config.Library.Lookup == shared.LookupMetadata {
		lookup = metadata
	}

	providers := make([]models.Provider, 0, len(config.Providers))
	for _, p := range config.Providers {
		providers = append(providers, models.Provider{ID: p.ID, Name: p.Name})
	}

	return tasks.NewSyncEngine(metadata, library, lookup, logger, tasks.EngineOpts{
		Providers:           providers,
		Region:              config.Metadata.Region,
		Language:            config.Metadata.Language,
		TopN:                config.Sync.TopN,
		QualityProfile:      config.Library.QualityProfile,
		RootFolder:          config.Library.RootFolder,
		Monitored:           config.Library.Monitored,
		MinimumAvailability: config.Library.MinimumAvailability,
		Workers:             config.Sync.Workers,
		DryRun:              dryRun,
		Now:                 r.now,
		History:             history,
	})
}

// openHistory opens the run history. Failure is logged and the run continues without it.
func (r *Runner) openHistory(config *shared.Config, logger *log.Logger) (tasks.RunRecorder, func()) {
	if config.Database.Path == "" {
		return nil, func() {}
	}
	db, err := shared.OpenHistory(config.Database)
	if err != nil {
		logger.Warn("run history unavailable, continuing without it", "path", config.Database.Path, "error", err)
		return nil, func() {}
	}
	return repositories.NewRunRepository(db), func() { db.Close() }
}

func (r *Runner) renderRun(run *models.RunResult, format string) error {
	data, err := formatter.Render(run, format)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}
