package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/toparr/internal/formatter"
	"github.com/desertthunder/toparr/internal/repositories"
	"github.com/desertthunder/toparr/internal/shared"
	"github.com/urfave/cli/v3"
)

// openRepository opens the history database for the read commands.
func (r *Runner) openRepository(configPath string) (*repositories.RunRepository, func(), error) {
	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if config.Database.Path == "" {
		return nil, nil, fmt.Errorf("%w: database.path is required", shared.ErrInvalidConfig)
	}

	db, err := shared.OpenHistory(config.Database)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewRunRepository(db), func() { db.Close() }, nil
}

// HistoryList prints recent runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.openRepository(cmd.String("config"))
	if err != nil {
		return err
	}
	defer closeDB()

	runs, err := repo.List(ctx, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	return r.writeBytes(formatter.RunsToText(runs))
}

// HistoryShow prints one run with its decisions, selected by run id or by the TMDb id it added.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.String("id")
	tmdbID := cmd.Int("tmdb-id")
	if id == "" && tmdbID == 0 {
		return fmt.Errorf("%w: --id or --tmdb-id", shared.ErrMissingArgument)
	}
	if id != "" && tmdbID != 0 {
		return fmt.Errorf("%w: cannot specify both --id and --tmdb-id", shared.ErrInvalidArgument)
	}

	repo, closeDB, err := r.openRepository(cmd.String("config"))
	if err != nil {
		return err
	}
	defer closeDB()

	if tmdbID != 0 {
		if id, err = repo.LastAdded(ctx, int64(tmdbID)); err != nil {
			return fmt.Errorf("no run added TMDb id %d: %w", tmdbID, err)
		}
	}

	run, err := repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return r.renderRun(run, cmd.String("format"))
}
