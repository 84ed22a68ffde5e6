package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/toparr/internal/shared"
	"github.com/urfave/cli/v3"
)

// Process exit statuses.
const (
	exitOK     = 0
	exitFailed = 1
	exitFatal  = 2
	exitLocked = 3
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "toparr",
		Usage:    "Add the most popular movies of your streaming providers to Radarr",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Error("toparr failed", "error", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, shared.ErrLocked):
		return exitLocked
	case errors.Is(err, shared.ErrMissingConfig),
		errors.Is(err, shared.ErrInvalidConfig),
		errors.Is(err, shared.ErrProfileNotFound):
		return exitFatal
	default:
		return exitFailed
	}
}
