package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/toparr/internal/formatter"
	"github.com/desertthunder/toparr/internal/services"
	"github.com/desertthunder/toparr/internal/ui"
	"github.com/urfave/cli/v3"
)

// Providers lists the watch providers available in the configured region.
//
// With --output the list is also written as commented [[providers]] entries.
func (r *Runner) Providers(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	metadata := r.metadataClient(ctx, config, services.NewPacer(config.Sync.Pacing.Duration))
	providers, err := metadata.ListWatchProviders(ctx, config.Metadata.Region, config.Metadata.Language)
	if err != nil {
		return fmt.Errorf("failed to list watch providers: %w", err)
	}
	r.logger.Info("fetched watch providers", "region", config.Metadata.Region, "count", len(providers))

	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteProviderList(providers, config.Metadata.Region, config.Metadata.Language, output)
		if err != nil {
			return err
		}
		r.logger.Info("provider list written", "path", path)
	}

	return r.writePlain("%s\n", ui.ProvidersTable(providers))
}

// Profiles lists the library's quality profiles, in library order.
func (r *Runner) Profiles(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	library := r.libraryClient(config, nil)
	status, err := library.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", library.Name(), err)
	}
	r.logger.Info("connected", "app", status.AppName, "version", status.Version)

	profiles, err := library.ListQualityProfiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list quality profiles: %w", err)
	}

	return r.writePlain("%s\n", ui.ProfilesTable(profiles))
}
