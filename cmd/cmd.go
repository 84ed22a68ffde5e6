// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// syncCommand runs one aggregation and reconciliation pass
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Add this week's most popular provider titles to the library",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Decide every candidate without adding titles or creating tags",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Number of titles taken from each provider (overrides sync.top_n)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent candidate workers (overrides sync.workers)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format: text, json or csv",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Print a line per decided candidate",
			},
		},
		Action: r.Sync,
	}
}

// providersCommand lists the metadata service's watch providers
func providersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "providers",
		Usage: "List watch providers available in the configured region",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Also write the list as commented [[providers]] entries to this file",
			},
		},
		Action: r.Providers,
	}
}

// profilesCommand lists the library's quality profiles
func profilesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "profiles",
		Usage:  "List the library's quality profiles",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Profiles,
	}
}

// historyCommand reads the run history database
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect recorded sync runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs, newest first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 20,
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show one run with its decisions",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "id",
						Usage: "Run ID",
					},
					&cli.IntFlag{
						Name:  "tmdb-id",
						Usage: "Show the run that last added this TMDb id",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Report format: text, json or csv",
						Value:   "text",
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml template",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}
