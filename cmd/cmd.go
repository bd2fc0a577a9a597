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

// setupCommand initializes the configuration file and database schema.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config file, database and migrations",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Drop and recreate the schema, destroying all stored episodes",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles the Spotify OAuth2 helper flow.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Spotify OAuth2 helpers",
		Commands: []*cli.Command{
			{
				Name:   "url",
				Usage:  "Print the authorization URL to open in a browser",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthURL,
			},
			{
				Name:  "exchange",
				Usage: "Exchange an authorization code for an access token",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "code",
						Usage:    "Authorization code from the redirect URL",
						Required: true,
					},
				},
				Action: r.AuthExchange,
			},
		},
	}
}

// syncCommand runs one incremental playlist pass.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Pull new episodes from a playlist, categorize and store them",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "playlist-id",
				Usage: "Playlist ID (overrides sync.playlist_id)",
			},
			&cli.BoolFlag{
				Name:  "no-llm",
				Usage: "Skip automatic categorization for this run",
			},
			&cli.BoolFlag{
				Name:  "export",
				Usage: "Export the store after the pass",
			},
		},
		Action: r.Sync,
	}
}

// backfillCommand re-attempts categorization for pending episodes.
func backfillCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "backfill",
		Usage:  "Categorize stored episodes that are still pending",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Backfill,
	}
}

// exportCommand writes stored episodes to a file.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export stored episodes to CSV, JSON or Markdown",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "playlist-id",
				Usage: "Only export episodes from this playlist",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Export format: csv, json or markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path",
			},
		},
		Action: r.Export,
	}
}

// statsCommand prints database statistics.
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show episode and category statistics",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Stats,
	}
}

// resetCategoriesCommand rewrites every episode back to uncategorized.
func resetCategoriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "reset-categories",
		Usage:  "Reset every episode's category without deleting episodes",
		Flags:  []cli.Flag{configFlag()},
		Action: r.ResetCategories,
	}
}
