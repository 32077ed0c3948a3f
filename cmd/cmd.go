// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/mixtape/internal/models"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: txt, json, csv or markdown",
		Value:   "txt",
	}
}

// featureFlags has one target flag per audio feature, e.g. --danceability 70 or --tempo 120.
func featureFlags() []cli.Flag {
	flags := make([]cli.Flag, 0, len(models.AllFeatures))
	for _, f := range models.AllFeatures {
		usage := "Target " + f.String() + " (0-100)"
		if !f.Normalized() {
			usage = "Target " + f.String() + " in BPM"
		}
		flags = append(flags, &cli.FloatFlag{Name: f.String(), Usage: usage})
	}
	return flags
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the template",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recent database migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles the Spotify login stored in the config file
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify in the browser and save the refresh token",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the saved login and check it against Spotify",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget the saved refresh token",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogout,
			},
		},
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search Spotify for tracks to use as seeds",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			configFlag(),
			formatFlag(),
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Index of the first result",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results (0 uses catalog.page_size)",
			},
		},
		Action: r.Search,
	}
}

func recommendCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		configFlag(),
		formatFlag(),
		&cli.StringSliceFlag{
			Name:    "seed",
			Aliases: []string{"s"},
			Usage:   "Seed track id (repeat up to 5 times)",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Number of recommendations (0 uses catalog.recommendation_limit)",
		},
	}

	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"rec"},
		Usage:   "Get previewable recommendations for seed tracks and mood targets",
		Flags:   append(flags, featureFlags()...),
		Action:  r.Recommend,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"ls"},
		Usage:   "List mixtapes created with this application, newest first",
		Flags: []cli.Flag{
			configFlag(),
			formatFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Page size (0 uses catalog.page_size)",
			},
			&cli.StringFlag{
				Name:  "cursor",
				Usage: "Continue after this mixtape id",
			},
			&cli.BoolFlag{
				Name:  "mine",
				Usage: "Only show mixtapes created by the logged in user",
			},
		},
		Action: r.Playlists,
	}
}

func createCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:     "name",
			Aliases:  []string{"n"},
			Usage:    "Playlist name",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "description",
			Usage: "Playlist description",
			Value: "Made with mixtape",
		},
		&cli.BoolFlag{
			Name:  "public",
			Usage: "Make the playlist public",
		},
		&cli.StringSliceFlag{
			Name:  "uri",
			Usage: "Track uri to add, in order (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:    "seed",
			Aliases: []string{"s"},
			Usage:   "Fill the playlist from recommendations for this seed track id (repeatable)",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Number of recommendations when using --seed",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
	}

	return &cli.Command{
		Name:   "create",
		Usage:  "Create a Spotify playlist from track uris or from recommendations",
		Flags:  append(flags, featureFlags()...),
		Action: r.Create,
	}
}

// curateCommand returns the top-level TUI command for interactive curation.
func curateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "curate",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive mixtape builder",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI runs",
				Value: "./tmp/mixtape-tui.log",
			},
		},
		Action: r.Curate,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP JSON API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "secure",
				Usage: "Mark cookies Secure (set when served over HTTPS)",
			},
		},
		Action: r.Serve,
	}
}
