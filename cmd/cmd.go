// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/shelf/internal/tasks"
	"github.com/urfave/cli/v3"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: txt, json, csv or markdown",
		Value:   "txt",
	}
}

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "Acting username (defaults to backend.username)",
	}
}

func kindFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "kind",
		Aliases: []string{"k"},
		Usage:   "Media kind: movie, tv or book",
		Value:   "movie",
	}
}

func genreFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "genre",
		Aliases: []string{"g"},
		Usage:   "Genre filter, repeatable",
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml if missing, initialize database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// userCommand handles profile reads
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "User profile operations",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show followers, following and blocked users",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags:  []cli.Flag{userFlag(), formatFlag()},
				Action: r.UserShow,
			},
		},
	}
}

func relationshipCommand(r *Runner, op tasks.Operation, usage string) *cli.Command {
	return &cli.Command{
		Name:  string(op),
		Usage: usage,
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "target"},
		},
		Flags:  []cli.Flag{userFlag(), formatFlag()},
		Action: r.Relationship(op),
	}
}

func followCommand(r *Runner) *cli.Command {
	return relationshipCommand(r, tasks.OpFollow, "Follow a user")
}

func unfollowCommand(r *Runner) *cli.Command {
	return relationshipCommand(r, tasks.OpUnfollow, "Unfollow a user")
}

func blockCommand(r *Runner) *cli.Command {
	return relationshipCommand(r, tasks.OpBlock, "Block a user, removing follows in both directions")
}

func unblockCommand(r *Runner) *cli.Command {
	return relationshipCommand(r, tasks.OpUnblock, "Unblock a user")
}

// searchCommand runs a bulk catalog search
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the catalog across discover pages",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			kindFlag(),
			formatFlag(),
			&cli.StringFlag{
				Name:    "sort",
				Aliases: []string{"s"},
				Usage:   "Sort order: title, release_date or popularity",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Log page progress",
			},
		},
		Action: r.Search,
	}
}

// suggestCommand requests type-ahead suggestions from the backend
func suggestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "suggest",
		Usage: "Show type-ahead suggestions for a partial query",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags:  []cli.Flag{kindFlag(), formatFlag()},
		Action: r.Suggest,
	}
}

// trendingCommand lists trending catalog items
func trendingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "trending",
		Usage: "List today's trending titles",
		Flags: []cli.Flag{
			kindFlag(),
			formatFlag(),
			&cli.StringFlag{
				Name:    "sort",
				Aliases: []string{"s"},
				Usage:   "Sort order: title, release_date or popularity",
			},
		},
		Action: r.Trending,
	}
}

// discoverCommand handles the recommendation feed
func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "discover",
		Aliases: []string{"feed"},
		Usage:   "Recommendation feed operations",
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Load the feed when any list is empty",
				Flags:  []cli.Flag{genreFlag(), formatFlag()},
				Action: r.DiscoverLoad,
			},
			{
				Name:   "refresh",
				Usage:  "Replace the feed, excluding every title currently held",
				Flags:  []cli.Flag{genreFlag(), formatFlag()},
				Action: r.DiscoverRefresh,
			},
			{
				Name:  "history",
				Usage: "List saved feed snapshots",
				Flags: []cli.Flag{
					userFlag(),
					formatFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of snapshots",
						Value: 10,
					},
				},
				Action: r.DiscoverHistory,
			},
			{
				Name:  "prune",
				Usage: "Delete old feed snapshots",
				Flags: []cli.Flag{
					userFlag(),
					&cli.IntFlag{
						Name:  "keep",
						Usage: "Number of recent snapshots to keep",
						Value: 5,
					},
				},
				Action: r.DiscoverPrune,
			},
		},
	}
}

// logCommand lists a user's logged entries
func logCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "log",
		Usage:  "List logged movies, shows or books",
		Flags:  []cli.Flag{userFlag(), kindFlag(), formatFlag()},
		Action: r.Log,
	}
}

// divergencesCommand inspects the partial-update journal
func divergencesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "divergences",
		Aliases: []string{"div"},
		Usage:   "Relationship updates that reached only one record",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List unresolved divergences",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.DivergencesList,
			},
			{
				Name:  "resolve",
				Usage: "Mark a divergence as resolved",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.DivergencesResolve,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive search and discovery.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive type-ahead search and discovery feed",
		Flags:   []cli.Flag{genreFlag()},
		Action:  r.TUI,
	}
}
