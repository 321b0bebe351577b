package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := run(context.Background(), logger, os.Args); err != nil {
		logger.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *log.Logger, args []string) error {
	configPath := os.Getenv("SHELF_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			return err
		}
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Logging.Level))

	opts := RunnerOpts{Config: config, Logger: logger}
	if _, err := os.Stat(config.Database.Path); err == nil {
		db, err := openDatabase(config)
		if err != nil {
			logger.Warn("feed history and divergence journal disabled", "error", err)
		} else {
			defer db.Close()
			opts.DB = db
		}
	}

	runner := NewRunner(opts)
	runner.Hydrate(ctx)

	app := &cli.Command{
		Name:     "shelf",
		Usage:    "Follow people, search the catalog and browse recommendations for movies, shows and books",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	return app.Run(ctx, args)
}
