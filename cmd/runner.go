package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/formatter"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/repositories"
	"github.com/desertthunder/shelf/internal/services"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	backend services.Backend
	catalog services.Catalog
	db      *sql.DB
	history *repositories.FeedHistoryRepository
	journal *repositories.DivergenceRepository
	logger  *log.Logger
	output  io.Writer
	engine  *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Backend and Catalog default to HTTP clients built from Config. A nil DB disables feed history and the divergence journal.
type RunnerOpts struct {
	Config  *shared.Config
	Backend services.Backend
	Catalog services.Catalog
	DB      *sql.DB
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Backend == nil {
		cfg := opts.Config.Backend
		opts.Backend = services.NewBackendService(cfg.BaseURL, cfg.Token, &http.Client{Timeout: cfg.Timeout.Duration})
	}
	if opts.Catalog == nil {
		cfg := opts.Config.Catalog
		opts.Catalog = services.NewCatalogService(cfg.BaseURL, cfg.Token, &http.Client{Timeout: cfg.Timeout.Duration})
	}

	r := &Runner{
		config:  opts.Config,
		backend: opts.Backend,
		catalog: opts.Catalog,
		db:      opts.DB,
		logger:  opts.Logger,
		output:  opts.Output,
	}
	if opts.DB != nil {
		r.history = repositories.NewFeedHistoryRepository(opts.DB)
		r.journal = repositories.NewDivergenceRepository(opts.DB)
	}
	r.engine = r.newEngine()
	return r
}

func (r *Runner) newEngine() *tasks.Engine {
	opts := tasks.EngineOpts{Username: r.config.Backend.Username, Logger: r.logger}
	if r.history != nil {
		opts.History = r.history
	}
	if r.journal != nil {
		opts.Journal = r.journal
	}
	return tasks.NewEngine(r.config, r.catalog, r.backend, opts)
}

// SetLogger replaces the logger and rebuilds the engines so they log through it.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.engine = r.newEngine()
}

// Hydrate restores the last saved feed for the configured user, when history is enabled.
func (r *Runner) Hydrate(ctx context.Context) {
	if r.history == nil {
		return
	}
	ok, err := r.engine.Feed.Hydrate(ctx)
	if err != nil {
		r.logger.Warn("failed to restore feed history", "error", err)
		return
	}
	if ok {
		r.logger.Debug("restored feed from history", "user", r.config.Backend.Username)
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, userCommand, followCommand, unfollowCommand, blockCommand, unblockCommand,
		searchCommand, suggestCommand, trendingCommand, discoverCommand, logCommand, divergencesCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// viewer resolves the acting user from --user, falling back to the configured username.
func (r *Runner) viewer(cmd *cli.Command) (string, error) {
	if u := strings.TrimSpace(cmd.String("user")); u != "" {
		return u, nil
	}
	if u := strings.TrimSpace(r.config.Backend.Username); u != "" {
		return u, nil
	}
	return "", fmt.Errorf("%w: --user or backend.username", shared.ErrMissingArgument)
}

func (r *Runner) format(cmd *cli.Command) (formatter.Format, error) {
	return formatter.ParseFormat(cmd.String("format"))
}

func (r *Runner) kind(cmd *cli.Command) (models.Kind, error) {
	return models.ParseKind(cmd.String("kind"))
}

func (r *Runner) write(data []byte, err error) error {
	return formatter.Write(r.output, data, err)
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

func (r *Runner) requireDB() error {
	if r.db == nil {
		return fmt.Errorf("%w: database not initialized, run 'shelf setup'", shared.ErrMissingConfig)
	}
	return nil
}
