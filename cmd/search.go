package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/shelf/internal/formatter"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/tasks"
	"github.com/urfave/cli/v3"
)

// logProgress drains updates into the logger until the returned stop func is called.
func (r *Runner) logProgress(enabled bool) (chan<- tasks.ProgressUpdate, func()) {
	if !enabled {
		return nil, func() {}
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

func (r *Runner) sortOrder(cmd *cli.Command) (tasks.SortOrder, bool, error) {
	raw := cmd.String("sort")
	if raw == "" {
		return "", false, nil
	}
	order, err := tasks.ParseSortOrder(raw)
	return order, err == nil, err
}

// Search runs a bulk catalog search and prints the matches.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	f, err := r.format(cmd)
	if err != nil {
		return err
	}
	kind, err := r.kind(cmd)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	order, sorted, err := r.sortOrder(cmd)
	if err != nil {
		return err
	}

	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	progress, stop := r.logProgress(cmd.Bool("progress"))
	items, err := r.engine.Search.BulkSearch(ctx, progress, query, kind)
	stop()
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if sorted {
		items = r.engine.Search.Sort(order)
	}
	return r.write(formatter.Media(f, fmt.Sprintf("Results for %q", query), items))
}

// Suggest prints backend type-ahead matches for a partial query.
func (r *Runner) Suggest(ctx context.Context, cmd *cli.Command) error {
	f, err := r.format(cmd)
	if err != nil {
		return err
	}
	kind, err := r.kind(cmd)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	query := cmd.StringArg("query")
	if _, err := r.engine.Search.Suggest(ctx, query, kind); err != nil {
		return fmt.Errorf("suggestions failed: %w", err)
	}
	return r.write(formatter.Media(f, "Suggestions", r.engine.Store.Suggestions()))
}

// Trending prints the deduplicated trending list.
func (r *Runner) Trending(ctx context.Context, cmd *cli.Command) error {
	f, err := r.format(cmd)
	if err != nil {
		return err
	}
	kind, err := r.kind(cmd)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	order, sorted, err := r.sortOrder(cmd)
	if err != nil {
		return err
	}

	items, err := r.engine.Search.Trending(ctx, nil, kind)
	if err != nil {
		return fmt.Errorf("trending failed: %w", err)
	}
	if sorted {
		items = r.engine.Search.Sort(order)
	}
	return r.write(formatter.Media(f, "Trending", items))
}

// Log prints the logged entries of the acting user.
func (r *Runner) Log(ctx context.Context, cmd *cli.Command) error {
	f, err := r.format(cmd)
	if err != nil {
		return err
	}
	kind, err := r.kind(cmd)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	user, err := r.viewer(cmd)
	if err != nil {
		return err
	}

	entries, err := r.backend.Logs(ctx, kind, user)
	if err != nil {
		return fmt.Errorf("failed to load log: %w", err)
	}
	return r.write(formatter.Logs(f, fmt.Sprintf("%s's %s log", user, kind), entries))
}
