package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/shelf/internal/formatter"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/urfave/cli/v3"
)

// DiscoverLoad fetches the feed when any list is empty and prints it.
func (r *Runner) DiscoverLoad(ctx context.Context, cmd *cli.Command) error {
	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	loaded, err := r.engine.Feed.LoadInitial(ctx, nil, cmd.StringSlice("genre"))
	if err != nil {
		return fmt.Errorf("failed to load feed: %w", err)
	}
	if !loaded {
		r.logger.Info("feed already populated, showing held lists")
	}
	return r.write(formatter.Feed(f, r.engine.Store.Recommendations()))
}

// DiscoverRefresh replaces the feed with titles not currently held.
func (r *Runner) DiscoverRefresh(ctx context.Context, cmd *cli.Command) error {
	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	if err := r.engine.Feed.Refresh(ctx, nil, cmd.StringSlice("genre")); err != nil {
		return fmt.Errorf("failed to refresh feed: %w", err)
	}
	return r.write(formatter.Feed(f, r.engine.Store.Recommendations()))
}

// snapshotView is the summary form of a [models.FeedSnapshot].
type snapshotView struct {
	ID        string   `json:"id"`
	CreatedAt string   `json:"created_at"`
	Genres    []string `json:"genres"`
	Movies    int      `json:"movies"`
	Shows     int      `json:"shows"`
	Books     int      `json:"books"`
}

func newSnapshotView(s *models.FeedSnapshot) snapshotView {
	return snapshotView{
		ID:        s.ID,
		CreatedAt: s.CreatedAt.Format("2006-01-02 15:04:05"),
		Genres:    s.Genres,
		Movies:    len(s.Set.Movies),
		Shows:     len(s.Set.Shows),
		Books:     len(s.Set.Books),
	}
}

// DiscoverHistory lists saved feed snapshots of the configured user, newest first.
func (r *Runner) DiscoverHistory(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}
	f, err := r.format(cmd)
	if err != nil {
		return err
	}
	user, err := r.viewer(cmd)
	if err != nil {
		return err
	}

	snaps, err := r.history.List(ctx, user, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to list feed history: %w", err)
	}

	views := make([]snapshotView, 0, len(snaps))
	for _, s := range snaps {
		views = append(views, newSnapshotView(s))
	}

	if f == formatter.FormatJSON {
		return r.write(formatter.ToJSON(views))
	}

	r.writePlainHeader(fmt.Sprintf("Feed history for %s (%d)", user, len(views)))
	for _, v := range views {
		genres := strings.Join(v.Genres, ", ")
		if genres == "" {
			genres = "all genres"
		}
		r.writePlain("%s  %s  movies=%d shows=%d books=%d  (%s)\n", v.CreatedAt, v.ID, v.Movies, v.Shows, v.Books, genres)
	}
	return nil
}

// DiscoverPrune deletes all but the most recent snapshots of the configured user.
func (r *Runner) DiscoverPrune(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}
	user, err := r.viewer(cmd)
	if err != nil {
		return err
	}

	n, err := r.history.Prune(ctx, user, int(cmd.Int("keep")))
	if err != nil {
		return fmt.Errorf("failed to prune feed history: %w", err)
	}
	return r.writePlain("✓ removed %d snapshots\n", n)
}
