package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
)

// FeedHistoryRepository persists [models.FeedSnapshot] rows.
type FeedHistoryRepository struct {
	db *sql.DB
}

// NewFeedHistoryRepository creates a new [FeedHistoryRepository] with the given database connection
func NewFeedHistoryRepository(db *sql.DB) *FeedHistoryRepository {
	return &FeedHistoryRepository{db: db}
}

// Save inserts a snapshot, generating its ID and timestamp when unset.
func (r *FeedHistoryRepository) Save(ctx context.Context, snap *models.FeedSnapshot) error {
	if snap.Username == "" {
		return fmt.Errorf("%w: snapshot username is required", shared.ErrInvalidInput)
	}
	if snap.ID == "" {
		snap.ID = shared.GenerateID()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	movies, err := encodeItems(snap.Set.Movies)
	if err != nil {
		return err
	}
	shows, err := encodeItems(snap.Set.Shows)
	if err != nil {
		return err
	}
	books, err := encodeItems(snap.Set.Books)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO feed_history (id, username, movies, shows, books, genres, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query, snap.ID, snap.Username, movies, shows, books, joinGenres(snap.Genres), snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert feed snapshot: %w", err)
	}

	return nil
}

// Latest returns the newest snapshot for username, or [shared.ErrNotFound].
func (r *FeedHistoryRepository) Latest(ctx context.Context, username string) (*models.FeedSnapshot, error) {
	query := `
		SELECT id, username, movies, shows, books, genres, created_at
		FROM feed_history
		WHERE username = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`

	snap, err := scanSnapshot(r.db.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: feed history for %s", shared.ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query feed history: %w", err)
	}

	return snap, nil
}

// List returns up to limit snapshots for username, newest first.
func (r *FeedHistoryRepository) List(ctx context.Context, username string, limit int) ([]*models.FeedSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, username, movies, shows, books, genres, created_at
		FROM feed_history
		WHERE username = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed history: %w", err)
	}
	defer rows.Close()

	snaps := []*models.FeedSnapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed history: %w", err)
	}

	return snaps, nil
}

// Prune deletes all but the newest keep snapshots for username and returns how many were removed.
func (r *FeedHistoryRepository) Prune(ctx context.Context, username string, keep int) (int64, error) {
	query := `
		DELETE FROM feed_history
		WHERE username = ? AND id NOT IN (
			SELECT id FROM feed_history WHERE username = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
		)
	`

	result, err := r.db.ExecContext(ctx, query, username, username, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune feed history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*models.FeedSnapshot, error) {
	var (
		snap                 models.FeedSnapshot
		movies, shows, books string
		genres               string
	)

	if err := row.Scan(&snap.ID, &snap.Username, &movies, &shows, &books, &genres, &snap.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if snap.Set.Movies, err = decodeItems(movies); err != nil {
		return nil, err
	}
	if snap.Set.Shows, err = decodeItems(shows); err != nil {
		return nil, err
	}
	if snap.Set.Books, err = decodeItems(books); err != nil {
		return nil, err
	}
	snap.Genres = splitGenres(genres)

	return &snap, nil
}
