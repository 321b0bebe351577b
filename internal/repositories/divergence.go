package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
)

// DivergenceRepository is the journal of paired user updates left half-applied.
type DivergenceRepository struct {
	db *sql.DB
}

// NewDivergenceRepository creates a new [DivergenceRepository] with the given database connection
func NewDivergenceRepository(db *sql.DB) *DivergenceRepository {
	return &DivergenceRepository{db: db}
}

// Record inserts d, generating its ID and timestamp when unset.
func (r *DivergenceRepository) Record(ctx context.Context, d *models.Divergence) error {
	if d.Viewer == "" || d.Target == "" || d.Operation == "" {
		return fmt.Errorf("%w: divergence requires operation, viewer and target", shared.ErrInvalidInput)
	}
	if d.ID == "" {
		d.ID = shared.GenerateID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO divergences (id, operation, viewer, target, applied_side, failed_side, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, d.ID, d.Operation, d.Viewer, d.Target, d.AppliedSide, d.FailedSide, d.Error, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert divergence: %w", err)
	}

	return nil
}

// ListOpen returns unresolved divergences, oldest first.
func (r *DivergenceRepository) ListOpen(ctx context.Context) ([]*models.Divergence, error) {
	query := `
		SELECT id, operation, viewer, target, applied_side, failed_side, error, created_at, resolved_at
		FROM divergences
		WHERE resolved_at IS NULL
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query divergences: %w", err)
	}
	defer rows.Close()

	out := []*models.Divergence{}
	for rows.Next() {
		var (
			d          models.Divergence
			resolvedAt sql.NullTime
		)
		if err := rows.Scan(&d.ID, &d.Operation, &d.Viewer, &d.Target, &d.AppliedSide, &d.FailedSide, &d.Error, &d.CreatedAt, &resolvedAt); err != nil {
			return nil, fmt.Errorf("failed to scan divergence: %w", err)
		}
		if resolvedAt.Valid {
			d.ResolvedAt = &resolvedAt.Time
		}
		out = append(out, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating divergences: %w", err)
	}

	return out, nil
}

// Resolve marks an open divergence as reconciled.
func (r *DivergenceRepository) Resolve(ctx context.Context, id string) error {
	query := `
		UPDATE divergences
		SET resolved_at = ?
		WHERE id = ? AND resolved_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to resolve divergence: %w", err)
	}

	if err := affected(result, "open divergence", id); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotFound, err)
	}
	return nil
}
