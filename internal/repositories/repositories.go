// package repositories provides SQLite persistence for feed history and the divergence journal.
package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/goccy/go-json"
)

// encodeItems serializes a media list for a TEXT column. A nil list is stored as [].
func encodeItems(items []models.MediaItem) (string, error) {
	if items == nil {
		items = []models.MediaItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode items: %w", err)
	}
	return string(data), nil
}

func decodeItems(raw string) ([]models.MediaItem, error) {
	items := []models.MediaItem{}
	if raw == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	return items, nil
}

// joinGenres stores genres the way they are sent to the backend.
func joinGenres(genres []string) string {
	return strings.Join(genres, ",")
}

func splitGenres(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}

// affected returns an error when a write touched no rows.
func affected(result sql.Result, what, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s not found: %s", what, id)
	}
	return nil
}
