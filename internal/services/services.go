// package services defines typed clients for the backend REST API and the third-party media catalog
package services

import (
	"context"

	"github.com/desertthunder/shelf/internal/models"
)

// Feed selects which paginated catalog resource to read.
type Feed string

const (
	FeedDiscover Feed = "discover"
	FeedTrending Feed = "trending"
)

// Catalog reads pages of the third-party media catalog.
type Catalog interface {
	// Page fetches one page (1-based) of feed for kind.
	Page(ctx context.Context, feed Feed, kind models.Kind, page int) (*models.Page, error)
}

// Backend is the subset of the backend REST API used by the relationship and feed engines.
type Backend interface {
	// User reads the relationship view of a profile.
	User(ctx context.Context, username string) (*models.UserRef, error)

	// PatchUser writes the non-nil fields of patch and returns the updated profile.
	PatchUser(ctx context.Context, username string, patch models.UserPatch) (*models.UserRef, error)

	// Recommended returns a recommendation set filtered by genres, excluding the given titles.
	Recommended(ctx context.Context, q RecommendationQuery) (*models.RecommendationSet, error)

	// Suggestions returns a single page of type-ahead matches for query.
	Suggestions(ctx context.Context, kind models.Kind, query string) ([]models.MediaItem, error)

	// Logs returns the logged entries of username for kind.
	Logs(ctx context.Context, kind models.Kind, username string) ([]models.LogEntry, error)
}

// RecommendationQuery holds the parameters of a recommendation request.
type RecommendationQuery struct {
	Genres         []string
	PreviousMovies []string
	PreviousTV     []string
	PreviousBooks  []string
}
