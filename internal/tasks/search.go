package tasks

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/services"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/store"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"
)

const (
	defaultTrendingPages = 15
	trendingLimit        = 50
	defaultMinQuery      = 2
	defaultRateLimit     = 20.0
	breakerThreshold     = 5
)

// SortOrder selects how held search results are ordered.
type SortOrder string

const (
	SortTitle       SortOrder = "title"
	SortReleaseDate SortOrder = "release_date"
	SortReset       SortOrder = "reset"
)

// ParseSortOrder maps a CLI flag value to a [SortOrder].
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortTitle, "name":
		return SortTitle, nil
	case SortReleaseDate, "date", "released":
		return SortReleaseDate, nil
	case SortReset, "", "popularity":
		return SortReset, nil
	default:
		return "", fmt.Errorf("%w: unknown sort order %q", shared.ErrInvalidInput, s)
	}
}

// SearchOpts contains configuration for a [SearchAggregator].
type SearchOpts struct {
	MaxPages      int     // Catalog pages per bulk search (default and ceiling: [shared.MaxCatalogPages])
	TrendingPages int     // Upper bound on trending pages (default: 15)
	RateLimit     float64 // Catalog requests per second (default: 20)
	MinQuery      int     // Shortest query that reaches the backend (default: 2)
	Logger        *log.Logger
}

// SearchAggregator runs multi-page catalog searches and type-ahead suggestions, writing results into the store.
type SearchAggregator struct {
	catalog services.Catalog
	backend services.Backend
	store   *store.Store
	opts    SearchOpts
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*models.Page]
	logger  *log.Logger
}

// NewSearchAggregator creates a [SearchAggregator]. Zero-valued options fall back to their defaults.
func NewSearchAggregator(catalog services.Catalog, backend services.Backend, st *store.Store, opts SearchOpts) *SearchAggregator {
	if opts.MaxPages <= 0 || opts.MaxPages > shared.MaxCatalogPages {
		opts.MaxPages = shared.MaxCatalogPages
	}
	if opts.TrendingPages <= 0 {
		opts.TrendingPages = defaultTrendingPages
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.MinQuery <= 0 {
		opts.MinQuery = defaultMinQuery
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	logger := shared.WithLogger(opts.Logger, "component", "search")
	breaker := gobreaker.NewCircuitBreaker[*models.Page](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, shared.ErrUnsupportedKind) || errors.Is(err, shared.ErrInvalidInput)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &SearchAggregator{
		catalog: catalog,
		backend: backend,
		store:   st,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		breaker: breaker,
		logger:  logger,
	}
}

// fetchPage waits on the rate limiter and fetches one page through the circuit breaker.
func (s *SearchAggregator) fetchPage(ctx context.Context, feed services.Feed, kind models.Kind, page int) (*models.Page, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	p, err := s.breaker.Execute(func() (*models.Page, error) {
		return s.catalog.Page(ctx, feed, kind, page)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: catalog unavailable: %v", shared.ErrNetwork, err)
	}
	return p, err
}

// BulkSearch fetches exactly MaxPages catalog pages and keeps items whose title contains query, ignoring case.
//
// A title already accumulated, on an earlier page or earlier on the same page, is skipped.
// The result replaces the held search results. On failure the held results are cleared,
// the error is logged, and the (empty) result is returned with it.
func (s *SearchAggregator) BulkSearch(ctx context.Context, progress chan<- ProgressUpdate, query string, kind models.Kind) ([]models.MediaItem, error) {
	needle := strings.ToLower(query)
	results := []models.MediaItem{}
	seen := make(map[string]struct{})
	total := s.opts.MaxPages

	for p := 1; p <= total; p++ {
		page, err := s.fetchPage(ctx, services.FeedDiscover, kind, p)
		if err != nil {
			s.logger.Error("bulk search failed", "query", query, "kind", kind, "page", p, "error", err)
			sendProgress(progress, fetchPageFailedUpdate(p, total, err))
			s.store.SetResults(nil)
			return []models.MediaItem{}, err
		}

		for _, item := range page.Items {
			if !strings.Contains(strings.ToLower(item.Title), needle) {
				continue
			}
			if _, dup := seen[item.Title]; dup {
				continue
			}
			seen[item.Title] = struct{}{}
			results = append(results, item)
		}
		sendProgress(progress, fetchPageUpdate(p, total, kind, len(results)))
	}

	s.logger.Debug("bulk search complete", "query", query, "kind", kind, "pages", total, "results", len(results))
	s.store.SetResults(results)
	return results, nil
}

// Trending fetches up to TrendingPages pages of the trending feed, stopping early at the last page.
//
// Items are deduplicated by ID, ordered by popularity and truncated to 50. The result replaces the held search results.
func (s *SearchAggregator) Trending(ctx context.Context, progress chan<- ProgressUpdate, kind models.Kind) ([]models.MediaItem, error) {
	results := []models.MediaItem{}
	seen := make(map[string]struct{})
	total := s.opts.TrendingPages

	for p := 1; p <= total; p++ {
		sendProgress(progress, fetchTrendingUpdate(p, total, kind))

		page, err := s.fetchPage(ctx, services.FeedTrending, kind, p)
		if err != nil {
			s.logger.Error("trending fetch failed", "kind", kind, "page", p, "error", err)
			s.store.SetResults(nil)
			return []models.MediaItem{}, err
		}

		for _, item := range page.Items {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			results = append(results, item)
		}

		if !page.HasMore {
			break
		}
	}

	SortItems(results, SortReset)
	if len(results) > trendingLimit {
		results = results[:trendingLimit]
	}

	s.store.SetResults(results)
	return results, nil
}

// Suggest replaces the suggestion list with one page of backend matches for query.
//
// Queries shorter than MinQuery clear the list without a request. A response that arrives after a
// later request has already applied is dropped when the store discards stale suggestions.
func (s *SearchAggregator) Suggest(ctx context.Context, query string, kind models.Kind) ([]models.MediaItem, error) {
	tok := s.store.BeginSuggest()

	if utf8.RuneCountInString(query) < s.opts.MinQuery {
		s.store.ApplySuggestions(tok, nil)
		return []models.MediaItem{}, nil
	}

	items, err := s.backend.Suggestions(ctx, kind, query)
	if err != nil {
		s.logger.Warn("suggestions failed", "query", query, "kind", kind, "error", err)
		return nil, err
	}

	if !s.store.ApplySuggestions(tok, items) {
		s.logger.Debug("discarded stale suggestions", "query", query, "token", tok)
	}
	return items, nil
}

// Sort reorders the held search results in place without refetching.
func (s *SearchAggregator) Sort(order SortOrder) []models.MediaItem {
	s.store.UpdateResults(func(items []models.MediaItem) []models.MediaItem {
		SortItems(items, order)
		return items
	})
	return s.store.Results()
}

// SortItems orders items in place. Ties keep their relative order.
//
//   - [SortTitle] uses English collation.
//   - [SortReleaseDate] is newest first; unknown dates sort as earliest.
//   - [SortReset] is most popular first.
func SortItems(items []models.MediaItem, order SortOrder) {
	switch order {
	case SortTitle:
		c := collate.New(language.English, collate.IgnoreCase)
		slices.SortStableFunc(items, func(a, b models.MediaItem) int {
			return c.CompareString(a.Title, b.Title)
		})
	case SortReleaseDate:
		slices.SortStableFunc(items, func(a, b models.MediaItem) int {
			at, aok := a.Released()
			bt, bok := b.Released()
			switch {
			case aok && bok:
				return bt.Compare(at)
			case aok:
				return -1
			case bok:
				return 1
			default:
				return 0
			}
		})
	default:
		slices.SortStableFunc(items, func(a, b models.MediaItem) int {
			return cmp.Compare(b.Popularity, a.Popularity)
		})
	}
}
