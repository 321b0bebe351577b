// package tasks implements the search, relationship and discovery engines over the backend and catalog clients.
//
// Each engine writes into the shared store; long operations emit progress updates via channels
// for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/services"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/store"
)

// Engine bundles the three engines around one store.
type Engine struct {
	Store         *store.Store
	Search        *SearchAggregator
	Relationships *RelationshipManager
	Feed          *DiscoveryFeedController
}

// EngineOpts carries the optional persistence hooks and the logger shared by all engines.
type EngineOpts struct {
	Username string
	History  FeedHistory
	Journal  DivergenceJournal
	Logger   *log.Logger
}

// NewEngine wires the engines from config.
func NewEngine(cfg *shared.Config, catalog services.Catalog, backend services.Backend, opts EngineOpts) *Engine {
	st := store.New(store.WithDiscardStale(cfg.Search.DiscardStale))

	return &Engine{
		Store: st,
		Search: NewSearchAggregator(catalog, backend, st, SearchOpts{
			MaxPages:      cfg.Catalog.MaxPages,
			TrendingPages: cfg.Catalog.TrendingPages,
			RateLimit:     cfg.Catalog.RateLimit,
			MinQuery:      cfg.Search.MinQuery,
			Logger:        opts.Logger,
		}),
		Relationships: NewRelationshipManager(backend, st, RelationshipOpts{
			Compensate: cfg.Relationships.Compensate,
			Journal:    opts.Journal,
			Logger:     opts.Logger,
		}),
		Feed: NewDiscoveryFeedController(backend, st, FeedOpts{
			Username: opts.Username,
			History:  opts.History,
			Logger:   opts.Logger,
		}),
	}
}
