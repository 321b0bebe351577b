package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/services"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/store"
)

// LoaderState tracks the one-shot initial feed load.
type LoaderState int

const (
	LoaderIdle LoaderState = iota
	LoaderLoading
	LoaderLoaded
	LoaderFailed
)

func (s LoaderState) String() string {
	switch s {
	case LoaderIdle:
		return "idle"
	case LoaderLoading:
		return "loading"
	case LoaderLoaded:
		return "loaded"
	case LoaderFailed:
		return "failed"
	default:
		return ""
	}
}

// FeedHistory persists the recommendation sets shown to a user.
type FeedHistory interface {
	Save(ctx context.Context, snap *models.FeedSnapshot) error
	Latest(ctx context.Context, username string) (*models.FeedSnapshot, error)
}

// FeedOpts contains configuration for a [DiscoveryFeedController].
type FeedOpts struct {
	Username string      // owner of saved snapshots
	History  FeedHistory // optional
	Logger   *log.Logger
}

// DiscoveryFeedController loads and refreshes the recommended-media lists held in the store.
type DiscoveryFeedController struct {
	backend services.Backend
	store   *store.Store
	opts    FeedOpts
	logger  *log.Logger

	mu       sync.Mutex
	state    LoaderState
	inflight atomic.Int32 // refreshes in flight
}

// NewDiscoveryFeedController creates a [DiscoveryFeedController] in the idle state.
func NewDiscoveryFeedController(backend services.Backend, st *store.Store, opts FeedOpts) *DiscoveryFeedController {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &DiscoveryFeedController{
		backend: backend,
		store:   st,
		opts:    opts,
		logger:  shared.WithLogger(opts.Logger, "component", "discover"),
	}
}

// State reports the initial-load state.
func (c *DiscoveryFeedController) State() LoaderState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether at least one refresh is in flight.
func (c *DiscoveryFeedController) Busy() bool {
	return c.inflight.Load() > 0
}

// Hydrate fills the store with the last snapshot saved for the configured user.
// It reports false when there is no history to restore.
func (c *DiscoveryFeedController) Hydrate(ctx context.Context) (bool, error) {
	if c.opts.History == nil || c.opts.Username == "" {
		return false, nil
	}

	snap, err := c.opts.History.Latest(ctx, c.opts.Username)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	c.store.SetRecommendations(snap.Set)
	c.logger.Debug("hydrated feed", "username", c.opts.Username, "snapshot", snap.ID, "at", snap.CreatedAt)
	return true, nil
}

// LoadInitial fetches the feed once, when at least one list is empty.
//
// The load runs from idle or failed. Once loaded, later calls are no-ops even if lists become empty again;
// a call made while a load is in flight returns immediately. It reports whether a load ran and succeeded.
func (c *DiscoveryFeedController) LoadInitial(ctx context.Context, progress chan<- ProgressUpdate, genres []string) (bool, error) {
	if !c.store.Recommendations().AnyEmpty() {
		return false, nil
	}

	c.mu.Lock()
	if c.state == LoaderLoaded || c.state == LoaderLoading {
		c.mu.Unlock()
		return false, nil
	}
	c.state = LoaderLoading
	c.mu.Unlock()

	set, err := c.backend.Recommended(ctx, services.RecommendationQuery{Genres: genres})
	if err != nil {
		c.setState(LoaderFailed)
		c.logger.Error("initial feed load failed", "error", err)
		return false, err
	}

	c.store.SetRecommendations(*set)
	c.setState(LoaderLoaded)
	c.save(ctx, set, genres)
	sendProgress(progress, feedUpdate(LoadFeed, set))
	return true, nil
}

// Refresh replaces all three lists, excluding every title currently held.
//
// On failure the held lists are left unchanged.
func (c *DiscoveryFeedController) Refresh(ctx context.Context, progress chan<- ProgressUpdate, genres []string) error {
	c.inflight.Add(1)
	defer c.inflight.Add(-1)

	held := c.store.Recommendations()
	q := services.RecommendationQuery{
		Genres:         genres,
		PreviousMovies: models.Titles(held.Movies),
		PreviousTV:     models.Titles(held.Shows),
		PreviousBooks:  models.Titles(held.Books),
	}

	set, err := c.backend.Recommended(ctx, q)
	if err != nil {
		c.logger.Error("feed refresh failed", "error", err)
		return err
	}

	c.store.SetRecommendations(*set)
	c.save(ctx, set, genres)
	sendProgress(progress, feedUpdate(RefreshFeed, set))
	return nil
}

func (c *DiscoveryFeedController) setState(s LoaderState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *DiscoveryFeedController) save(ctx context.Context, set *models.RecommendationSet, genres []string) {
	if c.opts.History == nil || c.opts.Username == "" {
		return
	}

	snap := &models.FeedSnapshot{
		ID:        shared.GenerateID(),
		Username:  c.opts.Username,
		Set:       set.Clone(),
		Genres:    genres,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.opts.History.Save(ctx, snap); err != nil {
		c.logger.Warn("failed to save feed history", "error", err)
	}
}
