package tasks

import (
	"testing"

	"github.com/desertthunder/shelf/internal/shared"
)

func TestNewEngine(t *testing.T) {
	t.Run("Applies Config", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Catalog.MaxPages = 7
		cfg.Search.MinQuery = 3
		cfg.Relationships.Compensate = false

		e := NewEngine(cfg, &mockCatalog{}, newMockBackend(), EngineOpts{Username: "alice", Logger: quietLogger()})

		if e.Search.opts.MaxPages != 7 || e.Search.opts.MinQuery != 3 {
			t.Errorf("unexpected search options %+v", e.Search.opts)
		}
		if e.Search.opts.TrendingPages != 15 {
			t.Errorf("expected 15 trending pages, got %d", e.Search.opts.TrendingPages)
		}
		if e.Relationships.opts.Compensate {
			t.Error("expected compensation disabled")
		}
		if e.Feed.opts.Username != "alice" {
			t.Errorf("expected feed owner alice, got %q", e.Feed.opts.Username)
		}
		if e.Search.store != e.Store || e.Relationships.store != e.Store || e.Feed.store != e.Store {
			t.Error("expected engines to share one store")
		}
	})
}
