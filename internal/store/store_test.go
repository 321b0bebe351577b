package store

import (
	"sync"
	"testing"

	"github.com/desertthunder/shelf/internal/models"
	tu "github.com/desertthunder/shelf/internal/testing"
)

func TestStore(t *testing.T) {
	t.Run("New Is Empty", func(t *testing.T) {
		s := New()
		if got := s.Suggestions(); got == nil || len(got) != 0 {
			t.Errorf("expected empty suggestions, got %v", got)
		}
		if got := s.Results(); got == nil || len(got) != 0 {
			t.Errorf("expected empty results, got %v", got)
		}
		if !s.Recommendations().AnyEmpty() {
			t.Error("expected empty recommendations")
		}
	})

	t.Run("Recommendations Are Copied", func(t *testing.T) {
		s := New()
		set := models.RecommendationSet{Movies: tu.Titled(models.KindMovie, "A")}
		s.SetRecommendations(set)

		set.Movies[0].Title = "mutated"
		if got := s.Recommendations().Movies[0].Title; got != "A" {
			t.Errorf("expected store to hold its own copy, got %q", got)
		}

		read := s.Recommendations()
		read.Movies[0].Title = "mutated"
		if got := s.Recommendations().Movies[0].Title; got != "A" {
			t.Errorf("expected reads to be copies, got %q", got)
		}
	})

	t.Run("Suggestions", func(t *testing.T) {
		t.Run("Discard Stale", func(t *testing.T) {
			s := New()
			bat := s.BeginSuggest()
			ba := s.BeginSuggest()

			if !s.ApplySuggestions(ba, tu.Titled(models.KindMovie, "Batman", "Bambi")) {
				t.Fatal("expected newer response to apply")
			}
			if s.ApplySuggestions(bat, tu.Titled(models.KindMovie, "Batman")) {
				t.Fatal("expected older response to be discarded")
			}
			if got := models.Titles(s.Suggestions()); len(got) != 2 || got[1] != "Bambi" {
				t.Errorf("expected results for the newer query, got %v", got)
			}
		})

		t.Run("Last Response Wins", func(t *testing.T) {
			s := New(WithDiscardStale(false))
			bat := s.BeginSuggest()
			ba := s.BeginSuggest()

			s.ApplySuggestions(ba, tu.Titled(models.KindMovie, "Batman", "Bambi"))
			if !s.ApplySuggestions(bat, tu.Titled(models.KindMovie, "Batman")) {
				t.Fatal("expected late response to apply")
			}
			if got := models.Titles(s.Suggestions()); len(got) != 1 || got[0] != "Batman" {
				t.Errorf("expected late response to win, got %v", got)
			}
		})

		t.Run("Nil Clears", func(t *testing.T) {
			s := New()
			s.ApplySuggestions(s.BeginSuggest(), tu.Titled(models.KindMovie, "A"))
			s.ApplySuggestions(s.BeginSuggest(), nil)
			if got := s.Suggestions(); got == nil || len(got) != 0 {
				t.Errorf("expected empty list, got %v", got)
			}
		})
	})

	t.Run("Results", func(t *testing.T) {
		s := New()
		s.SetResults(tu.Titled(models.KindMovie, "B", "A"))
		s.UpdateResults(func(items []models.MediaItem) []models.MediaItem {
			items[0], items[1] = items[1], items[0]
			return items
		})
		if got := models.Titles(s.Results()); got[0] != "A" || got[1] != "B" {
			t.Errorf("expected update to apply, got %v", got)
		}
	})

	t.Run("Users", func(t *testing.T) {
		t.Run("Stale Reload Dropped", func(t *testing.T) {
			s := New()
			reload := s.BeginUser()
			follow := s.BeginUser()

			s.PutUser(follow, models.UserRef{Username: "alice", Following: []string{"bob"}})
			if s.PutUser(reload, models.UserRef{Username: "alice"}) {
				t.Fatal("expected stale reload to be dropped")
			}

			alice, ok := s.User("alice")
			if !ok || !alice.IsFollowing("bob") {
				t.Errorf("expected follow to survive, got %+v", alice)
			}
		})

		t.Run("Tokens Are Per User", func(t *testing.T) {
			s := New()
			first := s.BeginUser()
			second := s.BeginUser()

			s.PutUser(second, models.UserRef{Username: "alice"})
			if !s.PutUser(first, models.UserRef{Username: "bob"}) {
				t.Error("expected write to a different record to apply")
			}
		})

		t.Run("Missing", func(t *testing.T) {
			if _, ok := New().User("nobody"); ok {
				t.Error("expected missing user")
			}
		})
	})

	t.Run("Refresh Counter", func(t *testing.T) {
		s := New()
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.BumpRefresh()
			}()
		}
		wg.Wait()
		if got := s.RefreshCount(); got != 10 {
			t.Errorf("expected 10, got %d", got)
		}
	})
}
