package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/store"
)

func newTestManager(backend *mockBackend, st *store.Store, opts RelationshipOpts) *RelationshipManager {
	opts.Logger = quietLogger()
	return NewRelationshipManager(backend, st, opts)
}

func alice() models.UserRef { return models.UserRef{Username: "alice"} }
func bob() models.UserRef   { return models.UserRef{Username: "bob"} }

func TestRelationshipManager(t *testing.T) {
	ctx := context.Background()
	errDown := fmt.Errorf("%w: status 503", shared.ErrNetwork)

	t.Run("Follow", func(t *testing.T) {
		t.Run("Is Mutual", func(t *testing.T) {
			backend := newMockBackend(alice(), bob())
			st := store.New()
			m := newTestManager(backend, st, RelationshipOpts{})

			res, err := m.Follow(ctx, "alice", "bob")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if res.Outcome != OutcomeApplied {
				t.Errorf("expected applied, got %s", res.Outcome)
			}

			a, b := backend.server("alice"), backend.server("bob")
			if !a.IsFollowing("bob") || !b.IsFollowedBy("alice") {
				t.Errorf("expected mutual edge on server, got %+v %+v", a, b)
			}

			sa, _ := st.User("alice")
			sb, _ := st.User("bob")
			if !sa.IsFollowing("bob") || !sb.IsFollowedBy("alice") {
				t.Errorf("expected mutual edge in store, got %+v %+v", sa, sb)
			}
			if st.RefreshCount() != 1 {
				t.Errorf("expected refresh counter 1, got %d", st.RefreshCount())
			}
		})

		t.Run("Loads Missing Records", func(t *testing.T) {
			backend := newMockBackend(alice(), bob())
			m := newTestManager(backend, store.New(), RelationshipOpts{})

			if _, err := m.Follow(ctx, "alice", "bob"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if backend.userCalls != 2 {
				t.Errorf("expected 2 profile loads, got %d", backend.userCalls)
			}
		})

		t.Run("Sends Only Follow Sets", func(t *testing.T) {
			backend := newMockBackend(alice(), bob())
			m := newTestManager(backend, store.New(), RelationshipOpts{})

			if _, err := m.Follow(ctx, "alice", "bob"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			for _, call := range backend.Patches() {
				switch call.Username {
				case "alice":
					if call.Patch.Following == nil || call.Patch.Followers != nil || call.Patch.Blocked != nil {
						t.Errorf("unexpected viewer patch %+v", call.Patch)
					}
				case "bob":
					if call.Patch.Followers == nil || call.Patch.Following != nil || call.Patch.Blocked != nil {
						t.Errorf("unexpected target patch %+v", call.Patch)
					}
				}
			}
		})

		t.Run("Rejected While Blocked", func(t *testing.T) {
			a := alice()
			a.Blocked = []string{"bob"}
			backend := newMockBackend(a, bob())
			m := newTestManager(backend, store.New(), RelationshipOpts{})

			_, err := m.Follow(ctx, "alice", "bob")
			if !errors.Is(err, shared.ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			if len(backend.Patches()) != 0 {
				t.Error("expected no writes")
			}
		})

		t.Run("Invalid Input", func(t *testing.T) {
			m := newTestManager(newMockBackend(alice()), store.New(), RelationshipOpts{})

			for _, pair := range [][2]string{{"alice", "alice"}, {"", "bob"}, {"alice", " "}} {
				if _, err := m.Follow(ctx, pair[0], pair[1]); !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("Follow(%q, %q): expected ErrInvalidInput, got %v", pair[0], pair[1], err)
				}
			}
		})
	})

	t.Run("Unfollow", func(t *testing.T) {
		a, b := alice(), bob()
		a.Following = []string{"bob", "carol"}
		b.Followers = []string{"alice"}
		backend := newMockBackend(a, b)
		m := newTestManager(backend, store.New(), RelationshipOpts{})

		if _, err := m.Unfollow(ctx, "alice", "bob"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := backend.server("alice").Following; !slices.Equal(got, []string{"carol"}) {
			t.Errorf("expected [carol], got %v", got)
		}
		if got := backend.server("bob").Followers; len(got) != 0 {
			t.Errorf("expected no followers, got %v", got)
		}
	})

	t.Run("Block Then Unblock Does Not Restore Follows", func(t *testing.T) {
		a, b := alice(), bob()
		a.Following, a.Followers = []string{"bob"}, []string{"bob"}
		b.Following, b.Followers = []string{"alice"}, []string{"alice"}
		backend := newMockBackend(a, b)
		m := newTestManager(backend, store.New(), RelationshipOpts{})

		if _, err := m.Block(ctx, "alice", "bob"); err != nil {
			t.Fatalf("block: expected no error, got %v", err)
		}

		sa, sb := backend.server("alice"), backend.server("bob")
		if !sa.HasBlocked("bob") {
			t.Error("expected alice to have blocked bob")
		}
		if sa.IsFollowing("bob") || sa.IsFollowedBy("bob") || sb.IsFollowing("alice") || sb.IsFollowedBy("alice") {
			t.Errorf("expected no follow edges after block, got %+v %+v", sa, sb)
		}

		before := len(backend.Patches())
		res, err := m.Unblock(ctx, "alice", "bob")
		if err != nil {
			t.Fatalf("unblock: expected no error, got %v", err)
		}
		if res.Outcome != OutcomeApplied {
			t.Errorf("expected applied, got %s", res.Outcome)
		}

		calls := backend.Patches()[before:]
		if len(calls) != 1 || calls[0].Username != "alice" {
			t.Fatalf("expected a single viewer write, got %+v", calls)
		}
		if calls[0].Patch.Following != nil || calls[0].Patch.Followers != nil {
			t.Errorf("expected unblock to write only blocked, got %+v", calls[0].Patch)
		}

		sa, sb = backend.server("alice"), backend.server("bob")
		if sa.HasBlocked("bob") {
			t.Error("expected bob unblocked")
		}
		if sa.IsFollowing("bob") || sb.IsFollowing("alice") {
			t.Error("expected follows to stay removed")
		}
	})

	t.Run("Both Writes Fail", func(t *testing.T) {
		backend := newMockBackend(alice(), bob())
		backend.failPatches("alice", errDown)
		backend.failPatches("bob", errDown)
		st := store.New()
		m := newTestManager(backend, st, RelationshipOpts{Compensate: true})

		res, err := m.Follow(ctx, "alice", "bob")
		if !errors.Is(err, shared.ErrMutationFailed) {
			t.Fatalf("expected ErrMutationFailed, got %v", err)
		}
		if res.Outcome != OutcomeFailed {
			t.Errorf("expected failed, got %s", res.Outcome)
		}
		if st.RefreshCount() != 0 {
			t.Error("expected no refresh on failure")
		}
	})

	t.Run("Unblock Failure", func(t *testing.T) {
		a := alice()
		a.Blocked = []string{"bob"}
		backend := newMockBackend(a, bob())
		backend.failPatches("alice", errDown)
		m := newTestManager(backend, store.New(), RelationshipOpts{})

		res, err := m.Unblock(ctx, "alice", "bob")
		if !errors.Is(err, shared.ErrMutationFailed) {
			t.Fatalf("expected ErrMutationFailed, got %v", err)
		}
		if res.Outcome != OutcomeFailed {
			t.Errorf("expected failed, got %s", res.Outcome)
		}
	})

	t.Run("Partial", func(t *testing.T) {
		t.Run("Compensates Applied Side", func(t *testing.T) {
			backend := newMockBackend(alice(), bob())
			backend.failPatches("bob", errDown)
			journal := &mockJournal{}
			st := store.New()
			m := newTestManager(backend, st, RelationshipOpts{Compensate: true, Journal: journal})

			res, err := m.Follow(ctx, "alice", "bob")
			if !errors.Is(err, shared.ErrPartialMutation) {
				t.Fatalf("expected ErrPartialMutation, got %v", err)
			}
			if res.Outcome != OutcomePartial || !res.Compensated {
				t.Errorf("expected compensated partial, got %+v", res)
			}
			if backend.server("alice").IsFollowing("bob") {
				t.Error("expected viewer write to be rolled back")
			}
			if sa, _ := st.User("alice"); sa.IsFollowing("bob") {
				t.Error("expected store to hold the restored record")
			}
			if len(journal.entries) != 0 {
				t.Errorf("expected nothing journaled, got %d", len(journal.entries))
			}
		})

		t.Run("Journals Without Compensation", func(t *testing.T) {
			backend := newMockBackend(alice(), bob())
			backend.failPatches("alice", errDown)
			journal := &mockJournal{}
			m := newTestManager(backend, store.New(), RelationshipOpts{Compensate: false, Journal: journal})

			res, err := m.Follow(ctx, "alice", "bob")
			if !errors.Is(err, shared.ErrPartialMutation) {
				t.Fatalf("expected ErrPartialMutation, got %v", err)
			}
			if res.Compensated || !res.Journaled {
				t.Errorf("expected journaled partial, got %+v", res)
			}
			if !backend.server("bob").IsFollowedBy("alice") {
				t.Error("expected target write to remain")
			}

			if len(journal.entries) != 1 {
				t.Fatalf("expected 1 divergence, got %d", len(journal.entries))
			}
			d := journal.entries[0]
			if d.AppliedSide != "target" || d.FailedSide != "viewer" || d.Operation != "follow" || d.ID == "" {
				t.Errorf("unexpected divergence %+v", d)
			}
		})

		t.Run("Journals When Compensation Fails", func(t *testing.T) {
			backend := newMockBackend(alice(), bob())
			backend.failPatches("alice", nil, errDown)
			backend.failPatches("bob", errDown)
			journal := &mockJournal{}
			m := newTestManager(backend, store.New(), RelationshipOpts{Compensate: true, Journal: journal})

			res, err := m.Follow(ctx, "alice", "bob")
			if !errors.Is(err, shared.ErrPartialMutation) {
				t.Fatalf("expected ErrPartialMutation, got %v", err)
			}
			if res.Compensated || res.CompensationErr == nil || !res.Journaled {
				t.Errorf("expected failed compensation to be journaled, got %+v", res)
			}
			if len(journal.entries) != 1 {
				t.Errorf("expected 1 divergence, got %d", len(journal.entries))
			}
		})

		t.Run("Block Restores Every Touched Set", func(t *testing.T) {
			a := alice()
			a.Following = []string{"bob"}
			backend := newMockBackend(a, bob())
			backend.failPatches("bob", errDown)
			m := newTestManager(backend, store.New(), RelationshipOpts{Compensate: true})

			if _, err := m.Block(ctx, "alice", "bob"); !errors.Is(err, shared.ErrPartialMutation) {
				t.Fatalf("expected ErrPartialMutation, got %v", err)
			}

			got := backend.server("alice")
			if !got.IsFollowing("bob") || got.HasBlocked("bob") {
				t.Errorf("expected alice restored, got %+v", got)
			}
			if got.Blocked == nil {
				t.Error("expected blocked to be written back as an empty set")
			}
		})
	})

	t.Run("Follow Survives Stale Reload", func(t *testing.T) {
		backend := newMockBackend(alice(), bob())
		st := store.New()
		m := newTestManager(backend, st, RelationshipOpts{})

		if _, err := m.Load(ctx, "alice"); err != nil {
			t.Fatalf("load: %v", err)
		}
		if _, err := m.Load(ctx, "bob"); err != nil {
			t.Fatalf("load: %v", err)
		}

		started := make(chan struct{})
		release := make(chan struct{})
		backend.mu.Lock()
		backend.userHook = func(username string) {
			if username == "alice" {
				close(started)
				<-release
			}
		}
		backend.mu.Unlock()

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = m.Load(ctx, "alice")
		}()

		<-started
		if _, err := m.Follow(ctx, "alice", "bob"); err != nil {
			t.Fatalf("follow: %v", err)
		}
		close(release)
		<-done

		sa, _ := st.User("alice")
		if !sa.IsFollowing("bob") {
			t.Errorf("expected follow to survive the stale reload, got %+v", sa)
		}
	})

	t.Run("Run Unknown Operation", func(t *testing.T) {
		m := newTestManager(newMockBackend(), store.New(), RelationshipOpts{})
		if _, err := m.Run(ctx, Operation("mute"), "alice", "bob"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Missing User", func(t *testing.T) {
		m := newTestManager(newMockBackend(alice()), store.New(), RelationshipOpts{})
		if _, err := m.Follow(ctx, "alice", "ghost"); !errors.Is(err, shared.ErrMutationFailed) {
			t.Errorf("expected ErrMutationFailed, got %v", err)
		}
	})
}
