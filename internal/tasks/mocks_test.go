package tasks

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/services"
	"github.com/desertthunder/shelf/internal/shared"
)

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

// mockCatalog serves totalPages pages of generated items unless pageFn is set.
type mockCatalog struct {
	mu         sync.Mutex
	calls      []int
	totalPages int
	perPage    int
	pageFn     func(feed services.Feed, kind models.Kind, page int) (*models.Page, error)
}

func (m *mockCatalog) Page(ctx context.Context, feed services.Feed, kind models.Kind, page int) (*models.Page, error) {
	m.mu.Lock()
	m.calls = append(m.calls, page)
	m.mu.Unlock()

	if m.pageFn != nil {
		return m.pageFn(feed, kind, page)
	}

	items := make([]models.MediaItem, 0, m.perPage)
	for i := 0; i < m.perPage; i++ {
		items = append(items, models.MediaItem{
			ID:         fmt.Sprintf("%d-%d", page, i),
			Title:      fmt.Sprintf("Title %d-%d", page, i),
			Kind:       kind,
			Popularity: float64(page*100 + i),
		})
	}
	return &models.Page{Items: items, Page: page, HasMore: page < m.totalPages}, nil
}

func (m *mockCatalog) Calls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

type patchCall struct {
	Username string
	Patch    models.UserPatch
}

// mockBackend keeps server-side user records and applies patches to them.
type mockBackend struct {
	mu        sync.Mutex
	users     map[string]models.UserRef
	patchErrs map[string][]error // consumed one per PatchUser call
	patches   []patchCall
	userCalls int

	// userHook runs after the record is read and before it is returned.
	userHook func(username string)

	recommendedFn func(q services.RecommendationQuery) (*models.RecommendationSet, error)
	queries       []services.RecommendationQuery

	suggestFn func(kind models.Kind, query string) ([]models.MediaItem, error)
	suggested []string
}

func newMockBackend(users ...models.UserRef) *mockBackend {
	m := &mockBackend{users: make(map[string]models.UserRef), patchErrs: make(map[string][]error)}
	for _, u := range users {
		m.users[u.Username] = u.Clone()
	}
	return m
}

func (m *mockBackend) User(ctx context.Context, username string) (*models.UserRef, error) {
	m.mu.Lock()
	m.userCalls++
	user, ok := m.users[username]
	hook := m.userHook
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: status 404", shared.ErrNetwork)
	}
	if hook != nil {
		hook(username)
	}
	out := user.Clone()
	return &out, nil
}

func (m *mockBackend) PatchUser(ctx context.Context, username string, patch models.UserPatch) (*models.UserRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.patches = append(m.patches, patchCall{Username: username, Patch: patch})
	if queue := m.patchErrs[username]; len(queue) > 0 {
		err := queue[0]
		m.patchErrs[username] = queue[1:]
		if err != nil {
			return nil, err
		}
	}

	user, ok := m.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: status 404", shared.ErrNetwork)
	}
	if patch.Following != nil {
		user.Following = slices.Clone(patch.Following)
	}
	if patch.Followers != nil {
		user.Followers = slices.Clone(patch.Followers)
	}
	if patch.Blocked != nil {
		user.Blocked = slices.Clone(patch.Blocked)
	}
	m.users[username] = user

	out := user.Clone()
	return &out, nil
}

func (m *mockBackend) Recommended(ctx context.Context, q services.RecommendationQuery) (*models.RecommendationSet, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	fn := m.recommendedFn
	m.mu.Unlock()

	if fn == nil {
		return &models.RecommendationSet{}, nil
	}
	return fn(q)
}

func (m *mockBackend) Suggestions(ctx context.Context, kind models.Kind, query string) ([]models.MediaItem, error) {
	m.mu.Lock()
	m.suggested = append(m.suggested, query)
	fn := m.suggestFn
	m.mu.Unlock()

	if fn == nil {
		return []models.MediaItem{}, nil
	}
	return fn(kind, query)
}

func (m *mockBackend) Logs(ctx context.Context, kind models.Kind, username string) ([]models.LogEntry, error) {
	return []models.LogEntry{}, nil
}

func (m *mockBackend) server(username string) models.UserRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[username].Clone()
}

func (m *mockBackend) Patches() []patchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.patches)
}

func (m *mockBackend) Queries() []services.RecommendationQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.queries)
}

func (m *mockBackend) failPatches(username string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patchErrs[username] = errs
}

type mockJournal struct {
	mu      sync.Mutex
	entries []*models.Divergence
	err     error
}

func (j *mockJournal) Record(ctx context.Context, d *models.Divergence) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.entries = append(j.entries, d)
	return nil
}

type mockHistory struct {
	mu    sync.Mutex
	snaps []*models.FeedSnapshot
}

func (h *mockHistory) Save(ctx context.Context, snap *models.FeedSnapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snaps = append(h.snaps, snap)
	return nil
}

func (h *mockHistory) Latest(ctx context.Context, username string) (*models.FeedSnapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.snaps) - 1; i >= 0; i-- {
		if h.snaps[i].Username == username {
			return h.snaps[i], nil
		}
	}
	return nil, fmt.Errorf("%w: feed history for %s", shared.ErrNotFound, username)
}
