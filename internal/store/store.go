// package store holds the client-side state read by the CLI and TUI views
package store

import (
	"slices"
	"sync"

	"github.com/desertthunder/shelf/internal/models"
)

// Token orders writes that race. A zero Token is never issued.
type Token uint64

type userSlot struct {
	user    models.UserRef
	applied Token
}

// Store is the shared client state. Every field is replaced wholesale; readers get copies.
type Store struct {
	mu sync.Mutex

	recommendations models.RecommendationSet

	suggestions    []models.MediaItem
	suggestIssued  Token
	suggestApplied Token
	discardStale   bool

	results []models.MediaItem

	users     map[string]userSlot
	userToken Token

	refreshCount uint64
}

// Option configures a [Store].
type Option func(*Store)

// WithDiscardStale controls whether a suggestion response older than the last applied one is dropped.
// When false the last response to arrive wins.
func WithDiscardStale(discard bool) Option {
	return func(s *Store) { s.discardStale = discard }
}

// New creates an empty store. Stale suggestions are discarded unless overridden.
func New(opts ...Option) *Store {
	s := &Store{
		users:        make(map[string]userSlot),
		discardStale: true,
		suggestions:  []models.MediaItem{},
		results:      []models.MediaItem{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommendations returns a copy of the held recommendation set.
func (s *Store) Recommendations() models.RecommendationSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recommendations.Clone()
}

// SetRecommendations replaces all three lists.
func (s *Store) SetRecommendations(set models.RecommendationSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recommendations = set.Clone()
}

// Suggestions returns a copy of the held suggestion list.
func (s *Store) Suggestions() []models.MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.suggestions)
}

// BeginSuggest issues the token for a suggestion request about to be sent.
func (s *Store) BeginSuggest() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestIssued++
	return s.suggestIssued
}

// ApplySuggestions replaces the suggestion list with items.
//
// It reports false when the write was dropped because a later-issued request already applied.
func (s *Store) ApplySuggestions(tok Token, items []models.MediaItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.discardStale && tok < s.suggestApplied {
		return false
	}
	if tok > s.suggestApplied {
		s.suggestApplied = tok
	}
	if items == nil {
		items = []models.MediaItem{}
	}
	s.suggestions = slices.Clone(items)
	return true
}

// Results returns a copy of the held search results.
func (s *Store) Results() []models.MediaItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.results)
}

// SetResults replaces the held search results.
func (s *Store) SetResults(items []models.MediaItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if items == nil {
		items = []models.MediaItem{}
	}
	s.results = slices.Clone(items)
}

// UpdateResults applies fn to the held results under the lock.
func (s *Store) UpdateResults(fn func([]models.MediaItem) []models.MediaItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := fn(slices.Clone(s.results))
	if out == nil {
		out = []models.MediaItem{}
	}
	s.results = out
}

// User returns a copy of the record held for username.
func (s *Store) User(username string) (models.UserRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.users[username]
	if !ok {
		return models.UserRef{}, false
	}
	return slot.user.Clone(), true
}

// BeginUser issues the token for a profile read or write about to be sent.
func (s *Store) BeginUser() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userToken++
	return s.userToken
}

// PutUser stores user under its username.
//
// The write is dropped, and PutUser reports false, when a request issued later has already written that record.
func (s *Store) PutUser(tok Token, user models.UserRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.users[user.Username]
	if ok && tok < slot.applied {
		return false
	}
	s.users[user.Username] = userSlot{user: user.Clone(), applied: tok}
	return true
}

// BumpRefresh increments the force-refresh counter and returns the new value.
func (s *Store) BumpRefresh() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshCount++
	return s.refreshCount
}

// RefreshCount reports how many relationship mutations have requested a view refresh.
func (s *Store) RefreshCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCount
}
