package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Kind is a catalog namespace.
type Kind string

const (
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
	KindBook  Kind = "book"
)

// Kinds lists every supported [Kind] in display order.
var Kinds = []Kind{KindMovie, KindTV, KindBook}

// ParseKind accepts the singular and plural spellings used by the CLI.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return KindMovie, nil
	case "tv", "show", "shows":
		return KindTV, nil
	case "book", "books":
		return KindBook, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", s)
	}
}

func (k Kind) String() string { return string(k) }

// MediaItem is a movie, show or book as returned by the catalog or the backend.
type MediaItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Kind        Kind     `json:"kind,omitempty"`
	PosterURL   string   `json:"poster,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"` // YYYY-MM-DD, empty when unknown
	Popularity  float64  `json:"popularity,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Overview    string   `json:"overview,omitempty"`
}

// Released parses ReleaseDate. ok is false for empty or malformed dates.
func (m MediaItem) Released() (t time.Time, ok bool) {
	if m.ReleaseDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, m.ReleaseDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Page is one page of a paginated catalog resource.
type Page struct {
	Items   []MediaItem
	Page    int
	HasMore bool
}

// Titles returns the title of every item, in order.
func Titles(items []MediaItem) []string {
	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.Title)
	}
	return titles
}

// RecommendationSet is the discovery feed: three independently ordered lists.
type RecommendationSet struct {
	Movies []MediaItem `json:"movies"`
	Shows  []MediaItem `json:"shows"`
	Books  []MediaItem `json:"books"`
}

// AnyEmpty reports whether at least one of the three lists is empty.
func (r RecommendationSet) AnyEmpty() bool {
	return len(r.Movies) == 0 || len(r.Shows) == 0 || len(r.Books) == 0
}

// List returns the list held for kind.
func (r RecommendationSet) List(kind Kind) []MediaItem {
	switch kind {
	case KindMovie:
		return r.Movies
	case KindTV:
		return r.Shows
	case KindBook:
		return r.Books
	default:
		return nil
	}
}

// Clone returns a copy whose slices do not alias r.
func (r RecommendationSet) Clone() RecommendationSet {
	return RecommendationSet{
		Movies: slices.Clone(r.Movies),
		Shows:  slices.Clone(r.Shows),
		Books:  slices.Clone(r.Books),
	}
}

// UserRef is the relationship view of a user profile.
//
// The slices have set semantics: order is not meaningful and duplicates are never written.
type UserRef struct {
	Username  string   `json:"username"`
	Followers []string `json:"followers"`
	Following []string `json:"following"`
	Blocked   []string `json:"blocked"`
}

// Clone returns a deep copy of u.
func (u UserRef) Clone() UserRef {
	return UserRef{
		Username:  u.Username,
		Followers: slices.Clone(u.Followers),
		Following: slices.Clone(u.Following),
		Blocked:   slices.Clone(u.Blocked),
	}
}

// IsFollowing reports whether u follows username.
func (u UserRef) IsFollowing(username string) bool { return slices.Contains(u.Following, username) }

// IsFollowedBy reports whether username follows u.
func (u UserRef) IsFollowedBy(username string) bool { return slices.Contains(u.Followers, username) }

// HasBlocked reports whether u has blocked username.
func (u UserRef) HasBlocked(username string) bool { return slices.Contains(u.Blocked, username) }

// With returns a copy of set with name appended unless already present.
func With(set []string, name string) []string {
	out := slices.Clone(set)
	if out == nil {
		out = []string{}
	}
	if !slices.Contains(out, name) {
		out = append(out, name)
	}
	return out
}

// Without returns a copy of set with every occurrence of name removed.
func Without(set []string, name string) []string {
	out := make([]string, 0, len(set))
	for _, s := range set {
		if s != name {
			out = append(out, s)
		}
	}
	return out
}

// UserPatch is the body of a partial user update.
//
// A nil field is left out of the request; a non-nil empty slice is sent as [] and clears the set.
type UserPatch struct {
	Following      []string
	Followers      []string
	Blocked        []string
	ProfilePicture *string
}

// MarshalJSON implements [json.Marshaler].
func (p UserPatch) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, 4)
	if p.Following != nil {
		body["following"] = p.Following
	}
	if p.Followers != nil {
		body["followers"] = p.Followers
	}
	if p.Blocked != nil {
		body["blocked"] = p.Blocked
	}
	if p.ProfilePicture != nil {
		body["profilePicture"] = *p.ProfilePicture
	}
	return json.Marshal(body)
}

// LogEntry is a rating/watch record from a user's media log.
type LogEntry struct {
	ID        string   `json:"_id"`
	Title     string   `json:"title"`
	Poster    string   `json:"poster,omitempty"`
	WatchDate string   `json:"watchDate,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Divergence records a paired user update where one record was written and the other was not,
// and the written side could not be restored.
type Divergence struct {
	ID          string     `json:"id"`
	Operation   string     `json:"operation"`
	Viewer      string     `json:"viewer"`
	Target      string     `json:"target"`
	AppliedSide string     `json:"applied_side"`
	FailedSide  string     `json:"failed_side"`
	Error       string     `json:"error"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// FeedSnapshot is a recommendation set as it was last shown to a user.
type FeedSnapshot struct {
	ID        string            `json:"id"`
	Username  string            `json:"username"`
	Set       RecommendationSet `json:"set"`
	Genres    []string          `json:"genres"`
	CreatedAt time.Time         `json:"created_at"`
}
