// Backend REST implementation of [Backend]
package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/goccy/go-json"
)

const defaultBackendBaseURL = "http://127.0.0.1:5000"

// BackendItem is a MediaItem-shaped object returned by the suggestion and recommendation endpoints.
//
// Field names vary by kind: books use cover_url, catalog passthroughs use poster_path and name.
type BackendItem struct {
	ID          flexID   `json:"id"`
	Title       string   `json:"title"`
	Name        string   `json:"name"`
	ReleaseDate string   `json:"release_date"`
	AirDate     string   `json:"first_air_date"`
	Poster      string   `json:"poster"`
	PosterPath  string   `json:"poster_path"`
	CoverURL    string   `json:"cover_url"`
	Popularity  float64  `json:"popularity"`
	Rating      *float64 `json:"rating"`
	Overview    string   `json:"overview"`
}

// flexID accepts both numeric and string identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %s", data)
	}
	*f = flexID(n.String())
	return nil
}

func (b BackendItem) toMediaItem(kind models.Kind) models.MediaItem {
	item := models.MediaItem{
		ID:          string(b.ID),
		Title:       firstNonEmpty(b.Title, b.Name),
		Kind:        kind,
		PosterURL:   firstNonEmpty(b.Poster, b.PosterPath, b.CoverURL),
		ReleaseDate: firstNonEmpty(b.ReleaseDate, b.AirDate),
		Popularity:  b.Popularity,
		Rating:      b.Rating,
		Overview:    b.Overview,
	}
	if strings.HasPrefix(item.PosterURL, "/") {
		item.PosterURL = catalogImageBaseURL + item.PosterURL
	}
	return item
}

func toMediaItems(items []BackendItem, kind models.Kind) []models.MediaItem {
	out := make([]models.MediaItem, 0, len(items))
	for _, b := range items {
		out = append(out, b.toMediaItem(kind))
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// BackendService implements [Backend] over the backend HTTP API.
type BackendService struct {
	api *APIService
}

// NewBackendService creates a backend client. token, when non-empty, is sent as a bearer credential.
func NewBackendService(baseURL, token string, client *http.Client) *BackendService {
	if baseURL == "" {
		baseURL = defaultBackendBaseURL
	}
	return &BackendService{api: NewAPIService(baseURL, client).WithToken(token)}
}

func validKind(kind models.Kind) error {
	switch kind {
	case models.KindMovie, models.KindTV, models.KindBook:
		return nil
	default:
		return fmt.Errorf("%w: %q", shared.ErrUnsupportedKind, kind)
	}
}

func userPath(username string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", fmt.Errorf("%w: username is required", shared.ErrInvalidInput)
	}
	return "/api/users/" + url.PathEscape(username), nil
}

// User calls GET /api/users/{username}.
func (b *BackendService) User(ctx context.Context, username string) (*models.UserRef, error) {
	path, err := userPath(username)
	if err != nil {
		return nil, err
	}

	var user models.UserRef
	if err := b.api.Do(ctx, http.MethodGet, path, nil, nil, &user); err != nil {
		return nil, err
	}
	if user.Username == "" {
		user.Username = username
	}
	return &user, nil
}

// PatchUser calls PATCH /api/users/{username} with the non-nil fields of patch.
func (b *BackendService) PatchUser(ctx context.Context, username string, patch models.UserPatch) (*models.UserRef, error) {
	path, err := userPath(username)
	if err != nil {
		return nil, err
	}

	var user models.UserRef
	if err := b.api.Do(ctx, http.MethodPatch, path, nil, patch, &user); err != nil {
		return nil, err
	}
	if user.Username == "" {
		user.Username = username
	}
	return &user, nil
}

// Recommended calls GET /api/discover/recommended.
//
// Genres are comma-joined into query. Each previously shown title is sent as its own repeated parameter,
// so titles containing commas survive intact.
func (b *BackendService) Recommended(ctx context.Context, q RecommendationQuery) (*models.RecommendationSet, error) {
	params := url.Values{}
	params.Set("query", strings.Join(q.Genres, ","))
	for _, title := range q.PreviousMovies {
		params.Add("previousMovies", title)
	}
	for _, title := range q.PreviousTV {
		params.Add("previousTv", title)
	}
	for _, title := range q.PreviousBooks {
		params.Add("previousBooks", title)
	}

	var raw struct {
		Movies []BackendItem `json:"movies"`
		Shows  []BackendItem `json:"shows"`
		Books  []BackendItem `json:"books"`
	}
	if err := b.api.Do(ctx, http.MethodGet, "/api/discover/recommended", params, nil, &raw); err != nil {
		return nil, err
	}

	return &models.RecommendationSet{
		Movies: toMediaItems(raw.Movies, models.KindMovie),
		Shows:  toMediaItems(raw.Shows, models.KindTV),
		Books:  toMediaItems(raw.Books, models.KindBook),
	}, nil
}

// Suggestions calls GET /api/{kind}/suggestions.
func (b *BackendService) Suggestions(ctx context.Context, kind models.Kind, query string) ([]models.MediaItem, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}

	var raw struct {
		Suggestions []BackendItem `json:"suggestions"`
	}
	params := url.Values{"query": {query}}
	if err := b.api.Do(ctx, http.MethodGet, "/api/"+kind.String()+"/suggestions", params, nil, &raw); err != nil {
		return nil, err
	}

	return toMediaItems(raw.Suggestions, kind), nil
}

// Logs calls GET /api/{kind}/log.
func (b *BackendService) Logs(ctx context.Context, kind models.Kind, username string) ([]models.LogEntry, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username is required", shared.ErrInvalidInput)
	}

	var entries []models.LogEntry
	params := url.Values{"username": {username}}
	if err := b.api.Do(ctx, http.MethodGet, "/api/"+kind.String()+"/log", params, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
