// Paginated third-party catalog implementation of [Catalog]
//
// Response types follow the TMDB discover/trending list shape.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
	"golang.org/x/oauth2"
)

const (
	defaultCatalogBaseURL = "https://api.themoviedb.org/3"
	catalogImageBaseURL   = "https://image.tmdb.org/t/p/w500"
)

// CatalogResult is one entry of a catalog list page. Movies carry title/release_date, shows name/first_air_date.
type CatalogResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Popularity   float64 `json:"popularity"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   *string `json:"poster_path"`
	Overview     string  `json:"overview"`
	VoteAverage  float64 `json:"vote_average"`
}

// CatalogPage is the raw paginated list response.
type CatalogPage struct {
	Results    *[]CatalogResult `json:"results"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
}

// CatalogService implements [Catalog] over the catalog HTTP API.
type CatalogService struct {
	api *APIService
}

// NewCatalogService creates a catalog client. A non-empty token is attached to every request as a bearer credential.
func NewCatalogService(baseURL, token string, client *http.Client) *CatalogService {
	if baseURL == "" {
		baseURL = defaultCatalogBaseURL
	}
	if client == nil {
		client = &http.Client{}
	}

	if token != "" {
		client = &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
				Base:   client.Transport,
			},
			Timeout: client.Timeout,
		}
	}

	return &CatalogService{api: NewAPIService(baseURL, client)}
}

func catalogPath(feed Feed, kind models.Kind) (string, error) {
	if kind != models.KindMovie && kind != models.KindTV {
		return "", fmt.Errorf("%w: catalog has no %s feed", shared.ErrUnsupportedKind, kind)
	}

	switch feed {
	case FeedDiscover:
		return "/discover/" + kind.String(), nil
	case FeedTrending:
		return "/trending/" + kind.String() + "/day", nil
	default:
		return "", fmt.Errorf("%w: unknown catalog feed %q", shared.ErrInvalidInput, feed)
	}
}

// Page fetches one page of feed for kind.
func (c *CatalogService) Page(ctx context.Context, feed Feed, kind models.Kind, page int) (*models.Page, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1, got %d", shared.ErrInvalidInput, page)
	}

	path, err := catalogPath(feed, kind)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("language", "en-US")
	query.Set("page", strconv.Itoa(page))
	if feed == FeedDiscover {
		query.Set("include_adult", "false")
		query.Set("sort_by", "popularity.desc")
	}

	var raw CatalogPage
	if err := c.api.Do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}

	if raw.Results == nil {
		return nil, fmt.Errorf("%w: %s page %d has no results field", shared.ErrParse, path, page)
	}

	items := make([]models.MediaItem, 0, len(*raw.Results))
	for _, r := range *raw.Results {
		items = append(items, r.toMediaItem(kind))
	}

	return &models.Page{
		Items:   items,
		Page:    raw.Page,
		HasMore: raw.Page < raw.TotalPages,
	}, nil
}

func (r CatalogResult) toMediaItem(kind models.Kind) models.MediaItem {
	item := models.MediaItem{
		ID:          strconv.FormatInt(r.ID, 10),
		Title:       r.Name,
		Kind:        kind,
		ReleaseDate: r.FirstAirDate,
		Popularity:  r.Popularity,
		Overview:    r.Overview,
	}
	if item.Title == "" {
		item.Title = r.Title
	}
	if item.ReleaseDate == "" {
		item.ReleaseDate = r.ReleaseDate
	}
	if r.PosterPath != nil && *r.PosterPath != "" {
		item.PosterURL = catalogImageBaseURL + *r.PosterPath
	}
	if r.VoteAverage > 0 {
		rating := r.VoteAverage
		item.Rating = &rating
	}
	return item
}
