package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/shelf/internal/shared"
	"github.com/goccy/go-json"
)

// APIService performs JSON requests against a base URL.
type APIService struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance. A nil client falls back to [http.DefaultClient].
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// WithToken returns a copy of a that sends token as a bearer Authorization header.
func (a *APIService) WithToken(token string) *APIService {
	cp := *a
	cp.token = token
	return &cp
}

// apiError is the error body returned by the backend.
type apiError struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// Do sends a request and decodes a 2xx JSON response into result when result is non-nil.
func (a *APIService) Do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", shared.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", shared.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp apiError
		if err := json.Unmarshal(data, &errResp); err == nil {
			if msg := errResp.Error + errResp.Detail; msg != "" {
				return fmt.Errorf("%w: %s %s: status %d: %s", shared.ErrNetwork, method, path, resp.StatusCode, msg)
			}
		}
		return fmt.Errorf("%w: %s %s: status %d", shared.ErrNetwork, method, path, resp.StatusCode)
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%w: %s %s: %v", shared.ErrParse, method, path, err)
	}

	return nil
}
