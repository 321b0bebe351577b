// package testing contains shared testing utilities
package testing

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/shelf/internal/models"
	"github.com/goccy/go-json"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// RecordedRequest is a request captured by [Recorder].
type RecordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   []byte
}

// Recorder is an [http.Handler] that captures every request and replies with a canned JSON body.
type Recorder struct {
	mu       sync.Mutex
	requests []RecordedRequest

	Status  int
	Payload any
}

func (rec *Recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	rec.mu.Lock()
	rec.requests = append(rec.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	status, payload := rec.Status, rec.Payload
	rec.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	WriteJSON(w, status, payload)
}

// Requests returns a copy of the captured requests.
func (rec *Recorder) Requests() []RecordedRequest {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]RecordedRequest, len(rec.requests))
	copy(out, rec.requests)
	return out
}

// NewRecorderServer starts an httptest server backed by a [Recorder] and closes it with the test.
func NewRecorderServer(t *testing.T, payload any) (*httptest.Server, *Recorder) {
	t.Helper()
	rec := &Recorder{Payload: payload}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	return srv, rec
}

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Items builds n media items titled "<prefix> 1".."<prefix> n".
func Items(kind models.Kind, prefix string, n int) []models.MediaItem {
	items := make([]models.MediaItem, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, models.MediaItem{
			ID:         fmt.Sprintf("%s-%d", prefix, i),
			Title:      fmt.Sprintf("%s %d", prefix, i),
			Kind:       kind,
			Popularity: float64(n - i + 1),
		})
	}
	return items
}

// Titled builds one media item per title.
func Titled(kind models.Kind, titles ...string) []models.MediaItem {
	items := make([]models.MediaItem, 0, len(titles))
	for i, title := range titles {
		items = append(items, models.MediaItem{ID: fmt.Sprint(i + 1), Title: title, Kind: kind})
	}
	return items
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
