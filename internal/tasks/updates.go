package tasks

import (
	"fmt"

	"github.com/desertthunder/shelf/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPages Phase = iota
	FetchTrending
	LoadFeed
	RefreshFeed
)

func (p Phase) String() string {
	switch p {
	case FetchPages:
		return "fetch_pages"
	case FetchTrending:
		return "fetch_trending"
	case LoadFeed:
		return "load_feed"
	case RefreshFeed:
		return "refresh_feed"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchPageUpdate(step, total int, kind models.Kind, matched int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPages,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching %s catalog (%d matches)...", step, total, kind, matched),
		Data:    matched,
	}
}

func fetchPageFailedUpdate(step, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPages,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ page fetch failed: %v", step, total, err),
	}
}

func fetchTrendingUpdate(step, total int, kind models.Kind) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTrending,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching trending %s...", step, total, kind),
	}
}

func feedUpdate(phase Phase, set *models.RecommendationSet) ProgressUpdate {
	verb := "Loaded"
	if phase == RefreshFeed {
		verb = "Refreshed"
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%s %d movies, %d shows, %d books", verb, len(set.Movies), len(set.Shows), len(set.Books)),
		Data:    set,
	}
}
