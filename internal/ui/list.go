package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/shelf/internal/formatter"
	"github.com/desertthunder/shelf/internal/models"
)

var _ list.Item = mediaItem{}

// mediaItem wraps [models.MediaItem] to implement [list.Item].
type mediaItem struct {
	item models.MediaItem
}

func (i mediaItem) FilterValue() string { return i.item.Title }
func (i mediaItem) Title() string       { return i.item.Title }
func (i mediaItem) Description() string {
	var parts []string
	if i.item.ReleaseDate != "" {
		parts = append(parts, i.item.ReleaseDate)
	}
	if i.item.Rating != nil {
		parts = append(parts, "★ "+formatter.FormatRating(i.item.Rating))
	}
	if i.item.Popularity > 0 {
		parts = append(parts, fmt.Sprintf("popularity %.0f", i.item.Popularity))
	}
	return strings.Join(parts, " • ")
}

func toListItems(items []models.MediaItem) []list.Item {
	out := make([]list.Item, len(items))
	for i, item := range items {
		out[i] = mediaItem{item: item}
	}
	return out
}

func newMediaList(title string, items []models.MediaItem, width, height int) list.Model {
	l := list.New(toListItems(items), list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	return l
}
