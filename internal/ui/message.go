package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	err  error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSuggestions MsgKind = iota
	MsgSearchProgress
	MsgSearchComplete
	MsgFeedLoaded
)

// suggestionsMsg is the constructor for [MsgSuggestions]; query is the text the request was issued for.
func suggestionsMsg(query string, err error) Msg {
	return Msg{kind: MsgSuggestions, data: query, err: err}
}

// searchProgressMsg is the constructor for [MsgSearchProgress]
func searchProgressMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgSearchProgress, data: update}
}

// searchCompleteMsg is the constructor for [MsgSearchComplete]
func searchCompleteMsg(results []models.MediaItem, err error) Msg {
	return Msg{kind: MsgSearchComplete, data: results, err: err}
}

// feedLoadedMsg is the constructor for [MsgFeedLoaded]
func feedLoadedMsg(err error) Msg {
	return Msg{kind: MsgFeedLoaded, err: err}
}
