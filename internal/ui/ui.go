package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SuggestView ViewState = iota
	ResultsView
	FeedView
)

var sortCycle = []tasks.SortOrder{tasks.SortReset, tasks.SortTitle, tasks.SortReleaseDate}

type searchOutcome struct {
	items []models.MediaItem
	err   error
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	engine *tasks.Engine
	genres []string

	view   ViewState
	kind   models.Kind
	order  tasks.SortOrder
	width  int
	height int

	input       textinput.Model
	suggestions list.Model
	results     list.Model
	feed        list.Model

	progressChan chan tasks.ProgressUpdate
	searchDone   chan searchOutcome
	progress     tasks.ProgressUpdate
	searching    bool
	refreshing   bool

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model over engine. genres filter the discovery feed.
func NewModel(ctx context.Context, engine *tasks.Engine, genres []string) *Model {
	input := textinput.New()
	input.Placeholder = "Search movies, shows and books"
	input.Prompt = "› "
	input.CharLimit = 120
	input.Focus()

	m := &Model{
		ctx:    ctx,
		engine: engine,
		genres: genres,
		view:   SuggestView,
		kind:   models.KindMovie,
		order:  tasks.SortReset,
		input:  input,
		help:   help.New(),
		keys:   newKeyMap(),
	}
	m.suggestions = newMediaList("Suggestions", nil, 0, 0)
	m.results = newMediaList("Results", nil, 0, 0)
	m.feed = newMediaList("Discover", nil, 0, 0)
	return m
}

// Init starts the cursor blink and the initial feed load.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadFeed(false))
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := msg.Width-4, max(msg.Height-10, 3)
		m.suggestions.SetSize(w, h)
		m.results.SetSize(w, h)
		m.feed.SetSize(w, h)
		m.input.Width = w
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		switch m.view {
		case SuggestView:
			return m.handleSuggestKeys(msg)
		case ResultsView:
			return m.handleResultsKeys(msg)
		case FeedView:
			return m.handleFeedKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSuggestions:
		m.err = msg.err
		m.suggestions.SetItems(toListItems(m.engine.Store.Suggestions()))
		return m, nil

	case MsgSearchProgress:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgSearchComplete:
		m.searching = false
		m.progressChan = nil
		m.searchDone = nil
		m.err = msg.err
		m.order = tasks.SortReset
		m.results.SetItems(toListItems(m.engine.Store.Results()))
		m.results.Title = fmt.Sprintf("Results for %q", m.input.Value())
		return m, nil

	case MsgFeedLoaded:
		m.refreshing = false
		m.err = msg.err
		m.syncFeed()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSuggestKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.kind):
		m.kind = nextKind(m.kind)
		return m, m.suggest(m.input.Value())
	case key.Matches(msg, m.keys.feed):
		m.view = FeedView
		m.syncFeed()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.searching || strings.TrimSpace(m.input.Value()) == "" {
			return m, nil
		}
		m.view = ResultsView
		return m, m.startSearch(m.input.Value())
	case key.Matches(msg, m.keys.up), key.Matches(msg, m.keys.down):
		var cmd tea.Cmd
		m.suggestions, cmd = m.suggestions.Update(msg)
		return m, cmd
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.suggest(m.input.Value()))
}

func (m *Model) handleResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = SuggestView
		return m, nil
	case key.Matches(msg, m.keys.sort):
		if m.searching {
			return m, nil
		}
		m.order = nextOrder(m.order)
		m.results.SetItems(toListItems(m.engine.Search.Sort(m.order)))
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) handleFeedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = SuggestView
		return m, nil
	case key.Matches(msg, m.keys.kind):
		m.kind = nextKind(m.kind)
		m.syncFeed()
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		// Set before the command runs so a second press in the same frame is dropped.
		if m.refreshing || m.engine.Feed.Busy() {
			return m, nil
		}
		m.refreshing = true
		return m, m.loadFeed(true)
	}

	var cmd tea.Cmd
	m.feed, cmd = m.feed.Update(msg)
	return m, cmd
}

func (m *Model) syncFeed() {
	set := m.engine.Store.Recommendations()
	m.feed.SetItems(toListItems(set.List(m.kind)))
	m.feed.Title = "Discover " + kindLabel(m.kind)
}

func (m *Model) suggest(query string) tea.Cmd {
	kind := m.kind
	return func() tea.Msg {
		_, err := m.engine.Search.Suggest(m.ctx, query, kind)
		return suggestionsMsg(query, err)
	}
}

func (m *Model) loadFeed(refresh bool) tea.Cmd {
	return func() tea.Msg {
		if refresh {
			return feedLoadedMsg(m.engine.Feed.Refresh(m.ctx, nil, m.genres))
		}
		_, err := m.engine.Feed.LoadInitial(m.ctx, nil, m.genres)
		return feedLoadedMsg(err)
	}
}

func (m *Model) startSearch(query string) tea.Cmd {
	m.searching = true
	m.progress = tasks.ProgressUpdate{}
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan searchOutcome, 1)
	m.progressChan = progress
	m.searchDone = done

	kind := m.kind
	go func() {
		items, err := m.engine.Search.BulkSearch(m.ctx, progress, query, kind)
		close(progress)
		done <- searchOutcome{items: items, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.searchDone
	return func() tea.Msg {
		if progress == nil {
			return searchCompleteMsg(nil, nil)
		}

		update, ok := <-progress
		if !ok {
			out := <-done
			return searchCompleteMsg(out.items, out.err)
		}
		return searchProgressMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case SuggestView:
		body = m.renderSuggest()
	case ResultsView:
		body = m.renderResults()
	case FeedView:
		body = m.renderFeed()
	}

	status := ""
	if m.err != nil {
		status = "\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	return fmt.Sprintf("%s\n%s%s", m.renderTabs(), body, status)
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, len(models.Kinds))
	for _, k := range models.Kinds {
		if k == m.kind {
			tabs = append(tabs, styles.active.Render(kindLabel(k)))
		} else {
			tabs = append(tabs, styles.tab.Render(kindLabel(k)))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderSuggest() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.kind, m.keys.feed, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s\n\n%s", m.input.View(), m.suggestions.View(), helpView)
}

func (m *Model) renderResults() string {
	if m.searching {
		title := styles.title.Render(fmt.Sprintf("Searching %s for %q", kindLabel(m.kind), m.input.Value()))
		return fmt.Sprintf("%s\n%s", title, styles.help.Render(m.progress.Message))
	}

	sortLine := styles.ok.Render(fmt.Sprintf("%d results", len(m.results.Items()))) + " " +
		styles.help.Render("sorted by "+string(m.order))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.sort, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", m.results.View(), sortLine, helpView)
}

func (m *Model) renderFeed() string {
	state := ""
	if m.refreshing || m.engine.Feed.Busy() {
		state = styles.warn.Render("refreshing...")
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.kind, m.keys.refresh, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", m.feed.View(), state, helpView)
}

func nextKind(k models.Kind) models.Kind {
	i := slices.Index(models.Kinds, k)
	return models.Kinds[(i+1)%len(models.Kinds)]
}

func nextOrder(o tasks.SortOrder) tasks.SortOrder {
	i := slices.Index(sortCycle, o)
	return sortCycle[(i+1)%len(sortCycle)]
}

func kindLabel(k models.Kind) string {
	switch k {
	case models.KindMovie:
		return "Movies"
	case models.KindTV:
		return "Shows"
	case models.KindBook:
		return "Books"
	default:
		return string(k)
	}
}
