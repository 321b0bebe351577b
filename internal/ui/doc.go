// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has three views over one [tasks.Engine]:
//  1. [SuggestView] : type-ahead search box; every edit issues a suggestion request and the list is read back from the store
//  2. [ResultsView] : bulk catalog search results with live page progress and a sort cycle
//  3. [FeedView] : the discovery feed for the selected kind, with refresh
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Suggestion responses never write the list directly; the store decides whether a late response is stale.
//
// Tab cycles the media kind and ctrl-prefixed bindings switch views, so every printable key reaches the search box.
package ui
