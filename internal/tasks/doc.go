// Package tasks orchestrates catalog search, relationship updates and the discovery feed, writing results into the shared store.
//
// # Engines
//
//  1. [SearchAggregator] : catalog search and type-ahead
//     - [SearchAggregator.BulkSearch] fetches a fixed number of discover pages, filters by substring and drops repeated titles
//     - [SearchAggregator.Trending] aggregates trending pages by popularity
//     - [SearchAggregator.Suggest] replaces the suggestion list, discarding stale responses when configured
//     - [SearchAggregator.Sort] reorders held results by title, release date or popularity
//
//  2. [RelationshipManager] : follow, unfollow, block and unblock
//     - Both records are written concurrently and the result is applied, failed or partial
//     - A partial update is rolled back on the applied side when compensation is enabled,
//     otherwise it is written to the [DivergenceJournal]
//
//  3. [DiscoveryFeedController] : recommended movies, shows and books
//     - [DiscoveryFeedController.LoadInitial] runs once per process (idle, loading, loaded or failed)
//     - [DiscoveryFeedController.Refresh] excludes every title currently held
//
// # Progress Reporting
//
// Long operations accept a channel of [ProgressUpdate] values.
// Updates use select with default to prevent blocking; a nil channel disables reporting.
//
// # Rate Limiting
//
// Catalog page fetches share one [rate.Limiter] and one circuit breaker per [SearchAggregator],
// so a failing catalog is short-circuited after consecutive errors.
package tasks
