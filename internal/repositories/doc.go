// Package repositories implements SQLite persistence for client-side history.
//
// Key Implementations:
//   - [FeedHistoryRepository] : recommendation sets shown to a user, so a later process can exclude them on refresh
//   - [DivergenceRepository] : journal of follow/block updates where one record was written and the other was not
//
// Media lists are stored as JSON text columns; genres as the comma-joined string sent to the backend.
// Lookups that match nothing wrap [shared.ErrNotFound].
package repositories
