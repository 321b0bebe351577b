// Package models defines the data shared by the catalog clients, the client-side store and the relationship and feed engines.
//
// # Users
//
// [UserRef] carries the three username sets a relationship operation reads and writes.
// Set helpers ([UserRef.With], [UserRef.Without]) return copies so a computed next state never aliases the current one.
//
// # Media
//
// [MediaItem] is the single shape used for catalog pages, suggestions and recommendations.
// Identity is [MediaItem.ID] within a [Kind], but search dedup and feed exclusion compare [MediaItem.Title].
//
// # Feeds
//
// [RecommendationSet] groups the three recommendation lists, always replaced wholesale.
package models
