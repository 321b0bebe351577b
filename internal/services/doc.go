// Package services implements the request layer over the backend REST API and the third-party media catalog.
//
// # Clients
//
// [CatalogService] implements [Catalog] over the paginated discover/trending resources.
// It never reads total_pages to decide when to stop; callers own paging policy.
//
// [BackendService] implements [Backend] over the user, suggestion, log and recommendation endpoints.
//
// Both share [APIService], which performs one HTTP round trip per call.
// There is no retry and no caching at this layer.
//
// # Error Handling
//
// Every failure wraps one of two sentinels from the shared package:
//   - [shared.ErrNetwork] : transport failure, timeout, or non-2xx status
//   - [shared.ErrParse] : body could not be decoded into the expected shape
//
// # Credentials
//
// The catalog bearer token is attached by an [oauth2.Transport] over a static token source.
// The backend token, when configured, is sent as a bearer Authorization header.
package services
