// Package services implements the two external collaborators of a sync run.
//
// # Metadata Client
//
// [TMDBClient] implements [MetadataClient]: popularity ranked discovery per watch provider
// and region, full detail by TMDb id, and the list of watch providers for a region.
// Authentication is either a v3 api_key query parameter or a v4 read access token sent as a
// bearer token through an [oauth2] static token source.
//
// # Library Client
//
// [RadarrClient] implements [LibraryClient] against the Radarr v3 API (X-Api-Key header).
// It also implements [DetailLookup] through /movie/lookup/tmdb, which returns the exact record
// shape Radarr expects on add.
//
// [BreakerLibrary] decorates any [LibraryClient] with a sony/gobreaker circuit breaker.
//
// # Pacing
//
// Requests wait on an injected [rate.Limiter] built by [NewPacer]; tests pass a zero delay.
//
// # Error Handling
//
// Non-2xx responses are [*StatusError] values that match [shared.ErrAPIRequest].
// Transport failures wrap [shared.ErrServiceUnavailable]. Lookups of unknown ids wrap
// [shared.ErrNotFound]; duplicate adds wrap [shared.ErrAlreadyExists].
package services
