// Package models defines the domain types shared by the clients, the sync engine and run history.
//
// Catalog side:
//   - [Provider] : a configured streaming provider (TMDb watch provider id + display name)
//   - [Candidate] : a deduplicated popular title with its origin providers and best rank
//   - [MovieDetail] : the full record needed to create a library entry
//
// Library side:
//   - [QualityProfile], [Label], [Holding], [Exclusion] : Radarr snapshots
//   - [AddRequest] : the payload of a library add
//
// Run side:
//   - [SyncPeriod] : ISO week + ISO week-year scoping the labels of a run
//   - [Outcome], [Decision], [Report] : what happened to each candidate
package models
