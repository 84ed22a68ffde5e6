// Package tasks implements the sync run: aggregate popular titles per provider and
// reconcile them against the library.
//
// # Run
//
// [SyncEngine.Run] performs, in order:
//
//  1. Resolve the quality profile by name (fatal when missing)
//  2. Snapshot exclusions (a failure is logged and treated as empty) and holdings (fatal)
//  3. [Aggregator.Aggregate] : top-N per provider, deduplicated into a [CandidateSet]
//  4. [Reconciler.Reconcile] : one [models.Decision] per candidate
//
// # Decisions
//
// Each candidate goes through: excluded? held? detail lookup, origin, label, add.
// The first step that applies decides the outcome. Duplicate adds reported by the
// library count as skipped_existing, and any other add failure is recorded against the
// candidate without stopping the run.
//
// # Labels
//
// Labels read "<origin>_kw<week>_<year>" where origin is the configuration-order-first
// provider that listed the title and week/year come from the ISO calendar.
// [LabelResolver] memoizes per run and creates each label at most once.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel using select with
// default, so a slow consumer never blocks a run.
package tasks
