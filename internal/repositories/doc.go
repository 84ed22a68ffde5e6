// Package repositories implements SQLite persistence for sync run history.
//
// [RunRepository] stores one row per run (period, status, outcome totals) and one row
// per candidate decision. It satisfies the engine's run recorder, so history is written
// as a run starts and again when it finishes or aborts.
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
