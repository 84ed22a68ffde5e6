package models

import (
	"fmt"
	"time"
)

// SyncPeriod is the ISO (week, week-year) pair shared by every label of a run.
type SyncPeriod struct {
	Week int
	Year int
}

func (p SyncPeriod) String() string {
	return fmt.Sprintf("kw%d_%d", p.Week, p.Year)
}

// Outcome classifies what happened to a candidate.
type Outcome string

const (
	OutcomeAdded        Outcome = "added"
	OutcomeExcluded     Outcome = "skipped_excluded"
	OutcomeExisting     Outcome = "skipped_existing"
	OutcomeLookupFailed Outcome = "skipped_lookup_failed"
	OutcomeFailed       Outcome = "failed"
	OutcomePlanned      Outcome = "planned"
)

// Decision is the per-candidate record of a reconciliation.
type Decision struct {
	ExternalID int64
	Title      string
	Rank       int
	Origin     string
	Label      string
	Outcome    Outcome
	Message    string
}

// Report aggregates the decisions of one reconciliation, in candidate order.
type Report struct {
	Decisions []Decision
}

// Count returns the number of decisions with outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, d := range r.Decisions {
		if d.Outcome == o {
			n++
		}
	}
	return n
}

// IDs returns the external ids of decisions with outcome o.
func (r *Report) IDs(o Outcome) []int64 {
	var ids []int64
	for _, d := range r.Decisions {
		if d.Outcome == o {
			ids = append(ids, d.ExternalID)
		}
	}
	return ids
}

// Totals counts decisions per outcome.
type Totals struct {
	Added        int `json:"added"`
	Planned      int `json:"planned"`
	Excluded     int `json:"skipped_excluded"`
	Existing     int `json:"skipped_existing"`
	LookupFailed int `json:"skipped_lookup_failed"`
	Failed       int `json:"failed"`
}

// Totals counts the report's decisions per outcome.
func (r *Report) Totals() Totals {
	return Totals{
		Added:        r.Count(OutcomeAdded),
		Planned:      r.Count(OutcomePlanned),
		Excluded:     r.Count(OutcomeExcluded),
		Existing:     r.Count(OutcomeExisting),
		LookupFailed: r.Count(OutcomeLookupFailed),
		Failed:       r.Count(OutcomeFailed),
	}
}

// Run status values.
const (
	RunRunning  = "running"
	RunFinished = "finished"
	RunAborted  = "aborted"
)

// RunResult is the outcome of a full sync run.
type RunResult struct {
	ID         string
	Sequence   int
	Period     SyncPeriod
	DryRun     bool
	Status     string
	Candidates int
	Totals     Totals
	Report     *Report
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}
