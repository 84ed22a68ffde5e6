package tasks

import (
	"fmt"

	"github.com/desertthunder/toparr/internal/models"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Run phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Run phase enumeration
type Phase int

const (
	ResolveProfile Phase = iota
	SnapshotLibrary
	Aggregate
	Reconcile
	Finish
)

func (p Phase) String() string {
	switch p {
	case ResolveProfile:
		return "resolve_profile"
	case SnapshotLibrary:
		return "snapshot_library"
	case Aggregate:
		return "aggregate"
	case Reconcile:
		return "reconcile"
	case Finish:
		return "finish"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func resolveProfileUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveProfile,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolving quality profile %q...", name),
	}
}

func snapshotUpdate(step, total int, what string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SnapshotLibrary,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Reading library %s...", what),
	}
}

func aggregateUpdate(providers, candidates int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aggregate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Collected %d candidates from %d providers", candidates, providers),
	}
}

func decisionUpdate(step, total int, d models.Decision) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s", step, total, d.Outcome, d.Title),
		Data:    d,
	}
}

func finishUpdate(run *models.RunResult) ProgressUpdate {
	msg := fmt.Sprintf("Run %s finished", run.Period)
	if run.Status == models.RunAborted {
		msg = fmt.Sprintf("Run %s aborted: %s", run.Period, run.Error)
	}
	return ProgressUpdate{Phase: Finish, Step: 1, Total: 1, Message: msg, Data: run}
}
