package ui

import (
	"strings"
	"testing"

	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/tasks"
)

func TestSummary(t *testing.T) {
	t.Run("finished run", func(t *testing.T) {
		report := &models.Report{Decisions: []models.Decision{
			{ExternalID: 1, Title: "Added Movie", Label: "netflix_kw3_2026", Outcome: models.OutcomeAdded},
			{ExternalID: 2, Title: "Excluded Movie", Outcome: models.OutcomeExcluded},
			{ExternalID: 3, Title: "Broken Movie", Outcome: models.OutcomeFailed, Message: "Invalid Path"},
		}}
		run := &models.RunResult{
			Period:     models.SyncPeriod{Week: 3, Year: 2026},
			Status:     models.RunFinished,
			Candidates: 3,
			Report:     report,
			Totals:     report.Totals(),
		}

		out := Summary(run)
		for _, want := range []string{"kw3_2026", "3 candidates", "1 added", "1 failed", "Added Movie", "Invalid Path"} {
			if !strings.Contains(out, want) {
				t.Errorf("summary missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "Excluded Movie") {
			t.Error("summary should only list added and failed titles")
		}
	})

	t.Run("aborted run", func(t *testing.T) {
		run := &models.RunResult{Status: models.RunAborted, Error: "quality profile not found", DryRun: true}
		out := Summary(run)
		if !strings.Contains(out, "Aborted: quality profile not found") || !strings.Contains(out, "dry run") {
			t.Errorf("unexpected summary:\n%s", out)
		}
	})
}

func TestProgress(t *testing.T) {
	u := tasks.ProgressUpdate{Phase: tasks.Reconcile, Step: 2, Total: 5, Data: models.Decision{Title: "Movie", Outcome: models.OutcomeAdded}}
	if out := Progress(u); !strings.Contains(out, "[2/5]") || !strings.Contains(out, "added: Movie") {
		t.Errorf("unexpected progress line %q", out)
	}

	plain := tasks.ProgressUpdate{Phase: tasks.Aggregate, Message: "Collected 3 candidates"}
	if out := Progress(plain); !strings.Contains(out, "Collected 3 candidates") {
		t.Errorf("unexpected progress line %q", out)
	}
}

func TestTables(t *testing.T) {
	profiles := ProfilesTable([]models.QualityProfile{{ID: 4, Name: "HD - 2160p/1080p/720p"}})
	if !strings.Contains(profiles, "HD - 2160p/1080p/720p") || !strings.Contains(profiles, "Name") {
		t.Errorf("unexpected profiles table:\n%s", profiles)
	}

	providers := ProvidersTable([]models.WatchProvider{{ID: 8, Name: "Netflix", Priority: 1}})
	if !strings.Contains(providers, "Netflix") || !strings.Contains(providers, "Priority") {
		t.Errorf("unexpected providers table:\n%s", providers)
	}
}
