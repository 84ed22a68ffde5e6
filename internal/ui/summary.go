package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/tasks"
)

// Summary renders the end-of-run block: a heading, the totals and the non-trivial decisions.
func Summary(run *models.RunResult) string {
	var b strings.Builder

	heading := fmt.Sprintf("Sync %s", run.Period)
	if run.DryRun {
		heading += " (dry run)"
	}
	b.WriteString(styles.Title(heading))
	b.WriteString("\n")

	if run.Status == models.RunAborted {
		b.WriteString(styles.Err("Aborted: " + run.Error))
		b.WriteString("\n")
		return b.String()
	}

	t := run.Totals
	counts := []string{
		styles.OK(fmt.Sprintf("%d added", t.Added)),
		styles.Help(fmt.Sprintf("%d excluded", t.Excluded)),
		styles.Help(fmt.Sprintf("%d existing", t.Existing)),
	}
	if t.Planned > 0 {
		counts = append(counts, styles.OK(fmt.Sprintf("%d planned", t.Planned)))
	}
	if t.LookupFailed > 0 {
		counts = append(counts, styles.Warn(fmt.Sprintf("%d lookup failed", t.LookupFailed)))
	}
	if t.Failed > 0 {
		counts = append(counts, styles.Err(fmt.Sprintf("%d failed", t.Failed)))
	}
	b.WriteString(fmt.Sprintf("%d candidates: %s\n", run.Candidates, strings.Join(counts, ", ")))

	if run.Report == nil {
		return b.String()
	}
	for _, d := range run.Report.Decisions {
		switch d.Outcome {
		case models.OutcomeAdded, models.OutcomePlanned:
			b.WriteString(fmt.Sprintf("  %s %s %s\n", styles.Outcome(d.Outcome, "+"), d.Title, styles.Help(d.Label)))
		case models.OutcomeFailed, models.OutcomeLookupFailed:
			b.WriteString(fmt.Sprintf("  %s %s %s\n", styles.Outcome(d.Outcome, "!"), d.Title, styles.Help(d.Message)))
		}
	}
	return b.String()
}

// Progress renders one progress update as a status line.
func Progress(u tasks.ProgressUpdate) string {
	if d, ok := u.Data.(models.Decision); ok {
		return fmt.Sprintf("%s %s", styles.Help(fmt.Sprintf("[%d/%d]", u.Step, u.Total)), styles.Outcome(d.Outcome, fmt.Sprintf("%s: %s", d.Outcome, d.Title)))
	}
	return styles.Help(u.Message)
}

// ProfilesTable renders quality profiles as a bordered table.
func ProfilesTable(profiles []models.QualityProfile) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Name")
	for _, p := range profiles {
		t.Row(strconv.Itoa(p.ID), p.Name)
	}
	return t.String()
}

// ProvidersTable renders watch providers as a bordered table.
func ProvidersTable(providers []models.WatchProvider) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Name", "Priority")
	for _, p := range providers {
		t.Row(strconv.Itoa(p.ID), p.Name, strconv.Itoa(p.Priority))
	}
	return t.String()
}
