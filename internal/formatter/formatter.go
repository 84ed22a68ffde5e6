// package formatter renders sync runs and provider lists as text, JSON, CSV and TOML snippets
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/shared"
)

// Output formats accepted by [Render].
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// DefaultProviderListFile is where [WriteProviderList] writes when no path is given.
const DefaultProviderListFile = "tmdb_provider_list.txt"

type decisionJSON struct {
	TMDbID  int64  `json:"tmdb_id"`
	Title   string `json:"title"`
	Rank    int    `json:"rank"`
	Origin  string `json:"origin,omitempty"`
	Label   string `json:"label,omitempty"`
	Outcome string `json:"outcome"`
	Message string `json:"message,omitempty"`
}

type runJSON struct {
	ID         string         `json:"id"`
	Sequence   int            `json:"sequence,omitempty"`
	Week       int            `json:"week"`
	Year       int            `json:"year"`
	DryRun     bool           `json:"dry_run"`
	Status     string         `json:"status"`
	Error      string         `json:"error,omitempty"`
	Candidates int            `json:"candidates"`
	Totals     models.Totals  `json:"totals"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Decisions  []decisionJSON `json:"decisions"`
}

// Render dispatches to the renderer for format. An empty format means text.
func Render(run *models.RunResult, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return RunToText(run)
	case FormatJSON:
		return RunToJSON(run)
	case FormatCSV:
		return RunToCSV(run)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want text, json or csv)", shared.ErrInvalidFlag, format)
	}
}

// RunToText renders a run as one line per decision followed by the totals.
func RunToText(run *models.RunResult) ([]byte, error) {
	var buf bytes.Buffer

	mode := ""
	if run.DryRun {
		mode = " (dry run)"
	}
	buf.WriteString(fmt.Sprintf("Run %s%s: week %d of %d, %s\n", shortID(run.ID), mode, run.Period.Week, run.Period.Year, run.Status))
	if run.Error != "" {
		buf.WriteString(fmt.Sprintf("Error: %s\n", run.Error))
	}
	buf.WriteString(fmt.Sprintf("Candidates: %d\n\n", run.Candidates))

	for i, d := range decisions(run) {
		line := fmt.Sprintf("%d. [%s] %s (TMDb ID: %d)", i+1, d.Outcome, d.Title, d.ExternalID)
		if d.Label != "" {
			line += " label=" + d.Label
		}
		if d.Message != "" {
			line += " - " + d.Message
		}
		buf.WriteString(line + "\n")
	}

	t := run.Totals
	buf.WriteString(fmt.Sprintf("\nAdded: %d  Planned: %d  Excluded: %d  Existing: %d  Lookup failed: %d  Failed: %d\n",
		t.Added, t.Planned, t.Excluded, t.Existing, t.LookupFailed, t.Failed))

	return buf.Bytes(), nil
}

// RunToJSON renders a run with its decisions as indented JSON.
func RunToJSON(run *models.RunResult) ([]byte, error) {
	out := runJSON{
		ID:         run.ID,
		Sequence:   run.Sequence,
		Week:       run.Period.Week,
		Year:       run.Period.Year,
		DryRun:     run.DryRun,
		Status:     run.Status,
		Error:      run.Error,
		Candidates: run.Candidates,
		Totals:     run.Totals,
		StartedAt:  run.StartedAt,
		Decisions:  []decisionJSON{},
	}
	if !run.FinishedAt.IsZero() {
		finished := run.FinishedAt
		out.FinishedAt = &finished
	}
	for _, d := range decisions(run) {
		out.Decisions = append(out.Decisions, decisionJSON{
			TMDbID:  d.ExternalID,
			Title:   d.Title,
			Rank:    d.Rank,
			Origin:  d.Origin,
			Label:   d.Label,
			Outcome: string(d.Outcome),
			Message: d.Message,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run: %w", err)
	}
	return append(data, '\n'), nil
}

// RunToCSV renders one row per decision with columns: Position, TMDb ID, Title, Rank, Origin, Label, Outcome, Message
func RunToCSV(run *models.RunResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "TMDb ID", "Title", "Rank", "Origin", "Label", "Outcome", "Message"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, d := range decisions(run) {
		record := []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(d.ExternalID, 10),
			d.Title,
			strconv.Itoa(d.Rank),
			d.Origin,
			d.Label,
			string(d.Outcome),
			d.Message,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// RunsToText renders a history listing, one run per line.
func RunsToText(runs []*models.RunResult) []byte {
	var buf bytes.Buffer
	if len(runs) == 0 {
		buf.WriteString("No runs recorded.\n")
		return buf.Bytes()
	}
	for _, r := range runs {
		mode := ""
		if r.DryRun {
			mode = " dry-run"
		}
		buf.WriteString(fmt.Sprintf("#%d %s %s %s%s %s: %d candidates, %d added, %d failed\n",
			r.Sequence, shortID(r.ID), r.StartedAt.Format(shared.RunLogTimeFormat), r.Period, mode,
			r.Status, r.Candidates, r.Totals.Added, r.Totals.Failed))
	}
	return buf.Bytes()
}

// ProvidersToTOML renders watch providers as commented [[providers]] entries ready
// to paste into config.toml.
func ProvidersToTOML(providers []models.WatchProvider, region, language string) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("# === All available TMDb streaming providers for region: %s and language: %s ===\n", region, language))
	for _, p := range providers {
		buf.WriteString("# [[providers]]\n")
		buf.WriteString(fmt.Sprintf("# id = %q\n", strconv.Itoa(p.ID)))
		buf.WriteString(fmt.Sprintf("# name = %q\n", p.Name))
		buf.WriteString("#\n")
	}
	return buf.Bytes()
}

// WriteProviderList writes [ProvidersToTOML] output to path.
//
// Defaults to [DefaultProviderListFile] as the filename.
func WriteProviderList(providers []models.WatchProvider, region, language, path string) (string, error) {
	if path == "" {
		path = DefaultProviderListFile
	}
	if err := os.WriteFile(path, ProvidersToTOML(providers, region, language), 0644); err != nil {
		return "", fmt.Errorf("failed to write provider list: %w", err)
	}
	return path, nil
}

func decisions(run *models.RunResult) []models.Decision {
	if run.Report == nil {
		return nil
	}
	return run.Report.Decisions
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
