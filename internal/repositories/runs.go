package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/shared"
)

// RunRepository persists sync runs and their per-candidate decisions.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `
	id, sequence, week, year, dry_run, status, candidates,
	added, planned, skipped_excluded, skipped_existing, skipped_lookup_failed, failed,
	error_message, started_at, finished_at
`

// Create inserts a started run, assigning its sequence and, when empty, its ID.
func (r *RunRepository) Create(ctx context.Context, run *models.RunResult) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = models.RunRunning
	}
	run.Sequence = sequence

	query := `
		INSERT INTO runs (id, sequence, week, year, dry_run, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		run.Sequence,
		run.Period.Week,
		run.Period.Year,
		run.DryRun,
		run.Status,
		run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Finish stores the final status, counts and decisions of run in one transaction.
func (r *RunRepository) Finish(ctx context.Context, run *models.RunResult) error {
	report := run.Report
	if report == nil {
		report = &models.Report{}
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	var errorMessage any = run.Error
	if run.Error == "" {
		errorMessage = nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE runs
		SET status = ?, candidates = ?, added = ?, planned = ?, skipped_excluded = ?,
			skipped_existing = ?, skipped_lookup_failed = ?, failed = ?,
			error_message = ?, finished_at = ?
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, query,
		run.Status,
		run.Candidates,
		report.Count(models.OutcomeAdded),
		report.Count(models.OutcomePlanned),
		report.Count(models.OutcomeExcluded),
		report.Count(models.OutcomeExisting),
		report.Count(models.OutcomeLookupFailed),
		report.Count(models.OutcomeFailed),
		errorMessage,
		run.FinishedAt,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: run %s", shared.ErrNotFound, run.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM run_decisions WHERE run_id = ?", run.ID); err != nil {
		return fmt.Errorf("failed to clear decisions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_decisions (run_id, position, tmdb_id, title, rank, origin, label, outcome, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare decision insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range report.Decisions {
		if _, err := stmt.ExecContext(ctx, run.ID, i, d.ExternalID, d.Title, d.Rank,
			nullable(d.Origin), nullable(d.Label), string(d.Outcome), nullable(d.Message)); err != nil {
			return fmt.Errorf("failed to insert decision for %d: %w", d.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID, with its decisions.
func (r *RunRepository) Get(ctx context.Context, id string) (*models.RunResult, error) {
	query := "SELECT " + runColumns + " FROM runs WHERE id = ?"

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	decisions, err := r.Decisions(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Report = &models.Report{Decisions: decisions}
	return run, nil
}

// List retrieves the most recent runs, newest first, without decisions.
// A non-positive limit returns every run.
func (r *RunRepository) List(ctx context.Context, limit int) ([]*models.RunResult, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY sequence DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RunResult
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// Decisions retrieves the decisions of a run in candidate order.
func (r *RunRepository) Decisions(ctx context.Context, runID string) ([]models.Decision, error) {
	query := `
		SELECT tmdb_id, title, rank, origin, label, outcome, message
		FROM run_decisions
		WHERE run_id = ?
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []models.Decision
	for rows.Next() {
		var (
			d                      models.Decision
			origin, label, message sql.NullString
			outcome                string
		)
		if err := rows.Scan(&d.ExternalID, &d.Title, &d.Rank, &origin, &label, &outcome, &message); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d.Origin = origin.String
		d.Label = label.String
		d.Message = message.String
		d.Outcome = models.Outcome(outcome)
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return decisions, nil
}

// LastAdded reports the run that most recently added tmdbID, if any.
func (r *RunRepository) LastAdded(ctx context.Context, tmdbID int64) (string, error) {
	query := `
		SELECT d.run_id
		FROM run_decisions d
		JOIN runs r ON r.id = d.run_id
		WHERE d.tmdb_id = ? AND d.outcome = ?
		ORDER BY r.sequence DESC
		LIMIT 1
	`
	var runID string
	err := r.db.QueryRowContext(ctx, query, tmdbID, string(models.OutcomeAdded)).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: no run added %d", shared.ErrNotFound, tmdbID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query decisions: %w", err)
	}
	return runID, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans a runs row. Decisions are loaded separately.
func scanRun(row rowScanner) (*models.RunResult, error) {
	var (
		run          models.RunResult
		counts       [6]int
		errorMessage sql.NullString
		finishedAt   sql.NullTime
	)

	err := row.Scan(
		&run.ID, &run.Sequence, &run.Period.Week, &run.Period.Year, &run.DryRun, &run.Status, &run.Candidates,
		&counts[0], &counts[1], &counts[2], &counts[3], &counts[4], &counts[5],
		&errorMessage, &run.StartedAt, &finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Error = errorMessage.String
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	run.Totals = models.Totals{
		Added:        counts[0],
		Planned:      counts[1],
		Excluded:     counts[2],
		Existing:     counts[3],
		LookupFailed: counts[4],
		Failed:       counts[5],
	}
	return &run, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
