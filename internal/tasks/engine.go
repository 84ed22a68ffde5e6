package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/services"
	"github.com/desertthunder/toparr/internal/shared"
	"golang.org/x/time/rate"
)

// RunRecorder persists runs as they start and finish.
type RunRecorder interface {
	Create(ctx context.Context, run *models.RunResult) error
	Finish(ctx context.Context, run *models.RunResult) error
}

// EngineOpts configures a [SyncEngine].
type EngineOpts struct {
	Providers           []models.Provider
	Region              string
	Language            string
	TopN                int
	QualityProfile      string // profile name, matched case-insensitively as a substring
	RootFolder          string
	Monitored           bool
	MinimumAvailability string
	Workers             int
	DryRun              bool
	Pacer               *rate.Limiter
	Now                 func() time.Time
	History             RunRecorder // optional
}

// SyncEngine runs one aggregation and reconciliation pass.
type SyncEngine struct {
	metadata services.MetadataClient
	library  services.LibraryClient
	lookup   services.DetailLookup
	logger   *log.Logger
	opts     EngineOpts
}

// NewSyncEngine creates a SyncEngine. A nil lookup falls back to the metadata client.
func NewSyncEngine(metadata services.MetadataClient, library services.LibraryClient, lookup services.DetailLookup, logger *log.Logger, opts EngineOpts) *SyncEngine {
	if lookup == nil {
		lookup = metadata
	}
	if logger == nil {
		logger = log.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TopN <= 0 {
		opts.TopN = 10
	}
	return &SyncEngine{metadata: metadata, library: library, lookup: lookup, logger: logger, opts: opts}
}

// Run performs a full sync. The returned error is non-nil only when the run was
// aborted (profile not found, holdings unavailable); the result is returned either way.
func (e *SyncEngine) Run(ctx context.Context, prog chan<- ProgressUpdate) (*models.RunResult, error) {
	if e.metadata == nil || e.library == nil {
		return nil, fmt.Errorf("%w: metadata and library clients are required", shared.ErrServiceUnavailable)
	}

	run := &models.RunResult{
		ID:        shared.GenerateID(),
		Period:    CurrentPeriod(e.opts.Now),
		DryRun:    e.opts.DryRun,
		Status:    models.RunRunning,
		StartedAt: e.opts.Now(),
	}
	logger := e.logger.With("run", run.ID[:8])
	logger.Info("starting sync", "period", run.Period.String(), "region", e.opts.Region, "providers", len(e.opts.Providers), "dry_run", run.DryRun)
	e.record(ctx, logger, run, false)

	sendProgress(prog, resolveProfileUpdate(e.opts.QualityProfile))
	profile, err := ResolveQualityProfile(ctx, e.library, e.opts.QualityProfile)
	if err != nil {
		return e.abort(ctx, logger, prog, run, err)
	}
	logger.Info("resolved quality profile", "name", profile.Name, "id", profile.ID)

	sendProgress(prog, snapshotUpdate(1, 2, "exclusions"))
	exclusions, err := e.library.ListExclusions(ctx)
	if err != nil {
		logger.Error("failed to read exclusions, continuing without them", "error", err)
		exclusions = nil
	}

	sendProgress(prog, snapshotUpdate(2, 2, "holdings"))
	holdings, err := e.library.ListHoldings(ctx)
	if err != nil {
		return e.abort(ctx, logger, prog, run, fmt.Errorf("failed to read library holdings: %w", err))
	}
	snap := NewSnapshot(exclusions, holdings)
	nExcl, nHeld := snap.Sizes()
	logger.Info("library snapshot", "exclusions", nExcl, "holdings", nHeld)

	agg := NewAggregator(e.metadata, e.opts.Region, e.opts.Language, logger)
	set := agg.Aggregate(ctx, e.opts.Providers, e.opts.TopN)
	run.Candidates = set.Len()
	sendProgress(prog, aggregateUpdate(len(e.opts.Providers), set.Len()))
	logger.Info("aggregated candidates", "count", set.Len())

	rec := NewReconciler(e.library, e.lookup, NewLabelResolver(e.library, logger), logger, ReconcileOpts{
		QualityProfileID:    profile.ID,
		RootFolder:          e.opts.RootFolder,
		Monitored:           e.opts.Monitored,
		MinimumAvailability: e.opts.MinimumAvailability,
		Workers:             e.opts.Workers,
		DryRun:              e.opts.DryRun,
		Pacer:               e.opts.Pacer,
	})
	run.Report = rec.Reconcile(ctx, prog, set, snap, run.Period)
	run.Totals = run.Report.Totals()

	run.Status = models.RunFinished
	run.FinishedAt = e.opts.Now()
	e.record(ctx, logger, run, true)
	sendProgress(prog, finishUpdate(run))

	logger.Info("sync finished",
		"added", run.Totals.Added,
		"planned", run.Totals.Planned,
		"excluded", run.Totals.Excluded,
		"existing", run.Totals.Existing,
		"lookup_failed", run.Totals.LookupFailed,
		"failed", run.Totals.Failed,
	)
	return run, nil
}

func (e *SyncEngine) abort(ctx context.Context, logger *log.Logger, prog chan<- ProgressUpdate, run *models.RunResult, err error) (*models.RunResult, error) {
	run.Status = models.RunAborted
	run.Error = err.Error()
	run.FinishedAt = e.opts.Now()
	logger.Error("sync aborted", "error", err)
	e.record(ctx, logger, run, true)
	sendProgress(prog, finishUpdate(run))
	return run, err
}

// record writes run to history. Failures are logged and never affect the run.
func (e *SyncEngine) record(ctx context.Context, logger *log.Logger, run *models.RunResult, finished bool) {
	if e.opts.History == nil {
		return
	}
	var err error
	if finished {
		err = e.opts.History.Finish(ctx, run)
	} else {
		err = e.opts.History.Create(ctx, run)
	}
	if err != nil {
		logger.Warn("failed to record run history", "error", err)
	}
}
