package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/services"
	"github.com/desertthunder/toparr/internal/shared"
	"golang.org/x/time/rate"
)

// maxWorkers caps the per-candidate worker pool.
const maxWorkers = 10

// Snapshot is the exclusion list and holdings read once before reconciliation.
//
// Holdings are updated in memory after each add, so an id is submitted at most
// once per run. Changes made to the library by others during the run are not seen;
// the library's "already exists" answer covers that window.
type Snapshot struct {
	mu         sync.RWMutex
	exclusions map[int64]struct{}
	holdings   map[int64]struct{}
}

// NewSnapshot indexes exclusions and holdings by external id. Zero ids are ignored.
func NewSnapshot(exclusions []models.Exclusion, holdings []models.Holding) *Snapshot {
	s := &Snapshot{
		exclusions: make(map[int64]struct{}, len(exclusions)),
		holdings:   make(map[int64]struct{}, len(holdings)),
	}
	for _, e := range exclusions {
		if e.ExternalID != 0 {
			s.exclusions[e.ExternalID] = struct{}{}
		}
	}
	for _, h := range holdings {
		if h.ExternalID != 0 {
			s.holdings[h.ExternalID] = struct{}{}
		}
	}
	return s
}

// Excluded reports whether id is on the exclusion list.
func (s *Snapshot) Excluded(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.exclusions[id]
	return ok
}

// Held reports whether the library holds id.
func (s *Snapshot) Held(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.holdings[id]
	return ok
}

// MarkHeld records id as held.
func (s *Snapshot) MarkHeld(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holdings[id] = struct{}{}
}

// Sizes returns the number of exclusions and holdings.
func (s *Snapshot) Sizes() (exclusions, holdings int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.exclusions), len(s.holdings)
}

// ReconcileOpts carries the add settings and tuning of a [Reconciler].
type ReconcileOpts struct {
	QualityProfileID    int
	RootFolder          string
	Monitored           bool
	MinimumAvailability string
	Workers             int           // concurrent candidates (default 1)
	DryRun              bool          // decide only; no labels or entries are created
	Pacer               *rate.Limiter // waited on before each detail lookup; nil disables pacing
}

// Reconciler decides and applies the library add for each candidate.
type Reconciler struct {
	library services.LibraryClient
	lookup  services.DetailLookup
	labels  *LabelResolver
	logger  *log.Logger
	opts    ReconcileOpts
}

// NewReconciler creates a Reconciler. lookup supplies the record submitted on add.
func NewReconciler(library services.LibraryClient, lookup services.DetailLookup, labels *LabelResolver, logger *log.Logger, opts ReconcileOpts) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	if labels == nil {
		labels = NewLabelResolver(library, logger)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Workers > maxWorkers {
		opts.Workers = maxWorkers
	}
	return &Reconciler{library: library, lookup: lookup, labels: labels, logger: logger, opts: opts}
}

type reconcileJob struct {
	index     int
	candidate *models.Candidate
}

type reconcileResult struct {
	index    int
	decision models.Decision
}

// Reconcile runs every candidate of set through the decision sequence and returns
// the decisions in candidate order. Per-candidate failures never abort the run.
func (r *Reconciler) Reconcile(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	set *CandidateSet,
	snap *Snapshot,
	period models.SyncPeriod,
) *models.Report {
	candidates := set.Candidates()
	total := len(candidates)
	decisions := make([]models.Decision, total)

	jobs := make(chan reconcileJob, total)
	results := make(chan reconcileResult, total)

	var wg sync.WaitGroup
	for i := 0; i < r.opts.Workers; i++ {
		wg.Add(1)
		go r.worker(ctx, &wg, jobs, results, set, snap, period)
	}

	for i, c := range candidates {
		jobs <- reconcileJob{index: i, candidate: c}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		decisions[res.index] = res.decision
		sendProgress(prog, decisionUpdate(completed, total, res.decision))
	}

	return &models.Report{Decisions: decisions}
}

func (r *Reconciler) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan reconcileJob,
	results chan<- reconcileResult,
	set *CandidateSet,
	snap *Snapshot,
	period models.SyncPeriod,
) {
	defer wg.Done()
	for job := range jobs {
		results <- reconcileResult{index: job.index, decision: r.decide(ctx, job.candidate, set, snap, period)}
	}
}

// decide applies the decision sequence to one candidate; each step short-circuits the rest.
func (r *Reconciler) decide(ctx context.Context, c *models.Candidate, set *CandidateSet, snap *Snapshot, period models.SyncPeriod) models.Decision {
	d := models.Decision{ExternalID: c.ExternalID, Title: c.Title, Rank: c.Rank}
	logger := r.logger.With("tmdb_id", c.ExternalID, "title", c.Title)

	if err := ctx.Err(); err != nil {
		d.Outcome = models.OutcomeFailed
		d.Message = err.Error()
		return d
	}

	logger.Info("processing")

	if snap.Excluded(c.ExternalID) {
		d.Outcome = models.OutcomeExcluded
		d.Message = "on the library exclusion list"
		logger.Info("skipped, excluded")
		return d
	}

	if snap.Held(c.ExternalID) {
		d.Outcome = models.OutcomeExisting
		d.Message = "already in the library"
		logger.Info("skipped, already in library")
		return d
	}

	if r.opts.Pacer != nil {
		if err := r.opts.Pacer.Wait(ctx); err != nil {
			d.Outcome = models.OutcomeFailed
			d.Message = fmt.Sprintf("pacing wait: %v", err)
			return d
		}
	}

	detail, err := r.lookup.LookupByID(ctx, c.ExternalID)
	if err != nil || detail == nil || detail.Title == "" {
		d.Outcome = models.OutcomeLookupFailed
		d.Message = "details could not be loaded"
		if err != nil {
			d.Message = err.Error()
		}
		logger.Warn("skipped, details could not be loaded", "error", err)
		return d
	}
	if detail.TitleSlug == "" {
		detail.TitleSlug = services.TitleSlug(detail.Title, c.ExternalID)
	}

	d.Origin = set.Origin(c)
	d.Label = LabelText(d.Origin, period)

	if r.opts.DryRun {
		d.Outcome = models.OutcomePlanned
		if _, ok := r.labels.Peek(ctx, d.Label); ok {
			d.Message = "would add with existing label"
		} else {
			d.Message = "would add and create label"
		}
		logger.Info("planned", "origin", d.Origin, "label", d.Label)
		return d
	}

	req := models.AddRequest{
		Movie:               *detail,
		QualityProfileID:    r.opts.QualityProfileID,
		Monitored:           r.opts.Monitored,
		RootFolder:          r.opts.RootFolder,
		MinimumAvailability: r.opts.MinimumAvailability,
		SearchOnAdd:         true,
	}
	if id, ok := r.labels.Resolve(ctx, d.Label); ok {
		req.LabelIDs = []int{id}
	} else {
		d.Label = ""
	}

	logger.Info("adding", "origin", d.Origin, "label", d.Label)
	err = r.library.CreateEntry(ctx, req)
	switch {
	case err == nil:
		snap.MarkHeld(c.ExternalID)
		d.Outcome = models.OutcomeAdded
		logger.Info("added")
	case errors.Is(err, shared.ErrAlreadyExists):
		snap.MarkHeld(c.ExternalID)
		d.Outcome = models.OutcomeExisting
		d.Message = "library reported it as already added"
		logger.Warn("already in library")
	default:
		d.Outcome = models.OutcomeFailed
		d.Message = err.Error()
		logger.Error("failed to add", "error", err)
	}
	return d
}
