package tasks

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/shared"
	tu "github.com/desertthunder/toparr/internal/testing"
)

// memoryRecorder is a [RunRecorder] that keeps runs in memory.
type memoryRecorder struct {
	mu       sync.Mutex
	created  []string
	finished []models.RunResult
	err      error
}

func (m *memoryRecorder) Create(ctx context.Context, run *models.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, run.ID)
	return m.err
}

func (m *memoryRecorder) Finish(ctx context.Context, run *models.RunResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = append(m.finished, *run)
	return m.err
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2026, time.January, 14, 9, 0, 0, 0, time.UTC) }
}

func engineOpts(providers ...models.Provider) EngineOpts {
	return EngineOpts{
		Providers:      providers,
		Region:         "CH",
		Language:       "de-CH",
		TopN:           10,
		QualityProfile: "hd - 2160p",
		RootFolder:     "/movies",
		Monitored:      true,
		Now:            fixedClock(),
	}
}

func defaultProfiles() []models.QualityProfile {
	return []models.QualityProfile{{ID: 1, Name: "Any"}, {ID: 4, Name: "HD - 2160p/1080p/720p"}}
}

func TestSyncEngineRun(t *testing.T) {
	ctx := context.Background()

	t.Run("two provider scenario", func(t *testing.T) {
		meta := &tu.FakeMetadata{Lists: map[string][]models.DiscoverResult{
			"P1": tu.Results(100, 200),
			"P2": tu.Results(200, 300),
		}}
		lib := &tu.FakeLibrary{
			Profiles:   defaultProfiles(),
			Exclusions: []models.Exclusion{{ExternalID: 300}},
		}
		providers := []models.Provider{{ID: "P1", Name: "P1"}, {ID: "P2", Name: "P2"}}

		run, err := NewSyncEngine(meta, lib, nil, quietLogger(), engineOpts(providers...)).Run(ctx, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if run.Period != (models.SyncPeriod{Week: 3, Year: 2026}) {
			t.Errorf("unexpected period %+v", run.Period)
		}
		if run.Status != models.RunFinished || run.Candidates != 3 {
			t.Errorf("unexpected run %+v", run)
		}

		want := map[int64]models.Outcome{
			100: models.OutcomeAdded,
			200: models.OutcomeAdded,
			300: models.OutcomeExcluded,
		}
		if got := outcomes(run.Report); !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}

		for _, d := range run.Report.Decisions {
			if d.ExternalID == 200 && (d.Origin != "P1" || d.Rank != 0) {
				t.Errorf("candidate 200: expected origin P1 rank 0, got %q rank %d", d.Origin, d.Rank)
			}
		}

		if lib.EntryCalls() != 2 {
			t.Errorf("expected exactly 2 add calls, got %d", lib.EntryCalls())
		}
		if n := lib.TotalLabelCreates(); n != 1 {
			t.Errorf("expected 1 label (shared origin P1), got %d", n)
		}
		if lib.LabelCreates("p1_kw3_2026") != 1 {
			t.Error("expected label p1_kw3_2026")
		}
		for _, req := range lib.Added() {
			if req.QualityProfileID != 4 {
				t.Errorf("expected profile 4, got %d", req.QualityProfileID)
			}
		}
	})

	t.Run("profile not found aborts before any add", func(t *testing.T) {
		meta := &tu.FakeMetadata{Lists: map[string][]models.DiscoverResult{p1.ID: tu.Results(1)}}
		lib := &tu.FakeLibrary{Profiles: []models.QualityProfile{{ID: 1, Name: "Any"}}}
		rec := &memoryRecorder{}
		opts := engineOpts(p1)
		opts.History = rec

		run, err := NewSyncEngine(meta, lib, nil, quietLogger(), opts).Run(ctx, nil)
		if !errors.Is(err, shared.ErrProfileNotFound) {
			t.Fatalf("expected ErrProfileNotFound, got %v", err)
		}
		if run.Status != models.RunAborted || run.Error == "" {
			t.Errorf("unexpected run %+v", run)
		}
		if len(meta.ListCalls()) != 0 || lib.EntryCalls() != 0 {
			t.Error("aborted run must not aggregate or add")
		}
		if len(rec.finished) != 1 || rec.finished[0].Status != models.RunAborted {
			t.Errorf("expected aborted run recorded, got %+v", rec.finished)
		}
	})

	t.Run("holdings failure aborts", func(t *testing.T) {
		lib := &tu.FakeLibrary{Profiles: defaultProfiles(), HoldingsErr: shared.ErrServiceUnavailable}
		_, err := NewSyncEngine(&tu.FakeMetadata{}, lib, nil, quietLogger(), engineOpts(p1)).Run(ctx, nil)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("exclusions failure is treated as empty", func(t *testing.T) {
		meta := &tu.FakeMetadata{Lists: map[string][]models.DiscoverResult{p1.ID: tu.Results(1)}}
		lib := &tu.FakeLibrary{Profiles: defaultProfiles(), ExclusionsErr: shared.ErrAPIRequest}

		run, err := NewSyncEngine(meta, lib, nil, quietLogger(), engineOpts(p1)).Run(ctx, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if run.Report.Count(models.OutcomeAdded) != 1 {
			t.Errorf("expected 1 add, got %+v", run.Report.Decisions)
		}
	})

	t.Run("separate detail lookup", func(t *testing.T) {
		meta := &tu.FakeMetadata{Lists: map[string][]models.DiscoverResult{p1.ID: tu.Results(1)}}
		lookup := &tu.FakeMetadata{Details: map[int64]*models.MovieDetail{
			1: {ExternalID: 1, Title: "From library lookup", TitleSlug: "from-library-lookup-1"},
		}}
		lib := &tu.FakeLibrary{Profiles: defaultProfiles()}

		if _, err := NewSyncEngine(meta, lib, lookup, quietLogger(), engineOpts(p1)).Run(ctx, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(meta.LookupCalls()) != 0 || len(lookup.LookupCalls()) != 1 {
			t.Errorf("expected the injected lookup to be used")
		}
		if added := lib.Added(); len(added) != 1 || added[0].Movie.Title != "From library lookup" {
			t.Errorf("unexpected add %+v", added)
		}
	})

	t.Run("records history and progress", func(t *testing.T) {
		meta := &tu.FakeMetadata{Lists: map[string][]models.DiscoverResult{p1.ID: tu.Results(1, 2)}}
		lib := &tu.FakeLibrary{Profiles: defaultProfiles()}
		rec := &memoryRecorder{err: errors.New("disk full")}
		opts := engineOpts(p1)
		opts.History = rec
		opts.DryRun = true
		prog := make(chan ProgressUpdate, 32)

		run, err := NewSyncEngine(meta, lib, nil, quietLogger(), opts).Run(ctx, prog)
		close(prog)
		if err != nil {
			t.Fatalf("history failures must not fail the run: %v", err)
		}
		if !run.DryRun || run.Report.Count(models.OutcomePlanned) != 2 {
			t.Errorf("unexpected dry run %+v", run.Report.Decisions)
		}
		if len(rec.created) != 1 || rec.created[0] != run.ID || len(rec.finished) != 1 {
			t.Errorf("unexpected history %+v", rec)
		}

		phases := make(map[Phase]int)
		var last ProgressUpdate
		for u := range prog {
			phases[u.Phase]++
			last = u
		}
		for _, p := range []Phase{ResolveProfile, SnapshotLibrary, Aggregate, Reconcile, Finish} {
			if phases[p] == 0 {
				t.Errorf("expected a %s update", p)
			}
		}
		if last.Phase != Finish {
			t.Errorf("expected finish last, got %s", last.Phase)
		}
	})

	t.Run("missing clients", func(t *testing.T) {
		if _, err := NewSyncEngine(nil, nil, nil, nil, EngineOpts{}).Run(ctx, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestPhaseString(t *testing.T) {
	if Reconcile.String() != "reconcile" || Phase(99).String() != "" {
		t.Error("unexpected phase names")
	}
}
