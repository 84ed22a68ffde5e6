package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/shared"
	tu "github.com/desertthunder/toparr/internal/testing"
)

func TestResolveQualityProfile(t *testing.T) {
	lib := &tu.FakeLibrary{Profiles: []models.QualityProfile{
		{ID: 1, Name: "Any"},
		{ID: 4, Name: "HD - 2160p/1080p/720p"},
		{ID: 6, Name: "HD - 1080p"},
	}}
	ctx := context.Background()

	tests := []struct {
		name    string
		query   string
		wantID  int
		wantErr error
	}{
		{name: "exact", query: "HD - 2160p/1080p/720p", wantID: 4},
		{name: "case insensitive substring", query: "hd - 2160P", wantID: 4},
		{name: "first match in library order", query: "hd", wantID: 4},
		{name: "not found", query: "Ultra", wantErr: shared.ErrProfileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ResolveQualityProfile(ctx, lib, tt.query)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if p.ID != tt.wantID {
				t.Errorf("expected id %d, got %d", tt.wantID, p.ID)
			}
		})
	}

	t.Run("list failure", func(t *testing.T) {
		failing := &tu.FakeLibrary{ProfilesErr: shared.ErrServiceUnavailable}
		if _, err := ResolveQualityProfile(ctx, failing, "Any"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestLabelResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("existing label is reused", func(t *testing.T) {
		lib := &tu.FakeLibrary{Labels: []models.Label{{ID: 7, Text: "netflix_kw3_2026"}}}
		r := NewLabelResolver(lib, quietLogger())

		id, ok := r.Resolve(ctx, "netflix_kw3_2026")
		if !ok || id != 7 {
			t.Errorf("expected existing id 7, got %d (%v)", id, ok)
		}
		if lib.TotalLabelCreates() != 0 {
			t.Errorf("expected no creates, got %d", lib.TotalLabelCreates())
		}
	})

	t.Run("missing label is created once", func(t *testing.T) {
		lib := &tu.FakeLibrary{}
		r := NewLabelResolver(lib, quietLogger())

		first, ok := r.Resolve(ctx, "netflix_kw3_2026")
		if !ok {
			t.Fatal("expected label to be created")
		}
		second, _ := r.Resolve(ctx, "netflix_kw3_2026")
		if first != second {
			t.Errorf("expected stable id, got %d then %d", first, second)
		}
		if n := lib.LabelCreates("netflix_kw3_2026"); n != 1 {
			t.Errorf("expected 1 create, got %d", n)
		}
	})

	t.Run("exact match only", func(t *testing.T) {
		lib := &tu.FakeLibrary{Labels: []models.Label{{ID: 7, Text: "Netflix_kw3_2026"}}}
		r := NewLabelResolver(lib, quietLogger())

		id, ok := r.Resolve(ctx, "netflix_kw3_2026")
		if !ok || id == 7 {
			t.Errorf("expected a new label, got %d", id)
		}
	})

	t.Run("create failure yields no label", func(t *testing.T) {
		lib := &tu.FakeLibrary{CreateLabelErr: shared.ErrAPIRequest}
		r := NewLabelResolver(lib, quietLogger())

		if _, ok := r.Resolve(ctx, "netflix_kw3_2026"); ok {
			t.Error("expected no label")
		}
		if _, ok := r.Resolve(ctx, "netflix_kw3_2026"); ok {
			t.Error("expected memoized failure")
		}
		if n := lib.LabelCreates("netflix_kw3_2026"); n != 1 {
			t.Errorf("expected a single attempt, got %d", n)
		}
	})

	t.Run("concurrent resolution creates once", func(t *testing.T) {
		lib := &tu.FakeLibrary{}
		r := NewLabelResolver(lib, quietLogger())

		var wg sync.WaitGroup
		ids := make([]int, 20)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ids[i], _ = r.Resolve(ctx, "disney_plus_kw1_2026")
			}(i)
		}
		wg.Wait()

		for _, id := range ids {
			if id != ids[0] {
				t.Fatalf("expected one id, got %v", ids)
			}
		}
		if n := lib.LabelCreates("disney_plus_kw1_2026"); n != 1 {
			t.Errorf("expected 1 create, got %d", n)
		}
	})

	t.Run("peek never creates", func(t *testing.T) {
		lib := &tu.FakeLibrary{Labels: []models.Label{{ID: 3, Text: "a"}}}
		r := NewLabelResolver(lib, quietLogger())

		if id, ok := r.Peek(ctx, "a"); !ok || id != 3 {
			t.Errorf("expected 3, got %d", id)
		}
		if _, ok := r.Peek(ctx, "b"); ok {
			t.Error("expected no label")
		}
		if lib.TotalLabelCreates() != 0 {
			t.Error("peek must not create labels")
		}
	})
}
