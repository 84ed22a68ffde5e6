package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/services"
	"github.com/desertthunder/toparr/internal/shared"
)

// ResolveQualityProfile returns the first profile, in library order, whose name
// contains name case-insensitively.
func ResolveQualityProfile(ctx context.Context, lib services.LibraryClient, name string) (*models.QualityProfile, error) {
	profiles, err := lib.ListQualityProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quality profiles: %w", err)
	}

	needle := strings.ToLower(name)
	for _, p := range profiles {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", shared.ErrProfileNotFound, name)
}

// LabelResolver resolves label text to a library label id, creating missing labels.
//
// Results are memoized for the lifetime of the resolver, which is one run.
// Resolve is safe for concurrent use; a given text is looked up or created at most once.
type LabelResolver struct {
	lib    services.LibraryClient
	logger *log.Logger

	mu       sync.Mutex
	existing map[string]int // labels listed from the library, loaded on first use
	memo     map[string]int // 0 means resolution failed and the entry goes unlabelled
}

// NewLabelResolver creates a resolver backed by lib.
func NewLabelResolver(lib services.LibraryClient, logger *log.Logger) *LabelResolver {
	if logger == nil {
		logger = log.Default()
	}
	return &LabelResolver{lib: lib, logger: logger, memo: make(map[string]int)}
}

// Resolve returns the id of the label with exactly text, creating it when absent.
// ok is false when the label could neither be found nor created.
func (r *LabelResolver) Resolve(ctx context.Context, text string) (id int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, seen := r.memo[text]; seen {
		return id, id != 0
	}

	id = r.lookup(ctx, text)
	if id == 0 {
		label, err := r.lib.CreateLabel(ctx, text)
		if err != nil {
			r.logger.Warn("failed to create label, continuing without it", "label", text, "error", err)
		} else {
			id = label.ID
			r.logger.Info("created label", "label", text, "id", id)
		}
	}

	r.memo[text] = id
	return id, id != 0
}

// Peek returns the id of an existing label without creating one.
func (r *LabelResolver) Peek(ctx context.Context, text string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, seen := r.memo[text]; seen {
		return id, id != 0
	}
	id := r.lookup(ctx, text)
	return id, id != 0
}

// lookup must be called with mu held.
func (r *LabelResolver) lookup(ctx context.Context, text string) int {
	if r.existing == nil {
		labels, err := r.lib.ListLabels(ctx)
		if err != nil {
			r.logger.Warn("failed to list labels", "error", err)
			return 0
		}
		r.existing = make(map[string]int, len(labels))
		for _, l := range labels {
			if _, dup := r.existing[l.Text]; !dup {
				r.existing[l.Text] = l.ID
			}
		}
	}
	return r.existing[text]
}
