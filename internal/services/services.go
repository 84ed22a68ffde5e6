// package services defines the metadata (TMDb) and library (Radarr) clients used by the sync engine
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/shared"
	"golang.org/x/time/rate"
)

// DetailLookup resolves a TMDb id to the full record needed for a library add.
//
// Both [TMDBClient] and [RadarrClient] implement it.
type DetailLookup interface {
	LookupByID(ctx context.Context, id int64) (*models.MovieDetail, error)
}

// MetadataClient reads popularity ranked catalogs from the metadata service.
type MetadataClient interface {
	DetailLookup

	// ListTopByProvider returns one page of a provider's catalog, most popular first.
	ListTopByProvider(ctx context.Context, providerID, region, language string, page int) ([]models.DiscoverResult, error)
}

// LibraryClient reads and mutates the target library.
type LibraryClient interface {
	ListQualityProfiles(ctx context.Context) ([]models.QualityProfile, error)
	ListExclusions(ctx context.Context) ([]models.Exclusion, error)
	ListHoldings(ctx context.Context) ([]models.Holding, error)
	ListLabels(ctx context.Context) ([]models.Label, error)
	CreateLabel(ctx context.Context, text string) (*models.Label, error)

	// CreateEntry adds a movie. Returns an error wrapping [shared.ErrAlreadyExists]
	// when the library reports the title as already present.
	CreateEntry(ctx context.Context, req models.AddRequest) error
}

// StatusError is a non-2xx response from an upstream API.
type StatusError struct {
	Service string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API error: status %d", e.Service, e.Code)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.Code, e.Message)
}

// Unwrap lets callers match any StatusError against [shared.ErrAPIRequest].
func (e *StatusError) Unwrap() error {
	return shared.ErrAPIRequest
}

// NewPacer returns the limiter shared by the HTTP clients: at most one request per delay.
//
// A non-positive delay disables pacing.
func NewPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func pace(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		return fmt.Errorf("pacing wait: %w", err)
	}
	return nil
}
