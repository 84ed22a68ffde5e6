package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/shared"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Ensure BreakerLibrary implements LibraryClient
var _ LibraryClient = (*BreakerLibrary)(nil)

// BreakerOpts tunes the circuit breaker around a [LibraryClient].
type BreakerOpts struct {
	Name                string
	ConsecutiveFailures uint32        // failures in a row that open the circuit (default 5)
	Timeout             time.Duration // time spent open before a half-open probe (default 30s)
	Logger              *log.Logger
}

// BreakerLibrary wraps a [LibraryClient] with a circuit breaker so an unreachable
// library fails the remaining candidates fast instead of waiting on each call.
//
// Duplicate adds and missing lookups are answers, not outages, and count as successes.
type BreakerLibrary struct {
	inner LibraryClient
	cb    *gobreaker.CircuitBreaker[any]
}

// NewBreakerLibrary wraps inner.
func NewBreakerLibrary(inner LibraryClient, opts BreakerOpts) *BreakerLibrary {
	if opts.Name == "" {
		opts.Name = "library"
	}
	if opts.ConsecutiveFailures == 0 {
		opts.ConsecutiveFailures = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	threshold := opts.ConsecutiveFailures
	logger := opts.Logger

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Timeout:     opts.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, shared.ErrAlreadyExists) || errors.Is(err, shared.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			}
		},
	})

	return &BreakerLibrary{inner: inner, cb: cb}
}

// State returns the breaker state name ("closed", "half-open", "open").
func (b *BreakerLibrary) State() string {
	return b.cb.State().String()
}

func guarded[T any](b *BreakerLibrary, fn func() (T, error)) (T, error) {
	var zero T
	res, err := b.cb.Execute(func() (any, error) {
		v, err := fn()
		return v, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if err != nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, nil
	}
	return v, nil
}

func (b *BreakerLibrary) ListQualityProfiles(ctx context.Context) ([]models.QualityProfile, error) {
	return guarded(b, func() ([]models.QualityProfile, error) { return b.inner.ListQualityProfiles(ctx) })
}

func (b *BreakerLibrary) ListExclusions(ctx context.Context) ([]models.Exclusion, error) {
	return guarded(b, func() ([]models.Exclusion, error) { return b.inner.ListExclusions(ctx) })
}

func (b *BreakerLibrary) ListHoldings(ctx context.Context) ([]models.Holding, error) {
	return guarded(b, func() ([]models.Holding, error) { return b.inner.ListHoldings(ctx) })
}

func (b *BreakerLibrary) ListLabels(ctx context.Context) ([]models.Label, error) {
	return guarded(b, func() ([]models.Label, error) { return b.inner.ListLabels(ctx) })
}

func (b *BreakerLibrary) CreateLabel(ctx context.Context, text string) (*models.Label, error) {
	return guarded(b, func() (*models.Label, error) { return b.inner.CreateLabel(ctx, text) })
}

func (b *BreakerLibrary) CreateEntry(ctx context.Context, req models.AddRequest) error {
	_, err := guarded(b, func() (struct{}, error) { return struct{}{}, b.inner.CreateEntry(ctx, req) })
	return err
}
