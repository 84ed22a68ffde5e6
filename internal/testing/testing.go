// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/shared"
)

// FakeMetadata is a test double for [services.MetadataClient].
//
// Lists holds page one of each provider's catalog; later pages are empty.
// LookupByID synthesizes a record unless the id is in Details, Missing or LookupErr.
type FakeMetadata struct {
	Lists     map[string][]models.DiscoverResult
	ListErr   map[string]error
	Details   map[int64]*models.MovieDetail
	Missing   map[int64]bool
	LookupErr error

	mu          sync.Mutex
	listCalls   []string
	lookupCalls []int64
}

func (f *FakeMetadata) ListTopByProvider(ctx context.Context, providerID, region, language string, page int) ([]models.DiscoverResult, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, providerID)
	f.mu.Unlock()

	if err := f.ListErr[providerID]; err != nil {
		return nil, err
	}
	if page > 1 {
		return nil, nil
	}
	return f.Lists[providerID], nil
}

func (f *FakeMetadata) LookupByID(ctx context.Context, id int64) (*models.MovieDetail, error) {
	f.mu.Lock()
	f.lookupCalls = append(f.lookupCalls, id)
	f.mu.Unlock()

	if f.LookupErr != nil {
		return nil, f.LookupErr
	}
	if f.Missing[id] {
		return nil, fmt.Errorf("%w: movie %d", shared.ErrNotFound, id)
	}
	if d, ok := f.Details[id]; ok {
		return d, nil
	}
	return &models.MovieDetail{
		ExternalID: id,
		Title:      fmt.Sprintf("Movie %d", id),
		TitleSlug:  fmt.Sprintf("movie-%d", id),
		Year:       2026,
		Images:     []models.Image{},
	}, nil
}

// ListCalls returns the provider ids listed so far.
func (f *FakeMetadata) ListCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.listCalls...)
}

// LookupCalls returns the ids looked up so far.
func (f *FakeMetadata) LookupCalls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.lookupCalls...)
}

// FakeLibrary is a test double for [services.LibraryClient].
//
// Successful adds append to Holdings, so a second run sees the first run's adds.
type FakeLibrary struct {
	Profiles   []models.QualityProfile
	Exclusions []models.Exclusion
	Holdings   []models.Holding
	Labels     []models.Label

	ProfilesErr    error
	ExclusionsErr  error
	HoldingsErr    error
	LabelsErr      error
	CreateLabelErr error
	EntryErr       map[int64]error // per id add failure
	AlreadyPresent map[int64]bool  // ids the add call reports as duplicates

	mu          sync.Mutex
	added       []models.AddRequest
	entryCalls  int
	labelCreate map[string]int
	nextLabelID int
}

func (f *FakeLibrary) ListQualityProfiles(ctx context.Context) ([]models.QualityProfile, error) {
	if f.ProfilesErr != nil {
		return nil, f.ProfilesErr
	}
	return f.Profiles, nil
}

func (f *FakeLibrary) ListExclusions(ctx context.Context) ([]models.Exclusion, error) {
	if f.ExclusionsErr != nil {
		return nil, f.ExclusionsErr
	}
	return f.Exclusions, nil
}

func (f *FakeLibrary) ListHoldings(ctx context.Context) ([]models.Holding, error) {
	if f.HoldingsErr != nil {
		return nil, f.HoldingsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Holding(nil), f.Holdings...), nil
}

func (f *FakeLibrary) ListLabels(ctx context.Context) ([]models.Label, error) {
	if f.LabelsErr != nil {
		return nil, f.LabelsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Label(nil), f.Labels...), nil
}

func (f *FakeLibrary) CreateLabel(ctx context.Context, text string) (*models.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.labelCreate == nil {
		f.labelCreate = make(map[string]int)
	}
	f.labelCreate[text]++
	if f.CreateLabelErr != nil {
		return nil, f.CreateLabelErr
	}

	if f.nextLabelID == 0 {
		f.nextLabelID = 100
	}
	f.nextLabelID++
	label := models.Label{ID: f.nextLabelID, Text: text}
	f.Labels = append(f.Labels, label)
	return &label, nil
}

func (f *FakeLibrary) CreateEntry(ctx context.Context, req models.AddRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entryCalls++
	id := req.Movie.ExternalID
	if err := f.EntryErr[id]; err != nil {
		return err
	}
	if f.AlreadyPresent[id] {
		return fmt.Errorf("%w: This movie has already been added", shared.ErrAlreadyExists)
	}
	f.added = append(f.added, req)
	f.Holdings = append(f.Holdings, models.Holding{ID: len(f.Holdings) + 1, ExternalID: id, Title: req.Movie.Title})
	return nil
}

// Added returns the successful add requests in call order.
func (f *FakeLibrary) Added() []models.AddRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AddRequest(nil), f.added...)
}

// EntryCalls returns how many add calls were made, including failed ones.
func (f *FakeLibrary) EntryCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entryCalls
}

// LabelCreates returns how many times text was created.
func (f *FakeLibrary) LabelCreates(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.labelCreate[text]
}

// TotalLabelCreates returns the number of create-label calls.
func (f *FakeLibrary) TotalLabelCreates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.labelCreate {
		n += c
	}
	return n
}

// Results builds a provider list from ids, most popular first.
func Results(ids ...int64) []models.DiscoverResult {
	results := make([]models.DiscoverResult, len(ids))
	for i, id := range ids {
		results[i] = models.DiscoverResult{ID: id, Title: fmt.Sprintf("Movie %d", id), Popularity: float64(100 - i)}
	}
	return results
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// FailingTransport fails every HTTP round trip with err.
type FailingTransport struct {
	Err error
}

func (f FailingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, f.Err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
