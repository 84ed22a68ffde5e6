// Radarr implementation of [LibraryClient]
//
// Radarr v3 API: https://radarr.video/docs/api/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/shared"
	"golang.org/x/time/rate"
)

const defaultRadarrBaseURL = "http://127.0.0.1:7878"

// radarrDuplicateMessage is the lower-cased core of Radarr's answer to a duplicate add.
// Other validations such as "Path is already configured" are real failures.
const radarrDuplicateMessage = "already been added"

// RadarrOpts configures a [RadarrClient].
type RadarrOpts struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

// RadarrClient implements [LibraryClient] and [DetailLookup] against a Radarr instance.
type RadarrClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// RadarrStatus is the subset of /system/status used for connectivity checks.
type RadarrStatus struct {
	AppName string `json:"appName"`
	Version string `json:"version"`
}

type radarrAddOptions struct {
	SearchForMovie bool `json:"searchForMovie"`
}

type radarrAddPayload struct {
	Title               string           `json:"title"`
	QualityProfileID    int              `json:"qualityProfileId"`
	TitleSlug           string           `json:"titleSlug,omitempty"`
	Images              []models.Image   `json:"images"`
	TmdbID              int64            `json:"tmdbId"`
	Year                int              `json:"year,omitempty"`
	Monitored           bool             `json:"monitored"`
	RootFolderPath      string           `json:"rootFolderPath"`
	MinimumAvailability string           `json:"minimumAvailability,omitempty"`
	AddOptions          radarrAddOptions `json:"addOptions"`
	Tags                []int            `json:"tags"`
}

// radarrValidationError is one element of Radarr's 400 response body.
type radarrValidationError struct {
	PropertyName string `json:"propertyName"`
	ErrorMessage string `json:"errorMessage"`
}

// NewRadarrClient creates a Radarr client.
func NewRadarrClient(opts RadarrOpts) *RadarrClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultRadarrBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &RadarrClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: opts.HTTPClient,
		limiter:    opts.Limiter,
	}
}

// Name returns the service name.
func (r *RadarrClient) Name() string {
	return "Radarr"
}

func (r *RadarrClient) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+"/api/v3"+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", r.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &StatusError{Service: "radarr", Code: resp.StatusCode, Message: radarrMessage(raw)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// radarrMessage extracts a readable message from an error body, which is either
// a validation array, an object with "message", or plain text.
func radarrMessage(raw []byte) string {
	var validation []radarrValidationError
	if err := json.Unmarshal(raw, &validation); err == nil && len(validation) > 0 {
		msgs := make([]string, 0, len(validation))
		for _, v := range validation {
			msgs = append(msgs, v.ErrorMessage)
		}
		return strings.Join(msgs, "; ")
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return strings.TrimSpace(string(raw))
}

// Status calls GET /system/status.
func (r *RadarrClient) Status(ctx context.Context) (*RadarrStatus, error) {
	var status RadarrStatus
	if err := r.doRequest(ctx, http.MethodGet, "/system/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListQualityProfiles calls GET /qualityprofile. Order is the library's.
func (r *RadarrClient) ListQualityProfiles(ctx context.Context) ([]models.QualityProfile, error) {
	var profiles []models.QualityProfile
	if err := r.doRequest(ctx, http.MethodGet, "/qualityprofile", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// ListExclusions calls GET /exclusions.
func (r *RadarrClient) ListExclusions(ctx context.Context) ([]models.Exclusion, error) {
	var exclusions []models.Exclusion
	if err := r.doRequest(ctx, http.MethodGet, "/exclusions", nil, &exclusions); err != nil {
		return nil, err
	}
	return exclusions, nil
}

// ListHoldings calls GET /movie.
func (r *RadarrClient) ListHoldings(ctx context.Context) ([]models.Holding, error) {
	var holdings []models.Holding
	if err := r.doRequest(ctx, http.MethodGet, "/movie", nil, &holdings); err != nil {
		return nil, err
	}
	return holdings, nil
}

// ListLabels calls GET /tag.
func (r *RadarrClient) ListLabels(ctx context.Context) ([]models.Label, error) {
	var labels []models.Label
	if err := r.doRequest(ctx, http.MethodGet, "/tag", nil, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// CreateLabel calls POST /tag.
func (r *RadarrClient) CreateLabel(ctx context.Context, text string) (*models.Label, error) {
	var label models.Label
	if err := r.doRequest(ctx, http.MethodPost, "/tag", models.Label{Text: text}, &label); err != nil {
		return nil, err
	}
	if label.ID == 0 {
		return nil, fmt.Errorf("%w: radarr returned no id for tag %q", shared.ErrAPIRequest, text)
	}
	return &label, nil
}

// LookupByID calls GET /movie/lookup/tmdb, which returns Radarr's own record for a TMDb id.
func (r *RadarrClient) LookupByID(ctx context.Context, id int64) (*models.MovieDetail, error) {
	if err := pace(ctx, r.limiter); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("tmdbId", fmt.Sprintf("%d", id))

	var detail models.MovieDetail
	err := r.doRequest(ctx, http.MethodGet, "/movie/lookup/tmdb?"+q.Encode(), nil, &detail)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return nil, fmt.Errorf("%w: radarr lookup %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if detail.ExternalID == 0 || detail.Title == "" {
		return nil, fmt.Errorf("%w: radarr lookup %d", shared.ErrNotFound, id)
	}
	if detail.Images == nil {
		detail.Images = []models.Image{}
	}
	return &detail, nil
}

// CreateEntry calls POST /movie. Radarr answers 201 on success and 400 with
// "This movie has already been added" for duplicates.
func (r *RadarrClient) CreateEntry(ctx context.Context, req models.AddRequest) error {
	tags := req.LabelIDs
	if tags == nil {
		tags = []int{}
	}
	images := req.Movie.Images
	if images == nil {
		images = []models.Image{}
	}

	payload := radarrAddPayload{
		Title:               req.Movie.Title,
		QualityProfileID:    req.QualityProfileID,
		TitleSlug:           req.Movie.TitleSlug,
		Images:              images,
		TmdbID:              req.Movie.ExternalID,
		Year:                req.Movie.Year,
		Monitored:           req.Monitored,
		RootFolderPath:      req.RootFolder,
		MinimumAvailability: req.MinimumAvailability,
		AddOptions:          radarrAddOptions{SearchForMovie: req.SearchOnAdd},
		Tags:                tags,
	}

	err := r.doRequest(ctx, http.MethodPost, "/movie", payload, nil)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(statusErr.Message), radarrDuplicateMessage) {
		return fmt.Errorf("%w: %s", shared.ErrAlreadyExists, statusErr.Message)
	}
	return err
}
