// TMDb implementation of [MetadataClient]
//
// Endpoints based on https://developer.themoviedb.org/reference
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultTMDBBaseURL = "https://api.themoviedb.org/3"
	tmdbImageBase      = "https://image.tmdb.org/t/p/original"
)

// TMDBOpts configures a [TMDBClient].
type TMDBOpts struct {
	BaseURL     string
	APIKey      string        // v3 key, sent as api_key query parameter
	AccessToken string        // v4 read access token, sent as a bearer token
	HTTPClient  *http.Client  // base transport; wrapped when AccessToken is set
	Limiter     *rate.Limiter // pacing; nil means unpaced
}

// TMDBClient implements [MetadataClient] against TMDb.
type TMDBClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type tmdbMovie struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	ReleaseDate  string `json:"release_date"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

// NewTMDBClient creates a TMDb client.
func NewTMDBClient(ctx context.Context, opts TMDBOpts) *TMDBClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultTMDBBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	if opts.AccessToken != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.AccessToken,
			TokenType:   "Bearer",
		}))
	}

	return &TMDBClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: client,
		limiter:    opts.Limiter,
	}
}

// Name returns the service name.
func (c *TMDBClient) Name() string {
	return "TMDb"
}

func (c *TMDBClient) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	if err := pace(ctx, c.limiter); err != nil {
		return err
	}

	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	apiURL := c.baseURL + endpoint
	if encoded := query.Encode(); encoded != "" {
		apiURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			StatusMessage string `json:"status_message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return &StatusError{Service: "tmdb", Code: resp.StatusCode, Message: errResp.StatusMessage}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// ListTopByProvider calls GET /discover/movie sorted by popularity for a watch provider and region.
func (c *TMDBClient) ListTopByProvider(ctx context.Context, providerID, region, language string, page int) ([]models.DiscoverResult, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("with_watch_providers", providerID)
	q.Set("watch_region", region)
	q.Set("sort_by", "popularity.desc")
	q.Set("page", strconv.Itoa(page))
	if language != "" {
		q.Set("language", language)
	}

	var body struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := c.doRequest(ctx, "/discover/movie", q, &body); err != nil {
		return nil, err
	}

	results := make([]models.DiscoverResult, 0, len(body.Results))
	for i, raw := range body.Results {
		var r models.DiscoverResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("failed to decode result %d: %w", i, err)
		}
		r.Raw = raw
		results = append(results, r)
	}
	return results, nil
}

// LookupByID calls GET /movie/{id}. A missing title returns [shared.ErrNotFound].
func (c *TMDBClient) LookupByID(ctx context.Context, id int64) (*models.MovieDetail, error) {
	var movie tmdbMovie
	err := c.doRequest(ctx, fmt.Sprintf("/movie/%d", id), nil, &movie)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return nil, fmt.Errorf("%w: tmdb movie %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if movie.ID == 0 {
		return nil, fmt.Errorf("%w: tmdb movie %d", shared.ErrNotFound, id)
	}

	return movie.detail(), nil
}

// ListWatchProviders calls GET /watch/providers/movie for a region.
func (c *TMDBClient) ListWatchProviders(ctx context.Context, region, language string) ([]models.WatchProvider, error) {
	q := url.Values{}
	q.Set("watch_region", region)
	if language != "" {
		q.Set("language", language)
	}

	var body struct {
		Results []models.WatchProvider `json:"results"`
	}
	if err := c.doRequest(ctx, "/watch/providers/movie", q, &body); err != nil {
		return nil, err
	}
	return body.Results, nil
}

func (m tmdbMovie) detail() *models.MovieDetail {
	d := &models.MovieDetail{
		ExternalID: m.ID,
		Title:      m.Title,
		TitleSlug:  TitleSlug(m.Title, m.ID),
		Images:     []models.Image{},
	}
	if len(m.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(m.ReleaseDate[:4]); err == nil {
			d.Year = year
		}
	}
	if m.PosterPath != "" {
		d.Images = append(d.Images, models.Image{CoverType: "poster", RemoteURL: tmdbImageBase + m.PosterPath})
	}
	if m.BackdropPath != "" {
		d.Images = append(d.Images, models.Image{CoverType: "fanart", RemoteURL: tmdbImageBase + m.BackdropPath})
	}
	return d
}

// TitleSlug builds a Radarr style slug: lower-case alphanumerics joined by dashes, suffixed with the TMDb id.
func TitleSlug(title string, id int64) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s-%d", slug, id)
}
