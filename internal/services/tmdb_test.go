package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/toparr/internal/shared"
)

func TestTMDBClient(t *testing.T) {
	t.Run("NewTMDBClient", func(t *testing.T) {
		t.Run("uses default base URL", func(t *testing.T) {
			c := NewTMDBClient(context.Background(), TMDBOpts{APIKey: "k"})
			if c.baseURL != defaultTMDBBaseURL {
				t.Errorf("expected baseURL %s, got %s", defaultTMDBBaseURL, c.baseURL)
			}
			if c.Name() != "TMDb" {
				t.Errorf("expected name TMDb, got %s", c.Name())
			}
		})

		t.Run("trims trailing slash", func(t *testing.T) {
			c := NewTMDBClient(context.Background(), TMDBOpts{BaseURL: "http://tmdb.local/3/"})
			if c.baseURL != "http://tmdb.local/3" {
				t.Errorf("unexpected baseURL %s", c.baseURL)
			}
		})
	})

	t.Run("ListTopByProvider", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/discover/movie" {
				t.Errorf("expected path /discover/movie, got %s", r.URL.Path)
			}
			q := r.URL.Query()
			checks := map[string]string{
				"api_key":              "secret",
				"with_watch_providers": "8",
				"watch_region":         "CH",
				"sort_by":              "popularity.desc",
				"language":             "de-CH",
				"page":                 "1",
			}
			for k, want := range checks {
				if got := q.Get(k); got != want {
					t.Errorf("expected %s=%s, got %s", k, want, got)
				}
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"page": 1,
				"results": []map[string]any{
					{"id": 100, "title": "First", "popularity": 99.5, "release_date": "2025-01-01"},
					{"id": 200, "title": "Second", "popularity": 50.1},
				},
			})
		}))
		defer server.Close()

		c := NewTMDBClient(context.Background(), TMDBOpts{BaseURL: server.URL, APIKey: "secret"})
		results, err := c.ListTopByProvider(context.Background(), "8", "CH", "de-CH", 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].ID != 100 || results[0].Title != "First" {
			t.Errorf("unexpected first result %+v", results[0])
		}
		if len(results[1].Raw) == 0 {
			t.Error("expected raw metadata to be kept")
		}
	})

	t.Run("ListTopByProvider error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"status_code": 7, "status_message": "Invalid API key"})
		}))
		defer server.Close()

		c := NewTMDBClient(context.Background(), TMDBOpts{BaseURL: server.URL, APIKey: "bad"})
		_, err := c.ListTopByProvider(context.Background(), "8", "CH", "", 1)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.Code != http.StatusUnauthorized {
			t.Errorf("expected 401 StatusError, got %v", err)
		}
		if statusErr.Message != "Invalid API key" {
			t.Errorf("expected status message, got %q", statusErr.Message)
		}
	})

	t.Run("bearer token auth", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer v4token" {
				t.Errorf("expected bearer header, got %q", got)
			}
			if r.URL.Query().Get("api_key") != "" {
				t.Error("api_key should not be sent with a bearer token only")
			}
			json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
		}))
		defer server.Close()

		c := NewTMDBClient(context.Background(), TMDBOpts{BaseURL: server.URL, AccessToken: "v4token"})
		if _, err := c.ListTopByProvider(context.Background(), "8", "CH", "", 1); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("LookupByID", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/movie/603":
				json.NewEncoder(w).Encode(map[string]any{
					"id":            603,
					"title":         "The Matrix",
					"release_date":  "1999-03-30",
					"poster_path":   "/poster.jpg",
					"backdrop_path": "/backdrop.jpg",
				})
			default:
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]any{"status_message": "The resource you requested could not be found."})
			}
		}))
		defer server.Close()

		c := NewTMDBClient(context.Background(), TMDBOpts{BaseURL: server.URL, APIKey: "k"})

		detail, err := c.LookupByID(context.Background(), 603)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if detail.Title != "The Matrix" || detail.Year != 1999 {
			t.Errorf("unexpected detail %+v", detail)
		}
		if detail.TitleSlug != "the-matrix-603" {
			t.Errorf("expected slug the-matrix-603, got %s", detail.TitleSlug)
		}
		if len(detail.Images) != 2 || detail.Images[0].CoverType != "poster" {
			t.Errorf("unexpected images %+v", detail.Images)
		}

		_, err = c.LookupByID(context.Background(), 1)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListWatchProviders", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/watch/providers/movie" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("watch_region") != "CH" {
				t.Errorf("expected region CH")
			}
			json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{
					{"provider_id": 8, "provider_name": "Netflix", "display_priority": 1},
					{"provider_id": 337, "provider_name": "Disney Plus", "display_priority": 2},
				},
			})
		}))
		defer server.Close()

		c := NewTMDBClient(context.Background(), TMDBOpts{BaseURL: server.URL, APIKey: "k"})
		providers, err := c.ListWatchProviders(context.Background(), "CH", "de-CH")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(providers) != 2 || providers[1].Name != "Disney Plus" || providers[1].ID != 337 {
			t.Errorf("unexpected providers %+v", providers)
		}
	})

	t.Run("pacing respects context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
		}))
		defer server.Close()

		c := NewTMDBClient(context.Background(), TMDBOpts{BaseURL: server.URL, Limiter: NewPacer(time.Hour)})
		if _, err := c.ListTopByProvider(context.Background(), "8", "CH", "", 1); err != nil {
			t.Fatalf("first request should use the burst token: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := c.ListTopByProvider(ctx, "8", "CH", "", 1); err == nil {
			t.Error("expected second request to fail waiting on the pacer")
		}
	})
}

func TestTitleSlug(t *testing.T) {
	tests := []struct {
		title string
		id    int64
		want  string
	}{
		{"The Matrix", 603, "the-matrix-603"},
		{"Mission: Impossible - Dead Reckoning", 575264, "mission-impossible-dead-reckoning-575264"},
		{"  Amélie  ", 194, "amélie-194"},
		{"!!!", 7, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := TitleSlug(tt.title, tt.id); got != tt.want {
				t.Errorf("TitleSlug(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestNewPacer(t *testing.T) {
	unpaced := NewPacer(0)
	for i := 0; i < 100; i++ {
		if !unpaced.Allow() {
			t.Fatal("zero delay pacer should never block")
		}
	}

	paced := NewPacer(time.Hour)
	if !paced.Allow() {
		t.Fatal("expected burst of one")
	}
	if paced.Allow() {
		t.Error("expected second immediate request to be denied")
	}
}
