package models

import "encoding/json"

// Provider is a streaming provider as declared in configuration.
type Provider struct {
	ID   string
	Name string
}

// DiscoverResult is one entry of a provider's popularity ranked list.
type DiscoverResult struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	ReleaseDate string          `json:"release_date"`
	Popularity  float64         `json:"popularity"`
	Raw         json.RawMessage `json:"-"`
}

// Candidate is a title collected during aggregation, keyed by its TMDb id.
type Candidate struct {
	ExternalID int64
	Title      string
	Raw        json.RawMessage
	Origins    []Provider // contributing providers in configuration order
	Rank       int        // best 0-based position across providers
}

// HasOrigin reports whether provider id contributed this candidate.
func (c *Candidate) HasOrigin(id string) bool {
	for _, p := range c.Origins {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Image is an artwork reference carried through to the library entry.
type Image struct {
	CoverType string `json:"coverType"`
	URL       string `json:"url,omitempty"`
	RemoteURL string `json:"remoteUrl,omitempty"`
}

// MovieDetail is the richer record needed to create a library entry.
type MovieDetail struct {
	ExternalID int64   `json:"tmdbId"`
	Title      string  `json:"title"`
	TitleSlug  string  `json:"titleSlug"`
	Year       int     `json:"year"`
	Images     []Image `json:"images"`
}

// WatchProvider is a TMDb watch provider available in a region.
type WatchProvider struct {
	ID       int    `json:"provider_id"`
	Name     string `json:"provider_name"`
	Priority int    `json:"display_priority"`
}
