package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/toparr/internal/models"
	"github.com/desertthunder/toparr/internal/services"
)

// discoverPageSize is the number of results TMDb returns per discover page.
const discoverPageSize = 20

// CandidateSet is the deduplicated result of an aggregation, keyed by external id.
//
// Candidates are kept in first-seen order. The set also records which ids each
// provider's top-N list contained, which is what origin derivation consults.
type CandidateSet struct {
	providers  []models.Provider
	order      []int64
	byID       map[int64]*models.Candidate
	membership map[string]map[int64]struct{}
}

// NewCandidateSet creates an empty set for providers in configuration order.
func NewCandidateSet(providers []models.Provider) *CandidateSet {
	return &CandidateSet{
		providers:  providers,
		byID:       make(map[int64]*models.Candidate),
		membership: make(map[string]map[int64]struct{}),
	}
}

// Add merges one entry of provider p's list at 0-based position rank.
func (s *CandidateSet) Add(p models.Provider, r models.DiscoverResult, rank int) {
	members := s.membership[p.ID]
	if members == nil {
		members = make(map[int64]struct{})
		s.membership[p.ID] = members
	}
	members[r.ID] = struct{}{}

	c, ok := s.byID[r.ID]
	if !ok {
		s.byID[r.ID] = &models.Candidate{
			ExternalID: r.ID,
			Title:      r.Title,
			Raw:        r.Raw,
			Origins:    []models.Provider{p},
			Rank:       rank,
		}
		s.order = append(s.order, r.ID)
		return
	}

	if !c.HasOrigin(p.ID) {
		c.Origins = append(c.Origins, p)
	}
	if rank < c.Rank {
		c.Rank = rank
	}
}

// Get returns the candidate with external id id.
func (s *CandidateSet) Get(id int64) (*models.Candidate, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// Len returns the number of distinct candidates.
func (s *CandidateSet) Len() int {
	return len(s.order)
}

// Candidates returns the candidates in first-seen order.
func (s *CandidateSet) Candidates() []*models.Candidate {
	out := make([]*models.Candidate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Titles returns candidate titles in first-seen order.
func (s *CandidateSet) Titles() []string {
	titles := make([]string, 0, len(s.order))
	for _, id := range s.order {
		titles = append(titles, s.byID[id].Title)
	}
	return titles
}

// Providers returns the providers the set was built for, in configuration order.
func (s *CandidateSet) Providers() []models.Provider {
	return s.providers
}

// Contains reports whether provider providerID listed id in its top-N.
func (s *CandidateSet) Contains(providerID string, id int64) bool {
	_, ok := s.membership[providerID][id]
	return ok
}

// Origin returns the display name of the configuration-order-first provider among
// the candidate's aggregation-time origins, or [SentinelOrigin].
func (s *CandidateSet) Origin(c *models.Candidate) string {
	for _, p := range s.providers {
		if c.HasOrigin(p.ID) {
			return p.Name
		}
	}
	return SentinelOrigin
}

// OriginFromMembership derives the origin by walking the providers in configuration
// order and returning the first whose top-N list contains id. It must agree with [CandidateSet.Origin].
func (s *CandidateSet) OriginFromMembership(id int64) string {
	for _, p := range s.providers {
		if s.Contains(p.ID, id) {
			return p.Name
		}
	}
	return SentinelOrigin
}

// Aggregator merges per-provider top-N lists into a [CandidateSet].
type Aggregator struct {
	metadata services.MetadataClient
	region   string
	language string
	logger   *log.Logger
}

// NewAggregator creates an Aggregator querying metadata for region and language.
func NewAggregator(metadata services.MetadataClient, region, language string, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{metadata: metadata, region: region, language: language, logger: logger}
}

// Aggregate fetches each provider's top-N in configuration order and merges them.
//
// A provider whose fetch fails is logged and contributes nothing.
func (a *Aggregator) Aggregate(ctx context.Context, providers []models.Provider, topN int) *CandidateSet {
	set := NewCandidateSet(providers)

	for _, p := range providers {
		logger := a.logger.With("provider", p.Name)

		results, err := a.fetchTop(ctx, p, topN)
		if err != nil {
			logger.Error("failed to fetch provider catalog", "provider_id", p.ID, "error", err)
			continue
		}

		logger.Info("fetched top titles", "count", len(results), "region", a.region)
		for rank, r := range results {
			logger.Debug("candidate", "rank", rank, "title", r.Title, "tmdb_id", r.ID)
			set.Add(p, r, rank)
		}
	}

	return set
}

// fetchTop pages through a provider's catalog until topN results are collected
// or a page comes back empty.
func (a *Aggregator) fetchTop(ctx context.Context, p models.Provider, topN int) ([]models.DiscoverResult, error) {
	var results []models.DiscoverResult
	pages := (topN + discoverPageSize - 1) / discoverPageSize

	for page := 1; page <= pages && len(results) < topN; page++ {
		batch, err := a.metadata.ListTopByProvider(ctx, p.ID, a.region, a.language, page)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		results = append(results, batch...)
	}

	if len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}
