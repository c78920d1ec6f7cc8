package assistant

import (
	"sort"
	"strings"
	"time"

	"github.com/gearhive/gearhive/internal/websearch"
)

// Supplier tiers for scoring. Tier one is the major retailer the forum
// trusts most; marketplace listings only count when they carry a price.
type ScorerConfig struct {
	MinRelevance int
	MaxResults   int
	TierOne      []string
	TierTwo      []string
	Marketplaces []string
	FreshWindow  time.Duration
}

// DefaultScorerConfig mirrors the tuned production values.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		MinRelevance: 15,
		MaxResults:   8,
		TierOne:      []string{"rockauto"},
		TierTwo:      []string{"partzilla", "autozone"},
		Marketplaces: []string{"ebay", "marketplace"},
		FreshWindow:  24 * time.Hour,
	}
}

// Scorer ranks scraped results against the query and known vehicle.
type Scorer struct {
	cfg ScorerConfig
}

// NewScorer creates a scorer, filling zero config fields with defaults.
func NewScorer(cfg ScorerConfig) *Scorer {
	def := DefaultScorerConfig()
	if cfg.MinRelevance == 0 {
		cfg.MinRelevance = def.MinRelevance
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.TierOne == nil {
		cfg.TierOne = def.TierOne
	}
	if cfg.TierTwo == nil {
		cfg.TierTwo = def.TierTwo
	}
	if cfg.Marketplaces == nil {
		cfg.Marketplaces = def.Marketplaces
	}
	if cfg.FreshWindow <= 0 {
		cfg.FreshWindow = def.FreshWindow
	}
	return &Scorer{cfg: cfg}
}

// Score computes the additive relevance of one result. Every condition
// contributes independently.
func (s *Scorer) Score(result websearch.Result, query string, prefs Preferences) int {
	text := strings.ToLower(result.Title + " " + result.Description)
	score := 0

	for _, term := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(text, term) {
			score += 10
		}
	}

	if prefs.VehicleMake != "" && strings.Contains(text, prefs.VehicleMake) {
		score += 20
	}
	if prefs.VehicleModel != "" && strings.Contains(text, prefs.VehicleModel) {
		score += 15
	}

	supplier := strings.ToLower(result.Supplier)
	source := strings.ToLower(result.Source)
	switch {
	case matchesAny(supplier, s.cfg.TierOne):
		score += 10
	case matchesAny(supplier, s.cfg.TierTwo):
		score += 8
	case (matchesAny(supplier, s.cfg.Marketplaces) || matchesAny(source, s.cfg.Marketplaces)) && result.Price != nil:
		score += 5
	}

	if !result.FetchedAt.IsZero() && time.Since(result.FetchedAt) < s.cfg.FreshWindow {
		score += 5
	}

	return score
}

// RankAndFilter scores the pooled candidates, drops everything at or below
// the minimum relevance, sorts descending, and caps the list. The sort is
// stable so equally scored results keep their pool order.
func (s *Scorer) RankAndFilter(results []websearch.Result, query string, prefs Preferences) []websearch.Result {
	type scored struct {
		result websearch.Result
		score  int
	}

	kept := make([]scored, 0, len(results))
	for _, r := range results {
		if sc := s.Score(r, query, prefs); sc > s.cfg.MinRelevance {
			kept = append(kept, scored{result: r, score: sc})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	if len(kept) > s.cfg.MaxResults {
		kept = kept[:s.cfg.MaxResults]
	}

	out := make([]websearch.Result, len(kept))
	for i, k := range kept {
		out[i] = k.result
	}
	return out
}

func matchesAny(value string, candidates []string) bool {
	for _, c := range candidates {
		if c != "" && strings.Contains(value, c) {
			return true
		}
	}
	return false
}
