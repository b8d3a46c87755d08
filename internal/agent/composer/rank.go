package composer

import (
	"math"
	"sort"
	"strings"

	"github.com/partdesk-core-poc-v1/server/internal/agent/extract"
	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	"github.com/partdesk-core-poc-v1/server/internal/core"
)

const (
	maxSearchQuery   = 180
	symptomKeyword   = 0.1
	maxSymptomBoost  = 0.3
	ratingWeight     = 0.05
	neutralRating    = 3.0
	expensivePrice   = 100.0
	expensivePenalty = -0.05
	alternativeFloor = 0.3
	ratedFallback    = 0.2
	alternativePool  = 20
)

var titleStopWords = map[string]struct{}{
	"and": {}, "or": {}, "the": {}, "a": {}, "an": {}, "for": {}, "with": {}, "of": {},
}

// BuildSearchQuery joins the symptom with the session's appliance and brand,
// drops repeated words (case-insensitive) and caps the length.
func BuildSearchQuery(symptom string, session model.Session) string {
	parts := []string{symptom}
	if session.Appliance != "" {
		parts = append(parts, session.Appliance)
	}
	if session.Brand != "" {
		parts = append(parts, session.Brand)
	}

	seen := make(map[string]struct{})
	var words []string
	for _, w := range strings.Fields(strings.Join(parts, " ")) {
		key := strings.ToLower(w)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		words = append(words, w)
	}
	return core.TruncateRunes(strings.Join(words, " "), maxSearchQuery)
}

// Rerank scores parts by search similarity plus symptom keyword matches, rating
// and a penalty for expensive parts, highest first. Inputs are not modified.
func Rerank(parts []model.ScoredPart, symptom string) []model.ScoredPart {
	keywords := uniqueWords(strings.ToLower(symptom))
	out := make([]model.ScoredPart, 0, len(parts))
	for _, p := range parts {
		partSymptoms := strings.ToLower(strings.Join(p.Symptoms, "|"))
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(partSymptoms, kw) {
				matches++
			}
		}
		symptomBoost := math.Min(float64(matches)*symptomKeyword, maxSymptomBoost)

		popularity := 0.0
		if p.Rating != nil {
			popularity = (*p.Rating - neutralRating) * ratingWeight
		}
		price := 0.0
		if p.PriceValue > expensivePrice {
			price = expensivePenalty
		}

		score := round3(p.Similarity + symptomBoost + popularity + price)
		p.RelevanceScore = &score
		p.RankingFactors = &model.RankingFactors{
			BaseRelevance: round3(p.Similarity),
			SymptomMatch:  round3(symptomBoost),
			Popularity:    round3(popularity),
			PriceFactor:   round3(price),
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].RelevanceScore > *out[j].RelevanceScore
	})
	return out
}

// SymptomConfidence adjusts the routed confidence by how clearly the top
// ranked part stands out.
func SymptomConfidence(ranked []model.ScoredPart, base float64) float64 {
	if len(ranked) == 0 {
		return 0.3
	}
	top := ranked[0].Relevance()
	gap := 0.2
	if len(ranked) >= 2 {
		gap = top - ranked[1].Relevance()
	}

	boost := 0.0
	switch {
	case top > 0.8:
		boost += 0.15
	case top > 0.6:
		boost += 0.05
	}
	if gap > 0.2 {
		boost += 0.1
	}
	return math.Min(base+boost, 0.95)
}

// FilterByModel keeps the parts listed as compatible with the model.
func FilterByModel(parts []model.ScoredPart, compatible []string) []model.ScoredPart {
	if len(compatible) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(compatible))
	for _, id := range compatible {
		set[id] = struct{}{}
	}
	var out []model.ScoredPart
	for _, p := range parts {
		if _, ok := set[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// TitleSimilarity is the Jaccard index of the two titles' word sets, ignoring
// stop words.
func TitleSimilarity(a, b string) float64 {
	wa, wb := titleWords(a), titleWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

// alternatives returns up to limit parts compatible with the model that look
// like the original by title; when none do, the best rated compatible parts.
func (c *Composer) alternatives(modelID string, original model.Part, limit int) []model.ScoredPart {
	ids := c.catalog.CompatibleParts(modelID)
	if len(ids) > alternativePool {
		ids = ids[:alternativePool]
	}

	var similar, pool []model.ScoredPart
	for _, id := range ids {
		if id == original.ID {
			continue
		}
		p, ok := c.catalog.LookupPart(id)
		if !ok {
			continue
		}
		pool = append(pool, model.ScoredPart{Part: p})
		if sim := TitleSimilarity(original.Title, p.Title); sim > alternativeFloor {
			score := sim
			similar = append(similar, model.ScoredPart{Part: p, RelevanceScore: &score})
		}
	}

	if len(similar) > 0 {
		sort.SliceStable(similar, func(i, j int) bool {
			return *similar[i].RelevanceScore > *similar[j].RelevanceScore
		})
		return head(similar, limit)
	}

	for i := range pool {
		score := ratedFallback
		pool[i].RelevanceScore = &score
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].RatingOr(0) > pool[j].RatingOr(0)
	})
	return head(pool, limit)
}

// relatedParts resolves the part's related-part references that exist in the catalog.
func (c *Composer) relatedParts(p model.Part, limit int) []model.ScoredPart {
	refs := p.RelatedParts
	if len(refs) > limit {
		refs = refs[:limit]
	}
	out := []model.ScoredPart{}
	for _, ref := range refs {
		id := extract.PartPattern.FindString(strings.ToUpper(ref))
		if id == "" {
			continue
		}
		if rp, ok := c.catalog.LookupPart(id); ok {
			out = append(out, model.ScoredPart{Part: rp})
		}
	}
	return out
}

func titleWords(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if _, stop := titleStopWords[w]; !stop {
			out[w] = struct{}{}
		}
	}
	return out
}

func uniqueWords(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range strings.Fields(s) {
		if _, ok := seen[w]; !ok {
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

func head(parts []model.ScoredPart, n int) []model.ScoredPart {
	if len(parts) > n {
		return parts[:n]
	}
	return parts
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
