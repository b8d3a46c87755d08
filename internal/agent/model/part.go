package model

// Part is one replacement part record from the reference data. Records are
// immutable once loaded.
type Part struct {
	ID                     string   `json:"part_id"`
	Title                  string   `json:"title"`
	Brand                  string   `json:"brand"`
	Price                  string   `json:"price"`
	PriceValue             float64  `json:"-"`
	Description            string   `json:"description,omitempty"`
	InstallationDifficulty string   `json:"installation_difficulty,omitempty"`
	InstallationTime       string   `json:"installation_time,omitempty"`
	VideoURL               string   `json:"video_url,omitempty"`
	URL                    string   `json:"url"`
	Symptoms               []string `json:"symptoms"`
	RelatedParts           []string `json:"-"`
	ProductTypes           string   `json:"-"`
	Rating                 *float64 `json:"rating,omitempty"`
}

// RatingOr returns the rating, or def when the part is unrated.
func (p Part) RatingOr(def float64) float64 {
	if p.Rating == nil {
		return def
	}
	return *p.Rating
}

// RankingFactors breaks a relevance score down into its components.
type RankingFactors struct {
	BaseRelevance float64 `json:"base_relevance"`
	SymptomMatch  float64 `json:"symptom_match"`
	Popularity    float64 `json:"popularity"`
	PriceFactor   float64 `json:"price_factor"`
}

// ScoredPart is a part with the scores attached by search and reranking.
type ScoredPart struct {
	Part
	Similarity     float64         `json:"-"`
	RelevanceScore *float64        `json:"relevance_score,omitempty"`
	RankingFactors *RankingFactors `json:"ranking_factors,omitempty"`
}

// Relevance returns the reranked score if present, else the raw similarity.
func (s ScoredPart) Relevance() float64 {
	if s.RelevanceScore != nil {
		return *s.RelevanceScore
	}
	return s.Similarity
}
