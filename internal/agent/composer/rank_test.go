package composer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
)

func TestBuildSearchQuery(t *testing.T) {
	q := BuildSearchQuery("Refrigerator ice maker not working", model.Session{Appliance: "refrigerator", Brand: "Whirlpool"})
	assert.Equal(t, "Refrigerator ice maker not working Whirlpool", q)

	long := BuildSearchQuery(stringOfWords(100), model.Session{})
	assert.LessOrEqual(t, len(long), 180)

	accented := BuildSearchQuery(strings.Repeat("a", 179)+"é leaking", model.Session{})
	assert.True(t, utf8.ValidString(accented))
	assert.Equal(t, strings.Repeat("a", 179)+"é", accented)
}

func stringOfWords(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += "word" + string(rune('a'+i%26)) + string(rune('a'+i/26)) + " "
	}
	return out
}

func TestRerank(t *testing.T) {
	parts := []model.ScoredPart{
		{Part: model.Part{ID: "PS1", Symptoms: []string{"Leaking"}, PriceValue: 150, Rating: rating(5)}, Similarity: 0.5},
		{Part: model.Part{ID: "PS2", Symptoms: []string{"Ice maker not making ice"}}, Similarity: 0.5},
	}
	ranked := Rerank(parts, "ice maker not working")
	require.Len(t, ranked, 2)
	assert.Equal(t, "PS2", ranked[0].ID)
	assert.InDelta(t, 0.8, *ranked[0].RelevanceScore, 1e-9)
	assert.InDelta(t, 0.3, ranked[0].RankingFactors.SymptomMatch, 1e-9)

	assert.InDelta(t, 0.55, *ranked[1].RelevanceScore, 1e-9)
	assert.InDelta(t, 0.1, ranked[1].RankingFactors.Popularity, 1e-9)
	assert.InDelta(t, -0.05, ranked[1].RankingFactors.PriceFactor, 1e-9)
	assert.Nil(t, parts[0].RelevanceScore, "input untouched")
}

func TestSymptomConfidence(t *testing.T) {
	s := func(v float64) model.ScoredPart { return model.ScoredPart{RelevanceScore: &v} }

	assert.InDelta(t, 0.3, SymptomConfidence(nil, 0.9), 1e-9)
	assert.InDelta(t, 0.7+0.15, SymptomConfidence([]model.ScoredPart{s(0.85)}, 0.7), 1e-9)
	assert.InDelta(t, 0.6+0.05, SymptomConfidence([]model.ScoredPart{s(0.7), s(0.65)}, 0.6), 1e-9)
	assert.InDelta(t, 0.95, SymptomConfidence([]model.ScoredPart{s(0.9), s(0.2)}, 0.9), 1e-9)
}

func TestTitleSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, TitleSimilarity("The Door Bin", "door bin"), 1e-9)
	assert.InDelta(t, 0.5, TitleSimilarity("door shelf bin", "door shelf clip"), 1e-9)
	assert.Zero(t, TitleSimilarity("the and", "door"))
}

func TestFilterByModel(t *testing.T) {
	parts := []model.ScoredPart{{Part: model.Part{ID: "PS1"}}, {Part: model.Part{ID: "PS2"}}}
	assert.Len(t, FilterByModel(parts, []string{"PS2"}), 1)
	assert.Empty(t, FilterByModel(parts, nil))
}
