package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
)

func testParts() []model.Part {
	return []model.Part{
		{ID: "PS11752778", Title: "Refrigerator Door Shelf Bin", Symptoms: []string{"Door won't close"}, ProductTypes: "refrigerator"},
		{ID: "PS11738120", Title: "Ice Maker Assembly", Symptoms: []string{"Ice maker not making ice", "Leaking"}, ProductTypes: "refrigerator"},
		{ID: "PS3406971", Title: "Dishwasher Lower Rack Wheel", Symptoms: []string{"Rack sticks"}, ProductTypes: "dishwasher"},
		{ID: "PS10065979", Title: "Drain Pump", Description: "Pumps water out of the dishwasher", Symptoms: []string{"Not draining", "Leaking"}, ProductTypes: "dishwasher"},
	}
}

func TestSearchRanksByRelevance(t *testing.T) {
	idx := NewIndex(testParts())
	require.Equal(t, 4, idx.Size())

	got, err := idx.Search(context.Background(), "ice maker not making ice", 3)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "PS11738120", got[0].ID)
	assert.InDelta(t, maxSimilarity, got[0].Similarity, 1e-9)
	for _, sp := range got {
		assert.GreaterOrEqual(t, sp.Similarity, minSimilarity)
	}
}

func TestSearchTopK(t *testing.T) {
	idx := NewIndex(testParts())
	got, err := idx.Search(context.Background(), "leaking dishwasher refrigerator", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearchNoMatchIsEmptyNotError(t *testing.T) {
	idx := NewIndex(testParts())
	got, err := idx.Search(context.Background(), "carburetor", 5)
	assert.NoError(t, err)
	assert.Empty(t, got)

	got, err = idx.Search(context.Background(), "the a of", 5)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchUnavailable(t *testing.T) {
	_, err := NewIndex(nil).Search(context.Background(), "ice maker", 5)
	assert.ErrorIs(t, err, errx.ErrSearchUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewIndex(testParts()).Search(ctx, "ice maker", 5)
	assert.ErrorIs(t, err, errx.ErrSearchUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"ice", "maker", "won", "work"}, Tokenize("The ice-maker won't work!"))
}
