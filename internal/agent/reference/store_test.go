package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk-core-poc-v1/server/internal/agent/model"
	errx "github.com/partdesk-core-poc-v1/server/internal/core/error"
)

func loadTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Load(model.ReferenceConfig{
		PartMapPath:  "testdata/part_id_map.json",
		ModelMapPath: "testdata/model_id_to_parts_map.json",
	})
	require.NoError(t, err)
	return s
}

func TestLoadDecodesLooseRecords(t *testing.T) {
	s := loadTestStore(t)
	assert.Equal(t, Stats{Parts: 3, Models: 2}, s.Stats())

	p, ok := s.LookupPart("ps11752778")
	require.True(t, ok)
	assert.Equal(t, "Refrigerator Door Shelf Bin", p.Title)
	assert.Equal(t, []string{"Door won't open or close", "Ice maker won't dispense ice"}, p.Symptoms)
	assert.Equal(t, []string{"PS12345678 Shelf Clip", "PS99999999 Missing"}, p.RelatedParts)
	assert.Empty(t, p.VideoURL)
	assert.InDelta(t, 44.95, p.PriceValue, 1e-9)
	require.NotNil(t, p.Rating)
	assert.InDelta(t, 4.8, *p.Rating, 1e-9)

	clip, ok := s.LookupPart("PS12345678")
	require.True(t, ok, "id falls back to the map key")
	assert.Equal(t, "12.5", clip.Price)
	assert.Nil(t, clip.Rating)
	assert.Equal(t, []string{"Noisy"}, clip.Symptoms)

	wheel, _ := s.LookupPart("PS3406971")
	assert.InDelta(t, 1024.0, wheel.PriceValue, 1e-9)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(model.ReferenceConfig{PartMapPath: "testdata/nope.json", ModelMapPath: "testdata/nope.json"})
	assert.ErrorIs(t, err, errx.ErrReferenceLoad)
}

func TestModelLookupsNormalize(t *testing.T) {
	s := loadTestStore(t)

	assert.True(t, s.ModelExists("WRX735SDHZ08"))
	assert.True(t, s.ModelExists("wdt780saem1"))
	assert.False(t, s.ModelExists("UNKNOWN123"))

	assert.Equal(t, []string{"PS11752778", "PS12345678"}, s.CompatibleParts("WRX735SDHZ08"))
	assert.True(t, s.IsCompatible("WDT780SAEM1", "ps3406971"))
	assert.False(t, s.IsCompatible("WDT780SAEM1", "PS11752778"))
	assert.Nil(t, s.CompatibleParts("UNKNOWN123"))
}

func TestPopularParts(t *testing.T) {
	s := loadTestStore(t)

	fridge := s.PopularParts("Refrigerator", 10)
	require.Len(t, fridge, 2)
	assert.Equal(t, "PS11752778", fridge[0].ID, "rated 4.8 beats unrated")
	assert.Equal(t, 0.5, fridge[0].Similarity)

	alias := s.PopularParts("fridge", 10)
	require.Len(t, alias, 2)
	for _, p := range alias {
		assert.Contains(t, p.ProductTypes, "refrigerator")
	}

	none := s.PopularParts("microwave", 2)
	require.Len(t, none, 2)
	assert.Equal(t, 0.4, none[0].Similarity)

	assert.Nil(t, s.PopularParts("dishwasher", 0))
}

func TestNormalizeModelID(t *testing.T) {
	assert.Equal(t, "WRX735SDHZ08", NormalizeModelID(" wrx735-sdhz08 "))
	assert.Equal(t, "", NormalizeModelID("--"))
}
