package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfabric/bidfilter/engine/internal/state"
	"github.com/adfabric/bidfilter/engine/models"
)

// TestCreativeFilterFormatMatching exercises S6: two configs with creatives
// {nil, 100x100, 300x300} and {100x100, 200x200} against impressions with
// varying accepted formats.
func TestCreativeFilterFormatMatching(t *testing.T) {
	f := NewCreativeFilter()
	f.AddConfig(0, &models.AgentConfig{Creatives: []models.CreativeConfig{
		{Format: models.AdFormat{}},
		{Format: models.AdFormat{Width: 100, Height: 100}},
		{Format: models.AdFormat{Width: 300, Height: 300}},
	}})
	f.AddConfig(1, &models.AgentConfig{Creatives: []models.CreativeConfig{
		{Format: models.AdFormat{Width: 100, Height: 100}},
		{Format: models.AdFormat{Width: 200, Height: 200}},
	}})

	req := &models.BidRequest{Imp: []models.Impression{
		{Formats: []models.AdFormat{{Width: 100, Height: 100}}},
		{Formats: []models.AdFormat{{Width: 400, Height: 400}}},
	}}
	st := state.New(req, nil, bitsetFromIndices(0, 1), []int{3, 2})
	require.NoError(t, f.Filter(st))

	// imp0 accepts only 100x100: c0's creative 1 and c1's creative 0.
	assert.True(t, st.Creatives(0).Row(1).Test(0))
	assert.True(t, st.Creatives(0).Row(0).Test(1))

	// imp1 accepts only 400x400: no creative in either config has that
	// format, so nothing is biddable there, but both configs remain
	// eligible overall because imp0 already gave each a biddable spot.
	spots := st.BiddableSpots()
	require.Contains(t, spots, 0)
	require.Contains(t, spots, 1)
	for _, ic := range spots[0] {
		assert.Equal(t, 0, ic.ImpID)
		assert.Equal(t, []int{1}, ic.CreativeIds)
	}
	for _, ic := range spots[1] {
		assert.Equal(t, 0, ic.ImpID)
		assert.Equal(t, []int{0}, ic.CreativeIds)
	}
}

func TestCreativeFilterNoMatchingFormatDropsConfig(t *testing.T) {
	f := NewCreativeFilter()
	f.AddConfig(0, &models.AgentConfig{Creatives: []models.CreativeConfig{
		{Format: models.AdFormat{Width: 300, Height: 250}},
	}})

	req := &models.BidRequest{Imp: []models.Impression{
		{Formats: []models.AdFormat{{Width: 728, Height: 90}}},
	}}
	st := state.New(req, nil, bitsetFromIndices(0), []int{1})
	require.NoError(t, f.Filter(st))
	assert.Empty(t, st.Configs().Indices())
}

func TestCreativeFilterRemoveConfigUndoesAdd(t *testing.T) {
	f := NewCreativeFilter()
	ac := &models.AgentConfig{Creatives: []models.CreativeConfig{{Format: models.AdFormat{Width: 1, Height: 1}}}}
	f.AddConfig(0, ac)
	f.RemoveConfig(0, ac)

	req := &models.BidRequest{Imp: []models.Impression{{Formats: []models.AdFormat{{Width: 1, Height: 1}}}}}
	st := state.New(req, nil, bitsetFromIndices(0), []int{1})
	require.NoError(t, f.Filter(st))
	assert.Empty(t, st.Configs().Indices())
}
