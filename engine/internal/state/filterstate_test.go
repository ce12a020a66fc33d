package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adfabric/bidfilter/engine/bitset"
	"github.com/adfabric/bidfilter/engine/models"
)

func activeConfigs(indices ...uint) bitset.ConfigSet {
	cs := bitset.New()
	for _, i := range indices {
		cs.Set(i)
	}
	return cs
}

func TestNewSeedsOneCreativeMatrixPerImpression(t *testing.T) {
	req := &models.BidRequest{Imp: []models.Impression{{}, {}, {}}}
	st := New(req, nil, activeConfigs(0, 1), []int{2, 2})
	assert.Equal(t, 3, st.NumImpressions())
}

func TestNarrowConfigsIntersects(t *testing.T) {
	req := &models.BidRequest{Imp: []models.Impression{{}}}
	st := New(req, nil, activeConfigs(0, 1, 2), []int{0, 0, 0})
	st.NarrowConfigs(activeConfigs(1, 2))
	assert.ElementsMatch(t, []uint{1, 2}, st.Configs().Indices())
}

func TestAddBiddableSpotAndBiddableSpots(t *testing.T) {
	req := &models.BidRequest{Imp: []models.Impression{{}}}
	st := New(req, nil, activeConfigs(0), []int{2})
	st.AddBiddableSpot(0, 0, []int{1})

	// Row 0 is never explicitly touched, so it still carries the matrix's
	// construction-time default row (activeConfigs): creative 0 stays
	// biddable for config 0 alongside the explicitly recorded creative 1.
	spots := st.BiddableSpots()
	if assert.Contains(t, spots, 0) {
		assert.Equal(t, []models.ImpressionCreatives{{ImpID: 0, CreativeIds: []int{0, 1}}}, spots[0])
	}
}

func TestBiddableSpotsExcludesConfigsNarrowedOutAfterward(t *testing.T) {
	req := &models.BidRequest{Imp: []models.Impression{{}}}
	st := New(req, nil, activeConfigs(0, 1), []int{1, 1})
	st.AddBiddableSpot(0, 0, []int{0})
	st.AddBiddableSpot(1, 0, []int{0})

	st.NarrowConfigs(activeConfigs(0))

	spots := st.BiddableSpots()
	assert.Contains(t, spots, 0)
	assert.NotContains(t, spots, 1)
}

func TestSetCreativesReplacesMatrixOutright(t *testing.T) {
	req := &models.BidRequest{Imp: []models.Impression{{}}}
	st := New(req, nil, activeConfigs(0), []int{1})

	empty := bitset.NewCreativeMatrix()
	st.SetCreatives(0, empty)

	spots := st.BiddableSpots()
	assert.NotContains(t, spots, 0)
}

func TestCreativesReflectsCurrentConfigsNotConstructionSnapshot(t *testing.T) {
	req := &models.BidRequest{Imp: []models.Impression{{}}}
	st := New(req, nil, activeConfigs(0, 1), []int{1, 1})
	st.AddBiddableSpot(0, 0, []int{0})
	st.AddBiddableSpot(1, 0, []int{0})
	st.NarrowConfigs(activeConfigs(0))

	row := st.Creatives(0).Row(0)
	assert.True(t, row.Test(0))
	assert.False(t, row.Test(1))
}
