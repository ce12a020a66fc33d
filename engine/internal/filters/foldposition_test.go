package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfabric/bidfilter/engine/internal/state"
	"github.com/adfabric/bidfilter/engine/models"
)

func TestFoldPositionFilterRequiresEveryImpressionToPass(t *testing.T) {
	f := NewFoldPositionFilter()
	f.AddConfig(0, &models.AgentConfig{
		FoldPositionFilter: models.IncludeExcludeConfig[models.AdPosition]{Include: []models.AdPosition{models.PositionAbove}},
	})
	f.AddConfig(1, &models.AgentConfig{})

	req := &models.BidRequest{Imp: []models.Impression{
		{Position: models.PositionAbove},
		{Position: models.PositionBelow},
	}}
	st := state.New(req, nil, bitsetFromIndices(0, 1), []int{0, 0})
	require.NoError(t, f.Filter(st))
	assert.ElementsMatch(t, []uint{1}, st.Configs().Indices())
}

func TestFoldPositionFilterAllImpressionsMatch(t *testing.T) {
	f := NewFoldPositionFilter()
	f.AddConfig(0, &models.AgentConfig{
		FoldPositionFilter: models.IncludeExcludeConfig[models.AdPosition]{Include: []models.AdPosition{models.PositionAbove}},
	})

	req := &models.BidRequest{Imp: []models.Impression{
		{Position: models.PositionAbove},
		{Position: models.PositionAbove},
	}}
	st := state.New(req, nil, bitsetFromIndices(0), []int{0})
	require.NoError(t, f.Filter(st))
	assert.ElementsMatch(t, []uint{0}, st.Configs().Indices())
}
