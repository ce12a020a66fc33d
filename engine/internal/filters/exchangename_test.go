package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfabric/bidfilter/engine/internal/errs"
	"github.com/adfabric/bidfilter/engine/internal/state"
	"github.com/adfabric/bidfilter/engine/models"
)

type stubConnector struct {
	name       string
	preVerdict bool
	postResult bool
}

func (c stubConnector) ExchangeName() string { return c.name }
func (c stubConnector) BidRequestPreFilter(*models.BidRequest, *models.AgentConfig, any) bool {
	return c.preVerdict
}
func (c stubConnector) BidRequestPostFilter(*models.BidRequest, *models.AgentConfig, any) bool {
	return c.postResult
}

func TestExchangeNameFilterIncludeList(t *testing.T) {
	f := NewExchangeNameFilter()
	f.AddConfig(0, &models.AgentConfig{ExchangeFilter: models.IncludeExcludeConfig[string]{Include: []string{"exA"}}})
	f.AddConfig(1, &models.AgentConfig{})

	req := &models.BidRequest{Exchange: "exA", Imp: []models.Impression{{}}}
	st := state.New(req, nil, bitsetFromIndices(0, 1), []int{0, 0})
	require.NoError(t, f.Filter(st))
	assert.ElementsMatch(t, []uint{0, 1}, st.Configs().Indices())
}

func TestExchangeNameFilterMismatchIsFatal(t *testing.T) {
	f := NewExchangeNameFilter()
	req := &models.BidRequest{Exchange: "exA", Imp: []models.Impression{{}}}
	st := state.New(req, stubConnector{name: "exB"}, bitsetFromIndices(0), []int{0})

	err := f.Filter(st)
	require.Error(t, err)
	var fatal *errs.FatalError
	require.ErrorAs(t, err, &fatal)
	assert.ErrorIs(t, err, errs.ErrExchangeNameMismatch)
}

func TestExchangeNameFilterAgreeingConnectorPasses(t *testing.T) {
	f := NewExchangeNameFilter()
	f.AddConfig(0, &models.AgentConfig{})
	req := &models.BidRequest{Exchange: "exA", Imp: []models.Impression{{}}}
	st := state.New(req, stubConnector{name: "exA"}, bitsetFromIndices(0), []int{0})

	require.NoError(t, f.Filter(st))
	assert.ElementsMatch(t, []uint{0}, st.Configs().Indices())
}
