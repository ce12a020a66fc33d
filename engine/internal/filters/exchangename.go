package filters

import (
	"fmt"

	"github.com/adfabric/bidfilter/engine/internal/errs"
	"github.com/adfabric/bidfilter/engine/internal/state"
	"github.com/adfabric/bidfilter/engine/models"
)

// ExchangeNameFilter is an IncludeExcludeFilter[string, ListFilter] over the
// request's exchange identity.
//
// The spec leaves open whether "exchange identity" means the connector's own
// ExchangeName() or the request's exchange field; this filter requires both
// to agree whenever an attached connector reports a non-empty name, raising a fatal configuration
// error on mismatch rather than silently preferring one over the other (see
// the Open Question note in DESIGN.md).
type ExchangeNameFilter struct {
	ie *IncludeExcludeFilter[string, *ListFilter[string]]
}

func NewExchangeNameFilter() *ExchangeNameFilter {
	return &ExchangeNameFilter{ie: NewIncludeExcludeFilter[string](NewListFilter[string](), NewListFilter[string]())}
}

func (f *ExchangeNameFilter) Name() string     { return "exchangeName" }
func (f *ExchangeNameFilter) Priority() uint32 { return PriorityExchangeName }

func (f *ExchangeNameFilter) AddConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	f.ie.AddConfig(cfg, ac.ExchangeFilter.Include, ac.ExchangeFilter.Exclude)
}

func (f *ExchangeNameFilter) RemoveConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	f.ie.RemoveConfig(cfg, ac.ExchangeFilter.Include, ac.ExchangeFilter.Exclude)
}

func (f *ExchangeNameFilter) Filter(st *state.FilterState) error {
	name := st.Request.Exchange
	if st.Exchange != nil {
		if connName := st.Exchange.ExchangeName(); connName != "" && connName != name {
			return errs.NewFatal(f.Name(), fmt.Errorf("%w: connector %q, request %q", errs.ErrExchangeNameMismatch, connName, name))
		}
	}
	st.NarrowConfigs(f.ie.Filter(name))
	return nil
}

func (f *ExchangeNameFilter) Clone() Filter {
	return &ExchangeNameFilter{ie: f.ie.Clone()}
}
