package filters

import (
	"github.com/adfabric/bidfilter/engine/bitset"
	"github.com/adfabric/bidfilter/engine/internal/state"
	"github.com/adfabric/bidfilter/engine/models"
)

// RequiredIdsFilter narrows out configs that require a user-id domain the
// request does not carry. data maps a domain name to the set of configs
// that require it; at filter time the union of domains missing from the
// request is negated out of the eligible set.
type RequiredIdsFilter struct {
	data map[string]bitset.ConfigSet
}

func NewRequiredIdsFilter() *RequiredIdsFilter {
	return &RequiredIdsFilter{data: make(map[string]bitset.ConfigSet)}
}

func (f *RequiredIdsFilter) Name() string     { return "requiredIds" }
func (f *RequiredIdsFilter) Priority() uint32 { return PriorityRequiredIds }

func (f *RequiredIdsFilter) AddConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	for _, domain := range ac.RequiredIds {
		cs := f.data[domain]
		cs.Set(uint(cfg))
		f.data[domain] = cs
	}
}

func (f *RequiredIdsFilter) RemoveConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	for _, domain := range ac.RequiredIds {
		cs, ok := f.data[domain]
		if !ok {
			continue
		}
		cs.Reset(uint(cfg))
		if cs.Empty() {
			delete(f.data, domain)
		} else {
			f.data[domain] = cs
		}
	}
}

func (f *RequiredIdsFilter) Filter(st *state.FilterState) error {
	missing := bitset.New()
	for domain, cs := range f.data {
		if _, present := st.Request.UserIds[domain]; !present {
			missing.Or(cs)
		}
	}
	st.NarrowConfigs(missing.Negated())
	return nil
}

func (f *RequiredIdsFilter) Clone() Filter {
	cp := NewRequiredIdsFilter()
	for k, v := range f.data {
		cp.data[k] = v.Clone()
	}
	return cp
}
