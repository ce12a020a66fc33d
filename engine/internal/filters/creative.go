package filters

import (
	"github.com/adfabric/bidfilter/engine/bitset"
	"github.com/adfabric/bidfilter/engine/internal/state"
	"github.com/adfabric/bidfilter/engine/models"
)

func formatKey(f models.AdFormat) uint32 {
	return uint32(f.Width)<<16 | uint32(f.Height&0xFFFF)
}

// CreativeFilter is the only filter that writes creative matrices. One
// matrix is kept per distinct ad format (packed width<<16|height); row i,
// column cfg means "config cfg's i-th creative has this format". For each
// impression the matrices of its accepted formats are unioned, every
// surviving (creative, config) pair is recorded via AddBiddableSpot, and the
// impression's matrix is replaced by the union. A config need not match
// every impression: it stays eligible as long as at least one impression
// has a biddable creative for it, so the final narrow of state.configs uses
// the union of every impression's aggregate, not their intersection.
type CreativeFilter struct {
	byFormat map[uint32]bitset.CreativeMatrix
}

func NewCreativeFilter() *CreativeFilter {
	return &CreativeFilter{byFormat: make(map[uint32]bitset.CreativeMatrix)}
}

func (f *CreativeFilter) Name() string     { return "creative" }
func (f *CreativeFilter) Priority() uint32 { return PriorityCreative }

func (f *CreativeFilter) AddConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	for i, creative := range ac.Creatives {
		key := formatKey(creative.Format)
		m := f.byFormat[key]
		row := m.Row(uint(i)).Clone()
		row.Set(uint(cfg))
		m.SetRow(uint(i), row)
		f.byFormat[key] = m
	}
}

func (f *CreativeFilter) RemoveConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	for i, creative := range ac.Creatives {
		key := formatKey(creative.Format)
		m, ok := f.byFormat[key]
		if !ok {
			continue
		}
		row := m.Row(uint(i)).Clone()
		row.Reset(uint(cfg))
		m.SetRow(uint(i), row)
		f.byFormat[key] = m
	}
}

func (f *CreativeFilter) Filter(st *state.FilterState) error {
	eligibleAnywhere := bitset.New()

	for impIdx, imp := range st.Request.Imp {
		union := bitset.NewCreativeMatrix()
		for _, format := range imp.Formats {
			if m, ok := f.byFormat[formatKey(format)]; ok {
				union.Or(m)
			}
		}

		stored := union.NumRows()
		perConfig := make(map[int][]int)
		for row := uint(0); row < stored; row++ {
			rowSet := union.Row(row)
			for cfgBit := rowSet.Next(0); cfgBit < rowSet.Size(); cfgBit = rowSet.Next(cfgBit + 1) {
				cfg := int(cfgBit)
				perConfig[cfg] = append(perConfig[cfg], int(row))
			}
		}
		for cfg, ids := range perConfig {
			st.AddBiddableSpot(cfg, impIdx, ids)
		}

		st.SetCreatives(impIdx, union)
		eligibleAnywhere.Or(union.Aggregate())
	}

	st.NarrowConfigs(eligibleAnywhere)
	return nil
}

func (f *CreativeFilter) Clone() Filter {
	cp := NewCreativeFilter()
	for k, v := range f.byFormat {
		cp.byFormat[k] = v.Clone()
	}
	return cp
}
