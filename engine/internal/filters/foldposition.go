package filters

import (
	"github.com/adfabric/bidfilter/engine/bitset"
	"github.com/adfabric/bidfilter/engine/internal/state"
	"github.com/adfabric/bidfilter/engine/models"
)

// FoldPositionFilter is an IncludeExcludeFilter[AdPosition, ListFilter]
// applied to every impression's position; a config must pass for every
// impression, so the per-impression verdicts are intersected with an early
// exit once nothing survives.
type FoldPositionFilter struct {
	ie *IncludeExcludeFilter[models.AdPosition, *ListFilter[models.AdPosition]]
}

func NewFoldPositionFilter() *FoldPositionFilter {
	return &FoldPositionFilter{
		ie: NewIncludeExcludeFilter[models.AdPosition](NewListFilter[models.AdPosition](), NewListFilter[models.AdPosition]()),
	}
}

func (f *FoldPositionFilter) Name() string     { return "foldPosition" }
func (f *FoldPositionFilter) Priority() uint32 { return PriorityFoldPosition }

func (f *FoldPositionFilter) AddConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	f.ie.AddConfig(cfg, ac.FoldPositionFilter.Include, ac.FoldPositionFilter.Exclude)
}

func (f *FoldPositionFilter) RemoveConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	f.ie.RemoveConfig(cfg, ac.FoldPositionFilter.Include, ac.FoldPositionFilter.Exclude)
}

func (f *FoldPositionFilter) Filter(st *state.FilterState) error {
	mask := bitset.NewWithDefault(true)
	for _, imp := range st.Request.Imp {
		mask.And(f.ie.Filter(imp.Position))
		if mask.Empty() {
			break
		}
	}
	st.NarrowConfigs(mask)
	return nil
}

func (f *FoldPositionFilter) Clone() Filter {
	return &FoldPositionFilter{ie: f.ie.Clone()}
}
