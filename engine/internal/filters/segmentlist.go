package filters

import (
	"github.com/adfabric/bidfilter/engine/bitset"
	"github.com/adfabric/bidfilter/engine/models"
)

// SegmentListFilter maps segment labels, integral or string, to the
// ConfigSet of configs that registered them. A request's SegmentList may
// carry labels of either kind; Filter ORs together every label present.
type SegmentListFilter struct {
	intSet map[int64]bitset.ConfigSet
	strSet map[string]bitset.ConfigSet
}

func NewSegmentListFilter() *SegmentListFilter {
	return &SegmentListFilter{intSet: make(map[int64]bitset.ConfigSet), strSet: make(map[string]bitset.ConfigSet)}
}

func (f *SegmentListFilter) AddConfig(cfg int, list models.SegmentList) {
	for _, lbl := range list.IntLabels {
		cs := f.intSet[lbl]
		cs.Set(uint(cfg))
		f.intSet[lbl] = cs
	}
	for _, lbl := range list.StrLabels {
		cs := f.strSet[lbl]
		cs.Set(uint(cfg))
		f.strSet[lbl] = cs
	}
}

func (f *SegmentListFilter) RemoveConfig(cfg int, list models.SegmentList) {
	for _, lbl := range list.IntLabels {
		cs, ok := f.intSet[lbl]
		if !ok {
			continue
		}
		cs.Reset(uint(cfg))
		if cs.Empty() {
			delete(f.intSet, lbl)
		} else {
			f.intSet[lbl] = cs
		}
	}
	for _, lbl := range list.StrLabels {
		cs, ok := f.strSet[lbl]
		if !ok {
			continue
		}
		cs.Reset(uint(cfg))
		if cs.Empty() {
			delete(f.strSet, lbl)
		} else {
			f.strSet[lbl] = cs
		}
	}
}

// Filter ORs together the sets of every label present in list.
func (f *SegmentListFilter) Filter(list models.SegmentList) bitset.ConfigSet {
	out := bitset.New()
	for _, lbl := range list.IntLabels {
		if cs, ok := f.intSet[lbl]; ok {
			out.Or(cs)
		}
	}
	for _, lbl := range list.StrLabels {
		if cs, ok := f.strSet[lbl]; ok {
			out.Or(cs)
		}
	}
	return out
}

func (f *SegmentListFilter) Clone() *SegmentListFilter {
	cp := NewSegmentListFilter()
	for k, v := range f.intSet {
		cp.intSet[k] = v.Clone()
	}
	for k, v := range f.strSet {
		cp.strSet[k] = v.Clone()
	}
	return cp
}
