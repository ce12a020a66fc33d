package filters

import (
	"github.com/adfabric/bidfilter/engine/bitset"
	"github.com/adfabric/bidfilter/engine/internal/state"
	"github.com/adfabric/bidfilter/engine/models"
)

// domainEntry is one segment-domain's registration table. SegmentListFilter
// does not fit the single-value valueFilter[V,S] shape the generic
// IncludeExcludeFilter wraps (its input is a whole SegmentList, carrying
// both integral and string labels at once), so this domain composes
// include/exclude/emptyInclude by hand instead of instantiating the generic
// wrapper.
type domainEntry struct {
	include             *SegmentListFilter
	exclude             *SegmentListFilter
	emptyInclude        bitset.ConfigSet
	excludeIfNotPresent bitset.ConfigSet
	exchangeExcludes    map[string]bitset.ConfigSet
	// touched marks every config that registered anything at all for this
	// domain. A config absent from touched never mentioned this domain and
	// must pass through it untouched, regardless of when the domain was
	// first introduced by some other config's registration.
	touched bitset.ConfigSet
}

func newDomainEntry() *domainEntry {
	return &domainEntry{
		include:             NewSegmentListFilter(),
		exclude:             NewSegmentListFilter(),
		emptyInclude:        bitset.New(),
		excludeIfNotPresent: bitset.New(),
		exchangeExcludes:    make(map[string]bitset.ConfigSet),
		touched:             bitset.New(),
	}
}

func (d *domainEntry) clone() *domainEntry {
	cp := &domainEntry{
		include:             d.include.Clone(),
		exclude:             d.exclude.Clone(),
		emptyInclude:        d.emptyInclude.Clone(),
		excludeIfNotPresent: d.excludeIfNotPresent.Clone(),
		exchangeExcludes:    make(map[string]bitset.ConfigSet, len(d.exchangeExcludes)),
		touched:             d.touched.Clone(),
	}
	for k, v := range d.exchangeExcludes {
		cp.exchangeExcludes[k] = v.Clone()
	}
	return cp
}

// filter evaluates this domain's include/exclude verdict for the request's
// segment list: union the emptyInclude configs with whatever labels match,
// then subtract whatever labels match the exclude side (union first,
// subtract second, matching the reference algorithm). The exchange overlay
// then forces every config that excluded this domain for the current
// exchange to pass regardless of what the include/exclude computation said —
// "equivalent to emptyInclude for that row" — and any config that never
// registered anything for this domain passes through untouched.
func (d *domainEntry) filter(list models.SegmentList, exchange string) bitset.ConfigSet {
	result := d.emptyInclude.Clone()
	result.Or(d.include.Filter(list))
	if !result.Empty() {
		excluded := d.exclude.Filter(list)
		result.And(excluded.Negated())
	}

	if dropped, ok := d.exchangeExcludes[exchange]; ok && !dropped.Empty() {
		result.Or(dropped)
	}

	untouched := d.touched.Negated()
	result.Or(untouched)
	return result
}

// SegmentsFilter is the per-domain segment predicate: every registered
// domain narrows the eligible set independently, plus a presence check for
// domains a config required but the request omitted.
type SegmentsFilter struct {
	domains map[string]*domainEntry
}

func NewSegmentsFilter() *SegmentsFilter {
	return &SegmentsFilter{domains: make(map[string]*domainEntry)}
}

func (f *SegmentsFilter) Name() string     { return "segments" }
func (f *SegmentsFilter) Priority() uint32 { return PrioritySegments }

func (f *SegmentsFilter) domain(name string) *domainEntry {
	d, ok := f.domains[name]
	if !ok {
		d = newDomainEntry()
		f.domains[name] = d
	}
	return d
}

func (f *SegmentsFilter) AddConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	for name, sc := range ac.Segments {
		d := f.domain(name)
		d.touched.Set(uint(cfg))
		if sc.Include.Empty() {
			d.emptyInclude.Set(uint(cfg))
		} else {
			d.include.AddConfig(cfg, sc.Include)
		}
		if !sc.Exclude.Empty() {
			d.exclude.AddConfig(cfg, sc.Exclude)
		}
		if sc.ExcludeIfNotPresent {
			d.excludeIfNotPresent.Set(uint(cfg))
		}
		for _, ex := range sc.ExcludedExchanges {
			cs := d.exchangeExcludes[ex]
			cs.Set(uint(cfg))
			d.exchangeExcludes[ex] = cs
		}
	}
}

func (f *SegmentsFilter) RemoveConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	for name, sc := range ac.Segments {
		d, ok := f.domains[name]
		if !ok {
			continue
		}
		d.touched.Reset(uint(cfg))
		if sc.Include.Empty() {
			d.emptyInclude.Reset(uint(cfg))
		} else {
			d.include.RemoveConfig(cfg, sc.Include)
		}
		if !sc.Exclude.Empty() {
			d.exclude.RemoveConfig(cfg, sc.Exclude)
		}
		if sc.ExcludeIfNotPresent {
			d.excludeIfNotPresent.Reset(uint(cfg))
		}
		for _, ex := range sc.ExcludedExchanges {
			cs, ok := d.exchangeExcludes[ex]
			if !ok {
				continue
			}
			cs.Reset(uint(cfg))
			if cs.Empty() {
				delete(d.exchangeExcludes, ex)
			} else {
				d.exchangeExcludes[ex] = cs
			}
		}
	}
}

func (f *SegmentsFilter) Filter(st *state.FilterState) error {
	req := st.Request
	mask := bitset.NewWithDefault(true)

	for name, d := range f.domains {
		if list, present := req.Segments[name]; present {
			mask.And(d.filter(list, req.Exchange))
		} else if !d.excludeIfNotPresent.Empty() {
			mask.And(d.excludeIfNotPresent.Negated())
		}
		if mask.Empty() && !mask.Default() {
			break
		}
	}
	st.NarrowConfigs(mask)
	return nil
}

func (f *SegmentsFilter) Clone() Filter {
	cp := NewSegmentsFilter()
	for k, v := range f.domains {
		cp.domains[k] = v.clone()
	}
	return cp
}
