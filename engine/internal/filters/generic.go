package filters

import (
	"cmp"
	"regexp"
	"sort"

	"github.com/adfabric/bidfilter/engine/bitset"
)

// valueFilter is the shape IncludeExcludeFilter wraps: something that can
// fold a config's registered values into an acceleration structure and
// answer, for one request-time value, which configs match. S is the
// concrete implementing type, so CloneSub can return it without a type
// assertion.
type valueFilter[V any, S any] interface {
	AddConfig(cfg int, values []V)
	RemoveConfig(cfg int, values []V)
	Filter(value V) bitset.ConfigSet
	CloneSub() S
}

// ListFilter maps discrete values to the ConfigSet of configs that
// registered them.
type ListFilter[T comparable] struct {
	data map[T]bitset.ConfigSet
}

func NewListFilter[T comparable]() *ListFilter[T] {
	return &ListFilter[T]{data: make(map[T]bitset.ConfigSet)}
}

func (f *ListFilter[T]) AddConfig(cfg int, values []T) {
	for _, v := range values {
		cs := f.data[v]
		cs.Set(uint(cfg))
		f.data[v] = cs
	}
}

func (f *ListFilter[T]) RemoveConfig(cfg int, values []T) {
	for _, v := range values {
		cs, ok := f.data[v]
		if !ok {
			continue
		}
		cs.Reset(uint(cfg))
		if cs.Empty() {
			delete(f.data, v)
		} else {
			f.data[v] = cs
		}
	}
}

func (f *ListFilter[T]) Filter(value T) bitset.ConfigSet {
	if cs, ok := f.data[value]; ok {
		return cs.Clone()
	}
	return bitset.New()
}

func (f *ListFilter[T]) CloneSub() *ListFilter[T] {
	cp := NewListFilter[T]()
	for k, v := range f.data {
		cp.data[k] = v.Clone()
	}
	return cp
}

// regexEntry pairs a compiled pattern with the configs that registered it.
// The compiled regex itself is never mutated after creation, so it is safe
// to share across clones.
type regexEntry struct {
	re   *regexp.Regexp
	cfgs bitset.ConfigSet
}

// RegexFilter maps pattern strings to compiled regexes, compiled exactly
// once at registration time: the hot path only ever matches, never compiles.
type RegexFilter struct {
	data map[string]*regexEntry
}

func NewRegexFilter() *RegexFilter {
	return &RegexFilter{data: make(map[string]*regexEntry)}
}

func (f *RegexFilter) AddConfig(cfg int, patterns []string) {
	for _, p := range patterns {
		e, ok := f.data[p]
		if !ok {
			re, err := regexp.Compile(p)
			if err != nil {
				continue
			}
			e = &regexEntry{re: re, cfgs: bitset.New()}
			f.data[p] = e
		}
		e.cfgs.Set(uint(cfg))
	}
}

func (f *RegexFilter) RemoveConfig(cfg int, patterns []string) {
	for _, p := range patterns {
		e, ok := f.data[p]
		if !ok {
			continue
		}
		e.cfgs.Reset(uint(cfg))
		if e.cfgs.Empty() {
			delete(f.data, p)
		}
	}
}

func (f *RegexFilter) Filter(value string) bitset.ConfigSet {
	out := bitset.New()
	for _, e := range f.data {
		if e.re.MatchString(value) {
			out.Or(e.cfgs)
		}
	}
	return out
}

func (f *RegexFilter) CloneSub() *RegexFilter {
	cp := NewRegexFilter()
	for p, e := range f.data {
		cp.data[p] = &regexEntry{re: e.re, cfgs: e.cfgs.Clone()}
	}
	return cp
}

// intervalBound is one boundary entry: the configs whose registered
// interval starts or ends at bound.
type intervalBound[T any] struct {
	bound T
	cfgs  bitset.ConfigSet
}

// IntervalFilter matches a value against half-open intervals [lower, upper)
// registered per config, via two boundary arrays kept in ascending order.
type IntervalFilter[T cmp.Ordered] struct {
	lower []intervalBound[T]
	upper []intervalBound[T]
}

func NewIntervalFilter[T cmp.Ordered]() *IntervalFilter[T] {
	return &IntervalFilter[T]{}
}

// AddConfig registers the half-open interval [lower, upper) for cfg.
func (f *IntervalFilter[T]) AddConfig(cfg int, lower, upper T) {
	f.lower = setBound(f.lower, lower, cfg, true)
	f.upper = setBound(f.upper, upper, cfg, true)
}

// RemoveConfig undoes a prior AddConfig with the same bounds.
func (f *IntervalFilter[T]) RemoveConfig(cfg int, lower, upper T) {
	f.lower = setBound(f.lower, lower, cfg, false)
	f.upper = setBound(f.upper, upper, cfg, false)
}

func setBound[T cmp.Ordered](bounds []intervalBound[T], bound T, cfg int, set bool) []intervalBound[T] {
	i := sort.Search(len(bounds), func(i int) bool { return !(bounds[i].bound < bound) })
	if i < len(bounds) && bounds[i].bound == bound {
		bounds[i].cfgs.SetTo(uint(cfg), set)
		if !set && bounds[i].cfgs.Empty() {
			bounds = append(bounds[:i], bounds[i+1:]...)
		}
		return bounds
	}
	if !set {
		return bounds
	}
	cs := bitset.New()
	cs.Set(uint(cfg))
	bounds = append(bounds, intervalBound[T]{})
	copy(bounds[i+1:], bounds[i:])
	bounds[i] = intervalBound[T]{bound: bound, cfgs: cs}
	return bounds
}

// Filter unions in every upper-bound entry the value hasn't yet reached,
// then subtracts every lower-bound entry the value hasn't yet reached: a
// config with one registered interval survives iff value lies within it. A
// config with several intervals is not matched against their union: any of
// its lower bounds above value subtracts it, even when value lies inside
// another of its intervals.
func (f *IntervalFilter[T]) Filter(value T) bitset.ConfigSet {
	out := bitset.New()
	for _, b := range f.upper {
		if value < b.bound {
			out.Or(b.cfgs)
		}
	}
	for _, b := range f.lower {
		if value < b.bound {
			out.And(b.cfgs.Negated())
		}
	}
	return out
}

func (f *IntervalFilter[T]) CloneSub() *IntervalFilter[T] {
	cp := &IntervalFilter[T]{
		lower: make([]intervalBound[T], len(f.lower)),
		upper: make([]intervalBound[T], len(f.upper)),
	}
	for i, b := range f.lower {
		cp.lower[i] = intervalBound[T]{bound: b.bound, cfgs: b.cfgs.Clone()}
	}
	for i, b := range f.upper {
		cp.upper[i] = intervalBound[T]{bound: b.bound, cfgs: b.cfgs.Clone()}
	}
	return cp
}

// IncludeExcludeFilter composes a positive and a negative valueFilter: a
// config matches if it has no include restriction at all (EmptyIncludes),
// or its include list matches the request value, and in either case it is
// not also excluded by a matching exclude entry.
type IncludeExcludeFilter[V any, S valueFilter[V, S]] struct {
	EmptyIncludes bitset.ConfigSet
	Includes      S
	Excludes      S
}

func NewIncludeExcludeFilter[V any, S valueFilter[V, S]](includes, excludes S) *IncludeExcludeFilter[V, S] {
	return &IncludeExcludeFilter[V, S]{EmptyIncludes: bitset.New(), Includes: includes, Excludes: excludes}
}

func (f *IncludeExcludeFilter[V, S]) AddConfig(cfg int, include, exclude []V) {
	if len(include) == 0 {
		f.EmptyIncludes.Set(uint(cfg))
	} else {
		f.Includes.AddConfig(cfg, include)
	}
	if len(exclude) > 0 {
		f.Excludes.AddConfig(cfg, exclude)
	}
}

func (f *IncludeExcludeFilter[V, S]) RemoveConfig(cfg int, include, exclude []V) {
	if len(include) == 0 {
		f.EmptyIncludes.Reset(uint(cfg))
	} else {
		f.Includes.RemoveConfig(cfg, include)
	}
	if len(exclude) > 0 {
		f.Excludes.RemoveConfig(cfg, exclude)
	}
}

// Filter short-circuits when the include side is already empty: there is
// nothing left for the exclude side to subtract from.
func (f *IncludeExcludeFilter[V, S]) Filter(value V) bitset.ConfigSet {
	result := f.EmptyIncludes.Clone()
	result.Or(f.Includes.Filter(value))
	if result.Empty() {
		return result
	}
	excluded := f.Excludes.Filter(value)
	result.And(excluded.Negated())
	return result
}

func (f *IncludeExcludeFilter[V, S]) Clone() *IncludeExcludeFilter[V, S] {
	return &IncludeExcludeFilter[V, S]{
		EmptyIncludes: f.EmptyIncludes.Clone(),
		Includes:      f.Includes.CloneSub(),
		Excludes:      f.Excludes.CloneSub(),
	}
}

// IterateEligible evaluates fn only against bits already set in configs
// (never the pool's full activeConfigs), resetting any bit for which fn
// returns false. This is the IterativeFilter fallback ExchangePre/Post use:
// the short-circuit property is preserved by scoping the iteration to what
// is still eligible going in, not every live config.
func IterateEligible(configs bitset.ConfigSet, fn func(cfg int) bool) bitset.ConfigSet {
	out := configs.Clone()
	for i := out.Next(0); i < out.Size(); i = out.Next(i + 1) {
		if !fn(int(i)) {
			out.Reset(i)
		}
	}
	return out
}
