// Package filters implements the Filter interface, the generic sub-filter
// building blocks, and the concrete predicates the pool evaluates in
// priority order. The exchangeName, foldPosition, url, language, location and
// exchange pre/post filters are built from the generics in generic.go;
// hourOfWeek, requiredIds, segments and creative keep their own bitset
// tables. The chain is grounded on how a priority-ordered bitmap filter chain
// composes in the reference design this package follows.
package filters

import "github.com/adfabric/bidfilter/engine/internal/state"

// Priority values, preserved verbatim for ordering. Lower sorts earlier;
// ties break on insertion order. Cheap, highly selective bitmap filters run
// first; expensive regex and exchange callbacks run last, since an earlier
// filter may have already emptied the eligible set.
const (
	PriorityExchangePre  uint32 = 0x0010
	PriorityFoldPosition uint32 = 0x1100
	// PriorityCreative is CreativeFilter's slot within the 0x1200-0x1600
	// band the table reserves for creative-adjacent concerns; CreativeFilter
	// is the only one of them this module implements.
	PriorityCreative     uint32 = 0x1200
	PriorityRequiredIds  uint32 = 0x3000
	PriorityHourOfWeek   uint32 = 0x4000
	PriorityExchangeName uint32 = 0x5000
	PriorityLocation     uint32 = 0x6000
	PriorityLanguage     uint32 = 0x7000
	PrioritySegments     uint32 = 0x8000
	// PriorityUserPartition and PriorityHost are carried for numeric-table
	// fidelity; no concrete filter in this module implements them (§4.3
	// does not describe their algorithms).
	PriorityUserPartition uint32 = 0x8010
	PriorityHost          uint32 = 0x8500
	PriorityUrl           uint32 = 0x9000
	PriorityExchangePost  uint32 = 0x9900
)

// Filter is the polymorphic interface every predicate implements. The pool
// sorts filter instances ascending by Priority and runs them in that order
// against a FilterState.
type Filter interface {
	// Name is the stable identifier the registry maps to this filter's
	// constructor.
	Name() string

	// Clone returns a deep copy, used when the pool clones a snapshot for
	// a write.
	Clone() Filter

	// Priority orders this filter within the chain.
	Priority() uint32

	// AddConfig folds config cfg's relevant fields into this filter's
	// internal acceleration structures.
	AddConfig(cfg int, config any)

	// RemoveConfig undoes a prior AddConfig. After a matched AddConfig/
	// RemoveConfig pair, the filter's internal state must be exactly as it
	// was before the pair.
	RemoveConfig(cfg int, config any)

	// Filter narrows st to reflect this predicate's verdict. It must not
	// allocate for the common case and must never log. A non-nil error
	// signals a configuration error (e.g. a null request timestamp), which
	// is fatal for the current request and must propagate to the caller
	// rather than being absorbed as an empty result.
	Filter(st *state.FilterState) error
}
