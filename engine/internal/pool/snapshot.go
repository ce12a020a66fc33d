// Package pool owns the priority-ordered filter chain and the live
// configuration table, publishing new versions with a read-copy-update
// discipline: writers clone the current snapshot, mutate the clone, and
// compare-and-swap it into place. Go's garbage collector retires the old
// snapshot once the last reader holding a reference to it returns, which is
// the same "shared-pointer, automatic reclamation" scheme the design notes
// describe as the systems-language equivalent of the reference RCU handle —
// no unsafe pointer-identity CAS, no manual epoch bookkeeping.
package pool

import (
	"sort"

	"github.com/google/uuid"

	"github.com/adfabric/bidfilter/engine/bitset"
	"github.com/adfabric/bidfilter/engine/internal/filters"
	"github.com/adfabric/bidfilter/engine/models"
)

// slot is one entry in the pool's configuration table. A nil config marks a
// free slot; its index may be reused by a later AddConfig.
type slot struct {
	name   string
	config *models.AgentConfig
}

// Data is the immutable snapshot published by the pool. Once reachable from
// the pool's atomic pointer it is never mutated in place; every writer
// starts from clone.
type Data struct {
	// Generation identifies this snapshot for logs, metrics and traces: a
	// fresh id assigned on every publish, so observability tooling can
	// distinguish one RCU version from the next without comparing pointers.
	Generation     string
	Filters        []filters.Filter
	Slots          []slot
	ActiveConfigs  bitset.ConfigSet
	CreativeCounts []int
}

func newData() *Data {
	return &Data{Generation: uuid.NewString(), ActiveConfigs: bitset.New()}
}

// clone deep-copies everything a writer might mutate: the filter instances
// (each via its own Clone), the slot table, the active set, and the
// creative-count vector. Configuration pointers are shared, not copied —
// AgentConfig is owned elsewhere and the pool only ever reads it.
func (d *Data) clone() *Data {
	cp := &Data{
		Generation:     uuid.NewString(),
		Filters:        make([]filters.Filter, len(d.Filters)),
		Slots:          make([]slot, len(d.Slots)),
		ActiveConfigs:  d.ActiveConfigs.Clone(),
		CreativeCounts: make([]int, len(d.CreativeCounts)),
	}
	for i, f := range d.Filters {
		cp.Filters[i] = f.Clone()
	}
	copy(cp.Slots, d.Slots)
	copy(cp.CreativeCounts, d.CreativeCounts)
	return cp
}

// sortFilters re-sorts the filter chain ascending by priority. Stable: ties
// keep their relative insertion order, per the priority ordering contract.
func (d *Data) sortFilters() {
	sort.SliceStable(d.Filters, func(i, j int) bool {
		return d.Filters[i].Priority() < d.Filters[j].Priority()
	})
}
