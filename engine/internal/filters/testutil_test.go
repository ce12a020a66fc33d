package filters

import "github.com/adfabric/bidfilter/engine/bitset"

func bitsetFromIndices(indices ...int) bitset.ConfigSet {
	cs := bitset.New()
	for _, i := range indices {
		cs.Set(uint(i))
	}
	return cs
}
