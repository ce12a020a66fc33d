// Package state holds the per-request working set filters narrow as they
// run: the currently-eligible ConfigSet, one CreativeMatrix per impression,
// and the handles filters need to evaluate their predicate (the request and
// the exchange connector). A FilterState is constructed once per request and
// discarded once biddable spots have been derived from it; it never outlives
// the request it was built for.
package state

import (
	"github.com/adfabric/bidfilter/engine/bitset"
	"github.com/adfabric/bidfilter/engine/models"
)

// FilterState is the mutable per-request scratch space the filter chain
// narrows. It is not safe for concurrent use: exactly one goroutine owns a
// FilterState for the duration of one request's filtering.
type FilterState struct {
	Request  *models.BidRequest
	Exchange models.ExchangeConnector

	creativeCounts []int
	configs        bitset.ConfigSet
	creatives      []bitset.CreativeMatrix
}

// New seeds a FilterState from the pool's currently-active configuration set.
// Every per-impression creative matrix starts with activeConfigs as its
// default row, so a creative nobody has explicitly constrained yet is still
// governed by whichever configs are presently eligible.
func New(req *models.BidRequest, exchange models.ExchangeConnector, activeConfigs bitset.ConfigSet, creativeCounts []int) *FilterState {
	creatives := make([]bitset.CreativeMatrix, len(req.Imp))
	for i := range creatives {
		creatives[i] = bitset.NewCreativeMatrixWithDefault(activeConfigs)
	}
	return &FilterState{
		Request:        req,
		Exchange:       exchange,
		creativeCounts: creativeCounts,
		configs:        activeConfigs.Clone(),
		creatives:      creatives,
	}
}

// Configs returns the currently-eligible set. The returned value shares its
// bit storage with the state, so callers must not mutate it; they narrow it
// only through NarrowConfigs, and Clone it when they need a value of their own.
func (fs *FilterState) Configs() bitset.ConfigSet { return fs.configs }

// NumImpressions reports how many per-impression creative matrices this
// state carries, one per entry in the originating request's Imp slice.
func (fs *FilterState) NumImpressions() int { return len(fs.creatives) }

// NarrowConfigs ANDs mask into the eligible set.
func (fs *FilterState) NarrowConfigs(mask bitset.ConfigSet) {
	fs.configs.And(mask)
}

// NarrowCreativesForImp ANDs mask into impID's creative matrix, then
// re-narrows configs by the matrix's new aggregate: a config with no
// remaining biddable creative in this impression is no longer eligible.
func (fs *FilterState) NarrowCreativesForImp(impID int, mask bitset.CreativeMatrix) {
	m := fs.creatives[impID]
	m.And(mask)
	fs.creatives[impID] = m
	fs.configs.And(m.Aggregate())
}

// SetCreatives replaces impID's creative matrix outright, without touching
// configs. CreativeFilter is the only caller: having just computed the
// authoritative per-format union for this impression, nothing in the
// construction-time default-row placeholder is worth preserving, and a plain
// AND would leave stale default-row bits on any creative index no accepted
// format matched.
func (fs *FilterState) SetCreatives(impID int, matrix bitset.CreativeMatrix) {
	fs.creatives[impID] = matrix
}

// NarrowAllCreatives applies mask to every impression's creative matrix.
func (fs *FilterState) NarrowAllCreatives(mask bitset.CreativeMatrix) {
	for i := range fs.creatives {
		fs.NarrowCreativesForImp(i, mask)
	}
}

// Creatives returns impID's matrix with every row ANDed against the
// currently-eligible configs, i.e. the matrix as it would be read right now.
func (fs *FilterState) Creatives(impID int) bitset.CreativeMatrix {
	m := fs.creatives[impID].Clone()
	for i := uint(0); i < m.NumRows(); i++ {
		row := m.Row(i)
		row.And(fs.configs)
		m.SetRow(i, row)
	}
	return m
}

// AddBiddableSpot records that creativeIds within config cfg are usable for
// impID, by setting the corresponding (creative, config) bits in impID's
// matrix. CreativeFilter is the only caller: it is the only filter that
// writes creative matrices directly rather than narrowing through a mask.
func (fs *FilterState) AddBiddableSpot(cfg int, impID int, creativeIds []int) {
	m := fs.creatives[impID]
	for _, cid := range creativeIds {
		row := m.Row(uint(cid)).Clone()
		row.Set(uint(cfg))
		m.SetRow(uint(cid), row)
	}
	fs.creatives[impID] = m
}

// BiddableSpots derives the final output contract: every per-impression
// matrix is read against the final eligible set, and for each surviving
// config the creative ids are collected. Creative ids at or past a matrix's
// stored row prefix, but within that config's declared creative count, are
// still included: the default-row semantics of CreativeMatrix mean every
// survivor is biddable there too.
func (fs *FilterState) BiddableSpots() models.BiddableSpots {
	out := make(models.BiddableSpots)
	for impID, matrix := range fs.creatives {
		for cfgBit := fs.configs.Next(0); cfgBit < fs.configs.Size(); cfgBit = fs.configs.Next(cfgBit + 1) {
			cfg := int(cfgBit)
			var creativeIds []int

			stored := matrix.NumRows()
			for row := uint(0); row < stored; row++ {
				if matrix.Row(row).Test(cfgBit) {
					creativeIds = append(creativeIds, int(row))
				}
			}

			if cfg < len(fs.creativeCounts) {
				count := uint(fs.creativeCounts[cfg])
				for row := stored; row < count; row++ {
					if matrix.Row(row).Test(cfgBit) {
						creativeIds = append(creativeIds, int(row))
					}
				}
			}

			if len(creativeIds) == 0 {
				continue
			}
			out[cfg] = append(out[cfg], models.ImpressionCreatives{ImpID: impID, CreativeIds: creativeIds})
		}
	}
	return out
}
