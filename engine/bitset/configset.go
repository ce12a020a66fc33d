// Package bitset provides the packed bitset primitives used by the filter
// pipeline to represent "the set of configurations still eligible" for a bid
// request. ConfigSet and CreativeMatrix are small structs that hold their
// storage by reference: a plain copy shares that storage with the original,
// and Clone is what yields an independent value.
package bitset

import (
	"github.com/bits-and-blooms/bitset"
)

// ConfigSet is a set of configuration indices with a default value applied
// to every index past the stored prefix. A default of false yields an
// ordinary bounded set; a default of true yields a cofinite set (useful for
// "everything except these few").
type ConfigSet struct {
	bits   *bitset.BitSet
	length uint
	deflt  bool
}

// New returns an empty ConfigSet with a false default.
func New() ConfigSet { return ConfigSet{bits: bitset.New(0)} }

// NewWithDefault returns an empty ConfigSet whose tail beyond the stored
// prefix reads as def. NewWithDefault(true) is the canonical "everything
// matches" starting point for a narrowing filter chain.
func NewWithDefault(def bool) ConfigSet { return ConfigSet{bits: bitset.New(0), deflt: def} }

func (c *ConfigSet) ensure() {
	if c.bits == nil {
		c.bits = bitset.New(0)
	}
}

// Size reports the length of the stored prefix in bits. Indices at or past
// Size read as the default value.
func (c ConfigSet) Size() uint { return c.length }

// Default reports the value assigned to every index past the stored prefix.
func (c ConfigSet) Default() bool { return c.deflt }

// grow extends the stored prefix to n bits, seeding every newly stored bit
// with the default so that growth never changes what Test reports.
func (c *ConfigSet) grow(n uint) {
	for i := c.length; i < n; i++ {
		c.bits.SetTo(i, c.deflt)
	}
	if n > c.length {
		c.length = n
	}
}

// Set marks index i as present, growing the stored prefix if necessary.
func (c *ConfigSet) Set(i uint) {
	c.ensure()
	c.grow(i + 1)
	c.bits.Set(i)
}

// Reset marks index i as absent, growing the stored prefix if necessary.
func (c *ConfigSet) Reset(i uint) {
	c.ensure()
	c.grow(i + 1)
	c.bits.Clear(i)
}

// SetTo sets or resets index i depending on value.
func (c *ConfigSet) SetTo(i uint, value bool) {
	if value {
		c.Set(i)
	} else {
		c.Reset(i)
	}
}

// Test reports whether index i is present, falling back to the default
// value for indices past the stored prefix.
func (c ConfigSet) Test(i uint) bool {
	if i >= c.length {
		return c.deflt
	}
	if c.bits == nil {
		return false
	}
	return c.bits.Test(i)
}

// Count returns the number of indices present within the stored prefix. A
// cofinite set's infinite tail is never counted, matching the reference
// implementation's treatment of count() as "count of stored bits".
func (c ConfigSet) Count() uint {
	if c.bits == nil {
		return 0
	}
	return c.bits.Count()
}

// Empty reports whether no bit is set within the stored prefix. Like Count,
// this ignores the default: a cofinite set with no stored bit set still
// reports Empty() == true, which is the behavior the original filter
// pool's tests rely on.
func (c ConfigSet) Empty() bool {
	if c.bits == nil {
		return true
	}
	return c.bits.None()
}

// Clone returns an independent copy.
func (c ConfigSet) Clone() ConfigSet {
	c.ensure()
	return ConfigSet{bits: c.bits.Clone(), length: c.length, deflt: c.deflt}
}

// Next returns the smallest present index >= start, or Size() if none
// exists. Only stored bits are consulted; callers wanting cofinite
// iteration must bound themselves using Size().
func (c ConfigSet) Next(start uint) uint {
	if start >= c.length || c.bits == nil {
		return c.length
	}
	idx, ok := c.bits.NextSet(start)
	if !ok || idx >= c.length {
		return c.length
	}
	return idx
}

// And narrows c to the bitwise intersection with other, default-aware.
func (c *ConfigSet) And(other ConfigSet) *ConfigSet {
	return c.combine(other, func(a, b bool) bool { return a && b })
}

// Or widens c to the bitwise union with other, default-aware.
func (c *ConfigSet) Or(other ConfigSet) *ConfigSet {
	return c.combine(other, func(a, b bool) bool { return a || b })
}

// Xor applies a bitwise symmetric difference with other, default-aware.
func (c *ConfigSet) Xor(other ConfigSet) *ConfigSet {
	return c.combine(other, func(a, b bool) bool { return a != b })
}

// combine applies op across three regions: the overlap of both stored
// prefixes (pairwise), the self-only tail (self op other.default), and the
// other-only tail (self grows, seeded with self.default op other[i]). The
// result's default is self.default op other.default.
func (c *ConfigSet) combine(other ConfigSet, op func(a, b bool) bool) *ConfigSet {
	c.ensure()

	minLen := c.length
	if other.length < minLen {
		minLen = other.length
	}
	for i := uint(0); i < minLen; i++ {
		c.SetTo(i, op(c.bits.Test(i), other.Test(i)))
	}

	if c.length > other.length {
		for i := other.length; i < c.length; i++ {
			c.SetTo(i, op(c.bits.Test(i), other.deflt))
		}
	} else if other.length > c.length {
		selfDefault := c.deflt
		for i := c.length; i < other.length; i++ {
			c.SetTo(i, op(selfDefault, other.Test(i)))
		}
	}

	c.deflt = op(c.deflt, other.deflt)
	return c
}

// Negate flips both the stored bits and the default in place.
func (c *ConfigSet) Negate() *ConfigSet {
	c.ensure()
	for i := uint(0); i < c.length; i++ {
		c.bits.SetTo(i, !c.bits.Test(i))
	}
	c.deflt = !c.deflt
	return c
}

// Negated returns a negated copy, leaving c untouched.
func (c ConfigSet) Negated() ConfigSet {
	cp := c.Clone()
	cp.Negate()
	return cp
}

// Equal reports whether c and other represent the same set, independent of
// their stored lengths: it is sufficient for one's tail to equal the
// other's default past the shorter of the two prefixes.
func (c ConfigSet) Equal(other ConfigSet) bool {
	maxLen := c.length
	if other.length > maxLen {
		maxLen = other.length
	}
	for i := uint(0); i < maxLen; i++ {
		if c.Test(i) != other.Test(i) {
			return false
		}
	}
	return c.deflt == other.deflt
}

// Indices returns the stored present indices in ascending order. Intended
// for tests and diagnostics, not the hot path.
func (c ConfigSet) Indices() []uint {
	var out []uint
	for i := c.Next(0); i < c.Size(); i = c.Next(i + 1) {
		out = append(out, i)
	}
	return out
}
