package bitset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSetSetTestRoundTrip(t *testing.T) {
	cs := New()
	cs.Set(3)
	cs.Set(7)
	assert.True(t, cs.Test(3))
	assert.True(t, cs.Test(7))
	assert.False(t, cs.Test(4))
	assert.EqualValues(t, 2, cs.Count())
	assert.EqualValues(t, 8, cs.Size())
}

func TestConfigSetDefaultTail(t *testing.T) {
	cs := NewWithDefault(true)
	cs.Reset(2)
	assert.True(t, cs.Test(0))
	assert.True(t, cs.Test(1))
	assert.False(t, cs.Test(2))
	assert.True(t, cs.Test(100), "indices past the stored prefix read as the default")
}

func TestConfigSetEmptyIgnoresDefault(t *testing.T) {
	cs := NewWithDefault(true)
	assert.True(t, cs.Empty(), "a cofinite set with nothing explicitly stored still reports Empty")
	assert.EqualValues(t, 0, cs.Count())
}

func TestConfigSetAndOverlapSelfTailOtherTail(t *testing.T) {
	a := New()
	a.Set(0)
	a.Set(1)
	a.Set(2) // length 3, default false

	b := NewWithDefault(true)
	b.Reset(1) // length 2: [true, false], default true

	a.And(b)
	// overlap [0,2): a[0]=T&&b[0]=T=T, a[1]=T&&b[1]=F=F
	assert.True(t, a.Test(0))
	assert.False(t, a.Test(1))
	// self tail [2,3): a[2]=T && b.default(true) = T
	assert.True(t, a.Test(2))
	// result default: false && true = false
	assert.False(t, a.Default())
}

func TestConfigSetAndGrowsOnOtherTail(t *testing.T) {
	a := New()
	a.Set(0) // length 1, default false

	b := New()
	b.Set(0)
	b.Set(1)
	b.Set(2) // length 3, default false

	a.And(b)
	require.EqualValues(t, 3, a.Size())
	assert.True(t, a.Test(0))
	// other-tail region seeded with self.default(false) && b[i]
	assert.False(t, a.Test(1))
	assert.False(t, a.Test(2))
}

func TestConfigSetOr(t *testing.T) {
	a := New()
	a.Set(0)
	b := New()
	b.Set(1)
	a.Or(b)
	assert.True(t, a.Test(0))
	assert.True(t, a.Test(1))
}

func TestConfigSetNegate(t *testing.T) {
	cs := New()
	cs.Set(0)
	cs.Reset(1)
	cs.Negate()
	assert.False(t, cs.Test(0))
	assert.True(t, cs.Test(1))
	assert.True(t, cs.Default(), "negating a false-default set yields a cofinite set")
}

func TestConfigSetNegatedLeavesOriginalUntouched(t *testing.T) {
	cs := New()
	cs.Set(0)
	neg := cs.Negated()
	assert.True(t, cs.Test(0))
	assert.False(t, neg.Test(0))
}

func TestConfigSetEqualIndependentOfStoredLength(t *testing.T) {
	a := NewWithDefault(false)
	a.Set(0)

	b := NewWithDefault(false)
	b.Set(0)
	b.Set(1)
	b.Reset(1)

	assert.True(t, a.Equal(b), "trailing explicit zero bits must not affect equality")
}

func TestConfigSetNextTerminatesAtSize(t *testing.T) {
	cs := New()
	cs.Set(2)
	cs.Set(5)
	assert.EqualValues(t, 2, cs.Next(0))
	assert.EqualValues(t, 5, cs.Next(3))
	assert.EqualValues(t, cs.Size(), cs.Next(6))
}

func TestConfigSetIndices(t *testing.T) {
	cs := New()
	cs.Set(1)
	cs.Set(4)
	cs.Set(9)
	assert.Equal(t, []uint{1, 4, 9}, cs.Indices())
}

func TestConfigSetZeroValueIsUsable(t *testing.T) {
	var cs ConfigSet
	assert.True(t, cs.Empty())
	assert.False(t, cs.Test(0))
	cs.Set(0)
	assert.True(t, cs.Test(0))
}
