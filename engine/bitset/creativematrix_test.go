package bitset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreativeMatrixSetRowGrows(t *testing.T) {
	m := NewCreativeMatrix()
	row := New()
	row.Set(2)
	m.SetRow(3, row)
	assert.EqualValues(t, 4, m.NumRows())
	assert.True(t, m.Row(3).Test(2))
	assert.True(t, m.Row(1).Empty(), "rows created by growth default to empty")
}

func TestCreativeMatrixDefaultRow(t *testing.T) {
	cofinite := NewWithDefault(true)
	m := NewCreativeMatrixWithDefault(cofinite)
	assert.True(t, m.Row(50).Test(0), "indices past the stored prefix read the default row")
}

func TestCreativeMatrixAndRowWise(t *testing.T) {
	a := NewCreativeMatrix()
	rowA := New()
	rowA.Set(0)
	rowA.Set(1)
	a.SetRow(0, rowA)

	b := NewCreativeMatrix()
	rowB := New()
	rowB.Set(1)
	b.SetRow(0, rowB)

	a.And(b)
	assert.False(t, a.Row(0).Test(0))
	assert.True(t, a.Row(0).Test(1))
}

func TestCreativeMatrixAggregate(t *testing.T) {
	m := NewCreativeMatrix()
	r0 := New()
	r0.Set(0)
	r1 := New()
	r1.Set(1)
	m.SetRow(0, r0)
	m.SetRow(1, r1)

	agg := m.Aggregate()
	assert.True(t, agg.Test(0))
	assert.True(t, agg.Test(1))
	assert.False(t, agg.Test(2))
}

func TestCreativeMatrixNegate(t *testing.T) {
	m := NewCreativeMatrix()
	row := New()
	row.Set(0)
	m.SetRow(0, row)
	m.Negate()
	assert.False(t, m.Row(0).Test(0))
	assert.True(t, m.Row(0).Test(1))
}

func TestCreativeMatrixClone(t *testing.T) {
	m := NewCreativeMatrix()
	row := New()
	row.Set(0)
	m.SetRow(0, row)

	cp := m.Clone()
	mutated := m.Row(0)
	mutated.Set(5)
	m.SetRow(0, mutated)

	assert.False(t, cp.Row(0).Test(5), "clone must be independent of later mutation")
}
