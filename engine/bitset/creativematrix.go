package bitset

// CreativeMatrix is a matrix of ConfigSet rows indexed by creative index:
// row i is the set of configs for which creative i is still biddable. A
// default row is returned for creative indices past the stored prefix, the
// same growth-on-demand discipline ConfigSet uses for bit indices.
type CreativeMatrix struct {
	rows  []ConfigSet
	deflt ConfigSet
}

// NewCreativeMatrix returns an empty matrix whose default row is empty.
func NewCreativeMatrix() CreativeMatrix {
	return CreativeMatrix{deflt: New()}
}

// NewCreativeMatrixWithDefault returns an empty matrix whose default row
// equals def, e.g. a cofinite default row for "every config, until narrowed".
func NewCreativeMatrixWithDefault(def ConfigSet) CreativeMatrix {
	return CreativeMatrix{deflt: def.Clone()}
}

// NumRows reports the length of the stored row prefix.
func (m CreativeMatrix) NumRows() uint { return uint(len(m.rows)) }

// Row returns the ConfigSet for creative i, falling back to the default row
// for indices past the stored prefix.
func (m CreativeMatrix) Row(i uint) ConfigSet {
	if i < uint(len(m.rows)) {
		return m.rows[i]
	}
	return m.deflt
}

// SetRow replaces the row for creative i, growing the stored prefix (filling
// new rows with the current default) if necessary.
func (m *CreativeMatrix) SetRow(i uint, row ConfigSet) {
	m.growTo(i + 1)
	m.rows[i] = row
}

func (m *CreativeMatrix) growTo(n uint) {
	for uint(len(m.rows)) < n {
		m.rows = append(m.rows, m.deflt.Clone())
	}
}

// Clone returns an independent copy.
func (m CreativeMatrix) Clone() CreativeMatrix {
	rows := make([]ConfigSet, len(m.rows))
	for i, r := range m.rows {
		rows[i] = r.Clone()
	}
	return CreativeMatrix{rows: rows, deflt: m.deflt.Clone()}
}

// And narrows m row-wise with other's matching rows.
func (m *CreativeMatrix) And(other CreativeMatrix) *CreativeMatrix {
	return m.combine(other, func(a *ConfigSet, b ConfigSet) { a.And(b) })
}

// Or widens m row-wise with other's matching rows.
func (m *CreativeMatrix) Or(other CreativeMatrix) *CreativeMatrix {
	return m.combine(other, func(a *ConfigSet, b ConfigSet) { a.Or(b) })
}

func (m *CreativeMatrix) combine(other CreativeMatrix, op func(a *ConfigSet, b ConfigSet)) *CreativeMatrix {
	n := uint(len(m.rows))
	if on := uint(len(other.rows)); on > n {
		n = on
	}
	m.growTo(n)
	for i := uint(0); i < n; i++ {
		row := m.rows[i]
		op(&row, other.Row(i))
		m.rows[i] = row
	}
	op(&m.deflt, other.deflt)
	return m
}

// Negate flips every stored row and the default row in place.
func (m *CreativeMatrix) Negate() *CreativeMatrix {
	for i := range m.rows {
		m.rows[i].Negate()
	}
	m.deflt.Negate()
	return m
}

// Aggregate ORs every stored row together, yielding the set of configs for
// which at least one known creative is still biddable. Only the stored row
// prefix is folded: the number of creatives in a request is always known up
// front, so the infinite default row never participates in a real
// aggregation.
func (m CreativeMatrix) Aggregate() ConfigSet {
	out := New()
	for _, row := range m.rows {
		out.Or(row)
	}
	return out
}
