package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfabric/bidfilter/engine/internal/errs"
	"github.com/adfabric/bidfilter/engine/internal/filters"
	"github.com/adfabric/bidfilter/engine/internal/state"
)

// stubFilter satisfies filters.Filter with no behavior; registry tests only
// care that Make returns a fresh instance per call, not what it does.
type stubFilter struct{ id int }

func (f *stubFilter) Name() string                  { return "stub" }
func (f *stubFilter) Priority() uint32               { return 0 }
func (f *stubFilter) AddConfig(int, any)             {}
func (f *stubFilter) RemoveConfig(int, any)          {}
func (f *stubFilter) Filter(*state.FilterState) error { return nil }
func (f *stubFilter) Clone() filters.Filter          { return &stubFilter{id: f.id} }

func TestRegisterAndMakeRoundTrip(t *testing.T) {
	require.NoError(t, Register("registry-test-a", func() filters.Filter { return &stubFilter{id: 1} }))

	f, err := Make("registry-test-a")
	require.NoError(t, err)
	assert.Equal(t, 1, f.(*stubFilter).id)
}

func TestRegisterDuplicateNameIsFatal(t *testing.T) {
	require.NoError(t, Register("registry-test-b", func() filters.Filter { return &stubFilter{} }))

	err := Register("registry-test-b", func() filters.Filter { return &stubFilter{} })
	require.Error(t, err)
	var fatal *errs.FatalError
	require.ErrorAs(t, err, &fatal)
	assert.ErrorIs(t, err, errs.ErrFilterAlreadyRegistered)
}

func TestMakeUnknownNameIsFatal(t *testing.T) {
	_, err := Make("registry-test-does-not-exist")
	require.Error(t, err)
	var fatal *errs.FatalError
	require.ErrorAs(t, err, &fatal)
	assert.ErrorIs(t, err, errs.ErrUnknownFilter)
}

func TestMakeReturnsIndependentInstances(t *testing.T) {
	require.NoError(t, Register("registry-test-c", func() filters.Filter { return &stubFilter{id: 7} }))

	a, err := Make("registry-test-c")
	require.NoError(t, err)
	b, err := Make("registry-test-c")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestListIsSortedAndIncludesRegistered(t *testing.T) {
	require.NoError(t, Register("registry-test-z", func() filters.Filter { return &stubFilter{} }))
	require.NoError(t, Register("registry-test-m", func() filters.Filter { return &stubFilter{} }))

	names := List()
	var zIdx, mIdx = -1, -1
	for i, n := range names {
		if n == "registry-test-z" {
			zIdx = i
		}
		if n == "registry-test-m" {
			mIdx = i
		}
	}
	require.NotEqual(t, -1, zIdx)
	require.NotEqual(t, -1, mIdx)
	assert.Less(t, mIdx, zIdx)
}
