package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigManagerLoadMissingFileYieldsEmptyConfig(t *testing.T) {
	cm := NewConfigManager(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, cm.Load())
	assert.Empty(t, cm.Current().Filters)
}

func TestConfigManagerUpdateRoundTripsThroughDisk(t *testing.T) {
	ensureDefaultsRegistered(t)
	path := filepath.Join(t.TempDir(), "pool.yaml")
	cm := NewConfigManager(path)

	want := &PoolConfig{
		Version:                 "v1",
		Filters:                 []string{"segments", "creative"},
		CASRetryCeiling:         3,
		ExchangeCallbackTimeout: 50 * time.Millisecond,
		MetricsEnabled:          true,
	}
	require.NoError(t, cm.Update(want))
	assert.NotEmpty(t, cm.Current().Checksum)

	reloaded := NewConfigManager(path)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, "v1", reloaded.Current().Version)
	assert.ElementsMatch(t, []string{"segments", "creative"}, reloaded.Current().Filters)
	assert.Equal(t, 3, reloaded.Current().CASRetryCeiling)
	assert.Equal(t, 50*time.Millisecond, reloaded.Current().ExchangeCallbackTimeout)
	assert.True(t, reloaded.Current().MetricsEnabled)
}

func TestConfigManagerUpdateRejectsUnknownFilterName(t *testing.T) {
	cm := NewConfigManager(filepath.Join(t.TempDir(), "pool.yaml"))
	err := cm.Update(&PoolConfig{Filters: []string{"not-a-real-filter"}})
	require.Error(t, err)
}

func TestConfigVersionManagerSaveAndRollback(t *testing.T) {
	dir := t.TempDir()
	vm, err := NewConfigVersionManager(dir)
	require.NoError(t, err)

	cfg := &PoolConfig{Version: "v1", Filters: []string{"segments"}}
	require.NoError(t, vm.SaveVersion(cfg))

	back, err := vm.RollbackToVersion("v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"segments"}, back.Filters)
}

func TestConfigVersionManagerRollbackUnknownVersionErrors(t *testing.T) {
	vm, err := NewConfigVersionManager(t.TempDir())
	require.NoError(t, err)
	_, err = vm.RollbackToVersion("does-not-exist")
	require.Error(t, err)
}
