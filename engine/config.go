package engine

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/adfabric/bidfilter/engine/internal/filters"
	"github.com/adfabric/bidfilter/engine/internal/registry"
)

// PoolConfig is the on-disk shape of a pool's operational tuning: which
// filters should be active, and how the pool's writers and exchange
// callbacks are bounded. It deliberately does not carry agent configuration
// objects — loading those is the job of the agent configuration loader,
// named out of scope in this module's own design, and reaches the pool
// instead through Pool.AddConfig/RemoveConfig/ReconcileConfigs, called
// directly by whatever component owns that source of truth. PoolConfig
// round-trips through YAML, matching the config file format the rest of
// the stack's operators already use.
type PoolConfig struct {
	Version   string    `yaml:"version"`
	UpdatedAt time.Time `yaml:"updatedAt"`

	// Filters is the set of filter names that should be active in the
	// pool, reconciled by name via Reconcile.
	Filters []string `yaml:"filters"`

	// CASRetryCeiling bounds every pool mutator's compare-and-swap retry
	// loop; see pool.Options.CASRetryCeiling. It only takes effect at Pool
	// construction (NewPoolWithOptions) since changing a running pool's
	// retry ceiling would mean discarding its live snapshot.
	CASRetryCeiling int `yaml:"casRetryCeiling,omitempty"`

	// ExchangeCallbackTimeout bounds a single call into the exchange
	// connector's BidRequestPreFilter/BidRequestPostFilter. Unlike
	// CASRetryCeiling, this is applied live by Reconcile: it is a global
	// knob on the exchangePre/exchangePost filters, not a property of one
	// pool's snapshot.
	ExchangeCallbackTimeout time.Duration `yaml:"exchangeCallbackTimeout,omitempty"`

	// MetricsEnabled records operator intent for whether the pool this
	// config describes should be constructed with a real metrics.Provider
	// rather than the no-op default; like CASRetryCeiling this only takes
	// effect at construction time.
	MetricsEnabled bool `yaml:"metricsEnabled,omitempty"`

	Checksum string `yaml:"checksum,omitempty"`
}

// ConfigValidator checks a candidate PoolConfig before it is accepted.
type ConfigValidator interface {
	Validate(cfg *PoolConfig) error
}

type namesAreKnownValidator struct{}

// Validate rejects a config that names a filter the registry has no
// constructor for: failing fast here is cheaper than discovering the typo
// the first time ConfigManager tries to reconcile it into a pool.
func (namesAreKnownValidator) Validate(cfg *PoolConfig) error {
	known := make(map[string]bool, len(registry.List()))
	for _, n := range registry.List() {
		known[n] = true
	}
	for _, n := range cfg.Filters {
		if !known[n] {
			return fmt.Errorf("config names unknown filter %q", n)
		}
	}
	return nil
}

// ConfigManager owns the authoritative PoolConfig for one file path: it
// loads, validates, persists, and hands out copies of the current config.
type ConfigManager struct {
	path       string
	mu         sync.RWMutex
	current    *PoolConfig
	validators []ConfigValidator
}

// NewConfigManager returns a manager rooted at path. The file need not exist
// yet: Load starts from an empty config in that case.
func NewConfigManager(path string) *ConfigManager {
	return &ConfigManager{
		path:       path,
		current:    &PoolConfig{},
		validators: []ConfigValidator{namesAreKnownValidator{}},
	}
}

// AddValidator registers an additional check run before Update accepts a
// config.
func (cm *ConfigManager) AddValidator(v ConfigValidator) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.validators = append(cm.validators, v)
}

// Load reads the config file from disk, replacing the in-memory current
// config. A missing file is not an error: it leaves an empty config in
// place, the same way a freshly provisioned pool starts with nothing
// registered.
func (cm *ConfigManager) Load() error {
	cfg, err := loadConfigFile(cm.path)
	if err != nil {
		return err
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.current = cfg
	return nil
}

// Update validates and persists cfg, then adopts it as current.
func (cm *ConfigManager) Update(cfg *PoolConfig) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for _, v := range cm.validators {
		if err := v.Validate(cfg); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	cfg.UpdatedAt = time.Now()
	cfg.Checksum = checksumOf(cfg)
	if err := writeConfigFile(cm.path, cfg); err != nil {
		return err
	}
	cm.current = cfg
	return nil
}

// Current returns a snapshot of the manager's current config. Callers must
// not mutate the returned value's slices in place.
func (cm *ConfigManager) Current() *PoolConfig {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.current
}

func loadConfigFile(path string) (*PoolConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &PoolConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg PoolConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

func writeConfigFile(path string, cfg *PoolConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func checksumOf(cfg *PoolConfig) string {
	cpy := *cfg
	cpy.Checksum = ""
	data, _ := json.Marshal(cpy)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

// Reconcile brings pool's live filter chain in line with want.Filters
// (filters present in want but missing from the pool are added, filters in
// the pool but absent from want are removed, in that order, so a filter
// newly added this round still sees every surviving config replayed into
// it) and applies want.ExchangeCallbackTimeout as the live bound on
// exchangePre/exchangePost callback calls. It does not touch the pool's
// named configuration table — that is Pool.AddConfig/RemoveConfig/
// ReconcileConfigs's job, driven by whatever owns agent configuration, not
// by this pool-operational config file.
func Reconcile(ctx context.Context, pool *Pool, want *PoolConfig) error {
	have := make(map[string]bool)
	for _, n := range pool.FilterNames() {
		have[n] = true
	}
	wantSet := make(map[string]bool, len(want.Filters))
	for _, n := range want.Filters {
		wantSet[n] = true
	}

	names := append([]string(nil), want.Filters...)
	sort.Strings(names)
	for _, n := range names {
		if !have[n] {
			if err := pool.AddFilter(ctx, n); err != nil {
				return err
			}
		}
	}
	for n := range have {
		if !wantSet[n] {
			if err := pool.RemoveFilter(ctx, n); err != nil {
				return err
			}
		}
	}

	filters.SetCallbackTimeout(want.ExchangeCallbackTimeout)
	return nil
}

// HotReloadSystem watches a config file for writes and replays each new
// version into a ConfigManager and Pool as it lands, matching the
// filesystem-watch discipline operators already rely on for other config
// surfaces in this stack.
type HotReloadSystem struct {
	manager *ConfigManager
	pool    *Pool
	watcher *fsnotify.Watcher

	mu         sync.Mutex
	isWatching bool
}

// NewHotReloadSystem wires manager's file to pool: every detected change is
// loaded through manager and reconciled into pool.
func NewHotReloadSystem(manager *ConfigManager, pool *Pool) (*HotReloadSystem, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &HotReloadSystem{manager: manager, pool: pool, watcher: watcher}, nil
}

// Start begins watching until ctx is cancelled or StopWatching is called.
// Reconciliation errors are delivered on the returned channel rather than
// aborting the watch: a bad edit to the config file should not take down an
// otherwise-healthy pool.
func (hrs *HotReloadSystem) Start(ctx context.Context) (<-chan error, error) {
	hrs.mu.Lock()
	if hrs.isWatching {
		hrs.mu.Unlock()
		return nil, fmt.Errorf("hot reload already running")
	}
	dir := filepath.Dir(hrs.manager.path)
	if err := hrs.watcher.Add(dir); err != nil {
		hrs.mu.Unlock()
		return nil, fmt.Errorf("watch dir %s: %w", dir, err)
	}
	hrs.isWatching = true
	hrs.mu.Unlock()

	errs := make(chan error, 10)
	go func() {
		defer close(errs)
		lastChecksum := hrs.manager.Current().Checksum
		for {
			select {
			case e, ok := <-hrs.watcher.Events:
				if !ok {
					return
				}
				if e.Name != hrs.manager.path || e.Op&fsnotify.Write == 0 {
					continue
				}
				next, err := loadConfigFile(hrs.manager.path)
				if err != nil {
					errs <- err
					continue
				}
				if next.Checksum == lastChecksum {
					continue
				}
				lastChecksum = next.Checksum
				hrs.manager.mu.Lock()
				hrs.manager.current = next
				hrs.manager.mu.Unlock()
				if err := Reconcile(ctx, hrs.pool, next); err != nil {
					errs <- err
				}
			case err, ok := <-hrs.watcher.Errors:
				if !ok {
					return
				}
				errs <- err
			case <-ctx.Done():
				return
			}
		}
	}()
	return errs, nil
}

// StopWatching closes the underlying watcher.
func (hrs *HotReloadSystem) StopWatching() error {
	hrs.mu.Lock()
	defer hrs.mu.Unlock()
	if !hrs.isWatching {
		return nil
	}
	hrs.isWatching = false
	return hrs.watcher.Close()
}

// ConfigVersionManager persists PoolConfig snapshots to disk by version
// string, so a bad deploy can be rolled back by name rather than by hand.
type ConfigVersionManager struct {
	dir string
	mu  sync.RWMutex
}

// NewConfigVersionManager returns a manager rooted at dir, creating it if
// necessary.
func NewConfigVersionManager(dir string) (*ConfigVersionManager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create versions dir: %w", err)
	}
	return &ConfigVersionManager{dir: dir}, nil
}

// SaveVersion writes cfg under its own Version field.
func (cvm *ConfigVersionManager) SaveVersion(cfg *PoolConfig) error {
	cvm.mu.Lock()
	defer cvm.mu.Unlock()
	path := filepath.Join(cvm.dir, cfg.Version+".json")
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal version: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// RollbackToVersion reads back a previously saved config by version name.
func (cvm *ConfigVersionManager) RollbackToVersion(version string) (*PoolConfig, error) {
	cvm.mu.RLock()
	defer cvm.mu.RUnlock()
	path := filepath.Join(cvm.dir, version+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read version %q: %w", version, err)
	}
	var cfg PoolConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse version %q: %w", version, err)
	}
	return &cfg, nil
}
