// Package registry is the process-wide filter name→constructor table:
// registration happens once at startup, behind a mutex that is also held
// (briefly) for lookups, matching the "effectively write-once" discipline
// the concurrency model assigns to the registry.
package registry

import (
	"sort"
	"sync"

	"github.com/adfabric/bidfilter/engine/internal/errs"
	"github.com/adfabric/bidfilter/engine/internal/filters"
)

var (
	mu    sync.Mutex
	ctors = make(map[string]func() filters.Filter)
)

// Register installs the constructor for name. Registering the same name
// twice is a fatal configuration error, not a silent overwrite.
func Register(name string, ctor func() filters.Filter) error {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := ctors[name]; exists {
		return errs.NewFatal(name, errs.ErrFilterAlreadyRegistered)
	}
	ctors[name] = ctor
	return nil
}

// Make constructs a fresh instance of the named filter. An unknown name is
// fatal: it almost always signals a typo in configuration, not a condition
// callers should retry past.
func Make(name string) (filters.Filter, error) {
	mu.Lock()
	defer mu.Unlock()
	ctor, ok := ctors[name]
	if !ok {
		return nil, errs.NewFatal(name, errs.ErrUnknownFilter)
	}
	return ctor(), nil
}

// List returns every registered filter name, sorted for deterministic
// iteration (used by InitWithDefaultFilters).
func List() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, 0, len(ctors))
	for name := range ctors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
