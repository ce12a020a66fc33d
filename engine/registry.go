package engine

import (
	"github.com/adfabric/bidfilter/engine/internal/filters"
	"github.com/adfabric/bidfilter/engine/internal/registry"
)

// defaultFilterCtors is every concrete filter this module ships, keyed by
// the name it registers under. RegisterDefaults installs all of them;
// callers who want a leaner chain can call registry entries individually
// through their own constructors instead.
var defaultFilterCtors = map[string]func() filters.Filter{
	"segments":     func() filters.Filter { return filters.NewSegmentsFilter() },
	"hourOfWeek":   func() filters.Filter { return filters.NewHourOfWeekFilter() },
	"exchangeName": func() filters.Filter { return filters.NewExchangeNameFilter() },
	"location":     func() filters.Filter { return filters.NewLocationRegexFilter() },
	"language":     func() filters.Filter { return filters.NewLanguageRegexFilter() },
	"url":          func() filters.Filter { return filters.NewUrlRegexFilter() },
	"foldPosition": func() filters.Filter { return filters.NewFoldPositionFilter() },
	"requiredIds":  func() filters.Filter { return filters.NewRequiredIdsFilter() },
	"creative":     func() filters.Filter { return filters.NewCreativeFilter() },
	"exchangePre":  func() filters.Filter { return filters.NewExchangePreFilter() },
	"exchangePost": func() filters.Filter { return filters.NewExchangePostFilter() },
}

// RegisterDefaults installs every built-in filter's constructor into the
// process-wide registry. Call it once at startup, before constructing any
// Pool that will call InitWithDefaultFilters or Reconcile.
func RegisterDefaults() error {
	for name, ctor := range defaultFilterCtors {
		if err := registry.Register(name, ctor); err != nil {
			return err
		}
	}
	return nil
}

// RegisterFilter installs a single additional filter constructor, for
// callers integrating a custom filter alongside the built-ins.
func RegisterFilter(name string, ctor func() filters.Filter) error {
	return registry.Register(name, ctor)
}
