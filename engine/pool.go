// Package engine is the public facade of the bid-request filter pipeline:
// a Pool of priority-ordered filters, narrowing a set of agent
// configurations down to the ones still eligible to bid on a given request,
// and the biddable (impression, creative) pairs each survivor may use.
package engine

import (
	"context"

	"github.com/adfabric/bidfilter/engine/bitset"
	"github.com/adfabric/bidfilter/engine/internal/pool"
	internaltracing "github.com/adfabric/bidfilter/engine/internal/telemetry/tracing"
	"github.com/adfabric/bidfilter/engine/models"
	"github.com/adfabric/bidfilter/engine/telemetry/logging"
	"github.com/adfabric/bidfilter/engine/telemetry/metrics"
)

// Pool is the externally usable filter pool: construct one, register
// filters and configurations on it (directly, or via Reconcile from a
// PoolConfig), then call Filter once per incoming bid request.
type Pool struct {
	inner *pool.FilterPool
}

// PoolOptions configures a Pool's operational tuning at construction time:
// see PoolConfig.CASRetryCeiling and PoolConfig.MetricsEnabled for how an
// operator-facing config file maps onto these fields.
type PoolOptions struct {
	// CASRetryCeiling bounds every mutator's compare-and-swap retry loop.
	// 0 means unlimited.
	CASRetryCeiling int
	// Metrics receives pool-level instrumentation. Nil installs a no-op
	// provider.
	Metrics metrics.Provider
	// Logger receives management-plane log lines. Nil installs
	// logging.New(nil) (the correlating wrapper over slog.Default).
	Logger logging.Logger
	// Tracer wraps Filter's read-side guard in a span. Nil installs a
	// no-op tracer.
	Tracer internaltracing.Tracer
}

// NewPool returns an empty pool with default options: unlimited CAS
// retries, no metrics reporting, no tracing.
func NewPool() *Pool {
	return NewPoolWithOptions(PoolOptions{})
}

// NewPoolWithOptions returns an empty pool configured per opts.
func NewPoolWithOptions(opts PoolOptions) *Pool {
	return &Pool{inner: pool.NewWithOptions(pool.Options{
		CASRetryCeiling: opts.CASRetryCeiling,
		Metrics:         opts.Metrics,
		Logger:          opts.Logger,
		Tracer:          opts.Tracer,
	})}
}

// Filter runs the pool's current filter chain against req and returns the
// surviving configuration indices alongside their biddable spots. A non-nil
// error means some filter hit a fatal condition (e.g. a malformed request)
// and the request could not be filtered at all; it is not the same as zero
// configs surviving. ctx carries the trace the read-side guard is spanned
// under; it is never logged from.
func (p *Pool) Filter(ctx context.Context, req *models.BidRequest, exchange models.ExchangeConnector) (bitset.ConfigSet, models.BiddableSpots, error) {
	return p.inner.Filter(ctx, req, exchange)
}

// AddFilter constructs and installs the named filter from the registry.
func (p *Pool) AddFilter(ctx context.Context, name string) error { return p.inner.AddFilter(ctx, name) }

// RemoveFilter drops the named filter. A no-op if it is not present.
func (p *Pool) RemoveFilter(ctx context.Context, name string) error {
	return p.inner.RemoveFilter(ctx, name)
}

// AddConfig installs config under name and returns its assigned index.
func (p *Pool) AddConfig(ctx context.Context, name string, config *models.AgentConfig) (int, error) {
	return p.inner.AddConfig(ctx, name, config)
}

// RemoveConfig drops the configuration registered under name.
func (p *Pool) RemoveConfig(ctx context.Context, name string) error {
	return p.inner.RemoveConfig(ctx, name)
}

// InitWithDefaultFilters adds every filter the registry currently knows
// about, in name order. Call RegisterDefaults (or RegisterFilter) first.
func (p *Pool) InitWithDefaultFilters(ctx context.Context) error {
	return p.inner.InitWithDefaultFilters(ctx)
}

// FilterNames returns the current chain's filter names, in priority order.
func (p *Pool) FilterNames() []string { return p.inner.FilterNames() }

// ConfigNames returns the names of every occupied configuration slot.
func (p *Pool) ConfigNames() []string { return p.inner.ConfigNames() }

// ReconcileConfigs brings the pool's named configuration table in line with
// want: names present in want but not yet registered are added, names
// registered but absent from want are removed. A name present in both is
// left untouched — callers that need to replace a config's contents should
// remove then re-add it under a fresh call, since config identity here is
// by name, not by value.
func (p *Pool) ReconcileConfigs(ctx context.Context, want map[string]*models.AgentConfig) error {
	have := make(map[string]bool)
	for _, n := range p.ConfigNames() {
		have[n] = true
	}
	for name, cfg := range want {
		if !have[name] {
			if _, err := p.AddConfig(ctx, name, cfg); err != nil {
				return err
			}
		}
	}
	for name := range have {
		if _, ok := want[name]; !ok {
			if err := p.RemoveConfig(ctx, name); err != nil {
				return err
			}
		}
	}
	return nil
}
