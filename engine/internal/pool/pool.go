package pool

import (
	"context"
	"sync/atomic"

	"github.com/adfabric/bidfilter/engine/bitset"
	"github.com/adfabric/bidfilter/engine/internal/errs"
	"github.com/adfabric/bidfilter/engine/internal/registry"
	"github.com/adfabric/bidfilter/engine/internal/state"
	internaltracing "github.com/adfabric/bidfilter/engine/internal/telemetry/tracing"
	"github.com/adfabric/bidfilter/engine/models"
	"github.com/adfabric/bidfilter/engine/telemetry/logging"
	"github.com/adfabric/bidfilter/engine/telemetry/metrics"
)

// Options configures a FilterPool's operational tuning: how hard a writer
// tries before giving up, and where it reports instrumentation. The zero
// value is usable: unlimited retries, a no-op metrics provider, a
// slog.Default logger, and tracing disabled.
type Options struct {
	// CASRetryCeiling bounds how many compare-and-swap attempts, the first
	// one included, a writer makes before returning ErrCASRetriesExceeded. 0
	// means unlimited, matching the original unbounded-retry behavior.
	CASRetryCeiling int
	// Metrics receives pool-level instrumentation: filter evaluation
	// latency, CAS retry counts, and the eligible-config gauge.
	Metrics metrics.Provider
	// Logger receives management-plane log lines (AddFilter, RemoveFilter,
	// AddConfig, RemoveConfig, CAS retries). Never called from Filter's hot
	// path. Nil installs logging.New(nil) (the correlating wrapper over
	// slog.Default).
	Logger logging.Logger
	// Tracer wraps Filter's read-side guard in a span. Nil installs a
	// no-op tracer.
	Tracer internaltracing.Tracer
}

// FilterPool owns the current snapshot and publishes new ones via
// compare-and-swap. The read path never takes a lock: Filter does one
// acquire-load of the snapshot pointer and walks the chain it finds there,
// entirely unaffected by any writer racing to publish a replacement.
type FilterPool struct {
	snapshot atomic.Pointer[Data]
	opts     Options

	filterDuration func() metrics.Timer
	casRetries     metrics.Counter
	eligibleGauge  metrics.Gauge
}

// New returns an empty pool with default options: unlimited CAS retries, no
// metrics reporting.
func New() *FilterPool { return NewWithOptions(Options{}) }

// NewWithOptions returns an empty pool configured per opts.
func NewWithOptions(opts Options) *FilterPool {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoopProvider()
	}
	if opts.Logger == nil {
		opts.Logger = logging.New(nil)
	}
	if opts.Tracer == nil {
		opts.Tracer = internaltracing.NewTracer(false)
	}
	p := &FilterPool{opts: opts}
	p.snapshot.Store(newData())
	common := metrics.CommonOpts{Namespace: "bidfilter", Subsystem: "pool"}
	p.filterDuration = opts.Metrics.NewTimer(metrics.HistogramOpts{
		CommonOpts: metrics.CommonOpts{Namespace: common.Namespace, Subsystem: common.Subsystem, Name: "filter_duration_seconds", Help: "time spent running the filter chain against one request"},
	})
	p.casRetries = opts.Metrics.NewCounter(metrics.CounterOpts{
		CommonOpts: metrics.CommonOpts{Namespace: common.Namespace, Subsystem: common.Subsystem, Name: "cas_retries_total", Help: "compare-and-swap retries across every mutator", Labels: []string{"op"}},
	})
	p.eligibleGauge = opts.Metrics.NewGauge(metrics.GaugeOpts{
		CommonOpts: metrics.CommonOpts{Namespace: common.Namespace, Subsystem: common.Subsystem, Name: "eligible_configs", Help: "configs still eligible after the most recent Filter call"},
	})
	return p
}

// retryBudget returns the number of CAS attempts this mutator gets before
// reporting ErrCASRetriesExceeded: opts.CASRetryCeiling, or unbounded (0) if
// unset.
func (p *FilterPool) retryBudget() int { return p.opts.CASRetryCeiling }

// warnRetry logs a single CAS retry at the management-plane boundary. Never
// called from Filter's hot path.
func (p *FilterPool) warnRetry(ctx context.Context, op, name string) {
	p.casRetries.Inc(1, op)
	p.opts.Logger.WarnCtx(ctx, "pool: compare-and-swap retry", "op", op, "name", name)
}

// Filter runs the current filter chain, in priority order, against a fresh
// FilterState for req. It short-circuits as soon as the eligible set is
// empty: no later filter can widen it back, since every filter only narrows.
// A non-nil error is a fatal configuration error from some filter in the
// chain (e.g. a null request timestamp) and must be treated as "this
// request could not be filtered", not as "zero configs survived". The
// read-side guard is wrapped in a trace span; the hot path itself never
// logs.
func (p *FilterPool) Filter(ctx context.Context, req *models.BidRequest, exchange models.ExchangeConnector) (bitset.ConfigSet, models.BiddableSpots, error) {
	ctx, span := p.opts.Tracer.StartSpan(ctx, "pool.Filter")
	defer span.End()

	stop := p.filterDuration()
	defer stop.ObserveDuration()

	d := p.snapshot.Load()
	st := state.New(req, exchange, d.ActiveConfigs, d.CreativeCounts)
	for _, f := range d.Filters {
		if st.Configs().Empty() {
			break
		}
		if err := f.Filter(st); err != nil {
			return bitset.New(), nil, err
		}
	}
	p.eligibleGauge.Set(float64(st.Configs().Count()))
	return st.Configs(), st.BiddableSpots(), nil
}

// AddFilter constructs a fresh instance of the named filter via the
// registry, replays addConfig for every live configuration into it so it
// starts in the same state the rest of the chain is already in, re-sorts by
// priority, and publishes. Retries the whole clone-mutate step on CAS
// failure, so a concurrent writer never causes this call to silently lose
// its effect.
func (p *FilterPool) AddFilter(ctx context.Context, name string) error {
	budget := p.retryBudget()
	for attempt := 0; ; attempt++ {
		if budget > 0 && attempt >= budget {
			p.opts.Logger.ErrorCtx(ctx, "pool: addFilter gave up", "name", name)
			return errs.NewFatal(name, errs.ErrCASRetriesExceeded)
		}
		old := p.snapshot.Load()
		for _, f := range old.Filters {
			if f.Name() == name {
				return errs.NewFatal(name, errs.ErrFilterAlreadyRegistered)
			}
		}
		nf, err := registry.Make(name)
		if err != nil {
			return err
		}

		next := old.clone()
		for i, s := range next.Slots {
			if s.config != nil {
				nf.AddConfig(i, s.config)
			}
		}
		next.Filters = append(next.Filters, nf)
		next.sortFilters()

		if p.snapshot.CompareAndSwap(old, next) {
			p.opts.Logger.InfoCtx(ctx, "pool: filter added", "name", name)
			return nil
		}
		p.warnRetry(ctx, "addFilter", name)
	}
}

// RemoveFilter drops the named filter from the chain. Removing a filter
// that is not present is a no-op, not an error.
func (p *FilterPool) RemoveFilter(ctx context.Context, name string) error {
	budget := p.retryBudget()
	for attempt := 0; ; attempt++ {
		if budget > 0 && attempt >= budget {
			p.opts.Logger.ErrorCtx(ctx, "pool: removeFilter gave up", "name", name)
			return errs.NewFatal(name, errs.ErrCASRetriesExceeded)
		}
		old := p.snapshot.Load()
		idx := -1
		for i, f := range old.Filters {
			if f.Name() == name {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil
		}

		next := old.clone()
		next.Filters = append(next.Filters[:idx], next.Filters[idx+1:]...)

		if p.snapshot.CompareAndSwap(old, next) {
			p.opts.Logger.InfoCtx(ctx, "pool: filter removed", "name", name)
			return nil
		}
		p.warnRetry(ctx, "removeFilter", name)
	}
}

// AddConfig installs config under name, reusing a free slot if one exists,
// and returns its assigned cfgIdx. Every filter in the current chain sees
// addConfig(cfgIdx, config) before the new snapshot is published.
func (p *FilterPool) AddConfig(ctx context.Context, name string, config *models.AgentConfig) (int, error) {
	budget := p.retryBudget()
	for attempt := 0; ; attempt++ {
		if budget > 0 && attempt >= budget {
			p.opts.Logger.ErrorCtx(ctx, "pool: addConfig gave up", "name", name)
			return -1, errs.NewFatal(name, errs.ErrCASRetriesExceeded)
		}
		old := p.snapshot.Load()
		next := old.clone()

		idx := -1
		for i, s := range next.Slots {
			if s.config == nil {
				idx = i
				break
			}
		}
		if idx == -1 {
			idx = len(next.Slots)
			next.Slots = append(next.Slots, slot{})
			next.CreativeCounts = append(next.CreativeCounts, 0)
		}
		next.Slots[idx] = slot{name: name, config: config}
		next.CreativeCounts[idx] = len(config.Creatives)
		next.ActiveConfigs.Set(uint(idx))
		for _, f := range next.Filters {
			f.AddConfig(idx, config)
		}

		if p.snapshot.CompareAndSwap(old, next) {
			p.opts.Logger.InfoCtx(ctx, "pool: config added", "name", name, "cfgIdx", idx)
			return idx, nil
		}
		p.warnRetry(ctx, "addConfig", name)
	}
}

// RemoveConfig clears the slot registered under name, freeing its index for
// reuse by a later AddConfig.
func (p *FilterPool) RemoveConfig(ctx context.Context, name string) error {
	budget := p.retryBudget()
	for attempt := 0; ; attempt++ {
		if budget > 0 && attempt >= budget {
			p.opts.Logger.ErrorCtx(ctx, "pool: removeConfig gave up", "name", name)
			return errs.NewFatal(name, errs.ErrCASRetriesExceeded)
		}
		old := p.snapshot.Load()
		idx := -1
		for i, s := range old.Slots {
			if s.config != nil && s.name == name {
				idx = i
				break
			}
		}
		if idx == -1 {
			return errs.NewFatal(name, errs.ErrUnknownConfig)
		}

		next := old.clone()
		config := next.Slots[idx].config
		next.ActiveConfigs.Reset(uint(idx))
		next.Slots[idx] = slot{}
		next.CreativeCounts[idx] = 0
		for _, f := range next.Filters {
			f.RemoveConfig(idx, config)
		}

		if p.snapshot.CompareAndSwap(old, next) {
			p.opts.Logger.InfoCtx(ctx, "pool: config removed", "name", name)
			return nil
		}
		p.warnRetry(ctx, "removeConfig", name)
	}
}

// FilterNames returns the current chain's filter names, in priority order.
func (p *FilterPool) FilterNames() []string {
	d := p.snapshot.Load()
	out := make([]string, len(d.Filters))
	for i, f := range d.Filters {
		out[i] = f.Name()
	}
	return out
}

// ConfigNames returns the names of every occupied configuration slot.
func (p *FilterPool) ConfigNames() []string {
	d := p.snapshot.Load()
	var out []string
	for _, s := range d.Slots {
		if s.config != nil {
			out = append(out, s.name)
		}
	}
	return out
}

// InitWithDefaultFilters adds every filter currently known to the registry,
// in name order, to an empty pool.
func (p *FilterPool) InitWithDefaultFilters(ctx context.Context) error {
	for _, name := range registry.List() {
		if err := p.AddFilter(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
