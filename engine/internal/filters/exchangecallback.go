package filters

import (
	"sync"
	"time"

	"github.com/adfabric/bidfilter/engine/internal/state"
	"github.com/adfabric/bidfilter/engine/models"
)

var (
	callbackTimeoutMu sync.RWMutex
	callbackTimeout   time.Duration
)

// SetCallbackTimeout bounds how long ExchangePreFilter/ExchangePostFilter
// wait on a single BidRequestPreFilter/BidRequestPostFilter call before
// folding it to false, the same way a recovered panic is folded. 0 (the
// default) disables the bound entirely.
func SetCallbackTimeout(d time.Duration) {
	callbackTimeoutMu.Lock()
	defer callbackTimeoutMu.Unlock()
	callbackTimeout = d
}

func currentCallbackTimeout() time.Duration {
	callbackTimeoutMu.RLock()
	defer callbackTimeoutMu.RUnlock()
	return callbackTimeout
}

// safeCall recovers a panicking exchange callback and folds it to false:
// a misbehaving connector must never bring down the filter chain, and a
// config a connector panics on is simply not biddable this request. When a
// callback timeout is configured, a callback that runs past it is folded to
// false the same way, and its goroutine is abandoned rather than killed —
// Go offers no way to preempt it, so a connector that ignores its deadline
// leaks a goroutine instead of corrupting the filter pass.
func safeCall(fn func() bool) (result bool) {
	timeout := currentCallbackTimeout()
	if timeout <= 0 {
		return safeCallNow(fn)
	}

	done := make(chan bool, 1)
	go func() { done <- safeCallNow(fn) }()
	select {
	case result = <-done:
		return result
	case <-time.After(timeout):
		return false
	}
}

func safeCallNow(fn func() bool) (result bool) {
	defer func() {
		if recover() != nil {
			result = false
		}
	}()
	return fn()
}

// ExchangePreFilter runs first in the chain: each eligible config gets one
// call to the exchange connector's BidRequestPreFilter, under that config's
// own provider-data lookup.
type ExchangePreFilter struct {
	configs map[int]*models.AgentConfig
}

func NewExchangePreFilter() *ExchangePreFilter {
	return &ExchangePreFilter{configs: make(map[int]*models.AgentConfig)}
}

func (f *ExchangePreFilter) Name() string     { return "exchangePre" }
func (f *ExchangePreFilter) Priority() uint32 { return PriorityExchangePre }

func (f *ExchangePreFilter) AddConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	f.configs[cfg] = ac
}

func (f *ExchangePreFilter) RemoveConfig(cfg int, config any) {
	delete(f.configs, cfg)
}

func (f *ExchangePreFilter) Filter(st *state.FilterState) error {
	if st.Exchange == nil {
		return nil
	}
	mask := IterateEligible(st.Configs(), func(cfg int) bool {
		ac, ok := f.configs[cfg]
		if !ok {
			return false
		}
		providerData := ac.ProviderData(st.Exchange.ExchangeName())
		return safeCall(func() bool { return st.Exchange.BidRequestPreFilter(st.Request, ac, providerData) })
	})
	st.NarrowConfigs(mask)
	return nil
}

func (f *ExchangePreFilter) Clone() Filter {
	cp := NewExchangePreFilter()
	for k, v := range f.configs {
		cp.configs[k] = v
	}
	return cp
}

// ExchangePostFilter runs last in the chain, giving the connector a final
// veto once every other predicate has already narrowed the eligible set.
type ExchangePostFilter struct {
	configs map[int]*models.AgentConfig
}

func NewExchangePostFilter() *ExchangePostFilter {
	return &ExchangePostFilter{configs: make(map[int]*models.AgentConfig)}
}

func (f *ExchangePostFilter) Name() string     { return "exchangePost" }
func (f *ExchangePostFilter) Priority() uint32 { return PriorityExchangePost }

func (f *ExchangePostFilter) AddConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	f.configs[cfg] = ac
}

func (f *ExchangePostFilter) RemoveConfig(cfg int, config any) {
	delete(f.configs, cfg)
}

func (f *ExchangePostFilter) Filter(st *state.FilterState) error {
	if st.Exchange == nil {
		return nil
	}
	mask := IterateEligible(st.Configs(), func(cfg int) bool {
		ac, ok := f.configs[cfg]
		if !ok {
			return false
		}
		providerData := ac.ProviderData(st.Exchange.ExchangeName())
		return safeCall(func() bool { return st.Exchange.BidRequestPostFilter(st.Request, ac, providerData) })
	})
	st.NarrowConfigs(mask)
	return nil
}

func (f *ExchangePostFilter) Clone() Filter {
	cp := NewExchangePostFilter()
	for k, v := range f.configs {
		cp.configs[k] = v
	}
	return cp
}
