package filters

import (
	"github.com/adfabric/bidfilter/engine/bitset"
	"github.com/adfabric/bidfilter/engine/internal/errs"
	"github.com/adfabric/bidfilter/engine/internal/state"
	"github.com/adfabric/bidfilter/engine/models"
)

const hoursPerWeek = 168

// HourOfWeekFilter narrows by the 168-bucket hour-of-week derived from the
// request timestamp: bucket h holds the configs permitted to bid in hour h.
type HourOfWeekFilter struct {
	data [hoursPerWeek]bitset.ConfigSet
}

func NewHourOfWeekFilter() *HourOfWeekFilter {
	f := &HourOfWeekFilter{}
	for i := range f.data {
		f.data[i] = bitset.New()
	}
	return f
}

func (f *HourOfWeekFilter) Name() string     { return "hourOfWeek" }
func (f *HourOfWeekFilter) Priority() uint32 { return PriorityHourOfWeek }

func (f *HourOfWeekFilter) AddConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	for h, allowed := range ac.HourOfWeekBitmap {
		if allowed {
			f.data[h].Set(uint(cfg))
		}
	}
}

func (f *HourOfWeekFilter) RemoveConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	for h, allowed := range ac.HourOfWeekBitmap {
		if allowed {
			f.data[h].Reset(uint(cfg))
		}
	}
}

func (f *HourOfWeekFilter) Filter(st *state.FilterState) error {
	if st.Request.Timestamp.IsZero() {
		return errs.NewFatal(f.Name(), errs.ErrNilTimestamp)
	}
	st.NarrowConfigs(f.data[st.Request.HourOfWeek()])
	return nil
}

func (f *HourOfWeekFilter) Clone() Filter {
	cp := &HourOfWeekFilter{}
	for i, cs := range f.data {
		cp.data[i] = cs.Clone()
	}
	return cp
}
