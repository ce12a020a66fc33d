package filters

import (
	"github.com/adfabric/bidfilter/engine/internal/state"
	"github.com/adfabric/bidfilter/engine/models"
)

// textRegexFilter is the shared shape of UrlRegexFilter, LanguageRegexFilter
// and LocationRegexFilter: each is an IncludeExcludeFilter[string, *RegexFilter]
// applied to one string extracted from the request, configured from one
// string include/exclude list extracted from the agent config.
type textRegexFilter struct {
	name       string
	priority   uint32
	extractReq func(*models.BidRequest) string
	extractCfg func(*models.AgentConfig) models.IncludeExcludeConfig[string]
	ie         *IncludeExcludeFilter[string, *RegexFilter]
}

func newTextRegexFilter(name string, priority uint32, extractReq func(*models.BidRequest) string, extractCfg func(*models.AgentConfig) models.IncludeExcludeConfig[string]) *textRegexFilter {
	return &textRegexFilter{
		name:       name,
		priority:   priority,
		extractReq: extractReq,
		extractCfg: extractCfg,
		ie:         NewIncludeExcludeFilter[string](NewRegexFilter(), NewRegexFilter()),
	}
}

func (f *textRegexFilter) Name() string     { return f.name }
func (f *textRegexFilter) Priority() uint32 { return f.priority }

func (f *textRegexFilter) AddConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	ie := f.extractCfg(ac)
	f.ie.AddConfig(cfg, ie.Include, ie.Exclude)
}

func (f *textRegexFilter) RemoveConfig(cfg int, config any) {
	ac, ok := config.(*models.AgentConfig)
	if !ok {
		return
	}
	ie := f.extractCfg(ac)
	f.ie.RemoveConfig(cfg, ie.Include, ie.Exclude)
}

func (f *textRegexFilter) Filter(st *state.FilterState) error {
	st.NarrowConfigs(f.ie.Filter(f.extractReq(st.Request)))
	return nil
}

func (f *textRegexFilter) Clone() Filter {
	return &textRegexFilter{name: f.name, priority: f.priority, extractReq: f.extractReq, extractCfg: f.extractCfg, ie: f.ie.Clone()}
}

// NewUrlRegexFilter narrows by the request's URL against each config's
// registered URL include/exclude patterns.
func NewUrlRegexFilter() Filter {
	return newTextRegexFilter("url", PriorityUrl,
		func(r *models.BidRequest) string { return r.URL },
		func(ac *models.AgentConfig) models.IncludeExcludeConfig[string] { return ac.URLFilter })
}

// NewLanguageRegexFilter narrows by the request's raw language string.
func NewLanguageRegexFilter() Filter {
	return newTextRegexFilter("language", PriorityLanguage,
		func(r *models.BidRequest) string { return r.Language },
		func(ac *models.AgentConfig) models.IncludeExcludeConfig[string] { return ac.LanguageFilter })
}

// NewLocationRegexFilter narrows by the request's full location string.
func NewLocationRegexFilter() Filter {
	return newTextRegexFilter("location", PriorityLocation,
		func(r *models.BidRequest) string { return r.Location },
		func(ac *models.AgentConfig) models.IncludeExcludeConfig[string] { return ac.LocationFilter })
}
