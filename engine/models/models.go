// Package models defines the external boundary types the filter pipeline
// consumes: the bid request, the exchange connector, and the agent
// configuration. None of these types are owned or mutated by the pipeline;
// they are read-only views into data produced and transported elsewhere.
package models

import (
	"sync"
	"time"
)

// AdFormat is a creative's pixel dimensions.
type AdFormat struct {
	Width  int
	Height int
}

// AdPosition is a coarse placement hint for an impression slot.
type AdPosition string

const (
	PositionUnknown AdPosition = "unknown"
	PositionAbove   AdPosition = "above"
	PositionBelow   AdPosition = "below"
)

// SegmentList is the set of segment labels a request (or a configuration's
// include/exclude registration) carries for one domain. Labels may be
// integral (e.g. age-bucket ids) or string (e.g. interest tags); a request
// commonly carries only one kind per domain, but both are supported.
type SegmentList struct {
	IntLabels []int64
	StrLabels []string
}

// Empty reports whether the list carries no labels at all.
func (s SegmentList) Empty() bool { return len(s.IntLabels) == 0 && len(s.StrLabels) == 0 }

// Impression is a single ad slot within a bid request.
type Impression struct {
	Formats  []AdFormat
	Position AdPosition
}

// BidRequest is the read-only view of an incoming bid request. The pipeline
// never decodes wire bytes into this type; that is the decoder's job,
// entirely outside this module.
type BidRequest struct {
	Timestamp time.Time
	Segments  map[string]SegmentList
	Imp       []Impression
	URL       string
	Language  string
	Location  string
	Exchange  string
	UserIds   map[string]string
}

// HourOfWeek derives the 0..167 hour-of-week bucket (Monday 00:00 = 0) from
// the request timestamp. Timestamp.IsZero() signals "no timestamp"; callers
// must check that before calling HourOfWeek.
func (r BidRequest) HourOfWeek() int {
	t := r.Timestamp.UTC()
	weekday := (int(t.Weekday()) + 6) % 7 // Monday == 0
	return weekday*24 + t.Hour()
}

// ExchangeConnector is the narrow slice of the exchange integration the
// pipeline consumes: its own identity, and the two callbacks ExchangePre/
// ExchangePostFilter invoke per candidate configuration.
type ExchangeConnector interface {
	ExchangeName() string
	BidRequestPreFilter(req *BidRequest, cfg *AgentConfig, providerData any) bool
	BidRequestPostFilter(req *BidRequest, cfg *AgentConfig, providerData any) bool
}

// IncludeExcludeConfig is the registration-time shape fed to an
// IncludeExcludeFilter-backed concrete filter: a positive include list and a
// negative exclude list over the same value type.
type IncludeExcludeConfig[T any] struct {
	Include []T
	Exclude []T
}

// SegmentFilterConfig is one domain's registration within AgentConfig.Segments.
type SegmentFilterConfig struct {
	Include             SegmentList
	Exclude             SegmentList
	ExcludeIfNotPresent bool
	// ExcludedExchanges lists exchanges for which this domain's registration
	// does not apply; the segments filter treats the config as having no
	// restriction on this domain (its emptyInclude bit) for those exchanges.
	ExcludedExchanges []string
}

// CreativeConfig is one creative within an agent configuration.
type CreativeConfig struct {
	Format AdFormat
}

// AgentConfig is the opaque, shared-ownership configuration object the pool
// stores one reference to per occupied slot. The filter pipeline never
// mutates it; ProviderData access is guarded by Lock because the provider
// table may be written by code outside the pipeline (§5 spin-lock note).
type AgentConfig struct {
	Segments           map[string]SegmentFilterConfig         `yaml:"segments,omitempty"`
	HourOfWeekBitmap   [168]bool                              `yaml:"hourOfWeekBitmap,omitempty"`
	Creatives          []CreativeConfig                       `yaml:"creatives,omitempty"`
	URLFilter          IncludeExcludeConfig[string]            `yaml:"urlFilter,omitempty"`
	LanguageFilter     IncludeExcludeConfig[string]            `yaml:"languageFilter,omitempty"`
	LocationFilter     IncludeExcludeConfig[string]            `yaml:"locationFilter,omitempty"`
	FoldPositionFilter IncludeExcludeConfig[AdPosition]        `yaml:"foldPositionFilter,omitempty"`
	ExchangeFilter     IncludeExcludeConfig[string]            `yaml:"exchangeFilter,omitempty"`
	RequiredIds        []string                                `yaml:"requiredIds,omitempty"`

	Lock         sync.Mutex `yaml:"-"`
	providerData map[string]any
}

// ProviderData reads the per-exchange provider blob under Lock, matching
// the spin-lock discipline §5 requires around the configuration's provider
// table: minimize time under the lock to a single pointer read.
func (c *AgentConfig) ProviderData(exchange string) any {
	c.Lock.Lock()
	defer c.Lock.Unlock()
	return c.providerData[exchange]
}

// SetProviderData installs the per-exchange provider blob. Exposed for
// callers that own the configuration's lifecycle (tests, config loaders).
func (c *AgentConfig) SetProviderData(exchange string, data any) {
	c.Lock.Lock()
	defer c.Lock.Unlock()
	if c.providerData == nil {
		c.providerData = make(map[string]any)
	}
	c.providerData[exchange] = data
}

// BiddableSpots is the per-request output contract: for each surviving
// config, the list of (impression, creative-ids) pairs that passed every
// filter.
type BiddableSpots map[int][]ImpressionCreatives

// ImpressionCreatives pairs an impression index with the creative indices
// still biddable within it.
type ImpressionCreatives struct {
	ImpID       int
	CreativeIds []int
}
