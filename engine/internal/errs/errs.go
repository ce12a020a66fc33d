// Package errs holds the sentinel errors and the fatal-error wrapper shared
// across the filter pipeline's internal packages. It exists purely to avoid
// an import cycle between engine (the public facade) and the internal
// packages that need to raise these errors; engine re-exports them under
// their public names.
package errs

import "errors"

var (
	// ErrUnknownFilter is returned when AddFilter is asked to construct a
	// filter name the registry has no constructor for.
	ErrUnknownFilter = errors.New("bidfilter: unknown filter name")

	// ErrFilterAlreadyRegistered is returned by the registry when a name is
	// registered twice.
	ErrFilterAlreadyRegistered = errors.New("bidfilter: filter name already registered")

	// ErrNilTimestamp is returned by HourOfWeekFilter when a request carries
	// a zero timestamp: hour-of-week cannot be derived.
	ErrNilTimestamp = errors.New("bidfilter: request has no timestamp")

	// ErrUnknownConfig is returned by RemoveConfig when no slot matches the
	// requested name.
	ErrUnknownConfig = errors.New("bidfilter: unknown configuration name")

	// ErrExchangeNameMismatch is returned when the exchange connector's own
	// identity disagrees with the request's exchange field.
	ErrExchangeNameMismatch = errors.New("bidfilter: exchange connector name disagrees with request exchange")

	// ErrCASRetriesExceeded is returned by a pool mutator that hit its
	// configured retry ceiling without successfully publishing a snapshot,
	// signaling pathological write contention rather than a normal race.
	ErrCASRetriesExceeded = errors.New("bidfilter: compare-and-swap retry ceiling exceeded")
)

// FatalError wraps a configuration error with the offending name, per the
// "typed failure with the offending name and a short human-readable
// message" contract for configuration-class errors.
type FatalError struct {
	Name string
	Err  error
}

func (e *FatalError) Error() string {
	return "bidfilter: " + e.Name + ": " + e.Err.Error()
}

func (e *FatalError) Unwrap() error { return e.Err }

// NewFatal constructs a FatalError for name.
func NewFatal(name string, err error) *FatalError {
	return &FatalError{Name: name, Err: err}
}
