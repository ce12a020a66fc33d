package engine

import "github.com/adfabric/bidfilter/engine/internal/errs"

// Sentinel errors re-exported under the public package, so callers never
// need to import engine/internal/errs directly.
var (
	ErrUnknownFilter           = errs.ErrUnknownFilter
	ErrFilterAlreadyRegistered = errs.ErrFilterAlreadyRegistered
	ErrNilTimestamp            = errs.ErrNilTimestamp
	ErrUnknownConfig           = errs.ErrUnknownConfig
	ErrExchangeNameMismatch    = errs.ErrExchangeNameMismatch
	ErrCASRetriesExceeded      = errs.ErrCASRetriesExceeded
)

// FatalError wraps a configuration error with the offending name. Use
// errors.As to recover one from a Filter call's returned error.
type FatalError = errs.FatalError
