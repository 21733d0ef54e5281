package records

import "errors"

// Sentinel errors surfaced to callers.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrUnknownMetric    = errors.New("unknown metric")
)
