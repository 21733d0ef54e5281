package types

import "errors"

// ErrUnknownKind is returned when a detail kind is not recognised.
var ErrUnknownKind = errors.New("unknown calculator kind")
