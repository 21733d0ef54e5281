package scoreline

import "errors"

// Sentinel errors for scoreline parsing.
var (
	ErrEmpty     = errors.New("empty scoreline")
	ErrMalformed = errors.New("malformed scoreline")
)
