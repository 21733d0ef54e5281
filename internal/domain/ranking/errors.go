package ranking

import "errors"

// ErrInvalidLimit is returned for a negative top-N bound.
var ErrInvalidLimit = errors.New("invalid limit")
