package snapshot

import "errors"

// Snapshot errors.
var (
	ErrNotFound     = errors.New("snapshot not found")
	ErrKindMismatch = errors.New("snapshot row kind mismatch")
)
