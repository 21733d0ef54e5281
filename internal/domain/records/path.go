package records

import (
	"github.com/okian/recordbook/internal/domain/filter"
	"github.com/okian/recordbook/internal/domain/snapshot"
)

// Path is the strategy used to answer a request.
type Path string

// Paths.
const (
	PathSnapshot Path = "snapshot"
	PathDynamic  Path = "dynamic"
)

// Coverage reports the dimensions a registered snapshot can serve.
type Coverage interface {
	Covers(dim filter.Dimension) bool
}

// SelectPath decides between a registered snapshot and dynamic folding.
// The unfiltered set, or a single value in a single snapshot-keyed
// dimension, is served from the snapshot when one covers it. A nil
// coverage means no snapshot is registered. The returned dimension and
// value address the snapshot slice to extract.
func SelectPath(f filter.Set, c Coverage) (Path, filter.Dimension, string) {
	if c == nil {
		return PathDynamic, filter.DimensionNone, ""
	}
	dim, value, ok := f.Dimension()
	if !ok || !snapshot.Keyed(dim) || !c.Covers(dim) {
		return PathDynamic, filter.DimensionNone, ""
	}
	return PathSnapshot, dim, value
}
