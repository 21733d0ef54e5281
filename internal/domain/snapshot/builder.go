package snapshot

import (
	"slices"

	"github.com/okian/recordbook/internal/domain/filter"
	"github.com/okian/recordbook/internal/domain/types"
)

// Builder assembles a Snapshot from finalized rows, one dimension value at
// a time.
type Builder struct {
	s *Snapshot
}

// NewBuilder starts a snapshot for key.
func NewBuilder(key Key, kind types.Kind) *Builder {
	return &Builder{s: &Snapshot{Key: key, Kind: kind, Rows: make(map[string]Breakdown)}}
}

// Add stores rows under dim=value. DimensionNone stores overall rows.
// Dimensions that are never snapshot-keyed are ignored.
func (b *Builder) Add(dim filter.Dimension, value string, rows []types.Row) {
	if !Keyed(dim) {
		return
	}
	if dim != filter.DimensionNone && !slices.Contains(b.s.Dimensions, dim.String()) {
		b.s.Dimensions = append(b.s.Dimensions, dim.String())
	}
	for _, r := range rows {
		bd := b.s.Rows[r.Key]
		if dim == filter.DimensionNone {
			row := r
			bd.Overall = &row
		} else {
			m := bd.slot(dim)
			if *m == nil {
				*m = make(map[string]types.Row)
			}
			(*m)[value] = r
		}
		b.s.Rows[r.Key] = bd
	}
}

// Snapshot returns the assembled snapshot.
func (b *Builder) Snapshot() *Snapshot {
	return b.s
}
