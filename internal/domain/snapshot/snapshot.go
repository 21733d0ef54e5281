// Package snapshot reads precomputed per-entity aggregates keyed by at most
// one filter dimension.
package snapshot

import (
	"fmt"
	"slices"

	"github.com/okian/recordbook/internal/domain/filter"
	"github.com/okian/recordbook/internal/domain/types"
)

// Key identifies a snapshot: a metric and its canonical parameter string.
type Key struct {
	Metric string `json:"metric"`
	Params string `json:"params,omitempty"`
}

// String renders the key as metric[?params].
func (k Key) String() string {
	if k.Params == "" {
		return k.Metric
	}
	return k.Metric + "?" + k.Params
}

// Breakdown holds one row key's finalized rows, overall and per value of
// each snapshot-keyed dimension.
type Breakdown struct {
	Overall   *types.Row           `json:"overall,omitempty"`
	BySurface map[string]types.Row `json:"by_surface,omitempty"`
	ByLevel   map[string]types.Row `json:"by_level,omitempty"`
	ByRound   map[string]types.Row `json:"by_round,omitempty"`
	ByBestOf  map[string]types.Row `json:"by_best_of,omitempty"`
}

func (b *Breakdown) slot(dim filter.Dimension) *map[string]types.Row {
	switch dim {
	case filter.DimensionSurface:
		return &b.BySurface
	case filter.DimensionLevel:
		return &b.ByLevel
	case filter.DimensionRound:
		return &b.ByRound
	case filter.DimensionBestOf:
		return &b.ByBestOf
	default:
		return nil
	}
}

// Lookup returns the row for one dimension value; DimensionNone reads the
// overall row.
func (b *Breakdown) Lookup(dim filter.Dimension, value string) (types.Row, bool) {
	if dim == filter.DimensionNone {
		if b.Overall == nil {
			return types.Row{}, false
		}
		return *b.Overall, true
	}
	m := b.slot(dim)
	if m == nil || *m == nil {
		return types.Row{}, false
	}
	r, ok := (*m)[value]
	return r, ok
}

// Snapshot is a read-only set of breakdowns for one key.
type Snapshot struct {
	Key  Key        `json:"key"`
	Kind types.Kind `json:"kind"`
	// Dimensions lists the dimensions the snapshot was computed for.
	Dimensions []string             `json:"dimensions,omitempty"`
	Rows       map[string]Breakdown `json:"rows"`
}

// Keyed reports whether dim can ever be served from a snapshot.
func Keyed(dim filter.Dimension) bool {
	switch dim {
	case filter.DimensionNone, filter.DimensionSurface, filter.DimensionLevel,
		filter.DimensionRound, filter.DimensionBestOf:
		return true
	default:
		return false
	}
}

// Covers reports whether the snapshot can answer queries on dim.
func (s *Snapshot) Covers(dim filter.Dimension) bool {
	if dim == filter.DimensionNone {
		return true
	}
	return Keyed(dim) && slices.Contains(s.Dimensions, dim.String())
}

// Extract returns the rows for one dimension value in row-key order.
// DimensionNone yields the overall rows.
func (s *Snapshot) Extract(dim filter.Dimension, value string) []types.Row {
	keys := make([]string, 0, len(s.Rows))
	for k := range s.Rows {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var out []types.Row
	for _, k := range keys {
		b := s.Rows[k]
		if r, ok := b.Lookup(dim, value); ok {
			out = append(out, r)
		}
	}
	return out
}

// Validate checks that every row carries a detail of the snapshot's kind.
func (s *Snapshot) Validate() error {
	check := func(key string, r types.Row) error {
		if r.Detail == nil || r.Detail.Kind() != s.Kind {
			return fmt.Errorf("%w: %s row %q", ErrKindMismatch, s.Key, key)
		}
		return nil
	}
	for key, b := range s.Rows {
		if b.Overall != nil {
			if err := check(key, *b.Overall); err != nil {
				return err
			}
		}
		for _, dim := range []filter.Dimension{filter.DimensionSurface, filter.DimensionLevel, filter.DimensionRound, filter.DimensionBestOf} {
			for _, r := range *b.slot(dim) {
				if err := check(key, r); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
