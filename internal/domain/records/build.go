package records

import (
	"context"
	"net/url"
	"slices"
	"strconv"

	"github.com/okian/recordbook/internal/domain/filter"
	"github.com/okian/recordbook/internal/domain/model"
	"github.com/okian/recordbook/internal/domain/snapshot"
	"github.com/okian/recordbook/internal/domain/types"
)

// MinSample drops pattern and ratio rows whose sample, carried in the row
// tie-break, is below minimum, and streak rows shorter than minimum.
func MinSample(m *Metric, rows []types.Row, minimum int) []types.Row {
	if minimum <= 0 {
		return rows
	}
	switch m.Kind {
	case types.KindPattern, types.KindRatio:
		return slices.DeleteFunc(rows, func(r types.Row) bool {
			return r.Tiebreak < float64(minimum)
		})
	case types.KindStreak:
		return slices.DeleteFunc(rows, func(r types.Row) bool {
			return r.Value < float64(minimum)
		})
	}
	return rows
}

// SnapshotKey returns the key metric m is snapshotted under for p.
func SnapshotKey(m *Metric, p Params) snapshot.Key {
	return snapshot.Key{Metric: m.ID, Params: m.Canonical(p)}
}

// dimensionValues enumerates the values a snapshot is built for.
func dimensionValues(dim filter.Dimension) (param string, values []string) {
	switch dim {
	case filter.DimensionSurface:
		for _, v := range model.Surfaces {
			values = append(values, string(v))
		}
		return filter.ParamSurface, values
	case filter.DimensionLevel:
		for _, v := range model.Levels {
			values = append(values, string(v))
		}
		return filter.ParamLevel, values
	case filter.DimensionRound:
		for _, v := range model.Rounds {
			values = append(values, string(v))
		}
		return filter.ParamRound, values
	case filter.DimensionBestOf:
		return filter.ParamBestOf, []string{strconv.Itoa(3), strconv.Itoa(5)}
	}
	return "", nil
}

// BuildSnapshot folds m overall and once per value of each requested
// dimension. Dimensions the metric ignores, or that are never
// snapshot-keyed, are skipped.
func (a *Aggregator) BuildSnapshot(ctx context.Context, m *Metric, p Params, dims ...filter.Dimension) (*snapshot.Snapshot, error) {
	b := snapshot.NewBuilder(SnapshotKey(m, p), m.Kind)

	res, err := a.Aggregate(ctx, m, filter.Set{}, p)
	if err != nil {
		return nil, err
	}
	b.Add(filter.DimensionNone, "", res.Rows)

	honored := m.Dimensions()
	for _, dim := range dims {
		if !snapshot.Keyed(dim) || !slices.Contains(honored, dim) {
			continue
		}
		param, values := dimensionValues(dim)
		for _, v := range values {
			res, err := a.Aggregate(ctx, m, filter.Parse(url.Values{param: {v}}), p)
			if err != nil {
				return nil, err
			}
			b.Add(dim, v, res.Rows)
		}
	}
	return b.Snapshot(), nil
}
