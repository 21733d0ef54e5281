package calculator

import (
	"math"
	"slices"

	"github.com/okian/recordbook/internal/domain/types"
)

// bucketScale quantizes keys to three decimals.
const bucketScale = 1000

// Point is one step of a cumulative series.
type Point struct {
	Key   float64
	Total float64
}

// Cumulative builds per-entity running totals keyed by a quantized value,
// typically age in years.
type Cumulative struct {
	buckets map[string]map[int64]float64
}

// NewCumulative creates an empty builder.
func NewCumulative() *Cumulative {
	return &Cumulative{buckets: make(map[string]map[int64]float64)}
}

func quantize(x float64) int64 {
	return int64(math.Round(x * bucketScale))
}

// Add contributes weight to entity at key x.
func (c *Cumulative) Add(entity string, x, weight float64) {
	b, ok := c.buckets[entity]
	if !ok {
		b = make(map[int64]float64)
		c.buckets[entity] = b
	}
	b[quantize(x)] += weight
}

// Series returns the running sum of entity in ascending key order.
func (c *Cumulative) Series(entity string) []Point {
	b := c.buckets[entity]
	keys := make([]int64, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]Point, 0, len(keys))
	var total float64
	for _, k := range keys {
		total += b[k]
		out = append(out, Point{Key: float64(k) / bucketScale, Total: total})
	}
	return out
}

// At returns the running total of entity at the largest key not above x,
// or zero when no such key exists.
func (c *Cumulative) At(entity string, x float64) float64 {
	limit := quantize(x)
	var total float64
	for k, w := range c.buckets[entity] {
		if k <= limit {
			total += w
		}
	}
	return total
}

// Rows finalizes the totals at threshold. Entities at zero are excluded.
func (c *Cumulative) Rows(threshold float64) []types.Row {
	var rows []types.Row
	for _, e := range sortedKeys(c.buckets) {
		total := c.At(e, threshold)
		if total <= 0 {
			continue
		}
		rows = append(rows, types.Row{
			Key:      e,
			Entities: []string{e},
			Value:    total,
			Detail:   &types.CumulativeDetail{Threshold: threshold, Count: total},
		})
	}
	return rows
}
