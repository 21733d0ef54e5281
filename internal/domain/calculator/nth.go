package calculator

import (
	"slices"

	"github.com/okian/recordbook/internal/domain/types"
)

// Occurrence is one qualifying event value.
type Occurrence struct {
	Value float64
	Date  string
	Event string
}

// Nth finds the Nth smallest qualifying value per entity.
type Nth struct {
	n      int
	values map[string][]Occurrence
}

// NewNth creates a finder for position n, counted from 1.
func NewNth(n int) *Nth {
	return &Nth{n: n, values: make(map[string][]Occurrence)}
}

// Add records a qualifying occurrence for entity.
func (f *Nth) Add(entity string, o Occurrence) {
	f.values[entity] = append(f.values[entity], o)
}

// Find returns the Nth occurrence of entity. ok is false when entity has
// fewer than n occurrences.
func (f *Nth) Find(entity string) (Occurrence, bool) {
	vals := f.values[entity]
	if f.n < 1 || len(vals) < f.n {
		return Occurrence{}, false
	}
	sorted := slices.Clone(vals)
	slices.SortStableFunc(sorted, func(a, b Occurrence) int {
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		}
		return 0
	})
	return sorted[f.n-1], true
}

// Rows finalizes every eligible entity. Ineligible entities produce no row.
func (f *Nth) Rows() []types.Row {
	var rows []types.Row
	for _, e := range sortedKeys(f.values) {
		o, ok := f.Find(e)
		if !ok {
			continue
		}
		rows = append(rows, types.Row{
			Key:      e,
			Entities: []string{e},
			Value:    o.Value,
			Detail:   &types.NthDetail{N: f.n, Value: o.Value, Date: o.Date, Event: o.Event},
		})
	}
	return rows
}
