package calculator

import (
	"strconv"
	"time"

	"github.com/okian/recordbook/internal/domain/calendar"
	"github.com/okian/recordbook/internal/domain/types"
)

// Granularity is the unit of a timespan.
type Granularity uint8

// Granularities.
const (
	Days Granularity = iota
	Years
)

// String returns the unit name used in row details.
func (g Granularity) String() string {
	if g == Years {
		return "years"
	}
	return "days"
}

type span struct {
	first, last time.Time
}

// Timespan tracks the first and last qualifying date per entity.
type Timespan struct {
	unit  Granularity
	spans map[string]*span
}

// NewTimespan creates an empty tracker with the given granularity.
func NewTimespan(unit Granularity) *Timespan {
	return &Timespan{unit: unit, spans: make(map[string]*span)}
}

// Observe records a qualifying date for entity.
func (t *Timespan) Observe(entity string, at time.Time) {
	at = calendar.Truncate(at)
	s, ok := t.spans[entity]
	if !ok {
		t.spans[entity] = &span{first: at, last: at}
		return
	}
	if at.Before(s.first) {
		s.first = at
	}
	if at.After(s.last) {
		s.last = at
	}
}

// Span returns the span of entity in the tracker's unit.
func (t *Timespan) Span(entity string) (int64, bool) {
	s, ok := t.spans[entity]
	if !ok {
		return 0, false
	}
	if t.unit == Years {
		return int64(s.last.Year() - s.first.Year()), true
	}
	return int64(calendar.Days(s.first, s.last)), true
}

// Rows finalizes every entity with a non-zero span.
func (t *Timespan) Rows() []types.Row {
	var rows []types.Row
	for _, e := range sortedKeys(t.spans) {
		n, _ := t.Span(e)
		if n <= 0 {
			continue
		}
		s := t.spans[e]
		d := &types.TimespanDetail{Unit: t.unit.String(), Span: n}
		if t.unit == Years {
			d.First = strconv.Itoa(s.first.Year())
			d.Last = strconv.Itoa(s.last.Year())
		} else {
			d.First = s.first.Format(time.DateOnly)
			d.Last = s.last.Format(time.DateOnly)
			c := calendar.Between(s.first, s.last)
			d.Years, d.Months, d.Days = c.Years, c.Months, c.Days
		}
		rows = append(rows, types.Row{Key: e, Entities: []string{e}, Value: float64(n), Detail: d})
	}
	return rows
}
