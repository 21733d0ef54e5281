package calculator

import (
	"slices"

	"github.com/okian/recordbook/internal/domain/types"
)

// Run is a maximal sequence of consecutive periods.
type Run struct {
	Start  int
	End    int
	Length int
	Weight float64
}

// StreakOption configures a Streak.
type StreakOption func(*Streak)

// WithMinLength drops runs shorter than n from finalized rows.
func WithMinLength(n int) StreakOption {
	return func(s *Streak) {
		if n > 0 {
			s.minLength = n
		}
	}
}

// Streak detects runs of consecutive integer periods per entity.
type Streak struct {
	minLength int
	periods   map[string]map[int]float64
}

// NewStreak creates an empty streak detector.
func NewStreak(opts ...StreakOption) *Streak {
	s := &Streak{minLength: 1, periods: make(map[string]map[int]float64)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add records that entity qualified in period. Repeated periods are merged
// and their weights summed.
func (s *Streak) Add(entity string, period int, weight float64) {
	p, ok := s.periods[entity]
	if !ok {
		p = make(map[int]float64)
		s.periods[entity] = p
	}
	p[period] += weight
}

// Runs returns every maximal run of entity in period order.
func (s *Streak) Runs(entity string) []Run {
	p := s.periods[entity]
	if len(p) == 0 {
		return nil
	}
	keys := make([]int, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var runs []Run
	cur := Run{Start: keys[0], End: keys[0], Length: 1, Weight: p[keys[0]]}
	for _, k := range keys[1:] {
		if k == cur.End+1 {
			cur.End = k
			cur.Length++
			cur.Weight += p[k]
			continue
		}
		runs = append(runs, cur)
		cur = Run{Start: k, End: k, Length: 1, Weight: p[k]}
	}
	return append(runs, cur)
}

// Best returns the longest run of entity; among equal lengths the most
// recent one wins.
func (s *Streak) Best(entity string) (Run, bool) {
	var best Run
	for _, r := range s.Runs(entity) {
		if r.Length >= best.Length {
			best = r
		}
	}
	return best, best.Length > 0
}

// Entities lists the entities seen so far, sorted.
func (s *Streak) Entities() []string {
	return sortedKeys(s.periods)
}

// PeriodLabel renders a period of entity for output and returns a value
// that orders periods across entities, used as the recency tie-break.
type PeriodLabel func(entity string, period int) (label string, recency float64)

// Rows finalizes the best run of every entity that reaches the minimum
// length.
func (s *Streak) Rows(label PeriodLabel) []types.Row {
	var rows []types.Row
	for _, e := range s.Entities() {
		best, ok := s.Best(e)
		if !ok || best.Length < s.minLength {
			continue
		}
		start, _ := label(e, best.Start)
		end, recency := label(e, best.End)
		rows = append(rows, types.Row{
			Key:      e,
			Entities: []string{e},
			Value:    float64(best.Length),
			Tiebreak: recency,
			Detail:   &types.StreakDetail{Length: best.Length, Start: start, End: end, Weight: best.Weight},
		})
	}
	return rows
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
