package calculator

import "github.com/okian/recordbook/internal/domain/types"

type tally struct {
	wins, losses int
}

// Pattern counts, per entity, the matches that showed a scoreline pattern
// and how many of them the entity won.
type Pattern struct {
	min       int
	precision int32
	counts    map[string]*tally
}

// NewPattern creates a counter. Entities with fewer than minTotal matches are
// dropped from finalized rows.
func NewPattern(minTotal int, precision int32) *Pattern {
	if minTotal < 1 {
		minTotal = 1
	}
	return &Pattern{min: minTotal, precision: precision, counts: make(map[string]*tally)}
}

// Add records one pattern match of entity.
func (p *Pattern) Add(entity string, won bool) {
	t, ok := p.counts[entity]
	if !ok {
		t = &tally{}
		p.counts[entity] = t
	}
	if won {
		t.wins++
	} else {
		t.losses++
	}
}

// Rows finalizes the win percentage of every entity meeting the minimum.
func (p *Pattern) Rows() []types.Row {
	var rows []types.Row
	for _, e := range sortedKeys(p.counts) {
		t := p.counts[e]
		total := t.wins + t.losses
		if total < p.min {
			continue
		}
		pct := Percent(float64(t.wins), float64(total), p.precision)
		rows = append(rows, types.Row{
			Key:      e,
			Entities: []string{e},
			Value:    pct,
			Tiebreak: float64(total),
			Detail:   &types.PatternDetail{Wins: t.wins, Losses: t.losses, Total: total, Percentage: pct},
		})
	}
	return rows
}
