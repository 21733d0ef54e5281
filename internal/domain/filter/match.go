package filter

import (
	"slices"

	"github.com/okian/recordbook/internal/domain/model"
)

// AllowsYear reports whether year lies inside the year range.
func (s Set) AllowsYear(year int) bool {
	if s.fromYear != 0 && year < s.fromYear {
		return false
	}
	if s.toYear != 0 && year > s.toYear {
		return false
	}
	return true
}

// AllowsMatch checks the match-level dimensions: surface, level, round,
// best-of and year. The opponent rank is side dependent; see AllowsPerspective.
func (s Set) AllowsMatch(m *model.MatchEvent) bool {
	if len(s.surfaces) > 0 && !slices.Contains(s.surfaces, m.Surface) {
		return false
	}
	if len(s.levels) > 0 && !slices.Contains(s.levels, m.Level) {
		return false
	}
	if len(s.rounds) > 0 && !slices.Contains(s.rounds, m.Round) {
		return false
	}
	if len(s.bestOf) > 0 && !slices.Contains(s.bestOf, m.BestOf) {
		return false
	}
	return s.AllowsYear(m.Date.Year())
}

// AllowsPerspective reports whether the participant on side may count the match:
// with an opponent rank threshold the opponent must have been ranked at or
// above it at match time. Unranked opponents never qualify.
func (s Set) AllowsPerspective(m *model.MatchEvent, side model.Side) bool {
	if s.opponentRank == 0 {
		return true
	}
	r := m.Opponent(side).Rank
	return r > 0 && r <= s.opponentRank
}

// Allows combines AllowsMatch and AllowsPerspective.
func (s Set) Allows(m *model.MatchEvent, side model.Side) bool {
	return s.AllowsMatch(m) && s.AllowsPerspective(m, side)
}
