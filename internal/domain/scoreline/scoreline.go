// Package scoreline parses match scorelines into per-set results and detects
// scoreline patterns.
//
// Scores are recorded from the match winner's point of view: in "6-4 3-6
// 7-6(5)" the winner took the first and third sets. Every detector requires a
// complete match; retirements, walkovers, defaults and abandoned matches
// cannot certify a pattern.
package scoreline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	setPattern        = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})(?:\((\d{1,2})(?:-(\d{1,2}))?\))?$`)
	matchTieBreakExpr = regexp.MustCompile(`^\[(\d{1,2})-(\d{1,2})\]$`)
)

// Set is one set from the match winner's point of view.
type Set struct {
	Won            int  // games won by the match winner
	Lost           int  // games won by the match loser
	TieBreak       bool // decided by a tie-break (or a match tie-break)
	TieBreakPoints int  // points of the tie-break loser, when annotated
}

// WonByWinner reports whether the match winner took this set.
func (s Set) WonByWinner() bool { return s.Won > s.Lost }

// Finished reports whether the set produced a set winner.
func (s Set) Finished() bool { return s.Won != s.Lost }

// Scoreline is a parsed match score.
type Scoreline struct {
	Sets      []Set
	Retired   bool
	Walkover  bool
	Defaulted bool
	Abandoned bool
}

// Parse turns a raw scoreline into sets. Tie-break annotations are kept as
// flags; retirement, walkover, default and abandonment markers set the
// matching flag. Any other token is malformed.
func Parse(raw string) (Scoreline, error) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return Scoreline{}, ErrEmpty
	}

	var sl Scoreline
	for _, tok := range tokens {
		if sl.marker(tok) {
			continue
		}
		set, err := parseSet(tok)
		if err != nil {
			return Scoreline{}, fmt.Errorf("%w: %q in %q", ErrMalformed, tok, raw)
		}
		sl.Sets = append(sl.Sets, set)
	}
	if len(sl.Sets) == 0 && !sl.Walkover && !sl.Defaulted {
		return Scoreline{}, fmt.Errorf("%w: no sets in %q", ErrMalformed, raw)
	}
	return sl, nil
}

// marker records tok when it is an outcome marker.
func (sl *Scoreline) marker(tok string) bool {
	norm := strings.ToUpper(strings.Trim(tok, ".()"))
	switch norm {
	case "RET", "RET'D", "RETIRED":
		sl.Retired = true
	case "W/O", "WO", "WALKOVER":
		sl.Walkover = true
	case "DEF", "DEFAULT", "DEFAULTED":
		sl.Defaulted = true
	case "ABD", "ABN", "ABANDONED", "UNFINISHED", "UNK":
		sl.Abandoned = true
	default:
		return false
	}
	return true
}

func parseSet(tok string) (Set, error) {
	if m := matchTieBreakExpr.FindStringSubmatch(tok); m != nil {
		won, _ := strconv.Atoi(m[1])
		lost, _ := strconv.Atoi(m[2])
		return Set{Won: won, Lost: lost, TieBreak: true, TieBreakPoints: min(won, lost)}, nil
	}
	m := setPattern.FindStringSubmatch(tok)
	if m == nil {
		return Set{}, ErrMalformed
	}
	won, _ := strconv.Atoi(m[1])
	lost, _ := strconv.Atoi(m[2])
	set := Set{Won: won, Lost: lost}
	if m[3] != "" {
		set.TieBreak = true
		set.TieBreakPoints, _ = strconv.Atoi(m[3])
		if m[4] != "" {
			a, _ := strconv.Atoi(m[3])
			b, _ := strconv.Atoi(m[4])
			set.TieBreakPoints = min(a, b)
		}
	}
	return set, nil
}

// Complete reports whether the match ran its full distance.
func (sl Scoreline) Complete() bool {
	return len(sl.Sets) > 0 && !sl.Retired && !sl.Walkover && !sl.Defaulted && !sl.Abandoned
}

// SetCounts returns the finished sets won by the match winner and loser.
func (sl Scoreline) SetCounts() (winner, loser int) {
	for _, s := range sl.Sets {
		switch {
		case !s.Finished():
		case s.WonByWinner():
			winner++
		default:
			loser++
		}
	}
	return winner, loser
}

// setsToWin is the ceiling of bestOf/2.
func setsToWin(bestOf int) int {
	return (bestOf + 1) / 2
}
