// Package filter normalizes query dimensions into an immutable Set.
//
// Dimensions are AND-combined; values within a dimension are OR-combined.
// An empty dimension places no restriction.
package filter

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/recordbook/internal/domain/model"
)

// Query parameter names understood by Parse.
const (
	ParamSurface      = "surface"
	ParamLevel        = "level"
	ParamRound        = "round"
	ParamBestOf       = "best_of"
	ParamFromYear     = "from_year"
	ParamToYear       = "to_year"
	ParamOpponentRank = "opponent_rank"
)

// Dimension names one filterable axis.
type Dimension uint8

// Dimensions. DimensionNone stands for the unfiltered case.
const (
	DimensionNone Dimension = iota
	DimensionSurface
	DimensionLevel
	DimensionRound
	DimensionBestOf
	DimensionYear
	DimensionOpponentRank
)

// String returns the dimension name.
func (d Dimension) String() string {
	switch d {
	case DimensionSurface:
		return "surface"
	case DimensionLevel:
		return "level"
	case DimensionRound:
		return "round"
	case DimensionBestOf:
		return "best_of"
	case DimensionYear:
		return "year"
	case DimensionOpponentRank:
		return "opponent_rank"
	default:
		return "none"
	}
}

// Set is a normalized, immutable filter. The zero value filters nothing.
type Set struct {
	surfaces     []model.Surface
	levels       []model.Level
	rounds       []model.Round
	bestOf       []int
	fromYear     int // 0 when open
	toYear       int // 0 when open
	opponentRank int // 0 when unset
}

// Parse builds a Set from raw query values. Values may repeat or be comma
// separated. Unknown, empty and non-numeric values are dropped silently and
// duplicates removed; a reversed year range is swapped.
func Parse(v url.Values) Set {
	var s Set
	for _, raw := range split(v[ParamSurface]) {
		if sf, ok := model.ParseSurface(raw); ok && !slices.Contains(s.surfaces, sf) {
			s.surfaces = append(s.surfaces, sf)
		}
	}
	for _, raw := range split(v[ParamLevel]) {
		if l, ok := model.ParseLevel(raw); ok && !slices.Contains(s.levels, l) {
			s.levels = append(s.levels, l)
		}
	}
	for _, raw := range split(v[ParamRound]) {
		if r, ok := model.ParseRound(raw); ok && !slices.Contains(s.rounds, r) {
			s.rounds = append(s.rounds, r)
		}
	}
	for _, raw := range split(v[ParamBestOf]) {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && !slices.Contains(s.bestOf, n) {
			s.bestOf = append(s.bestOf, n)
		}
	}
	s.fromYear = positive(v.Get(ParamFromYear))
	s.toYear = positive(v.Get(ParamToYear))
	if s.fromYear != 0 && s.toYear != 0 && s.fromYear > s.toYear {
		s.fromYear, s.toYear = s.toYear, s.fromYear
	}
	s.opponentRank = positive(v.Get(ParamOpponentRank))

	slices.Sort(s.surfaces)
	slices.Sort(s.levels)
	slices.SortFunc(s.rounds, func(a, b model.Round) int { return a.Order() - b.Order() })
	slices.Sort(s.bestOf)
	return s
}

func split(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func positive(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// Surfaces returns the allowed surfaces.
func (s Set) Surfaces() []model.Surface { return slices.Clone(s.surfaces) }

// Levels returns the allowed levels.
func (s Set) Levels() []model.Level { return slices.Clone(s.levels) }

// Rounds returns the allowed rounds.
func (s Set) Rounds() []model.Round { return slices.Clone(s.rounds) }

// BestOf returns the allowed best-of values.
func (s Set) BestOf() []int { return slices.Clone(s.bestOf) }

// Years returns the year bounds; zero means open.
func (s Set) Years() (from, to int) { return s.fromYear, s.toYear }

// OpponentRank returns the opponent rank threshold; zero means unset.
func (s Set) OpponentRank() int { return s.opponentRank }

// Active lists the non-empty dimensions in a fixed order.
func (s Set) Active() []Dimension {
	var dims []Dimension
	if len(s.surfaces) > 0 {
		dims = append(dims, DimensionSurface)
	}
	if len(s.levels) > 0 {
		dims = append(dims, DimensionLevel)
	}
	if len(s.rounds) > 0 {
		dims = append(dims, DimensionRound)
	}
	if len(s.bestOf) > 0 {
		dims = append(dims, DimensionBestOf)
	}
	if s.fromYear != 0 || s.toYear != 0 {
		dims = append(dims, DimensionYear)
	}
	if s.opponentRank != 0 {
		dims = append(dims, DimensionOpponentRank)
	}
	return dims
}

// Cardinality counts the active dimensions.
func (s Set) Cardinality() int { return len(s.Active()) }

// Dimension returns the only active dimension and its single value. ok is false
// when more than one dimension is active or the active dimension holds more
// than one value. The unfiltered set yields DimensionNone and ok.
func (s Set) Dimension() (dim Dimension, value string, ok bool) {
	active := s.Active()
	switch len(active) {
	case 0:
		return DimensionNone, "", true
	case 1:
	default:
		return 0, "", false
	}
	switch dim = active[0]; dim {
	case DimensionSurface:
		if len(s.surfaces) == 1 {
			return dim, string(s.surfaces[0]), true
		}
	case DimensionLevel:
		if len(s.levels) == 1 {
			return dim, string(s.levels[0]), true
		}
	case DimensionRound:
		if len(s.rounds) == 1 {
			return dim, string(s.rounds[0]), true
		}
	case DimensionBestOf:
		if len(s.bestOf) == 1 {
			return dim, strconv.Itoa(s.bestOf[0]), true
		}
	case DimensionYear:
		return dim, strconv.Itoa(s.fromYear) + "-" + strconv.Itoa(s.toYear), true
	case DimensionOpponentRank:
		return dim, strconv.Itoa(s.opponentRank), true
	}
	return 0, "", false
}

// Only returns a copy restricted to the given dimensions.
func (s Set) Only(dims ...Dimension) Set {
	var out Set
	for _, d := range dims {
		switch d {
		case DimensionSurface:
			out.surfaces = s.Surfaces()
		case DimensionLevel:
			out.levels = s.Levels()
		case DimensionRound:
			out.rounds = s.Rounds()
		case DimensionBestOf:
			out.bestOf = s.BestOf()
		case DimensionYear:
			out.fromYear, out.toYear = s.fromYear, s.toYear
		case DimensionOpponentRank:
			out.opponentRank = s.opponentRank
		}
	}
	return out
}

// Values renders the set back into canonical query values.
func (s Set) Values() url.Values {
	v := url.Values{}
	for _, sf := range s.surfaces {
		v.Add(ParamSurface, string(sf))
	}
	for _, l := range s.levels {
		v.Add(ParamLevel, string(l))
	}
	for _, r := range s.rounds {
		v.Add(ParamRound, string(r))
	}
	for _, n := range s.bestOf {
		v.Add(ParamBestOf, strconv.Itoa(n))
	}
	if s.fromYear != 0 {
		v.Set(ParamFromYear, strconv.Itoa(s.fromYear))
	}
	if s.toYear != 0 {
		v.Set(ParamToYear, strconv.Itoa(s.toYear))
	}
	if s.opponentRank != 0 {
		v.Set(ParamOpponentRank, strconv.Itoa(s.opponentRank))
	}
	return v
}
