// Package records defines the metric catalog and computes record rows,
// either from a snapshot or by folding raw events.
package records

import (
	"fmt"
	"slices"

	"github.com/okian/recordbook/internal/domain/filter"
	"github.com/okian/recordbook/internal/domain/ranking"
	"github.com/okian/recordbook/internal/domain/types"
)

// Metric ids.
const (
	MetricTitleSeasonStreak   = "title-season-streak"
	MetricMatchWinStreak      = "match-win-streak"
	MetricYearEndTopStreak    = "year-end-top-streak"
	MetricWeeksAtRankStreak   = "weeks-at-rank-streak"
	MetricAgeAtNthTitle       = "age-at-nth-title"
	MetricAgeAtNthWin         = "age-at-nth-win"
	MetricEntriesToNthTitle   = "entries-to-nth-title"
	MetricMatchesByAge        = "matches-by-age"
	MetricWinsByAge           = "wins-by-age"
	MetricTitlesByAge         = "titles-by-age"
	MetricTopRankTimespan     = "top-rank-timespan"
	MetricTitleTimespan       = "title-timespan"
	MetricWinSeasonSpan       = "win-season-span"
	MetricHeadToHead          = "head-to-head"
	MetricStraightSets        = "straight-sets"
	MetricTwoSetsDown         = "two-sets-down"
	MetricSplitFirstTwo       = "split-first-two"
	MetricDownOneSetAll       = "down-one-set-all"
	MetricDecidingSet         = "deciding-set"
	MetricTieBreaks           = "tie-breaks"
	MetricWinPercentage       = "win-percentage"
	MetricBreakPointsSaved    = "break-points-saved"
	MetricFirstServePointsWon = "first-serve-points-won"
	MetricAceRate             = "ace-rate"
	MetricReturnPointsWon     = "return-points-won"
	MetricDoubleFaultRate     = "double-fault-rate"
)

// Source names the event stream a metric folds.
type Source string

// Event sources.
const (
	SourceMatches  Source = "matches"
	SourceRankings Source = "rankings"
)

// Metric is one entry of the catalog.
type Metric struct {
	ID          string        `json:"id"`
	Kind        types.Kind    `json:"kind"`
	Description string        `json:"description"`
	Source      Source        `json:"source"`
	Params      []ParamSpec   `json:"params,omitempty"`
	Order       ranking.Order `json:"-"`
}

// Dimensions returns the filter dimensions the metric honors. Ranking
// metrics only know about dates.
func (m *Metric) Dimensions() []filter.Dimension {
	if m.Source == SourceRankings {
		return []filter.Dimension{filter.DimensionYear}
	}
	return []filter.Dimension{
		filter.DimensionSurface, filter.DimensionLevel, filter.DimensionRound,
		filter.DimensionBestOf, filter.DimensionYear, filter.DimensionOpponentRank,
	}
}

// Restrict drops the filter dimensions the metric ignores.
func (m *Metric) Restrict(f filter.Set) filter.Set {
	return f.Only(m.Dimensions()...)
}

var (
	paramN   = ParamSpec{Name: ParamN, Required: true, Integer: true, Floor: 1, Doc: "occurrence to find, counted from 1"}
	paramAge = ParamSpec{Name: ParamAge, Required: true, Floor: 0, Strict: true, Doc: "age threshold in years"}
	paramMin = ParamSpec{Name: ParamMin, Integer: true, Floor: 0, Doc: "minimum sample size"}
	paramRun = ParamSpec{Name: ParamMin, Integer: true, Floor: 0, Doc: "minimum run length"}
)

func paramRank(def float64) ParamSpec {
	return ParamSpec{Name: ParamRank, Default: def, Integer: true, Floor: 1, Doc: "ranking threshold, inclusive"}
}

var (
	streakOrder     = ranking.Order{Value: ranking.Descending, Tiebreak: ranking.Descending, ByName: true}
	nthOrder        = ranking.Order{Value: ranking.Ascending, ByName: true}
	mostOrder       = ranking.Order{Value: ranking.Descending, ByName: true}
	headToHeadOrder = ranking.Order{Value: ranking.Descending, Tiebreak: ranking.Descending}
	shareOrder      = ranking.Order{Value: ranking.Descending, Tiebreak: ranking.Descending, ByName: true}
	fewestOrder     = ranking.Order{Value: ranking.Ascending, Tiebreak: ranking.Descending, ByName: true}
)

var catalog = []Metric{
	{ID: MetricTitleSeasonStreak, Kind: types.KindStreak, Source: SourceMatches, Order: streakOrder,
		Params: []ParamSpec{paramRun}, Description: "Consecutive seasons with at least one title"},
	{ID: MetricMatchWinStreak, Kind: types.KindStreak, Source: SourceMatches, Order: streakOrder,
		Params: []ParamSpec{paramRun}, Description: "Consecutive match wins, walkovers excluded"},
	{ID: MetricYearEndTopStreak, Kind: types.KindStreak, Source: SourceRankings, Order: streakOrder,
		Params:      []ParamSpec{paramRank(10), paramRun},
		Description: "Consecutive seasons finishing ranked at or above rank"},
	{ID: MetricWeeksAtRankStreak, Kind: types.KindStreak, Source: SourceRankings, Order: streakOrder,
		Params:      []ParamSpec{paramRank(1), paramRun},
		Description: "Consecutive ranking releases at or above rank"},

	{ID: MetricAgeAtNthTitle, Kind: types.KindNth, Source: SourceMatches, Order: nthOrder,
		Params: []ParamSpec{paramN}, Description: "Youngest age at the Nth title"},
	{ID: MetricAgeAtNthWin, Kind: types.KindNth, Source: SourceMatches, Order: nthOrder,
		Params: []ParamSpec{paramN}, Description: "Youngest age at the Nth match win"},
	{ID: MetricEntriesToNthTitle, Kind: types.KindNth, Source: SourceMatches, Order: nthOrder,
		Params: []ParamSpec{paramN}, Description: "Fewest tournaments entered to reach the Nth title"},

	{ID: MetricMatchesByAge, Kind: types.KindCumulative, Source: SourceMatches, Order: mostOrder,
		Params: []ParamSpec{paramAge}, Description: "Matches played by age"},
	{ID: MetricWinsByAge, Kind: types.KindCumulative, Source: SourceMatches, Order: mostOrder,
		Params: []ParamSpec{paramAge}, Description: "Matches won by age"},
	{ID: MetricTitlesByAge, Kind: types.KindCumulative, Source: SourceMatches, Order: mostOrder,
		Params: []ParamSpec{paramAge}, Description: "Titles won by age"},

	{ID: MetricTopRankTimespan, Kind: types.KindTimespan, Source: SourceRankings, Order: mostOrder,
		Params:      []ParamSpec{paramRank(10)},
		Description: "Days between the first and last ranking at or above rank"},
	{ID: MetricTitleTimespan, Kind: types.KindTimespan, Source: SourceMatches, Order: mostOrder,
		Description: "Days between the first and last title"},
	{ID: MetricWinSeasonSpan, Kind: types.KindTimespan, Source: SourceMatches, Order: mostOrder,
		Description: "Seasons between the first and last match win"},

	{ID: MetricHeadToHead, Kind: types.KindHeadToHead, Source: SourceMatches, Order: headToHeadOrder,
		Description: "Most frequent pairings"},

	{ID: MetricStraightSets, Kind: types.KindPattern, Source: SourceMatches, Order: shareOrder,
		Params: []ParamSpec{paramMin}, Description: "Share of straight-sets decisions won"},
	{ID: MetricTwoSetsDown, Kind: types.KindPattern, Source: SourceMatches, Order: shareOrder,
		Params: []ParamSpec{paramMin}, Description: "Share of best-of-five matches won after losing the first two sets"},
	{ID: MetricSplitFirstTwo, Kind: types.KindPattern, Source: SourceMatches, Order: shareOrder,
		Params: []ParamSpec{paramMin}, Description: "Share of matches won after splitting the first two sets"},
	{ID: MetricDownOneSetAll, Kind: types.KindPattern, Source: SourceMatches, Order: shareOrder,
		Params: []ParamSpec{paramMin}, Description: "Share of best-of-five matches won after trailing two sets to one"},
	{ID: MetricDecidingSet, Kind: types.KindPattern, Source: SourceMatches, Order: shareOrder,
		Params: []ParamSpec{paramMin}, Description: "Share of deciding sets won"},
	{ID: MetricTieBreaks, Kind: types.KindPattern, Source: SourceMatches, Order: shareOrder,
		Params: []ParamSpec{paramMin}, Description: "Share of tie-breaks won"},

	{ID: MetricWinPercentage, Kind: types.KindRatio, Source: SourceMatches, Order: shareOrder,
		Params: []ParamSpec{paramMin}, Description: "Matches won over matches played"},
	{ID: MetricBreakPointsSaved, Kind: types.KindRatio, Source: SourceMatches, Order: shareOrder,
		Params: []ParamSpec{paramMin}, Description: "Break points saved over break points faced"},
	{ID: MetricFirstServePointsWon, Kind: types.KindRatio, Source: SourceMatches, Order: shareOrder,
		Params: []ParamSpec{paramMin}, Description: "First-serve points won over first serves in"},
	{ID: MetricAceRate, Kind: types.KindRatio, Source: SourceMatches, Order: shareOrder,
		Params: []ParamSpec{paramMin}, Description: "Aces over serve points"},
	{ID: MetricReturnPointsWon, Kind: types.KindRatio, Source: SourceMatches, Order: shareOrder,
		Params: []ParamSpec{paramMin}, Description: "Return points won over return points played"},
	{ID: MetricDoubleFaultRate, Kind: types.KindRatio, Source: SourceMatches, Order: fewestOrder,
		Params: []ParamSpec{paramMin}, Description: "Double faults over serve points, fewest first"},
}

// Catalog returns every metric in a stable order.
func Catalog() []Metric {
	out := make([]Metric, len(catalog))
	for i, m := range catalog {
		m.Params = slices.Clone(m.Params)
		out[i] = m
	}
	return out
}

// Lookup returns the metric with id.
func Lookup(id string) (*Metric, error) {
	for i := range catalog {
		if catalog[i].ID == id {
			m := catalog[i]
			return &m, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, id)
}
