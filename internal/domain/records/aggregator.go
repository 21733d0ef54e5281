package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/recordbook/internal/adapters/repository"
	"github.com/okian/recordbook/internal/domain/calculator"
	"github.com/okian/recordbook/internal/domain/dedupe"
	"github.com/okian/recordbook/internal/domain/filter"
	"github.com/okian/recordbook/internal/domain/model"
	"github.com/okian/recordbook/internal/domain/types"
)

// ErrSourceUnavailable wraps every failed event-stream read.
var ErrSourceUnavailable = errors.New("event source unavailable")

// Result is the outcome of one fold.
type Result struct {
	Rows []types.Row
	// Anomalies lists the skipped contributions.
	Anomalies []error
	// Events counts the events folded.
	Events int
}

func (r *Result) anomaly(err error) {
	r.Anomalies = append(r.Anomalies, err)
}

func (r *Result) merge(o *Result) {
	r.Anomalies = append(r.Anomalies, o.Anomalies...)
	r.Events += o.Events
}

// sides calls fn for each side of ev the filter admits.
func (r *Result) sides(f filter.Set, ev *model.MatchEvent, fn func(side model.Side, p *model.Participant)) {
	r.side(f, ev, model.SideWinner, fn)
	r.side(f, ev, model.SideLoser, fn)
}

// side calls fn for one side of ev when the filter admits it. Participants
// without an id are anomalies.
func (r *Result) side(f filter.Set, ev *model.MatchEvent, side model.Side, fn func(side model.Side, p *model.Participant)) {
	if !f.AllowsPerspective(ev, side) {
		return
	}
	p := ev.Player(side)
	if p.ID == "" {
		r.anomaly(calculator.Anomaly(calculator.ReasonMissingID, ev.ID))
		return
	}
	fn(side, p)
}

// Aggregator folds raw events into rows. It holds only read-only
// collaborators and is safe for concurrent use.
type Aggregator struct {
	matches  repository.MatchSource
	rankings repository.RankingSource
}

// NewAggregator creates an aggregator over the given sources. Either may
// be nil when no metric needs it.
func NewAggregator(matches repository.MatchSource, rankings repository.RankingSource) *Aggregator {
	return &Aggregator{matches: matches, rankings: rankings}
}

// Aggregate computes the rows of metric m under f by folding raw events.
func (a *Aggregator) Aggregate(ctx context.Context, m *Metric, f filter.Set, p Params) (*Result, error) {
	f = m.Restrict(f)
	switch m.Kind {
	case calculator.KindStreak:
		return a.streak(ctx, m, f, p)
	case calculator.KindNth:
		return a.nth(ctx, m, f, p)
	case calculator.KindCumulative:
		return a.cumulative(ctx, m, f, p)
	case calculator.KindTimespan:
		return a.timespan(ctx, m, f, p)
	case calculator.KindHeadToHead:
		return a.headToHead(ctx, f)
	case calculator.KindPattern:
		return a.pattern(ctx, m, f, p)
	case calculator.KindRatio:
		return a.ratio(ctx, m, f, p)
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrUnknownMetric, m.Kind)
	}
}

// eachMatch streams the matches of q through visit, re-applying the
// match-level filter and skipping repeated events.
func (a *Aggregator) eachMatch(ctx context.Context, q repository.MatchQuery, res *Result, visit func(ev *model.MatchEvent)) error {
	return a.eachMatchGuarded(ctx, q, dedupe.New(), res, visit)
}

// eachMatchGuarded is eachMatch with a caller-owned guard. Streams read with
// different roles may share one guard.
func (a *Aggregator) eachMatchGuarded(ctx context.Context, q repository.MatchQuery, guard dedupe.Deduper, res *Result, visit func(ev *model.MatchEvent)) error {
	if a.matches == nil {
		return fmt.Errorf("%w: no match source", ErrSourceUnavailable)
	}
	for ev, err := range a.matches.Matches(ctx, q) {
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		if !q.Filter.AllowsMatch(&ev) {
			continue
		}
		if guard.SeenAndRecord(dedupe.Key(ev.ID, q.Role.String())) {
			res.anomaly(calculator.Anomaly(calculator.ReasonDuplicate, ev.ID))
			continue
		}
		res.Events++
		visit(&ev)
	}
	return ctx.Err()
}

// eachRanking streams the ranking entries of q through visit.
func (a *Aggregator) eachRanking(ctx context.Context, f filter.Set, maxRank int, res *Result, visit func(r *model.RankingEvent)) error {
	if a.rankings == nil {
		return fmt.Errorf("%w: no ranking source", ErrSourceUnavailable)
	}
	from, to := f.Years()
	q := repository.RankingQuery{FromYear: from, ToYear: to, MaxRank: maxRank}
	guard := dedupe.New()
	for r, err := range a.rankings.Rankings(ctx, q) {
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		if !f.AllowsYear(r.Date.Year()) {
			continue
		}
		if guard.SeenAndRecord(dedupe.Key(r.EntityID, r.Date.Format(time.DateOnly))) {
			res.anomaly(calculator.Anomaly(calculator.ReasonDuplicate, r.EntityID))
			continue
		}
		res.Events++
		visit(&r)
	}
	return ctx.Err()
}

// age returns the participant's age rounded to three decimals, or an
// anomaly when it is unknown or not positive.
func age(ev *model.MatchEvent, p *model.Participant) (float64, error) {
	if p.Age <= 0 {
		return 0, calculator.Anomaly(calculator.ReasonAge, ev.ID)
	}
	return calculator.Round(p.Age, 3), nil
}

func epochDays(t time.Time) float64 {
	return float64(t.Unix() / 86400)
}

func yearLabel(_ string, period int) (string, float64) {
	return fmt.Sprint(period), float64(period)
}
