package records

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/okian/recordbook/internal/adapters/repository"
	"github.com/okian/recordbook/internal/domain/calculator"
	"github.com/okian/recordbook/internal/domain/dedupe"
	"github.com/okian/recordbook/internal/domain/filter"
	"github.com/okian/recordbook/internal/domain/model"
	"github.com/okian/recordbook/internal/domain/scoreline"
)

func (a *Aggregator) headToHead(ctx context.Context, f filter.Set) (*Result, error) {
	res := &Result{}
	h := calculator.NewHeadToHead()
	err := a.eachMatch(ctx, matchQuery(f, 0), res, func(ev *model.MatchEvent) {
		if !ev.Played() {
			return
		}
		// A meeting counts only when both perspectives pass the filter.
		if !f.AllowsPerspective(ev, model.SideWinner) || !f.AllowsPerspective(ev, model.SideLoser) {
			return
		}
		if herr := h.Add(ev.Winner.ID, ev.Loser.ID); herr != nil {
			res.anomaly(herr)
		}
	})
	if err != nil {
		return nil, err
	}
	res.Rows = h.Rows()
	return res, nil
}

func (a *Aggregator) pattern(ctx context.Context, m *Metric, f filter.Set, p Params) (*Result, error) {
	res := &Result{}
	counter := calculator.NewPattern(1, p.Precision)

	// trailer credits the one player a situational pattern is about.
	trailer := func(ev *model.MatchEvent, trailerWon bool) {
		side := model.SideLoser
		if trailerWon {
			side = model.SideWinner
		}
		res.side(f, ev, side, func(_ model.Side, pl *model.Participant) {
			counter.Add(pl.ID, trailerWon)
		})
	}
	both := func(ev *model.MatchEvent) {
		res.sides(f, ev, func(side model.Side, pl *model.Participant) {
			counter.Add(pl.ID, side == model.SideWinner)
		})
	}

	err := a.eachMatch(ctx, matchQuery(f, 0), res, func(ev *model.MatchEvent) {
		if !ev.Complete() {
			return
		}
		sl, perr := scoreline.Parse(ev.Score)
		if perr != nil {
			res.anomaly(calculator.Anomaly(calculator.ReasonScoreline, ev.ID))
			return
		}
		if !sl.Complete() {
			return
		}
		switch m.ID {
		case MetricStraightSets:
			if sl.StraightSets(ev.BestOf) {
				both(ev)
			}
		case MetricTwoSetsDown:
			if won, ok := sl.TwoSetsDown(ev.BestOf); ok {
				trailer(ev, won)
			}
		case MetricSplitFirstTwo:
			if sl.SplitFirstTwo() {
				both(ev)
			}
		case MetricDownOneSetAll:
			if won, ok := sl.DownOneSetAll(ev.BestOf); ok {
				trailer(ev, won)
			}
		case MetricDecidingSet:
			if sl.Deciding(ev.BestOf) {
				both(ev)
			}
		case MetricTieBreaks:
			for _, winnerTook := range sl.TieBreaks() {
				res.sides(f, ev, func(side model.Side, pl *model.Participant) {
					counter.Add(pl.ID, winnerTook == (side == model.SideWinner))
				})
			}
		}
	})
	if err != nil {
		return nil, err
	}
	res.Rows = counter.Rows()
	return res, nil
}

// contribution returns the numerator and denominator side adds to a ratio
// metric. ok is false when the match carries no usable statistics.
func contribution(id string, ev *model.MatchEvent, side model.Side) (num, den float64, ok bool) {
	if id == MetricWinPercentage {
		if side == model.SideWinner {
			return 1, 1, true
		}
		return 0, 1, true
	}
	st := ev.Player(side).Stats
	if st == nil {
		return 0, 0, false
	}
	switch id {
	case MetricBreakPointsSaved:
		return float64(st.BreakPointsSaved), float64(st.BreakPointsFaced), true
	case MetricFirstServePointsWon:
		return float64(st.FirstWon), float64(st.FirstIn), true
	case MetricAceRate:
		return float64(st.Aces), float64(st.ServePoints), true
	case MetricDoubleFaultRate:
		return float64(st.DoubleFaults), float64(st.ServePoints), true
	case MetricReturnPointsWon:
		opp := ev.Opponent(side).Stats
		if opp == nil {
			return 0, 0, false
		}
		return float64(opp.ServePoints - opp.FirstWon - opp.SecondWon), float64(opp.ServePoints), true
	}
	return 0, 0, false
}

// ratio reads the winner-role and loser-role streams concurrently into
// separate folders and merges them. Both reads share one duplicate guard
// keyed by match and role.
func (a *Aggregator) ratio(ctx context.Context, m *Metric, f filter.Set, p Params) (*Result, error) {
	roles := [...]repository.Role{repository.RoleWinner, repository.RoleLoser}
	var (
		folders [len(roles)]*calculator.Ratio
		partial [len(roles)]*Result
	)
	fields := repository.FieldStats
	if m.ID == MetricWinPercentage {
		fields = 0
	}

	guard := dedupe.New()
	g, gctx := errgroup.WithContext(ctx)
	for i, role := range roles {
		folders[i] = calculator.NewRatio(0, p.Precision)
		partial[i] = &Result{}
		g.Go(func() error {
			q := repository.MatchQuery{Filter: f, Role: role, Fields: fields}
			return a.eachMatchGuarded(gctx, q, guard, partial[i], func(ev *model.MatchEvent) {
				if !ev.Played() {
					return
				}
				partial[i].side(f, ev, role.Side(), func(side model.Side, pl *model.Participant) {
					num, den, ok := contribution(m.ID, ev, side)
					if !ok {
						return
					}
					if aerr := folders[i].Add(pl.ID, num, den); aerr != nil {
						partial[i].anomaly(aerr)
					}
				})
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", m.ID, err)
	}

	res := &Result{}
	for i := range roles {
		res.merge(partial[i])
	}
	folders[0].Merge(folders[1])
	rows, anomalies := folders[0].Rows()
	res.Rows = rows
	res.Anomalies = append(res.Anomalies, anomalies...)
	return res, nil
}
