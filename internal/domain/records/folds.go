package records

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/okian/recordbook/internal/adapters/repository"
	"github.com/okian/recordbook/internal/domain/calculator"
	"github.com/okian/recordbook/internal/domain/filter"
	"github.com/okian/recordbook/internal/domain/model"
)

func matchQuery(f filter.Set, fields repository.Field) repository.MatchQuery {
	return repository.MatchQuery{Filter: f, Role: repository.RoleAny, Fields: fields}
}

func (a *Aggregator) streak(ctx context.Context, m *Metric, f filter.Set, p Params) (*Result, error) {
	res := &Result{}
	s := calculator.NewStreak(calculator.WithMinLength(p.Min))
	label := yearLabel

	var err error
	switch m.ID {
	case MetricTitleSeasonStreak:
		err = a.eachMatch(ctx, matchQuery(f, 0), res, func(ev *model.MatchEvent) {
			if !ev.IsTitle() {
				return
			}
			res.side(f, ev, model.SideWinner, func(_ model.Side, pl *model.Participant) {
				s.Add(pl.ID, ev.Date.Year(), 1)
			})
		})

	case MetricMatchWinStreak:
		played := make(map[string][]*model.MatchEvent)
		err = a.eachMatch(ctx, matchQuery(f, 0), res, func(ev *model.MatchEvent) {
			if !ev.Played() {
				return
			}
			res.sides(f, ev, func(_ model.Side, pl *model.Participant) {
				played[pl.ID] = append(played[pl.ID], ev)
			})
		})
		for id, list := range played {
			slices.SortStableFunc(list, func(x, y *model.MatchEvent) int {
				switch {
				case x.Before(y):
					return -1
				case y.Before(x):
					return 1
				}
				return 0
			})
			for i, ev := range list {
				if ev.Winner.ID == id {
					s.Add(id, i, 1)
				}
			}
		}
		label = func(id string, period int) (string, float64) {
			ev := played[id][period]
			return ev.Date.Format(time.DateOnly), epochDays(ev.Date)
		}

	case MetricYearEndTopStreak:
		type yearEnd struct {
			date time.Time
			ids  []string
		}
		ends := make(map[int]*yearEnd)
		err = a.eachRanking(ctx, f, p.Rank, res, func(r *model.RankingEvent) {
			y := r.Date.Year()
			e := ends[y]
			if e == nil || r.Date.After(e.date) {
				e = &yearEnd{date: r.Date}
				ends[y] = e
			}
			if r.Date.Equal(e.date) && r.Rank > 0 && r.Rank <= p.Rank {
				e.ids = append(e.ids, r.EntityID)
			}
		})
		for y, e := range ends {
			for _, id := range e.ids {
				s.Add(id, y, 1)
			}
		}

	case MetricWeeksAtRankStreak:
		held := make(map[string][]int64)
		seen := make(map[int64]struct{})
		err = a.eachRanking(ctx, f, p.Rank, res, func(r *model.RankingEvent) {
			day := r.Date.Unix() / 86400
			seen[day] = struct{}{}
			if r.Rank > 0 && r.Rank <= p.Rank {
				held[r.EntityID] = append(held[r.EntityID], day)
			}
		})
		dates := make([]int64, 0, len(seen))
		for d := range seen {
			dates = append(dates, d)
		}
		slices.Sort(dates)
		for id, days := range held {
			for _, d := range days {
				idx, _ := slices.BinarySearch(dates, d)
				s.Add(id, idx, 1)
			}
		}
		label = func(_ string, period int) (string, float64) {
			d := dates[period]
			return time.Unix(d*86400, 0).UTC().Format(time.DateOnly), float64(d)
		}
	}
	if err != nil {
		return nil, err
	}
	res.Rows = s.Rows(label)
	return res, nil
}

func (a *Aggregator) nth(ctx context.Context, m *Metric, f filter.Set, p Params) (*Result, error) {
	res := &Result{}
	finder := calculator.NewNth(p.N)
	occurrence := func(ev *model.MatchEvent, v float64) calculator.Occurrence {
		return calculator.Occurrence{Value: v, Date: ev.Date.Format(time.DateOnly), Event: ev.TournamentName}
	}

	var err error
	switch m.ID {
	case MetricAgeAtNthTitle, MetricAgeAtNthWin:
		titles := m.ID == MetricAgeAtNthTitle
		err = a.eachMatch(ctx, matchQuery(f, repository.FieldAge), res, func(ev *model.MatchEvent) {
			if (titles && !ev.IsTitle()) || (!titles && !ev.Played()) {
				return
			}
			res.side(f, ev, model.SideWinner, func(_ model.Side, pl *model.Participant) {
				v, aerr := age(ev, pl)
				if aerr != nil {
					res.anomaly(aerr)
					return
				}
				finder.Add(pl.ID, occurrence(ev, v))
			})
		})

	case MetricEntriesToNthTitle:
		entered := make(map[string]map[string]struct{})
		err = a.eachMatch(ctx, matchQuery(f, 0), res, func(ev *model.MatchEvent) {
			res.sides(f, ev, func(side model.Side, pl *model.Participant) {
				t, ok := entered[pl.ID]
				if !ok {
					t = make(map[string]struct{})
					entered[pl.ID] = t
				}
				t[ev.TournamentID] = struct{}{}
				if side == model.SideWinner && ev.IsTitle() {
					finder.Add(pl.ID, occurrence(ev, float64(len(t))))
				}
			})
		})
	}
	if err != nil {
		return nil, err
	}
	res.Rows = finder.Rows()
	return res, nil
}

func (a *Aggregator) cumulative(ctx context.Context, m *Metric, f filter.Set, p Params) (*Result, error) {
	res := &Result{}
	c := calculator.NewCumulative()
	err := a.eachMatch(ctx, matchQuery(f, repository.FieldAge), res, func(ev *model.MatchEvent) {
		var winnerOnly bool
		switch m.ID {
		case MetricMatchesByAge:
			if !ev.Played() {
				return
			}
		case MetricWinsByAge:
			if !ev.Played() {
				return
			}
			winnerOnly = true
		case MetricTitlesByAge:
			if !ev.IsTitle() {
				return
			}
			winnerOnly = true
		}
		add := func(_ model.Side, pl *model.Participant) {
			v, aerr := age(ev, pl)
			if aerr != nil {
				res.anomaly(aerr)
				return
			}
			c.Add(pl.ID, v, 1)
		}
		if winnerOnly {
			res.side(f, ev, model.SideWinner, add)
			return
		}
		res.sides(f, ev, add)
	})
	if err != nil {
		return nil, err
	}
	res.Rows = c.Rows(p.Age)
	return res, nil
}

func (a *Aggregator) timespan(ctx context.Context, m *Metric, f filter.Set, p Params) (*Result, error) {
	res := &Result{}
	var (
		ts  *calculator.Timespan
		err error
	)
	switch m.ID {
	case MetricTopRankTimespan:
		ts = calculator.NewTimespan(calculator.Days)
		err = a.eachRanking(ctx, f, p.Rank, res, func(r *model.RankingEvent) {
			if r.Rank > 0 && r.Rank <= p.Rank {
				ts.Observe(r.EntityID, r.Date)
			}
		})

	case MetricTitleTimespan, MetricWinSeasonSpan:
		titles := m.ID == MetricTitleTimespan
		ts = calculator.NewTimespan(calculator.Days)
		if !titles {
			ts = calculator.NewTimespan(calculator.Years)
		}
		err = a.eachMatch(ctx, matchQuery(f, 0), res, func(ev *model.MatchEvent) {
			if (titles && !ev.IsTitle()) || (!titles && !ev.Played()) {
				return
			}
			res.side(f, ev, model.SideWinner, func(_ model.Side, pl *model.Participant) {
				ts.Observe(pl.ID, ev.Date)
			})
		})

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, m.ID)
	}
	if err != nil {
		return nil, err
	}
	res.Rows = ts.Rows()
	return res, nil
}
