package records_test

import (
	"fmt"
	"time"

	"github.com/okian/recordbook/internal/adapters/repository"
	"github.com/okian/recordbook/internal/domain/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type matchOpt func(*model.MatchEvent)

func onSurface(s model.Surface) matchOpt {
	return func(m *model.MatchEvent) { m.Surface = s }
}

func inRound(r model.Round) matchOpt {
	return func(m *model.MatchEvent) { m.Round = r }
}

func bestOf(n int) matchOpt {
	return func(m *model.MatchEvent) { m.BestOf = n }
}

func outcome(o model.Outcome) matchOpt {
	return func(m *model.MatchEvent) { m.Outcome = o }
}

func ages(w, l float64) matchOpt {
	return func(m *model.MatchEvent) { m.Winner.Age, m.Loser.Age = w, l }
}

func ranks(w, l int) matchOpt {
	return func(m *model.MatchEvent) { m.Winner.Rank, m.Loser.Rank = w, l }
}

func stats(w, l model.ServeStats) matchOpt {
	return func(m *model.MatchEvent) { m.Winner.Stats, m.Loser.Stats = &w, &l }
}

func tournament(id string) matchOpt {
	return func(m *model.MatchEvent) { m.TournamentID, m.TournamentName = id, "Open "+id }
}

var seq int

func match(date time.Time, winner, loser, score string, opts ...matchOpt) model.MatchEvent {
	seq++
	m := model.MatchEvent{
		ID:             fmt.Sprintf("m%04d", seq),
		TournamentID:   fmt.Sprintf("t-%s", date.Format("2006-01-02")),
		TournamentName: "Open",
		Date:           date,
		Surface:        model.SurfaceHard,
		Level:          model.LevelTour,
		Round:          model.RoundR32,
		BestOf:         3,
		MatchNum:       seq,
		Winner:         model.Participant{ID: winner},
		Loser:          model.Participant{ID: loser},
		Score:          score,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func ranking(date time.Time, id string, rank int) model.RankingEvent {
	return model.RankingEvent{EntityID: id, Date: date, Rank: rank, Points: 10000 / rank}
}

func store(matches []model.MatchEvent, rankings []model.RankingEvent) *repository.MemoryStore {
	return repository.NewMemoryStore(repository.WithDataset(&repository.Dataset{
		Players: []model.Entity{
			{ID: "A", Name: "Ann"}, {ID: "B", Name: "Bea"}, {ID: "C", Name: "Cat"}, {ID: "D", Name: "Dot"},
		},
		Matches:  matches,
		Rankings: rankings,
	}))
}
