// Package fixtures generates deterministic synthetic datasets of players,
// matches and weekly rankings for development and property tests.
package fixtures

import (
	"cmp"
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/recordbook/internal/adapters/repository"
	"github.com/okian/recordbook/internal/domain/calendar"
	"github.com/okian/recordbook/internal/domain/model"
	"github.com/okian/recordbook/pkg/logger"
)

// rngReader feeds uuid generation from the seeded source so ids are reproducible.
type rngReader struct{ r *rand.Rand }

func (rr rngReader) Read(p []byte) (int, error) {
	var buf [8]byte
	for i := 0; i < len(p); i += 8 {
		binary.LittleEndian.PutUint64(buf[:], rr.r.Uint64())
		copy(p[i:], buf[:])
	}
	return len(p), nil
}

type player struct {
	entity model.Entity
	skill  float64
	earned []award
}

type award struct {
	date   time.Time
	points int
}

// points sums the awards earned in the window ending on date.
func (p *player) points(date time.Time) int {
	total := 0
	for _, a := range p.earned {
		if d := calendar.Days(a.date, date); d >= 0 && d < rankingWindow {
			total += a.points
		}
	}
	return total
}

type generator struct {
	cfg     Config
	rng     *rand.Rand
	ids     rngReader
	players []*player
	ranks   map[string]int
	ds      *repository.Dataset
}

// Generate builds a dataset from cfg. The same config always yields the same dataset.
func Generate(ctx context.Context, cfg Config) (*repository.Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	g := &generator{
		cfg:   cfg,
		rng:   rng,
		ids:   rngReader{r: rng},
		ranks: make(map[string]int),
		ds:    &repository.Dataset{},
	}

	logger.Get().Info(ctx, "generating fixtures dataset",
		logger.Int("players", cfg.Players),
		logger.Int("seasons", cfg.Seasons),
		logger.Int("tournamentsPerSeason", cfg.TournamentsPerSeason),
		logger.Int("drawSize", cfg.DrawSize),
	)

	if err := g.generatePlayers(); err != nil {
		return nil, err
	}

	gap := 350 / cfg.TournamentsPerSeason
	for season := range cfg.Seasons {
		year := cfg.StartYear + season
		for slot := range cfg.TournamentsPerSeason {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			start := calendar.Date(year, time.January, 8).AddDate(0, 0, slot*gap)
			if err := g.playTournament(year, slot, start); err != nil {
				return nil, err
			}
			g.publishRanking(start.AddDate(0, 0, 7))
		}
	}

	logger.Get().Info(ctx, "fixtures dataset generated",
		logger.Int("matches", len(g.ds.Matches)),
		logger.Int("rankings", len(g.ds.Rankings)),
	)
	return g.ds, nil
}

func (g *generator) newID() (string, error) {
	id, err := uuid.NewRandomFromReader(g.ids)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}

func (g *generator) generatePlayers() error {
	for i := range g.cfg.Players {
		id, err := g.newID()
		if err != nil {
			return err
		}
		name := firstNames[i%len(firstNames)] + " " + lastNames[(i*7+i/len(firstNames))%len(lastNames)]
		if i >= len(firstNames)*len(lastNames) {
			name += " " + strconv.Itoa(i)
		}
		born := calendar.Date(g.cfg.StartYear-30+g.rng.IntN(12), time.Month(1+g.rng.IntN(12)), 1+g.rng.IntN(28))
		p := &player{
			entity: model.Entity{
				ID:          id,
				Name:        name,
				CountryCode: countries[g.rng.IntN(len(countries))],
				BirthDate:   born,
			},
			skill: 0.5 + g.rng.Float64()*1.5,
		}
		g.players = append(g.players, p)
		g.ds.Players = append(g.ds.Players, p.entity)
	}
	return nil
}

// entrants picks the draw: the best-ranked half of the draw is seeded in, the rest by lot.
func (g *generator) entrants() []*player {
	pool := slices.Clone(g.players)
	slices.SortStableFunc(pool, func(a, b *player) int {
		return cmp.Compare(g.rankOf(a), g.rankOf(b))
	})
	direct := g.cfg.DrawSize / 2
	rest := pool[direct:]
	g.rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	draw := slices.Clone(pool[:g.cfg.DrawSize])
	g.rng.Shuffle(len(draw), func(i, j int) { draw[i], draw[j] = draw[j], draw[i] })
	return draw
}

func (g *generator) rankOf(p *player) int {
	if r, ok := g.ranks[p.entity.ID]; ok {
		return r
	}
	return len(g.players) + 1
}

func rounds(drawSize int) []model.Round {
	all := []model.Round{model.RoundR128, model.RoundR64, model.RoundR32, model.RoundR16, model.RoundQF, model.RoundSF, model.RoundFinal}
	n := 0
	for s := drawSize; s > 1; s /= 2 {
		n++
	}
	return all[len(all)-n:]
}

func (g *generator) playTournament(year, slot int, start time.Time) error {
	sched := calendarSlots[slot%len(calendarSlots)]
	tid, err := g.newID()
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%s %d", cities[slot%len(cities)], year)
	bestOf := 3
	if sched.level == model.LevelGrandSlam {
		bestOf = 5
	}

	alive := g.entrants()
	reached := make(map[*player]int, len(alive))
	for _, p := range alive {
		reached[p] = 0
	}
	num := 0
	for ri, round := range rounds(g.cfg.DrawSize) {
		date := start.AddDate(0, 0, ri)
		next := make([]*player, 0, len(alive)/2)
		for i := 0; i+1 < len(alive); i += 2 {
			num++
			id, err := g.newID()
			if err != nil {
				return err
			}
			m := model.MatchEvent{
				ID:             id,
				TournamentID:   tid,
				TournamentName: name,
				Date:           date,
				Surface:        sched.surface,
				Level:          sched.level,
				Round:          round,
				BestOf:         bestOf,
				MatchNum:       num,
			}
			winner := g.playMatch(&m, alive[i], alive[i+1])
			g.ds.Matches = append(g.ds.Matches, m)
			reached[winner]++
			next = append(next, winner)
		}
		alive = next
	}

	for p, n := range reached {
		p.earned = append(p.earned, award{
			date:   start,
			points: roundPoints[min(n, len(roundPoints)-1)] * levelWeight[sched.level],
		})
	}
	return nil
}

// playMatch decides a and b, fills m and returns the winner.
func (g *generator) playMatch(m *model.MatchEvent, a, b *player) *player {
	pa := a.skill / (a.skill + b.skill)
	winner, loser := a, b
	if g.rng.Float64() >= pa {
		winner, loser = b, a
		pa = 1 - pa
	}
	m.Winner = g.participant(winner, m.Date)
	m.Loser = g.participant(loser, m.Date)

	if g.rng.Float64() < walkoverRate {
		m.Outcome = model.OutcomeWalkover
		m.Score = "W/O"
		return winner
	}

	sets := g.playSets(m.BestOf, pa)
	if g.rng.Float64() < retirementRate && len(sets) > 1 {
		sets = sets[:1+g.rng.IntN(len(sets)-1)]
		m.Outcome = model.OutcomeRetired
		m.Score = strings.Join(sets, " ") + " RET"
	} else {
		m.Outcome = model.OutcomeCompleted
		m.Score = strings.Join(sets, " ")
	}

	games := 0
	for _, s := range sets {
		var w, l int
		_, _ = fmt.Sscanf(s, "%d-%d", &w, &l)
		games += w + l
	}
	m.Winner.Stats = g.serveStats(games, true)
	m.Loser.Stats = g.serveStats(games, false)
	return winner
}

// playSets returns set scores from the match winner's point of view. The
// winner is fixed; p only shapes how close the match gets.
func (g *generator) playSets(bestOf int, p float64) []string {
	need := (bestOf + 1) / 2
	var won, lost int
	var sets []string
	for won < need {
		winnerTakes := lost == need-1 || g.rng.Float64() < p
		if winnerTakes {
			won++
			sets = append(sets, g.setScore(false))
		} else {
			lost++
			sets = append(sets, g.setScore(true))
		}
	}
	return sets
}

// setScore renders one set; flipped means the match loser took it.
func (g *generator) setScore(flipped bool) string {
	var hi, lo int
	tiebreak := -1
	switch r := g.rng.IntN(10); {
	case r < 6:
		hi, lo = 6, g.rng.IntN(5)
	case r < 8:
		hi, lo = 7, 5
	default:
		hi, lo = 7, 6
		tiebreak = g.rng.IntN(11)
	}
	if flipped {
		hi, lo = lo, hi
	}
	s := strconv.Itoa(hi) + "-" + strconv.Itoa(lo)
	if tiebreak >= 0 {
		s += "(" + strconv.Itoa(tiebreak) + ")"
	}
	return s
}

// serveStats produces internally consistent serve numbers for a match of games games.
func (g *generator) serveStats(games int, winner bool) *model.ServeStats {
	serviceGames := max(1, games/2)
	servePoints := serviceGames * (5 + g.rng.IntN(3))
	firstIn := servePoints * (55 + g.rng.IntN(16)) / 100
	doubleFaults := min(g.rng.IntN(6), servePoints-firstIn)
	secondIn := servePoints - firstIn - doubleFaults
	firstRate := 60 + g.rng.IntN(15)
	if winner {
		firstRate += 8
	}
	firstWon := firstIn * firstRate / 100
	secondWon := secondIn * (40 + g.rng.IntN(20)) / 100
	faced := g.rng.IntN(serviceGames + 1)
	return &model.ServeStats{
		Aces:             g.rng.IntN(firstWon/3 + 1),
		DoubleFaults:     doubleFaults,
		ServePoints:      servePoints,
		FirstIn:          firstIn,
		FirstWon:         firstWon,
		SecondWon:        secondWon,
		ServiceGames:     serviceGames,
		BreakPointsSaved: g.rng.IntN(faced + 1),
		BreakPointsFaced: faced,
	}
}

func (g *generator) participant(p *player, on time.Time) model.Participant {
	rank := g.ranks[p.entity.ID]
	return model.Participant{
		ID:          p.entity.ID,
		Name:        p.entity.Name,
		CountryCode: p.entity.CountryCode,
		Rank:        rank,
		Age:         calendar.AgeAt(p.entity.BirthDate, on),
	}
}

// publishRanking emits a ranking list on date for every player holding points.
func (g *generator) publishRanking(date time.Time) {
	type standing struct {
		p      *player
		points int
	}
	table := make([]standing, 0, len(g.players))
	for _, p := range g.players {
		if pts := p.points(date); pts > 0 {
			table = append(table, standing{p: p, points: pts})
		}
	}
	slices.SortFunc(table, func(a, b standing) int {
		if c := cmp.Compare(b.points, a.points); c != 0 {
			return c
		}
		return cmp.Compare(a.p.entity.ID, b.p.entity.ID)
	})
	clear(g.ranks)
	for i, s := range table {
		g.ranks[s.p.entity.ID] = i + 1
		g.ds.Rankings = append(g.ds.Rankings, model.RankingEvent{
			EntityID: s.p.entity.ID,
			Date:     date,
			Rank:     i + 1,
			Points:   s.points,
		})
	}
}
