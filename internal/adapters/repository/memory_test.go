package repository_test

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	repository "github.com/okian/recordbook/internal/adapters/repository"
	"github.com/okian/recordbook/internal/domain/filter"
	"github.com/okian/recordbook/internal/domain/model"
	"github.com/okian/recordbook/internal/domain/snapshot"
	"github.com/okian/recordbook/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func day(m, d int) time.Time { return time.Date(2003, time.Month(m), d, 0, 0, 0, 0, time.UTC) }

func match(id string, date time.Time, round model.Round, num int, winner, loser model.Participant) model.MatchEvent {
	return model.MatchEvent{
		ID:           id,
		TournamentID: "t-" + date.Format("0102"),
		Date:         date,
		Surface:      model.SurfaceClay,
		Level:        model.LevelTour,
		Round:        round,
		BestOf:       3,
		MatchNum:     num,
		Winner:       winner,
		Loser:        loser,
		Score:        "6-3 6-3",
	}
}

func sampleDataset() *repository.Dataset {
	stats := &model.ServeStats{Aces: 3, ServePoints: 50}
	a := model.Participant{ID: "A", Rank: 4, Age: 21.5, Stats: stats}
	b := model.Participant{ID: "B", Rank: 12, Age: 23.1, Stats: stats}
	c := model.Participant{ID: "C", Age: 19.9}

	hard := match("m4", day(6, 1), model.RoundFinal, 1, a, b)
	hard.Surface = model.SurfaceHard

	return &repository.Dataset{
		Players: []model.Entity{
			{ID: "B", Name: "Bea", CountryCode: "FRA"},
			{ID: "A", Name: "Ann", CountryCode: "ESP", BirthDate: time.Date(1981, 12, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "C", Name: "Cat", CountryCode: "ITA"},
		},
		// Out of order on purpose: the store sorts them.
		Matches: []model.MatchEvent{
			hard,
			match("m3", day(5, 1), model.RoundFinal, 1, b, a),
			match("m2", day(5, 1), model.RoundSF, 2, a, c),
			match("m1", day(5, 1), model.RoundSF, 1, b, c),
		},
		Rankings: []model.RankingEvent{
			{EntityID: "B", Date: day(5, 8), Rank: 2, Points: 900},
			{EntityID: "A", Date: day(5, 8), Rank: 1, Points: 1000},
			{EntityID: "A", Date: day(1, 6), Rank: 3, Points: 500},
		},
	}
}

func collectMatches(t *testing.T, s *repository.MemoryStore, q repository.MatchQuery) []model.MatchEvent {
	t.Helper()
	var out []model.MatchEvent
	for m, err := range s.Matches(context.Background(), q) {
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, m)
	}
	return out
}

func ids(ms []model.MatchEvent) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func TestMemoryStore_Matches(t *testing.T) {
	Convey("Given a memory store with unordered matches", t, func() {
		s := repository.NewMemoryStore(repository.WithDataset(sampleDataset()))

		Convey("Then matches stream chronologically, by round inside a day", func() {
			So(ids(collectMatches(t, s, repository.MatchQuery{})), ShouldResemble, []string{"m1", "m2", "m3", "m4"})
		})

		Convey("And optional fields are stripped unless requested", func() {
			plain := collectMatches(t, s, repository.MatchQuery{})
			So(plain[2].Winner.Stats, ShouldBeNil)
			So(plain[2].Winner.Age, ShouldEqual, 0)

			full := collectMatches(t, s, repository.MatchQuery{Fields: repository.FieldStats | repository.FieldAge})
			So(full[2].Winner.Stats, ShouldNotBeNil)
			So(full[2].Winner.Age, ShouldEqual, 23.1)
		})

		Convey("And match-level filters are applied", func() {
			q := repository.MatchQuery{Filter: filter.Parse(url.Values{filter.ParamSurface: {"hard"}})}
			So(ids(collectMatches(t, s, q)), ShouldResemble, []string{"m4"})
		})

		Convey("And the opponent rank is checked from the requested side", func() {
			f := filter.Parse(url.Values{filter.ParamOpponentRank: {"10"}})
			// Only A (rank 4) qualifies as an opponent; B is 12 and C unranked.
			So(ids(collectMatches(t, s, repository.MatchQuery{Filter: f, Role: repository.RoleWinner})), ShouldResemble, []string{"m3"})
			So(ids(collectMatches(t, s, repository.MatchQuery{Filter: f, Role: repository.RoleLoser})), ShouldResemble, []string{"m2", "m4"})
			So(ids(collectMatches(t, s, repository.MatchQuery{Filter: f})), ShouldHaveLength, 4)
		})

		Convey("And a cancelled context ends the stream with its error", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			var got error
			for _, err := range s.Matches(ctx, repository.MatchQuery{}) {
				got = err
			}
			So(errors.Is(got, context.Canceled), ShouldBeTrue)
		})

		Convey("And breaking early stops the stream", func() {
			n := 0
			for range s.Matches(context.Background(), repository.MatchQuery{}) {
				n++
				break
			}
			So(n, ShouldEqual, 1)
		})
	})
}

func TestMemoryStore_Rankings(t *testing.T) {
	Convey("Given a memory store with rankings", t, func() {
		s := repository.NewMemoryStore(repository.WithDataset(sampleDataset()))
		read := func(q repository.RankingQuery) []model.RankingEvent {
			var out []model.RankingEvent
			for r, err := range s.Rankings(context.Background(), q) {
				So(err, ShouldBeNil)
				out = append(out, r)
			}
			return out
		}

		Convey("Then releases stream by date then rank", func() {
			all := read(repository.RankingQuery{})
			So(all, ShouldHaveLength, 3)
			So(all[0].Date, ShouldEqual, day(1, 6))
			So(all[1].EntityID, ShouldEqual, "A")
			So(all[2].EntityID, ShouldEqual, "B")
		})

		Convey("And the rank bound is inclusive", func() {
			So(read(repository.RankingQuery{MaxRank: 2}), ShouldHaveLength, 2)
		})

		Convey("And year bounds are applied", func() {
			So(read(repository.RankingQuery{FromYear: 2004}), ShouldBeEmpty)
			So(read(repository.RankingQuery{FromYear: 2003, ToYear: 2003}), ShouldHaveLength, 3)
		})
	})
}

func TestMemoryStore_LookupAndSnapshots(t *testing.T) {
	Convey("Given a memory store", t, func() {
		s := repository.NewMemoryStore(repository.WithDataset(sampleDataset()))
		ctx := context.Background()

		Convey("Then lookup returns known entities only", func() {
			got, err := s.Lookup(ctx, []string{"A", "Z"})
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got["A"].Name, ShouldEqual, "Ann")
		})

		Convey("And a missing snapshot is ErrSnapshotNotFound", func() {
			_, err := s.Snapshot(ctx, snapshot.Key{Metric: "head-to-head"})
			So(errors.Is(err, repository.ErrSnapshotNotFound), ShouldBeTrue)
		})

		Convey("And a stored snapshot is served by key", func() {
			b := snapshot.NewBuilder(snapshot.Key{Metric: "win-percentage"}, types.KindRatio)
			b.Add(filter.DimensionNone, "", []types.Row{{Key: "A", Entities: []string{"A"}, Value: 75, Tiebreak: 4,
				Detail: &types.RatioDetail{Numerator: 3, Denominator: 4, Percentage: 75}}})
			s.PutSnapshot(b.Snapshot())

			snap, err := s.Snapshot(ctx, snapshot.Key{Metric: "win-percentage"})
			So(err, ShouldBeNil)
			So(snap.Kind, ShouldEqual, types.KindRatio)
			So(s.Stats(), ShouldResemble, repository.Stats{Players: 3, Matches: 4, Rankings: 3, Snapshots: 1})
		})

		Convey("And snapshots can be registered at construction", func() {
			snap := snapshot.NewBuilder(snapshot.Key{Metric: "head-to-head"}, types.KindHeadToHead).Snapshot()
			seeded := repository.NewMemoryStore(repository.WithDataset(sampleDataset()), repository.WithSnapshots(snap, nil))

			got, err := seeded.Snapshot(ctx, snapshot.Key{Metric: "head-to-head"})
			So(err, ShouldBeNil)
			So(got, ShouldEqual, snap)
			So(seeded.Stats().Snapshots, ShouldEqual, 1)
		})

		Convey("And concurrent readers see a consistent dataset", func() {
			var wg sync.WaitGroup
			counts := make([]int, 8)
			for i := range counts {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range s.Matches(ctx, repository.MatchQuery{}) {
						counts[i]++
					}
				}()
			}
			wg.Wait()
			for _, n := range counts {
				So(n, ShouldEqual, 4)
			}
		})
	})
}

func TestDataset_RoundTrip(t *testing.T) {
	Convey("Given a store exported to JSON", t, func() {
		s := repository.NewMemoryStore(repository.WithDataset(sampleDataset()))
		var buf bytes.Buffer
		So(repository.WriteDataset(&buf, s.Dataset()), ShouldBeNil)

		Convey("Then it reads back into an equivalent store", func() {
			ds, err := repository.ReadDataset(&buf)
			So(err, ShouldBeNil)
			So(ds.Players[0].ID, ShouldEqual, "A")
			again := repository.NewMemoryStore(repository.WithDataset(ds))
			So(again.Stats(), ShouldResemble, s.Stats())
			So(ids(collectMatches(t, again, repository.MatchQuery{})), ShouldResemble, []string{"m1", "m2", "m3", "m4"})
		})

		Convey("And a file on disk opens the same way", func() {
			path := filepath.Join(t.TempDir(), "dataset.json")
			So(os.WriteFile(path, buf.Bytes(), 0o600), ShouldBeNil)
			opened, err := repository.OpenMemoryStore(path)
			So(err, ShouldBeNil)
			So(opened.Stats(), ShouldResemble, s.Stats())
		})
	})

	Convey("Given malformed input", t, func() {
		_, err := repository.ReadDataset(strings.NewReader(`{"players": [`))

		Convey("Then ErrLoadDataset is returned", func() {
			So(errors.Is(err, repository.ErrLoadDataset), ShouldBeTrue)
		})

		Convey("And a missing file is ErrLoadDataset too", func() {
			_, err := repository.OpenMemoryStore(filepath.Join(t.TempDir(), "absent.json"))
			So(errors.Is(err, repository.ErrLoadDataset), ShouldBeTrue)
		})
	})
}
