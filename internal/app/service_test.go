package service_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"testing"
	"time"

	repository "github.com/okian/recordbook/internal/adapters/repository"
	service "github.com/okian/recordbook/internal/app"
	"github.com/okian/recordbook/internal/domain/filter"
	"github.com/okian/recordbook/internal/domain/model"
	"github.com/okian/recordbook/internal/domain/records"
	"github.com/okian/recordbook/internal/domain/snapshot"
	"github.com/okian/recordbook/internal/domain/types"
	"github.com/okian/recordbook/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var errBoom = errors.New("boom")

type failingMatches struct{}

func (failingMatches) Matches(context.Context, repository.MatchQuery) iter.Seq2[model.MatchEvent, error] {
	return func(yield func(model.MatchEvent, error) bool) {
		yield(model.MatchEvent{}, errBoom)
	}
}

type failingEntities struct{}

func (failingEntities) Lookup(context.Context, []string) (map[string]model.Entity, error) {
	return nil, errBoom
}

// reportingEntities is a lookup that also reports dataset sizes, as the
// Postgres store does.
type reportingEntities struct {
	stats repository.Stats
	err   error
}

func (reportingEntities) Lookup(context.Context, []string) (map[string]model.Entity, error) {
	return map[string]model.Entity{}, nil
}

func (r reportingEntities) DatasetStats(context.Context) (repository.Stats, error) {
	return r.stats, r.err
}

type snapshotStub struct {
	snaps map[string]*snapshot.Snapshot
	err   error
	calls int
}

func (s *snapshotStub) Snapshot(_ context.Context, key snapshot.Key) (*snapshot.Snapshot, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if snap, ok := s.snaps[key.String()]; ok {
		return snap, nil
	}
	return nil, repository.ErrSnapshotNotFound
}

var seq int

func played(date time.Time, winner, loser string, surface model.Surface) model.MatchEvent {
	seq++
	return model.MatchEvent{
		ID:           "m" + string(rune('a'+seq%26)) + date.Format("20060102"),
		TournamentID: "t" + date.Format("20060102"),
		Date:         date,
		Surface:      surface,
		Level:        model.LevelTour,
		Round:        model.RoundR32,
		BestOf:       3,
		MatchNum:     seq,
		Winner:       model.Participant{ID: winner, Age: 25},
		Loser:        model.Participant{ID: loser, Age: 25},
		Score:        "6-4 6-4",
	}
}

func dataset() *repository.Dataset {
	d := func(m, day int) time.Time { return time.Date(2001, time.Month(m), day, 0, 0, 0, 0, time.UTC) }
	return &repository.Dataset{
		Players: []model.Entity{
			{ID: "A", Name: "Ann", CountryCode: "ESP"},
			{ID: "B", Name: "Bea", CountryCode: "FRA"},
			{ID: "C", Name: "Cat", CountryCode: "ITA"},
		},
		Matches: []model.MatchEvent{
			played(d(1, 1), "A", "B", model.SurfaceHard),
			played(d(2, 1), "B", "A", model.SurfaceClay),
			played(d(3, 1), "A", "B", model.SurfaceClay),
			played(d(4, 1), "A", "C", model.SurfaceHard),
			played(d(5, 1), "C", "C", model.SurfaceHard),
		},
	}
}

func newService(opts ...service.Option) (*service.Service, *repository.MemoryStore) {
	mem := repository.NewMemoryStore(repository.WithDataset(dataset()))
	base := []service.Option{
		service.WithMatchSource(mem),
		service.WithRankingSource(mem),
		service.WithEntityLookup(mem),
	}
	return service.New(append(base, opts...)...), mem
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it exposes the full catalog and sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Catalog(), ShouldHaveLength, len(records.Catalog()))
			stats := svc.GetStats(context.Background())
			So(stats["defaultTop"], ShouldEqual, 100)
			So(stats["maxTop"], ShouldEqual, 500)
		})
	})

	Convey("Given a default top above the cap", t, func() {
		svc := service.New(service.WithDefaultTop(50), service.WithMaxTop(10), service.WithPrecision(1))

		Convey("Then the default is clamped", func() {
			So(svc.GetStats(context.Background())["defaultTop"], ShouldEqual, 10)
			So(svc.GetStats(context.Background())["precision"], ShouldEqual, int32(1))
		})
	})
}

func TestService_RecordsValidation(t *testing.T) {
	Convey("Given a service over a small dataset", t, func() {
		svc, _ := newService()
		ctx := context.Background()

		Convey("When the metric is unknown", func() {
			_, err := svc.Records(ctx, "most-aces-in-a-final", url.Values{})
			So(errors.Is(err, service.ErrUnknownMetric), ShouldBeTrue)
		})

		Convey("When top is negative or not a number", func() {
			_, err := svc.Records(ctx, records.MetricHeadToHead, url.Values{"top": {"-1"}})
			So(errors.Is(err, service.ErrInvalidParameter), ShouldBeTrue)
			_, err = svc.Records(ctx, records.MetricHeadToHead, url.Values{"top": {"ten"}})
			So(errors.Is(err, service.ErrInvalidParameter), ShouldBeTrue)
		})

		Convey("When a required parameter is missing or out of range", func() {
			_, err := svc.Records(ctx, records.MetricAgeAtNthWin, url.Values{})
			So(errors.Is(err, service.ErrInvalidParameter), ShouldBeTrue)
			_, err = svc.Records(ctx, records.MetricAgeAtNthWin, url.Values{"n": {"0"}})
			So(errors.Is(err, service.ErrInvalidParameter), ShouldBeTrue)
			_, err = svc.Records(ctx, records.MetricWinsByAge, url.Values{"age": {"old"}})
			So(errors.Is(err, service.ErrInvalidParameter), ShouldBeTrue)
		})
	})
}

func TestService_Records(t *testing.T) {
	Convey("Given a service over a small dataset", t, func() {
		svc, _ := newService()
		ctx := context.Background()

		Convey("When asking for head-to-head records", func() {
			rows, err := svc.Records(ctx, records.MetricHeadToHead, url.Values{})
			So(err, ShouldBeNil)

			Convey("Then the pair is ranked with both names and the self pair is skipped", func() {
				So(rows, ShouldHaveLength, 2)
				So(rows[0].Rank, ShouldEqual, 1)
				So(rows[0].Player, ShouldResemble, types.Player{ID: "A", Name: "Ann", CountryCode: "ESP"})
				So(rows[0].Opponent, ShouldResemble, &types.Player{ID: "B", Name: "Bea", CountryCode: "FRA"})
				So(rows[0].Value, ShouldEqual, 3)
				So(rows[0].Detail, ShouldResemble, &types.HeadToHeadDetail{
					Player1: "A", Player2: "B", WinsPlayer1: 2, WinsPlayer2: 1, Total: 3,
				})
				So(rows[1].Opponent.ID, ShouldEqual, "C")
				So(svc.GetStats(context.Background())["anomalies"], ShouldEqual, int64(1))
			})
		})

		Convey("When filtering by a surface", func() {
			rows, err := svc.Records(ctx, records.MetricHeadToHead, url.Values{"surface": {"clay"}})
			So(err, ShouldBeNil)

			Convey("Then only the clay meetings count", func() {
				So(rows, ShouldHaveLength, 1)
				So(rows[0].Value, ShouldEqual, 2)
			})
		})

		Convey("When truncating with top", func() {
			rows, err := svc.Records(ctx, records.MetricWinPercentage, url.Values{"top": {"1"}})
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 1)
			So(rows[0].Player.Name, ShouldEqual, "Ann")
			So(rows[0].Value, ShouldEqual, 75)
		})

		Convey("When a minimum sample is requested", func() {
			rows, err := svc.Records(ctx, records.MetricWinPercentage, url.Values{"min": {"4"}})
			So(err, ShouldBeNil)

			Convey("Then entities below it are dropped", func() {
				So(rows, ShouldHaveLength, 1)
				So(rows[0].Player.ID, ShouldEqual, "A")
			})
		})

		Convey("When nothing qualifies", func() {
			rows, err := svc.Records(ctx, records.MetricHeadToHead, url.Values{"surface": {"Grass"}})
			So(err, ShouldBeNil)
			So(rows, ShouldBeEmpty)
			So(rows, ShouldNotBeNil)
		})

		Convey("Then every query is counted on the dynamic path", func() {
			_, err := svc.Records(ctx, records.MetricHeadToHead, url.Values{})
			So(err, ShouldBeNil)
			stats := svc.GetStats(context.Background())
			So(stats["dynamicQueries"], ShouldEqual, int64(1))
			So(stats["snapshotQueries"], ShouldEqual, int64(0))
			So(stats["dataset"], ShouldResemble, repository.Stats{Players: 3, Matches: 5})
		})
	})
}

func TestService_SnapshotPath(t *testing.T) {
	Convey("Given a registered win-percentage snapshot", t, func() {
		m, err := records.Lookup(records.MetricWinPercentage)
		So(err, ShouldBeNil)
		p, err := m.Bind(url.Values{}, 3)
		So(err, ShouldBeNil)

		b := snapshot.NewBuilder(records.SnapshotKey(m, p), m.Kind)
		b.Add(filter.DimensionNone, "", []types.Row{{
			Key: "Z", Entities: []string{"Z"}, Value: 100, Tiebreak: 9,
			Detail: &types.RatioDetail{Numerator: 9, Denominator: 9, Percentage: 100},
		}})
		stub := &snapshotStub{snaps: map[string]*snapshot.Snapshot{records.SnapshotKey(m, p).String(): b.Snapshot()}}
		svc, _ := newService(service.WithSnapshotStore(stub))
		ctx := context.Background()

		Convey("When the query is unfiltered", func() {
			rows, err := svc.Records(ctx, records.MetricWinPercentage, url.Values{})
			So(err, ShouldBeNil)

			Convey("Then the snapshot answers", func() {
				So(rows, ShouldHaveLength, 1)
				So(rows[0].Player.ID, ShouldEqual, "Z")
				So(rows[0].Player.Name, ShouldBeEmpty)
				So(svc.GetStats(context.Background())["snapshotQueries"], ShouldEqual, int64(1))
			})
		})

		Convey("When the filter names a dimension the snapshot lacks", func() {
			rows, err := svc.Records(ctx, records.MetricWinPercentage, url.Values{"surface": {"Clay"}})
			So(err, ShouldBeNil)

			Convey("Then the engine folds raw events", func() {
				So(rows, ShouldHaveLength, 2)
				So(svc.GetStats(context.Background())["dynamicQueries"], ShouldEqual, int64(1))
			})
		})

		Convey("When the filter can never be snapshotted", func() {
			_, err := svc.Records(ctx, records.MetricWinPercentage, url.Values{"from_year": {"2001"}})
			So(err, ShouldBeNil)

			Convey("Then the store is not consulted", func() {
				So(stub.calls, ShouldEqual, 0)
			})
		})

		Convey("When another metric has no snapshot", func() {
			rows, err := svc.Records(ctx, records.MetricHeadToHead, url.Values{})
			So(err, ShouldBeNil)
			So(rows, ShouldNotBeEmpty)
		})
	})
}

func TestService_CollaboratorFailures(t *testing.T) {
	Convey("Given failing collaborators", t, func() {
		ctx := context.Background()

		Convey("When the match stream fails", func() {
			svc := service.New(service.WithMatchSource(failingMatches{}))
			_, err := svc.Records(ctx, records.MetricWinPercentage, url.Values{})

			Convey("Then the error is CollaboratorUnavailable without internal detail", func() {
				So(errors.Is(err, service.ErrCollaboratorUnavailable), ShouldBeTrue)
				So(err.Error(), ShouldNotContainSubstring, "boom")
				So(svc.GetStats(context.Background())["failures"], ShouldEqual, int64(1))
			})
		})

		Convey("When no ranking stream is configured", func() {
			svc, _ := newService(service.WithRankingSource(nil))
			_, err := svc.Records(ctx, records.MetricWeeksAtRankStreak, url.Values{})
			So(errors.Is(err, service.ErrCollaboratorUnavailable), ShouldBeTrue)
		})

		Convey("When the entity lookup fails", func() {
			svc, _ := newService(service.WithEntityLookup(failingEntities{}))
			_, err := svc.Records(ctx, records.MetricHeadToHead, url.Values{})
			So(errors.Is(err, service.ErrCollaboratorUnavailable), ShouldBeTrue)
		})

		Convey("When the snapshot store fails", func() {
			svc, _ := newService(service.WithSnapshotStore(&snapshotStub{err: errBoom}))
			_, err := svc.Records(ctx, records.MetricHeadToHead, url.Values{})
			So(errors.Is(err, service.ErrCollaboratorUnavailable), ShouldBeTrue)
		})

		Convey("When the snapshot store rejects a stored snapshot as a miss", func() {
			invalid := fmt.Errorf("%w: %w", repository.ErrSnapshotNotFound, snapshot.ErrKindMismatch)
			svc, _ := newService(service.WithSnapshotStore(&snapshotStub{err: invalid}))
			rows, err := svc.Records(ctx, records.MetricWinPercentage, url.Values{})

			Convey("Then the engine folds raw events", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldNotBeEmpty)
				So(svc.GetStats(context.Background())["dynamicQueries"], ShouldEqual, int64(1))
			})
		})
	})
}

func TestService_DatasetStats(t *testing.T) {
	Convey("Given an entity lookup that reports dataset sizes", t, func() {
		ctx := context.Background()
		st := repository.Stats{Players: 7, Matches: 40, Rankings: 12, Snapshots: 2}

		Convey("When the report succeeds", func() {
			svc := service.New(service.WithEntityLookup(reportingEntities{stats: st}))

			Convey("Then the sizes are part of the stats", func() {
				So(svc.GetStats(ctx)["dataset"], ShouldResemble, st)
			})
		})

		Convey("When the report fails", func() {
			svc := service.New(service.WithEntityLookup(reportingEntities{err: errBoom}))
			stats := svc.GetStats(ctx)

			Convey("Then the sizes are left out and the rest is served", func() {
				So(stats, ShouldNotContainKey, "dataset")
				So(stats["catalogSize"], ShouldEqual, len(records.Catalog()))
			})
		})

		Convey("When the request context is already cancelled", func() {
			svc, _ := newService()
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then the memory store does not report", func() {
				So(svc.GetStats(cancelled), ShouldNotContainKey, "dataset")
			})
		})
	})
}
