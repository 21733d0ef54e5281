package recordscli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/recordbook/internal/adapters/http/api"
	repository "github.com/okian/recordbook/internal/adapters/repository"
	service "github.com/okian/recordbook/internal/app"
	"github.com/okian/recordbook/internal/domain/records"
	"github.com/okian/recordbook/internal/recordscli"
	"github.com/okian/recordbook/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithWriter(os.Stderr))
	_ = logger.SetLevelString("error")
}

// generateDataset writes a small generated dataset and returns its path.
func generateDataset(t *testing.T, seed uint64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.json")
	err := recordscli.Run(context.Background(), &recordscli.Config{
		Mode:       recordscli.ModeGenerate,
		OutputFile: path,
		Players:    16,
		Seasons:    2,
		Seed:       seed,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return path
}

func runTo(cfg *recordscli.Config) (*bytes.Buffer, error) {
	var out bytes.Buffer
	err := recordscli.Run(context.Background(), cfg, &out)
	return &out, err
}

// requiresParams counts catalog metrics that cannot run without parameters.
func requiresParams() int {
	n := 0
	for _, m := range records.Catalog() {
		for _, p := range m.Params {
			if p.Required {
				n++
				break
			}
		}
	}
	return n
}

func serviceServer(t *testing.T, path string) *httptest.Server {
	t.Helper()
	store, err := repository.OpenMemoryStore(path)
	if err != nil {
		t.Fatal(err)
	}
	svc := service.New(
		service.WithMatchSource(store),
		service.WithRankingSource(store),
		service.WithSnapshotStore(store),
		service.WithEntityLookup(store),
	)
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate(t *testing.T) {
	Convey("Given the generate mode", t, func() {
		path := generateDataset(t, 7)

		Convey("Then the dataset file loads back", func() {
			ds, err := repository.LoadDataset(path)
			So(err, ShouldBeNil)
			So(ds.Players, ShouldHaveLength, 16)
			// Two seasons of eight sixteen-player draws.
			So(ds.Matches, ShouldHaveLength, 2*8*15)
			So(ds.Rankings, ShouldNotBeEmpty)
		})
	})
}

func TestQuery(t *testing.T) {
	Convey("Given a generated dataset", t, func() {
		path := generateDataset(t, 7)

		Convey("When querying a metric", func() {
			out, err := runTo(&recordscli.Config{
				Mode:        recordscli.ModeQuery,
				DatasetPath: path,
				Metric:      records.MetricWinPercentage,
				Query:       url.Values{"top": {"5"}},
				Precision:   3,
			})

			Convey("Then ranked rows are printed", func() {
				So(err, ShouldBeNil)
				var rows []struct {
					Rank   int `json:"rank"`
					Player struct {
						Name string `json:"name"`
					} `json:"player"`
				}
				So(json.Unmarshal(out.Bytes(), &rows), ShouldBeNil)
				So(rows, ShouldNotBeEmpty)
				So(len(rows), ShouldBeLessThanOrEqualTo, 5)
				So(rows[0].Rank, ShouldEqual, 1)
				So(rows[0].Player.Name, ShouldNotBeEmpty)
			})
		})

		Convey("When the metric is missing", func() {
			_, err := runTo(&recordscli.Config{Mode: recordscli.ModeQuery, DatasetPath: path})

			Convey("Then ErrNoMetric is returned", func() {
				So(errors.Is(err, recordscli.ErrNoMetric), ShouldBeTrue)
			})
		})

		Convey("When the metric is unknown", func() {
			_, err := runTo(&recordscli.Config{Mode: recordscli.ModeQuery, DatasetPath: path, Metric: "nope"})

			Convey("Then ErrUnknownMetric is returned", func() {
				So(errors.Is(err, service.ErrUnknownMetric), ShouldBeTrue)
			})
		})

		Convey("When no source is configured", func() {
			_, err := runTo(&recordscli.Config{Mode: recordscli.ModeQuery, Metric: records.MetricHeadToHead})

			Convey("Then ErrNoSource is returned", func() {
				So(errors.Is(err, recordscli.ErrNoSource), ShouldBeTrue)
			})
		})
	})
}

func TestSnapshot(t *testing.T) {
	Convey("Given a generated dataset", t, func() {
		path := generateDataset(t, 7)
		snapPath := filepath.Join(t.TempDir(), "dataset.snap.json")

		Convey("When building snapshots for the whole catalog", func() {
			_, err := runTo(&recordscli.Config{
				Mode:        recordscli.ModeSnapshot,
				DatasetPath: path,
				OutputFile:  snapPath,
				Metric:      recordscli.AllMetrics,
				Precision:   3,
			})
			So(err, ShouldBeNil)

			Convey("Then every metric without required parameters is snapshotted", func() {
				ds, err := repository.LoadDataset(snapPath)
				So(err, ShouldBeNil)
				So(ds.Snapshots, ShouldHaveLength, len(records.Catalog())-requiresParams())
			})

			Convey("And answers from the snapshots match the dynamic answers", func() {
				for _, metric := range []string{records.MetricHeadToHead, records.MetricStraightSets, records.MetricWeeksAtRankStreak} {
					q := url.Values{"surface": {"Hard"}}
					dynamic, err := runTo(&recordscli.Config{Mode: recordscli.ModeQuery, DatasetPath: path, Metric: metric, Query: q, Precision: 3})
					So(err, ShouldBeNil)
					snapped, err := runTo(&recordscli.Config{Mode: recordscli.ModeQuery, DatasetPath: snapPath, Metric: metric, Query: q, Precision: 3})
					So(err, ShouldBeNil)
					So(snapped.String(), ShouldEqual, dynamic.String())
				}
			})
		})

		Convey("When a named metric lacks a required parameter", func() {
			_, err := runTo(&recordscli.Config{
				Mode:        recordscli.ModeSnapshot,
				DatasetPath: path,
				Metric:      records.MetricAgeAtNthTitle,
			})

			Convey("Then the parameter error is returned", func() {
				So(errors.Is(err, service.ErrInvalidParameter), ShouldBeTrue)
			})
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given a service serving a generated dataset", t, func() {
		path := generateDataset(t, 7)
		srv := serviceServer(t, path)

		Convey("When verifying against the same dataset", func() {
			out, err := runTo(&recordscli.Config{
				Mode:        recordscli.ModeVerify,
				DatasetPath: path,
				BaseURL:     srv.URL,
				Metric:      recordscli.AllMetrics,
				Precision:   3,
				Workers:     3,
			})

			Convey("Then every runnable metric matches", func() {
				So(err, ShouldBeNil)
				var report recordscli.Report
				So(json.Unmarshal(out.Bytes(), &report), ShouldBeNil)
				So(report.Checked, ShouldEqual, len(records.Catalog())-requiresParams())
				So(report.Mismatched, ShouldBeEmpty)
				So(report.Skipped, ShouldHaveLength, requiresParams())
			})
		})

		Convey("When verifying against a different dataset", func() {
			other := generateDataset(t, 8)
			_, err := runTo(&recordscli.Config{
				Mode:        recordscli.ModeVerify,
				DatasetPath: other,
				BaseURL:     srv.URL,
				Metric:      records.MetricWinPercentage,
				Precision:   3,
			})

			Convey("Then a mismatch is reported", func() {
				So(errors.Is(err, recordscli.ErrMismatch), ShouldBeTrue)
			})
		})

		Convey("When the service rejects the query", func() {
			_, err := runTo(&recordscli.Config{
				Mode:        recordscli.ModeVerify,
				DatasetPath: path,
				BaseURL:     srv.URL + "/missing",
				Metric:      records.MetricWinPercentage,
				Precision:   3,
			})

			Convey("Then the status is surfaced", func() {
				So(errors.Is(err, recordscli.ErrBadStatus), ShouldBeTrue)
			})
		})
	})
}

func TestParseFlags(t *testing.T) {
	Convey("Given command-line arguments", t, func() {
		var stderr bytes.Buffer

		Convey("Then a plain metric selects query mode", func() {
			cfg, err := recordscli.ParseFlags([]string{"-dataset", "d.json", "-metric", "head-to-head", "-query", "surface=Clay&top=3"}, &stderr)
			So(err, ShouldBeNil)
			So(cfg.Mode, ShouldEqual, recordscli.ModeQuery)
			So(cfg.Query.Get("surface"), ShouldEqual, "Clay")
			So(cfg.Query.Get("top"), ShouldEqual, "3")
			So(cfg.Precision, ShouldEqual, int32(3))
		})

		Convey("And -generate selects generate mode", func() {
			cfg, err := recordscli.ParseFlags([]string{"-generate", "-seasons", "3", "-seed", "9"}, &stderr)
			So(err, ShouldBeNil)
			So(cfg.Mode, ShouldEqual, recordscli.ModeGenerate)
			So(cfg.Seasons, ShouldEqual, 3)
			So(cfg.Seed, ShouldEqual, uint64(9))
		})

		Convey("And -snapshot selects snapshot mode for the named metric", func() {
			cfg, err := recordscli.ParseFlags([]string{"-dataset", "d.json", "-snapshot", "all"}, &stderr)
			So(err, ShouldBeNil)
			So(cfg.Mode, ShouldEqual, recordscli.ModeSnapshot)
			So(cfg.Metric, ShouldEqual, recordscli.AllMetrics)
		})

		Convey("And -verify defaults to the whole catalog", func() {
			cfg, err := recordscli.ParseFlags([]string{"-dataset", "d.json", "-verify", "http://localhost:9080"}, &stderr)
			So(err, ShouldBeNil)
			So(cfg.Mode, ShouldEqual, recordscli.ModeVerify)
			So(cfg.Metric, ShouldEqual, recordscli.AllMetrics)
		})

		Convey("And an unknown flag is an error", func() {
			_, err := recordscli.ParseFlags([]string{"-bogus"}, &stderr)
			So(err, ShouldNotBeNil)
		})
	})
}
