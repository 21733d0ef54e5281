package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/okian/recordbook/internal/adapters/http/api"
	service "github.com/okian/recordbook/internal/app"
	"github.com/okian/recordbook/internal/domain/records"
	"github.com/okian/recordbook/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDependencies struct {
	rows    []types.RecordRow
	err     error
	block   bool
	metric  string
	query   url.Values
	catalog []records.Metric
}

func (m *mockDependencies) Records(ctx context.Context, metric string, q url.Values) ([]types.RecordRow, error) {
	m.metric = metric
	m.query = q
	if m.block {
		<-ctx.Done()
		return nil, fmt.Errorf("matches: %w", ctx.Err())
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

func (m *mockDependencies) Catalog() []records.Metric {
	return m.catalog
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats(context.Context) map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies, opts ...api.Option) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"catalogSize": 26}}, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := &mockDependencies{catalog: records.Catalog()}
		mux := newMux(deps)

		Convey("Then health endpoint should expose metrics", func() {
			w := serve(mux, "GET", "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "recordbook_")
		})

		Convey("And stats endpoint should return the provider's stats", func() {
			w := serve(mux, "GET", "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["catalogSize"], ShouldEqual, 26.0)
		})

		Convey("And catalog endpoint should list every metric", func() {
			w := serve(mux, "GET", "/records")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body struct {
				Metrics []struct {
					ID   string `json:"id"`
					Kind string `json:"kind"`
				} `json:"metrics"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(len(body.Metrics), ShouldEqual, len(records.Catalog()))
			So(body.Metrics[0].ID, ShouldNotBeEmpty)
			So(body.Metrics[0].Kind, ShouldNotBeEmpty)
		})

		Convey("And non-GET methods should be rejected", func() {
			w := serve(mux, "POST", "/records/head-to-head")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("And unknown paths should not be found", func() {
			w := serve(mux, "GET", "/unknown")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHandleGetRecords(t *testing.T) {
	Convey("Given a records endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When the query succeeds", func() {
			deps.rows = []types.RecordRow{{
				Rank:     1,
				Player:   types.Player{ID: "A", Name: "Ann", CountryCode: "ESP"},
				Opponent: &types.Player{ID: "B", Name: "Bea"},
				Value:    3,
				Detail:   &types.HeadToHeadDetail{Player1: "A", Player2: "B", WinsPlayer1: 2, WinsPlayer2: 1, Total: 3},
			}}
			w := serve(mux, "GET", "/records/head-to-head?surface=clay&top=5")

			Convey("Then the rows are encoded with their detail kind", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				So(deps.metric, ShouldEqual, "head-to-head")
				So(deps.query.Get("surface"), ShouldEqual, "clay")
				So(deps.query.Get("top"), ShouldEqual, "5")

				var rows []map[string]interface{}
				So(json.Unmarshal(w.Body.Bytes(), &rows), ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(rows[0]["rank"], ShouldEqual, 1.0)
				So(rows[0]["player"].(map[string]interface{})["name"], ShouldEqual, "Ann")
				So(rows[0]["opponent"].(map[string]interface{})["id"], ShouldEqual, "B")
				So(rows[0]["detail"].(map[string]interface{})["kind"], ShouldEqual, "head-to-head")
			})

			Convey("And a request id is issued", func() {
				So(w.Header().Get(api.HeaderRequestID), ShouldHaveLength, 36)
			})
		})

		Convey("When nothing qualifies", func() {
			w := serve(mux, "GET", "/records/ace-rate")

			Convey("Then an empty array is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})

		Convey("When a request id is supplied", func() {
			req := httptest.NewRequest("GET", "/records/ace-rate", http.NoBody)
			req.Header.Set(api.HeaderRequestID, "3f1f9a52-8c77-4c1e-9f8e-0c6a3b1d2e4f")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it is echoed back", func() {
				So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "3f1f9a52-8c77-4c1e-9f8e-0c6a3b1d2e4f")
			})
		})

		Convey("When a parameter is invalid", func() {
			deps.err = fmt.Errorf("%w: top must be positive", service.ErrInvalidParameter)
			w := serve(mux, "GET", "/records/ace-rate?top=-1")

			Convey("Then 400 is returned with the cause", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "invalid_parameter")
				So(body["message"], ShouldContainSubstring, "top must be positive")
			})
		})

		Convey("When the metric is unknown", func() {
			deps.err = fmt.Errorf("%w: %q", service.ErrUnknownMetric, "nope")
			w := serve(mux, "GET", "/records/nope")

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(w)["code"], ShouldEqual, "unknown_metric")
			})
		})

		Convey("When a collaborator fails", func() {
			deps.err = fmt.Errorf("%w: entities", service.ErrCollaboratorUnavailable)
			w := serve(mux, "GET", "/records/ace-rate")

			Convey("Then 503 is returned without internal detail", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "unavailable")
				So(body["message"], ShouldNotContainSubstring, "entities")
			})
		})

		Convey("When an unexpected error occurs", func() {
			deps.err = errors.New("disk on fire")
			w := serve(mux, "GET", "/records/ace-rate")

			Convey("Then 500 is returned without internal detail", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w)["message"], ShouldNotContainSubstring, "disk")
			})
		})
	})
}

func TestRequestTimeout(t *testing.T) {
	Convey("Given a server with a short request timeout", t, func() {
		deps := &mockDependencies{block: true}
		mux := newMux(deps, api.WithRequestTimeout(20*time.Millisecond))

		Convey("When the query outlives the timeout", func() {
			start := time.Now()
			w := serve(mux, "GET", "/records/win-percentage")

			Convey("Then it is cut short with 503", func() {
				So(time.Since(start), ShouldBeLessThan, 5*time.Second)
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given the op error helpers", t, func() {
		cause := errors.New("cause")

		Convey("Then WrapKind keeps both kind and cause", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: cause")
		})

		Convey("And NewKind carries the op", func() {
			err := api.NewKind("api.op", api.ErrNotFound)
			So(errors.Is(err, api.ErrNotFound), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: not found")
		})

		Convey("And Wrap passes nil through", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(errors.Is(api.Wrap("api.op", cause), cause), ShouldBeTrue)
		})
	})
}
