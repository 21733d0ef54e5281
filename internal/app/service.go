// Package service answers records queries. It resolves the metric, picks the
// snapshot or dynamic path, enriches candidate rows with entity names and
// ranks them.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	repository "github.com/okian/recordbook/internal/adapters/repository"
	"github.com/okian/recordbook/internal/domain/calculator"
	"github.com/okian/recordbook/internal/domain/filter"
	"github.com/okian/recordbook/internal/domain/model"
	"github.com/okian/recordbook/internal/domain/ranking"
	"github.com/okian/recordbook/internal/domain/records"
	"github.com/okian/recordbook/internal/domain/snapshot"
	"github.com/okian/recordbook/internal/domain/types"
	"github.com/okian/recordbook/pkg/logger"
	"github.com/okian/recordbook/pkg/metrics"
)

// ParamTop is the query parameter bounding the number of rows.
const ParamTop = "top"

// Collaborator names used in logs and metrics.
const (
	collabMatches   = "matches"
	collabRankings  = "rankings"
	collabSnapshots = "snapshots"
	collabEntities  = "entities"
)

// Service implements the records API dependencies.
type Service struct {
	// Collaborators
	matches   repository.MatchSource
	rankings  repository.RankingSource
	snapshots repository.SnapshotStore
	entities  repository.EntityLookup
	agg       *records.Aggregator

	// Configuration
	defaultTop int
	maxTop     int
	precision  int32

	// State
	startedAt time.Time
	served    sync.Map // records.Path -> *atomic.Int64
	anomalies atomic.Int64
	failures  atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithMatchSource sets the match event stream.
func WithMatchSource(src repository.MatchSource) Option {
	return func(s *Service) { s.matches = src }
}

// WithRankingSource sets the ranking event stream.
func WithRankingSource(src repository.RankingSource) Option {
	return func(s *Service) { s.rankings = src }
}

// WithSnapshotStore sets the snapshot store. Without one every query is dynamic.
func WithSnapshotStore(store repository.SnapshotStore) Option {
	return func(s *Service) { s.snapshots = store }
}

// WithEntityLookup sets the entity directory used to resolve names.
func WithEntityLookup(lookup repository.EntityLookup) Option {
	return func(s *Service) { s.entities = lookup }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultTop sets the row count used when top is absent.
func WithDefaultTop(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultTop = n
		}
	}
}

// WithMaxTop caps the row count a request can ask for.
func WithMaxTop(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTop = n
		}
	}
}

// WithPrecision sets the decimal precision of percentage metrics.
func WithPrecision(p int32) Option {
	return func(s *Service) {
		if p >= 0 {
			s.precision = p
		}
	}
}

// New constructs a Service. Collaborators left unset make the metrics that
// need them fail with ErrCollaboratorUnavailable.
func New(opts ...Option) *Service {
	s := &Service{
		defaultTop: ranking.DefaultTop,
		maxTop:     ranking.MaxTop,
		precision:  calculator.DefaultPrecision,
		startedAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultTop > s.maxTop {
		s.defaultTop = s.maxTop
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.agg = records.NewAggregator(s.matches, s.rankings)
	metrics.UpdateCatalogSize(len(records.Catalog()))
	return s
}

// Catalog lists the metrics the service can answer.
func (s *Service) Catalog() []records.Metric {
	return records.Catalog()
}

// Records answers one records query: q carries the filters, the metric
// parameters and top. An empty result is not an error.
func (s *Service) Records(ctx context.Context, metricID string, q url.Values) ([]types.RecordRow, error) {
	const op = "service.Records"

	m, err := records.Lookup(metricID)
	if err != nil {
		return nil, err
	}
	top, err := s.limit(q.Get(ParamTop))
	if err != nil {
		return nil, err
	}
	p, err := m.Bind(q, s.precision)
	if err != nil {
		return nil, err
	}
	f := m.Restrict(filter.Parse(q))

	start := time.Now()
	rows, path, err := s.candidates(ctx, m, p, f)
	if err != nil {
		s.failures.Add(1)
		return nil, err
	}
	metrics.RecordEngineRequest(m.ID, string(path))
	metrics.RecordAggregationLatency(m.ID, string(path), time.Since(start))
	s.count(path)

	rows = records.MinSample(m, rows, p.Min)

	entities, err := s.enrich(ctx, rows)
	if err != nil {
		s.failures.Add(1)
		return nil, err
	}
	names := make(map[string]string, len(entities))
	for id, e := range entities {
		names[id] = e.Name
	}

	entries := ranking.Rank(rows, m.Order, names, top)
	out := make([]types.RecordRow, len(entries))
	for i, e := range entries {
		out[i] = recordRow(e, entities)
	}
	metrics.RecordRowsReturned(len(out))

	s.logger.Debug(ctx, "records served",
		logger.String("op", op),
		logger.String("metric", m.ID),
		logger.String("path", string(path)),
		logger.Int("candidates", len(rows)),
		logger.Int("rows", len(out)),
		logger.Duration("took", time.Since(start)),
	)
	return out, nil
}

func (s *Service) limit(raw string) (int, error) {
	top := 0
	if raw = strings.TrimSpace(raw); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidParameter, ParamTop, raw)
		}
		top = n
	}
	n, err := ranking.Limit(top, s.defaultTop, s.maxTop)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	return n, nil
}

// candidates produces the unranked rows of m under f from a snapshot when
// one serves the filter, otherwise by folding raw events.
func (s *Service) candidates(ctx context.Context, m *records.Metric, p records.Params, f filter.Set) ([]types.Row, records.Path, error) {
	snap, err := s.snapshot(ctx, m, p, f)
	if err != nil {
		return nil, "", err
	}

	var coverage records.Coverage
	if snap != nil {
		coverage = snap
	}
	path, dim, value := records.SelectPath(f, coverage)
	if path == records.PathSnapshot {
		return snap.Extract(dim, value), path, nil
	}

	res, err := s.agg.Aggregate(ctx, m, f, p)
	if err != nil {
		if errors.Is(err, records.ErrSourceUnavailable) {
			return nil, "", s.unavailable(ctx, m.Source == records.SourceRankings, m.ID, err)
		}
		return nil, "", err
	}
	metrics.RecordEventsFolded(m.ID, res.Events)
	for _, a := range res.Anomalies {
		reason := calculator.ReasonOf(a)
		metrics.RecordAnomaly(m.ID, reason)
		s.logger.Debug(ctx, "row skipped",
			logger.String("metric", m.ID),
			logger.String("reason", reason),
			logger.Error(a),
		)
	}
	s.anomalies.Add(int64(len(res.Anomalies)))
	return res.Rows, path, nil
}

// snapshot fetches the snapshot for m when the filter is one a snapshot
// could serve. A missing snapshot is not an error.
func (s *Service) snapshot(ctx context.Context, m *records.Metric, p records.Params, f filter.Set) (*snapshot.Snapshot, error) {
	if s.snapshots == nil {
		return nil, nil
	}
	if dim, _, ok := f.Dimension(); !ok || !snapshot.Keyed(dim) {
		return nil, nil
	}
	snap, err := s.snapshots.Snapshot(ctx, records.SnapshotKey(m, p))
	switch {
	case errors.Is(err, repository.ErrSnapshotNotFound):
		metrics.RecordSnapshotMiss(m.ID)
		return nil, nil
	case err != nil:
		metrics.RecordCollaboratorError(collabSnapshots)
		s.logger.Error(ctx, "snapshot read failed",
			logger.String("metric", m.ID),
			logger.String("key", records.SnapshotKey(m, p).String()),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: %s", ErrCollaboratorUnavailable, collabSnapshots)
	case snap.Kind != m.Kind:
		metrics.RecordSnapshotMiss(m.ID)
		s.logger.Warn(ctx, "snapshot kind mismatch, folding instead",
			logger.String("metric", m.ID),
			logger.String("snapshotKind", string(snap.Kind)),
		)
		return nil, nil
	}
	metrics.RecordSnapshotHit(m.ID)
	return snap, nil
}

// enrich resolves every entity referenced by rows in one lookup.
func (s *Service) enrich(ctx context.Context, rows []types.Row) (map[string]model.Entity, error) {
	if len(rows) == 0 {
		return map[string]model.Entity{}, nil
	}
	seen := make(map[string]struct{}, len(rows))
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		for _, id := range r.Entities {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	slices.Sort(ids)

	if s.entities == nil {
		return map[string]model.Entity{}, nil
	}
	found, err := s.entities.Lookup(ctx, ids)
	if err != nil {
		metrics.RecordCollaboratorError(collabEntities)
		s.logger.Error(ctx, "entity lookup failed",
			logger.Int("ids", len(ids)),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: %s", ErrCollaboratorUnavailable, collabEntities)
	}
	if found == nil {
		found = map[string]model.Entity{}
	}
	return found, nil
}

func (s *Service) unavailable(ctx context.Context, rankings bool, metric string, err error) error {
	name := collabMatches
	if rankings {
		name = collabRankings
	}
	metrics.RecordCollaboratorError(name)
	s.logger.Error(ctx, "event source failed",
		logger.String("metric", metric),
		logger.String("collaborator", name),
		logger.Error(err),
	)
	return fmt.Errorf("%w: %s", ErrCollaboratorUnavailable, name)
}

func (s *Service) count(path records.Path) {
	v, _ := s.served.LoadOrStore(path, new(atomic.Int64))
	v.(*atomic.Int64).Add(1)
}

func player(id string, entities map[string]model.Entity) types.Player {
	e, ok := entities[id]
	if !ok {
		return types.Player{ID: id}
	}
	return types.Player{ID: id, Name: e.Name, CountryCode: e.CountryCode}
}

func recordRow(e ranking.Entry, entities map[string]model.Entity) types.RecordRow {
	row := types.RecordRow{
		Rank:   e.Rank,
		Value:  e.Row.Value,
		Detail: e.Row.Detail,
	}
	if len(e.Row.Entities) > 0 {
		row.Player = player(e.Row.Entities[0], entities)
	}
	if e.Row.Detail != nil && e.Row.Detail.Kind() == types.KindHeadToHead && len(e.Row.Entities) > 1 {
		opp := player(e.Row.Entities[1], entities)
		row.Opponent = &opp
	}
	return row
}

// GetStats returns service statistics for monitoring. Dataset sizes are
// included when the entity lookup can report them.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"uptimeSeconds":   int64(time.Since(s.startedAt).Seconds()),
		"catalogSize":     len(records.Catalog()),
		"snapshotQueries": s.servedOn(records.PathSnapshot),
		"dynamicQueries":  s.servedOn(records.PathDynamic),
		"anomalies":       s.anomalies.Load(),
		"failures":        s.failures.Load(),
		"defaultTop":      s.defaultTop,
		"maxTop":          s.maxTop,
		"precision":       s.precision,
	}
	if ds, ok := s.entities.(repository.DatasetReporter); ok {
		st, err := ds.DatasetStats(ctx)
		if err != nil {
			metrics.RecordCollaboratorError(collabEntities)
			s.logger.Warn(ctx, "dataset stats unavailable", logger.Error(err))
			return stats
		}
		stats["dataset"] = st
		metrics.UpdateDatasetSize("players", st.Players)
		metrics.UpdateDatasetSize("matches", st.Matches)
		metrics.UpdateDatasetSize("rankings", st.Rankings)
		metrics.UpdateDatasetSize("snapshots", st.Snapshots)
	}
	return stats
}

func (s *Service) servedOn(path records.Path) int64 {
	if v, ok := s.served.Load(path); ok {
		return v.(*atomic.Int64).Load()
	}
	return 0
}
