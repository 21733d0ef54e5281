// Package postgres serves the records collaborators from a PostgreSQL
// database through a pgx connection pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	repository "github.com/okian/recordbook/internal/adapters/repository"
	"github.com/okian/recordbook/internal/domain/model"
	"github.com/okian/recordbook/internal/domain/snapshot"
	"github.com/okian/recordbook/pkg/logger"
	"github.com/okian/recordbook/pkg/metrics"
)

const collaborator = "postgres"

// Config holds the connection settings.
type Config struct {
	URL            string
	MaxConns       int32
	ConnectTimeout time.Duration
}

// Store implements every repository collaborator interface over PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ repository.MatchSource     = (*Store)(nil)
	_ repository.RankingSource   = (*Store)(nil)
	_ repository.SnapshotStore   = (*Store)(nil)
	_ repository.EntityLookup    = (*Store)(nil)
	_ repository.DatasetReporter = (*Store)(nil)
)

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: url is required", ErrConfig)
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 10
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	timeoutCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(timeoutCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	if err := pool.Ping(timeoutCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	logger.Get().Info(ctx, "postgres store connected",
		logger.String("host", poolConfig.ConnConfig.Host),
		logger.String("database", poolConfig.ConnConfig.Database),
		logger.Int("maxConns", int(cfg.MaxConns)),
	)
	return &Store{pool: pool}, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// roundOrder sorts rounds in tournament order inside one day.
var roundOrder = func() string {
	names := make([]string, len(model.Rounds))
	for i, r := range model.Rounds {
		names[i] = "'" + string(r) + "'"
	}
	return "array_position(ARRAY[" + strings.Join(names, ",") + "]::text[], round)"
}()

// matchSQL builds the match query for q. The filter's match-level
// dimensions are pushed down; the caller re-checks every row.
func matchSQL(q repository.MatchQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	f := q.Filter
	if v := f.Surfaces(); len(v) > 0 {
		where = append(where, "surface = ANY("+arg(toStrings(v))+")")
	}
	if v := f.Levels(); len(v) > 0 {
		where = append(where, "level = ANY("+arg(toStrings(v))+")")
	}
	if v := f.Rounds(); len(v) > 0 {
		where = append(where, "round = ANY("+arg(toStrings(v))+")")
	}
	if v := f.BestOf(); len(v) > 0 {
		where = append(where, "best_of = ANY("+arg(v)+")")
	}
	if from, to := f.Years(); from > 0 || to > 0 {
		if from > 0 {
			where = append(where, "match_date >= make_date("+arg(from)+", 1, 1)")
		}
		if to > 0 {
			where = append(where, "match_date < make_date("+arg(to+1)+", 1, 1)")
		}
	}

	var b strings.Builder
	b.WriteString(`SELECT id, tournament_id, tournament_name, match_date, surface, level, round,
	best_of, match_num, score, outcome, winner, loser FROM matches`)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY match_date, tournament_id COLLATE \"C\", " + roundOrder + ", match_num, id COLLATE \"C\"")
	return b.String(), args
}

func toStrings[T ~string](v []T) []string {
	out := make([]string, len(v))
	for i, s := range v {
		out[i] = string(s)
	}
	return out
}

// Matches implements repository.MatchSource.
func (s *Store) Matches(ctx context.Context, q repository.MatchQuery) iter.Seq2[model.MatchEvent, error] {
	return func(yield func(model.MatchEvent, error) bool) {
		start := time.Now()
		defer func() { metrics.RecordCollaboratorRead(collaborator, "matches", time.Since(start)) }()

		query, args := matchSQL(q)
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			yield(model.MatchEvent{}, fmt.Errorf("%w: matches: %w", ErrQuery, err))
			return
		}
		defer rows.Close()

		side := q.Role.Side()
		for rows.Next() {
			var (
				m       model.MatchEvent
				surface string
				level   string
				round   string
				outcome string
			)
			if err := rows.Scan(&m.ID, &m.TournamentID, &m.TournamentName, &m.Date, &surface, &level, &round,
				&m.BestOf, &m.MatchNum, &m.Score, &outcome, &m.Winner, &m.Loser); err != nil {
				yield(model.MatchEvent{}, fmt.Errorf("%w: scan match: %w", ErrQuery, err))
				return
			}
			m.Surface, m.Level, m.Round = model.Surface(surface), model.Level(level), model.Round(round)
			m.Outcome = model.ParseOutcome(outcome)

			if !q.Filter.AllowsMatch(&m) {
				continue
			}
			if q.Role != repository.RoleAny && !q.Filter.AllowsPerspective(&m, side) {
				continue
			}
			if !q.Fields.Has(repository.FieldStats) {
				m.Winner.Stats, m.Loser.Stats = nil, nil
			}
			if !q.Fields.Has(repository.FieldAge) {
				m.Winner.Age, m.Loser.Age = 0, 0
			}
			if !yield(m, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.MatchEvent{}, fmt.Errorf("%w: matches: %w", ErrQuery, err))
		}
	}
}

// Rankings implements repository.RankingSource.
func (s *Store) Rankings(ctx context.Context, q repository.RankingQuery) iter.Seq2[model.RankingEvent, error] {
	return func(yield func(model.RankingEvent, error) bool) {
		start := time.Now()
		defer func() { metrics.RecordCollaboratorRead(collaborator, "rankings", time.Since(start)) }()

		query := `SELECT player_id, ranking_date, rank, points FROM rankings
WHERE ($1 = 0 OR ranking_date >= make_date($1, 1, 1))
  AND ($2 = 0 OR ranking_date < make_date($2 + 1, 1, 1))
  AND ($3 = 0 OR rank <= $3)
ORDER BY ranking_date, rank, player_id COLLATE "C"`
		rows, err := s.pool.Query(ctx, query, q.FromYear, q.ToYear, q.MaxRank)
		if err != nil {
			yield(model.RankingEvent{}, fmt.Errorf("%w: rankings: %w", ErrQuery, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var r model.RankingEvent
			if err := rows.Scan(&r.EntityID, &r.Date, &r.Rank, &r.Points); err != nil {
				yield(model.RankingEvent{}, fmt.Errorf("%w: scan ranking: %w", ErrQuery, err))
				return
			}
			if !yield(r, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.RankingEvent{}, fmt.Errorf("%w: rankings: %w", ErrQuery, err))
		}
	}
}

// Snapshot implements repository.SnapshotStore.
func (s *Store) Snapshot(ctx context.Context, key snapshot.Key) (*snapshot.Snapshot, error) {
	start := time.Now()
	defer func() { metrics.RecordCollaboratorRead(collaborator, "snapshot", time.Since(start)) }()

	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM snapshots WHERE metric = $1 AND params = $2`,
		key.Metric, key.Params).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repository.ErrSnapshotNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot %s: %w", ErrQuery, key, err)
	}

	return decodeSnapshot(key, body)
}

// decodeSnapshot parses a stored snapshot body. A body whose rows fail
// validation is reported as a miss so the caller folds instead.
func decodeSnapshot(key snapshot.Key, body []byte) (*snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot %s: %w", ErrQuery, key, err)
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrSnapshotNotFound, err)
	}
	return &snap, nil
}

// PutSnapshot stores snap, replacing any snapshot with the same key.
func (s *Store) PutSnapshot(ctx context.Context, snap *snapshot.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.Key, err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO snapshots (metric, params, body) VALUES ($1, $2, $3)
ON CONFLICT (metric, params) DO UPDATE SET body = EXCLUDED.body`, snap.Key.Metric, snap.Key.Params, body)
	if err != nil {
		return fmt.Errorf("%w: put snapshot %s: %w", ErrQuery, snap.Key, err)
	}
	return nil
}

// Lookup implements repository.EntityLookup.
func (s *Store) Lookup(ctx context.Context, ids []string) (map[string]model.Entity, error) {
	start := time.Now()
	defer func() { metrics.RecordCollaboratorRead(collaborator, "entities", time.Since(start)) }()

	out := make(map[string]model.Entity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT id, name, country_code, birth_date FROM players WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: players: %w", ErrQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e     model.Entity
			birth *time.Time
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.CountryCode, &birth); err != nil {
			return nil, fmt.Errorf("%w: scan player: %w", ErrQuery, err)
		}
		if birth != nil {
			e.BirthDate = *birth
		}
		out[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: players: %w", ErrQuery, err)
	}
	return out, nil
}

// DatasetStats returns the row count of each table.
func (s *Store) DatasetStats(ctx context.Context) (repository.Stats, error) {
	var st repository.Stats
	err := s.pool.QueryRow(ctx, `SELECT
	(SELECT count(*) FROM players),
	(SELECT count(*) FROM matches),
	(SELECT count(*) FROM rankings),
	(SELECT count(*) FROM snapshots)`).Scan(&st.Players, &st.Matches, &st.Rankings, &st.Snapshots)
	if err != nil {
		return repository.Stats{}, fmt.Errorf("%w: stats: %w", ErrQuery, err)
	}
	return st, nil
}
