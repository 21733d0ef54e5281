// Package recordscli implements the offline records tool: it generates
// synthetic datasets, answers a metric over a dataset, precomputes
// snapshots and checks a running service against a local computation.
package recordscli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	repository "github.com/okian/recordbook/internal/adapters/repository"
	"github.com/okian/recordbook/internal/adapters/repository/postgres"
	service "github.com/okian/recordbook/internal/app"
	"github.com/okian/recordbook/internal/domain/filter"
	"github.com/okian/recordbook/internal/domain/records"
	"github.com/okian/recordbook/internal/domain/snapshot"
	"github.com/okian/recordbook/internal/fixtures"
	"github.com/okian/recordbook/pkg/logger"
)

// File permission constants.
const (
	outputFilePermission = 0o644
)

// snapshotDimensions are the dimensions snapshots are built for.
var snapshotDimensions = []filter.Dimension{
	filter.DimensionSurface, filter.DimensionLevel, filter.DimensionRound, filter.DimensionBestOf,
}

// source is a data source able to back the service.
type source interface {
	repository.MatchSource
	repository.RankingSource
	repository.SnapshotStore
	repository.EntityLookup
}

// Run executes the configured mode. Output goes to cfg.OutputFile, or to
// stdout when it is empty.
func Run(ctx context.Context, cfg *Config, stdout io.Writer) (err error) {
	out := stdout
	if cfg.OutputFile != "" {
		f, ferr := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFilePermission)
		if ferr != nil {
			return fmt.Errorf("failed to create output file: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		out = f
	}

	start := time.Now()
	defer func() {
		logger.Get().Info(ctx, "records tool finished",
			logger.String("mode", string(cfg.Mode)),
			logger.Duration("took", time.Since(start)),
			logger.Bool("ok", err == nil),
		)
	}()

	switch cfg.Mode {
	case ModeGenerate:
		return generate(ctx, cfg, out)
	case ModeSnapshot:
		return buildSnapshots(ctx, cfg, out)
	case ModeVerify:
		return verify(ctx, cfg, out)
	default:
		return query(ctx, cfg, out)
	}
}

func generate(ctx context.Context, cfg *Config, out io.Writer) error {
	fc := fixtures.DefaultConfig()
	if cfg.Players > 0 {
		fc.Players = cfg.Players
	}
	if cfg.Seasons > 0 {
		fc.Seasons = cfg.Seasons
	}
	if cfg.Seed != 0 {
		fc.Seed = cfg.Seed
	}
	ds, err := fixtures.Generate(ctx, fc)
	if err != nil {
		return err
	}
	return repository.WriteDataset(out, ds)
}

// openSource opens the configured source. The returned memory store is
// nil for Postgres.
func openSource(ctx context.Context, cfg *Config) (source, *repository.MemoryStore, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		store, err := postgres.Open(ctx, postgres.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, store.Close, nil
	case cfg.DatasetPath != "":
		store, err := repository.OpenMemoryStore(cfg.DatasetPath)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, func() {}, nil
	}
	return nil, nil, nil, ErrNoSource
}

func newService(src source, precision int32) *service.Service {
	return service.New(
		service.WithMatchSource(src),
		service.WithRankingSource(src),
		service.WithSnapshotStore(src),
		service.WithEntityLookup(src),
		service.WithLogger(logger.Get().Named("service")),
		service.WithPrecision(precision),
	)
}

func query(ctx context.Context, cfg *Config, out io.Writer) error {
	if cfg.Metric == "" || cfg.Metric == AllMetrics {
		return ErrNoMetric
	}
	src, _, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	rows, err := newService(src, cfg.Precision).Records(ctx, cfg.Metric, cfg.Query)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// selectMetrics resolves cfg.Metric. For AllMetrics, metrics whose
// parameters cannot be bound from the query are skipped.
func selectMetrics(cfg *Config) (selected []*records.Metric, params []records.Params, skipped []string, err error) {
	var candidates []*records.Metric
	switch cfg.Metric {
	case "":
		return nil, nil, nil, ErrNoMetric
	case AllMetrics:
		for _, m := range records.Catalog() {
			candidates = append(candidates, &m)
		}
	default:
		m, err := records.Lookup(cfg.Metric)
		if err != nil {
			return nil, nil, nil, err
		}
		candidates = append(candidates, m)
	}

	for _, m := range candidates {
		p, err := m.Bind(cfg.Query, cfg.Precision)
		if err != nil {
			if cfg.Metric != AllMetrics {
				return nil, nil, nil, err
			}
			skipped = append(skipped, m.ID)
			continue
		}
		selected = append(selected, m)
		params = append(params, p)
	}
	return selected, params, skipped, nil
}

// buildSnapshots precomputes snapshots for the selected metrics. A memory
// source is written back out with its snapshots; a Postgres source is
// updated in place.
func buildSnapshots(ctx context.Context, cfg *Config, out io.Writer) error {
	selected, params, skipped, err := selectMetrics(cfg)
	if err != nil {
		return err
	}
	src, mem, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	log := logger.Get()
	agg := records.NewAggregator(src, src)
	for i, m := range selected {
		snap, err := agg.BuildSnapshot(ctx, m, params[i], snapshotDimensions...)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", m.ID, err)
		}
		if err := putSnapshot(ctx, src, mem, snap); err != nil {
			return err
		}
		log.Info(ctx, "snapshot built", logger.String("key", snap.Key.String()))
	}
	for _, id := range skipped {
		log.Info(ctx, "snapshot skipped; parameters missing", logger.String("metric", id))
	}

	if mem == nil {
		return nil
	}
	return repository.WriteDataset(out, mem.Dataset())
}

func putSnapshot(ctx context.Context, src source, mem *repository.MemoryStore, snap *snapshot.Snapshot) error {
	if mem != nil {
		mem.PutSnapshot(snap)
		return nil
	}
	pg, ok := src.(*postgres.Store)
	if !ok {
		return errors.New("source cannot store snapshots")
	}
	return pg.PutSnapshot(ctx, snap)
}
