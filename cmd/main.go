package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/recordbook/internal/adapters/http/api"
	"github.com/okian/recordbook/internal/adapters/http/swagger"
	repository "github.com/okian/recordbook/internal/adapters/repository"
	"github.com/okian/recordbook/internal/adapters/repository/postgres"
	service "github.com/okian/recordbook/internal/app"
	"github.com/okian/recordbook/internal/config"
	"github.com/okian/recordbook/internal/fixtures"
	"github.com/okian/recordbook/pkg/logger"
	"github.com/okian/recordbook/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// collaborators is what a data source must serve to back the service.
type collaborators interface {
	repository.MatchSource
	repository.RankingSource
	repository.SnapshotStore
	repository.EntityLookup
}

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	src, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to open data source", logger.Error(err))
		os.Exit(1)
	}
	defer closeSource()

	svc := service.New(
		service.WithMatchSource(src),
		service.WithRankingSource(src),
		service.WithSnapshotStore(src),
		service.WithEntityLookup(src),
		service.WithLogger(log.Named("service")),
		service.WithDefaultTop(cfg.DefaultTop),
		service.WithMaxTop(cfg.MaxTop),
		service.WithPrecision(int32(cfg.RatioPrecision)),
	)

	go metrics.RunSystemCollector(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc,
		api.WithRequestTimeout(cfg.RequestTimeout()),
		api.WithLogger(log.Named("api")),
	)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// openSource picks the data source: Postgres when a database URL is set,
// then a JSON dataset, then generated fixtures, then an empty store.
func openSource(ctx context.Context, cfg *config.Config) (collaborators, func(), error) {
	log := logger.Get()

	switch {
	case cfg.DatabaseURL != "":
		store, err := postgres.Open(ctx, postgres.Config{
			URL:      cfg.DatabaseURL,
			MaxConns: int32(cfg.DatabaseMaxConns),
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case cfg.DatasetPath != "":
		store, err := repository.OpenMemoryStore(cfg.DatasetPath)
		if err != nil {
			return nil, nil, err
		}
		st := store.Stats()
		log.Info(ctx, "dataset loaded",
			logger.String("path", cfg.DatasetPath),
			logger.Int("players", st.Players),
			logger.Int("matches", st.Matches),
			logger.Int("rankings", st.Rankings),
			logger.Int("snapshots", st.Snapshots),
		)
		return store, func() {}, nil

	case cfg.Fixtures:
		ds, err := fixtures.Generate(ctx, fixtures.DefaultConfig())
		if err != nil {
			return nil, nil, err
		}
		return repository.NewMemoryStore(repository.WithDataset(ds)), func() {}, nil
	}

	log.Warn(ctx, "no data source configured; serving an empty dataset")
	return repository.NewMemoryStore(), func() {}, nil
}
