package recordscli

import (
	"flag"
	"fmt"
	"io"
	"net/url"

	"github.com/okian/recordbook/internal/domain/calculator"
)

// ParseFlags builds a Config from command-line arguments. The mode follows
// from the flags: -generate, -snapshot, -verify, otherwise a query.
func ParseFlags(args []string, stderr io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("records", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { ShowHelp(stderr) }

	var (
		cfg       Config
		rawQuery  string
		doGen     bool
		snapshots string
		precision int
	)
	fs.StringVar(&cfg.DatasetPath, "dataset", "", "JSON dataset to read")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "Postgres URL to read instead of a dataset")
	fs.StringVar(&cfg.OutputFile, "out", "", "Output file (default: stdout)")
	fs.StringVar(&cfg.Metric, "metric", "", "Metric id")
	fs.StringVar(&rawQuery, "query", "", "Filters and parameters, e.g. surface=Clay&top=10")
	fs.IntVar(&precision, "precision", calculator.DefaultPrecision, "Decimal precision of percentages")
	fs.BoolVar(&doGen, "generate", false, "Write a generated dataset")
	fs.IntVar(&cfg.Players, "players", 0, "Players in the generated dataset")
	fs.IntVar(&cfg.Seasons, "seasons", 0, "Seasons in the generated dataset")
	fs.Uint64Var(&cfg.Seed, "seed", 0, "Generator seed")
	fs.StringVar(&snapshots, "snapshot", "", "Build snapshots for a metric id or \"all\"")
	fs.StringVar(&cfg.BaseURL, "verify", "", "Base URL of a running service to check")
	fs.IntVar(&cfg.Workers, "workers", defaultWorkers, "Concurrent requests while verifying")
	fs.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid -query: %w", err)
	}
	cfg.Query = q
	cfg.Precision = int32(precision)

	switch {
	case doGen:
		cfg.Mode = ModeGenerate
	case snapshots != "":
		cfg.Mode = ModeSnapshot
		cfg.Metric = snapshots
	case cfg.BaseURL != "":
		cfg.Mode = ModeVerify
		if cfg.Metric == "" {
			cfg.Metric = AllMetrics
		}
	default:
		cfg.Mode = ModeQuery
	}
	return &cfg, nil
}

// ShowHelp prints usage information for the records tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Recordbook Records Tool
=======================

Computes records offline, writes synthetic datasets, precomputes snapshots
and checks a running service.

Usage:
  go run ./cmd/records [options]

Options:
  -dataset string
        JSON dataset to read
  -database-url string
        Postgres URL to read instead of a dataset
  -metric string
        Metric id
  -query string
        Filters and parameters, e.g. "surface=Clay&top=10"
  -precision int
        Decimal precision of percentages (default 3)
  -out string
        Output file (default: stdout)
  -generate
        Write a generated dataset (-players, -seasons, -seed)
  -snapshot string
        Build snapshots for a metric id or "all"
  -verify string
        Base URL of a running service to check against the local source
  -workers int
        Concurrent requests while verifying (default 4)
  -timeout duration
        HTTP request timeout (default 30s)

Examples:
  # Generate a dataset
  go run ./cmd/records -generate -seasons 6 -out dataset.json

  # Top ten head-to-heads on clay
  go run ./cmd/records -dataset dataset.json -metric head-to-head -query "surface=Clay&top=10"

  # Precompute every snapshot that needs no parameters
  go run ./cmd/records -dataset dataset.json -snapshot all -out dataset.snap.json

  # Check a running service against the same dataset
  go run ./cmd/records -dataset dataset.json -verify http://localhost:9080
`)
}
