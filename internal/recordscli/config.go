package recordscli

import (
	"errors"
	"net/url"
	"time"
)

// Sentinel errors.
var (
	ErrNoSource  = errors.New("no dataset or database configured")
	ErrNoMetric  = errors.New("metric is required")
	ErrMismatch  = errors.New("service rows differ from local rows")
	ErrBadStatus = errors.New("unexpected status")
)

// Mode selects what Run does.
type Mode string

// Modes.
const (
	ModeQuery    Mode = "query"
	ModeGenerate Mode = "generate"
	ModeSnapshot Mode = "snapshot"
	ModeVerify   Mode = "verify"
)

// AllMetrics selects the whole catalog for snapshot and verify.
const AllMetrics = "all"

// Config holds the tool configuration.
type Config struct {
	Mode Mode

	DatasetPath string // JSON dataset read by query, snapshot and verify
	DatabaseURL string // Postgres source; wins over DatasetPath
	OutputFile  string // Output file; stdout when empty

	Metric    string     // Metric id, or AllMetrics where allowed
	Query     url.Values // Filters and parameters
	Precision int32      // Decimal precision of percentages

	// Generation.
	Players int
	Seasons int
	Seed    uint64

	// Verification.
	BaseURL string
	Workers int
	Timeout time.Duration
}

// Report summarizes a verification run.
type Report struct {
	Checked    int      `json:"checked"`
	Skipped    []string `json:"skipped,omitempty"`
	Mismatched []string `json:"mismatched,omitempty"`
}
