package recordscli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/recordbook/internal/domain/types"
	"github.com/okian/recordbook/pkg/logger"
)

const (
	defaultWorkers = 4
	defaultTimeout = 30 * time.Second
)

// remoteRow is the part of a served row that verification compares.
type remoteRow struct {
	Rank   int `json:"rank"`
	Player struct {
		ID string `json:"id"`
	} `json:"player"`
	Opponent *struct {
		ID string `json:"id"`
	} `json:"opponent"`
	Value float64 `json:"value"`
}

func (r remoteRow) String() string {
	s := fmt.Sprintf("#%d %s", r.Rank, r.Player.ID)
	if r.Opponent != nil {
		s += " vs " + r.Opponent.ID
	}
	return fmt.Sprintf("%s = %v", s, r.Value)
}

func toRemote(rows []types.RecordRow) []remoteRow {
	out := make([]remoteRow, len(rows))
	for i, r := range rows {
		out[i].Rank = r.Rank
		out[i].Player.ID = r.Player.ID
		if r.Opponent != nil {
			out[i].Opponent = &struct {
				ID string `json:"id"`
			}{ID: r.Opponent.ID}
		}
		out[i].Value = r.Value
	}
	return out
}

// client wraps http.Client with the service base URL.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// records fetches GET /records/{metric}.
func (c *client) records(ctx context.Context, metric string, q url.Values) ([]remoteRow, error) {
	u := c.baseURL + "/records/" + url.PathEscape(metric)
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: %d %s", ErrBadStatus, metric, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var rows []remoteRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", metric, err)
	}
	return rows, nil
}

// verify queries every selected metric on the running service and on the
// local source with the same parameters, and compares the ranked rows.
func verify(ctx context.Context, cfg *Config, out io.Writer) error {
	selected, _, skipped, err := selectMetrics(cfg)
	if err != nil {
		return err
	}
	src, _, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	log := logger.Get()
	svc := newService(src, cfg.Precision)
	c := newClient(cfg.BaseURL, cfg.Timeout)

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var (
		mu     sync.Mutex
		report = Report{Skipped: skipped}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, m := range selected {
		g.Go(func() error {
			local, err := svc.Records(gctx, m.ID, cfg.Query)
			if err != nil {
				return fmt.Errorf("local %s: %w", m.ID, err)
			}
			remote, err := c.records(gctx, m.ID, cfg.Query)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checked++
			if diff := compareRows(toRemote(local), remote); diff != "" {
				report.Mismatched = append(report.Mismatched, m.ID)
				log.Warn(gctx, "service rows differ", logger.String("metric", m.ID), logger.String("diff", diff))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slices.Sort(report.Mismatched)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	if len(report.Mismatched) > 0 {
		return fmt.Errorf("%w: %s", ErrMismatch, strings.Join(report.Mismatched, ", "))
	}
	return nil
}

// compareRows describes the first difference, or returns "".
func compareRows(local, remote []remoteRow) string {
	if len(local) != len(remote) {
		return fmt.Sprintf("row count: local %d, service %d", len(local), len(remote))
	}
	for i := range local {
		if local[i].String() != remote[i].String() {
			return fmt.Sprintf("row %d: local %s, service %s", i, local[i], remote[i])
		}
	}
	return ""
}
