package api

import (
	"context"
	"net/http"
)

// StatsProvider exposes service counters for GET /stats.
type StatsProvider interface {
	GetStats(ctx context.Context) map[string]interface{}
}

// StatsHandler serves service statistics.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler. A nil provider serves an
// empty object.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{}
	if h.provider != nil {
		if s := h.provider.GetStats(r.Context()); s != nil {
			stats = s
		}
	}
	writeJSON(w, http.StatusOK, stats)
}
