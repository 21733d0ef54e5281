package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/recordbook/internal/app"
	"github.com/okian/recordbook/internal/domain/records"
	"github.com/okian/recordbook/pkg/logger"
)

// RecordsHandler serves the metric catalog and record queries.
type RecordsHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps Dependencies, log logger.Logger) *RecordsHandler {
	return &RecordsHandler{deps: deps, log: log}
}

type catalogResponse struct {
	Metrics []records.Metric `json:"metrics"`
}

// HandleCatalog handles GET /records requests.
func (h *RecordsHandler) HandleCatalog(w http.ResponseWriter, _ *http.Request) {
	metrics := h.deps.Catalog()
	if metrics == nil {
		metrics = []records.Metric{}
	}
	writeJSON(w, http.StatusOK, catalogResponse{Metrics: metrics})
}

// HandleGetRecords handles GET /records/{metric} requests.
func (h *RecordsHandler) HandleGetRecords(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_records"

	metric := r.PathValue("metric")
	if metric == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	rows, err := h.deps.Records(r.Context(), metric, r.URL.Query())
	if err != nil {
		h.fail(r.Context(), w, op, metric, err)
		return
	}
	if rows == nil {
		rows = []RecordRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// fail maps a service error to a response. Client errors carry their cause;
// server-side failures are logged and answered with a generic message.
func (h *RecordsHandler) fail(ctx context.Context, w http.ResponseWriter, op, metric string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidParameter):
		writeError(w, http.StatusBadRequest, "invalid_parameter", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrUnknownMetric):
		writeError(w, http.StatusNotFound, "unknown_metric", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrCollaboratorUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		h.log.Error(ctx, "records query unavailable",
			logger.String("metric", metric), logger.Error(Wrap(op, err)))
		writeError(w, http.StatusServiceUnavailable, "unavailable", NewKind(op, ErrUnavailable))
	default:
		h.log.Error(ctx, "records query failed",
			logger.String("metric", metric), logger.Error(Wrap(op, err)))
		writeError(w, http.StatusInternalServerError, "internal", NewKind(op, ErrInternal))
	}
}
