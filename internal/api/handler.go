package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/gyaneshwarpardhi/proofengine/internal/catalog"
	"github.com/gyaneshwarpardhi/proofengine/internal/config"
	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
	"github.com/gyaneshwarpardhi/proofengine/internal/history"
	"github.com/gyaneshwarpardhi/proofengine/internal/proof"
)

const defaultResultsLimit = 20

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng     *proof.Engine
	loader  *config.Loader
	archive *history.Archive
	limiter *rate.Limiter
	logger  *slog.Logger
	mux     *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithArchive persists every executed result and enables /v1/results.
func WithArchive(a *history.Archive) Option {
	return func(h *Handler) { h.archive = a }
}

// WithRateLimit rejects requests beyond perSec with 429.
func WithRateLimit(perSec float64, burst int) Option {
	return func(h *Handler) {
		if perSec <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// New creates an HTTP handler and registers all routes. When loader is
// non-nil the engine is subscribed to its reloads, so a changed catalog file
// is swapped in whether it arrives through the watcher or the reload route.
// A nil loader disables the reload route.
func New(eng *proof.Engine, loader *config.Loader, opts ...Option) http.Handler {
	h := &Handler{
		eng:    eng,
		loader: loader,
		logger: slog.Default().With(slog.String("component", "api")),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if loader != nil {
		loader.OnChange(eng.ApplyConfig)
	}

	h.mux.HandleFunc("GET /v1/queries", h.listQueries)
	h.mux.HandleFunc("GET /v1/queries/{id}", h.getQuery)
	h.mux.HandleFunc("POST /v1/queries/{id}/execute", h.executeQuery)
	h.mux.HandleFunc("POST /v1/regulations/{regulation}/execute", h.executeRegulation)
	h.mux.HandleFunc("GET /v1/summary", h.summary)
	h.mux.HandleFunc("GET /v1/results/{id}", h.listResults)
	h.mux.HandleFunc("GET /v1/results/{id}/latest", h.latestResult)
	h.mux.HandleFunc("POST /v1/catalog/reload", h.reloadCatalog)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return h.loggingMiddleware(h.rateLimitMiddleware(h.mux))
}

type querySummary struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Regulation  string             `json:"regulation"`
	Articles    []string           `json:"articles"`
	Severity    catalog.Severity   `json:"severity"`
	Criteria    int                `json:"criteria"`
	MaxScore    float64            `json:"max_score"`
	Nodes       []catalog.NodeSpec `json:"nodes,omitempty"`
}

func describe(def *catalog.QueryDefinition, withNodes bool) querySummary {
	qs := querySummary{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Regulation:  def.Regulation,
		Articles:    def.Articles,
		Severity:    def.Severity,
		Criteria:    len(def.Criteria),
		MaxScore:    def.MaxScore(),
	}
	if withNodes {
		qs.Nodes = def.Nodes
	}
	return qs
}

// GET /v1/queries?regulation= lists query definitions.
func (h *Handler) listQueries(w http.ResponseWriter, r *http.Request) {
	cat := h.eng.Catalog()
	defs := cat.List(r.URL.Query().Get("regulation"))
	out := make([]querySummary, 0, len(defs))
	for _, def := range defs {
		out = append(out, describe(def, false))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"regulations": cat.Regulations(),
		"queries":     out,
	})
}

// GET /v1/queries/{id}
func (h *Handler) getQuery(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	def, ok := h.eng.Catalog().Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("query %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, describe(def, true))
}

// POST /v1/queries/{id}/execute with an optional {"from","to"} body.
func (h *Handler) executeQuery(w http.ResponseWriter, r *http.Request) {
	tr, err := rangeFromBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.eng.ExecuteQuery(r.Context(), r.PathValue("id"), tr)
	switch {
	case errors.Is(err, proof.ErrQueryNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.save(res)
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/regulations/{regulation}/execute
func (h *Handler) executeRegulation(w http.ResponseWriter, r *http.Request) {
	tr, err := rangeFromBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	regulation := r.PathValue("regulation")
	results := h.eng.ExecuteAllForRegulation(r.Context(), regulation, tr)
	for _, res := range results {
		h.save(res)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"regulation": regulation,
		"results":    results,
	})
}

// GET /v1/summary?from=&to=
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tr, err := parseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sum := h.eng.GetComplianceSummary(r.Context(), tr)
	for _, res := range sum.Results {
		h.save(res)
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /v1/results/{id}?limit= returns archived results, newest first.
func (h *Handler) listResults(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusNotFound, "result archive is not enabled")
		return
	}
	limit := defaultResultsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", s))
			return
		}
		limit = n
	}
	id := r.PathValue("id")
	results, err := h.archive.List(id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query_id": id,
		"results":  results,
	})
}

// GET /v1/results/{id}/latest returns the newest archived result.
func (h *Handler) latestResult(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusNotFound, "result archive is not enabled")
		return
	}
	res, err := h.archive.Latest(r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/catalog/reload re-reads the catalog file. The loader validates
// it and the engine subscription builds and swaps it before it is committed.
func (h *Handler) reloadCatalog(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusNotImplemented, "catalog reload is not configured")
		return
	}
	if _, err := h.loader.Reload(); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, config.ErrInvalid) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":      true,
		"queries_count": h.eng.Catalog().Len(),
	})
}

// GET /healthz always returns 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz returns 503 while the catalog holds no queries.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	n := h.eng.Catalog().Len()
	if n == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "no queries loaded",
			"queries": n,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ready",
		"queries": n,
	})
}

func (h *Handler) save(res *proof.ComplianceQueryResult) {
	if h.archive == nil || res == nil {
		return
	}
	if err := h.archive.Save(res); err != nil {
		h.logger.Warn("archive result failed", "query_id", res.QueryID, "err", err)
	}
}

type rangeRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// rangeFromBody reads an optional {"from","to"} body. An empty body
// means the default window.
func rangeFromBody(r *http.Request) (*evidence.TimeRange, error) {
	var req rangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid JSON: %s", err)
	}
	return parseRange(req.From, req.To)
}

// parseRange parses RFC3339 bounds. Both empty yields nil (default window);
// a single bound is completed by the engine.
func parseRange(from, to string) (*evidence.TimeRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	var tr evidence.TimeRange
	var err error
	if from != "" {
		if tr.From, err = time.Parse(time.RFC3339, from); err != nil {
			return nil, fmt.Errorf("invalid from: %s", err)
		}
	}
	if to != "" {
		if tr.To, err = time.Parse(time.RFC3339, to); err != nil {
			return nil, fmt.Errorf("invalid to: %s", err)
		}
	}
	if from != "" && to != "" && tr.From.After(tr.To) {
		return nil, fmt.Errorf("invalid time range: from %s is after to %s", from, to)
	}
	return &tr, nil
}
