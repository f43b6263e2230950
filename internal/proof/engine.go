package proof

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/gyaneshwarpardhi/proofengine/internal/catalog"
	"github.com/gyaneshwarpardhi/proofengine/internal/config"
	"github.com/gyaneshwarpardhi/proofengine/internal/criterion"
	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
	"github.com/gyaneshwarpardhi/proofengine/internal/metrics"
)

var tracer = otel.Tracer("proofengine.proof")

// Engine evaluates query definitions against the evidence store.
// It holds no per-execution state; concurrent calls are independent.
type Engine struct {
	catalog    atomic.Pointer[catalog.Catalog]
	registry   *criterion.Registry
	fetcher    *fetcher
	conf       config.EngineConf
	thresholds Thresholds
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the evaluation clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRegistry replaces the built-in criterion evaluators.
func WithRegistry(r *criterion.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine over cat and store using conf, which is usually
// config.DefaultEngineConf() or the engine section of a loaded catalog.
// Zero limits mean unlimited; SummaryWorkers and DefaultRangeMonths have no
// useful zero and fall back to their defaults.
func New(cat *catalog.Catalog, store evidence.Store, conf config.EngineConf, opts ...Option) *Engine {
	if conf.SummaryWorkers < 1 {
		conf.SummaryWorkers = config.DefaultSummaryWorkers
	}
	if conf.DefaultRangeMonths < 1 {
		conf.DefaultRangeMonths = config.DefaultRangeMonths
	}
	e := &Engine{
		registry:   criterion.Default(),
		conf:       conf,
		thresholds: Thresholds{Proven: conf.ProvenThreshold, Partial: conf.PartialThreshold},
		now:        time.Now,
		logger:     slog.Default().With(slog.String("component", "proof")),
	}
	for _, opt := range opts {
		opt(e)
	}
	var limiter *rate.Limiter
	if conf.FetchRatePerSec > 0 {
		burst := int(conf.FetchRatePerSec)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(conf.FetchRatePerSec), burst)
	}
	e.fetcher = &fetcher{
		store:       store,
		limit:       conf.MaxNodesPerFetch,
		timeout:     time.Duration(conf.FetchTimeoutMs) * time.Millisecond,
		concurrency: conf.FetchConcurrency,
		limiter:     limiter,
		logger:      e.logger,
	}
	e.SwapCatalog(cat)
	return e
}

// SwapCatalog atomically replaces the catalog (used on hot-reload).
// Executions already running keep the snapshot they started with.
func (e *Engine) SwapCatalog(cat *catalog.Catalog) {
	if cat == nil {
		cat, _ = catalog.New()
	}
	e.catalog.Store(cat)
	metrics.CatalogQueries.Set(float64(cat.Len()))
}

// ApplyConfig compiles the queries of cfg and swaps them in. It matches the
// config.Loader OnChange signature so a failed build rejects the reload.
// Engine tunables are fixed at construction and are not re-read.
func (e *Engine) ApplyConfig(cfg *config.CatalogConfig) error {
	cat, err := catalog.Build(cfg)
	if err != nil {
		return err
	}
	e.SwapCatalog(cat)
	e.logger.Info("catalog applied", "queries", cat.Len())
	return nil
}

// Catalog returns the active catalog snapshot.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog.Load()
}

// Thresholds returns the verdict cut-offs in effect.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// ExecuteQuery runs one query definition. tr defaults to the configured
// trailing window (12 months unless overridden) ending now. It returns
// ErrQueryNotFound for an unknown id; evidence store outages degrade to
// empty evidence instead of failing.
func (e *Engine) ExecuteQuery(ctx context.Context, queryID string, tr *evidence.TimeRange) (*ComplianceQueryResult, error) {
	def, ok := e.catalog.Load().Get(queryID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrQueryNotFound, queryID)
	}
	now := e.now()
	return e.execute(ctx, def, e.resolveRange(tr, now), now)
}

// ExecuteAllForRegulation runs every definition tagged with regulation in
// catalog order. A query whose pipeline fails is logged and left out.
func (e *Engine) ExecuteAllForRegulation(ctx context.Context, regulation string, tr *evidence.TimeRange) []*ComplianceQueryResult {
	defs := e.catalog.Load().List(regulation)
	now := e.now()
	window := e.resolveRange(tr, now)

	results := make([]*ComplianceQueryResult, 0, len(defs))
	for _, def := range defs {
		res, err := e.execute(ctx, def, window, now)
		if err != nil {
			e.skip(def, err)
			continue
		}
		results = append(results, res)
	}
	return results
}

// GetComplianceSummary runs every definition concurrently through a
// bounded pool under the configured deadline and aggregates verdicts
// overall and per regulation. CRITICAL queries that are not PROVEN
// contribute their gaps to CriticalGaps. Failed queries are left out of
// the counts and listed in FailedQueries.
func (e *Engine) GetComplianceSummary(ctx context.Context, tr *evidence.TimeRange) *ComplianceSummary {
	start := time.Now()
	now := e.now()
	window := e.resolveRange(tr, now)
	defs := e.catalog.Load().List("")

	if e.conf.SummaryTimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.conf.SummaryTimeoutMs)*time.Millisecond)
		defer cancel()
	}
	ctx, span := tracer.Start(ctx, "proof.Summary",
		trace.WithAttributes(attribute.Int("proof.queries", len(defs))),
	)
	defer span.End()

	resultC := make(chan jobResult[*catalog.QueryDefinition, *ComplianceQueryResult], len(defs))
	pool := newWorkerPool[*catalog.QueryDefinition, *ComplianceQueryResult](
		ctx,
		e.conf.SummaryWorkers,
		len(defs),
		func(ctx context.Context, def *catalog.QueryDefinition) (*ComplianceQueryResult, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return e.execute(ctx, def, window, now)
		},
	)
	for _, def := range defs {
		// Queue capacity equals len(defs), so Submit cannot fail here.
		pool.Submit(def, resultC)
	}
	pool.Drain()
	close(resultC)

	summary := &ComplianceSummary{
		ID:           uuid.NewString(),
		GeneratedAt:  now,
		TimeRange:    window,
		ByRegulation: make(map[string]*RegulationSummary),
		CriticalGaps: []CriticalGap{},
		Results:      make([]*ComplianceQueryResult, 0, len(defs)),
	}
	for jr := range resultC {
		if jr.err != nil {
			e.skip(jr.payload, jr.err)
			summary.FailedQueries = append(summary.FailedQueries, jr.payload.ID)
			continue
		}
		summary.Results = append(summary.Results, jr.value)
	}
	sort.Slice(summary.Results, func(i, j int) bool { return summary.Results[i].QueryID < summary.Results[j].QueryID })
	sort.Strings(summary.FailedQueries)
	aggregate(summary)

	summary.DurationMs = time.Since(start).Milliseconds()
	metrics.SummaryDuration.Observe(float64(summary.DurationMs))
	span.SetAttributes(
		attribute.Int("proof.failed", len(summary.FailedQueries)),
		attribute.Int("proof.critical_gaps", len(summary.CriticalGaps)),
	)
	return summary
}

func aggregate(s *ComplianceSummary) {
	confidence := make(map[string]int)
	for _, r := range s.Results {
		s.TotalQueries++
		reg, ok := s.ByRegulation[r.Regulation]
		if !ok {
			reg = &RegulationSummary{Regulation: r.Regulation}
			s.ByRegulation[r.Regulation] = reg
		}
		reg.Total++
		confidence[r.Regulation] += r.Confidence
		switch r.Result {
		case VerdictProven:
			s.Proven++
			reg.Proven++
		case VerdictPartial:
			s.Partial++
			reg.Partial++
		default:
			s.NotProven++
			reg.NotProven++
		}
		if r.Severity == catalog.SeverityCritical && r.Result != VerdictProven {
			gaps := r.Gaps
			if gaps == nil {
				gaps = []Gap{}
			}
			s.CriticalGaps = append(s.CriticalGaps, CriticalGap{
				QueryID:    r.QueryID,
				QueryName:  r.QueryName,
				Regulation: r.Regulation,
				Articles:   r.Articles,
				Result:     r.Result,
				Confidence: r.Confidence,
				Gaps:       gaps,
			})
		}
	}
	for name, reg := range s.ByRegulation {
		reg.AverageConfidence = float64(confidence[name]) / float64(reg.Total)
	}
}

func (e *Engine) skip(def *catalog.QueryDefinition, err error) {
	metrics.QueryFailures.WithLabelValues(def.Regulation).Inc()
	e.logger.Error("query execution failed; skipping",
		"query_id", def.ID,
		"regulation", def.Regulation,
		"err", err,
	)
}

// execute runs Fetching → Evaluating → Scoring → GapAnalysis → Assembled.
// A panic in any step becomes the query's error.
func (e *Engine) execute(ctx context.Context, def *catalog.QueryDefinition, tr evidence.TimeRange, now time.Time) (res *ComplianceQueryResult, err error) {
	start := time.Now()
	stage := StageFetching
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("query %s: %s: panic: %v", def.ID, stage, r)
		}
	}()
	ctx, span := tracer.Start(ctx, "proof.ExecuteQuery",
		trace.WithAttributes(
			attribute.String("proof.query_id", def.ID),
			attribute.String("proof.regulation", def.Regulation),
		),
	)
	defer span.End()

	nodes, err := e.fetcher.fetch(ctx, def, tr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fmt.Errorf("query %s: %s: %w", def.ID, StageFetching, err)
	}

	stage = StageEvaluating
	env := criterion.Env{Now: now}
	outcomes := make([]criterion.Outcome, len(def.Criteria))
	details := make([]ProofDetail, len(def.Criteria))
	for i, c := range def.Criteria {
		outcomes[i] = e.registry.Evaluate(c, nodes, env)
		details[i] = ProofDetail{
			Criterion: c.Description,
			Type:      c.Type,
			Weight:    c.Weight,
			Met:       outcomes[i].Met,
			Details:   outcomes[i].Details,
		}
		metrics.CriteriaEvaluated.WithLabelValues(string(c.Type), strconv.FormatBool(outcomes[i].Met)).Inc()
	}

	stage = StageScoring
	score := ScoreOutcomes(def.Criteria, outcomes, e.thresholds)

	stage = StageGapAnalysis
	gaps := IdentifyGaps(def.Criteria, outcomes, e.registry)
	counts, total := CountEvidence(def.Nodes, nodes)

	stage = StageAssembled
	res = &ComplianceQueryResult{
		ExecutionID:   uuid.NewString(),
		QueryID:       def.ID,
		QueryName:     def.Name,
		Regulation:    def.Regulation,
		Articles:      def.Articles,
		Severity:      def.Severity,
		Result:        score.Verdict,
		Confidence:    score.Confidence,
		TotalScore:    score.Total,
		MaxScore:      score.Max,
		EvidenceCount: counts,
		TotalEvidence: total,
		Evidence:      CollectEvidence(def.Nodes, nodes),
		ProofDetails:  details,
		Gaps:          gaps,
		Stage:         stage,
		ExecutedAt:    now,
		TimeRange:     tr,
	}
	res.DurationMs = time.Since(start).Milliseconds()

	metrics.QueriesExecuted.WithLabelValues(def.Regulation, string(res.Result)).Inc()
	metrics.QueryDuration.Observe(float64(res.DurationMs))
	span.SetAttributes(
		attribute.String("proof.verdict", string(res.Result)),
		attribute.Int("proof.confidence", res.Confidence),
	)
	return res, nil
}

// resolveRange fills missing bounds: To defaults to now and From to
// DefaultRangeMonths before To.
func (e *Engine) resolveRange(tr *evidence.TimeRange, now time.Time) evidence.TimeRange {
	var out evidence.TimeRange
	if tr != nil {
		out = *tr
	}
	if out.To.IsZero() {
		out.To = now
	}
	if out.From.IsZero() {
		out.From = out.To.AddDate(0, -e.conf.DefaultRangeMonths, 0)
	}
	return out
}
