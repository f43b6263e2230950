package proof

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gyaneshwarpardhi/proofengine/internal/catalog"
	"github.com/gyaneshwarpardhi/proofengine/internal/criterion"
	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
	"github.com/gyaneshwarpardhi/proofengine/internal/metrics"
)

// fetcher turns a definition's node specs into evidence store calls.
type fetcher struct {
	store       evidence.Store
	limit       int
	timeout     time.Duration
	concurrency int
	limiter     *rate.Limiter // nil = unlimited
	logger      *slog.Logger
}

// BuildFilters returns the filter set for spec: an inclusive bound on the
// kind's canonical timestamp first (skipped when the kind has none), then
// the declared filters.
func BuildFilters(spec catalog.NodeSpec, tr evidence.TimeRange) evidence.FilterSet {
	set := make(evidence.FilterSet, 0, len(spec.Filters)+1)
	if field, ok := spec.Kind.TimestampField(); ok {
		set = append(set, &evidence.Between{Field: field, From: tr.From, To: tr.To})
	}
	return append(set, spec.Filters...)
}

// fetch returns alias → records for every node spec of def. Fetches run
// concurrently. A failing fetch degrades to an empty list so that the
// missing evidence surfaces as an unmet criterion. Only an unknown kind or
// a done ctx fails the whole fetch. A throttle wait that cannot finish
// before ctx's deadline counts as done.
func (f *fetcher) fetch(ctx context.Context, def *catalog.QueryDefinition, tr evidence.TimeRange) (criterion.NodeMap, error) {
	var mu sync.Mutex
	nodes := make(criterion.NodeMap, len(def.Nodes))

	g, gctx := errgroup.WithContext(ctx)
	if f.concurrency > 0 {
		g.SetLimit(f.concurrency)
	}
	for _, spec := range def.Nodes {
		g.Go(func() error {
			list, err := f.fetchOne(gctx, def.ID, spec, tr)
			if err != nil {
				return err
			}
			mu.Lock()
			nodes[spec.Alias] = list
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (f *fetcher) fetchOne(ctx context.Context, queryID string, spec catalog.NodeSpec, tr evidence.TimeRange) ([]evidence.Node, error) {
	ctx, span := tracer.Start(ctx, "proof.FetchNodes",
		trace.WithAttributes(
			attribute.String("proof.query_id", queryID),
			attribute.String("proof.alias", spec.Alias),
			attribute.String("evidence.kind", string(spec.Kind)),
		),
	)
	defer span.End()

	// The throttle waits under the caller's ctx, not the per-fetch timeout:
	// queueing for a token is not a store outage.
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "rate limit")
			return nil, fmt.Errorf("node %s: rate limit: %w", spec.Alias, err)
		}
	}

	list, err := f.call(ctx, spec, tr)
	if err == nil {
		span.SetAttributes(attribute.Int("evidence.count", len(list)))
		return list, nil
	}
	span.RecordError(err)
	if errors.Is(err, evidence.ErrUnknownKind) {
		span.SetStatus(codes.Error, "unknown kind")
		return nil, fmt.Errorf("node %s: %w", spec.Alias, err)
	}
	if ctx.Err() != nil {
		span.SetStatus(codes.Error, "cancelled")
		return nil, ctx.Err()
	}

	metrics.FetchFailures.WithLabelValues(string(spec.Kind)).Inc()
	f.logger.Warn("evidence fetch failed; continuing with no records",
		"query_id", queryID,
		"alias", spec.Alias,
		"kind", spec.Kind,
		"err", err,
	)
	return []evidence.Node{}, nil
}

func (f *fetcher) call(ctx context.Context, spec catalog.NodeSpec, tr evidence.TimeRange) (list []evidence.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			list, err = nil, fmt.Errorf("evidence store panic: %v", r)
		}
	}()
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	list, err = f.store.FetchNodes(ctx, spec.Kind, BuildFilters(spec, tr), f.limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []evidence.Node{}
	}
	return list, nil
}
