// Package search finds the best families around a focal character.
//
// The search runs in two stages. Every parent pair is scored on its own and
// only the best few are kept. Each kept pair then becomes an independent unit
// scoring all of its grandparent combinations; units run on a bounded pool and
// their results are merged into the global top K.
package search

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/umafamily/affinity/internal/concurrency"
	affinityerrors "github.com/umafamily/affinity/pkg/errors"
	"github.com/umafamily/affinity/pkg/logger"
	"github.com/umafamily/affinity/pkg/relation"
	"github.com/umafamily/affinity/pkg/scoring"
	"github.com/umafamily/affinity/pkg/telemetry"
	"github.com/umafamily/affinity/pkg/types"
)

var tracer = otel.Tracer("affinity/pkg/search")

const (
	DefaultTopK          = 16
	DefaultRetainedPairs = 3
)

// DefaultWorkers is half the available CPUs, at least one.
func DefaultWorkers() int {
	return max(1, runtime.NumCPU()/2)
}

// Input is everything a search reads. None of it is modified.
type Input struct {
	Entities []types.Entity
	Rules    []types.RelationRule
	Index    *relation.Index
	Focal    types.EntityID
}

type processFunc func(ctx context.Context, s *scoring.Scorer, u Unit, k int) ([]types.Assignment, error)

// Searcher holds the search settings. It is safe for concurrent use.
type Searcher struct {
	workers       int
	topK          int
	retainedPairs int
	logger        logger.Logger

	process processFunc
}

type Option func(*Searcher)

// WithWorkers bounds how many units run at once. Values <= 1 run every unit
// sequentially in the calling goroutine.
func WithWorkers(n int) Option {
	return func(s *Searcher) {
		s.workers = n
	}
}

// WithTopK sets how many families Search returns. k <= 0 returns none.
func WithTopK(k int) Option {
	return func(s *Searcher) {
		s.topK = k
	}
}

// WithRetainedPairs sets how many parent pairs survive the pruning stage.
func WithRetainedPairs(n int) Option {
	return func(s *Searcher) {
		s.retainedPairs = n
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *Searcher) {
		s.logger = l
	}
}

func New(opts ...Option) *Searcher {
	s := &Searcher{
		workers:       DefaultWorkers(),
		topK:          DefaultTopK,
		retainedPairs: DefaultRetainedPairs,
		logger:        logger.NewNoopLogger(),
		process:       ProcessTop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan is the work derived from an Input before any family is scored.
type Plan struct {
	Candidates []types.EntityID
	Retained   []RankedPair
	Units      []Unit
}

// Combinations is the number of families the plan scores.
func (p *Plan) Combinations() int {
	total := 0
	for _, u := range p.Units {
		total += u.Combinations()
	}
	return total
}

// Plan validates in, ranks every parent pair and expands the retained ones
// into units. An unknown focal character is a configuration error.
func (s *Searcher) Plan(in Input, scorer *scoring.Scorer) (*Plan, error) {
	ids := types.EntityIDs(in.Entities)
	found := false
	for _, id := range ids {
		if id == in.Focal {
			found = true
			break
		}
	}
	if !found {
		return nil, affinityerrors.Configurationf("focal character %d is not among the %d loaded characters", in.Focal, len(ids))
	}

	candidates := Without(ids, in.Focal)
	retained := RankPairs(scorer, in.Focal, Combinations(candidates), s.retainedPairs)

	units := make([]Unit, 0, len(retained))
	for rank, rp := range retained {
		units = append(units, Unit{
			Rank:    rank,
			Focal:   in.Focal,
			Parents: rp.Pair,
			SideO:   Combinations(Without(candidates, rp.Pair.A)),
			SideK:   Combinations(Without(candidates, rp.Pair.B)),
		})
	}

	return &Plan{Candidates: candidates, Retained: retained, Units: units}, nil
}

// Search returns at most topK families ordered by score descending. The result
// is the same for any worker count. A failing unit aborts the whole search.
func (s *Searcher) Search(ctx context.Context, in Input) ([]types.Assignment, error) {
	searchID := ulid.Make().String()
	ctx = logger.ContextWithFields(ctx, zap.String("search_id", searchID), zap.Int64("focal", int64(in.Focal)))
	ctx, span := tracer.Start(ctx, "search.Search", trace.WithAttributes(
		attribute.String("search_id", searchID),
		attribute.Int64("focal", int64(in.Focal)),
		attribute.Int("workers", s.workers),
	))
	defer span.End()

	results, err := s.search(ctx, in)
	if err != nil {
		telemetry.TraceError(span, err)
		searchesCounter.WithLabelValues("error").Inc()
		s.logger.ErrorWithContext(ctx, "search failed", zap.Error(err))
		return nil, err
	}

	searchesCounter.WithLabelValues("ok").Inc()
	return results, nil
}

func (s *Searcher) search(ctx context.Context, in Input) ([]types.Assignment, error) {
	start := time.Now()
	scorer := scoring.New(in.Rules, in.Index)

	_, planSpan := tracer.Start(ctx, "search.Plan")
	plan, err := s.Plan(in, scorer)
	planSpan.End()
	if err != nil {
		return nil, err
	}

	for _, rp := range plan.Retained {
		s.logger.InfoWithContext(ctx, "retained parent pair",
			zap.Int64("o", int64(rp.Pair.A)),
			zap.Int64("k", int64(rp.Pair.B)),
			zap.Int("score", rp.Score),
		)
	}
	s.logger.InfoWithContext(ctx, "dispatching search units",
		zap.Int("candidates", len(plan.Candidates)),
		zap.Int("units", len(plan.Units)),
		zap.Int("combinations", plan.Combinations()),
		zap.Int("workers", s.workers),
	)

	parts, err := concurrency.Map(ctx, s.workers, plan.Units, func(ctx context.Context, _ int, u Unit) ([]types.Assignment, error) {
		return s.runUnit(ctx, scorer, u)
	})
	if err != nil {
		return nil, err
	}

	results := Reduce(parts, s.topK)
	s.logger.InfoWithContext(ctx, "search finished",
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}

// runUnit converts both returned errors and panics into a WorkerError.
func (s *Searcher) runUnit(ctx context.Context, scorer *scoring.Scorer, u Unit) (out []types.Assignment, err error) {
	ctx, span := tracer.Start(ctx, "search.Unit", trace.WithAttributes(
		attribute.Int("rank", u.Rank),
		attribute.Int64("o", int64(u.Parents.A)),
		attribute.Int64("k", int64(u.Parents.B)),
		attribute.Int("combinations", u.Combinations()),
	))
	defer span.End()

	unitsInFlightGauge.Inc()
	start := time.Now()
	defer func() {
		unitsInFlightGauge.Dec()
		if r := recover(); r != nil {
			out, err = nil, &affinityerrors.WorkerError{Pair: u.Parents, Cause: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			telemetry.TraceError(span, err)
		}
	}()

	out, err = s.process(ctx, scorer, u, s.topK)
	if err != nil {
		return nil, &affinityerrors.WorkerError{Pair: u.Parents, Cause: err}
	}

	elapsed := time.Since(start)
	combinationsScoredCounter.Add(float64(u.Combinations()))
	unitDurationHistogram.Observe(float64(elapsed.Milliseconds()))
	s.logger.DebugWithContext(ctx, "search unit done",
		zap.Int("rank", u.Rank),
		zap.Int("combinations", u.Combinations()),
		zap.Duration("elapsed", elapsed),
	)
	return out, nil
}
