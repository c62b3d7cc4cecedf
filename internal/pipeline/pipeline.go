// Package pipeline orchestrates the fetch, normalize, score, and select
// stages for a single pair analysis.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Clish254/sol-dex-pools/internal/breaker"
	"github.com/Clish254/sol-dex-pools/internal/config"
	"github.com/Clish254/sol-dex-pools/internal/fetch"
	"github.com/Clish254/sol-dex-pools/internal/model"
	"github.com/Clish254/sol-dex-pools/internal/otel"
	"github.com/Clish254/sol-dex-pools/internal/rank"
	"github.com/Clish254/sol-dex-pools/internal/score"
	"github.com/Clish254/sol-dex-pools/internal/types"
)

// ErrNoPools is returned when no source produced a single usable pool.
var ErrNoPools = rank.ErrNoPools

// Warning describes a source that contributed nothing to an analysis.
// Source failures never fail the run as long as someone else answers.
type Warning struct {
	Source types.Source `json:"source"`
	Reason string       `json:"reason"`
}

// Result is the outcome of one pair analysis.
type Result struct {
	// Best is the highest-scoring pool across all sources
	Best model.ScoredRecord `json:"best"`

	// Considered holds every scored pool that survived normalization
	Considered []model.ScoredRecord `json:"considered"`

	// Warnings lists sources that failed or were skipped
	Warnings []Warning `json:"warnings,omitempty"`

	// Duration is the wall time of the whole fan-out
	Duration time.Duration `json:"duration_ns"`
}

// Analyzer runs the concurrent pipeline over a fixed provider set.
type Analyzer struct {
	providers     []Provider
	timeout       time.Duration
	hints         fetch.Hints
	scoring       score.Config
	breaker       *breaker.Breaker
	deterministic bool
}

// NewAnalyzer builds an Analyzer from the configuration. The breaker is
// optional; pass nil to query every source unconditionally.
func NewAnalyzer(cfg config.Config, providers []Provider, b *breaker.Breaker) *Analyzer {
	return &Analyzer{
		providers: providers,
		timeout:   cfg.RequestTimeout,
		hints:     fetch.Hints{Page: cfg.Page, PageSize: cfg.PageSize},
		scoring: score.Config{
			Weights: score.Weights{
				Liquidity: cfg.LiquidityWeight,
				Volume:    cfg.VolumeWeight,
				Fee:       cfg.FeeWeight,
			},
			LiquidityCeiling: cfg.LiquidityCeiling,
			FeeCeiling:       cfg.FeeCeiling,
		},
		breaker:       b,
		deterministic: cfg.DeterministicSelection,
	}
}

// sourceResult carries one provider's contribution off its goroutine.
type sourceResult struct {
	source  types.Source
	records []model.ScoredRecord
	err     error
}

// Analyze fans out to every provider concurrently, each under its own
// timeout, scores whatever comes back and selects the healthiest pool.
// It fails only when every source comes back empty. Zero hints fall back
// to the configured pagination defaults.
func (a *Analyzer) Analyze(ctx context.Context, tokenA, tokenB string, hints fetch.Hints) (Result, error) {
	start := time.Now()

	if hints.Page <= 0 {
		hints.Page = a.hints.Page
	}
	if hints.PageSize <= 0 {
		hints.PageSize = a.hints.PageSize
	}

	ctx, span := otel.Tracer().Start(ctx, "pipeline.Analyze",
		trace.WithAttributes(
			attribute.String("pair.token_a", tokenA),
			attribute.String("pair.token_b", tokenB),
		))
	defer span.End()

	var wg sync.WaitGroup
	resultCh := make(chan sourceResult, len(a.providers))

	for _, p := range a.providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			resultCh <- a.fetchSource(ctx, p, tokenA, tokenB, hints)
		}(p)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var scored []model.ScoredRecord
	var warnings []Warning
	for res := range resultCh {
		if res.err != nil {
			warnings = append(warnings, Warning{Source: res.source, Reason: res.err.Error()})
			logrus.Warnf("Source %s contributed nothing: %v", res.source, res.err)
			continue
		}
		scored = append(scored, res.records...)
	}

	if a.deterministic {
		rank.SortStable(scored)
	}

	best, err := rank.Best(scored)
	if err != nil {
		otel.RecordError(ctx, err)
		return Result{Warnings: warnings, Duration: time.Since(start)}, err
	}

	span.SetAttributes(
		attribute.Int("pools.considered", len(scored)),
		attribute.String("pools.best", best.Record.PoolID),
	)
	logrus.Infof("Selected pool %s (%s) from %d candidates with score %.4f",
		best.Record.PoolID, best.Record.Source, len(scored), best.Score)

	return Result{
		Best:       best,
		Considered: scored,
		Warnings:   warnings,
		Duration:   time.Since(start),
	}, nil
}

// fetchSource queries one provider under its own deadline and scores its
// records. All failure modes are folded into the result error.
func (a *Analyzer) fetchSource(ctx context.Context, p Provider, tokenA, tokenB string, hints fetch.Hints) sourceResult {
	src := p.Source()

	if a.breaker != nil {
		if err := a.breaker.Allow(src); err != nil {
			return sourceResult{source: src, err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	ctx, span := otel.Tracer().Start(ctx, "pipeline.fetchSource",
		trace.WithAttributes(attribute.String("source", string(src))))
	defer span.End()

	records, err := p.Fetch(ctx, tokenA, tokenB, hints)
	if err != nil {
		if a.breaker != nil {
			a.breaker.RecordFailure(src)
		}
		otel.RecordError(ctx, err)
		return sourceResult{source: src, err: err}
	}
	if a.breaker != nil {
		a.breaker.RecordSuccess(src)
	}

	if len(records) == 0 {
		return sourceResult{source: src, err: errors.New("no pools for pair")}
	}

	scored := make([]model.ScoredRecord, 0, len(records))
	for _, rec := range records {
		scored = append(scored, model.ScoredRecord{
			Record: rec,
			Score:  a.scoring.Score(rec, p.ReportsVolume()),
		})
	}

	logrus.Debugf("Source %s contributed %d pools", src, len(scored))
	return sourceResult{source: src, records: scored}
}

// Sources lists the sources this analyzer queries.
func (a *Analyzer) Sources() []types.Source {
	sources := make([]types.Source, 0, len(a.providers))
	for _, p := range a.providers {
		sources = append(sources, p.Source())
	}
	return sources
}

// String implements fmt.Stringer for debug logging.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Source, w.Reason)
}
