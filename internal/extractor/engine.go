package extractor

import (
	"context"
	"sort"
	"time"

	"github.com/vidscribe/transcript/internal/logging"
	"github.com/vidscribe/transcript/internal/metrics"
	"github.com/vidscribe/transcript/internal/tracing"
)

// Engine drives the ordered fallback across the registered strategies:
// try strategy N, on failure move to N+1, stop at the first success or
// on exhaustion. Strategies run strictly sequentially; parallel
// speculative extraction would defeat the cost/reliability ordering and
// multiply rate-limit pressure on the backends.
type Engine struct {
	strategies []Strategy
	log        *logging.Logger
}

// NewEngine creates an engine over the given strategies, stable-sorted
// ascending by priority. Registration order breaks ties.
func NewEngine(log *logging.Logger, strategies ...Strategy) *Engine {
	sorted := make([]Strategy, len(strategies))
	copy(sorted, strategies)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})

	return &Engine{
		strategies: sorted,
		log:        log,
	}
}

// Strategies returns the registered strategies in execution order
func (e *Engine) Strategies() []Strategy {
	out := make([]Strategy, len(e.strategies))
	copy(out, e.strategies)
	return out
}

// Extract runs the fallback loop for a single video. It never returns
// an error; every failure is reported through the Outcome shape. The
// engine imposes no timeout of its own beyond the sum of per-strategy
// timeouts; callers wanting a global deadline bound ctx themselves.
func (e *Engine) Extract(ctx context.Context, req Request) Outcome {
	req = req.withDefaults()

	span, ctx := tracing.StartSpan(ctx, "engine.extract")
	tracing.SetTag(span, "video_id", req.VideoID)
	defer tracing.FinishSpan(span)

	log := e.log.WithVideoID(req.VideoID)

	var failures []Outcome
	for _, strategy := range e.strategies {
		if !strategy.Enabled() {
			log.WithStrategy(strategy.Name()).Debug("Strategy disabled, skipping")
			continue
		}

		metrics.ExtractionAttemptsTotal.WithLabelValues(strategy.Name()).Inc()

		attemptSpan, attemptCtx := tracing.StartSpan(ctx, "strategy.extract")
		tracing.SetTag(attemptSpan, "strategy", strategy.Name())

		start := time.Now()
		outcome := strategy.Extract(attemptCtx, req)
		elapsed := time.Since(start)

		if !outcome.Success {
			tracing.SetTag(attemptSpan, "error", true)
			tracing.SetTag(attemptSpan, "error_kind", string(outcome.Kind))
		}
		tracing.FinishSpan(attemptSpan)

		metrics.ExtractionDuration.WithLabelValues(strategy.Name()).Observe(elapsed.Seconds())
		log.LogExtractionAttempt(req.VideoID, strategy.Name(), outcome.Success, string(outcome.Kind), elapsed)

		if outcome.Success {
			metrics.ExtractionSuccessesTotal.WithLabelValues(strategy.Name()).Inc()
			return outcome
		}

		metrics.ExtractionFailuresTotal.WithLabelValues(strategy.Name(), string(outcome.Kind)).Inc()
		failures = append(failures, outcome)
	}

	if len(failures) == 0 {
		tracing.SetTag(span, "error", true)
		return failed("engine", KindUnknown, "no extraction strategies are enabled")
	}

	aggregate := mostSpecific(failures)
	tracing.SetTag(span, "error", true)
	tracing.SetTag(span, "error_kind", string(aggregate.Kind))
	log.WithStrategy(aggregate.Source).Warnf("All strategies exhausted: %s", aggregate.Error)

	return aggregate
}

// mostSpecific picks the failure whose kind says the most about the
// video itself. Terminal kinds (private, unavailable, live, age
// restricted) outrank captions availability, which outranks transient
// faults; UNKNOWN ranks last. Among equally specific failures the most
// recent one wins.
func mostSpecific(failures []Outcome) Outcome {
	best := failures[0]
	for _, f := range failures[1:] {
		if specificity(f.Kind) <= specificity(best.Kind) {
			best = f
		}
	}
	return best
}
