package backtest

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/tradeforge-dev/backtest-engine/internal/logger"
	"github.com/tradeforge-dev/backtest-engine/internal/strategy"
	"github.com/tradeforge-dev/backtest-engine/internal/types"
	"github.com/tradeforge-dev/backtest-engine/internal/version"
	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

// ProgressCallback is invoked synchronously after each combination,
// with the number of completed iterations, the capped total, and the best
// result so far (nil until a combination completes successfully).
type ProgressCallback func(completed int, total int, best *types.BacktestResult)

// runOptimization drives the grid search: one full backtest per parameter
// combination, sequentially and in deterministic order. A failing
// combination is recorded as a failed result and excluded from the best
// comparison; it never aborts the run. Cancellation stops scheduling
// further combinations and is not a failure: the result reports
// StatusCompleted with the iterations that actually ran.
func runOptimization(ctx context.Context, cfg types.OptimizationConfiguration, bars []types.Bar, strat strategy.Strategy, log *logger.Logger, onProgress optional.Option[ProgressCallback]) *types.OptimizationResult {
	startedAt := time.Now()
	result := &types.OptimizationResult{
		Config:    cfg,
		Status:    types.StatusRunning,
		StartedAt: startedAt,
	}

	finish := func() *types.OptimizationResult {
		result.FinishedAt = time.Now()
		result.Duration = result.FinishedAt.Sub(startedAt)

		return result
	}

	fail := func(err error) *types.OptimizationResult {
		result.Status = types.StatusFailed
		result.Error = err.Error()

		log.Warn("Optimization failed",
			zap.String("category", string(errors.GetCategory(err))),
			zap.Error(err),
		)

		return finish()
	}

	if strat == nil {
		return fail(errors.New(errors.ErrCodeMissingStrategy, "no strategy handle supplied"))
	}

	if err := version.CheckConstraint(version.GetVersion(), cfg.MinEngineVersion); err != nil {
		return fail(err)
	}

	if err := cfg.Validate(); err != nil {
		return fail(err)
	}

	space := GenerateParameterSpace(cfg.Parameters)

	total := len(space)
	if cfg.MaxIterations > 0 && total > cfg.MaxIterations {
		total = cfg.MaxIterations
	}

	result.TotalIterations = total

	log.Info("Optimization started",
		zap.String("strategy", cfg.Strategy),
		zap.String("target_metric", cfg.TargetMetric),
		zap.Bool("maximize", cfg.MaximizeMetric),
		zap.Int("combinations", len(space)),
		zap.Int("capped_iterations", total),
	)

	base := cfg.BacktestConfiguration()

	var (
		best       *types.BacktestResult
		bestValue  float64
		bestParams types.Params
	)

	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			result.Cancelled = true
			result.Status = types.StatusCompleted
			result.BestResult = best
			result.BestParams = bestParams
			result.CompletedIterations = i

			return finish()
		default:
		}

		combination := space[i]

		runCfg := base
		runCfg.Params = base.Params.Merge(combination)

		runResult := run(ctx, uuid.New().String(), runCfg, bars, strat, log)
		if runResult.Cancelled {
			// The simulation was interrupted mid-run; the combination did
			// not fully execute, so it is neither recorded nor counted.
			result.Cancelled = true

			break
		}

		result.AllResults = append(result.AllResults, *runResult)
		result.CompletedIterations = i + 1

		if runResult.Status == types.StatusCompleted {
			if value, err := runResult.Metrics.Metric(cfg.TargetMetric); err == nil {
				improved := best == nil ||
					(cfg.MaximizeMetric && value > bestValue) ||
					(!cfg.MaximizeMetric && value < bestValue)

				// Strict comparison keeps the first-seen result on ties.
				if improved {
					best = runResult
					bestValue = value
					bestParams = combination.Clone()
				}
			}
		}

		if onProgress.IsSome() {
			onProgress.Unwrap()(result.CompletedIterations, total, best)
		}

		// Single cooperative step between combinations so a host scheduler
		// can service cancellation or other work.
		runtime.Gosched()
	}

	result.BestResult = best
	result.BestParams = bestParams
	result.Status = types.StatusCompleted

	log.Info("Optimization finished",
		zap.Int("completed_iterations", result.CompletedIterations),
		zap.Int("total_iterations", result.TotalIterations),
		zap.Bool("cancelled", result.Cancelled),
		zap.Bool("found_best", best != nil),
	)

	return finish()
}
