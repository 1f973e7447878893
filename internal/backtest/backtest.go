package backtest

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/tradeforge-dev/backtest-engine/internal/logger"
	"github.com/tradeforge-dev/backtest-engine/internal/strategy"
	"github.com/tradeforge-dev/backtest-engine/internal/types"
	"github.com/tradeforge-dev/backtest-engine/internal/version"
	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

// run executes one complete backtest: validation, bar filtering, the
// simulation loop and the metrics pass. It never returns an error for
// configuration, data or execution failures; those come back as a result
// with StatusFailed and a human-readable Error, so callers always receive a
// structured result.
func run(ctx context.Context, id string, cfg types.BacktestConfiguration, bars []types.Bar, strat strategy.Strategy, log *logger.Logger) *types.BacktestResult {
	startedAt := time.Now()
	result := &types.BacktestResult{
		ID:        id,
		Config:    cfg,
		Status:    types.StatusRunning,
		StartedAt: startedAt,
	}

	fail := func(err error) *types.BacktestResult {
		result.Status = types.StatusFailed
		result.Error = err.Error()
		result.Duration = time.Since(startedAt)

		log.Warn("Backtest failed",
			zap.String("id", id),
			zap.String("category", string(errors.GetCategory(err))),
			zap.Error(err),
		)

		return result
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

	filtered := FilterBars(bars, cfg.StartTime, cfg.EndTime, optional.None[int]())
	if len(filtered) == 0 {
		return fail(errors.New(errors.ErrCodeNoData, "no bars in the configured date range"))
	}

	if cfg.BarCount.IsSome() {
		barCount := cfg.BarCount.Unwrap()
		if barCount <= 0 {
			return fail(errors.Newf(errors.ErrCodeInvalidParameter, "bar count must be positive, got %d", barCount))
		}

		if len(filtered) < barCount {
			return fail(errors.Newf(errors.ErrCodeInsufficientBars,
				"configured bar count %d exceeds available bars %d", barCount, len(filtered)))
		}

		filtered = filtered[:barCount]
	}

	state, err := runSimulation(ctx, filtered, strat, cfg, log)
	if err != nil {
		return fail(err)
	}

	result.Trades = state.trades
	result.Signals = state.signals
	result.Equity = state.equity
	result.Drawdown = state.drawdown
	result.Metrics = CalculateMetrics(state.trades, state.equity, cfg.InitialCapital)
	result.Cancelled = state.cancelled
	result.Status = types.StatusCompleted
	result.Duration = time.Since(startedAt)

	log.Info("Backtest completed",
		zap.String("id", id),
		zap.String("strategy", strat.Name()),
		zap.Int("bars", len(filtered)),
		zap.Int("trades", len(state.trades)),
		zap.Bool("cancelled", state.cancelled),
		zap.Duration("duration", result.Duration),
	)

	return result
}
