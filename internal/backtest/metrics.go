package backtest

import (
	"math"

	"github.com/tradeforge-dev/backtest-engine/internal/types"
)

// sortinoApproximationFactor scales the Sharpe ratio into the reported
// Sortino ratio. A proper downside-deviation Sortino needs per-trade return
// distribution assumptions the engine does not make.
const sortinoApproximationFactor = 1.2

// CalculateMetrics derives the full performance record from a run's trades
// and equity curve. It is a pure function; the drawdown statistics are
// recomputed from the equity curve rather than trusting the loop's curve.
//
// With zero trades the all-zero record is returned, with no NaN or Inf
// artifacts regardless of the equity curve.
func CalculateMetrics(trades []types.BacktestTrade, equity []types.EquityPoint, initialCapital float64) types.BacktestMetrics {
	if len(trades) == 0 {
		return types.BacktestMetrics{}
	}

	metrics := types.BacktestMetrics{
		TotalTrades: len(trades),
	}

	lastEquity := initialCapital
	if len(equity) > 0 {
		lastEquity = equity[len(equity)-1].Value
	}

	metrics.TotalReturn = lastEquity - initialCapital
	if initialCapital != 0 {
		metrics.TotalReturnPct = metrics.TotalReturn / initialCapital * 100
	}

	var (
		winSum, lossSum       float64
		durationSum           float64
		winStreak, lossStreak int
		maxWinRun, maxLossRun int
	)

	for _, trade := range trades {
		durationSum += trade.DurationMinutes

		switch {
		case trade.Profit > 0:
			metrics.WinningTrades++
			winSum += trade.Profit

			if trade.Profit > metrics.LargestWin {
				metrics.LargestWin = trade.Profit
			}

			winStreak++
			lossStreak = 0
		case trade.Profit < 0:
			metrics.LosingTrades++
			loss := -trade.Profit
			lossSum += loss

			if loss > metrics.LargestLoss {
				metrics.LargestLoss = loss
			}

			lossStreak++
			winStreak = 0
		default:
			// Break-even trades interrupt both streaks.
			winStreak = 0
			lossStreak = 0
		}

		if winStreak > maxWinRun {
			maxWinRun = winStreak
		}

		if lossStreak > maxLossRun {
			maxLossRun = lossStreak
		}
	}

	metrics.MaxConsecutiveWins = maxWinRun
	metrics.MaxConsecutiveLosses = maxLossRun
	metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades) * 100
	metrics.AverageTradeDurationMinutes = durationSum / float64(metrics.TotalTrades)

	if metrics.WinningTrades > 0 {
		metrics.AverageWin = winSum / float64(metrics.WinningTrades)
	}

	if metrics.LosingTrades > 0 {
		metrics.AverageLoss = lossSum / float64(metrics.LosingTrades)
	}

	if metrics.AverageLoss != 0 {
		metrics.ProfitFactor = metrics.AverageWin / metrics.AverageLoss
	}

	metrics.MaxDrawdown, metrics.MaxDrawdownPct = maxDrawdown(equity)
	metrics.SharpeRatio = sharpeRatio(equity)
	metrics.SortinoRatio = metrics.SharpeRatio * sortinoApproximationFactor

	if metrics.MaxDrawdownPct != 0 {
		metrics.CalmarRatio = metrics.TotalReturnPct / metrics.MaxDrawdownPct
	}

	metrics.RecoveryFactor = metrics.CalmarRatio

	return metrics
}

// maxDrawdown returns the largest absolute and percentage decline from the
// running equity peak.
func maxDrawdown(equity []types.EquityPoint) (absolute, pct float64) {
	peak := 0.0

	for _, point := range equity {
		if point.Value > peak {
			peak = point.Value
		}

		if peak <= 0 {
			continue
		}

		decline := peak - point.Value
		if decline > absolute {
			absolute = decline
		}

		if declinePct := decline / peak * 100; declinePct > pct {
			pct = declinePct
		}
	}

	return absolute, pct
}

// sharpeRatio is mean over population standard deviation of per-bar
// percentage returns. No annualization factor is applied.
func sharpeRatio(equity []types.EquityPoint) float64 {
	if len(equity) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(equity)-1)

	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			continue
		}

		returns = append(returns, (equity[i].Value-prev)/prev*100)
	}

	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}

	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}

	variance /= float64(len(returns))

	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}

	return mean / stddev
}
