package types

import (
	"sort"

	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

// BacktestMetrics is the full performance record derived from a run's trade
// list and equity curve. With zero trades every field is exactly zero.
type BacktestMetrics struct {
	TotalReturn    float64 `yaml:"total_return" json:"total_return"`
	TotalReturnPct float64 `yaml:"total_return_pct" json:"total_return_pct"`
	WinRate        float64 `yaml:"win_rate" json:"win_rate"`
	ProfitFactor   float64 `yaml:"profit_factor" json:"profit_factor"`
	SharpeRatio    float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	SortinoRatio   float64 `yaml:"sortino_ratio" json:"sortino_ratio"`
	CalmarRatio    float64 `yaml:"calmar_ratio" json:"calmar_ratio"`
	RecoveryFactor float64 `yaml:"recovery_factor" json:"recovery_factor"`
	MaxDrawdown    float64 `yaml:"max_drawdown" json:"max_drawdown"`
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	TotalTrades    int     `yaml:"total_trades" json:"total_trades"`
	WinningTrades  int     `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades   int     `yaml:"losing_trades" json:"losing_trades"`
	AverageWin     float64 `yaml:"average_win" json:"average_win"`
	// AverageLoss is the mean absolute loss of losing trades (positive).
	AverageLoss float64 `yaml:"average_loss" json:"average_loss"`
	LargestWin  float64 `yaml:"largest_win" json:"largest_win"`
	// LargestLoss is the largest absolute loss (positive).
	LargestLoss                 float64 `yaml:"largest_loss" json:"largest_loss"`
	AverageTradeDurationMinutes float64 `yaml:"average_trade_duration_minutes" json:"average_trade_duration_minutes"`
	MaxConsecutiveWins          int     `yaml:"max_consecutive_wins" json:"max_consecutive_wins"`
	MaxConsecutiveLosses        int     `yaml:"max_consecutive_losses" json:"max_consecutive_losses"`
}

// Metric resolves a metric by its snake_case key, as used for the
// optimizer's target metric. Integer counters are returned as float64.
func (m BacktestMetrics) Metric(key string) (float64, error) {
	switch key {
	case "total_return":
		return m.TotalReturn, nil
	case "total_return_pct":
		return m.TotalReturnPct, nil
	case "win_rate":
		return m.WinRate, nil
	case "profit_factor":
		return m.ProfitFactor, nil
	case "sharpe_ratio":
		return m.SharpeRatio, nil
	case "sortino_ratio":
		return m.SortinoRatio, nil
	case "calmar_ratio":
		return m.CalmarRatio, nil
	case "recovery_factor":
		return m.RecoveryFactor, nil
	case "max_drawdown":
		return m.MaxDrawdown, nil
	case "max_drawdown_pct":
		return m.MaxDrawdownPct, nil
	case "total_trades":
		return float64(m.TotalTrades), nil
	case "winning_trades":
		return float64(m.WinningTrades), nil
	case "losing_trades":
		return float64(m.LosingTrades), nil
	case "average_win":
		return m.AverageWin, nil
	case "average_loss":
		return m.AverageLoss, nil
	case "largest_win":
		return m.LargestWin, nil
	case "largest_loss":
		return m.LargestLoss, nil
	case "average_trade_duration_minutes":
		return m.AverageTradeDurationMinutes, nil
	case "max_consecutive_wins":
		return float64(m.MaxConsecutiveWins), nil
	case "max_consecutive_losses":
		return float64(m.MaxConsecutiveLosses), nil
	default:
		return 0, errors.Newf(errors.ErrCodeUnknownMetric, "unknown metric %q", key)
	}
}

// MetricKeys returns the sorted list of metric keys accepted by Metric.
func MetricKeys() []string {
	keys := []string{
		"total_return", "total_return_pct", "win_rate", "profit_factor",
		"sharpe_ratio", "sortino_ratio", "calmar_ratio", "recovery_factor",
		"max_drawdown", "max_drawdown_pct", "total_trades", "winning_trades",
		"losing_trades", "average_win", "average_loss", "largest_win",
		"largest_loss", "average_trade_duration_minutes",
		"max_consecutive_wins", "max_consecutive_losses",
	}
	sort.Strings(keys)

	return keys
}
