package backtest

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeforge-dev/backtest-engine/internal/logger"
	"github.com/tradeforge-dev/backtest-engine/internal/strategy"
	"github.com/tradeforge-dev/backtest-engine/internal/types"
	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

// positionSizeRatio is the share of the running balance committed to a new
// position; the remaining 5% stays as a cash buffer.
const positionSizeRatio = 0.95

// openPosition is the single position the simulation may hold.
// Only long entries are opened; types.TradeSideShort is reserved.
type openPosition struct {
	entryTime  time.Time
	entryPrice float64
	quantity   float64
}

// simulationState accumulates everything the loop produces. The buffers are
// owned exclusively by the run that created them.
type simulationState struct {
	trades       []types.BacktestTrade
	signals      []types.Signal
	equity       []types.EquityPoint
	drawdown     []types.DrawdownPoint
	finalBalance float64
	cancelled    bool
}

// runSimulation walks the filtered bars once, consulting the strategy per
// bar and maintaining the Flat/InPosition state machine. Cancellation is
// observed at the top of each bar; the partial buffers accumulated so far
// are retained, never rolled back. A strategy evaluation error aborts the
// loop and is reported as an execution error.
func runSimulation(ctx context.Context, bars []types.Bar, strat strategy.Strategy, cfg types.BacktestConfiguration, log *logger.Logger) (simulationState, error) {
	state := simulationState{
		trades:       make([]types.BacktestTrade, 0),
		signals:      make([]types.Signal, 0),
		equity:       make([]types.EquityPoint, 0, len(bars)),
		drawdown:     make([]types.DrawdownPoint, 0, len(bars)),
		finalBalance: cfg.InitialCapital,
	}

	balance := cfg.InitialCapital
	peakEquity := 0.0

	var position *openPosition

	for i, bar := range bars {
		select {
		case <-ctx.Done():
			state.cancelled = true
			state.finalBalance = balance

			return state, nil
		default:
		}

		signal, err := strat.Evaluate(bars[:i+1], cfg.Params)
		if err != nil {
			state.finalBalance = balance

			return state, errors.Wrapf(errors.ErrCodeStrategyEvaluation, err,
				"strategy %q failed at bar %d (%s)", strat.Name(), i, bar.Time)
		}

		switch signal {
		case types.SignalTypeBuy:
			// Buy while already in a position is a no-op, as is entering
			// once the trade cap is reached.
			if position != nil || tradeCapReached(cfg, len(state.trades)) {
				break
			}

			entryPrice := bar.Close * (1 + cfg.Slippage/100)
			quantity := math.Floor(balance * positionSizeRatio / entryPrice)

			if quantity <= 0 {
				log.Debug("Skipping entry, balance too small for one unit",
					zap.Float64("balance", balance),
					zap.Float64("price", entryPrice),
				)

				break
			}

			position = &openPosition{entryTime: bar.Time, entryPrice: entryPrice, quantity: quantity}

			state.signals = append(state.signals, types.Signal{
				Time:   bar.Time,
				Type:   types.SignalTypeBuy,
				Price:  bar.Close,
				Reason: "entry",
			})

		case types.SignalTypeSell:
			// Sell while flat is a no-op.
			if position == nil {
				break
			}

			exitPrice := bar.Close * (1 - cfg.Slippage/100)
			trade := closeTrade(position.entryTime, bar.Time, position.entryPrice, exitPrice, position.quantity, cfg.FeePercentage)
			balance += trade.Profit
			position = nil

			state.trades = append(state.trades, trade)
			state.signals = append(state.signals, types.Signal{
				Time:   bar.Time,
				Type:   types.SignalTypeSell,
				Price:  bar.Close,
				Reason: "exit",
			})

		case types.SignalTypeNone:
		}

		equityValue := balance
		if position != nil {
			equityValue += (bar.Close - position.entryPrice) * position.quantity
		}

		if equityValue > peakEquity {
			peakEquity = equityValue
		}

		drawdownPct := 0.0
		if peakEquity > 0 {
			drawdownPct = (peakEquity - equityValue) / peakEquity * 100
		}

		state.equity = append(state.equity, types.EquityPoint{Time: bar.Time, Value: equityValue})
		state.drawdown = append(state.drawdown, types.DrawdownPoint{Time: bar.Time, Pct: drawdownPct})
	}

	state.finalBalance = balance

	return state, nil
}

// closeTrade computes the round-trip economics of a position close.
// Gross profit, fees and net profit are computed with decimal arithmetic to
// avoid accumulating float error across fee terms.
func closeTrade(entryTime, exitTime time.Time, entryPrice, exitPrice, quantity, feePercentage float64) types.BacktestTrade {
	qty := decimal.NewFromFloat(quantity)
	entry := decimal.NewFromFloat(entryPrice)
	exit := decimal.NewFromFloat(exitPrice)

	entryNotional := entry.Mul(qty)
	exitNotional := exit.Mul(qty)

	gross := exit.Sub(entry).Mul(qty)
	fees := entryNotional.Add(exitNotional).Mul(decimal.NewFromFloat(feePercentage)).Div(decimal.NewFromInt(100))
	net := gross.Sub(fees)

	netF, _ := net.Float64()
	feesF, _ := fees.Float64()

	profitPct := 0.0
	if notional, _ := entryNotional.Float64(); notional != 0 {
		profitPct = netF / notional * 100
	}

	return types.BacktestTrade{
		EntryTime:        entryTime,
		ExitTime:         exitTime,
		Side:             types.TradeSideLong,
		EntryPrice:       entryPrice,
		ExitPrice:        exitPrice,
		Quantity:         quantity,
		Profit:           netF,
		ProfitPercentage: profitPct,
		Fees:             feesF,
		DurationMinutes:  exitTime.Sub(entryTime).Minutes(),
	}
}

func tradeCapReached(cfg types.BacktestConfiguration, closedTrades int) bool {
	return cfg.MaxTrades.IsSome() && closedTrades >= cfg.MaxTrades.Unwrap()
}
