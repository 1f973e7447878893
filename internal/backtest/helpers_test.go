package backtest

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/tradeforge-dev/backtest-engine/internal/strategy"
	"github.com/tradeforge-dev/backtest-engine/internal/types"
	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// makeBars builds a minute-spaced series where every OHLC field equals the
// given close value.
func makeBars(closes []float64) []types.Bar {
	bars := make([]types.Bar, len(closes))

	for i, v := range closes {
		bars[i] = types.Bar{
			Time:   testStart.Add(time.Duration(i) * time.Minute),
			Open:   v,
			High:   v,
			Low:    v,
			Close:  v,
			Volume: 1,
		}
	}

	return bars
}

// flatBars builds count bars all at the given price.
func flatBars(count int, price float64) []types.Bar {
	closes := make([]float64, count)
	for i := range closes {
		closes[i] = price
	}

	return makeBars(closes)
}

// scriptedStrategy emits a fixed signal at scripted bar indexes and none
// elsewhere. It is pure and deterministic.
type scriptedStrategy struct {
	script map[int]types.SignalType
}

func (s *scriptedStrategy) Name() string {
	return "scripted"
}

func (s *scriptedStrategy) Evaluate(bars []types.Bar, params types.Params) (types.SignalType, error) {
	if signal, ok := s.script[len(bars)-1]; ok {
		return signal, nil
	}

	return types.SignalTypeNone, nil
}

// silentStrategy never signals.
var silentStrategy = strategy.Func{
	StrategyName: "silent",
	EvaluateFunc: func(bars []types.Bar, params types.Params) (types.SignalType, error) {
		return types.SignalTypeNone, nil
	},
}

// failingStrategy returns an evaluation error at the given bar index.
type failingStrategy struct {
	failAt int
}

func (s *failingStrategy) Name() string {
	return "failing"
}

func (s *failingStrategy) Evaluate(bars []types.Bar, params types.Params) (types.SignalType, error) {
	if len(bars)-1 == s.failAt {
		return types.SignalTypeNone, errors.New(errors.ErrCodeStrategyEvaluation, "scripted failure")
	}

	return types.SignalTypeNone, nil
}

func optionalInt(v int) optional.Option[int] {
	return optional.Some(v)
}

func testConfig(strategyName string) types.BacktestConfiguration {
	return types.BacktestConfiguration{
		Strategy:       strategyName,
		Symbol:         "TEST",
		Timeframe:      "1m",
		InitialCapital: 10000,
		FeePercentage:  0.1,
	}
}
