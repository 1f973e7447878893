package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tradeforge-dev/backtest-engine/internal/logger"
	"github.com/tradeforge-dev/backtest-engine/internal/types"
	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

type SimulationTestSuite struct {
	suite.Suite
	log *logger.Logger
}

func TestSimulationSuite(t *testing.T) {
	suite.Run(t, new(SimulationTestSuite))
}

func (suite *SimulationTestSuite) SetupTest() {
	suite.log = logger.NewNopLogger()
}

func (suite *SimulationTestSuite) TestFlatSeriesNoSignals() {
	// Scenario: 100 flat bars, strategy emits nothing.
	bars := flatBars(100, 50)
	cfg := testConfig("silent")

	state, err := runSimulation(context.Background(), bars, silentStrategy, cfg, suite.log)

	suite.Require().NoError(err)
	suite.Empty(state.trades)
	suite.Empty(state.signals)
	suite.Len(state.equity, 100)
	suite.Len(state.drawdown, 100)
	suite.Equal(cfg.InitialCapital, state.finalBalance)

	for _, point := range state.equity {
		suite.Equal(cfg.InitialCapital, point.Value)
	}

	for _, point := range state.drawdown {
		suite.Zero(point.Pct)
	}
}

func (suite *SimulationTestSuite) TestBuyAndHoldKeepsPositionOpen() {
	// Scenario: price rises 100 -> 199, buy at bar 0, never sell.
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	bars := makeBars(closes)
	strat := &scriptedStrategy{script: map[int]types.SignalType{0: types.SignalTypeBuy}}
	cfg := testConfig("scripted")

	state, err := runSimulation(context.Background(), bars, strat, cfg, suite.log)

	suite.Require().NoError(err)
	suite.Empty(state.trades, "no trade is recorded until a position closes")
	suite.Len(state.signals, 1)
	suite.Equal(types.SignalTypeBuy, state.signals[0].Type)
	suite.Len(state.equity, 100)

	// qty = floor(10000*0.95/100) = 95
	for i := 1; i < len(state.equity); i++ {
		suite.Greater(state.equity[i].Value, state.equity[i-1].Value)
	}

	finalEquity := state.equity[len(state.equity)-1].Value
	suite.InDelta(10000+(199-100)*95, finalEquity, 1e-9)
}

func (suite *SimulationTestSuite) TestRoundTripEconomics() {
	// Entry at 100, exit at 110, fee 0.1% per side on notional.
	bars := makeBars([]float64{100, 105, 110, 110})
	strat := &scriptedStrategy{script: map[int]types.SignalType{
		0: types.SignalTypeBuy,
		2: types.SignalTypeSell,
	}}
	cfg := testConfig("scripted")

	state, err := runSimulation(context.Background(), bars, strat, cfg, suite.log)

	suite.Require().NoError(err)
	suite.Require().Len(state.trades, 1)

	trade := state.trades[0]
	suite.Equal(types.TradeSideLong, trade.Side)
	suite.Equal(95.0, trade.Quantity)
	suite.Equal(100.0, trade.EntryPrice)
	suite.Equal(110.0, trade.ExitPrice)
	suite.InDelta((110.0-100.0)*95, trade.Profit+trade.Fees, 1e-9)
	suite.InDelta((100.0*95+110.0*95)*0.001, trade.Fees, 1e-9)
	suite.InDelta(930.05, trade.Profit, 1e-9)
	suite.True(trade.ExitTime.After(trade.EntryTime))
	suite.InDelta(2.0, trade.DurationMinutes, 1e-9)
	suite.InDelta(10930.05, state.finalBalance, 1e-9)
}

func (suite *SimulationTestSuite) TestWrongStateSignalsAreNoOps() {
	bars := makeBars([]float64{100, 100, 100, 100, 100})
	strat := &scriptedStrategy{script: map[int]types.SignalType{
		0: types.SignalTypeSell, // sell while flat
		1: types.SignalTypeBuy,
		2: types.SignalTypeBuy, // buy while in position
		3: types.SignalTypeSell,
		4: types.SignalTypeSell, // sell while flat again
	}}

	state, err := runSimulation(context.Background(), bars, strat, testConfig("scripted"), suite.log)

	suite.Require().NoError(err)
	suite.Len(state.trades, 1)
	suite.Len(state.signals, 2)
}

func (suite *SimulationTestSuite) TestSlippageWorsensFills() {
	bars := makeBars([]float64{100, 110, 110})
	strat := &scriptedStrategy{script: map[int]types.SignalType{
		0: types.SignalTypeBuy,
		1: types.SignalTypeSell,
	}}
	cfg := testConfig("scripted")
	cfg.FeePercentage = 0
	cfg.Slippage = 1 // 1% worse on both sides

	state, err := runSimulation(context.Background(), bars, strat, cfg, suite.log)

	suite.Require().NoError(err)
	suite.Require().Len(state.trades, 1)

	trade := state.trades[0]
	suite.InDelta(101.0, trade.EntryPrice, 1e-9)
	suite.InDelta(108.9, trade.ExitPrice, 1e-9)
	// qty = floor(10000*0.95/101) = 94
	suite.Equal(94.0, trade.Quantity)
	suite.InDelta((108.9-101.0)*94, trade.Profit, 1e-9)
}

func (suite *SimulationTestSuite) TestMaxTradesStopsNewEntries() {
	bars := makeBars([]float64{100, 100, 100, 100, 100, 100})
	strat := &scriptedStrategy{script: map[int]types.SignalType{
		0: types.SignalTypeBuy,
		1: types.SignalTypeSell,
		2: types.SignalTypeBuy,
		3: types.SignalTypeSell,
		4: types.SignalTypeBuy,
		5: types.SignalTypeSell,
	}}
	cfg := testConfig("scripted")
	cfg.MaxTrades = optionalInt(2)

	state, err := runSimulation(context.Background(), bars, strat, cfg, suite.log)

	suite.Require().NoError(err)
	suite.Len(state.trades, 2)
}

func (suite *SimulationTestSuite) TestStrategyErrorAborts() {
	bars := flatBars(10, 100)
	strat := &failingStrategy{failAt: 4}

	state, err := runSimulation(context.Background(), bars, strat, testConfig("failing"), suite.log)

	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeStrategyEvaluation, errors.GetCode(err))
	suite.Len(state.equity, 4, "bars before the failing one keep their equity points")
}

func (suite *SimulationTestSuite) TestCancellationKeepsPartialBuffers() {
	bars := flatBars(10, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, err := runSimulation(ctx, bars, silentStrategy, testConfig("silent"), suite.log)

	suite.Require().NoError(err)
	suite.True(state.cancelled)
	suite.Empty(state.equity, "cancellation before the first bar keeps nothing")
}

func (suite *SimulationTestSuite) TestTradesAreChronological() {
	bars := makeBars([]float64{100, 120, 90, 130, 80, 140})
	strat := &scriptedStrategy{script: map[int]types.SignalType{
		0: types.SignalTypeBuy,
		1: types.SignalTypeSell,
		2: types.SignalTypeBuy,
		3: types.SignalTypeSell,
		4: types.SignalTypeBuy,
		5: types.SignalTypeSell,
	}}

	state, err := runSimulation(context.Background(), bars, strat, testConfig("scripted"), suite.log)

	suite.Require().NoError(err)
	suite.Require().Len(state.trades, 3)

	for i := 1; i < len(state.trades); i++ {
		suite.True(state.trades[i].EntryTime.After(state.trades[i-1].ExitTime) ||
			state.trades[i].EntryTime.Equal(state.trades[i-1].ExitTime))
	}
}
