package strategy

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"github.com/tradeforge-dev/backtest-engine/internal/types"
	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

const (
	defaultFastPeriod = 9
	defaultSlowPeriod = 21
)

// SMACrossover signals buy when the fast simple moving average crosses above
// the slow one and sell when it crosses below.
//
// Parameters: fast_period, slow_period.
type SMACrossover struct{}

func NewSMACrossover() *SMACrossover {
	return &SMACrossover{}
}

func (s *SMACrossover) Name() string {
	return "sma_cross"
}

func (s *SMACrossover) Evaluate(bars []types.Bar, params types.Params) (types.SignalType, error) {
	fastPeriod := params.Int("fast_period", defaultFastPeriod)
	slowPeriod := params.Int("slow_period", defaultSlowPeriod)

	if fastPeriod <= 0 || slowPeriod <= 0 {
		return types.SignalTypeNone, errors.Newf(errors.ErrCodeInvalidParameter,
			"sma periods must be positive, got fast=%d slow=%d", fastPeriod, slowPeriod)
	}

	if fastPeriod >= slowPeriod {
		return types.SignalTypeNone, errors.Newf(errors.ErrCodeInvalidParameter,
			"fast period %d must be smaller than slow period %d", fastPeriod, slowPeriod)
	}

	// A cross needs the current and previous value of the slow average.
	if len(bars) < slowPeriod+1 {
		return types.SignalTypeNone, nil
	}

	prices := closes(bars)
	fast := helper.ChanToSlice(trend.NewSmaWithPeriod[float64](fastPeriod).Compute(helper.SliceToChan(prices)))
	slow := helper.ChanToSlice(trend.NewSmaWithPeriod[float64](slowPeriod).Compute(helper.SliceToChan(prices)))

	fastNow, fastPrev := fast[len(fast)-1], fast[len(fast)-2]
	slowNow, slowPrev := slow[len(slow)-1], slow[len(slow)-2]

	switch {
	case fastPrev <= slowPrev && fastNow > slowNow:
		return types.SignalTypeBuy, nil
	case fastPrev >= slowPrev && fastNow < slowNow:
		return types.SignalTypeSell, nil
	default:
		return types.SignalTypeNone, nil
	}
}
