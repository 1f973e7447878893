package strategy

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"

	"github.com/tradeforge-dev/backtest-engine/internal/types"
	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

const (
	defaultRSIPeriod     = 14
	defaultRSIOversold   = 30.0
	defaultRSIOverbought = 70.0
)

// RSIThreshold signals buy when the relative strength index drops to the
// oversold level and sell when it reaches the overbought level.
//
// Parameters: period, oversold, overbought.
type RSIThreshold struct{}

func NewRSIThreshold() *RSIThreshold {
	return &RSIThreshold{}
}

func (s *RSIThreshold) Name() string {
	return "rsi_threshold"
}

func (s *RSIThreshold) Evaluate(bars []types.Bar, params types.Params) (types.SignalType, error) {
	period := params.Int("period", defaultRSIPeriod)
	oversold := params.Float("oversold", defaultRSIOversold)
	overbought := params.Float("overbought", defaultRSIOverbought)

	if period <= 0 {
		return types.SignalTypeNone, errors.Newf(errors.ErrCodeInvalidParameter,
			"rsi period must be positive, got %d", period)
	}

	if oversold >= overbought {
		return types.SignalTypeNone, errors.Newf(errors.ErrCodeInvalidParameter,
			"oversold level %v must be below overbought level %v", oversold, overbought)
	}

	if len(bars) <= period {
		return types.SignalTypeNone, nil
	}

	rsi := helper.ChanToSlice(momentum.NewRsiWithPeriod[float64](period).Compute(helper.SliceToChan(closes(bars))))
	if len(rsi) == 0 {
		return types.SignalTypeNone, nil
	}

	latest := rsi[len(rsi)-1]

	switch {
	case latest <= oversold:
		return types.SignalTypeBuy, nil
	case latest >= overbought:
		return types.SignalTypeSell, nil
	default:
		return types.SignalTypeNone, nil
	}
}
