package types

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func validConfig() BacktestConfiguration {
	return BacktestConfiguration{
		Strategy:       "sma_cross",
		Symbol:         "AAPL",
		Timeframe:      "1h",
		InitialCapital: 10000,
		FeePercentage:  0.1,
	}
}

func (suite *ConfigTestSuite) TestUnmarshalYAMLOptionals() {
	content := `
strategy: sma_cross
symbol: BTCUSDT
timeframe: 1h
start_time: 2023-01-01T00:00:00Z
initial_capital: 10000
fee_percentage: 0.1
bar_count: 500
params:
  fast_period: 9
  slow_period: 21
`

	var cfg BacktestConfiguration
	suite.Require().NoError(yaml.Unmarshal([]byte(content), &cfg))

	suite.Equal("sma_cross", cfg.Strategy)
	suite.Equal("BTCUSDT", cfg.Symbol)
	suite.True(cfg.StartTime.IsSome())
	suite.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartTime.Unwrap().UTC())
	suite.True(cfg.EndTime.IsNone())
	suite.True(cfg.BarCount.IsSome())
	suite.Equal(500, cfg.BarCount.Unwrap())
	suite.True(cfg.MaxTrades.IsNone())
	suite.Equal(9, cfg.Params.Int("fast_period", 0))
	suite.Equal(21, cfg.Params.Int("slow_period", 0))
}

func (suite *ConfigTestSuite) TestValidate() {
	tests := []struct {
		name         string
		mutate       func(*BacktestConfiguration)
		expectedCode errors.ErrorCode
	}{
		{
			name:         "valid",
			mutate:       func(c *BacktestConfiguration) {},
			expectedCode: 0,
		},
		{
			name:         "missing strategy",
			mutate:       func(c *BacktestConfiguration) { c.Strategy = "" },
			expectedCode: errors.ErrCodeMissingStrategy,
		},
		{
			name:         "zero capital",
			mutate:       func(c *BacktestConfiguration) { c.InitialCapital = 0 },
			expectedCode: errors.ErrCodeInvalidCapital,
		},
		{
			name:         "negative capital",
			mutate:       func(c *BacktestConfiguration) { c.InitialCapital = -5 },
			expectedCode: errors.ErrCodeInvalidCapital,
		},
		{
			name: "start after end",
			mutate: func(c *BacktestConfiguration) {
				c.StartTime = optional.Some(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
				c.EndTime = optional.Some(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
			},
			expectedCode: errors.ErrCodeInvalidDateRange,
		},
		{
			name:         "negative fee",
			mutate:       func(c *BacktestConfiguration) { c.FeePercentage = -1 },
			expectedCode: errors.ErrCodeInvalidConfiguration,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.expectedCode == 0 {
				suite.NoError(err)
			} else {
				suite.Require().Error(err)
				suite.Equal(tt.expectedCode, errors.GetCode(err))
			}
		})
	}
}

func (suite *ConfigTestSuite) TestOptimizationValidateUnknownMetric() {
	cfg := OptimizationConfiguration{
		Strategy:       "sma_cross",
		InitialCapital: 10000,
		TargetMetric:   "not_a_metric",
	}

	err := cfg.Validate()
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeUnknownMetric, errors.GetCode(err))
}

func (suite *ConfigTestSuite) TestOptimizationUnmarshalYAML() {
	content := `
strategy: rsi
symbol: ETHUSDT
initial_capital: 5000
target_metric: sharpe_ratio
maximize_metric: true
max_iterations: 50
parameters:
  - name: period
    type: number
    min: 5
    max: 20
    step: 5
  - name: smoothing
    type: string
    values: [sma, ema]
  - name: threshold
    type: number
    current: 30
`

	var cfg OptimizationConfiguration
	suite.Require().NoError(yaml.Unmarshal([]byte(content), &cfg))
	suite.Require().NoError(cfg.Validate())

	suite.Len(cfg.Parameters, 3)
	suite.Equal("period", cfg.Parameters[0].Name)
	suite.Equal(5.0, cfg.Parameters[0].Min.Unwrap())
	suite.Equal(20.0, cfg.Parameters[0].Max.Unwrap())
	suite.Equal(5.0, cfg.Parameters[0].Step.Unwrap())
	suite.Equal([]any{"sma", "ema"}, cfg.Parameters[1].Values)
	suite.True(cfg.Parameters[2].Min.IsNone())
	suite.Equal(30, cfg.Parameters[2].Current)

	base := cfg.BacktestConfiguration()
	suite.Equal("rsi", base.Strategy)
	suite.Equal(5000.0, base.InitialCapital)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	cfg := validConfig()

	schema, err := cfg.GenerateSchemaJSON()

	suite.Require().NoError(err)
	suite.Contains(schema, `"backtest-configuration"`)
	suite.Contains(schema, "initial_capital")
}
