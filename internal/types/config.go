package types

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"

	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

// BacktestConfiguration describes a single backtest run. Symbol and
// Timeframe are opaque labels carried through for reporting.
type BacktestConfiguration struct {
	Strategy       string                     `yaml:"strategy" json:"strategy" validate:"required" jsonschema:"title=Strategy,description=Name of the registered strategy to evaluate"`
	Symbol         string                     `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol"`
	Timeframe      string                     `yaml:"timeframe" json:"timeframe" jsonschema:"title=Timeframe"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional inclusive lower bound for the bar filter"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional inclusive upper bound for the bar filter"`
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting capital for the simulation,minimum=0"`
	FeePercentage  float64                    `yaml:"fee_percentage" json:"fee_percentage" validate:"gte=0" jsonschema:"title=Fee Percentage,description=Per-side fee as a percentage of notional"`
	Slippage       float64                    `yaml:"slippage" json:"slippage" validate:"gte=0" jsonschema:"title=Slippage,description=Assumed execution price deviation as a percentage"`
	BarCount       optional.Option[int]       `yaml:"bar_count" json:"bar_count" jsonschema:"title=Bar Count,description=Optional hard cap on bars considered"`
	MaxTrades      optional.Option[int]       `yaml:"max_trades" json:"max_trades" jsonschema:"title=Max Trades,description=Optional cap on closed trades; no new positions open past it"`
	Params         Params                     `yaml:"params" json:"params" jsonschema:"title=Strategy Parameters"`
	// MinEngineVersion is an optional semver constraint the running engine
	// must satisfy, e.g. ">= 1.0.0".
	MinEngineVersion string `yaml:"min_engine_version" json:"min_engine_version,omitempty" jsonschema:"title=Minimum Engine Version"`
}

// UnmarshalYAML maps nullable YAML fields onto optional values.
func (c *BacktestConfiguration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain struct {
		Strategy         string     `yaml:"strategy"`
		Symbol           string     `yaml:"symbol"`
		Timeframe        string     `yaml:"timeframe"`
		StartTime        *time.Time `yaml:"start_time"`
		EndTime          *time.Time `yaml:"end_time"`
		InitialCapital   float64    `yaml:"initial_capital"`
		FeePercentage    float64    `yaml:"fee_percentage"`
		Slippage         float64    `yaml:"slippage"`
		BarCount         *int       `yaml:"bar_count"`
		MaxTrades        *int       `yaml:"max_trades"`
		Params           Params     `yaml:"params"`
		MinEngineVersion string     `yaml:"min_engine_version"`
	}

	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}

	c.Strategy = p.Strategy
	c.Symbol = p.Symbol
	c.Timeframe = p.Timeframe
	c.InitialCapital = p.InitialCapital
	c.FeePercentage = p.FeePercentage
	c.Slippage = p.Slippage
	c.Params = p.Params
	c.MinEngineVersion = p.MinEngineVersion
	c.StartTime = optional.FromNillable(p.StartTime)
	c.EndTime = optional.FromNillable(p.EndTime)
	c.BarCount = optional.FromNillable(p.BarCount)
	c.MaxTrades = optional.FromNillable(p.MaxTrades)

	return nil
}

// Validate reports the first configuration error, mapped onto the
// configuration error codes.
func (c BacktestConfiguration) Validate() error {
	if c.Strategy == "" {
		return errors.New(errors.ErrCodeMissingStrategy, "no strategy configured")
	}

	if c.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeInvalidCapital, "initial capital must be positive, got %v", c.InitialCapital)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.StartTime.Unwrap().After(c.EndTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidDateRange, "start time %s is after end time %s",
			c.StartTime.Unwrap().Format(time.RFC3339), c.EndTime.Unwrap().Format(time.RFC3339))
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest configuration", err)
	}

	return nil
}

// ParameterType is the declared type of an optimization parameter.
type ParameterType string

const (
	ParameterTypeNumber  ParameterType = "number"
	ParameterTypeBoolean ParameterType = "boolean"
	ParameterTypeString  ParameterType = "string"
)

// OptimizationParameter declares one axis of the grid-search space: either a
// numeric min/max/step range, an explicit value list, or a single fixed
// Current value used when neither is given.
type OptimizationParameter struct {
	Name    string                   `yaml:"name" json:"name" validate:"required"`
	Type    ParameterType            `yaml:"type" json:"type"`
	Min     optional.Option[float64] `yaml:"min" json:"min"`
	Max     optional.Option[float64] `yaml:"max" json:"max"`
	Step    optional.Option[float64] `yaml:"step" json:"step"`
	Values  []any                    `yaml:"values" json:"values,omitempty"`
	Current any                      `yaml:"current" json:"current,omitempty"`
}

// UnmarshalYAML maps nullable range bounds onto optional values.
func (o *OptimizationParameter) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain struct {
		Name    string        `yaml:"name"`
		Type    ParameterType `yaml:"type"`
		Min     *float64      `yaml:"min"`
		Max     *float64      `yaml:"max"`
		Step    *float64      `yaml:"step"`
		Values  []any         `yaml:"values"`
		Current any           `yaml:"current"`
	}

	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}

	o.Name = p.Name
	o.Type = p.Type
	o.Values = p.Values
	o.Current = p.Current
	o.Min = optional.FromNillable(p.Min)
	o.Max = optional.FromNillable(p.Max)
	o.Step = optional.FromNillable(p.Step)

	return nil
}

// OptimizationConfiguration describes a grid-search run: the shared backtest
// context plus the parameter space and the target metric.
type OptimizationConfiguration struct {
	Strategy       string                     `yaml:"strategy" json:"strategy" validate:"required"`
	Symbol         string                     `yaml:"symbol" json:"symbol"`
	Timeframe      string                     `yaml:"timeframe" json:"timeframe"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time"`
	InitialCapital float64                    `yaml:"initial_capital" json:"initial_capital" validate:"gt=0"`
	FeePercentage  float64                    `yaml:"fee_percentage" json:"fee_percentage" validate:"gte=0"`
	Slippage       float64                    `yaml:"slippage" json:"slippage" validate:"gte=0"`
	Parameters     []OptimizationParameter    `yaml:"parameters" json:"parameters"`
	// TargetMetric is a key into BacktestMetrics, e.g. "total_return_pct".
	TargetMetric string `yaml:"target_metric" json:"target_metric" validate:"required"`
	// MaximizeMetric selects the comparison direction: greater-is-better
	// when true, smaller-is-better when false.
	MaximizeMetric bool `yaml:"maximize_metric" json:"maximize_metric"`
	// MaxIterations caps the number of combinations evaluated. Zero or
	// negative means the full space.
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`
	// BaseParams are the strategy parameters each combination is merged onto.
	BaseParams       Params `yaml:"base_params" json:"base_params"`
	MinEngineVersion string `yaml:"min_engine_version" json:"min_engine_version,omitempty"`
}

// UnmarshalYAML maps nullable YAML fields onto optional values.
func (c *OptimizationConfiguration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain struct {
		Strategy         string                  `yaml:"strategy"`
		Symbol           string                  `yaml:"symbol"`
		Timeframe        string                  `yaml:"timeframe"`
		StartTime        *time.Time              `yaml:"start_time"`
		EndTime          *time.Time              `yaml:"end_time"`
		InitialCapital   float64                 `yaml:"initial_capital"`
		FeePercentage    float64                 `yaml:"fee_percentage"`
		Slippage         float64                 `yaml:"slippage"`
		Parameters       []OptimizationParameter `yaml:"parameters"`
		TargetMetric     string                  `yaml:"target_metric"`
		MaximizeMetric   bool                    `yaml:"maximize_metric"`
		MaxIterations    int                     `yaml:"max_iterations"`
		BaseParams       Params                  `yaml:"base_params"`
		MinEngineVersion string                  `yaml:"min_engine_version"`
	}

	var p plain
	if err := unmarshal(&p); err != nil {
		return err
	}

	c.Strategy = p.Strategy
	c.Symbol = p.Symbol
	c.Timeframe = p.Timeframe
	c.InitialCapital = p.InitialCapital
	c.FeePercentage = p.FeePercentage
	c.Slippage = p.Slippage
	c.Parameters = p.Parameters
	c.TargetMetric = p.TargetMetric
	c.MaximizeMetric = p.MaximizeMetric
	c.MaxIterations = p.MaxIterations
	c.BaseParams = p.BaseParams
	c.MinEngineVersion = p.MinEngineVersion
	c.StartTime = optional.FromNillable(p.StartTime)
	c.EndTime = optional.FromNillable(p.EndTime)

	return nil
}

// BacktestConfiguration derives the per-combination backtest configuration
// from the shared optimization context.
func (c OptimizationConfiguration) BacktestConfiguration() BacktestConfiguration {
	return BacktestConfiguration{
		Strategy:         c.Strategy,
		Symbol:           c.Symbol,
		Timeframe:        c.Timeframe,
		StartTime:        c.StartTime,
		EndTime:          c.EndTime,
		InitialCapital:   c.InitialCapital,
		FeePercentage:    c.FeePercentage,
		Slippage:         c.Slippage,
		Params:           c.BaseParams.Clone(),
		MinEngineVersion: c.MinEngineVersion,
	}
}

// Validate reports the first configuration error.
func (c OptimizationConfiguration) Validate() error {
	if c.Strategy == "" {
		return errors.New(errors.ErrCodeMissingStrategy, "no strategy configured")
	}

	if c.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeInvalidCapital, "initial capital must be positive, got %v", c.InitialCapital)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.StartTime.Unwrap().After(c.EndTime.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidDateRange, "start time %s is after end time %s",
			c.StartTime.Unwrap().Format(time.RFC3339), c.EndTime.Unwrap().Format(time.RFC3339))
	}

	if _, err := (BacktestMetrics{}).Metric(c.TargetMetric); err != nil {
		return err
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid optimization configuration", err)
	}

	return nil
}

// GenerateSchemaJSON generates the JSON schema for BacktestConfiguration.
func (c BacktestConfiguration) GenerateSchemaJSON() (string, error) {
	return reflectSchemaJSON(&c, "backtest-configuration", "Configuration schema for a backtest run")
}

// GenerateSchemaJSON generates the JSON schema for OptimizationConfiguration.
func (c OptimizationConfiguration) GenerateSchemaJSON() (string, error) {
	return reflectSchemaJSON(&c, "optimization-configuration", "Configuration schema for a grid-search optimization run")
}

func reflectSchemaJSON(v any, title, description string) (string, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t.String() {
			case "optional.Option[time.Time]":
				return &jsonschema.Schema{Type: "string", Format: "date-time"}
			case "optional.Option[int]":
				return &jsonschema.Schema{Type: "integer"}
			case "optional.Option[float64]":
				return &jsonschema.Schema{Type: "number"}
			}

			return nil
		},
	}

	schema := reflector.Reflect(v)
	schema.Title = title
	schema.Description = description
	schema.Version = "http://json-schema.org/draft-07/schema#"

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(out), nil
}
