package backtest

import (
	"github.com/tradeforge-dev/backtest-engine/internal/types"
)

// rangeEpsilon absorbs float accumulation error when stepping through a
// numeric range, so that max itself is always included when it lies on the
// step grid.
const rangeEpsilon = 1e-9

// GenerateParameterSpace enumerates the Cartesian product of the declared
// parameter axes in deterministic order: the first-listed parameter varies
// slowest, exactly as nested loops would produce. An empty declaration list
// yields a single empty combination.
func GenerateParameterSpace(parameters []types.OptimizationParameter) []types.Params {
	return expandParameters(parameters, 0, types.Params{})
}

func expandParameters(parameters []types.OptimizationParameter, index int, current types.Params) []types.Params {
	if index >= len(parameters) {
		return []types.Params{current.Clone()}
	}

	param := parameters[index]
	combinations := make([]types.Params, 0)

	for _, value := range parameterValues(param) {
		next := current.Clone()
		next[param.Name] = value
		combinations = append(combinations, expandParameters(parameters, index+1, next)...)
	}

	return combinations
}

// parameterValues resolves the axis of a single parameter: a numeric
// min/max/step range, an explicit value list, or the single Current
// fallback when neither is declared.
func parameterValues(param types.OptimizationParameter) []any {
	if param.Min.IsSome() && param.Max.IsSome() && param.Step.IsSome() && param.Step.Unwrap() > 0 {
		min := param.Min.Unwrap()
		max := param.Max.Unwrap()
		step := param.Step.Unwrap()

		values := make([]any, 0)
		for v := min; v <= max+rangeEpsilon; v += step {
			values = append(values, v)
		}

		return values
	}

	if len(param.Values) > 0 {
		return param.Values
	}

	return []any{param.Current}
}
