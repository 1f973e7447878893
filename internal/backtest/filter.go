// Package backtest implements the simulation loop, performance metrics,
// grid-search optimization and the controller that exposes them.
package backtest

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/tradeforge-dev/backtest-engine/internal/types"
)

// FilterBars restricts a time-ordered bar series to the inclusive
// [start, end] range, then truncates to the first barCount bars when given.
// The input is never modified; an empty result is valid and must be handled
// downstream.
func FilterBars(bars []types.Bar, start, end optional.Option[time.Time], barCount optional.Option[int]) []types.Bar {
	filtered := make([]types.Bar, 0, len(bars))

	for _, bar := range bars {
		if start.IsSome() && bar.Time.Before(start.Unwrap()) {
			continue
		}

		if end.IsSome() && bar.Time.After(end.Unwrap()) {
			continue
		}

		filtered = append(filtered, bar)
	}

	if barCount.IsSome() {
		if limit := barCount.Unwrap(); limit >= 0 && limit < len(filtered) {
			filtered = filtered[:limit]
		}
	}

	return filtered
}
