package types

import "time"

// TradeSide is the direction of a position.
type TradeSide string

const (
	TradeSideLong TradeSide = "long"
	// TradeSideShort is reserved. The simulation currently only opens long
	// positions; the enum exists so short handling can be added without a
	// schema change.
	TradeSideShort TradeSide = "short"
)

// BacktestTrade is one closed round-trip. Trades are created only when a
// position closes, appended in chronological order, and never mutated.
type BacktestTrade struct {
	EntryTime time.Time `yaml:"entry_time" json:"entry_time"`
	ExitTime  time.Time `yaml:"exit_time" json:"exit_time"`
	Side      TradeSide `yaml:"side" json:"side"`
	// EntryPrice is the effective fill price at entry.
	EntryPrice float64 `yaml:"entry_price" json:"entry_price"`
	// ExitPrice is the effective fill price at exit.
	ExitPrice float64 `yaml:"exit_price" json:"exit_price"`
	Quantity  float64 `yaml:"quantity" json:"quantity"`
	// Profit is the net profit after fees.
	Profit float64 `yaml:"profit" json:"profit"`
	// ProfitPercentage is the net profit relative to the entry notional.
	ProfitPercentage float64 `yaml:"profit_percentage" json:"profit_percentage"`
	// Fees is the total round-trip fee charged on entry and exit notionals.
	Fees            float64 `yaml:"fees" json:"fees"`
	DurationMinutes float64 `yaml:"duration_minutes" json:"duration_minutes"`
}
