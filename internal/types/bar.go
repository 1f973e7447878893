package types

import "time"

// Bar is one OHLCV interval of market data.
// Series handed to the engine must be ordered ascending by Time with no
// duplicate timestamps; gaps are permitted and not validated.
type Bar struct {
	Time   time.Time `yaml:"time" json:"time"`
	Open   float64   `yaml:"open" json:"open"`
	High   float64   `yaml:"high" json:"high"`
	Low    float64   `yaml:"low" json:"low"`
	Close  float64   `yaml:"close" json:"close"`
	Volume float64   `yaml:"volume" json:"volume"`
}

type SignalType string

const (
	// SignalTypeBuy tells the simulation to open a long position.
	SignalTypeBuy SignalType = "buy"
	// SignalTypeSell tells the simulation to close the open position.
	SignalTypeSell SignalType = "sell"
	// SignalTypeNone tells the simulation to take no action.
	SignalTypeNone SignalType = "none"
)

// Signal is a marker recorded when the simulation acts on a strategy signal.
type Signal struct {
	// Time is the bar time the signal was acted on.
	Time time.Time `yaml:"time" json:"time"`
	// Type is the signal type.
	Type SignalType `yaml:"type" json:"type"`
	// Price is the close price of the bar the signal was acted on.
	Price float64 `yaml:"price" json:"price"`
	// Reason is an optional human-readable annotation.
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// EquityPoint is one sample of the equity curve: cash plus the open
// position's mark-to-market value at a bar's close.
type EquityPoint struct {
	Time  time.Time `yaml:"time" json:"time"`
	Value float64   `yaml:"value" json:"value"`
}

// DrawdownPoint is one sample of the drawdown curve: percentage decline of
// equity from the running peak.
type DrawdownPoint struct {
	Time time.Time `yaml:"time" json:"time"`
	Pct  float64   `yaml:"pct" json:"pct"`
}
