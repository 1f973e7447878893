// Package strategy defines the evaluation contract between the engine and
// trading strategies, plus a small set of built-in reference strategies.
package strategy

import (
	"sort"
	"sync"

	"github.com/tradeforge-dev/backtest-engine/internal/types"
	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

// Strategy is the one seam the engine does not implement itself. The
// simulation calls Evaluate once per bar, in time order, with the bar
// history up to and including the current bar. Implementations must be pure
// functions of (bars, params): no hidden state, no randomness.
type Strategy interface {
	// Name identifies the strategy in configurations and results.
	Name() string
	// Evaluate yields the trading signal for the latest bar in bars.
	Evaluate(bars []types.Bar, params types.Params) (types.SignalType, error)
}

// Func adapts a plain function to the Strategy interface.
type Func struct {
	StrategyName string
	EvaluateFunc func(bars []types.Bar, params types.Params) (types.SignalType, error)
}

func (f Func) Name() string {
	return f.StrategyName
}

func (f Func) Evaluate(bars []types.Bar, params types.Params) (types.SignalType, error) {
	return f.EvaluateFunc(bars, params)
}

// Registry maps strategy names to implementations. Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// NewDefaultRegistry creates a registry with the built-in strategies.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewSMACrossover())
	r.Register(NewRSIThreshold())

	return r
}

// Register adds or replaces a strategy under its name.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.strategies[s.Name()] = s
}

// Get resolves a strategy by name.
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.strategies[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %q is not registered", name)
	}

	return s, nil
}

// Names returns the sorted names of registered strategies.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func closes(bars []types.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, bar := range bars {
		out[i] = bar.Close
	}

	return out
}
