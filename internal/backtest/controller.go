package backtest

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"

	"github.com/tradeforge-dev/backtest-engine/internal/logger"
	"github.com/tradeforge-dev/backtest-engine/internal/strategy"
	"github.com/tradeforge-dev/backtest-engine/internal/types"
)

// OperationKind distinguishes the two cancellable operation types held in
// the controller's registry.
type OperationKind string

const (
	OperationKindBacktest     OperationKind = "backtest"
	OperationKindOptimization OperationKind = "optimization"
)

// OnStartCallback receives the operation id of a run before its first bar is
// processed, so the caller can stop the operation from another goroutine.
type OnStartCallback func(operationID string)

type operation struct {
	kind   OperationKind
	cancel context.CancelFunc
}

// Controller owns the registry of in-flight cancellable operations and
// exposes the engine's entry points. It is an explicit instance rather than
// package state so concurrent callers and tests stay isolated; the mutex
// guards the registry, which is the only state shared across operations.
type Controller struct {
	mu         sync.Mutex
	operations map[string]operation
	registry   *strategy.Registry
	log        *logger.Logger
}

// NewController creates a controller resolving strategy names against the
// given registry. A nil logger falls back to a no-op logger.
func NewController(registry *strategy.Registry, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Controller{
		operations: make(map[string]operation),
		registry:   registry,
		log:        log,
	}
}

// RunBacktest resolves the configured strategy by name and runs a complete
// backtest synchronously. The run is registered under a fresh operation id
// (reported through onStart and as the result ID) and deregistered on every
// exit path.
func (c *Controller) RunBacktest(ctx context.Context, cfg types.BacktestConfiguration, bars []types.Bar, onStart optional.Option[OnStartCallback]) *types.BacktestResult {
	strat, err := c.registry.Get(cfg.Strategy)
	if err != nil {
		return failedBacktestResult(cfg, err)
	}

	return c.RunBacktestStrategy(ctx, cfg, bars, strat, onStart)
}

// RunBacktestStrategy is RunBacktest with an externally supplied strategy
// handle instead of a registry lookup.
func (c *Controller) RunBacktestStrategy(ctx context.Context, cfg types.BacktestConfiguration, bars []types.Bar, strat strategy.Strategy, onStart optional.Option[OnStartCallback]) *types.BacktestResult {
	id := uuid.New().String()

	runCtx, cancel := context.WithCancel(ctx)
	c.register(id, OperationKindBacktest, cancel)

	defer c.deregister(id)

	if onStart.IsSome() {
		onStart.Unwrap()(id)
	}

	return run(runCtx, id, cfg, bars, strat, c.log)
}

// RunOptimization resolves the configured strategy by name and runs a grid
// search synchronously under a fresh cancellable operation id.
func (c *Controller) RunOptimization(ctx context.Context, cfg types.OptimizationConfiguration, bars []types.Bar, onStart optional.Option[OnStartCallback], onProgress optional.Option[ProgressCallback]) *types.OptimizationResult {
	strat, err := c.registry.Get(cfg.Strategy)
	if err != nil {
		return failedOptimizationResult(cfg, err)
	}

	return c.RunOptimizationStrategy(ctx, cfg, bars, strat, onStart, onProgress)
}

// RunOptimizationStrategy is RunOptimization with an externally supplied
// strategy handle.
func (c *Controller) RunOptimizationStrategy(ctx context.Context, cfg types.OptimizationConfiguration, bars []types.Bar, strat strategy.Strategy, onStart optional.Option[OnStartCallback], onProgress optional.Option[ProgressCallback]) *types.OptimizationResult {
	id := uuid.New().String()

	runCtx, cancel := context.WithCancel(ctx)
	c.register(id, OperationKindOptimization, cancel)

	defer c.deregister(id)

	if onStart.IsSome() {
		onStart.Unwrap()(id)
	}

	return runOptimization(runCtx, cfg, bars, strat, c.log, onProgress)
}

// StopBacktest signals the cancellation token of a running backtest and
// removes its registry entry. Stopping an unknown or already-finished id is
// a no-op, not an error.
func (c *Controller) StopBacktest(operationID string) {
	c.stop(operationID, OperationKindBacktest)
}

// StopOptimization signals the cancellation token of a running optimization
// and removes its registry entry. Unknown ids are a no-op.
func (c *Controller) StopOptimization(operationID string) {
	c.stop(operationID, OperationKindOptimization)
}

// ActiveOperations returns the sorted ids of operations currently in flight.
func (c *Controller) ActiveOperations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.operations))
	for id := range c.operations {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

func (c *Controller) register(id string, kind OperationKind, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.operations[id] = operation{kind: kind, cancel: cancel}
}

func (c *Controller) deregister(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if op, ok := c.operations[id]; ok {
		// Release the context resources even when the run finished normally.
		op.cancel()
		delete(c.operations, id)
	}
}

func (c *Controller) stop(id string, kind OperationKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	op, ok := c.operations[id]
	if !ok || op.kind != kind {
		return
	}

	op.cancel()
	delete(c.operations, id)
}

func failedBacktestResult(cfg types.BacktestConfiguration, err error) *types.BacktestResult {
	return &types.BacktestResult{
		ID:     uuid.New().String(),
		Config: cfg,
		Status: types.StatusFailed,
		Error:  err.Error(),
	}
}

func failedOptimizationResult(cfg types.OptimizationConfiguration, err error) *types.OptimizationResult {
	return &types.OptimizationResult{
		Config: cfg,
		Status: types.StatusFailed,
		Error:  err.Error(),
	}
}
