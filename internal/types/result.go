package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRunning   Status = "running"
)

// BacktestResult is the complete outcome of one backtest run. It is created
// once per run and never mutated after being returned.
type BacktestResult struct {
	// ID is the operation identifier of the run that produced this result.
	ID        string                `yaml:"id" json:"id"`
	Config    BacktestConfiguration `yaml:"config" json:"config"`
	Metrics   BacktestMetrics       `yaml:"metrics" json:"metrics"`
	Trades    []BacktestTrade       `yaml:"trades" json:"trades"`
	Signals   []Signal              `yaml:"signals" json:"signals"`
	Equity    []EquityPoint         `yaml:"equity" json:"equity"`
	Drawdown  []DrawdownPoint       `yaml:"drawdown" json:"drawdown"`
	StartedAt time.Time             `yaml:"started_at" json:"started_at"`
	Duration  time.Duration         `yaml:"duration" json:"duration"`
	Status    Status                `yaml:"status" json:"status"`
	Error     string                `yaml:"error,omitempty" json:"error,omitempty"`
	// Cancelled reports that the run was stopped cooperatively; the partial
	// trades and curves accumulated before the stop are retained.
	Cancelled bool `yaml:"cancelled,omitempty" json:"cancelled,omitempty"`
}

// OptimizationResult is the outcome of a grid-search run. The orchestrator
// owns the accumulating result list during the run; callers only see it here.
type OptimizationResult struct {
	Config OptimizationConfiguration `yaml:"config" json:"config"`
	// BestResult is the best completed result by the target metric, nil when
	// every combination failed or none ran.
	BestResult *BacktestResult  `yaml:"best_result" json:"best_result"`
	AllResults []BacktestResult `yaml:"all_results" json:"all_results"`
	// BestParams are the parameter values that produced BestResult.
	BestParams          Params        `yaml:"best_params" json:"best_params"`
	TotalIterations     int           `yaml:"total_iterations" json:"total_iterations"`
	CompletedIterations int           `yaml:"completed_iterations" json:"completed_iterations"`
	Status              Status        `yaml:"status" json:"status"`
	Error               string        `yaml:"error,omitempty" json:"error,omitempty"`
	StartedAt           time.Time     `yaml:"started_at" json:"started_at"`
	FinishedAt          time.Time     `yaml:"finished_at" json:"finished_at"`
	Duration            time.Duration `yaml:"duration" json:"duration"`
	Cancelled           bool          `yaml:"cancelled,omitempty" json:"cancelled,omitempty"`
}

// WriteBacktestResult writes a result to a YAML file.
func WriteBacktestResult(path string, result BacktestResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest result to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest result to file: %w", err)
	}

	return nil
}

// WriteOptimizationResult writes an optimization result to a YAML file.
func WriteOptimizationResult(path string, result OptimizationResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal optimization result to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write optimization result to file: %w", err)
	}

	return nil
}
