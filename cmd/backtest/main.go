package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/tradeforge-dev/backtest-engine/internal/backtest"
	"github.com/tradeforge-dev/backtest-engine/internal/data"
	"github.com/tradeforge-dev/backtest-engine/internal/logger"
	"github.com/tradeforge-dev/backtest-engine/internal/store"
	"github.com/tradeforge-dev/backtest-engine/internal/strategy"
	"github.com/tradeforge-dev/backtest-engine/internal/types"
	"github.com/tradeforge-dev/backtest-engine/internal/version"
)

func loadConfig[T any](path string) (T, error) {
	var cfg T

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

func persistResult(result *types.BacktestResult, dbPath, exportDir string, log *logger.Logger) error {
	if dbPath == "" && exportDir == "" {
		return nil
	}

	resultStore, err := store.NewResultStore(dbPath, log)
	if err != nil {
		return err
	}
	defer resultStore.Close()

	if err := resultStore.Record(result); err != nil {
		return err
	}

	if exportDir != "" {
		return resultStore.Export(exportDir)
	}

	return nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig[types.BacktestConfiguration](cmd.String("config"))
	if err != nil {
		return err
	}

	bars, err := data.LoadCSV(cmd.String("data"))
	if err != nil {
		return err
	}

	controller := backtest.NewController(strategy.NewDefaultRegistry(), log)
	result := controller.RunBacktest(ctx, cfg, bars, optional.None[backtest.OnStartCallback]())

	if output := cmd.String("output"); output != "" {
		if err := types.WriteBacktestResult(output, *result); err != nil {
			return err
		}
	}

	if err := persistResult(result, cmd.String("db"), cmd.String("export"), log); err != nil {
		return err
	}

	printBacktestSummary(result)

	if result.Status == types.StatusFailed {
		return fmt.Errorf("backtest failed: %s", result.Error)
	}

	return nil
}

func optimizeAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig[types.OptimizationConfiguration](cmd.String("config"))
	if err != nil {
		return err
	}

	bars, err := data.LoadCSV(cmd.String("data"))
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onProgress := optional.Some[backtest.ProgressCallback](func(completed, total int, best *types.BacktestResult) {
		if bar == nil {
			bar = progressbar.Default(int64(total))
			bar.Describe(fmt.Sprintf("Optimizing %s on %s", cfg.Strategy, cfg.TargetMetric))
		}

		bar.Add(1)
	})

	controller := backtest.NewController(strategy.NewDefaultRegistry(), log)
	result := controller.RunOptimization(ctx, cfg, bars, optional.None[backtest.OnStartCallback](), onProgress)

	if output := cmd.String("output"); output != "" {
		if err := types.WriteOptimizationResult(output, *result); err != nil {
			return err
		}
	}

	if result.BestResult != nil {
		if err := persistResult(result.BestResult, cmd.String("db"), cmd.String("export"), log); err != nil {
			return err
		}
	}

	printOptimizationSummary(result)

	if result.Status == types.StatusFailed {
		return fmt.Errorf("optimization failed: %s", result.Error)
	}

	return nil
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	var schema string
	var err error

	switch kind := cmd.String("type"); kind {
	case "backtest":
		schema, err = types.BacktestConfiguration{}.GenerateSchemaJSON()
	case "optimization":
		schema, err = types.OptimizationConfiguration{}.GenerateSchemaJSON()
	default:
		return fmt.Errorf("unknown schema type %q, want backtest or optimization", kind)
	}

	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func strategiesAction(ctx context.Context, cmd *cli.Command) error {
	for _, name := range strategy.NewDefaultRegistry().Names() {
		fmt.Println(name)
	}

	return nil
}

func printBacktestSummary(result *types.BacktestResult) {
	fmt.Printf("Backtest %s: %s\n", result.ID, result.Status)

	if result.Cancelled {
		fmt.Println("  cancelled before the last bar; partial results below")
	}

	if result.Status != types.StatusCompleted {
		return
	}

	fmt.Printf("  trades:       %d (win rate %.1f%%)\n", result.Metrics.TotalTrades, result.Metrics.WinRate)
	fmt.Printf("  total return: %.2f (%.2f%%)\n", result.Metrics.TotalReturn, result.Metrics.TotalReturnPct)
	fmt.Printf("  max drawdown: %.2f%%\n", result.Metrics.MaxDrawdownPct)
	fmt.Printf("  sharpe:       %.4f\n", result.Metrics.SharpeRatio)
}

func printOptimizationSummary(result *types.OptimizationResult) {
	fmt.Printf("Optimization: %s (%d/%d combinations)\n",
		result.Status, result.CompletedIterations, result.TotalIterations)

	if result.Cancelled {
		fmt.Println("  cancelled; partial results below")
	}

	if result.BestResult == nil {
		fmt.Println("  no combination completed successfully")

		return
	}

	fmt.Printf("  best %s: ", result.Config.TargetMetric)

	if value, err := result.BestResult.Metrics.Metric(result.Config.TargetMetric); err == nil {
		fmt.Printf("%.4f\n", value)
	} else {
		fmt.Println("n/a")
	}

	fmt.Println("  best parameters:")

	for _, key := range sortedKeys(result.BestParams) {
		fmt.Printf("    %s: %v\n", key, result.BestParams[key])
	}
}

func sortedKeys(params types.Params) []string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func main() {
	configFlag := &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Path to the YAML configuration file",
		Required: true,
	}
	dataFlag := &cli.StringFlag{
		Name:     "data",
		Aliases:  []string{"d"},
		Usage:    "Path to the CSV bar file (time,open,high,low,close,volume)",
		Required: true,
	}
	outputFlag := &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write the full result to this YAML file",
	}
	dbFlag := &cli.StringFlag{
		Name:  "db",
		Usage: "Record the result in this DuckDB database (empty = skip)",
	}
	exportFlag := &cli.StringFlag{
		Name:  "export",
		Usage: "Export the recorded tables to Parquet files in this directory",
	}

	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Run strategy backtests and grid-search parameter optimizations",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run a single backtest",
				Flags:  []cli.Flag{configFlag, dataFlag, outputFlag, dbFlag, exportFlag},
				Action: runAction,
			},
			{
				Name:   "optimize",
				Usage:  "Grid-search strategy parameters",
				Flags:  []cli.Flag{configFlag, dataFlag, outputFlag, dbFlag, exportFlag},
				Action: optimizeAction,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of a configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Usage:   "Schema to print: backtest or optimization",
						Value:   "backtest",
					},
				},
				Action: schemaAction,
			},
			{
				Name:   "strategies",
				Usage:  "List the built-in strategies",
				Action: strategiesAction,
			},
			{
				Name:  "version",
				Usage: "Print the engine version",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Println(version.GetVersion())

					return nil
				},
			},
		},
	}

	// Ctrl-C cancels the run context; in-flight operations stop at the next
	// bar and report their partial results.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
