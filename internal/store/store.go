// Package store persists backtest results in an embedded DuckDB database so
// finished runs can be queried with SQL and exported to Parquet for offline
// analysis.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/tradeforge-dev/backtest-engine/internal/logger"
	"github.com/tradeforge-dev/backtest-engine/internal/types"
	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

// ResultStore holds completed backtest results. An empty path opens an
// in-memory database; a file path makes the store durable across runs.
type ResultStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewResultStore opens the database and creates the schema. The caller owns
// the store and must Close it.
func NewResultStore(path string, log *logger.Logger) (*ResultStore, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to open result database", err)
	}

	s := &ResultStore{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := s.Initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return s, nil
}

// Initialize creates the result tables.
func (s *ResultStore) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS results (
			result_id TEXT PRIMARY KEY,
			strategy TEXT,
			symbol TEXT,
			timeframe TEXT,
			status TEXT,
			error TEXT,
			cancelled BOOLEAN,
			started_at TIMESTAMP,
			duration_ms BIGINT,
			total_trades INTEGER,
			winning_trades INTEGER,
			losing_trades INTEGER,
			win_rate DOUBLE,
			total_return DOUBLE,
			total_return_pct DOUBLE,
			max_drawdown_pct DOUBLE,
			sharpe_ratio DOUBLE,
			profit_factor DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to create results table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			result_id TEXT,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			side TEXT,
			entry_price DOUBLE,
			exit_price DOUBLE,
			quantity DOUBLE,
			profit DOUBLE,
			profit_pct DOUBLE,
			fees DOUBLE,
			duration_minutes DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to create trades table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS equity (
			result_id TEXT,
			bar_time TIMESTAMP,
			value DOUBLE,
			drawdown_pct DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to create equity table", err)
	}

	return nil
}

// Record persists one result with its trades and equity curve in a single
// transaction.
func (s *ResultStore) Record(result *types.BacktestResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to begin transaction", err)
	}

	insertResult := s.sq.
		Insert("results").
		Columns(
			"result_id", "strategy", "symbol", "timeframe", "status", "error",
			"cancelled", "started_at", "duration_ms",
			"total_trades", "winning_trades", "losing_trades", "win_rate",
			"total_return", "total_return_pct", "max_drawdown_pct",
			"sharpe_ratio", "profit_factor",
		).
		Values(
			result.ID, result.Config.Strategy, result.Config.Symbol,
			result.Config.Timeframe, string(result.Status), result.Error,
			result.Cancelled, result.StartedAt, result.Duration.Milliseconds(),
			result.Metrics.TotalTrades, result.Metrics.WinningTrades,
			result.Metrics.LosingTrades, result.Metrics.WinRate,
			result.Metrics.TotalReturn, result.Metrics.TotalReturnPct,
			result.Metrics.MaxDrawdownPct, result.Metrics.SharpeRatio,
			result.Metrics.ProfitFactor,
		).
		RunWith(tx)

	if _, err := insertResult.Exec(); err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to insert result", err)
	}

	for _, trade := range result.Trades {
		insertTrade := s.sq.
			Insert("trades").
			Columns(
				"result_id", "entry_time", "exit_time", "side",
				"entry_price", "exit_price", "quantity",
				"profit", "profit_pct", "fees", "duration_minutes",
			).
			Values(
				result.ID, trade.EntryTime, trade.ExitTime, string(trade.Side),
				trade.EntryPrice, trade.ExitPrice, trade.Quantity,
				trade.Profit, trade.ProfitPercentage, trade.Fees,
				trade.DurationMinutes,
			).
			RunWith(tx)

		if _, err := insertTrade.Exec(); err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeStoreFailed, "failed to insert trade", err)
		}
	}

	drawdownAt := make(map[time.Time]float64, len(result.Drawdown))
	for _, point := range result.Drawdown {
		drawdownAt[point.Time] = point.Pct
	}

	for _, point := range result.Equity {
		insertEquity := s.sq.
			Insert("equity").
			Columns("result_id", "bar_time", "value", "drawdown_pct").
			Values(result.ID, point.Time, point.Value, drawdownAt[point.Time]).
			RunWith(tx)

		if _, err := insertEquity.Exec(); err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeStoreFailed, "failed to insert equity point", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to commit result", err)
	}

	s.logger.Debug("Result recorded",
		zap.String("id", result.ID),
		zap.Int("trades", len(result.Trades)),
		zap.Int("equity_points", len(result.Equity)),
	)

	return nil
}

// ResultSummary is one row of the results table.
type ResultSummary struct {
	ID             string
	Strategy       string
	Symbol         string
	Status         types.Status
	Cancelled      bool
	TotalTrades    int
	TotalReturn    float64
	TotalReturnPct float64
	SharpeRatio    float64
	StartedAt      time.Time
}

// Results returns the stored result summaries ordered by start time.
func (s *ResultStore) Results() ([]ResultSummary, error) {
	query := s.sq.
		Select(
			"result_id", "strategy", "symbol", "status", "cancelled",
			"total_trades", "total_return", "total_return_pct",
			"sharpe_ratio", "started_at",
		).
		From("results").
		OrderBy("started_at ASC").
		RunWith(s.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to query results", err)
	}
	defer rows.Close()

	var summaries []ResultSummary

	for rows.Next() {
		var summary ResultSummary
		var status string

		err := rows.Scan(
			&summary.ID, &summary.Strategy, &summary.Symbol, &status,
			&summary.Cancelled, &summary.TotalTrades, &summary.TotalReturn,
			&summary.TotalReturnPct, &summary.SharpeRatio, &summary.StartedAt,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to scan result row", err)
		}

		summary.Status = types.Status(status)
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "error iterating results", err)
	}

	return summaries, nil
}

// Trades returns the stored trades of one result in entry-time order.
func (s *ResultStore) Trades(resultID string) ([]types.BacktestTrade, error) {
	query := s.sq.
		Select(
			"entry_time", "exit_time", "side", "entry_price", "exit_price",
			"quantity", "profit", "profit_pct", "fees", "duration_minutes",
		).
		From("trades").
		Where(squirrel.Eq{"result_id": resultID}).
		OrderBy("entry_time ASC").
		RunWith(s.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.BacktestTrade

	for rows.Next() {
		var trade types.BacktestTrade
		var side string

		err := rows.Scan(
			&trade.EntryTime, &trade.ExitTime, &side, &trade.EntryPrice,
			&trade.ExitPrice, &trade.Quantity, &trade.Profit,
			&trade.ProfitPercentage, &trade.Fees, &trade.DurationMinutes,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to scan trade row", err)
		}

		trade.Side = types.TradeSide(side)
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "error iterating trades", err)
	}

	return trades, nil
}

// Equity returns the stored equity curve of one result in bar order.
func (s *ResultStore) Equity(resultID string) ([]types.EquityPoint, error) {
	query := s.sq.
		Select("bar_time", "value").
		From("equity").
		Where(squirrel.Eq{"result_id": resultID}).
		OrderBy("bar_time ASC").
		RunWith(s.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to query equity curve", err)
	}
	defer rows.Close()

	var points []types.EquityPoint

	for rows.Next() {
		var point types.EquityPoint
		if err := rows.Scan(&point.Time, &point.Value); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to scan equity row", err)
		}

		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "error iterating equity curve", err)
	}

	return points, nil
}

// Export writes every table to a Parquet file under the given directory.
func (s *ResultStore) Export(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to create export directory", err)
	}

	for _, table := range []string{"results", "trades", "equity"} {
		target := filepath.Join(dir, table+".parquet")

		_, err := s.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, target))
		if err != nil {
			return errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to export %s to Parquet", table)
		}
	}

	s.logger.Info("Exported results to Parquet", zap.String("dir", dir))

	return nil
}

// Cleanup drops all stored results and recreates the schema.
func (s *ResultStore) Cleanup() error {
	_, err := s.db.Exec(`
		DROP TABLE IF EXISTS equity;
		DROP TABLE IF EXISTS trades;
		DROP TABLE IF EXISTS results;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to drop tables", err)
	}

	return s.Initialize()
}

// Close releases the underlying database.
func (s *ResultStore) Close() error {
	return s.db.Close()
}
