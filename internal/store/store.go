// Package store persists all trading state in DuckDB. The uniqueness
// constraint on transaction_status(symbol) is the concurrency-control
// primitive behind the buy gate.
package store

import (
	"database/sql"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/meridian-trading/meridian/internal/logger"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// Store wraps the DuckDB connection and the squirrel builder.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// Open opens (or creates) the database at path. Use ":memory:" for tests.
func Open(path string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to open database", err)
	}

	s := &Store{
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

// Initialize creates the schema if it does not exist.
func (s *Store) Initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			source TEXT,
			symbol TEXT,
			price DOUBLE,
			size DOUBLE,
			ts TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS trades_latest (
			symbol TEXT PRIMARY KEY,
			source TEXT,
			price DOUBLE,
			size DOUBLE,
			ts TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS minute_bars (
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			ts TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS heartbeats (
			source TEXT,
			ts TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			client_order_id TEXT,
			symbol TEXT,
			side TEXT,
			order_type TEXT,
			time_in_force TEXT,
			qty DOUBLE,
			filled_qty DOUBLE,
			limit_price DOUBLE,
			filled_avg_price DOUBLE,
			status TEXT,
			extended_hours BOOLEAN,
			created_at TIMESTAMP,
			updated_at TIMESTAMP,
			submitted_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS order_log (
			origin TEXT,
			event TEXT,
			order_id TEXT,
			symbol TEXT,
			side TEXT,
			qty DOUBLE,
			price DOUBLE,
			detail TEXT,
			recorded_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			symbol TEXT,
			exchange TEXT,
			qty DOUBLE,
			avg_entry_price DOUBLE,
			market_value DOUBLE,
			cost_basis DOUBLE,
			current_price DOUBLE,
			unrealized_pl DOUBLE,
			unrealized_plpc DOUBLE,
			recorded_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS transaction_status (
			symbol TEXT PRIMARY KEY,
			shares DOUBLE,
			updated_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			activity_type TEXT,
			transaction_time TIMESTAMP,
			fill_type TEXT,
			symbol TEXT,
			side TEXT,
			qty DOUBLE,
			price DOUBLE,
			leaves_qty DOUBLE,
			cum_qty DOUBLE,
			order_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT,
			account_number TEXT,
			status TEXT,
			currency TEXT,
			cash DOUBLE,
			portfolio_value DOUBLE,
			equity DOUBLE,
			last_equity DOUBLE,
			buying_power DOUBLE,
			daytrade_count BIGINT,
			pattern_day_trader BOOLEAN,
			trading_blocked BOOLEAN,
			transfers_blocked BOOLEAN,
			account_blocked BOOLEAN,
			shorting_enabled BOOLEAN,
			initial_margin DOUBLE,
			maintenance_margin DOUBLE,
			created_at TIMESTAMP,
			recorded_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			buy_enabled BOOLEAN,
			sell_enabled BOOLEAN,
			cash_reserve DOUBLE,
			max_order_value DOUBLE,
			recorded_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS symbols (
			symbol TEXT PRIMARY KEY,
			active BOOLEAN,
			trade_size DOUBLE
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			s.logger.Error("schema bootstrap failed", zap.Error(err))
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create schema", err)
		}
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// isUniqueViolation reports whether err is a DuckDB primary-key or unique
// constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "primary key")
}
