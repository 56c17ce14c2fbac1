package store

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// TryStartBuy inserts a zero-share row for symbol, claiming the per-symbol
// buy slot. If a row already exists the insert fails on the primary key and
// ErrCodePositionExists is returned.
func (s *Store) TryStartBuy(symbol string, now time.Time) error {
	_, err := s.sq.
		Insert("transaction_status").
		Columns("symbol", "shares", "updated_at").
		Values(symbol, 0.0, now).
		RunWith(s.db).
		Exec()
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Newf(errors.ErrCodePositionExists, "buy already in flight for %s", symbol)
		}

		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert transaction status", err)
	}

	return nil
}

// DecrementShares subtracts qty from the symbol's share count. Missing rows
// are not an error; the subsequent reconcile restores truth.
func (s *Store) DecrementShares(symbol string, qty float64, now time.Time) error {
	_, err := s.sq.
		Update("transaction_status").
		Set("shares", squirrel.Expr("shares - ?", qty)).
		Set("updated_at", now).
		Where(squirrel.Eq{"symbol": symbol}).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to decrement shares", err)
	}

	return nil
}

// CleanTransactions removes rows whose share count has reached zero or gone
// negative, releasing the buy slot for those symbols.
func (s *Store) CleanTransactions() error {
	_, err := s.sq.
		Delete("transaction_status").
		Where(squirrel.LtOrEq{"shares": 0.0}).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to clean transactions", err)
	}

	return nil
}

// ReconcileTransaction upserts the broker-reported share count for symbol.
// The snapshot is authoritative; an existing row is overwritten.
func (s *Store) ReconcileTransaction(symbol string, shares float64, now time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO transaction_status (symbol, shares, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET shares = excluded.shares, updated_at = excluded.updated_at
	`, symbol, shares, now)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to reconcile transaction", err)
	}

	return nil
}

// DeleteTransaction removes the row for symbol, releasing the buy slot.
func (s *Store) DeleteTransaction(symbol string) error {
	_, err := s.sq.
		Delete("transaction_status").
		Where(squirrel.Eq{"symbol": symbol}).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to delete transaction", err)
	}

	return nil
}

// ResetTransactions removes every row. Run once at startup so stale in-flight
// markers from a previous run cannot block buys.
func (s *Store) ResetTransactions() error {
	_, err := s.sq.
		Delete("transaction_status").
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to reset transactions", err)
	}

	return nil
}

// GetTransaction returns the row for symbol, or ErrCodeDataNotFound.
func (s *Store) GetTransaction(symbol string) (types.TransactionStatus, error) {
	var ts types.TransactionStatus

	err := s.sq.
		Select("symbol", "shares", "updated_at").
		From("transaction_status").
		Where(squirrel.Eq{"symbol": symbol}).
		RunWith(s.db).
		QueryRow().
		Scan(&ts.Symbol, &ts.Shares, &ts.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ts, errors.Newf(errors.ErrCodeDataNotFound, "no transaction status for %s", symbol)
		}

		return ts, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query transaction status", err)
	}

	return ts, nil
}

// ListTransactions returns every transaction-status row.
func (s *Store) ListTransactions() ([]types.TransactionStatus, error) {
	rows, err := s.sq.
		Select("symbol", "shares", "updated_at").
		From("transaction_status").
		OrderBy("symbol").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list transactions", err)
	}
	defer rows.Close()

	var result []types.TransactionStatus

	for rows.Next() {
		var ts types.TransactionStatus
		if err := rows.Scan(&ts.Symbol, &ts.Shares, &ts.UpdatedAt); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan transaction status", err)
		}

		result = append(result, ts)
	}

	return result, rows.Err()
}
