package store

import (
	"database/sql"

	"github.com/Masterminds/squirrel"

	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// UpsertSymbol inserts or updates a watched symbol.
func (s *Store) UpsertSymbol(symbol types.Symbol) error {
	_, err := s.db.Exec(`
		INSERT INTO symbols (symbol, active, trade_size)
		VALUES (?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			active = excluded.active,
			trade_size = excluded.trade_size
	`, symbol.Symbol, symbol.Active, symbol.TradeSize)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to upsert symbol", err)
	}

	return nil
}

// GetSymbol returns the watched symbol row, or ErrCodeDataNotFound.
func (s *Store) GetSymbol(symbol string) (types.Symbol, error) {
	var result types.Symbol

	err := s.sq.
		Select("symbol", "active", "trade_size").
		From("symbols").
		Where(squirrel.Eq{"symbol": symbol}).
		RunWith(s.db).
		QueryRow().
		Scan(&result.Symbol, &result.Active, &result.TradeSize)
	if err != nil {
		if err == sql.ErrNoRows {
			return result, errors.Newf(errors.ErrCodeDataNotFound, "symbol %s not watched", symbol)
		}

		return result, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbol", err)
	}

	return result, nil
}

// ActiveSymbols returns the symbols currently enabled for trading.
func (s *Store) ActiveSymbols() ([]types.Symbol, error) {
	rows, err := s.sq.
		Select("symbol", "active", "trade_size").
		From("symbols").
		Where(squirrel.Eq{"active": true}).
		OrderBy("symbol").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	var result []types.Symbol

	for rows.Next() {
		var sym types.Symbol
		if err := rows.Scan(&sym.Symbol, &sym.Active, &sym.TradeSize); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		result = append(result, sym)
	}

	return result, rows.Err()
}
