package store

import (
	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// ReplacePositions swaps the stored position snapshot for the given one
// inside a single transaction.
func (s *Store) ReplacePositions(positions []types.Position) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to begin transaction", err)
	}

	if _, err := tx.Exec(`DELETE FROM positions`); err != nil {
		tx.Rollback()
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to clear positions", err)
	}

	for _, p := range positions {
		insert := s.sq.
			Insert("positions").
			Columns(
				"symbol", "exchange", "qty", "avg_entry_price", "market_value",
				"cost_basis", "current_price", "unrealized_pl", "unrealized_plpc",
				"recorded_at",
			).
			Values(
				p.Symbol, p.Exchange, p.Qty, p.AvgEntryPrice, p.MarketValue,
				p.CostBasis, p.CurrentPrice, p.UnrealizedPL, p.UnrealizedPLPC,
				p.RecordedAt,
			).
			RunWith(tx)

		if _, err := insert.Exec(); err != nil {
			tx.Rollback()
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert position", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to commit positions", err)
	}

	return nil
}

// GetPositions returns the stored position snapshot.
func (s *Store) GetPositions() ([]types.Position, error) {
	rows, err := s.sq.
		Select(
			"symbol", "exchange", "qty", "avg_entry_price", "market_value",
			"cost_basis", "current_price", "unrealized_pl", "unrealized_plpc",
			"recorded_at",
		).
		From("positions").
		OrderBy("symbol").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query positions", err)
	}
	defer rows.Close()

	var result []types.Position

	for rows.Next() {
		var p types.Position
		if err := rows.Scan(
			&p.Symbol, &p.Exchange, &p.Qty, &p.AvgEntryPrice, &p.MarketValue,
			&p.CostBasis, &p.CurrentPrice, &p.UnrealizedPL, &p.UnrealizedPLPC,
			&p.RecordedAt,
		); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan position", err)
		}

		result = append(result, p)
	}

	return result, rows.Err()
}
