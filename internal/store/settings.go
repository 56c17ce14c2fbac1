package store

import (
	"database/sql"

	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// AppendSettings records a new settings row. Rows are append-only; history
// is queryable and the latest row is current.
func (s *Store) AppendSettings(settings types.Settings) error {
	_, err := s.sq.
		Insert("settings").
		Columns("buy_enabled", "sell_enabled", "cash_reserve", "max_order_value", "recorded_at").
		Values(
			settings.BuyEnabled, settings.SellEnabled, settings.CashReserve,
			settings.MaxOrderValue, settings.RecordedAt,
		).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to append settings", err)
	}

	return nil
}

// CurrentSettings returns the most recently recorded settings row, or
// ErrCodeDataNotFound when the table is empty.
func (s *Store) CurrentSettings() (types.Settings, error) {
	var settings types.Settings

	err := s.sq.
		Select("buy_enabled", "sell_enabled", "cash_reserve", "max_order_value", "recorded_at").
		From("settings").
		OrderBy("recorded_at DESC").
		Limit(1).
		RunWith(s.db).
		QueryRow().
		Scan(
			&settings.BuyEnabled, &settings.SellEnabled, &settings.CashReserve,
			&settings.MaxOrderValue, &settings.RecordedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return settings, errors.New(errors.ErrCodeDataNotFound, "no settings recorded")
		}

		return settings, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query settings", err)
	}

	return settings, nil
}
