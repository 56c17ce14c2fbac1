package store

import (
	"database/sql"

	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// InsertAccount appends an account snapshot. History is kept; the latest row
// is the current account state.
func (s *Store) InsertAccount(account types.Account) error {
	_, err := s.sq.
		Insert("accounts").
		Columns(
			"id", "account_number", "status", "currency", "cash",
			"portfolio_value", "equity", "last_equity", "buying_power",
			"daytrade_count", "pattern_day_trader", "trading_blocked",
			"transfers_blocked", "account_blocked", "shorting_enabled",
			"initial_margin", "maintenance_margin", "created_at", "recorded_at",
		).
		Values(
			account.ID, account.AccountNumber, string(account.Status),
			account.Currency, account.Cash, account.PortfolioValue,
			account.Equity, account.LastEquity, account.BuyingPower,
			account.DaytradeCount, account.PatternDayTrader,
			account.TradingBlocked, account.TransfersBlocked,
			account.AccountBlocked, account.ShortingEnabled,
			account.InitialMargin, account.MaintenanceMargin,
			account.CreatedAt, account.RecordedAt,
		).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert account", err)
	}

	return nil
}

// LatestAccount returns the newest account snapshot, or ErrCodeDataNotFound
// if no snapshot has been recorded yet.
func (s *Store) LatestAccount() (types.Account, error) {
	var account types.Account

	var status string

	err := s.sq.
		Select(
			"id", "account_number", "status", "currency", "cash",
			"portfolio_value", "equity", "last_equity", "buying_power",
			"daytrade_count", "pattern_day_trader", "trading_blocked",
			"transfers_blocked", "account_blocked", "shorting_enabled",
			"initial_margin", "maintenance_margin", "created_at", "recorded_at",
		).
		From("accounts").
		OrderBy("recorded_at DESC").
		Limit(1).
		RunWith(s.db).
		QueryRow().
		Scan(
			&account.ID, &account.AccountNumber, &status, &account.Currency,
			&account.Cash, &account.PortfolioValue, &account.Equity,
			&account.LastEquity, &account.BuyingPower, &account.DaytradeCount,
			&account.PatternDayTrader, &account.TradingBlocked,
			&account.TransfersBlocked, &account.AccountBlocked,
			&account.ShortingEnabled, &account.InitialMargin,
			&account.MaintenanceMargin, &account.CreatedAt, &account.RecordedAt,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return account, errors.New(errors.ErrCodeDataNotFound, "no account snapshot recorded")
		}

		return account, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query account", err)
	}

	account.Status = types.AccountStatus(status)

	return account, nil
}

// CashAvailable returns the latest account cash minus reserve. Never
// negative.
func (s *Store) CashAvailable(reserve float64) (float64, error) {
	account, err := s.LatestAccount()
	if err != nil {
		return 0, err
	}

	available := account.Cash - reserve
	if available < 0 {
		available = 0
	}

	return available, nil
}
