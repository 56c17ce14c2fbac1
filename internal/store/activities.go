package store

import (
	"database/sql"
	"time"

	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// InsertActivities appends fill activities. Re-polled activities carry the
// same broker id and are skipped on conflict.
func (s *Store) InsertActivities(activities []types.Activity) error {
	for _, a := range activities {
		_, err := s.db.Exec(`
			INSERT INTO activities (
				id, activity_type, transaction_time, fill_type, symbol,
				side, qty, price, leaves_qty, cum_qty, order_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`,
			a.ID, string(a.ActivityType), a.TransactionTime, a.Type, a.Symbol,
			a.Side, a.Qty, a.Price, a.LeavesQty, a.CumQty, a.OrderID,
		)
		if err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert activity", err)
		}
	}

	return nil
}

// LatestActivityTime returns the newest stored transaction time. The poller
// uses it as the "after" cursor; ErrCodeDataNotFound means the table is
// empty and the poll should fetch from the beginning of the day.
func (s *Store) LatestActivityTime() (time.Time, error) {
	var ts sql.NullTime

	err := s.db.QueryRow(`SELECT MAX(transaction_time) FROM activities`).Scan(&ts)
	if err != nil {
		return time.Time{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query latest activity", err)
	}

	if !ts.Valid {
		return time.Time{}, errors.New(errors.ErrCodeDataNotFound, "no activities recorded")
	}

	return ts.Time, nil
}

// GetActivities returns all stored activities, newest first.
func (s *Store) GetActivities() ([]types.Activity, error) {
	rows, err := s.sq.
		Select(
			"id", "activity_type", "transaction_time", "fill_type", "symbol",
			"side", "qty", "price", "leaves_qty", "cum_qty", "order_id",
		).
		From("activities").
		OrderBy("transaction_time DESC").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query activities", err)
	}
	defer rows.Close()

	var result []types.Activity

	for rows.Next() {
		var a types.Activity

		var activityType string

		if err := rows.Scan(
			&a.ID, &activityType, &a.TransactionTime, &a.Type, &a.Symbol,
			&a.Side, &a.Qty, &a.Price, &a.LeavesQty, &a.CumQty, &a.OrderID,
		); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan activity", err)
		}

		a.ActivityType = types.ActivityType(activityType)
		result = append(result, a)
	}

	return result, rows.Err()
}
