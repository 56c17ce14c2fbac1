package store

import (
	"github.com/Masterminds/squirrel"

	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// SaveOrder upserts a broker order by id. Trade-update events carry the full
// order, so the latest event wins.
func (s *Store) SaveOrder(order types.Order) error {
	_, err := s.db.Exec(`
		INSERT INTO orders (
			id, client_order_id, symbol, side, order_type, time_in_force,
			qty, filled_qty, limit_price, filled_avg_price, status,
			extended_hours, created_at, updated_at, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			filled_qty = excluded.filled_qty,
			filled_avg_price = excluded.filled_avg_price,
			status = excluded.status,
			updated_at = excluded.updated_at
	`,
		order.ID, order.ClientOrderID, order.Symbol, string(order.Side),
		string(order.Type), string(order.TimeInForce), order.Qty,
		order.FilledQty, order.LimitPrice, order.FilledAvgPrice,
		string(order.Status), order.ExtendedHours, order.CreatedAt,
		order.UpdatedAt, order.SubmittedAt,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to save order", err)
	}

	return nil
}

// GetOrder returns the stored order with the given id.
func (s *Store) GetOrder(id string) (types.Order, error) {
	var order types.Order

	var side, orderType, tif, status string

	err := s.sq.
		Select(
			"id", "client_order_id", "symbol", "side", "order_type",
			"time_in_force", "qty", "filled_qty", "limit_price",
			"filled_avg_price", "status", "extended_hours",
			"created_at", "updated_at", "submitted_at",
		).
		From("orders").
		Where(squirrel.Eq{"id": id}).
		RunWith(s.db).
		QueryRow().
		Scan(
			&order.ID, &order.ClientOrderID, &order.Symbol, &side, &orderType,
			&tif, &order.Qty, &order.FilledQty, &order.LimitPrice,
			&order.FilledAvgPrice, &status, &order.ExtendedHours,
			&order.CreatedAt, &order.UpdatedAt, &order.SubmittedAt,
		)
	if err != nil {
		return order, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query order", err)
	}

	order.Side = types.OrderSide(side)
	order.Type = types.OrderType(orderType)
	order.TimeInForce = types.TimeInForce(tif)
	order.Status = types.OrderStatus(status)

	return order, nil
}

// AppendOrderLog appends an order-log entry.
func (s *Store) AppendOrderLog(entry types.OrderLogEntry) error {
	_, err := s.sq.
		Insert("order_log").
		Columns("origin", "event", "order_id", "symbol", "side", "qty", "price", "detail", "recorded_at").
		Values(
			string(entry.Origin), entry.Event, entry.OrderID, entry.Symbol,
			entry.Side, entry.Qty, entry.Price, entry.Detail, entry.RecordedAt,
		).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to append order log", err)
	}

	return nil
}

// OrderLogForSymbol returns the order-log entries for symbol, newest first.
func (s *Store) OrderLogForSymbol(symbol string) ([]types.OrderLogEntry, error) {
	rows, err := s.sq.
		Select("origin", "event", "order_id", "symbol", "side", "qty", "price", "detail", "recorded_at").
		From("order_log").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("recorded_at DESC").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query order log", err)
	}
	defer rows.Close()

	var result []types.OrderLogEntry

	for rows.Next() {
		var entry types.OrderLogEntry

		var origin string

		if err := rows.Scan(
			&origin, &entry.Event, &entry.OrderID, &entry.Symbol,
			&entry.Side, &entry.Qty, &entry.Price, &entry.Detail, &entry.RecordedAt,
		); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan order log", err)
		}

		entry.Origin = types.OrderLogOrigin(origin)
		result = append(result, entry)
	}

	return result, rows.Err()
}
