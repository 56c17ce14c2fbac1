package store

import (
	"database/sql"

	"github.com/Masterminds/squirrel"

	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// InsertTrade appends a tick to the trades table and upserts the per-symbol
// latest-trade row.
func (s *Store) InsertTrade(tick types.TradeTick) error {
	_, err := s.sq.
		Insert("trades").
		Columns("source", "symbol", "price", "size", "ts").
		Values(string(tick.Source), tick.Symbol, tick.Price, tick.Size, tick.Timestamp).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert trade", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO trades_latest (symbol, source, price, size, ts)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			source = excluded.source,
			price = excluded.price,
			size = excluded.size,
			ts = excluded.ts
	`, tick.Symbol, string(tick.Source), tick.Price, tick.Size, tick.Timestamp)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to upsert latest trade", err)
	}

	return nil
}

// LatestTradePrice returns the most recent trade price for symbol, or
// ErrCodeDataNotFound if no trade has been seen.
func (s *Store) LatestTradePrice(symbol string) (float64, error) {
	var price float64

	err := s.sq.
		Select("price").
		From("trades_latest").
		Where(squirrel.Eq{"symbol": symbol}).
		RunWith(s.db).
		QueryRow().
		Scan(&price)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, errors.Newf(errors.ErrCodeDataNotFound, "no trades recorded for %s", symbol)
		}

		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query latest trade", err)
	}

	return price, nil
}

// InsertBar appends a minute bar.
func (s *Store) InsertBar(bar types.MinuteBar) error {
	_, err := s.sq.
		Insert("minute_bars").
		Columns("symbol", "open", "high", "low", "close", "volume", "ts").
		Values(bar.Symbol, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume, bar.Timestamp).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert bar", err)
	}

	return nil
}

// InsertHeartbeat records that a feed was alive.
func (s *Store) InsertHeartbeat(hb types.Heartbeat) error {
	_, err := s.sq.
		Insert("heartbeats").
		Columns("source", "ts").
		Values(string(hb.Source), hb.Timestamp).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert heartbeat", err)
	}

	return nil
}

// LatestHeartbeat returns the newest heartbeat time for source, or
// ErrCodeDataNotFound if the feed has never reported.
func (s *Store) LatestHeartbeat(source types.FeedSource) (types.Heartbeat, error) {
	var hb types.Heartbeat

	var src string

	err := s.sq.
		Select("source", "ts").
		From("heartbeats").
		Where(squirrel.Eq{"source": string(source)}).
		OrderBy("ts DESC").
		Limit(1).
		RunWith(s.db).
		QueryRow().
		Scan(&src, &hb.Timestamp)
	if err != nil {
		if err == sql.ErrNoRows {
			return hb, errors.Newf(errors.ErrCodeDataNotFound, "no heartbeat for %s", source)
		}

		return hb, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query heartbeat", err)
	}

	hb.Source = types.FeedSource(src)

	return hb, nil
}
