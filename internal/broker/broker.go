// Package broker wraps the Alpaca trading API behind an interface so the
// coordinator and poller can be tested against a fake.
package broker

import (
	"context"
	"time"

	"github.com/meridian-trading/meridian/internal/types"
)

// Broker is the REST trading surface the agent depends on.
type Broker interface {
	// GetAccount fetches the current account snapshot.
	GetAccount(ctx context.Context) (types.Account, error)
	// GetPositions fetches all open positions.
	GetPositions(ctx context.Context) ([]types.Position, error)
	// GetActivitiesSince fetches fill activities after the given time. A zero
	// time fetches without a cursor.
	GetActivitiesSince(ctx context.Context, after time.Time) ([]types.Activity, error)
	// PlaceOrder submits an order and returns the broker's view of it.
	PlaceOrder(ctx context.Context, req types.OrderRequest) (types.Order, error)
	// CancelOrder cancels an open order by broker id.
	CancelOrder(ctx context.Context, orderID string) error
	// GetOpenOrders lists orders that are still working.
	GetOpenOrders(ctx context.Context) ([]types.Order, error)
}
