package coordinator

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// handleBuy runs the gated buy flow for symbol. The transaction-status insert
// claims the per-symbol slot before any broker call; the row is removed again
// when sizing fails or the broker rejects the order.
func (c *Coordinator) handleBuy(ctx context.Context, symbol string) (types.Order, error) {
	settings, err := c.loadSettings()
	if err != nil {
		return types.Order{}, err
	}

	if !settings.BuyEnabled {
		return types.Order{}, errors.New(errors.ErrCodeTradingDisabled, "buying is disabled")
	}

	watched, err := c.store.GetSymbol(symbol)
	if err != nil {
		return types.Order{}, err
	}

	if !watched.Active {
		return types.Order{}, errors.Newf(errors.ErrCodeBuyNotAllowed, "symbol %s is not active", symbol)
	}

	if err := c.store.TryStartBuy(symbol, c.now()); err != nil {
		return types.Order{}, err
	}

	estimate, err := c.maxBuyPossible(symbol, settings)
	if err != nil {
		c.releaseBuySlot(symbol)
		return types.Order{}, err
	}

	qty := roundQty(math.Min(watched.TradeSize, estimate.QtyPossible), estimate.Price)
	if qty <= 0 {
		c.releaseBuySlot(symbol)
		return types.Order{}, errors.Newf(errors.ErrCodeNoSharesAvailable, "no shares affordable for %s", symbol)
	}

	req := types.NewOrderRequest(symbol, types.OrderSideBuy, qty)
	req.ExtendedHours = c.config.ExtendedHours

	order, err := c.broker.PlaceOrder(ctx, req)
	if err != nil {
		c.releaseBuySlot(symbol)
		return types.Order{}, err
	}

	c.recordLocalOrder(order, "submitted")

	return order, nil
}

// handleSell submits a sell order. The transaction-status row is left alone;
// sell fills decrement it via the trade-updates stream.
func (c *Coordinator) handleSell(ctx context.Context, symbol string, qty float64) (types.Order, error) {
	settings, err := c.loadSettings()
	if err != nil {
		return types.Order{}, err
	}

	if !settings.SellEnabled {
		return types.Order{}, errors.New(errors.ErrCodeTradingDisabled, "selling is disabled")
	}

	req := types.NewOrderRequest(symbol, types.OrderSideSell, qty)
	req.ExtendedHours = c.config.ExtendedHours

	order, err := c.broker.PlaceOrder(ctx, req)
	if err != nil {
		return types.Order{}, err
	}

	c.recordLocalOrder(order, "submitted")

	return order, nil
}

// handlePostOrder submits a prebuilt request without the buy gate. Used for
// manual and corrective orders.
func (c *Coordinator) handlePostOrder(ctx context.Context, req types.OrderRequest) (types.Order, error) {
	order, err := c.broker.PlaceOrder(ctx, req)
	if err != nil {
		return types.Order{}, err
	}

	c.recordLocalOrder(order, "submitted")

	return order, nil
}

// handleOrderEvent applies a trade-update: upsert the order, append the log
// entry, and on sell fills decrement the transaction row then clean.
func (c *Coordinator) handleOrderEvent(event types.OrderEvent) {
	if event.Order.ID != "" {
		if err := c.store.SaveOrder(event.Order); err != nil {
			c.logger.Error("failed to save order from event", zap.String("order_id", event.Order.ID), zap.Error(err))
		}
	}

	entry := types.OrderLogEntry{
		Origin:     types.OrderLogOriginStream,
		Event:      string(event.Event),
		OrderID:    event.Order.ID,
		Symbol:     event.Order.Symbol,
		Side:       string(event.Order.Side),
		Qty:        event.Qty,
		Price:      event.Price,
		RecordedAt: c.now(),
	}
	if err := c.store.AppendOrderLog(entry); err != nil {
		c.logger.Error("failed to append order log", zap.String("order_id", event.Order.ID), zap.Error(err))
	}

	isFill := event.Event == types.OrderEventFill || event.Event == types.OrderEventPartialFill
	if !isFill || event.Order.Side != types.OrderSideSell {
		return
	}

	if err := c.store.DecrementShares(event.Order.Symbol, event.Qty, c.now()); err != nil {
		c.logger.Error("failed to decrement shares", zap.String("symbol", event.Order.Symbol), zap.Error(err))
		return
	}

	if err := c.store.CleanTransactions(); err != nil {
		c.logger.Error("failed to clean transactions", zap.Error(err))
	}
}

// maxBuyPossible derives the affordable share count from the latest trade
// price, the account cash, and the settings reserve and order-value cap.
// Callers pass the settings they already hold so a buy reads them once.
func (c *Coordinator) maxBuyPossible(symbol string, settings types.Settings) (types.MaxBuyEstimate, error) {
	price, err := c.store.LatestTradePrice(symbol)
	if err != nil {
		return types.MaxBuyEstimate{}, err
	}

	if price <= 0 {
		return types.MaxBuyEstimate{}, errors.Newf(errors.ErrCodeInvalidParameter, "non-positive price for %s", symbol)
	}

	cash, err := c.store.CashAvailable(settings.CashReserve)
	if err != nil {
		return types.MaxBuyEstimate{}, err
	}

	budget := cash
	if settings.MaxOrderValue > 0 && settings.MaxOrderValue < budget {
		budget = settings.MaxOrderValue
	}

	return types.MaxBuyEstimate{
		Symbol:        symbol,
		Price:         price,
		CashAvailable: cash,
		QtyPossible:   budget / price,
	}, nil
}

// releaseBuySlot removes the freshly claimed transaction row after a failed
// buy so the symbol is not locked out.
func (c *Coordinator) releaseBuySlot(symbol string) {
	if err := c.store.DeleteTransaction(symbol); err != nil {
		c.logger.Error("failed to release buy slot", zap.String("symbol", symbol), zap.Error(err))
	}
}

// recordLocalOrder persists a locally submitted order and its log entry.
func (c *Coordinator) recordLocalOrder(order types.Order, event string) {
	if err := c.store.SaveOrder(order); err != nil {
		c.logger.Error("failed to save order", zap.String("order_id", order.ID), zap.Error(err))
	}

	entry := types.OrderLogEntry{
		Origin:     types.OrderLogOriginLocal,
		Event:      event,
		OrderID:    order.ID,
		Symbol:     order.Symbol,
		Side:       string(order.Side),
		Qty:        order.Qty,
		Price:      order.LimitPrice,
		RecordedAt: c.now(),
	}
	if err := c.store.AppendOrderLog(entry); err != nil {
		c.logger.Error("failed to append order log", zap.String("order_id", order.ID), zap.Error(err))
	}
}

// roundQty rounds a share count down: two decimals for stocks at or above a
// dollar, four below.
func roundQty(qty, price float64) float64 {
	scale := 100.0
	if price < 1 {
		scale = 10000.0
	}

	return math.Floor(qty*scale) / scale
}
