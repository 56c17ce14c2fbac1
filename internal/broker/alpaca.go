package broker

import (
	"context"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/meridian-trading/meridian/internal/logger"
	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// alpacaAPI abstracts the Alpaca client for testing.
type alpacaAPI interface {
	GetAccount() (*alpaca.Account, error)
	GetPositions() ([]alpaca.Position, error)
	GetAccountActivities(req alpaca.GetAccountActivitiesRequest) ([]alpaca.AccountActivity, error)
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
	CancelOrder(orderID string) error
	GetOrders(req alpaca.GetOrdersRequest) ([]alpaca.Order, error)
}

// AlpacaBroker implements Broker against the Alpaca REST API.
type AlpacaBroker struct {
	api    alpacaAPI
	logger *logger.Logger
}

// NewAlpacaBroker creates a broker against the given endpoint and credentials.
func NewAlpacaBroker(keyID, secretKey, baseURL string, log *logger.Logger) *AlpacaBroker {
	client := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    keyID,
		APISecret: secretKey,
		BaseURL:   baseURL,
	})

	return &AlpacaBroker{
		api:    client,
		logger: log,
	}
}

// NewAlpacaBrokerWithAPI creates a broker with an injected API implementation.
func NewAlpacaBrokerWithAPI(api alpacaAPI, log *logger.Logger) *AlpacaBroker {
	return &AlpacaBroker{
		api:    api,
		logger: log,
	}
}

// GetAccount fetches the current account snapshot.
func (b *AlpacaBroker) GetAccount(_ context.Context) (types.Account, error) {
	account, err := b.api.GetAccount()
	if err != nil {
		return types.Account{}, errors.Wrap(errors.ErrCodeAccountFetchFailed, "failed to fetch account", err)
	}

	return convertAccount(account), nil
}

// GetPositions fetches all open positions.
func (b *AlpacaBroker) GetPositions(_ context.Context) ([]types.Position, error) {
	positions, err := b.api.GetPositions()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePositionFetchFailed, "failed to fetch positions", err)
	}

	now := time.Now().UTC()
	result := make([]types.Position, 0, len(positions))

	for _, p := range positions {
		result = append(result, convertPosition(p, now))
	}

	return result, nil
}

// GetActivitiesSince fetches fill activities after the given time.
func (b *AlpacaBroker) GetActivitiesSince(_ context.Context, after time.Time) ([]types.Activity, error) {
	req := alpaca.GetAccountActivitiesRequest{
		ActivityTypes: []string{string(types.ActivityTypeFill)},
	}
	if !after.IsZero() {
		req.After = after
	}

	activities, err := b.api.GetAccountActivities(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeActivityFetchFailed, "failed to fetch activities", err)
	}

	result := make([]types.Activity, 0, len(activities))
	for _, a := range activities {
		result = append(result, convertActivity(a))
	}

	return result, nil
}

// PlaceOrder submits an order. HTTP 403 and 422 map to distinct rejection
// codes so the trading flow can tell policy rejections from bad requests.
func (b *AlpacaBroker) PlaceOrder(_ context.Context, req types.OrderRequest) (types.Order, error) {
	if err := req.Validate(); err != nil {
		return types.Order{}, err
	}

	qty := decimal.NewFromFloat(req.Qty)
	placeReq := alpaca.PlaceOrderRequest{
		Symbol:        req.Symbol,
		Qty:           &qty,
		Side:          alpaca.Side(req.Side),
		Type:          alpaca.OrderType(req.Type),
		TimeInForce:   alpaca.TimeInForce(req.TimeInForce),
		ExtendedHours: req.ExtendedHours,
		ClientOrderID: req.ClientOrderID,
	}

	if req.LimitPrice.IsSome() {
		limit := decimal.NewFromFloat(req.LimitPrice.Unwrap())
		placeReq.LimitPrice = &limit
	}

	order, err := b.api.PlaceOrder(placeReq)
	if err != nil {
		b.logger.Warn("order rejected",
			zap.String("symbol", req.Symbol),
			zap.String("side", string(req.Side)),
			zap.Error(err),
		)

		return types.Order{}, mapOrderError(err)
	}

	return convertOrder(*order), nil
}

// CancelOrder cancels an open order by broker id.
func (b *AlpacaBroker) CancelOrder(_ context.Context, orderID string) error {
	if err := b.api.CancelOrder(orderID); err != nil {
		return errors.Wrapf(errors.ErrCodeOrderFailed, err, "failed to cancel order %s", orderID)
	}

	return nil
}

// GetOpenOrders lists orders that are still working.
func (b *AlpacaBroker) GetOpenOrders(_ context.Context) ([]types.Order, error) {
	orders, err := b.api.GetOrders(alpaca.GetOrdersRequest{Status: "open"})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrokerUnavailable, "failed to fetch open orders", err)
	}

	result := make([]types.Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, convertOrder(o))
	}

	return result, nil
}

// mapOrderError classifies an order submission failure by HTTP status.
func mapOrderError(err error) error {
	var apiErr *alpaca.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 403:
			return errors.Wrap(errors.ErrCodeOrderForbidden, "order forbidden", err)
		case 422:
			return errors.Wrap(errors.ErrCodeOrderUnprocessable, "order unprocessable", err)
		}
	}

	return errors.Wrap(errors.ErrCodeOrderFailed, "order submission failed", err)
}

func convertAccount(a *alpaca.Account) types.Account {
	return types.Account{
		ID:                a.ID,
		AccountNumber:     a.AccountNumber,
		Status:            types.AccountStatus(a.Status),
		Currency:          a.Currency,
		Cash:              a.Cash.InexactFloat64(),
		PortfolioValue:    a.PortfolioValue.InexactFloat64(),
		Equity:            a.Equity.InexactFloat64(),
		LastEquity:        a.LastEquity.InexactFloat64(),
		BuyingPower:       a.BuyingPower.InexactFloat64(),
		DaytradeCount:     a.DaytradeCount,
		PatternDayTrader:  a.PatternDayTrader,
		TradingBlocked:    a.TradingBlocked,
		TransfersBlocked:  a.TransfersBlocked,
		AccountBlocked:    a.AccountBlocked,
		ShortingEnabled:   a.ShortingEnabled,
		InitialMargin:     a.InitialMargin.InexactFloat64(),
		MaintenanceMargin: a.MaintenanceMargin.InexactFloat64(),
		CreatedAt:         a.CreatedAt,
		RecordedAt:        time.Now().UTC(),
	}
}

func convertPosition(p alpaca.Position, now time.Time) types.Position {
	pos := types.Position{
		Symbol:        p.Symbol,
		Exchange:      p.Exchange,
		Qty:           p.Qty.InexactFloat64(),
		AvgEntryPrice: p.AvgEntryPrice.InexactFloat64(),
		CostBasis:     p.CostBasis.InexactFloat64(),
		RecordedAt:    now,
	}

	if p.MarketValue != nil {
		pos.MarketValue = p.MarketValue.InexactFloat64()
	}

	if p.CurrentPrice != nil {
		pos.CurrentPrice = p.CurrentPrice.InexactFloat64()
	}

	if p.UnrealizedPL != nil {
		pos.UnrealizedPL = p.UnrealizedPL.InexactFloat64()
	}

	if p.UnrealizedPLPC != nil {
		pos.UnrealizedPLPC = p.UnrealizedPLPC.InexactFloat64()
	}

	return pos
}

func convertActivity(a alpaca.AccountActivity) types.Activity {
	return types.Activity{
		ID:              a.ID,
		ActivityType:    types.ActivityType(a.ActivityType),
		TransactionTime: a.TransactionTime,
		Type:            a.Type,
		Symbol:          a.Symbol,
		Side:            a.Side,
		Qty:             a.Qty.InexactFloat64(),
		Price:           a.Price.InexactFloat64(),
		LeavesQty:       a.LeavesQty.InexactFloat64(),
		CumQty:          a.CumQty.InexactFloat64(),
		OrderID:         a.OrderID,
	}
}

func convertOrder(o alpaca.Order) types.Order {
	order := types.Order{
		ID:            o.ID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          types.OrderSide(o.Side),
		Type:          types.OrderType(o.Type),
		TimeInForce:   types.TimeInForce(o.TimeInForce),
		FilledQty:     o.FilledQty.InexactFloat64(),
		Status:        types.OrderStatus(o.Status),
		ExtendedHours: o.ExtendedHours,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		SubmittedAt:   o.SubmittedAt,
		FilledAt:      o.FilledAt,
		ExpiredAt:     o.ExpiredAt,
		CanceledAt:    o.CanceledAt,
		FailedAt:      o.FailedAt,
	}

	if o.Qty != nil {
		order.Qty = o.Qty.InexactFloat64()
	}

	if o.LimitPrice != nil {
		order.LimitPrice = o.LimitPrice.InexactFloat64()
	}

	if o.FilledAvgPrice != nil {
		order.FilledAvgPrice = o.FilledAvgPrice.InexactFloat64()
	}

	return order
}
