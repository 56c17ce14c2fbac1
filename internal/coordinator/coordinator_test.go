package coordinator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/meridian-trading/meridian/internal/logger"
	"github.com/meridian-trading/meridian/internal/store"
	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// fakeBroker implements broker.Broker with canned responses.
type fakeBroker struct {
	placeErr      error
	placedOrders  []types.OrderRequest
	positions     []types.Position
	positionsErr  error
	account       types.Account
	accountErr    error
	activities    []types.Activity
	activitiesErr error
	lastAfter     time.Time
}

func (f *fakeBroker) GetAccount(context.Context) (types.Account, error) {
	return f.account, f.accountErr
}

func (f *fakeBroker) GetPositions(context.Context) ([]types.Position, error) {
	return f.positions, f.positionsErr
}

func (f *fakeBroker) GetActivitiesSince(_ context.Context, after time.Time) ([]types.Activity, error) {
	f.lastAfter = after
	return f.activities, f.activitiesErr
}

func (f *fakeBroker) PlaceOrder(_ context.Context, req types.OrderRequest) (types.Order, error) {
	if f.placeErr != nil {
		return types.Order{}, f.placeErr
	}

	f.placedOrders = append(f.placedOrders, req)

	return types.Order{
		ID:            fmt.Sprintf("ord-%d", len(f.placedOrders)),
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Side:          req.Side,
		Type:          req.Type,
		Qty:           req.Qty,
		Status:        types.OrderStatusNew,
	}, nil
}

func (f *fakeBroker) CancelOrder(context.Context, string) error {
	return nil
}

func (f *fakeBroker) GetOpenOrders(context.Context) ([]types.Order, error) {
	return nil, nil
}

type CoordinatorTestSuite struct {
	suite.Suite
	store  *store.Store
	broker *fakeBroker
	coord  *Coordinator
	cancel context.CancelFunc
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorTestSuite))
}

func (suite *CoordinatorTestSuite) SetupTest() {
	st, err := store.Open(":memory:", logger.NewTestLogger())
	suite.Require().NoError(err)

	suite.store = st
	suite.broker = &fakeBroker{}
	suite.coord = New(st, suite.broker, Config{}, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	suite.cancel = cancel

	go suite.coord.Run(ctx)
}

func (suite *CoordinatorTestSuite) TearDownTest() {
	suite.cancel()
	suite.coord.Close()
	suite.store.Close()
}

// seedBuyable makes symbol tradeable: active with trade size, a recent trade
// price, and account cash.
func (suite *CoordinatorTestSuite) seedBuyable(symbol string, tradeSize, price, cash float64) {
	suite.Require().NoError(suite.store.UpsertSymbol(types.Symbol{Symbol: symbol, Active: true, TradeSize: tradeSize}))
	suite.Require().NoError(suite.store.InsertTrade(types.TradeTick{
		Source:    types.FeedSourceAlpaca,
		Symbol:    symbol,
		Price:     price,
		Size:      100,
		Timestamp: time.Now().UTC(),
	}))
	suite.Require().NoError(suite.store.InsertAccount(types.Account{
		ID:         "acct",
		Cash:       cash,
		RecordedAt: time.Now().UTC(),
	}))
}

func (suite *CoordinatorTestSuite) TestBuyHappyPath() {
	suite.seedBuyable("AAPL", 10, 100, 10000)

	order, err := suite.coord.Buy("AAPL")
	suite.Require().NoError(err)
	suite.Equal("AAPL", order.Symbol)
	suite.Equal(types.OrderSideBuy, order.Side)
	suite.Equal(10.0, order.Qty)

	ts, err := suite.store.GetTransaction("AAPL")
	suite.Require().NoError(err)
	suite.Equal(0.0, ts.Shares)

	log, err := suite.store.OrderLogForSymbol("AAPL")
	suite.Require().NoError(err)
	suite.Require().Len(log, 1)
	suite.Equal(types.OrderLogOriginLocal, log[0].Origin)
}

func (suite *CoordinatorTestSuite) TestSecondBuyRejected() {
	suite.seedBuyable("AAPL", 10, 100, 10000)

	_, err := suite.coord.Buy("AAPL")
	suite.Require().NoError(err)

	_, err = suite.coord.Buy("AAPL")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodePositionExists))
	suite.Len(suite.broker.placedOrders, 1)
}

func (suite *CoordinatorTestSuite) TestBuyOtherSymbolUnaffected() {
	suite.seedBuyable("AAPL", 10, 100, 10000)
	suite.seedBuyable("MSFT", 5, 200, 10000)

	_, err := suite.coord.Buy("AAPL")
	suite.Require().NoError(err)

	_, err = suite.coord.Buy("MSFT")
	suite.NoError(err)
}

func (suite *CoordinatorTestSuite) TestBuyDisabled() {
	suite.seedBuyable("AAPL", 10, 100, 10000)
	suite.Require().NoError(suite.store.AppendSettings(types.Settings{
		BuyEnabled:  false,
		SellEnabled: true,
		RecordedAt:  time.Now().UTC(),
	}))

	_, err := suite.coord.Buy("AAPL")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeTradingDisabled))
	suite.Empty(suite.broker.placedOrders)

	_, err = suite.store.GetTransaction("AAPL")
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *CoordinatorTestSuite) TestBuyInactiveSymbol() {
	suite.seedBuyable("AAPL", 10, 100, 10000)
	suite.Require().NoError(suite.store.UpsertSymbol(types.Symbol{Symbol: "AAPL", Active: false, TradeSize: 10}))

	_, err := suite.coord.Buy("AAPL")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBuyNotAllowed))
}

func (suite *CoordinatorTestSuite) TestBuyFailureReleasesSlot() {
	suite.seedBuyable("AAPL", 10, 100, 10000)
	suite.broker.placeErr = errors.New(errors.ErrCodeOrderForbidden, "order forbidden")

	_, err := suite.coord.Buy("AAPL")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeOrderForbidden))

	// slot released, retry allowed
	suite.broker.placeErr = nil

	_, err = suite.coord.Buy("AAPL")
	suite.NoError(err)
}

func (suite *CoordinatorTestSuite) TestBuyWithNoCashReleasesSlot() {
	suite.seedBuyable("AAPL", 10, 100, 0)

	_, err := suite.coord.Buy("AAPL")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoSharesAvailable))
	suite.Empty(suite.broker.placedOrders)

	_, err = suite.store.GetTransaction("AAPL")
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *CoordinatorTestSuite) TestBuySizedByCash() {
	// cash allows 2.5 shares, trade size allows 10
	suite.seedBuyable("AAPL", 10, 100, 250)

	order, err := suite.coord.Buy("AAPL")
	suite.Require().NoError(err)
	suite.Equal(2.5, order.Qty)
}

func (suite *CoordinatorTestSuite) TestBuyRespectsCashReserve() {
	suite.seedBuyable("AAPL", 10, 100, 1000)
	suite.Require().NoError(suite.store.AppendSettings(types.Settings{
		BuyEnabled:  true,
		SellEnabled: true,
		CashReserve: 500,
		RecordedAt:  time.Now().UTC(),
	}))

	order, err := suite.coord.Buy("AAPL")
	suite.Require().NoError(err)
	suite.Equal(5.0, order.Qty)
}

func (suite *CoordinatorTestSuite) TestMaxBuyHonorsOrderValueCap() {
	suite.seedBuyable("AAPL", 10, 100, 10000)
	suite.Require().NoError(suite.store.AppendSettings(types.Settings{
		BuyEnabled:    true,
		SellEnabled:   true,
		MaxOrderValue: 300,
		RecordedAt:    time.Now().UTC(),
	}))

	estimate, err := suite.coord.MaxBuy("AAPL")
	suite.Require().NoError(err)
	suite.Equal(100.0, estimate.Price)
	suite.Equal(10000.0, estimate.CashAvailable)
	suite.Equal(3.0, estimate.QtyPossible)

	order, err := suite.coord.Buy("AAPL")
	suite.Require().NoError(err)
	suite.Equal(3.0, order.Qty)
}

func (suite *CoordinatorTestSuite) TestSellFillDecrementsAndCleans() {
	suite.Require().NoError(suite.store.ReconcileTransaction("AAPL", 10, time.Now().UTC()))

	partial := types.OrderEvent{
		Event: types.OrderEventPartialFill,
		Order: types.Order{ID: "ord-1", Symbol: "AAPL", Side: types.OrderSideSell},
		Qty:   4,
	}
	suite.Require().NoError(suite.coord.PublishOrderEvent(partial))
	suite.waitForShares("AAPL", 6)

	full := types.OrderEvent{
		Event: types.OrderEventFill,
		Order: types.Order{ID: "ord-1", Symbol: "AAPL", Side: types.OrderSideSell},
		Qty:   6,
	}
	suite.Require().NoError(suite.coord.PublishOrderEvent(full))
	suite.waitForNoTransaction("AAPL")
}

func (suite *CoordinatorTestSuite) TestBuyFillDoesNotDecrement() {
	suite.Require().NoError(suite.store.ReconcileTransaction("AAPL", 10, time.Now().UTC()))

	event := types.OrderEvent{
		Event: types.OrderEventFill,
		Order: types.Order{ID: "ord-1", Symbol: "AAPL", Side: types.OrderSideBuy},
		Qty:   10,
	}
	suite.Require().NoError(suite.coord.PublishOrderEvent(event))
	suite.waitForOrderLog("AAPL", 1)

	ts, err := suite.store.GetTransaction("AAPL")
	suite.Require().NoError(err)
	suite.Equal(10.0, ts.Shares)
}

func (suite *CoordinatorTestSuite) TestOrderEventAppendsLog() {
	event := types.OrderEvent{
		Event: types.OrderEventNew,
		Order: types.Order{ID: "ord-1", Symbol: "AAPL", Side: types.OrderSideBuy, Qty: 10},
	}
	suite.Require().NoError(suite.coord.PublishOrderEvent(event))
	suite.waitForOrderLog("AAPL", 1)

	log, err := suite.store.OrderLogForSymbol("AAPL")
	suite.Require().NoError(err)
	suite.Equal("new", log[0].Event)
	suite.Equal(types.OrderLogOriginStream, log[0].Origin)
}

func (suite *CoordinatorTestSuite) TestSellDisabled() {
	suite.Require().NoError(suite.store.AppendSettings(types.Settings{
		BuyEnabled:  true,
		SellEnabled: false,
		RecordedAt:  time.Now().UTC(),
	}))

	_, err := suite.coord.Sell("AAPL", 5)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeTradingDisabled))
}

func (suite *CoordinatorTestSuite) TestSellSubmitsDirectly() {
	order, err := suite.coord.Sell("AAPL", 5)
	suite.Require().NoError(err)
	suite.Equal(types.OrderSideSell, order.Side)
	suite.Equal(5.0, order.Qty)

	// no transaction row is created by a sell
	_, err = suite.store.GetTransaction("AAPL")
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *CoordinatorTestSuite) TestSyncPositionsReconciles() {
	suite.Require().NoError(suite.store.TryStartBuy("AAPL", time.Now().UTC()))
	suite.broker.positions = []types.Position{
		{Symbol: "AAPL", Qty: 12, RecordedAt: time.Now().UTC()},
		{Symbol: "MSFT", Qty: 3, RecordedAt: time.Now().UTC()},
	}

	suite.Require().NoError(suite.coord.SyncPositions())

	ts, err := suite.store.GetTransaction("AAPL")
	suite.Require().NoError(err)
	suite.Equal(12.0, ts.Shares)

	ts, err = suite.store.GetTransaction("MSFT")
	suite.Require().NoError(err)
	suite.Equal(3.0, ts.Shares)

	positions, err := suite.store.GetPositions()
	suite.Require().NoError(err)
	suite.Len(positions, 2)
}

func (suite *CoordinatorTestSuite) TestSyncActivitiesUsesCursor() {
	first := time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC)
	suite.broker.activities = []types.Activity{
		{ID: "act-1", TransactionTime: first, Symbol: "AAPL"},
	}

	suite.Require().NoError(suite.coord.SyncActivities())
	suite.True(suite.broker.lastAfter.IsZero())

	suite.broker.activities = nil
	suite.Require().NoError(suite.coord.SyncActivities())
	suite.Equal(first, suite.broker.lastAfter)
}

func (suite *CoordinatorTestSuite) TestSyncAccount() {
	suite.broker.account = types.Account{ID: "acct", Cash: 5000, RecordedAt: time.Now().UTC()}

	suite.Require().NoError(suite.coord.SyncAccount())

	account, err := suite.store.LatestAccount()
	suite.Require().NoError(err)
	suite.Equal(5000.0, account.Cash)
}

func (suite *CoordinatorTestSuite) TestResetTransactions() {
	suite.Require().NoError(suite.store.TryStartBuy("AAPL", time.Now().UTC()))
	suite.Require().NoError(suite.coord.ResetTransactions())

	_, err := suite.store.GetTransaction("AAPL")
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *CoordinatorTestSuite) TestLoadSettingsSeedsDefaults() {
	settings, err := suite.coord.LoadSettings()
	suite.Require().NoError(err)
	suite.True(settings.BuyEnabled)
	suite.True(settings.SellEnabled)

	// the seeded row is persisted
	stored, err := suite.store.CurrentSettings()
	suite.Require().NoError(err)
	suite.True(stored.BuyEnabled)
}

func (suite *CoordinatorTestSuite) TestStreamAlive() {
	alive, err := suite.coord.StreamAlive(types.FeedSourceAlpaca, time.Minute)
	suite.Require().NoError(err)
	suite.False(alive)

	suite.Require().NoError(suite.coord.PublishHeartbeat(types.Heartbeat{
		Source:    types.FeedSourceAlpaca,
		Timestamp: time.Now().UTC(),
	}))

	suite.Eventually(func() bool {
		alive, err := suite.coord.StreamAlive(types.FeedSourceAlpaca, time.Minute)
		return err == nil && alive
	}, 2*time.Second, 10*time.Millisecond)

	alive, err = suite.coord.StreamAlive(types.FeedSourceAlpaca, time.Nanosecond)
	suite.Require().NoError(err)
	suite.False(alive)
}

func (suite *CoordinatorTestSuite) TestPublishTradePersists() {
	suite.Require().NoError(suite.coord.PublishTrade(types.TradeTick{
		Source:    types.FeedSourceFinnhub,
		Symbol:    "AAPL",
		Price:     187.5,
		Timestamp: time.Now().UTC(),
	}))

	suite.Eventually(func() bool {
		price, err := suite.store.LatestTradePrice("AAPL")
		return err == nil && price == 187.5
	}, 2*time.Second, 10*time.Millisecond)
}

func (suite *CoordinatorTestSuite) TestPublishAfterCloseFails() {
	suite.coord.Close()

	err := suite.coord.PublishTrade(types.TradeTick{Symbol: "AAPL", Price: 1})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeChannelClosed))
}

func (suite *CoordinatorTestSuite) waitForShares(symbol string, want float64) {
	suite.Eventually(func() bool {
		ts, err := suite.store.GetTransaction(symbol)
		return err == nil && ts.Shares == want
	}, 2*time.Second, 10*time.Millisecond)
}

func (suite *CoordinatorTestSuite) waitForNoTransaction(symbol string) {
	suite.Eventually(func() bool {
		_, err := suite.store.GetTransaction(symbol)
		return errors.HasCode(err, errors.ErrCodeDataNotFound)
	}, 2*time.Second, 10*time.Millisecond)
}

func (suite *CoordinatorTestSuite) waitForOrderLog(symbol string, count int) {
	suite.Eventually(func() bool {
		log, err := suite.store.OrderLogForSymbol(symbol)
		return err == nil && len(log) >= count
	}, 2*time.Second, 10*time.Millisecond)
}
