// Package coordinator serializes all trading-state mutations through a single
// consumer loop. Producers publish typed messages; the consumer handles each
// one fully before dequeuing the next, so the store never sees interleaved
// trading mutations. The uniqueness constraint on transaction_status remains
// the second line of defense.
package coordinator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-trading/meridian/internal/broker"
	"github.com/meridian-trading/meridian/internal/logger"
	"github.com/meridian-trading/meridian/internal/store"
	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// responseTimeout bounds how long a caller waits for the consumer loop.
const responseTimeout = 30 * time.Second

// Config carries the trading parameters the coordinator needs.
type Config struct {
	ExtendedHours bool
}

// Coordinator owns the message queue and all access to the store and broker.
type Coordinator struct {
	store  *store.Store
	broker broker.Broker
	logger *logger.Logger
	queue  *queue
	config Config
	now    func() time.Time
}

// New creates a coordinator. The consumer does not run until Run is called.
func New(st *store.Store, br broker.Broker, cfg Config, log *logger.Logger) *Coordinator {
	return &Coordinator{
		store:  st,
		broker: br,
		logger: log,
		queue:  newQueue(),
		config: cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run consumes messages until ctx is done. Strictly sequential: one message
// is fully handled before the next is dequeued.
func (c *Coordinator) Run(ctx context.Context) {
	c.queue.Run(ctx, func(msg Message) {
		c.handle(ctx, msg)
	})
}

// Close stops the queue from accepting new messages.
func (c *Coordinator) Close() {
	c.queue.Close()
}

func (c *Coordinator) handle(ctx context.Context, msg Message) {
	switch m := msg.(type) {
	case TradeTickMsg:
		if err := c.store.InsertTrade(m.Tick); err != nil {
			c.logger.Error("failed to persist trade", zap.String("symbol", m.Tick.Symbol), zap.Error(err))
		}
	case MinuteBarMsg:
		if err := c.store.InsertBar(m.Bar); err != nil {
			c.logger.Error("failed to persist bar", zap.String("symbol", m.Bar.Symbol), zap.Error(err))
		}
	case HeartbeatMsg:
		if err := c.store.InsertHeartbeat(m.Heartbeat); err != nil {
			c.logger.Error("failed to persist heartbeat", zap.String("source", string(m.Heartbeat.Source)), zap.Error(err))
		}
	case OrderEventMsg:
		c.handleOrderEvent(m.Event)
	case BuyMsg:
		order, err := c.handleBuy(ctx, m.Symbol)
		m.Resp <- OrderResult{Order: order, Err: err}
	case SellMsg:
		order, err := c.handleSell(ctx, m.Symbol, m.Qty)
		m.Resp <- OrderResult{Order: order, Err: err}
	case PostOrderMsg:
		order, err := c.handlePostOrder(ctx, m.Request)
		m.Resp <- OrderResult{Order: order, Err: err}
	case DecrementMsg:
		if err := c.store.DecrementShares(m.Symbol, m.Qty, c.now()); err != nil {
			c.logger.Error("failed to decrement shares", zap.String("symbol", m.Symbol), zap.Error(err))
		}
	case CleanMsg:
		if err := c.store.CleanTransactions(); err != nil {
			c.logger.Error("failed to clean transactions", zap.Error(err))
		}
	case ReconcileTransactionMsg:
		if err := c.store.ReconcileTransaction(m.Symbol, m.Shares, c.now()); err != nil {
			c.logger.Error("failed to reconcile transaction", zap.String("symbol", m.Symbol), zap.Error(err))
		}
	case DeleteTransactionMsg:
		if err := c.store.DeleteTransaction(m.Symbol); err != nil {
			c.logger.Error("failed to delete transaction", zap.String("symbol", m.Symbol), zap.Error(err))
		}
	case ResetTransactionsMsg:
		m.Resp <- c.store.ResetTransactions()
	case LoadSettingsMsg:
		settings, err := c.loadSettings()
		m.Resp <- SettingsResult{Settings: settings, Err: err}
	case SaveSettingsMsg:
		m.Resp <- c.store.AppendSettings(m.Settings)
	case ActiveSymbolsMsg:
		symbols, err := c.store.ActiveSymbols()
		m.Resp <- SymbolsResult{Symbols: symbols, Err: err}
	case MaxBuyMsg:
		estimate, err := c.maxBuyEstimate(m.Symbol)
		m.Resp <- MaxBuyResult{Estimate: estimate, Err: err}
	case StreamAliveMsg:
		alive, err := c.streamAlive(m.Source, m.Threshold)
		m.Resp <- AliveResult{Alive: alive, Err: err}
	case SyncActivitiesMsg:
		m.Resp <- c.syncActivities(ctx)
	case SyncPositionsMsg:
		m.Resp <- c.syncPositions(ctx)
	case SyncAccountMsg:
		m.Resp <- c.syncAccount(ctx)
	}
}

// loadSettings returns the current settings, seeding the defaults when the
// table is empty.
func (c *Coordinator) loadSettings() (types.Settings, error) {
	settings, err := c.store.CurrentSettings()
	if err == nil {
		return settings, nil
	}

	if !errors.HasCode(err, errors.ErrCodeDataNotFound) {
		return types.Settings{}, err
	}

	settings = types.DefaultSettings(c.now())
	if err := c.store.AppendSettings(settings); err != nil {
		return types.Settings{}, err
	}

	return settings, nil
}

// maxBuyEstimate loads the current settings and derives the sizing bound.
func (c *Coordinator) maxBuyEstimate(symbol string) (types.MaxBuyEstimate, error) {
	settings, err := c.loadSettings()
	if err != nil {
		return types.MaxBuyEstimate{}, err
	}

	return c.maxBuyPossible(symbol, settings)
}

// streamAlive reports whether source's newest heartbeat is younger than
// threshold. A feed that never reported is not alive.
func (c *Coordinator) streamAlive(source types.FeedSource, threshold time.Duration) (bool, error) {
	hb, err := c.store.LatestHeartbeat(source)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeDataNotFound) {
			return false, nil
		}

		return false, err
	}

	return c.now().Sub(hb.Timestamp) < threshold, nil
}

// syncActivities pulls fill activities since the newest stored one.
func (c *Coordinator) syncActivities(ctx context.Context) error {
	var after time.Time

	ts, err := c.store.LatestActivityTime()
	if err == nil {
		after = ts
	} else if !errors.HasCode(err, errors.ErrCodeDataNotFound) {
		return err
	}

	activities, err := c.broker.GetActivitiesSince(ctx, after)
	if err != nil {
		return err
	}

	return c.store.InsertActivities(activities)
}

// syncPositions replaces the stored snapshot and reconciles every
// transaction-status row with the broker-reported share counts.
func (c *Coordinator) syncPositions(ctx context.Context) error {
	positions, err := c.broker.GetPositions(ctx)
	if err != nil {
		return err
	}

	if err := c.store.ReplacePositions(positions); err != nil {
		return err
	}

	now := c.now()
	for _, p := range positions {
		if err := c.store.ReconcileTransaction(p.Symbol, p.Qty, now); err != nil {
			c.logger.Error("failed to reconcile position", zap.String("symbol", p.Symbol), zap.Error(err))
		}
	}

	return nil
}

// syncAccount pulls and persists the account snapshot.
func (c *Coordinator) syncAccount(ctx context.Context) error {
	account, err := c.broker.GetAccount(ctx)
	if err != nil {
		return err
	}

	return c.store.InsertAccount(account)
}

// ask publishes msg and waits for a reply on recv with a timeout.
func ask[T any](c *Coordinator, msg Message, recv chan T) (T, error) {
	var zero T

	if err := c.queue.Publish(msg); err != nil {
		return zero, err
	}

	select {
	case result := <-recv:
		return result, nil
	case <-time.After(responseTimeout):
		return zero, errors.New(errors.ErrCodeNoResponse, "coordinator did not respond")
	}
}

// PublishTrade enqueues a trade tick for persistence.
func (c *Coordinator) PublishTrade(tick types.TradeTick) error {
	return c.queue.Publish(TradeTickMsg{Tick: tick})
}

// PublishBar enqueues a minute bar for persistence.
func (c *Coordinator) PublishBar(bar types.MinuteBar) error {
	return c.queue.Publish(MinuteBarMsg{Bar: bar})
}

// PublishHeartbeat enqueues a feed heartbeat.
func (c *Coordinator) PublishHeartbeat(hb types.Heartbeat) error {
	return c.queue.Publish(HeartbeatMsg{Heartbeat: hb})
}

// PublishOrderEvent enqueues a trade-update lifecycle event.
func (c *Coordinator) PublishOrderEvent(event types.OrderEvent) error {
	return c.queue.Publish(OrderEventMsg{Event: event})
}

// Buy runs the gated buy flow and blocks for the result.
func (c *Coordinator) Buy(symbol string) (types.Order, error) {
	resp := make(chan OrderResult, 1)

	result, err := ask(c, BuyMsg{Symbol: symbol, Resp: resp}, resp)
	if err != nil {
		return types.Order{}, err
	}

	return result.Order, result.Err
}

// Sell submits a sell order and blocks for the result.
func (c *Coordinator) Sell(symbol string, qty float64) (types.Order, error) {
	resp := make(chan OrderResult, 1)

	result, err := ask(c, SellMsg{Symbol: symbol, Qty: qty, Resp: resp}, resp)
	if err != nil {
		return types.Order{}, err
	}

	return result.Order, result.Err
}

// PostOrder submits a prebuilt order request and blocks for the result.
func (c *Coordinator) PostOrder(req types.OrderRequest) (types.Order, error) {
	resp := make(chan OrderResult, 1)

	result, err := ask(c, PostOrderMsg{Request: req, Resp: resp}, resp)
	if err != nil {
		return types.Order{}, err
	}

	return result.Order, result.Err
}

// ResetTransactions clears all transaction-status rows. Run at startup.
func (c *Coordinator) ResetTransactions() error {
	resp := make(chan error, 1)

	result, err := ask(c, ResetTransactionsMsg{Resp: resp}, resp)
	if err != nil {
		return err
	}

	return result
}

// LoadSettings returns the current settings.
func (c *Coordinator) LoadSettings() (types.Settings, error) {
	resp := make(chan SettingsResult, 1)

	result, err := ask(c, LoadSettingsMsg{Resp: resp}, resp)
	if err != nil {
		return types.Settings{}, err
	}

	return result.Settings, result.Err
}

// SaveSettings appends a settings row.
func (c *Coordinator) SaveSettings(settings types.Settings) error {
	resp := make(chan error, 1)

	result, err := ask(c, SaveSettingsMsg{Settings: settings, Resp: resp}, resp)
	if err != nil {
		return err
	}

	return result
}

// ActiveSymbols returns the symbols enabled for trading.
func (c *Coordinator) ActiveSymbols() ([]types.Symbol, error) {
	resp := make(chan SymbolsResult, 1)

	result, err := ask(c, ActiveSymbolsMsg{Resp: resp}, resp)
	if err != nil {
		return nil, err
	}

	return result.Symbols, result.Err
}

// MaxBuy returns the cash-derived sizing bound for symbol.
func (c *Coordinator) MaxBuy(symbol string) (types.MaxBuyEstimate, error) {
	resp := make(chan MaxBuyResult, 1)

	result, err := ask(c, MaxBuyMsg{Symbol: symbol, Resp: resp}, resp)
	if err != nil {
		return types.MaxBuyEstimate{}, err
	}

	return result.Estimate, result.Err
}

// StreamAlive reports whether source's heartbeat is younger than threshold.
func (c *Coordinator) StreamAlive(source types.FeedSource, threshold time.Duration) (bool, error) {
	resp := make(chan AliveResult, 1)

	result, err := ask(c, StreamAliveMsg{Source: source, Threshold: threshold, Resp: resp}, resp)
	if err != nil {
		return false, err
	}

	return result.Alive, result.Err
}

// SyncActivities runs an activity pull inside the consumer loop.
func (c *Coordinator) SyncActivities() error {
	resp := make(chan error, 1)

	result, err := ask(c, SyncActivitiesMsg{Resp: resp}, resp)
	if err != nil {
		return err
	}

	return result
}

// SyncPositions runs a position snapshot inside the consumer loop.
func (c *Coordinator) SyncPositions() error {
	resp := make(chan error, 1)

	result, err := ask(c, SyncPositionsMsg{Resp: resp}, resp)
	if err != nil {
		return err
	}

	return result
}

// SyncAccount runs an account snapshot inside the consumer loop.
func (c *Coordinator) SyncAccount() error {
	resp := make(chan error, 1)

	result, err := ask(c, SyncAccountMsg{Resp: resp}, resp)
	if err != nil {
		return err
	}

	return result
}
