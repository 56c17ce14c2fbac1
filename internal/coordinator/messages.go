package coordinator

import (
	"time"

	"github.com/meridian-trading/meridian/internal/types"
)

// Message is the sealed set of coordinator inputs. Every mutation of trading
// state flows through one of these variants so the consumer loop serializes
// them.
type Message interface {
	isMessage()
}

// TradeTickMsg persists a market-data trade print.
type TradeTickMsg struct {
	Tick types.TradeTick
}

// MinuteBarMsg persists an aggregated minute bar.
type MinuteBarMsg struct {
	Bar types.MinuteBar
}

// HeartbeatMsg records feed liveness.
type HeartbeatMsg struct {
	Heartbeat types.Heartbeat
}

// OrderEventMsg applies a trade-update lifecycle event: order upsert,
// order-log append, and on sell fills the transaction-status decrement.
type OrderEventMsg struct {
	Event types.OrderEvent
}

// BuyMsg runs the gated buy flow for a symbol.
type BuyMsg struct {
	Symbol string
	Resp   chan OrderResult
}

// SellMsg submits a sell order for a symbol.
type SellMsg struct {
	Symbol string
	Qty    float64
	Resp   chan OrderResult
}

// PostOrderMsg submits an already built order request.
type PostOrderMsg struct {
	Request types.OrderRequest
	Resp    chan OrderResult
}

// DecrementMsg subtracts sold shares from a transaction-status row.
type DecrementMsg struct {
	Symbol string
	Qty    float64
}

// CleanMsg removes transaction-status rows with no shares left.
type CleanMsg struct{}

// ReconcileTransactionMsg overwrites a transaction-status row with the
// broker-reported share count.
type ReconcileTransactionMsg struct {
	Symbol string
	Shares float64
}

// DeleteTransactionMsg releases the buy slot for a symbol.
type DeleteTransactionMsg struct {
	Symbol string
}

// ResetTransactionsMsg clears every transaction-status row.
type ResetTransactionsMsg struct {
	Resp chan error
}

// LoadSettingsMsg reads the current settings row.
type LoadSettingsMsg struct {
	Resp chan SettingsResult
}

// SaveSettingsMsg appends a settings row.
type SaveSettingsMsg struct {
	Settings types.Settings
	Resp     chan error
}

// ActiveSymbolsMsg reads the symbols enabled for trading.
type ActiveSymbolsMsg struct {
	Resp chan SymbolsResult
}

// MaxBuyMsg computes the cash-derived sizing bound for a symbol.
type MaxBuyMsg struct {
	Symbol string
	Resp   chan MaxBuyResult
}

// StreamAliveMsg reports whether a feed heartbeat is younger than the
// threshold.
type StreamAliveMsg struct {
	Source    types.FeedSource
	Threshold time.Duration
	Resp      chan AliveResult
}

// SyncActivitiesMsg pulls fill activities from the broker since the latest
// stored one and persists them.
type SyncActivitiesMsg struct {
	Resp chan error
}

// SyncPositionsMsg pulls the position snapshot from the broker, replaces the
// stored snapshot, and reconciles every transaction-status row.
type SyncPositionsMsg struct {
	Resp chan error
}

// SyncAccountMsg pulls and persists the account snapshot.
type SyncAccountMsg struct {
	Resp chan error
}

func (TradeTickMsg) isMessage()            {}
func (MinuteBarMsg) isMessage()            {}
func (HeartbeatMsg) isMessage()            {}
func (OrderEventMsg) isMessage()           {}
func (BuyMsg) isMessage()                  {}
func (SellMsg) isMessage()                 {}
func (PostOrderMsg) isMessage()            {}
func (DecrementMsg) isMessage()            {}
func (CleanMsg) isMessage()                {}
func (ReconcileTransactionMsg) isMessage() {}
func (DeleteTransactionMsg) isMessage()    {}
func (ResetTransactionsMsg) isMessage()    {}
func (LoadSettingsMsg) isMessage()         {}
func (SaveSettingsMsg) isMessage()         {}
func (ActiveSymbolsMsg) isMessage()        {}
func (MaxBuyMsg) isMessage()               {}
func (StreamAliveMsg) isMessage()          {}
func (SyncActivitiesMsg) isMessage()       {}
func (SyncPositionsMsg) isMessage()        {}
func (SyncAccountMsg) isMessage()          {}

// OrderResult is the reply to order-producing messages.
type OrderResult struct {
	Order types.Order
	Err   error
}

// SettingsResult is the reply to LoadSettingsMsg.
type SettingsResult struct {
	Settings types.Settings
	Err      error
}

// SymbolsResult is the reply to ActiveSymbolsMsg.
type SymbolsResult struct {
	Symbols []types.Symbol
	Err     error
}

// MaxBuyResult is the reply to MaxBuyMsg.
type MaxBuyResult struct {
	Estimate types.MaxBuyEstimate
	Err      error
}

// AliveResult is the reply to StreamAliveMsg.
type AliveResult struct {
	Alive bool
	Err   error
}
