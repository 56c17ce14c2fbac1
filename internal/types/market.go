package types

import "time"

// FeedSource identifies which upstream produced a tick or heartbeat.
type FeedSource string

const (
	FeedSourceAlpaca  FeedSource = "alpaca"
	FeedSourceFinnhub FeedSource = "finnhub"
)

// TradeTick is a single trade print from a market-data feed.
type TradeTick struct {
	Source    FeedSource `yaml:"source" json:"source"`
	Symbol    string     `yaml:"symbol" json:"symbol" validate:"required"`
	Price     float64    `yaml:"price" json:"price" validate:"gt=0"`
	Size      float64    `yaml:"size" json:"size"`
	Timestamp time.Time  `yaml:"timestamp" json:"timestamp"`
}

// MinuteBar is an aggregated one-minute OHLCV bar.
type MinuteBar struct {
	Symbol    string    `yaml:"symbol" json:"symbol" validate:"required"`
	Open      float64   `yaml:"open" json:"open"`
	High      float64   `yaml:"high" json:"high"`
	Low       float64   `yaml:"low" json:"low"`
	Close     float64   `yaml:"close" json:"close"`
	Volume    float64   `yaml:"volume" json:"volume"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
}

// Heartbeat marks that a feed was alive at Timestamp. Liveness checks compare
// the newest heartbeat against a staleness threshold.
type Heartbeat struct {
	Source    FeedSource `yaml:"source" json:"source"`
	Timestamp time.Time  `yaml:"timestamp" json:"timestamp"`
}

// OrderEventType is the lifecycle event discriminant on the trade-updates stream.
type OrderEventType string

const (
	OrderEventNew             OrderEventType = "new"
	OrderEventFill            OrderEventType = "fill"
	OrderEventPartialFill     OrderEventType = "partial_fill"
	OrderEventCanceled        OrderEventType = "canceled"
	OrderEventExpired         OrderEventType = "expired"
	OrderEventDoneForDay      OrderEventType = "done_for_day"
	OrderEventReplaced        OrderEventType = "replaced"
	OrderEventRejected        OrderEventType = "rejected"
	OrderEventPendingNew      OrderEventType = "pending_new"
	OrderEventStopped         OrderEventType = "stopped"
	OrderEventPendingCancel   OrderEventType = "pending_cancel"
	OrderEventPendingReplace  OrderEventType = "pending_replace"
	OrderEventCalculated      OrderEventType = "calculated"
	OrderEventSuspended       OrderEventType = "suspended"
	OrderEventOrderReplaceRej OrderEventType = "order_replace_rejected"
	OrderEventOrderCancelRej  OrderEventType = "order_cancel_rejected"
	OrderEventAccepted        OrderEventType = "accepted"
)

// OrderEvent is a single trade-update message for one order.
type OrderEvent struct {
	Event       OrderEventType `yaml:"event" json:"event"`
	Order       Order          `yaml:"order" json:"order"`
	Price       float64        `yaml:"price" json:"price"`
	Qty         float64        `yaml:"qty" json:"qty"`
	PositionQty float64        `yaml:"position_qty" json:"position_qty"`
	Timestamp   time.Time      `yaml:"timestamp" json:"timestamp"`
}

// OrderLogOrigin distinguishes broker-pushed events from locally submitted orders.
type OrderLogOrigin string

const (
	OrderLogOriginStream OrderLogOrigin = "stream"
	OrderLogOriginLocal  OrderLogOrigin = "local"
)

// OrderLogEntry is an append-only record of order activity, both broker
// lifecycle events and locally originated submissions.
type OrderLogEntry struct {
	Origin     OrderLogOrigin `yaml:"origin" json:"origin"`
	Event      string         `yaml:"event" json:"event"`
	OrderID    string         `yaml:"order_id" json:"order_id"`
	Symbol     string         `yaml:"symbol" json:"symbol"`
	Side       string         `yaml:"side" json:"side"`
	Qty        float64        `yaml:"qty" json:"qty"`
	Price      float64        `yaml:"price" json:"price"`
	Detail     string         `yaml:"detail" json:"detail"`
	RecordedAt time.Time      `yaml:"recorded_at" json:"recorded_at"`
}
