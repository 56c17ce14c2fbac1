package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/meridian-trading/meridian/pkg/errors"
	"github.com/moznion/go-optional"
)

type OrderSide string

type OrderType string

type TimeInForce string

type OrderStatus string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

const (
	TimeInForceDay TimeInForce = "day"
)

const (
	OrderStatusNew           OrderStatus = "new"
	OrderStatusAccepted      OrderStatus = "accepted"
	OrderStatusPartialFill   OrderStatus = "partially_filled"
	OrderStatusFilled        OrderStatus = "filled"
	OrderStatusDoneForDay    OrderStatus = "done_for_day"
	OrderStatusCanceled      OrderStatus = "canceled"
	OrderStatusExpired       OrderStatus = "expired"
	OrderStatusReplaced      OrderStatus = "replaced"
	OrderStatusPendingCancel OrderStatus = "pending_cancel"
	OrderStatusPendingNew    OrderStatus = "pending_new"
	OrderStatusRejected      OrderStatus = "rejected"
	OrderStatusSuspended     OrderStatus = "suspended"
	OrderStatusStopped       OrderStatus = "stopped"
	OrderStatusCalculated    OrderStatus = "calculated"
)

// Order is a broker order as returned by the trading API.
type Order struct {
	ID             string      `yaml:"id" json:"id"`
	ClientOrderID  string      `yaml:"client_order_id" json:"client_order_id"`
	Symbol         string      `yaml:"symbol" json:"symbol" validate:"required"`
	Side           OrderSide   `yaml:"side" json:"side" validate:"required,oneof=buy sell"`
	Type           OrderType   `yaml:"type" json:"type" validate:"required,oneof=market limit"`
	TimeInForce    TimeInForce `yaml:"time_in_force" json:"time_in_force"`
	Qty            float64     `yaml:"qty" json:"qty" validate:"gte=0"`
	FilledQty      float64     `yaml:"filled_qty" json:"filled_qty" validate:"gte=0"`
	LimitPrice     float64     `yaml:"limit_price" json:"limit_price"`
	FilledAvgPrice float64     `yaml:"filled_avg_price" json:"filled_avg_price"`
	Status         OrderStatus `yaml:"status" json:"status"`
	ExtendedHours  bool        `yaml:"extended_hours" json:"extended_hours"`
	CreatedAt      time.Time   `yaml:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `yaml:"updated_at" json:"updated_at"`
	SubmittedAt    time.Time   `yaml:"submitted_at" json:"submitted_at"`
	FilledAt       *time.Time  `yaml:"filled_at" json:"filled_at"`
	ExpiredAt      *time.Time  `yaml:"expired_at" json:"expired_at"`
	CanceledAt     *time.Time  `yaml:"canceled_at" json:"canceled_at"`
	FailedAt       *time.Time  `yaml:"failed_at" json:"failed_at"`
}

// OrderRequest is a locally originated order before submission.
// ClientOrderID carries the idempotency id sent to the broker.
type OrderRequest struct {
	ClientOrderID string      `yaml:"client_order_id" json:"client_order_id" validate:"required,uuid"`
	Symbol        string      `yaml:"symbol" json:"symbol" validate:"required"`
	Side          OrderSide   `yaml:"side" json:"side" validate:"required,oneof=buy sell"`
	Type          OrderType   `yaml:"type" json:"type" validate:"required,oneof=market limit"`
	TimeInForce   TimeInForce `yaml:"time_in_force" json:"time_in_force" validate:"required,oneof=day"`
	Qty           float64     `yaml:"qty" json:"qty" validate:"required,gt=0"`
	// LimitPrice is required for limit orders. None for market orders.
	LimitPrice    optional.Option[float64] `yaml:"limit_price" json:"limit_price"`
	ExtendedHours bool                     `yaml:"extended_hours" json:"extended_hours"`
}

// NewOrderRequest builds a request with a fresh client order id.
func NewOrderRequest(symbol string, side OrderSide, qty float64) OrderRequest {
	return OrderRequest{
		ClientOrderID: uuid.New().String(),
		Symbol:        symbol,
		Side:          side,
		Type:          OrderTypeMarket,
		TimeInForce:   TimeInForceDay,
		Qty:           qty,
	}
}

// Validate validates the OrderRequest struct.
func (r *OrderRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order request", err)
	}

	if r.Type == OrderTypeLimit && r.LimitPrice.IsNone() {
		return errors.New(errors.ErrCodeInvalidOrder, "limit order requires a limit price")
	}

	return nil
}
