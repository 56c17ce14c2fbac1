package stream

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/meridian-trading/meridian/internal/logger"
	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// Trade-updates stream discriminants ("stream" field).
const (
	updatesStreamAuthorization = "authorization"
	updatesStreamListening     = "listening"
	updatesStreamTradeUpdates  = "trade_updates"
	updatesStreamAccount       = "account_updates"
)

type updatesAuthRequest struct {
	Action string          `json:"action"`
	Data   updatesAuthData `json:"data"`
}

type updatesAuthData struct {
	KeyID     string `json:"key_id"`
	SecretKey string `json:"secret_key"`
}

type updatesListenRequest struct {
	Action string            `json:"action"`
	Data   updatesListenData `json:"data"`
}

type updatesListenData struct {
	Streams []string `json:"streams"`
}

// updatesFrame is the envelope of every trade-updates message.
type updatesFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type updatesAuthResponse struct {
	Status string `json:"status"`
	Action string `json:"action"`
}

// wireOrder is an order as sent on the updates stream: numeric fields arrive
// as strings.
type wireOrder struct {
	ID             string     `json:"id"`
	ClientOrderID  string     `json:"client_order_id"`
	Symbol         string     `json:"symbol"`
	Side           string     `json:"side"`
	Type           string     `json:"type"`
	TimeInForce    string     `json:"time_in_force"`
	Qty            string     `json:"qty"`
	FilledQty      string     `json:"filled_qty"`
	LimitPrice     string     `json:"limit_price"`
	FilledAvgPrice string     `json:"filled_avg_price"`
	Status         string     `json:"status"`
	ExtendedHours  bool       `json:"extended_hours"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	FilledAt       *time.Time `json:"filled_at"`
	ExpiredAt      *time.Time `json:"expired_at"`
	CanceledAt     *time.Time `json:"canceled_at"`
	FailedAt       *time.Time `json:"failed_at"`
}

type wireTradeUpdate struct {
	Event       string    `json:"event"`
	Price       string    `json:"price"`
	Qty         string    `json:"qty"`
	PositionQty string    `json:"position_qty"`
	Timestamp   time.Time `json:"timestamp"`
	Order       wireOrder `json:"order"`
}

// UpdatesStream ingests the Alpaca trade-updates websocket. Frames arrive as
// binary messages on this endpoint.
type UpdatesStream struct {
	session   *Session
	publisher Publisher
	logger    *logger.Logger
	keyID     string
	secretKey string
}

// NewUpdatesStream creates the Alpaca trade-updates session.
func NewUpdatesStream(
	url, keyID, secretKey string,
	backoff Backoff,
	publisher Publisher,
	log *logger.Logger,
) *UpdatesStream {
	u := &UpdatesStream{
		publisher: publisher,
		logger:    log.Named("alpaca-updates"),
		keyID:     keyID,
		secretKey: secretKey,
	}
	u.session = NewSession("alpaca-updates", url, backoff, log, u.onConnect, u.onMessage)

	return u
}

// Run streams until ctx is done.
func (u *UpdatesStream) Run(ctx context.Context) {
	u.session.Run(ctx)
}

// State returns the session connection state.
func (u *UpdatesStream) State() State {
	return u.session.State()
}

func (u *UpdatesStream) onConnect(conn *websocket.Conn) error {
	auth := updatesAuthRequest{
		Action: "authenticate",
		Data: updatesAuthData{
			KeyID:     u.keyID,
			SecretKey: u.secretKey,
		},
	}

	if err := conn.WriteJSON(auth); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to send authenticate", err)
	}

	return nil
}

func (u *UpdatesStream) onMessage(conn *websocket.Conn, _ int, data []byte) error {
	var frame updatesFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		u.logger.Warn("undecodable frame", zap.ByteString("data", data), zap.Error(err))
		return nil
	}

	switch frame.Stream {
	case updatesStreamAuthorization:
		return u.handleAuthorization(conn, frame.Data)
	case updatesStreamListening:
		u.logger.Info("listening confirmed")
	case updatesStreamTradeUpdates:
		u.handleTradeUpdate(frame.Data)
	case updatesStreamAccount:
		// account updates only refresh liveness; the poller owns snapshots
		u.heartbeat(time.Now().UTC())
	default:
		u.logger.Debug("unhandled stream variant", zap.String("stream", frame.Stream))
	}

	return nil
}

// handleAuthorization sends the listen request once authorized; a rejected
// authorization tears the session down for a fresh handshake.
func (u *UpdatesStream) handleAuthorization(conn *websocket.Conn, data json.RawMessage) error {
	var auth updatesAuthResponse
	if err := json.Unmarshal(data, &auth); err != nil {
		return errors.Wrap(errors.ErrCodeFrameParseFailed, "undecodable authorization", err)
	}

	if auth.Status != "authorized" {
		return errors.Newf(errors.ErrCodeAuthFailed, "authorization rejected: %s", auth.Status)
	}

	listen := updatesListenRequest{
		Action: "listen",
		Data: updatesListenData{
			Streams: []string{updatesStreamTradeUpdates, updatesStreamAccount},
		},
	}

	if err := conn.WriteJSON(listen); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to send listen", err)
	}

	return nil
}

func (u *UpdatesStream) handleTradeUpdate(data json.RawMessage) {
	var update wireTradeUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		u.logger.Warn("undecodable trade update", zap.Error(err))
		return
	}

	event := types.OrderEvent{
		Event:       types.OrderEventType(update.Event),
		Order:       convertWireOrder(update.Order),
		Price:       parseWireFloat(update.Price),
		Qty:         parseWireFloat(update.Qty),
		PositionQty: parseWireFloat(update.PositionQty),
		Timestamp:   update.Timestamp,
	}

	if err := u.publisher.PublishOrderEvent(event); err != nil {
		u.logger.Error("failed to publish order event",
			zap.String("order_id", event.Order.ID),
			zap.Error(err),
		)
	}

	ts := update.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	u.heartbeat(ts)
}

func (u *UpdatesStream) heartbeat(ts time.Time) {
	hb := types.Heartbeat{Source: types.FeedSourceAlpaca, Timestamp: ts}
	if err := u.publisher.PublishHeartbeat(hb); err != nil {
		u.logger.Error("failed to publish heartbeat", zap.Error(err))
	}
}

func convertWireOrder(w wireOrder) types.Order {
	return types.Order{
		ID:             w.ID,
		ClientOrderID:  w.ClientOrderID,
		Symbol:         w.Symbol,
		Side:           types.OrderSide(w.Side),
		Type:           types.OrderType(w.Type),
		TimeInForce:    types.TimeInForce(w.TimeInForce),
		Qty:            parseWireFloat(w.Qty),
		FilledQty:      parseWireFloat(w.FilledQty),
		LimitPrice:     parseWireFloat(w.LimitPrice),
		FilledAvgPrice: parseWireFloat(w.FilledAvgPrice),
		Status:         types.OrderStatus(w.Status),
		ExtendedHours:  w.ExtendedHours,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
		SubmittedAt:    w.SubmittedAt,
		FilledAt:       w.FilledAt,
		ExpiredAt:      w.ExpiredAt,
		CanceledAt:     w.CanceledAt,
		FailedAt:       w.FailedAt,
	}
}

// parseWireFloat converts a string numeric; empty and malformed values
// become zero.
func parseWireFloat(s string) float64 {
	if s == "" {
		return 0
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}

	return v
}
