package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/meridian-trading/meridian/internal/logger"
	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// Alpaca market-data frame discriminants ("T" field).
const (
	alpacaFrameSuccess      = "success"
	alpacaFrameError        = "error"
	alpacaFrameSubscription = "subscription"
	alpacaFrameTrade        = "t"
	alpacaFrameBar          = "b"
	alpacaFrameQuote        = "q"
	alpacaFrameDailyBar     = "d"
	alpacaFrameStatus       = "s"
)

// alpacaFrame is one element of a market-data array frame. Fields overlap
// across variants; T selects which are meaningful.
type alpacaFrame struct {
	T      string    `json:"T"`
	Msg    string    `json:"msg,omitempty"`
	Code   int       `json:"code,omitempty"`
	Symbol string    `json:"S,omitempty"`
	Price  float64   `json:"p,omitempty"`
	Size   float64   `json:"s,omitempty"`
	Open   float64   `json:"o,omitempty"`
	High   float64   `json:"h,omitempty"`
	Low    float64   `json:"l,omitempty"`
	Close  float64   `json:"c,omitempty"`
	Volume float64   `json:"v,omitempty"`
	Time   time.Time `json:"t,omitempty"`
	Trades []string  `json:"trades,omitempty"`
	Bars   []string  `json:"bars,omitempty"`
	Quotes []string  `json:"quotes,omitempty"`
}

type alpacaAuthRequest struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

type alpacaSubscribeRequest struct {
	Action string   `json:"action"`
	Trades []string `json:"trades"`
	Bars   []string `json:"bars"`
}

// MarketDataStream ingests the Alpaca stock data websocket.
type MarketDataStream struct {
	session   *Session
	publisher Publisher
	logger    *logger.Logger
	keyID     string
	secretKey string
	symbols   []string
}

// NewMarketDataStream creates the Alpaca market-data session.
func NewMarketDataStream(
	url, keyID, secretKey string,
	symbols []string,
	backoff Backoff,
	publisher Publisher,
	log *logger.Logger,
) *MarketDataStream {
	m := &MarketDataStream{
		publisher: publisher,
		logger:    log.Named("alpaca-data"),
		keyID:     keyID,
		secretKey: secretKey,
		symbols:   uppercaseSymbols(symbols),
	}
	m.session = NewSession("alpaca-data", url, backoff, log, m.onConnect, m.onMessage)

	return m
}

// Run streams until ctx is done.
func (m *MarketDataStream) Run(ctx context.Context) {
	m.session.Run(ctx)
}

// State returns the session connection state.
func (m *MarketDataStream) State() State {
	return m.session.State()
}

// onConnect sends the auth request. The subscribe follows once the server
// confirms authentication in the frame stream.
func (m *MarketDataStream) onConnect(conn *websocket.Conn) error {
	auth := alpacaAuthRequest{
		Action: "auth",
		Key:    m.keyID,
		Secret: m.secretKey,
	}

	if err := conn.WriteJSON(auth); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to send auth", err)
	}

	return nil
}

// onMessage decodes an array frame and dispatches each element by its T tag.
// Unknown tags are logged and skipped; they never tear down the session.
func (m *MarketDataStream) onMessage(conn *websocket.Conn, _ int, data []byte) error {
	var frames []alpacaFrame
	if err := json.Unmarshal(data, &frames); err != nil {
		m.logger.Warn("undecodable frame", zap.ByteString("data", data), zap.Error(err))
		return nil
	}

	for _, frame := range frames {
		switch frame.T {
		case alpacaFrameSuccess:
			if frame.Msg == "authenticated" {
				if err := m.subscribe(conn); err != nil {
					return err
				}
			}
		case alpacaFrameError:
			if frame.Code == 402 || frame.Code == 401 {
				return errors.Newf(errors.ErrCodeAuthFailed, "auth rejected: %s", frame.Msg)
			}

			m.logger.Warn("stream error frame", zap.Int("code", frame.Code), zap.String("msg", frame.Msg))
		case alpacaFrameSubscription:
			m.logger.Info("subscription confirmed",
				zap.Strings("trades", frame.Trades),
				zap.Strings("bars", frame.Bars),
			)
		case alpacaFrameTrade:
			m.handleTrade(frame)
		case alpacaFrameBar:
			m.handleBar(frame)
		case alpacaFrameQuote, alpacaFrameDailyBar, alpacaFrameStatus:
			// known but unused
		default:
			m.logger.Debug("unhandled frame variant", zap.String("T", frame.T))
		}
	}

	return nil
}

func (m *MarketDataStream) subscribe(conn *websocket.Conn) error {
	req := alpacaSubscribeRequest{
		Action: "subscribe",
		Trades: m.symbols,
		Bars:   m.symbols,
	}

	if err := conn.WriteJSON(req); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to send subscribe", err)
	}

	return nil
}

func (m *MarketDataStream) handleTrade(frame alpacaFrame) {
	tick := types.TradeTick{
		Source:    types.FeedSourceAlpaca,
		Symbol:    frame.Symbol,
		Price:     frame.Price,
		Size:      frame.Size,
		Timestamp: frame.Time,
	}

	if err := m.publisher.PublishTrade(tick); err != nil {
		m.logger.Error("failed to publish trade", zap.String("symbol", frame.Symbol), zap.Error(err))
	}

	m.heartbeat(frame.Time)
}

func (m *MarketDataStream) handleBar(frame alpacaFrame) {
	bar := types.MinuteBar{
		Symbol:    frame.Symbol,
		Open:      frame.Open,
		High:      frame.High,
		Low:       frame.Low,
		Close:     frame.Close,
		Volume:    frame.Volume,
		Timestamp: frame.Time,
	}

	if err := m.publisher.PublishBar(bar); err != nil {
		m.logger.Error("failed to publish bar", zap.String("symbol", frame.Symbol), zap.Error(err))
	}

	m.heartbeat(frame.Time)
}

func (m *MarketDataStream) heartbeat(ts time.Time) {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	hb := types.Heartbeat{Source: types.FeedSourceAlpaca, Timestamp: ts}
	if err := m.publisher.PublishHeartbeat(hb); err != nil {
		m.logger.Error("failed to publish heartbeat", zap.Error(err))
	}
}
