package stream

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/meridian-trading/meridian/internal/logger"
	"github.com/meridian-trading/meridian/internal/types"
	"github.com/meridian-trading/meridian/pkg/errors"
)

// Finnhub frame discriminants ("type" field).
const (
	finnhubFrameTrade = "trade"
	finnhubFramePing  = "ping"
	finnhubFrameError = "error"
)

type finnhubSubscribeRequest struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

type finnhubFrame struct {
	Type string         `json:"type"`
	Msg  string         `json:"msg,omitempty"`
	Data []finnhubTrade `json:"data,omitempty"`
}

// finnhubTrade is one trade print; t is unix milliseconds.
type finnhubTrade struct {
	Symbol string  `json:"s"`
	Price  float64 `json:"p"`
	Volume float64 `json:"v"`
	Time   int64   `json:"t"`
}

// FinnhubStream ingests the Finnhub trade websocket. The token rides in the
// URL; subscriptions are sent per symbol after connect.
type FinnhubStream struct {
	session   *Session
	publisher Publisher
	logger    *logger.Logger
	symbols   []string
}

// NewFinnhubStream creates the Finnhub session.
func NewFinnhubStream(
	baseURL, token string,
	symbols []string,
	backoff Backoff,
	publisher Publisher,
	log *logger.Logger,
) *FinnhubStream {
	f := &FinnhubStream{
		publisher: publisher,
		logger:    log.Named("finnhub"),
		symbols:   uppercaseSymbols(symbols),
	}
	f.session = NewSession("finnhub", tokenURL(baseURL, token), backoff, log, f.onConnect, f.onMessage)

	return f
}

// Run streams until ctx is done.
func (f *FinnhubStream) Run(ctx context.Context) {
	f.session.Run(ctx)
}

// State returns the session connection state.
func (f *FinnhubStream) State() State {
	return f.session.State()
}

// onConnect subscribes to every watched symbol. Finnhub has no auth
// handshake beyond the URL token.
func (f *FinnhubStream) onConnect(conn *websocket.Conn) error {
	for _, symbol := range f.symbols {
		req := finnhubSubscribeRequest{Type: "subscribe", Symbol: symbol}
		if err := conn.WriteJSON(req); err != nil {
			return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to subscribe %s", symbol)
		}
	}

	return nil
}

func (f *FinnhubStream) onMessage(_ *websocket.Conn, _ int, data []byte) error {
	var frame finnhubFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		f.logger.Warn("undecodable frame", zap.ByteString("data", data), zap.Error(err))
		return nil
	}

	switch frame.Type {
	case finnhubFrameTrade:
		for _, trade := range frame.Data {
			f.handleTrade(trade)
		}
	case finnhubFramePing:
		f.heartbeat(time.Now().UTC())
	case finnhubFrameError:
		f.logger.Warn("stream error frame", zap.String("msg", frame.Msg))
	default:
		f.logger.Debug("unhandled frame variant", zap.String("type", frame.Type))
	}

	return nil
}

func (f *FinnhubStream) handleTrade(trade finnhubTrade) {
	tick := types.TradeTick{
		Source:    types.FeedSourceFinnhub,
		Symbol:    trade.Symbol,
		Price:     trade.Price,
		Size:      trade.Volume,
		Timestamp: time.UnixMilli(trade.Time).UTC(),
	}

	if err := f.publisher.PublishTrade(tick); err != nil {
		f.logger.Error("failed to publish trade", zap.String("symbol", trade.Symbol), zap.Error(err))
	}

	f.heartbeat(tick.Timestamp)
}

func (f *FinnhubStream) heartbeat(ts time.Time) {
	hb := types.Heartbeat{Source: types.FeedSourceFinnhub, Timestamp: ts}
	if err := f.publisher.PublishHeartbeat(hb); err != nil {
		f.logger.Error("failed to publish heartbeat", zap.Error(err))
	}
}

// tokenURL appends the api token as a query parameter.
func tokenURL(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String()
}
