// Package stream implements the websocket ingestion sessions: Alpaca market
// data, Alpaca trade updates, and Finnhub trades. Each session reconnects
// forever with bounded exponential backoff; protocol handling lives in
// per-feed callbacks.
package stream

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/meridian-trading/meridian/internal/logger"
	"github.com/meridian-trading/meridian/internal/types"
)

// State is the connection state of a session.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateStreaming
)

// Publisher is the coordinator surface the streams feed into.
type Publisher interface {
	PublishTrade(tick types.TradeTick) error
	PublishBar(bar types.MinuteBar) error
	PublishHeartbeat(hb types.Heartbeat) error
	PublishOrderEvent(event types.OrderEvent) error
}

// Session is a reconnect-forever websocket connection. onConnect performs the
// feed handshake; onMessage handles every inbound frame. A handshake or read
// failure drops the connection and the loop redials after backoff.
type Session struct {
	name    string
	url     string
	backoff Backoff
	logger  *logger.Logger
	dialer  *websocket.Dialer

	onConnect func(conn *websocket.Conn) error
	onMessage func(conn *websocket.Conn, messageType int, data []byte) error

	state atomic.Int32
}

// NewSession creates a session. Run must be called to start it.
func NewSession(
	name, url string,
	backoff Backoff,
	log *logger.Logger,
	onConnect func(conn *websocket.Conn) error,
	onMessage func(conn *websocket.Conn, messageType int, data []byte) error,
) *Session {
	return &Session{
		name:      name,
		url:       url,
		backoff:   backoff,
		logger:    log.Named(name),
		dialer:    websocket.DefaultDialer,
		onConnect: onConnect,
		onMessage: onMessage,
	}
}

// State returns the current connection state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Run dials, streams, and redials until ctx is done.
func (s *Session) Run(ctx context.Context) {
	attempt := 0

	for {
		if ctx.Err() != nil {
			s.state.Store(int32(StateDisconnected))
			return
		}

		s.state.Store(int32(StateConnecting))

		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			attempt++
			s.logger.Warn("dial failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)

			if !s.sleep(ctx, attempt) {
				return
			}

			continue
		}

		if err := s.onConnect(conn); err != nil {
			conn.Close()
			attempt++
			s.logger.Warn("handshake failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)

			if !s.sleep(ctx, attempt) {
				return
			}

			continue
		}

		s.state.Store(int32(StateStreaming))
		s.logger.Info("streaming")

		attempt = 0

		err = s.stream(ctx, conn)
		conn.Close()
		s.state.Store(int32(StateDisconnected))

		if ctx.Err() != nil {
			return
		}

		attempt++
		s.logger.Warn("connection lost", zap.Error(err))

		if !s.sleep(ctx, attempt) {
			return
		}
	}
}

// stream reads frames until the connection breaks or ctx is done.
func (s *Session) stream(ctx context.Context, conn *websocket.Conn) error {
	// ReadMessage blocks; closing the connection from the watcher unblocks it.
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		if err := s.onMessage(conn, messageType, data); err != nil {
			return err
		}
	}
}

// uppercaseSymbols normalizes a watch list to the uppercase tickers both
// vendors expect in subscribe requests and emit in trade frames.
func uppercaseSymbols(symbols []string) []string {
	result := make([]string, len(symbols))
	for i, symbol := range symbols {
		result[i] = strings.ToUpper(symbol)
	}

	return result
}

// sleep waits the backoff delay for attempt, false when ctx ends first.
func (s *Session) sleep(ctx context.Context, attempt int) bool {
	timer := time.NewTimer(s.backoff.Next(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
