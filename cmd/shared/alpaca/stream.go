// Package alpaca connects the engine to Alpaca: the real-time market data
// websocket as a feed and the trading API as the order submitter.
package alpaca

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/kaanureyen/emabot/cmd/shared"
	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
	readLimit        = 1 << 20
)

// Stream is the Alpaca market data websocket. One Run is one connection.
type Stream struct {
	URL     string
	Key     string
	Secret  string
	Symbols []string
	Dialer  *websocket.Dialer

	logger log.FieldLogger
}

func NewStream(url, key, secret string, symbols []string) *Stream {
	if url == "" {
		url = shared.AlpacaStreamURL
	}
	return &Stream{
		URL:     url,
		Key:     key,
		Secret:  secret,
		Symbols: symbols,
		Dialer:  &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		logger:  log.WithField("component", "alpaca-stream"),
	}
}

// connection state of one Run, only touched by the read loop
type handshakeState struct {
	authenticated bool
	subscribed    bool
}

func (s *Stream) Run(ctx context.Context, sink dispatch.Sink) error {
	if err := sink.Transition(ctx, dispatch.Connecting); err != nil {
		return err
	}

	s.logger.Infof("Connecting to %s", s.URL)
	conn, _, err := s.Dialer.DialContext(ctx, s.URL, nil)
	if err != nil {
		err = errors.Wrapf(err, "dial %s", s.URL)
		s.end(ctx, sink, err)
		return err
	}
	defer conn.Close()
	conn.SetReadLimit(readLimit)

	// unblocks ReadMessage on shutdown
	stop := context.AfterFunc(ctx, func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
		_ = conn.Close()
	})
	defer stop()

	var hs handshakeState
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = nil
			}
			s.end(ctx, sink, err)
			return s.result(ctx, err)
		}

		if err := s.handleFrame(ctx, conn, sink, &hs, data); err != nil {
			s.end(ctx, sink, err)
			return err
		}
	}
}

func (s *Stream) handleFrame(ctx context.Context, conn *websocket.Conn, sink dispatch.Sink, hs *handshakeState, data []byte) error {
	msgs, bad, err := decodeFrame(data)
	if err != nil {
		s.logger.WithError(err).Warnf("Skipping undecodable frame: %s", data)
		return nil
	}
	for _, e := range bad {
		s.logger.WithError(e).Warn("Skipping undecodable message")
	}

	for _, m := range msgs {
		if err := s.handleMessage(ctx, conn, sink, hs, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stream) handleMessage(ctx context.Context, conn *websocket.Conn, sink dispatch.Sink, hs *handshakeState, m message) error {
	switch m.Kind {
	case typeSuccess:
		switch m.Msg {
		case msgConnected:
			s.logger.Info("Connected, authenticating")
			return s.write(conn, authRequest{Action: "auth", Key: s.Key, Secret: s.Secret})
		case msgAuthenticated:
			if hs.authenticated {
				return nil
			}
			hs.authenticated = true
			if err := sink.Transition(ctx, dispatch.Authenticated); err != nil {
				return err
			}
			s.logger.Infof("Authenticated, subscribing to trades of %v", s.Symbols)
			return s.write(conn, subscribeRequest{Action: "subscribe", Trades: s.Symbols})
		}
		s.logger.Debugf("Ignoring success message %q", m.Msg)
		return nil

	case typeError:
		return errors.Errorf("alpaca stream error %d: %s", m.Code, m.Msg)

	case typeSubscription:
		if hs.subscribed {
			s.logger.Infof("Subscription updated, trades: %v", m.Trades)
			return nil
		}
		hs.subscribed = true
		if err := sink.Transition(ctx, dispatch.Subscribed); err != nil {
			return err
		}
		s.logger.Infof("Subscribed to trades: %v", m.Trades)
		return sink.Transition(ctx, dispatch.Streaming)
	}

	sink.Deliver(ctx, m.TradeEvent)
	return nil
}

func (s *Stream) write(conn *websocket.Conn, v interface{}) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return errors.Wrap(err, "set write deadline")
	}
	return errors.Wrap(conn.WriteJSON(v), "write request")
}

// end moves the session to its terminal state: closed on shutdown or a clean close, errored otherwise.
func (s *Stream) end(ctx context.Context, sink dispatch.Sink, err error) {
	if err == nil || ctx.Err() != nil {
		sink.Close(ctx)
		return
	}
	sink.Fail(ctx, err)
}

func (s *Stream) result(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return errors.Wrap(err, "read")
}
