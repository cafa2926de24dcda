// Package binance feeds Binance spot trades into the engine, one trade stream per symbol.
package binance

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	binance_connector "github.com/binance/binance-connector-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/kaanureyen/emabot/cmd/shared"
	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
)

type tradeServer interface {
	WsTradeServe(symbol string, handler binance_connector.WsTradeHandler, errHandler binance_connector.ErrHandler) (doneCh, stopCh chan struct{}, err error)
}

type Feed struct {
	Symbols []string

	newClient func() tradeServer
	logger    log.FieldLogger
}

// NewFeed streams trades from baseURL, the public Binance endpoint when empty.
func NewFeed(symbols []string, baseURL string) *Feed {
	return &Feed{
		Symbols: symbols,
		newClient: func() tradeServer {
			if baseURL == "" {
				return binance_connector.NewWebsocketStreamClient(false)
			}
			return binance_connector.NewWebsocketStreamClient(false, baseURL)
		},
		logger: log.WithField("component", "binance-feed"),
	}
}

type stream struct {
	symbol string
	doneCh chan struct{}
	stopCh chan struct{}
}

func (f *Feed) Run(ctx context.Context, sink dispatch.Sink) error {
	if len(f.Symbols) == 0 {
		return errors.New("binance feed requires at least one symbol")
	}
	if err := sink.Transition(ctx, dispatch.Connecting); err != nil {
		return err
	}

	errCh := make(chan error, len(f.Symbols))
	handleError := func(err error) {
		f.logger.WithError(err).Error("Error in Websocket stream")
		select {
		case errCh <- err:
		default:
		}
	}

	streams := make([]stream, 0, len(f.Symbols))
	for _, symbol := range f.Symbols {
		f.logger.Infof("Connecting to Binance trade stream of %s", symbol)
		doneCh, stopCh, err := f.newClient().WsTradeServe(symbol, f.tradeHandler(ctx, sink), handleError)
		if err != nil {
			f.stop(streams)
			return errors.Wrapf(err, "open trade stream of %s", symbol)
		}
		streams = append(streams, stream{symbol: symbol, doneCh: doneCh, stopCh: stopCh})
	}
	f.logger.Info("Connected to Binance")

	// public streams have no auth or subscribe step
	for _, next := range []dispatch.State{dispatch.Authenticated, dispatch.Subscribed, dispatch.Streaming} {
		if err := sink.Transition(ctx, next); err != nil {
			f.stop(streams)
			return err
		}
	}

	anyDone := make(chan struct{})
	var once sync.Once
	for _, s := range streams {
		go func(done chan struct{}) {
			<-done
			once.Do(func() { close(anyDone) })
		}(s.doneCh)
	}

	select {
	case <-ctx.Done():
		f.logger.Info("Telling Binance to quit.")
		f.stop(streams)
		sink.Close(ctx)
		return nil

	case err := <-errCh:
		f.stop(streams)
		sink.Fail(ctx, err)
		return err

	case <-anyDone:
		f.logger.Info("Binance connection closed")
		f.stop(streams)
		select {
		case err := <-errCh:
			sink.Fail(ctx, err)
			return err
		default:
		}
		sink.Close(ctx)
		return nil
	}
}

func (f *Feed) tradeHandler(ctx context.Context, sink dispatch.Sink) binance_connector.WsTradeHandler {
	return func(event *binance_connector.WsTradeEvent) {
		ev, err := toTradeEvent(event)
		if err != nil {
			f.logger.WithError(err).Warn("Skipping trade")
			return
		}
		sink.Deliver(ctx, ev)
	}
}

// stop asks every stream to close and waits for them, at most shared.TimeoutBeforeReturn each.
func (f *Feed) stop(streams []stream) {
	for _, s := range streams {
		close(s.stopCh)
	}
	for _, s := range streams {
		select {
		case <-s.doneCh:
		case <-time.After(shared.TimeoutBeforeReturn):
			f.logger.Warnf("Timeout (%s) waiting for Binance to close the %s stream", shared.TimeoutBeforeReturn, s.symbol)
		}
	}
}

func toTradeEvent(event *binance_connector.WsTradeEvent) (shared.TradeEvent, error) {
	price, err := strconv.ParseFloat(event.Price, 64)
	if err != nil {
		return shared.TradeEvent{}, errors.Wrapf(err, "invalid price %q", event.Price)
	}
	qty, err := strconv.ParseFloat(event.Quantity, 64)
	if err != nil {
		return shared.TradeEvent{}, errors.Wrapf(err, "invalid quantity %q", event.Quantity)
	}
	return shared.TradeEvent{
		Kind:      shared.TradeKind,
		Symbol:    strings.ToUpper(event.Symbol),
		Price:     price,
		Size:      qty,
		Timestamp: time.UnixMilli(event.TradeTime).UTC(),
	}, nil
}
