// Package dispatch drives the EMA tracker from a trade feed and forwards
// BUY/SELL decisions to the order submitter.
package dispatch

import (
	"context"
	"math"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kaanureyen/emabot/cmd/shared"
	"github.com/kaanureyen/emabot/cmd/shared/crossing"
	"github.com/kaanureyen/emabot/cmd/shared/ema"
)

type Config struct {
	Symbols []string
	Qty     int
}

// Outcome describes what happened to one trade event.
type Outcome struct {
	Processed bool
	EMA       ema.Result
	Action    crossing.Action
	OrderID   string
	Err       error // order submission error, never fatal
}

type Dispatcher struct {
	symbols  map[string]struct{}
	qty      int
	tracker  *ema.Tracker
	orders   OrderSubmitter
	recorder Recorder
	logger   log.FieldLogger
}

type Option func(d *Dispatcher)

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

func WithLogger(l log.FieldLogger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// New builds a dispatcher over an explicit tracker; the tracker holds all per-symbol state.
func New(cfg Config, tracker *ema.Tracker, orders OrderSubmitter, options ...Option) *Dispatcher {
	d := &Dispatcher{
		symbols: make(map[string]struct{}, len(cfg.Symbols)),
		qty:     cfg.Qty,
		tracker: tracker,
		orders:  orders,
		logger:  log.WithField("component", "dispatcher"),
	}
	for _, s := range cfg.Symbols {
		d.symbols[s] = struct{}{}
	}
	if d.qty <= 0 {
		d.qty = shared.DefaultOrderQty
	}
	for _, o := range options {
		o(d)
	}
	return d
}

func (d *Dispatcher) OnTrade(ctx context.Context, ev shared.TradeEvent) {
	d.Process(ctx, ev)
}

func (d *Dispatcher) Subscribed(symbol string) bool {
	_, ok := d.symbols[symbol]
	return ok
}

// Process handles one feed message to completion, including the order submission.
func (d *Dispatcher) Process(ctx context.Context, ev shared.TradeEvent) Outcome {
	if !ev.IsTrade() || !d.Subscribed(ev.Symbol) {
		tradesDropped.Inc()
		return Outcome{}
	}
	if !(ev.Price > 0) || math.IsInf(ev.Price, 0) {
		tradesDropped.Inc()
		d.logger.Warnf("Discarding trade for %s with invalid price %v", ev.Symbol, ev.Price)
		return Outcome{}
	}

	res := d.tracker.Update(ev.Symbol, ev.Price)
	tradesProcessed.WithLabelValues(ev.Symbol).Inc()
	lastPrice.WithLabelValues(ev.Symbol).Set(ev.Price)
	emaValue.WithLabelValues(ev.Symbol).Set(res.Value)

	d.logger.Infof("Symbol: %s, Price: $%.2f, Size: %s, Timestamp: %s, EMA: %.2f",
		ev.Symbol, ev.Price, strconv.FormatFloat(ev.Size, 'f', -1, 64), ev.Timestamp.Format(time.RFC3339Nano), res.Value)

	out := Outcome{
		Processed: true,
		EMA:       res,
		Action:    crossing.Decide(ev.Price, res.Value),
	}
	if out.Action == crossing.None {
		return out
	}
	signalCount.WithLabelValues(ev.Symbol, out.Action.String()).Inc()

	out.OrderID, out.Err = d.orders.Submit(ctx, OrderRequest{
		Symbol:      ev.Symbol,
		Side:        out.Action,
		Qty:         d.qty,
		Type:        OrderTypeMarket,
		TimeInForce: TimeInForceGTC,
	})
	if out.Err != nil {
		orderFailures.WithLabelValues(ev.Symbol).Inc()
		d.logger.WithError(out.Err).Errorf("Failed to place %s order for %s", out.Action.Side(), ev.Symbol)
	} else {
		d.logger.Infof("Placed a %s order for %s (order id %s)", out.Action.Side(), ev.Symbol, out.OrderID)
	}

	d.record(ctx, ev, out)
	return out
}

func (d *Dispatcher) record(ctx context.Context, ev shared.TradeEvent, out Outcome) {
	if d.recorder == nil {
		return
	}
	signal := shared.TradeSignal{
		TimeStamp: ev.Timestamp,
		Symbol:    ev.Symbol,
		Signal:    out.Action.String(),
		Price:     ev.Price,
		Ema:       out.EMA.Value,
		Period:    d.tracker.Capacity(),
		OrderID:   out.OrderID,
	}
	if signal.TimeStamp.IsZero() {
		signal.TimeStamp = time.Now()
	}
	if out.Err != nil {
		signal.OrderError = out.Err.Error()
	}
	if err := d.recorder.Record(ctx, signal); err != nil {
		d.logger.WithError(err).Errorf("Failed to record %s signal for %s", signal.Signal, ev.Symbol)
	}
}
