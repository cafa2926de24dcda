package dispatch

import (
	"context"

	"github.com/kaanureyen/emabot/cmd/shared"
	"github.com/kaanureyen/emabot/cmd/shared/crossing"
)

const (
	OrderTypeMarket = "market"
	TimeInForceGTC  = "gtc"
)

type OrderRequest struct {
	Symbol      string
	Side        crossing.Action
	Qty         int
	Type        string
	TimeInForce string
}

// OrderSubmitter places an order and returns the broker's order id.
type OrderSubmitter interface {
	Submit(ctx context.Context, req OrderRequest) (string, error)
}

// Notifier delivers a human readable message about the feed connection.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Recorder stores emitted signals.
type Recorder interface {
	Record(ctx context.Context, signal shared.TradeSignal) error
}

// Ingester consumes trade events while a feed is streaming.
type Ingester interface {
	OnTrade(ctx context.Context, ev shared.TradeEvent)
}

// Sink is what a Feed drives: connection state changes and decoded events.
type Sink interface {
	Transition(ctx context.Context, next State) error
	Deliver(ctx context.Context, ev shared.TradeEvent)
	Fail(ctx context.Context, err error)
	Close(ctx context.Context)
}

// Feed connects to a market data source and drives sink until the connection ends or ctx is done.
type Feed interface {
	Run(ctx context.Context, sink Sink) error
}
