package dispatch

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var tradesProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "emabot_trades_processed_total",
		Help: "Trades that updated an EMA",
	}, []string{"symbol"},
)
var tradesDropped = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "emabot_trades_dropped_total",
		Help: "Feed messages dropped for kind, symbol, price or feed state",
	},
)
var lastPrice = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "emabot_last_price",
		Help: "Last trade price",
	}, []string{"symbol"},
)
var emaValue = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "emabot_ema",
		Help: "Current EMA of the trade price",
	}, []string{"symbol"},
)
var signalCount = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "emabot_signals_total",
		Help: "Emitted BUY/SELL signals",
	}, []string{"symbol", "signal"},
)
var orderFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "emabot_order_failures_total",
		Help: "Order submissions that returned an error",
	}, []string{"symbol"},
)
var feedState = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "emabot_feed_state",
		Help: "Feed connection state (0 disconnected .. 4 streaming, 5 closed, 6 errored)",
	},
)

// RegisterMetrics registers the dispatcher metrics, tolerating a second registration.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{tradesProcessed, tradesDropped, lastPrice, emaValue, signalCount, orderFailures, feedState} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return errors.Wrap(err, "register metrics")
		}
	}
	return nil
}
