package shared

import "time"

// TradeKind is the message kind of an executed trade on the feed. Quotes ("q"),
// bars ("b") and control messages carry other kinds.
const TradeKind = "t"

// TradeEvent is one message of the market data feed. The json tags follow the
// Alpaca stream so the same type is decoded from the websocket and relayed over Redis.
type TradeEvent struct {
	Kind      string    `json:"T"`
	Symbol    string    `json:"S"`
	Price     float64   `json:"p"`
	Size      float64   `json:"s"`
	Timestamp time.Time `json:"t"`
}

func (e TradeEvent) IsTrade() bool {
	return e.Kind == TradeKind
}
