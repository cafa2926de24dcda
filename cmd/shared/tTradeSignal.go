package shared

import "time"

// TradeSignal is a BUY/SELL decision as stored in the signals time series.
type TradeSignal struct {
	TimeStamp  time.Time `bson:"timestamp"`
	Symbol     string    `bson:"symbol"`
	Signal     string    `bson:"signal"`
	Price      float64   `bson:"price"`
	Ema        float64   `bson:"ema"`
	Period     int       `bson:"period"`
	OrderID    string    `bson:"order_id,omitempty"`
	OrderError string    `bson:"order_error,omitempty"`
}
