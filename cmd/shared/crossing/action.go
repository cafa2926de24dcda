// Package crossing turns a trade price and the current EMA into a trading action.
package crossing

type Action int

const (
	None Action = iota
	Buy
	Sell
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	}
	return "NONE"
}

// Side is the order side understood by the broker, empty for None.
func (a Action) Side() string {
	switch a {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return ""
}

// Decide compares price with ema using exact float comparison.
// Every call is independent: a repeated crossing in the same direction repeats the action.
func Decide(price, ema float64) Action {
	switch {
	case price > ema:
		return Buy
	case price < ema:
		return Sell
	}
	return None
}
