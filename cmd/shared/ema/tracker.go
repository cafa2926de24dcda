// Package ema maintains per-symbol sliding windows of trade prices and the
// exponentially weighted average over each window.
//
// The average is recomputed from the whole window on every update with weights
// derived at the window's current length. While a window fills up, the weights
// therefore differ from those of a full window; this is not the textbook
// alpha*price + (1-alpha)*prev recurrence.
package ema

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var ErrInvalidCapacity = errors.New("ema period must be positive")

type Result struct {
	Symbol string
	Value  float64
	Size   int // prices in the window the value was computed from
}

// Tracker owns one SymbolWindow per symbol, created on the symbol's first trade.
// Updates are serialised, so it is safe for concurrent use.
type Tracker struct {
	capacity int

	mu      sync.Mutex
	windows map[string]*SymbolWindow
}

func NewTracker(capacity int) (*Tracker, error) {
	if capacity <= 0 {
		return nil, errors.Wrapf(ErrInvalidCapacity, "got %d", capacity)
	}
	return &Tracker{
		capacity: capacity,
		windows:  make(map[string]*SymbolWindow),
	}, nil
}

func (t *Tracker) Capacity() int {
	return t.capacity
}

// Update appends price to the symbol's window and returns the recomputed EMA.
func (t *Tracker) Update(symbol string, price float64) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[symbol]
	if !ok {
		w = NewSymbolWindow(symbol, t.capacity)
		t.windows[symbol] = w
	}
	w.Add(price)

	return Result{
		Symbol: symbol,
		Value:  w.Ema(),
		Size:   w.Len(),
	}
}

// Window returns a copy of the symbol's retained prices, nil if it has seen no trade.
func (t *Tracker) Window(symbol string) []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if w, ok := t.windows[symbol]; ok {
		return w.Prices()
	}
	return nil
}

func (t *Tracker) Symbols() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	symbols := make([]string, 0, len(t.windows))
	for s := range t.windows {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
