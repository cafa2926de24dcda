package ema

import "gonum.org/v1/gonum/floats"

// SymbolWindow keeps the most recent prices of one symbol, oldest first.
// It never holds more than its capacity; appending to a full window evicts the oldest price.
type SymbolWindow struct {
	Symbol   string
	prices   []float64
	capacity int
}

func NewSymbolWindow(symbol string, capacity int) *SymbolWindow {
	return &SymbolWindow{
		Symbol:   symbol,
		prices:   make([]float64, 0, capacity),
		capacity: capacity,
	}
}

func (w *SymbolWindow) Add(price float64) {
	if len(w.prices) == w.capacity {
		copy(w.prices, w.prices[1:])
		w.prices[len(w.prices)-1] = price
		return
	}
	w.prices = append(w.prices, price)
}

func (w *SymbolWindow) Len() int {
	return len(w.prices)
}

func (w *SymbolWindow) Capacity() int {
	return w.capacity
}

// Prices returns a copy of the retained prices.
func (w *SymbolWindow) Prices() []float64 {
	return append([]float64(nil), w.prices...)
}

// Ema is the dot product of the window with Weights(Len()). Zero for an empty window.
func (w *SymbolWindow) Ema() float64 {
	if len(w.prices) == 0 {
		return 0
	}
	return floats.Dot(Weights(len(w.prices)), w.prices)
}
