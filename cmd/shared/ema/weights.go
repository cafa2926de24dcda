package ema

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Weights returns n exponential weights for a window of n prices, oldest first.
// They are exp of n evenly spaced points over [-1, 0], normalised to sum to 1,
// so the newest price gets the largest weight. n == 1 yields [1].
func Weights(n int) []float64 {
	if n <= 0 {
		return nil
	}
	w := make([]float64, n)
	if n == 1 {
		w[0] = -1
	} else {
		floats.Span(w, -1, 0)
		w[n-1] = 0 // the closed end is exact
	}
	for i := range w {
		w[i] = math.Exp(w[i])
	}
	sum := floats.Sum(w)
	for i := range w {
		w[i] /= sum
	}
	return w
}
