//go:build fastmath

package core

import "github.com/meko-christian/algo-approx"

// ln10 is the natural logarithm of 10.
const ln10 = 2.302585092994045684017991454684

// mathTanh computes tanh(x) via tanh(x) = 1 - 2/(e^(2x)+1) using fast exp.
func mathTanh(x float64) float64 {
	return 1 - 2/(approx.FastExp(2*x)+1)
}

// mathLog10 computes log10(x) using fast approximation.
func mathLog10(x float64) float64 {
	return approx.FastLog(x) / ln10
}
