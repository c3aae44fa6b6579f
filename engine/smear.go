package engine

import (
	"math"

	"github.com/cwbudde/algo-fshift/dsp/core"
)

const (
	// MinFFTSize is the smallest analysis frame selected by smear.
	MinFFTSize = 256
	// MaxFFTSize is the largest analysis frame and the reported latency of
	// the spectral path.
	MaxFFTSize = 4096
	// OverlapFactor is fftSize/hop.
	OverlapFactor = 4
)

// FFTSizeForSmear maps a smear time to the power-of-two frame size nearest
// to it on a log scale, clamped to [MinFFTSize, MaxFFTSize].
func FFTSizeForSmear(smearMs, sampleRate float64) int {
	samples := smearMs * sampleRate / 1000
	if samples <= MinFFTSize || math.IsNaN(samples) {
		return MinFFTSize
	}

	exp := int(math.Round(math.Log2(samples)))
	n := 1 << core.Clamp(exp, 8, 12)

	return core.Clamp(n, MinFFTSize, MaxFFTSize)
}
