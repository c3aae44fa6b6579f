package spectral

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fshift/dsp/core"
)

// Shifter moves spectral content by a fixed number of Hz, rounded to whole
// bins. Bins that collide on one target have their magnitudes summed and
// keep the phase of the strongest contributor. Content shifted below 0 Hz
// folds back with negated phase; content above Nyquist is dropped.
type Shifter struct {
	sampleRate float64
	fftSize    int
	hop        int
	bins       int
	binRes     float64

	outMag    []float64
	outPhase  []float64
	strongest []float64

	rotation float64
}

// NewShifter creates a Shifter for the given frame geometry.
func NewShifter(fftSize, hop int, sampleRate float64) (*Shifter, error) {
	if !core.IsPowerOfTwo(fftSize) || fftSize < 4 {
		return nil, fmt.Errorf("spectral shifter fft size must be a power of two >= 4: %d", fftSize)
	}

	if hop <= 0 || hop > fftSize {
		return nil, fmt.Errorf("spectral shifter hop must be in (0, %d]: %d", fftSize, hop)
	}

	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("spectral shifter sample rate must be > 0 and finite: %f", sampleRate)
	}

	bins := fftSize/2 + 1

	return &Shifter{
		sampleRate: sampleRate,
		fftSize:    fftSize,
		hop:        hop,
		bins:       bins,
		binRes:     sampleRate / float64(fftSize),
		outMag:     make([]float64, bins),
		outPhase:   make([]float64, bins),
		strongest:  make([]float64, bins),
	}, nil
}

// BinResolution returns the bin spacing in Hz.
func (s *Shifter) BinResolution() float64 { return s.binRes }

// BinOffset returns the whole-bin offset used for shiftHz.
func (s *Shifter) BinOffset(shiftHz float64) int {
	return int(math.Round(shiftHz / s.binRes))
}

// Reset clears the running phase rotation.
func (s *Shifter) Reset() { s.rotation = 0 }

// Process shifts mag and phase in place by shiftHz. When rotate is true a
// running phase rotation of 2*pi*shiftHz*hop/sampleRate per frame is added
// so shifted partials stay coherent across frames without a phase vocoder.
func (s *Shifter) Process(mag, phase []float64, shiftHz float64, rotate bool) {
	n := min(len(mag), len(phase), s.bins)
	if n == 0 {
		return
	}

	offset := s.BinOffset(shiftHz)
	if offset == 0 && !rotate {
		return
	}

	core.Zero(s.outMag[:n])
	core.Zero(s.outPhase[:n])

	for i := range n {
		s.strongest[i] = -1
	}

	for k := range n {
		m := mag[k]
		if m <= 0 {
			continue
		}

		p := phase[k]

		t := k + offset
		if t < 0 {
			t = -t
			p = -p
		}

		if t >= n {
			continue
		}

		s.outMag[t] += m
		if m > s.strongest[t] {
			s.strongest[t] = m
			s.outPhase[t] = p
		}
	}

	if rotate {
		s.rotation = core.WrapPhase(s.rotation + 2*math.Pi*shiftHz*float64(s.hop)/s.sampleRate)
		for i := range n {
			s.outPhase[i] = core.WrapPhase(s.outPhase[i] + s.rotation)
		}
	}

	copy(mag[:n], s.outMag[:n])
	copy(phase[:n], s.outPhase[:n])
}
