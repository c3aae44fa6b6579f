package spectral

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fshift/dsp/core"
)

// MaskMode selects which frequency region receives the wet signal.
type MaskMode int

const (
	// MaskLowPass passes the wet signal below the low cutoff.
	MaskLowPass MaskMode = iota
	// MaskHighPass passes the wet signal above the high cutoff.
	MaskHighPass
	// MaskBandPass passes the wet signal between the two cutoffs.
	MaskBandPass
)

const (
	minMaskFreq       = 20.0
	minMaskTransition = 0.05
	maxMaskTransition = 4.0
)

// Mask is a per-bin wet/dry blend curve with smooth Hermite transitions
// measured in octaves. The curve is precomputed by ComputeCurve; Apply only
// reads the table.
type Mask struct {
	mode       MaskMode
	lowHz      float64
	highHz     float64
	transition float64

	curve []float64
}

// NewMask returns a band-pass mask between 200 Hz and 5 kHz with a one
// octave transition.
func NewMask() *Mask {
	return &Mask{
		mode:       MaskBandPass,
		lowHz:      200,
		highHz:     5000,
		transition: 1,
	}
}

// Mode returns the mask mode.
func (m *Mask) Mode() MaskMode { return m.mode }

// LowHz returns the low cutoff.
func (m *Mask) LowHz() float64 { return m.lowHz }

// HighHz returns the high cutoff.
func (m *Mask) HighHz() float64 { return m.highHz }

// Transition returns the transition width in octaves.
func (m *Mask) Transition() float64 { return m.transition }

// Curve returns the precomputed per-bin mask. The slice is owned by m.
func (m *Mask) Curve() []float64 { return m.curve }

// SetMode sets the mask mode.
func (m *Mask) SetMode(mode MaskMode) error {
	if mode < MaskLowPass || mode > MaskBandPass {
		return fmt.Errorf("spectral mask: invalid mode %d", mode)
	}

	m.mode = mode

	return nil
}

// SetLowHz sets the low cutoff (floored at 20 Hz).
func (m *Mask) SetLowHz(hz float64) { m.lowHz = math.Max(minMaskFreq, hz) }

// SetHighHz sets the high cutoff (floored at 20 Hz).
func (m *Mask) SetHighHz(hz float64) { m.highHz = math.Max(minMaskFreq, hz) }

// SetTransition sets the transition width, clamped to [0.05, 4] octaves.
func (m *Mask) SetTransition(octaves float64) {
	m.transition = core.Clamp(octaves, minMaskTransition, maxMaskTransition)
}

// At returns the mask value (0 dry, 1 wet) at freqHz.
func (m *Mask) At(freqHz float64) float64 {
	if freqHz <= 0 {
		return 0
	}

	switch m.mode {
	case MaskLowPass:
		return lowPassAt(freqHz, m.lowHz, m.transition)
	case MaskHighPass:
		return highPassAt(freqHz, m.highHz, m.transition)
	case MaskBandPass:
		return lowPassAt(freqHz, m.highHz, m.transition) * highPassAt(freqHz, m.lowHz, m.transition)
	default:
		return 1
	}
}

// ComputeCurve rebuilds the per-bin table for fftSize/2 bins. Storage is
// reused when possible.
func (m *Mask) ComputeCurve(sampleRate float64, fftSize int) {
	bins := fftSize / 2
	m.curve = core.Resize(m.curve, bins)

	res := sampleRate / float64(fftSize)
	for k := range bins {
		m.curve[k] = m.At(float64(k) * res)
	}
}

// Apply blends wet toward dry bin by bin: mag = wet*mask + dry*(1-mask).
// Where the mask is below 0.5 the dry phase replaces the wet phase.
func (m *Mask) Apply(wetMag, wetPhase, dryMag, dryPhase []float64) {
	n := min(len(wetMag), len(wetPhase), len(dryMag), len(dryPhase), len(m.curve))

	for k := range n {
		g := m.curve[k]
		wetMag[k] = wetMag[k]*g + dryMag[k]*(1-g)

		if g < 0.5 {
			wetPhase[k] = dryPhase[k]
		}
	}
}

func lowPassAt(freq, cutoff, transition float64) float64 {
	if freq <= 0 || cutoff <= 0 || transition <= 0 {
		return 1
	}

	return 1 - core.Smoothstep(math.Log2(freq/cutoff)/transition*0.5+0.5)
}

func highPassAt(freq, cutoff, transition float64) float64 {
	if cutoff <= 0 || transition <= 0 {
		return 1
	}

	if freq <= 0 {
		return 0
	}

	return core.Smoothstep(math.Log2(freq/cutoff)/transition*0.5 + 0.5)
}
