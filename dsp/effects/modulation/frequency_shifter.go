package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fshift/dsp/filter/hilbert"
)

// Latency is the approximate delay of the Hilbert shifter in samples.
const Latency = hilbert.GroupDelay

// FrequencyShifterOption mutates frequency shifter construction parameters.
type FrequencyShifterOption func(*frequencyShifterConfig) error

type frequencyShifterConfig struct {
	shiftHz float64
}

// WithFrequencyShiftHz sets the initial shift in Hz. Negative values shift
// down.
func WithFrequencyShiftHz(shiftHz float64) FrequencyShifterOption {
	return func(cfg *frequencyShifterConfig) error {
		if math.IsNaN(shiftHz) || math.IsInf(shiftHz, 0) {
			return fmt.Errorf("frequency shifter shift Hz must be finite: %f", shiftHz)
		}

		cfg.shiftHz = shiftHz

		return nil
	}
}

// FrequencyShifter is a single-sideband frequency shifter. A quadrature
// pair (I, Q) from the allpass network is mixed with a cos/sin oscillator
// at |shift|: I*cos - Q*sin selects the upper sideband, I*cos + Q*sin the
// lower one. Use one instance per channel.
type FrequencyShifter struct {
	sampleRate float64
	shiftHz    float64
	phase      float64
	phaseInc   float64

	quad hilbert.Quadrature
}

// NewFrequencyShifter creates a frequency shifter.
func NewFrequencyShifter(sampleRate float64, opts ...FrequencyShifterOption) (*FrequencyShifter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("frequency shifter sample rate must be > 0 and finite: %f", sampleRate)
	}

	var cfg frequencyShifterConfig
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	f := &FrequencyShifter{
		sampleRate: sampleRate,
		shiftHz:    cfg.shiftHz,
	}
	f.updatePhaseIncrement()

	return f, nil
}

// SetSampleRate updates the sample rate.
func (f *FrequencyShifter) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("frequency shifter sample rate must be > 0 and finite: %f", sampleRate)
	}

	f.sampleRate = sampleRate
	f.updatePhaseIncrement()

	return nil
}

// SetShiftHz updates the shift. Non-finite values are ignored.
func (f *FrequencyShifter) SetShiftHz(shiftHz float64) {
	if math.IsNaN(shiftHz) || math.IsInf(shiftHz, 0) {
		return
	}

	f.shiftHz = shiftHz
	f.updatePhaseIncrement()
}

// Reset clears the allpass state and oscillator phase.
func (f *FrequencyShifter) Reset() {
	f.phase = 0
	f.quad.Reset()
}

// ProcessSample processes one sample.
func (f *FrequencyShifter) ProcessSample(input float64) float64 {
	i, q := f.quad.ProcessSample(input)
	sinOsc, cosOsc := math.Sincos(f.phase)

	var out float64
	if f.shiftHz >= 0 {
		out = i*cosOsc - q*sinOsc
	} else {
		out = i*cosOsc + q*sinOsc
	}

	f.phase += f.phaseInc
	if f.phase >= 2*math.Pi {
		f.phase = math.Mod(f.phase, 2*math.Pi)
	}

	return out
}

// ProcessBlock processes src into dst. dst and src may alias.
func (f *FrequencyShifter) ProcessBlock(dst, src []float64) error {
	if len(dst) != len(src) {
		return fmt.Errorf("frequency shifter block length mismatch: dst=%d src=%d", len(dst), len(src))
	}

	for i, x := range src {
		dst[i] = f.ProcessSample(x)
	}

	return nil
}

// SampleRate returns the sample rate in Hz.
func (f *FrequencyShifter) SampleRate() float64 { return f.sampleRate }

// ShiftHz returns the signed shift in Hz.
func (f *FrequencyShifter) ShiftHz() float64 { return f.shiftHz }

// Phase returns the oscillator phase in [0, 2*pi).
func (f *FrequencyShifter) Phase() float64 { return f.phase }

func (f *FrequencyShifter) updatePhaseIncrement() {
	f.phaseInc = 2 * math.Pi * math.Abs(f.shiftHz) / f.sampleRate
}
