package engine

import (
	"math"

	"github.com/cwbudde/algo-fshift/dsp/core"
	"github.com/cwbudde/algo-fshift/dsp/filter/biquad"
)

const (
	feedbackHighpassHz = 150.0
	maxDampingCutoffHz = 20000.0
	minDampingRatio    = 0.05
)

// Q values of a fourth-order Butterworth lowpass split into two sections.
var butterworth4Q = [2]float64{0.5411961001461971, 1.3065629648763766}

// dampingCutoff maps damping in [0, 1] onto a lowpass cutoff between
// 20 kHz and 1 kHz, kept below Nyquist.
func dampingCutoff(damping, sampleRate float64) float64 {
	fc := maxDampingCutoffHz * math.Pow(minDampingRatio, core.Clamp(damping, 0, 1))
	return math.Min(fc, 0.45*sampleRate)
}

// classicFeedback conditions the Hilbert shifter output before it is fed
// back: DC blocker then a fourth-order lowpass.
type classicFeedback struct {
	dc *biquad.DCBlocker
	lp *biquad.Chain
}

func newClassicFeedback(damping, sampleRate float64) classicFeedback {
	f := classicFeedback{
		dc: biquad.NewDCBlocker(0),
		lp: biquad.NewChain(biquad.Coefficients{B0: 1}, biquad.Coefficients{B0: 1}),
	}
	f.setDamping(damping, sampleRate)

	return f
}

func (f *classicFeedback) setDamping(damping, sampleRate float64) {
	fc := dampingCutoff(damping, sampleRate)
	f.lp.UpdateCoefficients(
		biquad.Lowpass(fc, butterworth4Q[0], sampleRate),
		biquad.Lowpass(fc, butterworth4Q[1], sampleRate),
	)
}

func (f *classicFeedback) process(x float64) float64 {
	return f.lp.ProcessSample(f.dc.ProcessSample(x))
}

func (f *classicFeedback) reset() {
	f.dc.Reset()
	f.lp.Reset()
}

// spectralFeedback conditions the STFT output before it is fed back:
// 150 Hz highpass then a one-pole damping lowpass.
type spectralFeedback struct {
	hp *biquad.Section
	lp *biquad.OnePole
}

func newSpectralFeedback(damping, sampleRate float64) spectralFeedback {
	return spectralFeedback{
		hp: biquad.NewSection(biquad.Highpass(feedbackHighpassHz, biquad.ButterworthQ, sampleRate)),
		lp: biquad.NewOnePole(dampingCutoff(damping, sampleRate), sampleRate),
	}
}

func (f *spectralFeedback) setDamping(damping, sampleRate float64) {
	f.lp.SetCutoff(dampingCutoff(damping, sampleRate), sampleRate)
}

func (f *spectralFeedback) process(x float64) float64 {
	return f.lp.ProcessSample(f.hp.ProcessSample(x))
}

func (f *spectralFeedback) reset() {
	f.hp.Reset()
	f.lp.Reset()
}

// feedbackReadOffset returns the read offset into the feedback buffer that
// yields a loop delay of delaySamples. Spectral feedback passes the STFT
// again, so its frame latency is taken off. The result is at least 1.
func feedbackReadOffset(delaySamples int, mode Mode, fftSize int) int {
	if mode == ModeSpectral {
		delaySamples -= fftSize
	}

	return max(1, delaySamples)
}
