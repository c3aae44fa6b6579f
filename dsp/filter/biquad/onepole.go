package biquad

import "math"

// OnePole is a first-order lowpass y += a*(x - y), used for feedback
// damping.
type OnePole struct {
	a float64
	y float64
}

// NewOnePole returns a one-pole lowpass with a -3 dB point near cutoff Hz.
func NewOnePole(cutoff, sampleRate float64) *OnePole {
	p := &OnePole{}
	p.SetCutoff(cutoff, sampleRate)

	return p
}

// SetCutoff updates the cutoff frequency. A cutoff at or above Nyquist
// makes the filter transparent.
func (p *OnePole) SetCutoff(cutoff, sampleRate float64) {
	if sampleRate <= 0 || cutoff >= sampleRate/2 {
		p.a = 1
		return
	}

	if cutoff <= 0 {
		p.a = 0
		return
	}

	p.a = 1 - math.Exp(-2*math.Pi*cutoff/sampleRate)
}

// SetCoefficient sets the smoothing coefficient directly, clamped to [0,1].
// 1 passes the input through unchanged.
func (p *OnePole) SetCoefficient(a float64) {
	p.a = math.Max(0, math.Min(1, a))
}

// Coefficient returns the smoothing coefficient.
func (p *OnePole) Coefficient() float64 { return p.a }

// ProcessSample filters one sample.
func (p *OnePole) ProcessSample(x float64) float64 {
	p.y += p.a * (x - p.y)
	return p.y
}

// Reset clears the filter state.
func (p *OnePole) Reset() { p.y = 0 }

// DCBlocker removes DC with y[n] = x[n] - x[n-1] + r*y[n-1].
type DCBlocker struct {
	r     float64
	xPrev float64
	yPrev float64
}

// DefaultDCBlockerPole is the pole radius used by NewDCBlocker, giving a
// corner of about 7 Hz at 44.1 kHz.
const DefaultDCBlockerPole = 0.995

// NewDCBlocker returns a DC blocker with pole radius r. Values outside
// (0,1) fall back to DefaultDCBlockerPole.
func NewDCBlocker(r float64) *DCBlocker {
	if r <= 0 || r >= 1 {
		r = DefaultDCBlockerPole
	}

	return &DCBlocker{r: r}
}

// ProcessSample filters one sample.
func (d *DCBlocker) ProcessSample(x float64) float64 {
	y := x - d.xPrev + d.r*d.yPrev
	d.xPrev = x
	d.yPrev = y

	return y
}

// Reset clears the filter state.
func (d *DCBlocker) Reset() {
	d.xPrev = 0
	d.yPrev = 0
}
