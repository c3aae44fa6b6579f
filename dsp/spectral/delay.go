//nolint:funcorder
package spectral

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fshift/dsp/core"
)

const (
	defaultMaxDelayMs   = 2000.0
	minActiveDelayMs    = 0.1
	maxSpectralFeedback = 0.95
	phaseBlendMinMix    = 0.01
	phaseBlendMinMag    = 0.001
)

// Delay is a bank of per-bin circular delay lines for magnitude and phase.
// Each bin's delay is the base time warped by a frequency slope; repeats are
// fed back with a per-bin high-frequency damping curve.
type Delay struct {
	sampleRate float64
	fftSize    int
	hop        int
	bins       int
	maxFrames  int
	maxDelayMs float64

	delayMs  float64
	slope    float64 // -100..100
	feedback float64 // 0..0.95
	damping  float64 // 0..100
	mix      float64 // 0..1
	gain     float64 // linear

	magBuf   []float64 // bins * maxFrames, one row per bin
	phaseBuf []float64
	writePos int

	delayFrames []int
	dampCurve   []float64
}

// NewDelay creates a spectral delay sized for maxDelayMs (<= 0 selects
// 2000 ms) at the given frame geometry.
func NewDelay(sampleRate float64, fftSize, hop int, maxDelayMs float64) (*Delay, error) {
	d := &Delay{
		delayMs:  200,
		feedback: 0.3,
		damping:  30,
		mix:      0.5,
		gain:     1,
	}

	if err := d.Prepare(sampleRate, fftSize, hop, maxDelayMs); err != nil {
		return nil, err
	}

	return d, nil
}

// Prepare resizes the delay lines for a new frame geometry and clears them.
// Parameters are kept.
func (d *Delay) Prepare(sampleRate float64, fftSize, hop int, maxDelayMs float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("spectral delay sample rate must be > 0 and finite: %f", sampleRate)
	}

	if !core.IsPowerOfTwo(fftSize) || fftSize < 4 {
		return fmt.Errorf("spectral delay fft size must be a power of two >= 4: %d", fftSize)
	}

	if hop <= 0 || hop > fftSize {
		return fmt.Errorf("spectral delay hop must be in (0, %d]: %d", fftSize, hop)
	}

	if maxDelayMs <= 0 {
		maxDelayMs = defaultMaxDelayMs
	}

	d.sampleRate = sampleRate
	d.fftSize = fftSize
	d.hop = hop
	d.bins = fftSize / 2
	d.maxDelayMs = maxDelayMs
	d.maxFrames = max(2, int(math.Ceil(maxDelayMs/1000*d.frameRate())))

	d.magBuf = core.Resize(d.magBuf, d.bins*d.maxFrames)
	d.phaseBuf = core.Resize(d.phaseBuf, d.bins*d.maxFrames)
	d.delayFrames = core.Resize(d.delayFrames, d.bins)
	d.dampCurve = core.Resize(d.dampCurve, d.bins)
	d.writePos = 0

	d.computeDelayFrames()
	d.computeDampingCurve()

	return nil
}

// Reset clears the delay lines.
func (d *Delay) Reset() {
	core.Zero(d.magBuf)
	core.Zero(d.phaseBuf)
	d.writePos = 0
}

// Bins returns the number of processed bins (fftSize/2).
func (d *Delay) Bins() int { return d.bins }

// MaxFrames returns the delay line length in frames.
func (d *Delay) MaxFrames() int { return d.maxFrames }

// DelayFrames returns the delay of bin in frames, or 0 if bin is out of range.
func (d *Delay) DelayFrames(bin int) int {
	if bin < 0 || bin >= len(d.delayFrames) {
		return 0
	}

	return d.delayFrames[bin]
}

// DelayTimeMs returns the base delay time.
func (d *Delay) DelayTimeMs() float64 { return d.delayMs }

// Slope returns the frequency slope in percent.
func (d *Delay) Slope() float64 { return d.slope }

// Feedback returns the feedback amount.
func (d *Delay) Feedback() float64 { return d.feedback }

// Damping returns the damping amount in percent.
func (d *Delay) Damping() float64 { return d.damping }

// Mix returns the wet mix in percent.
func (d *Delay) Mix() float64 { return d.mix * 100 }

// GainDB returns the wet gain in dB.
func (d *Delay) GainDB() float64 { return core.LinearToDB(d.gain) }

// SetDelayTimeMs sets the base delay, clamped to [0, maxDelayMs].
func (d *Delay) SetDelayTimeMs(ms float64) {
	d.delayMs = core.Clamp(ms, 0, d.maxDelayMs)
	d.computeDelayFrames()
}

// SetSlope sets the frequency slope in percent, clamped to [-100, 100].
// Negative values delay low bins longer, positive values high bins.
func (d *Delay) SetSlope(percent float64) {
	d.slope = core.Clamp(percent, -100, 100)
	d.computeDelayFrames()
}

// SetFeedback sets the feedback amount, clamped to [0, 0.95].
func (d *Delay) SetFeedback(fb float64) { d.feedback = core.Clamp(fb, 0, maxSpectralFeedback) }

// SetDamping sets high-frequency damping in percent, clamped to [0, 100].
func (d *Delay) SetDamping(percent float64) {
	d.damping = core.Clamp(percent, 0, 100)
	d.computeDampingCurve()
}

// SetMix sets the wet mix in percent, clamped to [0, 100].
func (d *Delay) SetMix(percent float64) { d.mix = core.Clamp(percent, 0, 100) / 100 }

// SetGainDB sets the wet gain in dB, clamped to [-12, 24].
func (d *Delay) SetGainDB(db float64) { d.gain = core.DBToLinear(core.Clamp(db, -12, 24)) }

// Process runs one frame through the delay in place. Delays below 0.1 ms
// bypass the effect entirely.
func (d *Delay) Process(mag, phase []float64) {
	if d.delayMs < minActiveDelayMs {
		return
	}

	n := min(len(mag), len(phase), d.bins)

	for k := range n {
		row := k * d.maxFrames
		read := d.writePos - d.delayFrames[k]
		if read < 0 {
			read += d.maxFrames
		}

		delayedMag := d.magBuf[row+read]
		delayedPhase := d.phaseBuf[row+read]

		dryMag := mag[k]
		dryPhase := phase[k]

		d.magBuf[row+d.writePos] = dryMag + delayedMag*d.feedback*d.dampCurve[k]
		d.phaseBuf[row+d.writePos] = dryPhase

		mag[k] = dryMag*(1-d.mix) + delayedMag*d.gain*d.mix

		if d.mix > phaseBlendMinMix && delayedMag > phaseBlendMinMag {
			phase[k] = dryPhase*(1-d.mix) + delayedPhase*d.mix
		}
	}

	d.writePos++
	if d.writePos >= d.maxFrames {
		d.writePos = 0
	}
}

func (d *Delay) frameRate() float64 {
	return d.sampleRate / float64(d.hop)
}

func (d *Delay) computeDelayFrames() {
	base := d.delayMs / 1000 * d.frameRate()

	for k := range d.delayFrames {
		binNorm := float64(k) / float64(d.bins)
		factor := math.Max(0.1, 1+(d.slope/100)*(binNorm-0.5)*2)
		d.delayFrames[k] = core.Clamp(int(base*factor), 1, d.maxFrames-1)
	}
}

func (d *Delay) computeDampingCurve() {
	amount := d.damping / 100

	for k := range d.dampCurve {
		binNorm := float64(k) / float64(d.bins)
		d.dampCurve[k] = math.Max(0, 1-amount*binNorm*binNorm)
	}
}
