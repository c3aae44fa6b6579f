package engine

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fshift/dsp/core"
	"github.com/cwbudde/algo-fshift/dsp/delay"
	"github.com/cwbudde/algo-fshift/dsp/effects/modulation"
	"github.com/cwbudde/algo-fshift/dsp/quantize"
	"github.com/cwbudde/algo-fshift/dsp/spectral"
	"github.com/cwbudde/algo-fshift/dsp/stft"
	"github.com/cwbudde/algo-fshift/dsp/vocoder"
	"github.com/cwbudde/algo-fshift/dsp/window"
)

const (
	minActiveShiftHz    = 0.01
	minActiveStrength   = 0.01
	spectralMaxDelayMs  = 2000.0
	quantizerRootOffset = 60
)

// frameParams are the per-block settings read by the frame callback.
type frameParams struct {
	shiftHz      float64
	strength     float64
	phaseVocoder bool
	preserve     bool
	drift        bool
	mask         bool
	spectralDly  bool
}

// spectralPath is one channel of the STFT chain: vocoder, bin shifter,
// quantizer, mask and spectral delay, followed by a compensation delay
// that pads the stream latency up to MaxFFTSize.
type spectralPath struct {
	stream  *stft.Stream
	vocoder *vocoder.PhaseVocoder
	shifter *spectral.Shifter
	quant   *quantize.Quantizer
	mask    *spectral.Mask
	sdelay  *spectral.Delay
	drift   *modulation.Drift
	comp    *delay.Line

	fftSize int
	hop     int
	locking bool
	frame   frameParams

	dryMag   []float64
	dryPhase []float64
	preShift []float64
	drifts   []float64

	// publish receives the processed spectrum; nil on all but one channel.
	publish func(mag []float64)
}

func newSpectralPath(sampleRate float64, fftSize int, win window.Type, seed int64, locking bool) (*spectralPath, error) {
	hop := fftSize / OverlapFactor

	p := &spectralPath{
		quant:   quantize.New(quantizerRootOffset, quantize.Major),
		mask:    spectral.NewMask(),
		locking: locking,
	}

	var err error

	p.stream, err = stft.NewStream(fftSize, hop, win, p.processFrame)
	if err != nil {
		return nil, err
	}

	p.sdelay, err = spectral.NewDelay(sampleRate, fftSize, hop, spectralMaxDelayMs)
	if err != nil {
		return nil, err
	}

	p.drift, err = modulation.NewDrift(sampleRate, fftSize/2+1, seed)
	if err != nil {
		return nil, err
	}

	p.comp, err = delay.New(MaxFFTSize + 1)
	if err != nil {
		return nil, err
	}

	if err := p.prepare(sampleRate, fftSize, win); err != nil {
		return nil, err
	}

	return p, nil
}

// prepare reconfigures every stage for a new frame size or window and
// clears all history. It allocates and must only run from the
// reinitialization path.
func (p *spectralPath) prepare(sampleRate float64, fftSize int, win window.Type) error {
	hop := fftSize / OverlapFactor
	bins := fftSize/2 + 1

	if err := p.stream.Reconfigure(fftSize, hop, win); err != nil {
		return fmt.Errorf("spectral path: %w", err)
	}

	v, err := vocoder.New(fftSize, hop, sampleRate, vocoder.WithPhaseLocking(p.locking))
	if err != nil {
		return fmt.Errorf("spectral path: %w", err)
	}

	s, err := spectral.NewShifter(fftSize, hop, sampleRate)
	if err != nil {
		return fmt.Errorf("spectral path: %w", err)
	}

	if err := p.quant.Prepare(sampleRate, fftSize, hop); err != nil {
		return fmt.Errorf("spectral path: %w", err)
	}

	if err := p.sdelay.Prepare(sampleRate, fftSize, hop, spectralMaxDelayMs); err != nil {
		return fmt.Errorf("spectral path: %w", err)
	}

	if err := p.drift.Prepare(sampleRate, bins); err != nil {
		return fmt.Errorf("spectral path: %w", err)
	}

	p.vocoder = v
	p.shifter = s
	p.fftSize = fftSize
	p.hop = hop
	p.mask.ComputeCurve(sampleRate, fftSize)

	p.dryMag = core.Resize(p.dryMag, bins)
	p.dryPhase = core.Resize(p.dryPhase, bins)
	p.preShift = core.Resize(p.preShift, bins)
	p.drifts = core.Resize(p.drifts, bins)

	p.reset()

	return nil
}

// reset clears all history without touching the configuration.
func (p *spectralPath) reset() {
	p.stream.Reset()
	p.vocoder.Reset()
	p.shifter.Reset()
	p.quant.Reset()
	p.sdelay.Reset()
	p.drift.Reset()
	p.comp.Reset()
}

// processSample returns the raw stream output, delayed by fftSize, and the
// compensated output, delayed by MaxFFTSize.
func (p *spectralPath) processSample(x float64) (raw, aligned float64) {
	raw = p.stream.ProcessSample(x)
	aligned = p.comp.Process(raw, MaxFFTSize-p.fftSize)

	return raw, aligned
}

func (p *spectralPath) processFrame(mag, phase []float64) {
	f := &p.frame

	copy(p.dryMag, mag)
	copy(p.dryPhase, phase)

	if f.preserve {
		copy(p.preShift, mag)
	}

	if math.Abs(f.shiftHz) > minActiveShiftHz {
		if f.phaseVocoder {
			p.vocoder.Process(mag, phase, f.shiftHz, phase)
			p.shifter.Process(mag, phase, f.shiftHz, false)
		} else {
			p.shifter.Process(mag, phase, f.shiftHz, true)
		}
	}

	if f.strength > minActiveStrength {
		var drifts, pre []float64

		if f.drift {
			p.drift.AdvanceFrame(p.hop)
			p.drift.Fill(p.drifts)
			drifts = p.drifts
		}

		if f.preserve {
			pre = p.preShift
		}

		p.quant.QuantizeSpectrum(mag, phase, f.strength, drifts, pre)
	}

	if f.mask {
		p.mask.Apply(mag, phase, p.dryMag, p.dryPhase)
	}

	if f.spectralDly {
		p.sdelay.Process(mag, phase)
	}

	if p.publish != nil {
		p.publish(mag)
	}
}
