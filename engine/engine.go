package engine

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fshift/dsp/core"
	"github.com/cwbudde/algo-fshift/dsp/delay"
	"github.com/cwbudde/algo-fshift/dsp/effects/modulation"
	"github.com/cwbudde/algo-fshift/dsp/filter/biquad"
	"github.com/cwbudde/algo-fshift/dsp/quantize"
	"github.com/cwbudde/algo-fshift/dsp/window"
)

// ErrSampleRate is returned for a non-positive or non-finite sample rate.
var ErrSampleRate = errors.New("engine: sample rate must be > 0 and finite")

const (
	// ClassicLatency is the reported latency of the Hilbert path.
	ClassicLatency = modulation.Latency

	maxDelayMs      = 2000.0
	minDelayMs      = 10.0
	decorrelationMs = 0.06
	warmShelfHz     = 3000.0
	warmShelfDB     = -6.0
)

// channel owns every per-channel processor.
type channel struct {
	classic  *modulation.FrequencyShifter
	spectral *spectralPath

	feedback   *delay.Line
	classicFB  classicFeedback
	spectralFB spectralFeedback

	dry   *delay.Line
	warm  *biquad.Section
	decor *delay.Line
}

func (c *channel) reset() {
	c.classic.Reset()
	c.spectral.reset()
	c.feedback.Reset()
	c.classicFB.reset()
	c.spectralFB.reset()
	c.dry.Reset()
	c.warm.Reset()
	c.decor.Reset()
}

// Engine is the block orchestrator. It runs the Classic or Spectral path
// per channel, crossfades on mode changes, routes feedback through the
// time-domain delay and mixes dry and wet.
//
// ProcessBlock must be called from a single goroutine. Params, Latency,
// ReadSpectrum and the state getters may be used concurrently with it.
type Engine struct {
	log       logrus.FieldLogger
	transport Transport
	seed      int64
	locking   bool

	sampleRate float64
	blockSize  int
	fftSize    int
	windowType window.Type

	params *ParamStore
	snap   Snapshot

	chans    []*channel
	shiftLFO *modulation.LFO
	delayLFO *modulation.LFO

	mode     modeSwitch
	state    atomic.Int32
	xfade    atomic.Uint64
	latency  atomic.Int64
	spectrum spectrumSnapshot
}

// New creates an engine for the given sample rate and maximum block size.
func New(sampleRate float64, blockSize int, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		log:       cfg.logger,
		transport: cfg.transport,
		seed:      cfg.seed,
		locking:   cfg.locking,
		params:    NewParamStore(),
		chans:     make([]*channel, cfg.channels),
	}

	if cfg.params != nil {
		if err := e.params.Load(cfg.params); err != nil {
			return nil, err
		}
	}

	if err := e.Prepare(sampleRate, blockSize); err != nil {
		return nil, err
	}

	return e, nil
}

// Prepare rebuilds every processor for a new sample rate or block size and
// clears all state. It allocates and must not run concurrently with
// ProcessBlock.
func (e *Engine) Prepare(sampleRate float64, blockSize int) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: %f", ErrSampleRate, sampleRate)
	}

	if blockSize <= 0 {
		return fmt.Errorf("engine block size must be > 0: %d", blockSize)
	}

	e.params.takeDirty()
	e.params.Snapshot(&e.snap)
	p := &e.snap

	e.sampleRate = sampleRate
	e.blockSize = blockSize
	e.fftSize = FFTSizeForSmear(p.SmearMs, sampleRate)
	e.windowType = p.Window

	var err error

	e.shiftLFO, err = modulation.NewLFO(sampleRate, e.seed)
	if err != nil {
		return err
	}

	e.delayLFO, err = modulation.NewLFO(sampleRate, e.seed+1)
	if err != nil {
		return err
	}

	fbLen := int(math.Ceil(maxDelayMs*sampleRate/1000)) + 2
	decorLen := int(math.Ceil(decorrelationMs*sampleRate/1000)) + 8

	for i := range e.chans {
		c := &channel{
			classicFB:  newClassicFeedback(p.Damping, sampleRate),
			spectralFB: newSpectralFeedback(p.Damping, sampleRate),
			warm:       biquad.NewSection(biquad.HighShelf(warmShelfHz, warmShelfDB, biquad.ButterworthQ, sampleRate)),
		}

		if c.classic, err = modulation.NewFrequencyShifter(sampleRate); err != nil {
			return err
		}

		if c.spectral, err = newSpectralPath(sampleRate, e.fftSize, e.windowType, e.seed+int64(i), e.locking); err != nil {
			return err
		}

		if c.feedback, err = delay.New(fbLen); err != nil {
			return err
		}

		if c.dry, err = delay.New(MaxFFTSize + 2); err != nil {
			return err
		}

		if c.decor, err = delay.New(decorLen); err != nil {
			return err
		}

		e.chans[i] = c
	}

	e.chans[0].spectral.publish = e.publishSpectrum

	e.applyScale(p)
	e.applyMask(p)
	e.applySpectralDelay(p)

	e.mode = newModeSwitch(p.Mode, sampleRate)
	e.storeModeState()
	e.latency.Store(int64(e.latencyFor(e.mode.active())))
	e.spectrum.reset()

	e.log.WithFields(logrus.Fields{
		"sample_rate": sampleRate,
		"block_size":  blockSize,
		"channels":    len(e.chans),
		"fft_size":    e.fftSize,
		"hop":         e.fftSize / OverlapFactor,
		"mode":        e.mode.active().String(),
		"locking":     e.locking,
	}).Debug("engine prepared")

	return nil
}

// Params returns the parameter store shared with the control thread.
func (e *Engine) Params() *ParamStore { return e.params }

// SampleRate returns the prepared sample rate.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Channels returns the number of processed channels.
func (e *Engine) Channels() int { return len(e.chans) }

// FFTSize returns the current analysis frame size.
func (e *Engine) FFTSize() int { return e.fftSize }

// LatencySamples returns the latency the host should compensate.
func (e *Engine) LatencySamples() int { return int(e.latency.Load()) }

// Mode returns the mode that dominates the output, the target during a
// switch.
func (e *Engine) Mode() Mode {
	if s := State(e.state.Load()); s == StateClassic || s == StateSwitchingToClassic {
		return ModeClassic
	}

	return ModeSpectral
}

// State returns the mode state machine position.
func (e *Engine) State() State { return State(e.state.Load()) }

// CrossfadeProgress returns the mode crossfade position in [0, 1].
func (e *Engine) CrossfadeProgress() float64 {
	return math.Float64frombits(e.xfade.Load())
}

// ReadSpectrum copies the latest normalized magnitude spectrum into dst.
// It returns the number of valid bins and false until a frame has been
// analysed.
func (e *Engine) ReadSpectrum(dst []float64) (int, bool) {
	return e.spectrum.read(dst)
}

// Reset clears all audio history, the modulation phases and any
// unfinished mode switch.
func (e *Engine) Reset() {
	for _, c := range e.chans {
		c.reset()
	}

	e.shiftLFO.Reset()
	e.delayLFO.Reset()
	e.mode = newModeSwitch(e.mode.active(), e.sampleRate)
	e.storeModeState()
	e.latency.Store(int64(e.latencyFor(e.mode.active())))
	e.spectrum.reset()
}

// ProcessBlock processes buffers in place, one slice per channel. Extra
// channels beyond Channels are left untouched; channels shorter than the
// first are processed up to their own length.
func (e *Engine) ProcessBlock(buffers [][]float64) {
	if len(buffers) == 0 || len(buffers[0]) == 0 {
		return
	}

	e.beginBlock(len(buffers[0]))

	p := &e.snap
	nCh := min(len(buffers), len(e.chans))
	n := len(buffers[0])

	bpm := e.tempo()
	delayMs := core.Clamp(syncedDelayMs(p.DelaySync, bpm, p.DelayTimeMs)+e.delayLFO.Value(), minDelayMs, maxDelayMs)
	delaySamples := int(math.Round(delayMs * e.sampleRate / 1000))
	decorSamples := decorrelationMs * e.sampleRate / 1000
	decorrelate := p.Decorrelate && nCh > 1

	for i := range n {
		gC, gS := e.mode.gains()
		runC := e.mode.state != StateSpectral
		runS := e.mode.state != StateClassic
		fbMode := e.mode.active()
		readOffset := feedbackReadOffset(delaySamples, fbMode, e.fftSize)

		for ch := range nCh {
			buf := buffers[ch]
			if i >= len(buf) {
				continue
			}

			c := e.chans[ch]
			x := buf[i]

			in := x
			if p.DelayEnabled {
				in += c.feedback.Read(readOffset)
			}

			var wet, tap float64

			if runC {
				y := c.classic.ProcessSample(in)
				wet += gC * y
				tap += gC * y
			}

			if runS {
				raw, aligned := c.spectral.processSample(in)
				wet += gS * aligned
				tap += gS * raw
			}

			if p.DelayEnabled {
				var fb float64
				if fbMode == ModeClassic {
					fb = c.classicFB.process(tap)
				} else {
					fb = c.spectralFB.process(tap)
				}

				c.feedback.Write(core.SoftClip(fb * p.Feedback))
			} else {
				c.feedback.Write(0)
			}

			c.dry.Write(x)
			dry := gC*c.dry.Read(ClassicLatency+1) + gS*c.dry.Read(MaxFFTSize+1)

			if p.Warm {
				wet = c.warm.ProcessSample(wet)
			}

			out := dry*(1-p.DryWet) + wet*p.DryWet

			if decorrelate && ch == 0 {
				c.decor.Write(out)
				out = c.decor.ReadFractional(1 + decorSamples)
			}

			buf[i] = core.FlushDenormals(out)
		}

		if e.mode.advance() {
			e.latency.Store(int64(e.latencyFor(e.mode.active())))
			e.resetInactive()
		}
	}

	e.storeModeState()
}

// beginBlock applies pending parameter changes and advances the block-rate
// modulators.
func (e *Engine) beginBlock(n int) {
	flags := e.params.takeDirty()
	e.params.Snapshot(&e.snap)
	p := &e.snap

	if flags&dirtyReinit != 0 {
		e.reinitialize(p)
	}

	if flags&dirtyScale != 0 {
		e.applyScale(p)
	}

	if flags&dirtyMask != 0 {
		e.applyMask(p)
	}

	if flags&dirtySpectralDelay != 0 {
		e.applySpectralDelay(p)
	}

	if flags&dirtyFeedback != 0 {
		for _, c := range e.chans {
			c.classicFB.setDamping(p.Damping, e.sampleRate)
			c.spectralFB.setDamping(p.Damping, e.sampleRate)
		}
	}

	if flags&dirtyMode != 0 {
		if e.mode.request(p.Mode) {
			e.startInactive()
		}
	}

	bpm := e.tempo()
	shift := e.modulateShift(p, n, bpm)
	e.modulateDelay(p, n, bpm)

	frame := frameParams{
		shiftHz:      shift,
		strength:     p.Quantize,
		phaseVocoder: p.PhaseVocoder,
		preserve:     p.Preserve > 0,
		drift:        p.DriftAmount > 0,
		mask:         p.MaskEnabled,
		spectralDly:  p.SDelayEnabled,
	}

	for _, c := range e.chans {
		c.classic.SetShiftHz(shift)

		sp := c.spectral
		sp.frame = frame
		sp.quant.SetPreserve(p.Preserve)
		sp.quant.SetTransientSensitivity(p.TransientSensitivity)
		sp.quant.SetTransientBypass(p.TransientBypass)
		sp.drift.SetMode(p.DriftMode)
		sp.drift.SetDepth(p.DriftAmount)
		sp.drift.SetRate(p.DriftRate)
		sp.drift.SetShape(p.DriftShape)
		sp.drift.SetPhaseSpread(p.DriftSpread)
		sp.drift.SetPerlinOctaves(p.DriftOctaves)
		sp.drift.SetPerlinLacunarity(p.DriftLacunarity)
		sp.drift.SetPerlinPersistence(p.DriftPersistence)
	}
}

func (e *Engine) modulateShift(p *Snapshot, n int, bpm float64) float64 {
	l := e.shiftLFO
	l.SetRateHz(p.LFORate)
	l.SetShape(p.LFOShape)
	l.SetSync(p.LFOSync)
	l.SetTempo(bpm)
	l.SetAmountHz(p.LFODepthHz)
	l.SetQuantize(p.LFOQuantize, semitoneStepHz(p.RootNote))

	lfo := l.AdvanceBlock(n, e.lookahead(p.LFOSync, n))

	return core.Clamp(p.ShiftHz+lfo, -20000, 20000)
}

func (e *Engine) modulateDelay(p *Snapshot, n int, bpm float64) {
	l := e.delayLFO
	l.SetRateHz(p.DelayLFORate)
	l.SetShape(p.DelayLFOShape)
	l.SetSync(p.DelayLFOSync)
	l.SetTempo(bpm)
	l.SetAmountHz(p.DelayLFODepthMs)
	l.AdvanceBlock(n, e.lookahead(p.DelayLFOSync, n))
}

// lookahead returns the phase offset for tempo-synced modulators: one
// block, so the audible result lines up with the host grid despite the
// block of buffering.
func (e *Engine) lookahead(div modulation.SyncDivision, n int) int {
	if div == modulation.SyncOff {
		return 0
	}

	return n
}

// semitoneStepHz is the width of one semitone above the quantizer root,
// used as the LFO quantization step.
func semitoneStepHz(rootNote int) float64 {
	f := quantize.MidiToFreq(float64(quantizerRootOffset + rootNote))
	return f * (math.Exp2(1.0/12) - 1)
}

func (e *Engine) tempo() float64 {
	if bpm, ok := e.transport.Tempo(); ok {
		return math.Max(bpm, 20)
	}

	return DefaultTempo
}

// reinitialize rebuilds the spectral paths when the frame size or window
// changed.
func (e *Engine) reinitialize(p *Snapshot) {
	fftSize := FFTSizeForSmear(p.SmearMs, e.sampleRate)
	if fftSize == e.fftSize && p.Window == e.windowType {
		return
	}

	for _, c := range e.chans {
		if err := c.spectral.prepare(e.sampleRate, fftSize, p.Window); err != nil {
			e.log.WithError(err).Error("spectral reinitialization failed")
			return
		}
	}

	e.fftSize = fftSize
	e.windowType = p.Window

	// Settings applied to the old stages must be pushed again.
	e.applyScale(p)
	e.applyMask(p)
	e.applySpectralDelay(p)

	e.log.WithFields(logrus.Fields{
		"fft_size": fftSize,
		"hop":      fftSize / OverlapFactor,
		"window":   p.Window.String(),
	}).Debug("spectral path reinitialized")
}

func (e *Engine) applyScale(p *Snapshot) {
	for _, c := range e.chans {
		c.spectral.quant.SetRootMidi(quantizerRootOffset + p.RootNote)
		c.spectral.quant.SetScale(p.Scale)
	}
}

func (e *Engine) applyMask(p *Snapshot) {
	for _, c := range e.chans {
		m := c.spectral.mask
		_ = m.SetMode(p.MaskMode)
		m.SetLowHz(p.MaskLowHz)
		m.SetHighHz(p.MaskHighHz)
		m.SetTransition(p.MaskTransition)
		m.ComputeCurve(e.sampleRate, e.fftSize)
	}
}

func (e *Engine) applySpectralDelay(p *Snapshot) {
	for _, c := range e.chans {
		d := c.spectral.sdelay
		d.SetDelayTimeMs(p.SDelayTimeMs)
		d.SetSlope(p.SDelaySlope)
		d.SetFeedback(p.SDelayFeedback)
		d.SetDamping(p.SDelayDamping)
		d.SetMix(p.SDelayMix)
		d.SetGainDB(p.SDelayGainDB)
	}
}

// startInactive clears the path that is about to fade in so it does not
// replay stale audio.
func (e *Engine) startInactive() {
	for _, c := range e.chans {
		if e.mode.active() == ModeSpectral {
			c.spectral.reset()
		} else {
			c.classic.Reset()
		}
	}
}

// resetInactive clears the path that just faded out.
func (e *Engine) resetInactive() {
	for _, c := range e.chans {
		if e.mode.active() == ModeSpectral {
			c.classic.Reset()
			c.classicFB.reset()
		} else {
			c.spectral.reset()
			c.spectralFB.reset()
		}
	}
}

func (e *Engine) latencyFor(m Mode) int {
	if m == ModeClassic {
		return ClassicLatency
	}

	return MaxFFTSize
}

func (e *Engine) storeModeState() {
	e.state.Store(int32(e.mode.state))
	e.xfade.Store(math.Float64bits(e.mode.progress()))
}

func (e *Engine) publishSpectrum(mag []float64) {
	e.spectrum.publish(mag, float64(e.fftSize)/4)
}
