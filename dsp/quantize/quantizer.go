//nolint:funcorder
package quantize

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fshift/dsp/core"
)

const (
	numMidiNotes         = 128
	silenceFramesToReset = 8
	noteActiveThreshold  = 1e-3 // -60 dB
	energyFloor          = 1e-10
	magnitudeFloor       = 1e-10
)

// Quantizer maps spectral energy onto the notes of a scale.
//
// Call Prepare before QuantizeSpectrum; it sizes all lookup tables and
// scratch buffers so QuantizeSpectrum itself does not allocate. A
// Quantizer is not safe for concurrent use.
type Quantizer struct {
	rootMidi int
	scale    Scale
	degrees  []int

	preserve     float64
	sensitivity  float64
	bypassAmount float64

	sampleRate float64
	fftSize    int
	hop        int
	bins       int
	binRes     float64
	prepared   bool

	binFreq   []float64
	quantFreq []float64
	quantMidi []int

	outMag     []float64
	outPhase   []float64
	strongest  []float64
	count      []int
	targetMidi []int
	remapped   []bool

	noteMag  [numMidiNotes]float64
	phaseAcc [numMidiNotes]float64
	silent   [numMidiNotes]int

	env   envelope
	trans transient
}

// New creates a Quantizer for the scale rooted at rootMidi (clamped to
// 0..127).
func New(rootMidi int, scale Scale) *Quantizer {
	q := &Quantizer{
		rootMidi:    core.Clamp(rootMidi, 0, numMidiNotes-1),
		scale:       scale,
		degrees:     scale.Degrees(),
		sensitivity: 0.5,
	}

	return q
}

// Prepare sizes the quantizer for a frame geometry. Phase accumulators
// are cleared when the sample rate or hop changes.
func (q *Quantizer) Prepare(sampleRate float64, fftSize, hop int) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("quantizer sample rate must be > 0 and finite: %f", sampleRate)
	}

	if !core.IsPowerOfTwo(fftSize) || fftSize < 4 {
		return fmt.Errorf("quantizer fft size must be a power of two >= 4: %d", fftSize)
	}

	if hop <= 0 || hop > fftSize {
		return fmt.Errorf("quantizer hop must be in (0, %d]: %d", fftSize, hop)
	}

	if q.prepared && sampleRate == q.sampleRate && fftSize == q.fftSize && hop == q.hop {
		return nil
	}

	if sampleRate != q.sampleRate || hop != q.hop {
		q.Reset()
	}

	q.sampleRate = sampleRate
	q.fftSize = fftSize
	q.hop = hop
	q.bins = fftSize/2 + 1
	q.binRes = sampleRate / float64(fftSize)

	q.binFreq = core.Resize(q.binFreq, q.bins)
	q.quantFreq = core.Resize(q.quantFreq, q.bins)
	q.quantMidi = core.Resize(q.quantMidi, q.bins)
	q.outMag = core.Resize(q.outMag, q.bins)
	q.outPhase = core.Resize(q.outPhase, q.bins)
	q.strongest = core.Resize(q.strongest, q.bins)
	q.count = core.Resize(q.count, q.bins)
	q.targetMidi = core.Resize(q.targetMidi, q.bins)

	if cap(q.remapped) >= q.bins {
		q.remapped = q.remapped[:q.bins]
	} else {
		q.remapped = make([]bool, q.bins)
	}

	for k := range q.bins {
		q.binFreq[k] = float64(k) * q.binRes
	}

	q.env.prepare(q.binFreq)
	q.rebuildTargets()
	q.prepared = true

	return nil
}

// Reset clears phase accumulators, silence counters and transient state.
func (q *Quantizer) Reset() {
	q.phaseAcc = [numMidiNotes]float64{}
	q.silent = [numMidiNotes]int{}
	q.trans.reset()
}

// RootMidi returns the root MIDI note.
func (q *Quantizer) RootMidi() int { return q.rootMidi }

// Scale returns the scale type.
func (q *Quantizer) Scale() Scale { return q.scale }

// Degrees returns the active scale degrees.
func (q *Quantizer) Degrees() []int { return q.degrees }

// SetRootMidi sets the root note (clamped to 0..127).
func (q *Quantizer) SetRootMidi(midi int) {
	midi = core.Clamp(midi, 0, numMidiNotes-1)
	if midi == q.rootMidi {
		return
	}

	q.rootMidi = midi
	q.rebuildTargets()
}

// SetScale sets the scale type.
func (q *Quantizer) SetScale(scale Scale) {
	if scale == q.scale {
		return
	}

	q.scale = scale
	q.degrees = scale.Degrees()
	q.rebuildTargets()
}

// SetPreserve sets envelope preservation in [0,1]. 0 disables it.
func (q *Quantizer) SetPreserve(amount float64) { q.preserve = core.Clamp(amount, 0, 1) }

// Preserve returns the envelope preservation amount.
func (q *Quantizer) Preserve() float64 { return q.preserve }

// SetTransientSensitivity sets detector sensitivity in [0,1]. Higher values
// trigger on smaller energy jumps.
func (q *Quantizer) SetTransientSensitivity(s float64) { q.sensitivity = core.Clamp(s, 0, 1) }

// SetTransientBypass sets how far quantization is relaxed on a transient,
// in [0,1]. 0 disables transient handling.
func (q *Quantizer) SetTransientBypass(amount float64) { q.bypassAmount = core.Clamp(amount, 0, 1) }

// TransientBypass returns the current bypass level in [0,1].
func (q *Quantizer) TransientBypass() float64 { return q.trans.level }

// QuantizeFrequencies writes the quantized value of every frequency in
// freqs into dst (which may alias freqs). Strength 0 copies unchanged.
func (q *Quantizer) QuantizeFrequencies(dst, freqs []float64, strength float64) {
	n := min(len(dst), len(freqs))
	if strength <= 0 {
		copy(dst[:n], freqs[:n])
		return
	}

	strength = math.Min(strength, 1)

	for i := range n {
		f := freqs[i]
		if f <= 0 {
			dst[i] = 0
			continue
		}

		target := MidiToFreq(float64(QuantizeToScale(FreqToMidi(f), q.rootMidi, q.degrees)))
		dst[i] = (1-strength)*f + strength*target
	}
}

// ScaleFrequencies lists every in-scale note frequency within
// [minHz, maxHz] in ascending order. An empty slice is returned when
// minHz > maxHz or minHz <= 0.
func (q *Quantizer) ScaleFrequencies(minHz, maxHz float64) []float64 {
	if minHz > maxHz || minHz <= 0 {
		return []float64{}
	}

	lo := int(math.Floor(FreqToMidi(minHz)))
	hi := int(math.Ceil(FreqToMidi(maxHz)))

	out := make([]float64, 0, hi-lo+1)
	for midi := lo; midi <= hi; midi++ {
		if !InScale(midi, q.rootMidi, q.degrees) {
			continue
		}

		f := MidiToFreq(float64(midi))
		if f >= minHz && f <= maxHz {
			out = append(out, f)
		}
	}

	return out
}

// QuantizeSpectrum quantizes one frame in place.
//
// strength in [0,1] interpolates each bin's target between its own
// frequency and the nearest scale note; 0 leaves the frame untouched.
// driftCents optionally detunes each bin's target. preShift, when
// non-nil, is the magnitude spectrum before frequency shifting and is
// used for envelope preservation. mag and phase must have
// fftSize/2+1 entries for the prepared size, otherwise the call is a
// no-op.
func (q *Quantizer) QuantizeSpectrum(mag, phase []float64, strength float64, driftCents, preShift []float64) {
	if strength <= 0 || !q.prepared || len(mag) != q.bins || len(phase) != q.bins {
		return
	}

	strength = math.Min(strength, 1)

	energyBefore := 0.0
	for k := 1; k < q.bins; k++ {
		energyBefore += mag[k] * mag[k]
	}

	threshold := 2 + 18*(1-q.sensitivity)
	strength *= 1 - q.trans.update(energyBefore, threshold, q.bypassAmount)

	if strength <= 0 {
		return
	}

	q.accumulate(mag, phase, strength, driftCents)
	q.normalize(energyBefore)
	q.updateNotes()
	q.assignPhases()

	q.outMag[0] = 0
	q.outPhase[0] = 0

	if q.preserve > 0 && len(preShift) == q.bins {
		q.env.apply(q.outMag, preShift, q.preserve)
	}

	copy(mag, q.outMag)
	copy(phase, q.outPhase)
}

func (q *Quantizer) rebuildTargets() {
	for k := range q.binFreq {
		f := q.binFreq[k]
		if f <= 0 {
			q.quantMidi[k] = -1
			q.quantFreq[k] = 0

			continue
		}

		midi := QuantizeToScale(FreqToMidi(f), q.rootMidi, q.degrees)
		q.quantMidi[k] = midi
		q.quantFreq[k] = MidiToFreq(float64(midi))
	}
}

func (q *Quantizer) accumulate(mag, phase []float64, strength float64, driftCents []float64) {
	core.Zero(q.outMag)
	core.Zero(q.outPhase)
	core.Zero(q.strongest)
	core.Zero(q.count)
	q.noteMag = [numMidiNotes]float64{}

	for k := range q.bins {
		q.targetMidi[k] = -1
		q.remapped[k] = false
	}

	last := q.bins - 1

	// Bin 0 has no positive frequency and is never assigned a target.
	for k := 1; k < q.bins; k++ {
		f := q.binFreq[k]
		target := (1-strength)*f + strength*q.quantFreq[k]

		if k < len(driftCents) && driftCents[k] != 0 {
			target *= CentsToRatio(driftCents[k])
		}

		tb := core.Clamp(int(math.Round(target/q.binRes)), 0, last)
		m := mag[k]

		q.outMag[tb] += m
		q.count[tb]++

		if m > q.strongest[tb] {
			q.strongest[tb] = m
			q.outPhase[tb] = phase[k]
		}

		if tb != k {
			q.remapped[tb] = true

			if midi := q.quantMidi[k]; midi >= 0 && midi < numMidiNotes {
				q.noteMag[midi] += m
				q.targetMidi[tb] = midi
			}
		}
	}
}

// normalize divides collided bins by sqrt(contributors), then rescales the
// frame so its energy (excluding DC) matches energyBefore.
func (q *Quantizer) normalize(energyBefore float64) {
	for k, c := range q.count {
		if c > 1 {
			q.outMag[k] /= math.Sqrt(float64(c))
		}
	}

	energyAfter := 0.0
	for k := 1; k < q.bins; k++ {
		energyAfter += q.outMag[k] * q.outMag[k]
	}

	if energyAfter > energyFloor {
		scale := math.Sqrt(energyBefore / energyAfter)
		for k := range q.outMag {
			q.outMag[k] *= scale
		}
	}
}

// updateNotes advances the phase of every sounding note by one hop and
// resets notes that have been silent for silenceFramesToReset frames.
func (q *Quantizer) updateNotes() {
	toRad := 2 * math.Pi * float64(q.hop) / q.sampleRate

	for midi := range numMidiNotes {
		if q.noteMag[midi] > noteActiveThreshold {
			q.silent[midi] = 0
			q.phaseAcc[midi] = core.WrapPhase(q.phaseAcc[midi] + MidiToFreq(float64(midi))*toRad)

			continue
		}

		q.silent[midi]++
		if q.silent[midi] >= silenceFramesToReset {
			q.phaseAcc[midi] = 0
		}
	}
}

// assignPhases gives remapped bins the running phase of their note while
// it sounds. Other bins keep the strongest contributor's phase, which
// accumulate already stored.
func (q *Quantizer) assignPhases() {
	for k := range q.bins {
		if q.outMag[k] <= magnitudeFloor || !q.remapped[k] {
			continue
		}

		midi := q.targetMidi[k]
		if midi >= 0 && q.noteMag[midi] > noteActiveThreshold {
			q.outPhase[k] = q.phaseAcc[midi]
		}
	}
}
