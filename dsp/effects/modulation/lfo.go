package modulation

import (
	"fmt"
	"math"
	"math/rand"
)

// Shape selects the LFO waveform.
type Shape int

const (
	ShapeSine Shape = iota
	ShapeTriangle
	ShapeSaw
	ShapeInvSaw
	ShapeRandom
)

func (s Shape) String() string {
	switch s {
	case ShapeSine:
		return "sine"
	case ShapeTriangle:
		return "triangle"
	case ShapeSaw:
		return "saw"
	case ShapeInvSaw:
		return "inv-saw"
	case ShapeRandom:
		return "random"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Valid reports whether s is a known shape.
func (s Shape) Valid() bool { return s >= ShapeSine && s <= ShapeRandom }

// SyncDivision is a tempo-synced note length.
type SyncDivision int

const (
	SyncOff SyncDivision = iota
	Sync4Bars
	Sync2Bars
	Sync1Bar
	SyncHalf
	SyncQuarter
	SyncEighth
	SyncSixteenth
	SyncThirtySecond
)

var syncQuarterNotes = [...]float64{0, 16, 8, 4, 2, 1, 0.5, 0.25, 0.125}

var syncNames = [...]string{"off", "4/1", "2/1", "1/1", "1/2", "1/4", "1/8", "1/16", "1/32"}

// QuarterNotes returns the division length in quarter notes, or 0 for
// SyncOff and unknown values.
func (d SyncDivision) QuarterNotes() float64 {
	if d < SyncOff || int(d) >= len(syncQuarterNotes) {
		return 0
	}

	return syncQuarterNotes[d]
}

func (d SyncDivision) String() string {
	if d < SyncOff || int(d) >= len(syncNames) {
		return fmt.Sprintf("SyncDivision(%d)", int(d))
	}

	return syncNames[d]
}

// Valid reports whether d is a known division.
func (d SyncDivision) Valid() bool { return d >= SyncOff && int(d) < len(syncQuarterNotes) }

const (
	minLFORate     = 0.01
	minTempoBPM    = 20.0
	defaultTempo   = 120.0
	defaultLFORate = 1.0
)

// LFO is a block-rate oscillator producing a bipolar offset in Hz. It is
// advanced once per audio block; the value is held for the block.
type LFO struct {
	sampleRate float64
	rateHz     float64
	shape      Shape
	sync       SyncDivision
	tempo      float64
	amountHz   float64

	quantize     bool
	quantizeStep float64

	phase float64
	held  float64
	value float64
	seed  int64
	rng   *rand.Rand
}

// NewLFO creates an LFO. The seed drives the sample-and-hold shape.
func NewLFO(sampleRate float64, seed int64) (*LFO, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("lfo sample rate must be > 0 and finite: %f", sampleRate)
	}

	l := &LFO{
		sampleRate:   sampleRate,
		rateHz:       defaultLFORate,
		tempo:        defaultTempo,
		quantizeStep: 1,
		seed:         seed,
		rng:          rand.New(rand.NewSource(seed)), //nolint:gosec
	}
	l.held = l.rng.Float64()*2 - 1

	return l, nil
}

// SetSampleRate updates the sample rate.
func (l *LFO) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("lfo sample rate must be > 0 and finite: %f", sampleRate)
	}

	l.sampleRate = sampleRate

	return nil
}

// SetRateHz sets the free-running rate. Values below 0.01 Hz are clamped.
func (l *LFO) SetRateHz(hz float64) {
	if math.IsNaN(hz) {
		return
	}

	l.rateHz = math.Max(minLFORate, hz)
}

// SetShape selects the waveform. Unknown shapes are ignored.
func (l *LFO) SetShape(shape Shape) {
	if shape.Valid() {
		l.shape = shape
	}
}

// SetSync selects a tempo division. SyncOff uses the free-running rate.
func (l *LFO) SetSync(div SyncDivision) {
	if div.Valid() {
		l.sync = div
	}
}

// SetTempo sets the host tempo in BPM, clamped to at least 20.
func (l *LFO) SetTempo(bpm float64) {
	if math.IsNaN(bpm) {
		return
	}

	l.tempo = math.Max(minTempoBPM, bpm)
}

// SetAmountHz sets the bipolar modulation depth in Hz.
func (l *LFO) SetAmountHz(hz float64) {
	if math.IsNaN(hz) || math.IsInf(hz, 0) {
		return
	}

	l.amountHz = hz
}

// SetQuantize rounds the output to multiples of stepHz when enabled.
func (l *LFO) SetQuantize(enabled bool, stepHz float64) {
	l.quantize = enabled
	if stepHz > 0 {
		l.quantizeStep = stepHz
	}
}

// Shape returns the waveform.
func (l *LFO) Shape() Shape { return l.shape }

// Sync returns the tempo division.
func (l *LFO) Sync() SyncDivision { return l.sync }

// AmountHz returns the modulation depth.
func (l *LFO) AmountHz() float64 { return l.amountHz }

// Phase returns the normalized phase in [0, 1).
func (l *LFO) Phase() float64 { return l.phase }

// EffectiveRate returns the current rate in Hz, honoring tempo sync.
func (l *LFO) EffectiveRate() float64 {
	if q := l.sync.QuarterNotes(); q > 0 {
		return (l.tempo / 60) / q
	}

	return l.rateHz
}

// AdvanceBlock evaluates the oscillator at a point lookahead samples ahead
// of the current phase, stores the result, and advances the phase by n
// samples. The returned offset is in Hz.
func (l *LFO) AdvanceBlock(n, lookahead int) float64 {
	inc := l.EffectiveRate() / l.sampleRate

	evalPhase := l.phase + inc*float64(lookahead)
	evalPhase -= math.Floor(evalPhase)

	v := l.waveform(evalPhase) * l.amountHz
	if l.quantize && l.quantizeStep > 0 {
		v = math.Round(v/l.quantizeStep) * l.quantizeStep
	}

	l.value = v

	// Step per sample so every cycle boundary draws its own random value.
	for range n {
		l.phase += inc
		if l.phase >= 1 {
			l.phase -= math.Floor(l.phase)
			if l.shape == ShapeRandom {
				l.held = l.rng.Float64()*2 - 1
			}
		}
	}

	return v
}

// Value returns the offset computed by the last AdvanceBlock call.
func (l *LFO) Value() float64 { return l.value }

// Reset rewinds the phase and reseeds the sample-and-hold generator.
func (l *LFO) Reset() {
	l.phase = 0
	l.value = 0
	l.rng.Seed(l.seed)
	l.held = l.rng.Float64()*2 - 1
}

func (l *LFO) waveform(p float64) float64 {
	switch l.shape {
	case ShapeTriangle:
		return triangle(p)
	case ShapeSaw:
		return 1 - 2*p
	case ShapeInvSaw:
		return -1 + 2*p
	case ShapeRandom:
		return l.held
	default:
		return math.Sin(2 * math.Pi * p)
	}
}

// triangle starts at zero, peaks at p=0.25 and bottoms out at p=0.75.
func triangle(p float64) float64 {
	switch {
	case p < 0.25:
		return 4 * p
	case p < 0.75:
		return 1 - 4*(p-0.25)
	default:
		return -1 + 4*(p-0.75)
	}
}
