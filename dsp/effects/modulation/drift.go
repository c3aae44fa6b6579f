package modulation

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-fshift/dsp/core"
)

// DriftMode selects the drift generator.
type DriftMode int

const (
	DriftLFO DriftMode = iota
	DriftPerlin
)

func (m DriftMode) String() string {
	switch m {
	case DriftLFO:
		return "lfo"
	case DriftPerlin:
		return "perlin"
	default:
		return fmt.Sprintf("DriftMode(%d)", int(m))
	}
}

// DriftShape selects the waveform used in DriftLFO mode.
type DriftShape int

const (
	DriftSine DriftShape = iota
	DriftTriangle
)

const (
	maxDriftCents  = 50.0
	perlinSeed     = 42
	perlinTableLen = 256
)

// Drift produces a slowly varying per-bin detune in cents. Every bin owns a
// random offset so bins move independently; PhaseSpread controls how far
// apart they are.
type Drift struct {
	sampleRate float64

	mode        DriftMode
	shape       DriftShape
	rate        float64
	depth       float64
	spread      float64
	octaves     int
	lacunarity  float64
	persistence float64

	phase float64
	time  float64

	seed    int64
	offsets []float64
	perm    [2 * perlinTableLen]int
}

// NewDrift creates a drift generator for bins frequency bins. seed drives
// the per-bin offsets.
func NewDrift(sampleRate float64, bins int, seed int64) (*Drift, error) {
	d := &Drift{
		rate:        1,
		spread:      0.5,
		octaves:     2,
		lacunarity:  2,
		persistence: 0.5,
		seed:        seed,
	}
	d.initPerlin()

	if err := d.Prepare(sampleRate, bins); err != nil {
		return nil, err
	}

	return d, nil
}

// Prepare resizes the per-bin offset table and redraws it from the seed.
func (d *Drift) Prepare(sampleRate float64, bins int) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("drift sample rate must be > 0 and finite: %f", sampleRate)
	}

	if bins <= 0 {
		return fmt.Errorf("drift bin count must be > 0: %d", bins)
	}

	d.sampleRate = sampleRate
	d.offsets = core.Resize(d.offsets, bins)

	rng := rand.New(rand.NewSource(d.seed)) //nolint:gosec
	for i := range d.offsets {
		d.offsets[i] = rng.Float64()
	}

	return nil
}

// Reset rewinds the oscillator phase and the noise time coordinate.
func (d *Drift) Reset() {
	d.phase = 0
	d.time = 0
}

// Bins returns the number of bins served.
func (d *Drift) Bins() int { return len(d.offsets) }

// SetMode selects LFO or Perlin drift.
func (d *Drift) SetMode(mode DriftMode) {
	if mode == DriftLFO || mode == DriftPerlin {
		d.mode = mode
	}
}

// SetShape selects the LFO waveform.
func (d *Drift) SetShape(shape DriftShape) {
	if shape == DriftSine || shape == DriftTriangle {
		d.shape = shape
	}
}

// SetRate sets the drift rate in Hz, clamped to [0.01, 20].
func (d *Drift) SetRate(hz float64) { d.rate = core.Clamp(hz, 0.01, 20) }

// SetDepth sets the depth in [0, 1]. Full depth is +/-50 cents.
func (d *Drift) SetDepth(depth float64) { d.depth = core.Clamp(depth, 0, 1) }

// SetPhaseSpread sets how far bin phases diverge, in [0, 1].
func (d *Drift) SetPhaseSpread(spread float64) { d.spread = core.Clamp(spread, 0, 1) }

// SetPerlinOctaves sets the number of noise layers, clamped to [1, 4].
func (d *Drift) SetPerlinOctaves(n int) { d.octaves = core.Clamp(n, 1, 4) }

// SetPerlinLacunarity sets the frequency ratio between layers, in [1, 4].
func (d *Drift) SetPerlinLacunarity(l float64) { d.lacunarity = core.Clamp(l, 1, 4) }

// SetPerlinPersistence sets the amplitude ratio between layers, in [0, 1].
func (d *Drift) SetPerlinPersistence(p float64) { d.persistence = core.Clamp(p, 0, 1) }

// Mode returns the drift mode.
func (d *Drift) Mode() DriftMode { return d.mode }

// Rate returns the drift rate in Hz.
func (d *Drift) Rate() float64 { return d.rate }

// Depth returns the depth in [0, 1].
func (d *Drift) Depth() float64 { return d.depth }

// Shape returns the LFO waveform.
func (d *Drift) Shape() DriftShape { return d.shape }

// PhaseSpread returns the per-bin phase spread in [0, 1].
func (d *Drift) PhaseSpread() float64 { return d.spread }

// PerlinOctaves returns the number of noise octaves.
func (d *Drift) PerlinOctaves() int { return d.octaves }

// PerlinLacunarity returns the frequency ratio between octaves.
func (d *Drift) PerlinLacunarity() float64 { return d.lacunarity }

// PerlinPersistence returns the amplitude ratio between octaves.
func (d *Drift) PerlinPersistence() float64 { return d.persistence }

// AdvanceFrame moves the generator forward by one hop.
func (d *Drift) AdvanceFrame(hop int) {
	step := d.rate * float64(hop) / d.sampleRate

	d.phase += step
	d.phase -= math.Floor(d.phase)
	d.time += step
}

// At returns the detune of bin in cents. Out-of-range bins and zero depth
// yield 0.
func (d *Drift) At(bin int) float64 {
	if d.depth <= 0 || bin < 0 || bin >= len(d.offsets) {
		return 0
	}

	offset := d.offsets[bin]

	var v float64
	if d.mode == DriftPerlin {
		v = d.fbm(d.time + offset*10 + float64(bin)*0.1)
	} else {
		p := d.phase + offset*d.spread
		p -= math.Floor(p)

		if d.shape == DriftTriangle {
			v = triangle(p)
		} else {
			v = math.Sin(2 * math.Pi * p)
		}
	}

	return v * d.depth * maxDriftCents
}

// Fill writes the detune of every bin into dst. Bins beyond Bins() are
// zeroed.
func (d *Drift) Fill(dst []float64) {
	for i := range dst {
		dst[i] = d.At(i)
	}
}

func (d *Drift) initPerlin() {
	for i := range perlinTableLen {
		d.perm[i] = i
	}

	rng := rand.New(rand.NewSource(perlinSeed)) //nolint:gosec
	rng.Shuffle(perlinTableLen, func(i, j int) {
		d.perm[i], d.perm[j] = d.perm[j], d.perm[i]
	})

	copy(d.perm[perlinTableLen:], d.perm[:perlinTableLen])
}

func (d *Drift) fbm(x float64) float64 {
	total, amp, freq, norm := 0.0, 1.0, 1.0, 0.0
	for range d.octaves {
		total += d.noise(x*freq) * amp
		norm += amp
		amp *= d.persistence
		freq *= d.lacunarity
	}

	return total / norm
}

func (d *Drift) noise(x float64) float64 {
	fl := math.Floor(x)
	xi := int(fl) & (perlinTableLen - 1)
	xf := x - fl
	u := xf * xf * xf * (xf*(xf*6-15) + 10)

	g1 := grad(d.perm[d.perm[xi]], xf)
	g2 := grad(d.perm[d.perm[xi+1]], xf-1)

	return g1 + u*(g2-g1)
}

func grad(hash int, x float64) float64 {
	if hash&1 != 0 {
		return x
	}

	return -x
}
