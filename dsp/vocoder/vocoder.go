//nolint:funcorder
package vocoder

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fshift/dsp/core"
)

const (
	defaultPeakThresholdDB = -40.0
	defaultLockRegion      = 4
	maxLockRegion          = 64
)

// Option mutates phase vocoder construction parameters.
type Option func(*config) error

type config struct {
	phaseLocking    bool
	peakThresholdDB float64
	lockRegion      int
}

func defaultConfig() config {
	return config{
		phaseLocking:    true,
		peakThresholdDB: defaultPeakThresholdDB,
		lockRegion:      defaultLockRegion,
	}
}

// WithPhaseLocking enables or disables vertical phase locking around peaks.
func WithPhaseLocking(enabled bool) Option {
	return func(cfg *config) error {
		cfg.phaseLocking = enabled
		return nil
	}
}

// WithPeakThresholdDB sets the peak threshold relative to the frame maximum
// (must be < 0).
func WithPeakThresholdDB(db float64) Option {
	return func(cfg *config) error {
		if db >= 0 || math.IsNaN(db) || math.IsInf(db, 0) {
			return fmt.Errorf("vocoder peak threshold must be < 0 dB and finite: %f", db)
		}
		cfg.peakThresholdDB = db
		return nil
	}
}

// WithLockRegion sets how many bins either side of a peak are locked to it.
func WithLockRegion(bins int) Option {
	return func(cfg *config) error {
		if bins < 0 || bins > maxLockRegion {
			return fmt.Errorf("vocoder lock region must be in [0, %d]: %d", maxLockRegion, bins)
		}
		cfg.lockRegion = bins
		return nil
	}
}

// PhaseVocoder holds the previous analysis and synthesis phase of every bin.
//
// It is not safe for concurrent use; keep one instance per channel.
type PhaseVocoder struct {
	sampleRate float64
	fftSize    int
	hop        int
	bins       int

	phaseLocking  bool
	peakThreshold float64 // linear ratio to the frame maximum
	lockRegion    int

	binFreq  []float64
	expected []float64 // nominal phase advance per hop

	prevMag    []float64
	prevPhase  []float64
	synthPhase []float64
	instFreq   []float64
	locked     []float64
	peaks      []int

	firstFrame bool
}

// New creates a PhaseVocoder for the given frame geometry.
func New(fftSize, hop int, sampleRate float64, opts ...Option) (*PhaseVocoder, error) {
	if !core.IsPowerOfTwo(fftSize) || fftSize < 4 {
		return nil, fmt.Errorf("vocoder fft size must be a power of two >= 4: %d", fftSize)
	}

	if hop <= 0 || hop > fftSize {
		return nil, fmt.Errorf("vocoder hop must be in (0, %d]: %d", fftSize, hop)
	}

	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("vocoder sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	bins := fftSize/2 + 1
	v := &PhaseVocoder{
		sampleRate:    sampleRate,
		fftSize:       fftSize,
		hop:           hop,
		bins:          bins,
		phaseLocking:  cfg.phaseLocking,
		peakThreshold: core.DBToLinear(cfg.peakThresholdDB),
		lockRegion:    cfg.lockRegion,
		binFreq:       make([]float64, bins),
		expected:      make([]float64, bins),
		prevMag:       make([]float64, bins),
		prevPhase:     make([]float64, bins),
		synthPhase:    make([]float64, bins),
		instFreq:      make([]float64, bins),
		locked:        make([]float64, bins),
		peaks:         make([]int, 0, bins/2),
		firstFrame:    true,
	}

	for k := range bins {
		v.binFreq[k] = float64(k) * sampleRate / float64(fftSize)
		v.expected[k] = 2 * math.Pi * v.binFreq[k] * float64(hop) / sampleRate
	}

	return v, nil
}

// Bins returns the expected spectrum length.
func (v *PhaseVocoder) Bins() int { return v.bins }

// PhaseLocking reports whether vertical phase locking is enabled.
func (v *PhaseVocoder) PhaseLocking() bool { return v.phaseLocking }

// InstantaneousFrequency returns the per-bin frequency estimates (Hz) of
// the most recent frame. The slice is owned by the vocoder.
func (v *PhaseVocoder) InstantaneousFrequency() []float64 { return v.instFreq }

// Reset clears all frame history. The next frame passes phase through.
func (v *PhaseVocoder) Reset() {
	core.Zero(v.prevMag)
	core.Zero(v.prevPhase)
	core.Zero(v.synthPhase)
	core.Zero(v.instFreq)
	v.peaks = v.peaks[:0]
	v.firstFrame = true
}

// Process computes the synthesis phase of one frame shifted by shiftHz and
// writes it to out. mag and phase must have Bins() entries; out may alias
// phase. Slices of the wrong length leave out untouched.
func (v *PhaseVocoder) Process(mag, phase []float64, shiftHz float64, out []float64) {
	if len(mag) != v.bins || len(phase) != v.bins || len(out) != v.bins {
		return
	}

	if v.firstFrame {
		copy(v.synthPhase, phase)
		copy(v.prevPhase, phase)
		copy(v.prevMag, mag)
		copy(v.instFreq, v.binFreq)
		copy(out, phase)
		v.firstFrame = false

		return
	}

	current := phase
	if v.phaseLocking {
		v.detectPeaks(mag)
		v.lockToPeaks(phase)
		current = v.locked
	}

	hop := float64(v.hop)
	toHz := v.sampleRate / (2 * math.Pi * hop)
	toRad := 2 * math.Pi * hop / v.sampleRate

	// The analysis history keeps the unlocked phase.
	for k := range v.bins {
		diff := core.WrapPhase(current[k] - v.prevPhase[k])
		dev := core.WrapPhase(diff - v.expected[k])
		v.instFreq[k] = v.binFreq[k] + dev*toHz
		v.synthPhase[k] = core.WrapPhase(v.synthPhase[k] + (v.instFreq[k]+shiftHz)*toRad)
	}

	copy(v.prevPhase, phase)
	copy(v.prevMag, mag)
	copy(out, v.synthPhase)
}

// detectPeaks collects local maxima above the threshold relative to the
// frame maximum.
func (v *PhaseVocoder) detectPeaks(mag []float64) {
	v.peaks = v.peaks[:0]

	maxMag := 0.0
	for _, m := range mag {
		maxMag = math.Max(maxMag, m)
	}

	if maxMag <= 0 {
		return
	}

	threshold := maxMag * v.peakThreshold
	for k := 1; k < v.bins-1; k++ {
		if mag[k] > threshold && mag[k] > mag[k-1] && mag[k] > mag[k+1] {
			v.peaks = append(v.peaks, k)
		}
	}
}

// lockToPeaks copies phase into v.locked and replaces every bin within
// lockRegion of a peak with that peak's phase. Where regions overlap the
// higher peak wins.
func (v *PhaseVocoder) lockToPeaks(phase []float64) {
	copy(v.locked, phase)

	for _, pk := range v.peaks {
		lo := max(0, pk-v.lockRegion)
		hi := min(v.bins-1, pk+v.lockRegion)

		for k := lo; k <= hi; k++ {
			if k != pk {
				v.locked[k] = phase[pk]
			}
		}
	}
}
