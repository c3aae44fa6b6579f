package vocoder

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fshift/dsp/core"
)

const (
	testSize = 1024
	testHop  = 256
	testRate = 48000.0
)

// syntheticFrame builds a single-peak spectrum whose phases advance as a
// stationary sinusoid at freq would after frame n.
func syntheticFrame(n int, peak int, freq float64, mag, phase []float64) {
	for k := range mag {
		d := k - peak
		mag[k] = 1 / (1 + float64(d*d))
		phase[k] = core.WrapPhase(2*math.Pi*freq*float64(n*testHop)/testRate + math.Pi*float64(d))
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		size int
		hop  int
		sr   float64
		opts []Option
	}{
		{name: "bad size", size: 1000, hop: 250, sr: testRate},
		{name: "zero hop", size: 1024, hop: 0, sr: testRate},
		{name: "hop too large", size: 1024, hop: 2048, sr: testRate},
		{name: "bad sample rate", size: 1024, hop: 256, sr: 0},
		{name: "positive threshold", size: 1024, hop: 256, sr: testRate, opts: []Option{WithPeakThresholdDB(3)}},
		{name: "negative region", size: 1024, hop: 256, sr: testRate, opts: []Option{WithLockRegion(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.size, tt.hop, tt.sr, tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFirstFramePassesPhaseThrough(t *testing.T) {
	v, err := New(testSize, testHop, testRate)
	if err != nil {
		t.Fatal(err)
	}

	mag := make([]float64, v.Bins())
	phase := make([]float64, v.Bins())
	out := make([]float64, v.Bins())
	syntheticFrame(3, 40, 40*testRate/testSize, mag, phase)

	v.Process(mag, phase, 250, out)

	for k := range out {
		if out[k] != phase[k] {
			t.Fatalf("out[%d] = %v, want passthrough %v", k, out[k], phase[k])
		}
	}
}

func TestConsecutiveFramesAdvanceByShiftedFrequency(t *testing.T) {
	for _, locking := range []bool{false, true} {
		v, _ := New(testSize, testHop, testRate, WithPhaseLocking(locking))

		const (
			peak  = 21
			shift = 100.0
		)

		freq := float64(peak) * testRate / testSize
		mag := make([]float64, v.Bins())
		phase := make([]float64, v.Bins())
		prev := make([]float64, v.Bins())
		out := make([]float64, v.Bins())

		for n := range 6 {
			syntheticFrame(n, peak, freq, mag, phase)
			copy(prev, out)
			v.Process(mag, phase, shift, out)

			if n < 2 {
				continue
			}

			want := core.WrapPhase(2 * math.Pi * (freq + shift) * testHop / testRate)
			got := core.WrapPhase(out[peak] - prev[peak])

			if math.Abs(core.WrapPhase(got-want)) > 1e-9 {
				t.Fatalf("locking=%v frame %d: advance = %v, want %v", locking, n, got, want)
			}
		}
	}
}

func TestInstantaneousFrequencyTracksOffBinTone(t *testing.T) {
	v, _ := New(testSize, testHop, testRate)

	const peak = 30

	freq := float64(peak)*testRate/testSize + 7.5
	mag := make([]float64, v.Bins())
	phase := make([]float64, v.Bins())
	out := make([]float64, v.Bins())

	for n := range 3 {
		syntheticFrame(n, peak, freq, mag, phase)
		v.Process(mag, phase, 0, out)
	}

	if got := v.InstantaneousFrequency()[peak]; math.Abs(got-freq) > 1e-6 {
		t.Fatalf("instantaneous frequency = %v, want %v", got, freq)
	}
}

func TestPhaseLockingLocksAnalysisPhaseFirst(t *testing.T) {
	locked, _ := New(testSize, testHop, testRate, WithLockRegion(4))
	plain, _ := New(testSize, testHop, testRate, WithPhaseLocking(false))

	const peak = 50

	freq := float64(peak)*testRate/testSize + 11
	mag := make([]float64, locked.Bins())
	phase := make([]float64, locked.Bins())
	outLocked := make([]float64, locked.Bins())
	outPlain := make([]float64, locked.Bins())

	syntheticFrame(0, peak, freq, mag, phase)
	locked.Process(mag, phase, 37, outLocked)
	plain.Process(mag, phase, 37, outPlain)

	syntheticFrame(1, peak, freq, mag, phase)
	locked.Process(mag, phase, 37, outLocked)

	// Locking is the same as feeding the peak's phase to its neighbours.
	manual := append([]float64(nil), phase...)
	for k := peak - 4; k <= peak+4; k++ {
		manual[k] = phase[peak]
	}

	plain.Process(mag, manual, 37, outPlain)

	for k := range outLocked {
		if math.Abs(core.WrapPhase(outLocked[k]-outPlain[k])) > 1e-12 {
			t.Fatalf("bin %d: locked phase %v, want %v", k, outLocked[k], outPlain[k])
		}

		if got, want := locked.InstantaneousFrequency()[k], plain.InstantaneousFrequency()[k]; math.Abs(got-want) > 1e-9 {
			t.Fatalf("bin %d: instantaneous frequency %v, want %v", k, got, want)
		}
	}
}

func TestPhaseLockingGivesRegionThePeakFrequency(t *testing.T) {
	v, _ := New(testSize, testHop, testRate, WithLockRegion(2))

	const peak = 80

	freq := float64(peak)*testRate/testSize + 5
	mag := make([]float64, v.Bins())
	phase := make([]float64, v.Bins())
	out := make([]float64, v.Bins())

	// Constant phase across the region makes locking a no-op on the
	// current frame, so every locked bin sees the peak's phase track.
	for n := range 3 {
		syntheticFrame(n, peak, freq, mag, phase)

		for k := peak - 2; k <= peak+2; k++ {
			phase[k] = phase[peak]
		}

		v.Process(mag, phase, 0, out)
	}

	// Bins next to the peak unwrap the peak's phase track to its frequency.
	for k := peak - 1; k <= peak+1; k++ {
		if got := v.InstantaneousFrequency()[k]; math.Abs(got-freq) > 1e-6 {
			t.Fatalf("bin %d: instantaneous frequency = %v, want %v", k, got, freq)
		}
	}
}

func TestSilenceStaysFinite(t *testing.T) {
	v, _ := New(256, 64, 44100)
	mag := make([]float64, v.Bins())
	phase := make([]float64, v.Bins())
	out := make([]float64, v.Bins())

	for range 50 {
		v.Process(mag, phase, -3000, out)
	}

	for k, p := range out {
		if math.IsNaN(p) || p <= -math.Pi || p > math.Pi {
			t.Fatalf("out[%d] = %v, want finite wrapped phase", k, p)
		}
	}

	v.Reset()
	phase[3] = 1.25
	v.Process(mag, phase, 0, out)

	if out[3] != 1.25 {
		t.Fatalf("after Reset out[3] = %v, want passthrough", out[3])
	}
}

func TestProcessIgnoresWrongLengths(t *testing.T) {
	v, _ := New(256, 64, 44100)
	out := []float64{9, 9}

	v.Process(make([]float64, 3), make([]float64, 3), 0, out)

	if out[0] != 9 {
		t.Fatal("expected out untouched for mismatched lengths")
	}
}
