package spectral

import (
	"math"
	"testing"
)

func TestDelaySlopeOrdersBins(t *testing.T) {
	d, err := NewDelay(48000, 2048, 512, 2000)
	if err != nil {
		t.Fatal(err)
	}

	d.SetDelayTimeMs(500)

	d.SetSlope(100)
	low, high := d.DelayFrames(10), d.DelayFrames(d.Bins()-10)

	if high <= low {
		t.Fatalf("slope +100: high=%d low=%d, want high > low", high, low)
	}

	d.SetSlope(-100)
	low, high = d.DelayFrames(10), d.DelayFrames(d.Bins()-10)

	if low <= high {
		t.Fatalf("slope -100: high=%d low=%d, want low > high", high, low)
	}

	d.SetSlope(0)

	first := d.DelayFrames(0)
	for k := range d.Bins() {
		if d.DelayFrames(k) != first {
			t.Fatalf("slope 0: bin %d delay %d != %d", k, d.DelayFrames(k), first)
		}
	}
}

func TestDelayFramesClamped(t *testing.T) {
	d, _ := NewDelay(48000, 1024, 256, 100)
	d.SetDelayTimeMs(5000)

	for k := range d.Bins() {
		f := d.DelayFrames(k)
		if f < 1 || f > d.MaxFrames()-1 {
			t.Fatalf("bin %d delay %d outside [1, %d]", k, f, d.MaxFrames()-1)
		}
	}

	if d.DelayTimeMs() != 100 {
		t.Fatalf("DelayTimeMs() = %v, want clamp to 100", d.DelayTimeMs())
	}

	if d.DelayFrames(-1) != 0 || d.DelayFrames(d.Bins()) != 0 {
		t.Fatal("out-of-range bins should report 0 frames")
	}
}

func TestDelayEchoesAfterConfiguredFrames(t *testing.T) {
	const (
		size = 256
		hop  = 64
		sr   = 6400.0 // 100 frames per second
	)

	d, _ := NewDelay(sr, size, hop, 1000)
	d.SetDelayTimeMs(50) // 5 frames
	d.SetFeedback(0)
	d.SetMix(100)
	d.SetGainDB(0)

	bins := size/2 + 1
	var echoFrame = -1

	for frame := range 12 {
		mag := make([]float64, bins)
		phase := make([]float64, bins)

		if frame == 0 {
			mag[10] = 1
			phase[10] = 0.7
		}

		d.Process(mag, phase)

		if mag[10] > 0.5 {
			echoFrame = frame
			if math.Abs(phase[10]-0.7) > 1e-12 {
				t.Fatalf("echo phase = %v, want 0.7", phase[10])
			}
		}
	}

	if echoFrame != 5 {
		t.Fatalf("echo at frame %d, want 5", echoFrame)
	}
}

func TestDelayFeedbackDampsHighBins(t *testing.T) {
	d, _ := NewDelay(6400, 256, 64, 1000)
	d.SetDelayTimeMs(20)
	d.SetFeedback(0.9)
	d.SetDamping(100)
	d.SetMix(100)

	bins := 129
	var lowSum, highSum float64

	for frame := range 40 {
		mag := make([]float64, bins)
		phase := make([]float64, bins)

		if frame == 0 {
			mag[5] = 1
			mag[120] = 1
		}

		d.Process(mag, phase)

		if frame > 5 {
			lowSum += mag[5]
			highSum += mag[120]
		}
	}

	if highSum >= lowSum {
		t.Fatalf("damped repeats: high=%v low=%v, want high < low", highSum, lowSum)
	}
}

func TestDelayBypassBelowThreshold(t *testing.T) {
	d, _ := NewDelay(48000, 512, 128, 0)
	d.SetDelayTimeMs(0.05)
	d.SetMix(100)

	mag := []float64{1, 2, 3}
	phase := []float64{0.1, 0.2, 0.3}
	d.Process(mag, phase)

	if mag[1] != 2 || phase[2] != 0.3 {
		t.Fatal("expected bypass for delay below 0.1 ms")
	}

	if math.Abs(d.GainDB()) > 1e-12 || d.Mix() != 100 {
		t.Fatalf("GainDB() = %v, Mix() = %v", d.GainDB(), d.Mix())
	}
}

func TestDelayPrepareValidation(t *testing.T) {
	if _, err := NewDelay(0, 512, 128, 0); err == nil {
		t.Fatal("expected sample rate error")
	}

	if _, err := NewDelay(48000, 500, 128, 0); err == nil {
		t.Fatal("expected fft size error")
	}

	if _, err := NewDelay(48000, 512, 1024, 0); err == nil {
		t.Fatal("expected hop error")
	}
}
