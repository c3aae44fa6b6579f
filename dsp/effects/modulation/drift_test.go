package modulation

import (
	"math"
	"testing"
)

func newTestDrift(t *testing.T) *Drift {
	t.Helper()

	d, err := NewDrift(48000, 2049, 11)
	if err != nil {
		t.Fatalf("NewDrift() error = %v", err)
	}

	return d
}

func TestDriftZeroDepthIsSilent(t *testing.T) {
	d := newTestDrift(t)
	d.AdvanceFrame(1024)

	out := make([]float64, d.Bins())
	d.Fill(out)

	for i, v := range out {
		if v != 0 {
			t.Fatalf("bin %d = %f, want 0", i, v)
		}
	}
}

func TestDriftBounds(t *testing.T) {
	for _, mode := range []DriftMode{DriftLFO, DriftPerlin} {
		t.Run(mode.String(), func(t *testing.T) {
			d := newTestDrift(t)
			d.SetMode(mode)
			d.SetDepth(1)
			d.SetRate(5)

			out := make([]float64, d.Bins())
			for range 100 {
				d.AdvanceFrame(1024)
				d.Fill(out)

				for i, v := range out {
					if math.IsNaN(v) || math.Abs(v) > maxDriftCents+1e-9 {
						t.Fatalf("bin %d = %f out of range", i, v)
					}
				}
			}
		})
	}
}

func TestDriftZeroSpreadLocksBins(t *testing.T) {
	d := newTestDrift(t)
	d.SetDepth(0.5)
	d.SetPhaseSpread(0)
	d.SetShape(DriftTriangle)
	d.AdvanceFrame(4800)

	// rate 1 Hz, 0.1 s -> phase 0.1 -> triangle 0.4.
	want := 0.4 * 0.5 * maxDriftCents
	for _, bin := range []int{0, 10, 2048} {
		if got := d.At(bin); math.Abs(got-want) > 1e-9 {
			t.Fatalf("bin %d = %f, want %f", bin, got, want)
		}
	}
}

func TestDriftDeterministicPerSeed(t *testing.T) {
	a := newTestDrift(t)
	b := newTestDrift(t)

	for _, d := range []*Drift{a, b} {
		d.SetMode(DriftPerlin)
		d.SetDepth(1)
		d.AdvanceFrame(777)
	}

	for bin := range a.Bins() {
		if a.At(bin) != b.At(bin) {
			t.Fatalf("bin %d differs", bin)
		}
	}
}

func TestDriftOutOfRangeBin(t *testing.T) {
	d := newTestDrift(t)
	d.SetDepth(1)

	if d.At(-1) != 0 || d.At(d.Bins()) != 0 {
		t.Fatal("out-of-range bins should be 0")
	}
}

func TestDriftClamps(t *testing.T) {
	d := newTestDrift(t)
	d.SetRate(100)
	d.SetDepth(-1)

	if d.Rate() != 20 || d.Depth() != 0 {
		t.Fatalf("rate=%f depth=%f", d.Rate(), d.Depth())
	}

	if _, err := NewDrift(48000, 0, 1); err == nil {
		t.Fatal("expected error for zero bins")
	}
}

func TestPerlinNoiseContinuous(t *testing.T) {
	d := newTestDrift(t)

	prev := d.noise(0)
	for i := 1; i <= 4000; i++ {
		x := float64(i) * 0.001
		v := d.noise(x)

		if math.Abs(v-prev) > 0.01 {
			t.Fatalf("noise jumps at x=%f: %f -> %f", x, prev, v)
		}

		prev = v
	}
}
