package delay

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fshift/dsp/interp"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func fillRamp(d *Line) {
	for i := range d.Len() {
		d.Write(float64(i))
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for size=0")
	}

	if _, err := New(8, WithMode(interp.Mode(9))); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}

func TestReadWrite(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	fillRamp(d)

	// delay=1 => most recently written (7)
	if got := d.Read(1); got != 7 {
		t.Fatalf("got %v want 7", got)
	}

	if got := d.Read(3); got != 5 {
		t.Fatalf("got %v want 5", got)
	}
}

func TestReadWraparound(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 10 {
		d.Write(float64(i))
	}

	if got := d.Read(1); got != 9 {
		t.Fatalf("got %v want 9", got)
	}

	if got := d.Read(5); got != 9 {
		t.Fatalf("delay modulo length: got %v want 9", got)
	}
}

func TestProcessDelays(t *testing.T) {
	d, err := New(16)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 32 {
		got := d.Process(float64(i), 5)

		want := 0.0
		if i >= 5 {
			want = float64(i - 5)
		}

		if got != want {
			t.Fatalf("sample %d: got %v want %v", i, got, want)
		}
	}

	if got := d.Process(99, 0); got != 99 {
		t.Fatalf("zero delay: got %v", got)
	}
}

func TestReset(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	d.Write(1)
	d.Write(2)
	d.Reset()

	for i := range 4 {
		if got := d.Read(i); got != 0 {
			t.Fatalf("after reset Read(%d): got %v want 0", i, got)
		}
	}
}

func TestReadFractionalRamp(t *testing.T) {
	for _, mode := range []interp.Mode{interp.Linear, interp.Hermite} {
		d, err := New(32, WithMode(mode))
		if err != nil {
			t.Fatal(err)
		}

		fillRamp(d)

		want := float64(d.Len()) - 5.5
		if got := d.ReadFractional(5.5); !approxEqual(got, want, 1e-10) {
			t.Fatalf("%s: got %v want %v", mode, got, want)
		}
	}
}

func TestReadFractionalClamps(t *testing.T) {
	d, err := New(16)
	if err != nil {
		t.Fatal(err)
	}

	fillRamp(d)

	for _, delay := range []float64{-3, 0, 0.4} {
		if got, want := d.ReadFractional(delay), d.Read(1); got != want {
			t.Fatalf("delay %v: got %v want newest sample %v", delay, got, want)
		}
	}

	if got, want := d.ReadFractional(100), d.Read(13); got != want {
		t.Fatalf("large delay: got %v want %v", got, want)
	}
}

func TestReadFractionalNearNewestSample(t *testing.T) {
	for _, mode := range []interp.Mode{interp.Linear, interp.Hermite} {
		d, err := New(16, WithMode(mode))
		if err != nil {
			t.Fatal(err)
		}

		for i := 1; i <= 10; i++ {
			d.Write(float64(i))
		}

		if got := d.ReadFractional(1); got != 10 {
			t.Fatalf("%s: delay 1 = %v, want 10", mode, got)
		}

		if got := d.ReadFractional(2.5); !approxEqual(got, 8.5, 1e-10) {
			t.Fatalf("%s: delay 2.5 = %v, want 8.5", mode, got)
		}
	}
}

func TestReadFractionalSine(t *testing.T) {
	const (
		freq = 0.02
		size = 256
	)

	modes := []struct {
		mode interp.Mode
		tol  float64
	}{
		{interp.Linear, 0.01},
		{interp.Hermite, 1e-4},
	}

	for _, tc := range modes {
		d, err := New(size, WithMode(tc.mode))
		if err != nil {
			t.Fatal(err)
		}

		for i := range size {
			d.Write(math.Sin(2 * math.Pi * freq * float64(i)))
		}

		delay := 20.37
		want := math.Sin(2 * math.Pi * freq * (float64(size) - delay))

		if got := d.ReadFractional(delay); math.Abs(got-want) > tc.tol {
			t.Fatalf("%s: got %v want %v", tc.mode, got, want)
		}
	}
}

func BenchmarkReadFractionalHermite(b *testing.B) {
	d, _ := New(1024)
	fillRamp(d)

	for b.Loop() {
		d.ReadFractional(100.37)
	}
}
