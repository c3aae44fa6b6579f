package biquad

import (
	"math"
	"testing"
)

func TestOnePoleStepResponse(t *testing.T) {
	p := NewOnePole(1000, sampleRate)

	y := 0.0
	for range 4800 {
		y = p.ProcessSample(1)
	}

	if math.Abs(y-1) > 1e-9 {
		t.Fatalf("step response settled at %f, want 1", y)
	}

	p.Reset()

	if first := p.ProcessSample(1); math.Abs(first-p.Coefficient()) > eps {
		t.Fatalf("first sample after reset = %f, want %f", first, p.Coefficient())
	}
}

func TestOnePoleEdgeCutoffs(t *testing.T) {
	p := NewOnePole(sampleRate, sampleRate)
	if p.Coefficient() != 1 {
		t.Fatalf("cutoff above nyquist: a = %f, want 1", p.Coefficient())
	}

	p.SetCutoff(0, sampleRate)

	if p.Coefficient() != 0 {
		t.Fatalf("zero cutoff: a = %f, want 0", p.Coefficient())
	}

	p.SetCoefficient(3)

	if p.Coefficient() != 1 {
		t.Fatalf("SetCoefficient should clamp: %f", p.Coefficient())
	}
}

func TestDCBlockerRemovesOffset(t *testing.T) {
	d := NewDCBlocker(0)

	y := 0.0
	for range 20000 {
		y = d.ProcessSample(0.5)
	}

	if math.Abs(y) > 1e-6 {
		t.Fatalf("residual DC = %g", y)
	}

	d.Reset()

	if got := d.ProcessSample(1); got != 1 {
		t.Fatalf("first sample after reset = %f, want 1", got)
	}
}
