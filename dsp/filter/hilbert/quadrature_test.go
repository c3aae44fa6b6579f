package hilbert

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fshift/internal/testutil"
)

func TestQuadratureEnvelopeIsFlat(t *testing.T) {
	const (
		sampleRate = 48000.0
		settle     = 24000
		measure    = 4800
	)

	for _, freq := range []float64{200, 1000, 5000, 10000} {
		p := NewQuadrature()
		in := testutil.DeterministicSine(freq, sampleRate, 1, settle+measure)

		lo, hi := math.Inf(1), 0.0

		for n, x := range in {
			env := p.ProcessEnvelopeSample(x)
			if n < settle {
				continue
			}

			lo = math.Min(lo, env)
			hi = math.Max(hi, env)
		}

		if lo < 0.9 || hi > 1.1 {
			t.Errorf("%.0f Hz: envelope range [%f, %f], want within [0.9, 1.1]", freq, lo, hi)
		}
	}
}

func TestQuadratureLagsInPhase(t *testing.T) {
	const (
		sampleRate = 48000.0
		freq       = 1000.0
		n          = 24000
	)

	p := NewQuadrature()
	in := testutil.DeterministicSine(freq, sampleRate, 1, n)
	outI := make([]float64, n)
	outQ := make([]float64, n)

	if err := p.ProcessBlock(in, outI, outQ); err != nil {
		t.Fatal(err)
	}

	// Correlate q against i shifted by a quarter period: a lagging q matches
	// i delayed by 90 degrees.
	quarter := int(sampleRate / freq / 4)
	lag, lead := 0.0, 0.0

	for k := n / 2; k < n; k++ {
		lag += outQ[k] * outI[k-quarter]
		lead += outQ[k-quarter] * outI[k]
	}

	if lag <= 0 || lead >= 0 {
		t.Fatalf("expected q to lag i: lag=%f lead=%f", lag, lead)
	}
}

func TestQuadratureIsAllpass(t *testing.T) {
	p := NewQuadrature()
	in := testutil.DeterministicSine(3000, 48000, 1, 48000)
	outI := make([]float64, len(in))
	outQ := make([]float64, len(in))

	if err := p.ProcessBlock(in, outI, outQ); err != nil {
		t.Fatal(err)
	}

	want := testutil.RMS(in[24000:])
	if got := testutil.RMS(outI[24000:]); math.Abs(got-want) > 1e-3 {
		t.Fatalf("in-phase RMS = %f, want %f", got, want)
	}

	if got := testutil.RMS(outQ[24000:]); math.Abs(got-want) > 1e-3 {
		t.Fatalf("quadrature RMS = %f, want %f", got, want)
	}
}

func TestQuadratureReset(t *testing.T) {
	p := NewQuadrature()
	for _, x := range testutil.DeterministicNoise(3, 1, 512) {
		p.ProcessSample(x)
	}

	p.Reset()

	fresh := NewQuadrature()
	for _, x := range testutil.Impulse(64, 0) {
		gi, gq := p.ProcessSample(x)
		wi, wq := fresh.ProcessSample(x)

		if gi != wi || gq != wq {
			t.Fatal("Reset did not restore the initial state")
		}
	}
}

func TestProcessBlockLengthMismatch(t *testing.T) {
	p := NewQuadrature()
	if err := p.ProcessBlock(make([]float64, 4), make([]float64, 3), make([]float64, 4)); err == nil {
		t.Fatal("expected error")
	}
}

func TestCoefficientsAscending(t *testing.T) {
	c := coefficients[:]
	if len(c) != NumCoefficients {
		t.Fatalf("len = %d", len(c))
	}

	for k := 1; k < len(c); k++ {
		if c[k] <= c[k-1] || c[k] >= 1 {
			t.Fatalf("coefficient %d out of order: %v", k, c)
		}
	}
}
