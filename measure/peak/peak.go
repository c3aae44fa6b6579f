package peak

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-fshift/dsp/window"
)

// ErrEmptySignal is returned when a measurement gets no samples.
var ErrEmptySignal = errors.New("peak: empty signal")

// Spectrum returns the one-sided magnitude spectrum of x after removing its
// mean and applying a Hann window, zero-padded to the next power of two. Magnitudes are scaled so a
// full-scale sinusoid centered on a bin reads 1.
func Spectrum(x []float64) ([]float64, error) {
	re, im, err := transform(x)
	if err != nil {
		return nil, err
	}

	mag := make([]float64, len(re))
	vecmath.Magnitude(mag, re, im)

	return mag, nil
}

// PowerSpectrum is like Spectrum but returns squared magnitudes.
func PowerSpectrum(x []float64) ([]float64, error) {
	re, im, err := transform(x)
	if err != nil {
		return nil, err
	}

	pow := make([]float64, len(re))
	vecmath.Power(pow, re, im)

	return pow, nil
}

// DominantFrequency returns the frequency of the strongest non-DC spectral
// peak of x, refined by parabolic interpolation on log magnitude.
func DominantFrequency(x []float64, sampleRate float64) (float64, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("peak: sample rate must be > 0: %f", sampleRate)
	}

	pow, err := PowerSpectrum(x)
	if err != nil {
		return 0, err
	}

	if len(pow) < 3 {
		return 0, nil
	}

	best := 1
	for k := 2; k < len(pow); k++ {
		if pow[k] > pow[best] {
			best = k
		}
	}

	delta := 0.0
	if best < len(pow)-1 && pow[best-1] > 0 && pow[best+1] > 0 {
		a := math.Log(pow[best-1])
		b := math.Log(pow[best])
		c := math.Log(pow[best+1])

		if den := a - 2*b + c; den != 0 {
			delta = 0.5 * (a - c) / den
		}
	}

	fftSize := 2 * (len(pow) - 1)

	return (float64(best) + delta) * sampleRate / float64(fftSize), nil
}

// BandEnergy returns the summed power of the bins of x between loHz and
// hiHz, relative to the total non-DC power. The result is in [0,1].
func BandEnergy(x []float64, sampleRate, loHz, hiHz float64) (float64, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("peak: sample rate must be > 0: %f", sampleRate)
	}

	if loHz > hiHz {
		return 0, fmt.Errorf("peak: band limits reversed: %f > %f", loHz, hiHz)
	}

	pow, err := PowerSpectrum(x)
	if err != nil {
		return 0, err
	}

	binHz := sampleRate / float64(2*(len(pow)-1))
	band, total := 0.0, 0.0

	for k := 1; k < len(pow); k++ {
		total += pow[k]

		if f := float64(k) * binHz; f >= loHz && f <= hiHz {
			band += pow[k]
		}
	}

	if total == 0 {
		return 0, nil
	}

	return band / total, nil
}

func transform(x []float64) (re, im []float64, err error) {
	if len(x) == 0 {
		return nil, nil, ErrEmptySignal
	}

	n := 2
	for n < len(x) {
		n <<= 1
	}

	mean := 0.0
	for _, v := range x {
		mean += v
	}

	mean /= float64(len(x))

	coeffs := window.Generate(window.TypeHann, len(x), window.WithPeriodic())

	in := make([]complex128, n)
	sum := 0.0

	for i, v := range x {
		in[i] = complex((v-mean)*coeffs[i], 0)
		sum += coeffs[i]
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, nil, fmt.Errorf("peak: fft plan: %w", err)
	}

	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		return nil, nil, fmt.Errorf("peak: forward fft: %w", err)
	}

	scale := 1.0
	if sum > 0 {
		scale = 2 / sum
	}

	bins := n/2 + 1
	re = make([]float64, bins)
	im = make([]float64, bins)

	for k := range bins {
		re[k] = real(out[k]) * scale
		im[k] = imag(out[k]) * scale
	}

	return re, im, nil
}
