package stft

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-fshift/dsp/fft"
	"github.com/cwbudde/algo-fshift/dsp/window"
)

var (
	// ErrHopSize is returned when the hop is not in (0, fftSize].
	ErrHopSize = errors.New("stft: hop size must be in (0, fftSize]")
	// ErrLengthMismatch is returned when a frame or spectrum has the wrong length.
	ErrLengthMismatch = errors.New("stft: length mismatch")
)

// STFT holds the precomputed window and FFT tables for one frame size.
type STFT struct {
	size       int
	hop        int
	bins       int
	windowType window.Type

	engine *fft.Engine
	win    []float64
	gain   float64

	buf    []complex128
	tmp    []float64
	re, im []float64
}

// New creates an STFT with the given frame size, hop and window.
func New(fftSize, hop int, windowType window.Type) (*STFT, error) {
	engine, err := fft.New(fftSize)
	if err != nil {
		return nil, fmt.Errorf("stft: %w", err)
	}

	if hop <= 0 || hop > fftSize {
		return nil, fmt.Errorf("%w: hop=%d fftSize=%d", ErrHopSize, hop, fftSize)
	}

	win := window.Generate(windowType, fftSize, window.WithPeriodic())

	gain, err := window.OverlapAddGain(win, hop)
	if err != nil {
		return nil, fmt.Errorf("stft: %w", err)
	}

	bins := fftSize/2 + 1

	return &STFT{
		size:       fftSize,
		hop:        hop,
		bins:       bins,
		windowType: windowType,
		engine:     engine,
		win:        win,
		gain:       gain,
		buf:        make([]complex128, fftSize),
		tmp:        make([]float64, fftSize),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
	}, nil
}

// Size returns the FFT frame size.
func (s *STFT) Size() int { return s.size }

// Hop returns the hop size in samples.
func (s *STFT) Hop() int { return s.hop }

// Bins returns the number of analysis bins, fftSize/2+1.
func (s *STFT) Bins() int { return s.bins }

// WindowType returns the analysis/synthesis window.
func (s *STFT) WindowType() window.Type { return s.windowType }

// OverlapAddGain returns sum(w^2)/hop, the steady-state gain of windowed
// analysis followed by windowed synthesis and overlap-add.
func (s *STFT) OverlapAddGain() float64 { return s.gain }

// FrequencyBins fills dst with the centre frequency of each bin.
func (s *STFT) FrequencyBins(dst []float64, sampleRate float64) {
	res := sampleRate / float64(s.size)
	for k := range min(len(dst), s.bins) {
		dst[k] = float64(k) * res
	}
}

// Forward windows frame and writes the magnitude and phase of bins
// 0..fftSize/2 into mag and phase.
func (s *STFT) Forward(frame, mag, phase []float64) error {
	if len(frame) != s.size {
		return fmt.Errorf("%w: frame=%d want %d", ErrLengthMismatch, len(frame), s.size)
	}

	if len(mag) != s.bins || len(phase) != s.bins {
		return fmt.Errorf("%w: mag=%d phase=%d want %d", ErrLengthMismatch, len(mag), len(phase), s.bins)
	}

	copy(s.tmp, frame)
	_ = window.Apply(s.tmp, s.win)

	for i, x := range s.tmp {
		s.buf[i] = complex(x, 0)
	}

	if err := s.engine.Forward(s.buf, s.buf); err != nil {
		return fmt.Errorf("stft: %w", err)
	}

	for k := range s.bins {
		s.re[k] = real(s.buf[k])
		s.im[k] = imag(s.buf[k])
		phase[k] = math.Atan2(s.im[k], s.re[k])
	}

	vecmath.Magnitude(mag, s.re, s.im)

	return nil
}

// Inverse rebuilds a conjugate-symmetric spectrum from mag and phase,
// transforms it back and writes the windowed frame.
func (s *STFT) Inverse(mag, phase, frame []float64) error {
	if len(frame) != s.size {
		return fmt.Errorf("%w: frame=%d want %d", ErrLengthMismatch, len(frame), s.size)
	}

	if len(mag) != s.bins || len(phase) != s.bins {
		return fmt.Errorf("%w: mag=%d phase=%d want %d", ErrLengthMismatch, len(mag), len(phase), s.bins)
	}

	for k := range s.bins {
		sin, cos := math.Sincos(phase[k])
		s.buf[k] = complex(mag[k]*cos, mag[k]*sin)
	}

	// DC and Nyquist carry no imaginary part in a real signal.
	s.buf[0] = complex(real(s.buf[0]), 0)
	s.buf[s.bins-1] = complex(real(s.buf[s.bins-1]), 0)

	for k := 1; k < s.bins-1; k++ {
		v := s.buf[k]
		s.buf[s.size-k] = complex(real(v), -imag(v))
	}

	if err := s.engine.Inverse(s.buf, s.buf); err != nil {
		return fmt.Errorf("stft: %w", err)
	}

	for i := range frame {
		frame[i] = real(s.buf[i])
	}

	return window.Apply(frame, s.win)
}
