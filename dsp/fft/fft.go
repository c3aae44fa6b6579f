package fft

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

var (
	// ErrNotPowerOfTwo is returned when the transform size is not a power of two.
	ErrNotPowerOfTwo = errors.New("fft: size must be a power of two")
	// ErrLengthMismatch is returned when a buffer does not match the engine size.
	ErrLengthMismatch = errors.New("fft: buffer length mismatch")
)

// Engine is a fixed-size complex FFT backed by a precomputed algo-fft plan.
type Engine struct {
	n       int
	plan    *algofft.Plan[complex128]
	scratch []complex128
}

// New creates an Engine for transforms of length n.
func New(n int) (*Engine, error) {
	if n < 2 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, n)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("fft: plan %d: %w", n, err)
	}

	return &Engine{
		n:       n,
		plan:    plan,
		scratch: make([]complex128, n),
	}, nil
}

// Size returns the transform length.
func (e *Engine) Size() int { return e.n }

// Forward computes the unnormalized DFT of src into dst. dst and src may
// be the same slice.
func (e *Engine) Forward(dst, src []complex128) error {
	src, err := e.input(dst, src)
	if err != nil {
		return err
	}

	if err := e.plan.Forward(dst, src); err != nil {
		return fmt.Errorf("fft: forward: %w", err)
	}

	return nil
}

// Inverse computes the inverse DFT of src into dst, scaled by 1/N.
func (e *Engine) Inverse(dst, src []complex128) error {
	src, err := e.input(dst, src)
	if err != nil {
		return err
	}

	if err := e.plan.Inverse(dst, src); err != nil {
		return fmt.Errorf("fft: inverse: %w", err)
	}

	return nil
}

// ForwardReal transforms the real sequence src into dst (length N).
func (e *Engine) ForwardReal(dst []complex128, src []float64) error {
	if len(src) != e.n || len(dst) != e.n {
		return fmt.Errorf("%w: src=%d dst=%d want %d", ErrLengthMismatch, len(src), len(dst), e.n)
	}

	for i, x := range src {
		e.scratch[i] = complex(x, 0)
	}

	if err := e.plan.Forward(dst, e.scratch); err != nil {
		return fmt.Errorf("fft: forward: %w", err)
	}

	return nil
}

// input validates the buffers and moves aliased input into scratch so the
// plan never reads and writes the same memory.
func (e *Engine) input(dst, src []complex128) ([]complex128, error) {
	if len(src) != e.n || len(dst) != e.n {
		return nil, fmt.Errorf("%w: src=%d dst=%d want %d", ErrLengthMismatch, len(src), len(dst), e.n)
	}

	if &dst[0] != &src[0] {
		return src, nil
	}

	copy(e.scratch, src)

	return e.scratch, nil
}
