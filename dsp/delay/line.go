// Package delay provides the circular delay line shared by feedback paths,
// latency compensation and short modulated delays.
package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fshift/dsp/interp"
)

// Line is a circular delay line. Read(k) returns the sample written k
// writes ago, so Read(1) is the most recent sample.
type Line struct {
	buffer   []float64
	writePos int
	mode     interp.Mode
}

// Option configures a Line.
type Option func(*Line) error

// WithMode selects the interpolation used by ReadFractional.
func WithMode(m interp.Mode) Option {
	return func(d *Line) error {
		if !m.Valid() {
			return fmt.Errorf("delay: invalid interpolation mode: %d", m)
		}

		d.mode = m

		return nil
	}
}

// New returns a delay line of fixed size.
func New(size int, opts ...Option) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}

	d := &Line{buffer: make([]float64, size), mode: interp.Hermite}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Len returns the internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write writes one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample

	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read reads an integer delay in samples. Delays are taken modulo Len.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)

	readPos := (d.writePos - delay%size + size) % size

	return d.buffer[readPos]
}

// ReadFractional reads a fractional delay, clamped to [1, Len-3]. A delay
// of 1 is the most recent sample.
func (d *Line) ReadFractional(delay float64) float64 {
	maxDelay := float64(len(d.buffer) - 3)
	delay = math.Max(1, math.Min(delay, maxDelay))

	p := int(delay)
	t := delay - float64(p)

	if d.mode == interp.Linear {
		return interp.Linear2(t, d.Read(p), d.Read(p+1))
	}

	return interp.Hermite4(t, d.Read(max(1, p-1)), d.Read(p), d.Read(p+1), d.Read(p+2))
}

// Process returns the input delayed by delay samples and stores x. A delay
// of 0 returns x unchanged.
func (d *Line) Process(x float64, delay int) float64 {
	if delay <= 0 {
		d.Write(x)
		return x
	}

	y := d.Read(delay)
	d.Write(x)

	return y
}

// Reset clears line state.
func (d *Line) Reset() {
	clear(d.buffer)
	d.writePos = 0
}
