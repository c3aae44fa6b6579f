package stft

import (
	"github.com/cwbudde/algo-fshift/dsp/core"
	"github.com/cwbudde/algo-fshift/dsp/window"
)

// FrameFunc is invoked once per hop with the analysed spectrum. It may
// modify mag and phase in place; the result is resynthesised. Both slices
// have length fftSize/2+1 and are reused between calls.
type FrameFunc func(mag, phase []float64)

// Stream performs sample-by-sample STFT processing with a FIFO and
// weighted overlap-add. Output lags input by exactly fftSize samples.
//
// Stream does not allocate after construction or Reconfigure and is not
// safe for concurrent use.
type Stream struct {
	stft    *STFT
	process FrameFunc

	inFIFO  []float64
	outFIFO []float64
	accum   []float64
	frame   []float64
	mag     []float64
	phase   []float64

	latency int // fftSize - hop, start position of the rover
	rover   int
	scale   float64
}

// NewStream creates a Stream. process may be nil for a plain
// analysis/resynthesis pass.
func NewStream(fftSize, hop int, windowType window.Type, process FrameFunc) (*Stream, error) {
	s := &Stream{process: process}
	if err := s.Reconfigure(fftSize, hop, windowType); err != nil {
		return nil, err
	}

	return s, nil
}

// Reconfigure changes frame size, hop or window and clears all history.
// Buffers are reused when their capacity allows.
func (s *Stream) Reconfigure(fftSize, hop int, windowType window.Type) error {
	st, err := New(fftSize, hop, windowType)
	if err != nil {
		return err
	}

	s.stft = st
	s.inFIFO = core.Resize(s.inFIFO, fftSize)
	s.outFIFO = core.Resize(s.outFIFO, hop)
	s.accum = core.Resize(s.accum, fftSize)
	s.frame = core.Resize(s.frame, fftSize)
	s.mag = core.Resize(s.mag, st.Bins())
	s.phase = core.Resize(s.phase, st.Bins())
	s.scale = 1 / st.OverlapAddGain()
	s.latency = fftSize - hop
	s.rover = s.latency

	return nil
}

// STFT returns the underlying transform.
func (s *Stream) STFT() *STFT { return s.stft }

// Latency returns the input-to-output delay in samples.
func (s *Stream) Latency() int { return s.stft.Size() }

// Reset clears the FIFOs and the overlap-add accumulator.
func (s *Stream) Reset() {
	core.Zero(s.inFIFO)
	core.Zero(s.outFIFO)
	core.Zero(s.accum)
	s.rover = s.latency
}

// ProcessSample pushes x and returns the next output sample.
func (s *Stream) ProcessSample(x float64) float64 {
	s.inFIFO[s.rover] = x
	y := s.outFIFO[s.rover-s.latency]

	s.rover++
	if s.rover >= len(s.inFIFO) {
		s.rover = s.latency
		s.processFrame()
	}

	return y
}

// ProcessBlock processes src into dst. dst and src may alias.
func (s *Stream) ProcessBlock(dst, src []float64) {
	for i, x := range src {
		dst[i] = s.ProcessSample(x)
	}
}

func (s *Stream) processFrame() {
	n := len(s.inFIFO)
	hop := len(s.outFIFO)

	// Length errors are impossible here: all buffers were sized together.
	_ = s.stft.Forward(s.inFIFO, s.mag, s.phase)

	if s.process != nil {
		s.process(s.mag, s.phase)
	}

	_ = s.stft.Inverse(s.mag, s.phase, s.frame)

	for i, v := range s.frame {
		s.accum[i] += v * s.scale
	}

	copy(s.outFIFO, s.accum[:hop])
	copy(s.accum, s.accum[hop:])
	core.Zero(s.accum[n-hop:])
	copy(s.inFIFO, s.inFIFO[hop:])
}
