package engine

import (
	"runtime"
	"sync/atomic"

	"github.com/cwbudde/algo-fshift/dsp/core"
)

const (
	// SpectrumBins is the fixed size of the visualization snapshot.
	SpectrumBins = MaxFFTSize/2 + 1
	// SpectrumFloorDB is the bottom of the normalized dB range.
	SpectrumFloorDB = -100.0
)

// spectrumSnapshot is the magnitude spectrum shared with a UI poller. The
// audio thread publishes with tryLock and skips the frame on contention.
type spectrumSnapshot struct {
	lock  atomic.Bool
	ready atomic.Bool

	bins int
	data [SpectrumBins]float64
}

func (s *spectrumSnapshot) tryLock() bool {
	return s.lock.CompareAndSwap(false, true)
}

func (s *spectrumSnapshot) spinLock() {
	for !s.lock.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (s *spectrumSnapshot) unlock() { s.lock.Store(false) }

// publish stores mag normalized to [0, 1] over [SpectrumFloorDB, 0] dB
// relative to ref.
func (s *spectrumSnapshot) publish(mag []float64, ref float64) {
	if !s.tryLock() {
		return
	}

	n := min(len(mag), SpectrumBins)
	for k := range n {
		s.data[k] = core.NormalizedDB(mag[k], ref, SpectrumFloorDB)
	}

	core.Zero(s.data[n:])
	s.bins = n
	s.unlock()
	s.ready.Store(true)
}

// read copies the snapshot into dst and returns the number of valid bins.
func (s *spectrumSnapshot) read(dst []float64) (int, bool) {
	if !s.ready.Load() {
		return 0, false
	}

	s.spinLock()
	n := copy(dst, s.data[:s.bins])
	s.unlock()

	return n, true
}

func (s *spectrumSnapshot) reset() {
	s.spinLock()
	core.Zero(s.data[:])
	s.bins = 0
	s.unlock()
	s.ready.Store(false)
}
