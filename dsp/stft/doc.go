// Package stft implements short-time Fourier analysis and resynthesis.
//
// [STFT] is a stateless per-frame transform: Forward windows a frame and
// returns magnitude and phase for bins 0..N/2, Inverse rebuilds the
// conjugate-symmetric spectrum and returns a windowed time frame.
//
// [Stream] drives an STFT sample by sample with a FIFO and weighted
// overlap-add, invoking a callback on every analysis frame so the caller
// can modify magnitude and phase in place before resynthesis.
package stft
