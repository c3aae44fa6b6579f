// Package vocoder tracks per-bin instantaneous frequency across STFT frames
// and resynthesises phase for a linearly frequency-shifted signal.
package vocoder
