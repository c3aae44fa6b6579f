// Package engine ties the frequency shifter together: it runs the Classic
// (Hilbert) or Spectral (STFT) path per channel, crossfades between them
// on mode changes, routes delayed feedback back into the shifter input,
// and mixes dry and wet.
//
// Parameters live in a ParamStore of atomics that any goroutine may write.
// The audio goroutine takes a Snapshot at the start of each ProcessBlock
// call, so changes land on block boundaries. Work that is too heavy for
// the control side (mask curves, spectral delay tables, FFT resizing) is
// signalled with update flags and done by the audio goroutine before the
// next block.
//
// Reported latency is ClassicLatency in Classic mode and MaxFFTSize in
// Spectral mode, independent of the smear setting.
package engine
