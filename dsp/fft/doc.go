// Package fft provides a fixed-size FFT engine for the spectral processors.
//
// The engine builds its algo-fft plan and scratch space once at construction.
// Forward and Inverse then run on caller buffers without allocating, in place
// or out of place. Inverse is normalized by 1/N so that Inverse(Forward(x))
// reconstructs x.
package fft
