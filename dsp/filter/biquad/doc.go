// Package biquad provides second-order IIR sections and the small set of
// filter designs used around the frequency shifter: RBJ lowpass, highpass
// and high-shelf biquads, a one-pole lowpass and a DC blocker.
//
// A [Section] runs Direct Form II Transposed. [Chain] cascades sections for
// steeper slopes.
package biquad
