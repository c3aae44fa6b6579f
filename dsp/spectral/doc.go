// Package spectral contains magnitude/phase frame processors that run
// between STFT analysis and resynthesis: a linear bin shifter, a
// frequency-selective wet/dry mask and a per-bin delay line.
//
// All processors work in place on frames of fftSize/2+1 (or fftSize/2)
// bins and do not allocate after construction.
package spectral
