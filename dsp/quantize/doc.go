// Package quantize snaps spectral content to the notes of a musical scale.
//
// [Quantizer] remaps every FFT bin to the nearest in-scale frequency,
// interpolated by a strength control. It keeps phase continuity per MIDI
// note, can reimpose the spectral envelope of the unshifted input and
// relaxes quantization on transients.
//
// The scale tables and tuning helpers ([FreqToMidi], [MidiToFreq],
// [QuantizeToScale]) are usable on their own.
package quantize
