// Package modulation provides the time-domain modulation sources of the
// frequency shifter.
//
// Included processors:
//   - FrequencyShifter: Hilbert single-sideband shifter with signed shift.
//   - LFO: block-rate low-frequency oscillator with tempo sync and optional
//     step quantization.
//   - Drift: per-bin detune generator (LFO or Perlin noise) for the
//     spectral quantizer.
package modulation
