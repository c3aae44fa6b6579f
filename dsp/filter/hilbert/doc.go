// Package hilbert provides a fixed polyphase half-pi allpass network that
// turns a real signal into an in-phase/quadrature pair.
//
// The network is two parallel chains of six second-order allpass sections
// (12 coefficients in total) whose outputs stay about 90 degrees apart from
// roughly 20 Hz to 20 kHz. [Quadrature] is the streaming processor used by
// single-sideband frequency shifting.
package hilbert
