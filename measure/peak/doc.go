// Package peak measures rendered audio offline: windowed magnitude spectra,
// the dominant frequency of a signal, single-tone levels via the Goertzel
// algorithm and band energies.
//
// It is used by the render tool and by tests that check where a shifted
// tone ends up.
package peak
