package engine

import "math"

// DefaultTempo is used when the transport has no tempo.
const DefaultTempo = 120.0

// Transport reports host tempo. It is queried once per block on the audio
// thread and must not block.
type Transport interface {
	Tempo() (bpm float64, ok bool)
}

// FixedTempo is a Transport with a constant tempo.
type FixedTempo float64

// Tempo implements Transport.
func (t FixedTempo) Tempo() (float64, bool) {
	bpm := float64(t)
	return bpm, bpm > 0 && !math.IsInf(bpm, 0)
}

// delaySyncQuarterNotes maps delay_sync to note lengths in quarter notes:
// off, 1/32, 1/16, dotted 1/16, 1/8, dotted 1/8, 1/4, dotted 1/4, 1/2.
var delaySyncQuarterNotes = [...]float64{0, 0.125, 0.25, 0.375, 0.5, 0.75, 1, 1.5, 2}

// syncedDelayMs returns the synced delay time for division at bpm, or
// fallbackMs when sync is off.
func syncedDelayMs(division int, bpm, fallbackMs float64) float64 {
	if division <= 0 || division >= len(delaySyncQuarterNotes) || bpm <= 0 {
		return fallbackMs
	}

	return delaySyncQuarterNotes[division] * 60000 / bpm
}
