package quantize

import "math"

const (
	referenceMidi = 69
	referenceHz   = 440.0
)

// FreqToMidi converts a frequency in Hz to a fractional MIDI note number.
// Non-positive frequencies return -Inf.
func FreqToMidi(freqHz float64) float64 {
	if freqHz <= 0 {
		return math.Inf(-1)
	}

	return referenceMidi + 12*math.Log2(freqHz/referenceHz)
}

// MidiToFreq converts a (fractional) MIDI note number to Hz.
func MidiToFreq(midi float64) float64 {
	return referenceHz * math.Exp2((midi-referenceMidi)/12)
}

// CentsToRatio converts a detune in cents to a frequency ratio.
func CentsToRatio(cents float64) float64 {
	return math.Exp2(cents / 1200)
}

// QuantizeToScale returns the in-scale MIDI note nearest to midi for the
// given root and degree set. Ties resolve to the lower note. An empty
// degree set rounds to the nearest semitone.
func QuantizeToScale(midi float64, rootMidi int, degrees []int) int {
	if len(degrees) == 0 {
		return int(math.Round(midi))
	}

	rel := midi - float64(rootMidi)
	octave := int(math.Floor(rel / 12))

	best := 0
	bestDist := math.Inf(1)

	for o := octave - 1; o <= octave+1; o++ {
		for _, d := range degrees {
			note := rootMidi + 12*o + d
			dist := math.Abs(float64(note) - midi)

			if dist < bestDist || (dist == bestDist && note < best) {
				best = note
				bestDist = dist
			}
		}
	}

	return best
}

// InScale reports whether the integer MIDI note belongs to the scale.
func InScale(midi, rootMidi int, degrees []int) bool {
	rel := ((midi-rootMidi)%12 + 12) % 12
	for _, d := range degrees {
		if d == rel {
			return true
		}
	}

	return false
}
