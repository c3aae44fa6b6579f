package quantize

import (
	"errors"
	"fmt"
	"strings"
)

// Scale identifies a scale-degree set.
type Scale int

const (
	Major Scale = iota
	NaturalMinor
	HarmonicMinor
	MelodicMinor
	Dorian
	Phrygian
	Lydian
	Mixolydian
	Locrian
	PentatonicMajor
	PentatonicMinor
	Blues
	WholeTone
	Chromatic

	numScales
)

type scaleInfo struct {
	name    string
	degrees []int
}

var scaleTable = [numScales]scaleInfo{
	Major:           {"Major", []int{0, 2, 4, 5, 7, 9, 11}},
	NaturalMinor:    {"Natural Minor", []int{0, 2, 3, 5, 7, 8, 10}},
	HarmonicMinor:   {"Harmonic Minor", []int{0, 2, 3, 5, 7, 8, 11}},
	MelodicMinor:    {"Melodic Minor", []int{0, 2, 3, 5, 7, 9, 11}},
	Dorian:          {"Dorian", []int{0, 2, 3, 5, 7, 9, 10}},
	Phrygian:        {"Phrygian", []int{0, 1, 3, 5, 7, 8, 10}},
	Lydian:          {"Lydian", []int{0, 2, 4, 6, 7, 9, 11}},
	Mixolydian:      {"Mixolydian", []int{0, 2, 4, 5, 7, 9, 10}},
	Locrian:         {"Locrian", []int{0, 1, 3, 5, 6, 8, 10}},
	PentatonicMajor: {"Pentatonic Major", []int{0, 2, 4, 7, 9}},
	PentatonicMinor: {"Pentatonic Minor", []int{0, 3, 5, 7, 10}},
	Blues:           {"Blues", []int{0, 3, 5, 6, 7, 10}},
	WholeTone:       {"Whole Tone", []int{0, 2, 4, 6, 8, 10}},
	Chromatic:       {"Chromatic", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
}

// NumScales is the number of defined scales.
const NumScales = int(numScales)

// Valid reports whether s names a defined scale.
func (s Scale) Valid() bool { return s >= 0 && s < numScales }

// String returns the scale name.
func (s Scale) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Scale(%d)", int(s))
	}

	return scaleTable[s].name
}

// Degrees returns the semitone offsets (0..11) of the scale. The returned
// slice must not be modified. Invalid scales return the chromatic set.
func (s Scale) Degrees() []int {
	if !s.Valid() {
		return scaleTable[Chromatic].degrees
	}

	return scaleTable[s].degrees
}

// RootMidi maps a root pitch class (0 = C .. 11 = B) to the MIDI reference
// note in the octave of middle C.
func RootMidi(pitchClass int) int {
	return 60 + ((pitchClass%12)+12)%12
}

// ErrUnknownScale is returned by ParseScale for unrecognised names.
var ErrUnknownScale = errors.New("quantize: unknown scale")

// ParseScale looks up a scale by name. Matching ignores case, and dashes
// or underscores stand in for spaces ("natural-minor").
func ParseScale(name string) (Scale, error) {
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(strings.ToLower(strings.TrimSpace(name)))
	for s := range numScales {
		if strings.ToLower(scaleTable[s].name) == norm {
			return s, nil
		}
	}

	return Major, fmt.Errorf("%w: %q", ErrUnknownScale, name)
}
