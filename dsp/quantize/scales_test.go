package quantize

import (
	"errors"
	"testing"
)

func TestScaleTable(t *testing.T) {
	if NumScales != 14 {
		t.Fatalf("NumScales = %d, want 14", NumScales)
	}

	for s := Scale(0); s < Scale(NumScales); s++ {
		deg := s.Degrees()
		if len(deg) == 0 || deg[0] != 0 {
			t.Fatalf("%s: degrees must start at 0: %v", s, deg)
		}

		for i := 1; i < len(deg); i++ {
			if deg[i] <= deg[i-1] || deg[i] > 11 {
				t.Fatalf("%s: degrees not ascending in 0..11: %v", s, deg)
			}
		}
	}
}

func TestScaleInvalid(t *testing.T) {
	s := Scale(99)
	if s.Valid() {
		t.Fatal("Scale(99) should be invalid")
	}

	if got := s.String(); got != "Scale(99)" {
		t.Fatalf("String() = %q", got)
	}

	if got := len(s.Degrees()); got != 12 {
		t.Fatalf("invalid scale should fall back to chromatic, got %d degrees", got)
	}
}

func TestRootMidi(t *testing.T) {
	tests := []struct {
		pc   int
		want int
	}{
		{0, 60},
		{9, 69},
		{11, 71},
		{12, 60},
		{-1, 71},
	}

	for _, tt := range tests {
		if got := RootMidi(tt.pc); got != tt.want {
			t.Errorf("RootMidi(%d) = %d, want %d", tt.pc, got, tt.want)
		}
	}
}

func TestParseScale(t *testing.T) {
	tests := map[string]Scale{
		"Major":            Major,
		"natural-minor":    NaturalMinor,
		"PENTATONIC_MINOR": PentatonicMinor,
		" whole tone ":     WholeTone,
	}

	for name, want := range tests {
		got, err := ParseScale(name)
		if err != nil || got != want {
			t.Errorf("ParseScale(%q) = %v, %v; want %v", name, got, err, want)
		}
	}

	if _, err := ParseScale("klingon"); !errors.Is(err, ErrUnknownScale) {
		t.Fatalf("ParseScale(unknown) error = %v", err)
	}
}
