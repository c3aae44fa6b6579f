package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-fshift/dsp/window"
)

func TestParamSpecsTable(t *testing.T) {
	specs := ParamSpecs()
	if len(specs) != NumParams {
		t.Fatalf("len(ParamSpecs()) = %d, want %d", len(specs), NumParams)
	}

	seen := make(map[string]bool)
	for i, s := range specs {
		if s.ID != ParamID(i) {
			t.Fatalf("spec %d has ID %d", i, s.ID)
		}

		if s.Name == "" || seen[s.Name] {
			t.Fatalf("spec %d has empty or duplicate name %q", i, s.Name)
		}

		seen[s.Name] = true

		if s.Min > s.Max || s.Default < s.Min || s.Default > s.Max {
			t.Fatalf("%s: default %f outside [%f, %f]", s.Name, s.Default, s.Min, s.Max)
		}

		if id, ok := Lookup(s.Name); !ok || id != s.ID {
			t.Fatalf("Lookup(%q) = %d, %v", s.Name, id, ok)
		}
	}
}

func TestParamStoreSanitizes(t *testing.T) {
	tests := []struct {
		id   ParamID
		in   float64
		want float64
	}{
		{ParamShiftHz, 30000, 20000},
		{ParamShiftHz, -30000, -20000},
		{ParamQuantize, 1.5, 1},
		{ParamSmearMs, 1, 5},
		{ParamRootNote, 4.6, 5},
		{ParamPhaseVocoder, 0.2, 0},
		{ParamWarm, 0.7, 1},
		{ParamFeedback, 2, 0.95},
		{ParamDryWet, math.NaN(), 1},
		{ParamDriftOctaves, 0, 1},
		{ParamDriftOctaves, 2.6, 3},
	}

	s := NewParamStore()
	for _, tc := range tests {
		if err := s.Set(tc.id, tc.in); err != nil {
			t.Fatalf("Set(%s) error = %v", tc.id, err)
		}

		if got := s.Get(tc.id); got != tc.want {
			t.Fatalf("%s: Set(%f) stored %f, want %f", tc.id, tc.in, got, tc.want)
		}
	}
}

func TestParamStoreDirtyFlags(t *testing.T) {
	s := NewParamStore()

	if err := s.Set(ParamShiftHz, 100); err != nil {
		t.Fatal(err)
	}

	if got := s.takeDirty(); got != 0 {
		t.Fatalf("shift should not mark deferred work, got %b", got)
	}

	if err := s.Set(ParamMaskLowHz, 300); err != nil {
		t.Fatal(err)
	}

	if err := s.Set(ParamSmearMs, 40); err != nil {
		t.Fatal(err)
	}

	got := s.takeDirty()
	if got&dirtyMask == 0 || got&dirtyReinit == 0 {
		t.Fatalf("flags = %b, want mask and reinit", got)
	}

	if s.takeDirty() != 0 {
		t.Fatal("flags must be consumed once")
	}

	// Writing the same value again is not a change.
	if err := s.Set(ParamSmearMs, 40); err != nil {
		t.Fatal(err)
	}

	if s.takeDirty() != 0 {
		t.Fatal("unchanged value marked dirty")
	}
}

func TestParamStoreValuesLoad(t *testing.T) {
	a := NewParamStore()
	_ = a.Set(ParamShiftHz, -250)
	_ = a.Set(ParamScale, 3)
	_ = a.Set(ParamDelayEnabled, 1)

	b := NewParamStore()
	if err := b.Load(a.Values()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for i := range NumParams {
		if a.Get(ParamID(i)) != b.Get(ParamID(i)) {
			t.Fatalf("%s differs after Load", ParamID(i))
		}
	}

	err := b.Load(Params{"shift_hz": 10, "bogus": 1})
	if !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("Load() error = %v, want ErrUnknownParam", err)
	}

	if b.Get(ParamShiftHz) != 10 {
		t.Fatal("known parameters should still be applied")
	}

	if err := b.Set(ParamID(-1), 0); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("Set(invalid) error = %v", err)
	}
}

func TestSnapshotMapsChoices(t *testing.T) {
	s := NewParamStore()
	_ = s.Set(ParamWindow, 2)
	_ = s.Set(ParamMode, 0)
	_ = s.Set(ParamRootNote, 9)

	var snap Snapshot
	s.Snapshot(&snap)

	if snap.Window != window.TypeBlackman {
		t.Fatalf("window = %v, want Blackman", snap.Window)
	}

	if snap.Mode != ModeClassic || snap.RootNote != 9 {
		t.Fatalf("mode=%v root=%d", snap.Mode, snap.RootNote)
	}

	if !snap.PhaseVocoder || snap.DryWet != 1 || snap.SmearMs != 93 {
		t.Fatalf("unexpected defaults: %+v", snap)
	}
}
