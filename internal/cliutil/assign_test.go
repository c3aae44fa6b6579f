package cliutil

import "testing"

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		value   float64
		wantErr bool
	}{
		{in: "shift_hz=120", name: "shift_hz", value: 120},
		{in: " feedback = 0.5 ", name: "feedback", value: 0.5},
		{in: "shift_hz=-1e3", name: "shift_hz", value: -1000},
		{in: "shift_hz", wantErr: true},
		{in: "=3", wantErr: true},
		{in: "dry_wet=half", wantErr: true},
	}

	for _, tt := range tests {
		name, v, err := ParseAssignment(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAssignment(%q) succeeded, want error", tt.in)
			}

			continue
		}

		if err != nil {
			t.Errorf("ParseAssignment(%q) error = %v", tt.in, err)
			continue
		}

		if name != tt.name || v != tt.value {
			t.Errorf("ParseAssignment(%q) = %q, %g; want %q, %g", tt.in, name, v, tt.name, tt.value)
		}
	}
}
