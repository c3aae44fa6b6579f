package main

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-fshift/measure/peak"
)

func TestRunRendersShiftedTone(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")

	if err := writeWav(in, tone(1000, 44100, 1.5)); err != nil {
		t.Fatalf("writeWav() error = %v", err)
	}

	var stdout, stderr bytes.Buffer

	err := run([]string{"-in", in, "-out", out, "-shift", "100", "-mode", "classic"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run() error = %v\n%s", err, stderr.String())
	}

	if !strings.Contains(stderr.String(), "render complete") {
		t.Fatalf("missing summary in log: %s", stderr.String())
	}

	got, err := readWav(out)
	if err != nil {
		t.Fatal(err)
	}

	if got.sampleRate != 44100 || len(got.channels) != 1 || got.frames() != int(1.5*44100) {
		t.Fatalf("unexpected output format: rate=%g ch=%d frames=%d", got.sampleRate, len(got.channels), got.frames())
	}

	f, err := peak.DominantFrequency(got.channels[0][4410:], got.sampleRate)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(f-1100) > 2 {
		t.Fatalf("dominant frequency = %.2f, want 1100", f)
	}
}

func TestRunBatchRendersEveryInput(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")

	if err := os.Mkdir(outDir, 0o755); err != nil {
		t.Fatal(err)
	}

	freqs := []float64{700, 1400, 2100}
	args := []string{"-outdir", outDir, "-shift", "-40", "-mode", "classic"}

	for i, f := range freqs {
		in := filepath.Join(dir, fmt.Sprintf("tone%d.wav", i))
		if err := writeWav(in, tone(f, 44100, 0.5)); err != nil {
			t.Fatal(err)
		}

		args = append(args, in)
	}

	var stderr bytes.Buffer
	if err := run(args, io.Discard, &stderr); err != nil {
		t.Fatalf("run() error = %v\n%s", err, stderr.String())
	}

	if got := strings.Count(stderr.String(), "render complete"); got != len(freqs) {
		t.Fatalf("render summaries = %d, want %d", got, len(freqs))
	}

	for i, f := range freqs {
		got, err := readWav(filepath.Join(outDir, fmt.Sprintf("tone%d.wav", i)))
		if err != nil {
			t.Fatal(err)
		}

		d, err := peak.DominantFrequency(got.channels[0][4410:], got.sampleRate)
		if err != nil {
			t.Fatal(err)
		}

		if math.Abs(d-(f-40)) > 3 {
			t.Errorf("tone%d: dominant frequency = %.2f, want %.0f", i, d, f-40)
		}
	}
}

func TestJobsRejectsOverwritingInput(t *testing.T) {
	opts := &options{inputs: []string{"/tmp/a.wav"}, outDir: "/tmp"}
	if _, err := opts.jobs(); err == nil {
		t.Fatal("expected error when output path equals input path")
	}

	opts = &options{inputs: []string{"a.wav"}, in: "b.wav"}
	if _, err := opts.jobs(); err == nil {
		t.Fatal("expected error when mixing -in with positional inputs")
	}
}

func TestParseFlagsSetOverridesShorthand(t *testing.T) {
	var stderr bytes.Buffer

	opts, err := parseFlags([]string{"-shift", "50", "-set", "shift_hz=75", "-scale", "dorian"}, &stderr)
	if err != nil {
		t.Fatal(err)
	}

	if opts.params["shift_hz"] != 75 {
		t.Fatalf("shift_hz = %g, want 75", opts.params["shift_hz"])
	}

	if opts.params["scale"] != 4 {
		t.Fatalf("scale = %g, want 4 (Dorian)", opts.params["scale"])
	}

	if opts.noLock {
		t.Fatal("phase locking should stay on without -nolock")
	}

	opts, err = parseFlags([]string{"-nolock"}, &stderr)
	if err != nil {
		t.Fatal(err)
	}

	if !opts.noLock {
		t.Fatal("-nolock was not parsed")
	}
}

func TestParseFlagsRejectsBadInput(t *testing.T) {
	var stderr bytes.Buffer

	for _, args := range [][]string{
		{"-mode", "granular"},
		{"-scale", "nope"},
		{"-set", "shift_hz"},
		{"-block", "0"},
	} {
		if _, err := parseFlags(args, &stderr); err == nil {
			t.Errorf("parseFlags(%v) succeeded, want error", args)
		}
	}
}

func TestListParams(t *testing.T) {
	var stdout bytes.Buffer
	if err := run([]string{"-list"}, &stdout, &stdout); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(stdout.String(), "smear_ms") {
		t.Fatalf("parameter list missing smear_ms:\n%s", stdout.String())
	}
}
