package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/youpy/go-wav"
)

const maxWavChannels = 2

var errNoAudio = errors.New("no audio frames")

// audio is deinterleaved float PCM.
type audio struct {
	sampleRate float64
	channels   [][]float64
}

func (a *audio) frames() int {
	if len(a.channels) == 0 {
		return 0
	}

	return len(a.channels[0])
}

func readWav(path string) (*audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rd := wav.NewReader(f)

	format, err := rd.Format()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	nCh := int(format.NumChannels)
	if nCh < 1 || nCh > maxWavChannels {
		return nil, fmt.Errorf("read %s: unsupported channel count %d", path, nCh)
	}

	a := &audio{
		sampleRate: float64(format.SampleRate),
		channels:   make([][]float64, nCh),
	}

	for {
		samples, err := rd.ReadSamples()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		for _, s := range samples {
			for ch := range nCh {
				a.channels[ch] = append(a.channels[ch], rd.FloatValue(s, uint(ch)))
			}
		}
	}

	if a.frames() == 0 {
		return nil, fmt.Errorf("read %s: %w", path, errNoAudio)
	}

	return a, nil
}

// writeWav stores a as 16-bit PCM, clipping to full scale.
func writeWav(path string, a *audio) error {
	nCh := len(a.channels)
	if nCh < 1 || nCh > maxWavChannels {
		return fmt.Errorf("write %s: unsupported channel count %d", path, nCh)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	n := a.frames()
	wr := wav.NewWriter(f, uint32(n), uint16(nCh), uint32(a.sampleRate), 16)

	const fullScale = 1<<15 - 1

	samples := make([]wav.Sample, n)
	for i := range samples {
		for ch := range nCh {
			v := math.Max(-1, math.Min(1, a.channels[ch][i]))
			samples[i].Values[ch] = int(math.Round(v * fullScale))
		}
	}

	if err := wr.WriteSamples(samples); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}

// tone returns a mono sine used when no input file is given.
func tone(freq, sampleRate, seconds float64) *audio {
	n := int(seconds * sampleRate)
	x := make([]float64, n)

	for i := range x {
		x[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}

	return &audio{sampleRate: sampleRate, channels: [][]float64{x}}
}
