package quantize

import "math"

const (
	envelopeBands    = 48
	envelopeMinHz    = 20.0
	envelopeMaxHz    = 20000.0
	envelopeMaxRatio = 4.0
)

// envelope restores the coarse spectral shape of the input after bins
// have been moved, using per-band peak magnitudes on a log frequency axis.
type envelope struct {
	bandOf []int
	before [envelopeBands]float64
	after  [envelopeBands]float64
}

func (e *envelope) prepare(binFreq []float64) {
	if cap(e.bandOf) >= len(binFreq) {
		e.bandOf = e.bandOf[:len(binFreq)]
	} else {
		e.bandOf = make([]int, len(binFreq))
	}

	span := math.Log(envelopeMaxHz / envelopeMinHz)

	for k, f := range binFreq {
		if f < envelopeMinHz || f >= envelopeMaxHz {
			e.bandOf[k] = -1
			continue
		}

		band := int(math.Log(f/envelopeMinHz) / span * envelopeBands)
		e.bandOf[k] = min(band, envelopeBands-1)
	}
}

func (e *envelope) capture(dst *[envelopeBands]float64, mag []float64) {
	*dst = [envelopeBands]float64{}

	for k, band := range e.bandOf {
		if band >= 0 && mag[k] > dst[band] {
			dst[band] = mag[k]
		}
	}
}

// apply scales mag so each band's peak moves toward the peak measured in
// reference, by amount in [0,1].
func (e *envelope) apply(mag, reference []float64, amount float64) {
	e.capture(&e.before, reference)
	e.capture(&e.after, mag)

	for k, band := range e.bandOf {
		if band < 0 || e.after[band] <= magnitudeFloor {
			continue
		}

		ratio := math.Min(e.before[band]/e.after[band], envelopeMaxRatio)
		mag[k] *= 1 + amount*(ratio-1)
	}
}
