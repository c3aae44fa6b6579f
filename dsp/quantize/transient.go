package quantize

const transientRampFrames = 4

// transient detects sudden frame-energy jumps and produces a bypass level
// that ramps up to the configured amount over transientRampFrames frames
// and back down at the same rate.
type transient struct {
	prevEnergy float64
	level      float64
	rising     bool
	falling    bool
}

func (t *transient) reset() {
	*t = transient{}
}

// update feeds the energy of the current frame and returns the bypass level
// to apply to it.
func (t *transient) update(energy, threshold, amount float64) float64 {
	if amount > 0 && t.prevEnergy > energyFloor && energy/t.prevEnergy > threshold {
		t.rising = true
		t.falling = false
	}

	t.prevEnergy = energy
	step := amount / transientRampFrames

	switch {
	case t.rising:
		t.level += step
		if t.level >= amount {
			t.level = amount
			t.rising = false
			t.falling = true
		}
	case t.falling:
		t.level -= step
		if t.level <= 0 || step <= 0 {
			t.level = 0
			t.falling = false
		}
	}

	return t.level
}
