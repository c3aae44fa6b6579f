package engine

import (
	"fmt"
	"math"
)

// Mode is the processing algorithm.
type Mode int

const (
	// ModeClassic is the Hilbert single-sideband shifter.
	ModeClassic Mode = iota
	// ModeSpectral is the STFT chain.
	ModeSpectral
)

func (m Mode) String() string {
	switch m {
	case ModeClassic:
		return "classic"
	case ModeSpectral:
		return "spectral"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// State is the mode state machine position.
type State int

const (
	StateClassic State = iota
	StateSpectral
	StateSwitchingToClassic
	StateSwitchingToSpectral
)

func (s State) String() string {
	switch s {
	case StateClassic:
		return "classic"
	case StateSpectral:
		return "spectral"
	case StateSwitchingToClassic:
		return "switching-to-classic"
	case StateSwitchingToSpectral:
		return "switching-to-spectral"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// CrossfadeMs is the duration of a mode switch.
const CrossfadeMs = 15.0

// modeSwitch runs the equal-power crossfade between the two paths.
type modeSwitch struct {
	state  State
	pos    int
	length int
}

func newModeSwitch(mode Mode, sampleRate float64) modeSwitch {
	return modeSwitch{
		state:  settledState(mode),
		length: max(1, int(math.Round(CrossfadeMs*sampleRate/1000))),
	}
}

func settledState(mode Mode) State {
	if mode == ModeClassic {
		return StateClassic
	}

	return StateSpectral
}

// active returns the mode currently dominating the output: the target
// while switching.
func (m *modeSwitch) active() Mode {
	switch m.state {
	case StateClassic, StateSwitchingToClassic:
		return ModeClassic
	default:
		return ModeSpectral
	}
}

func (m *modeSwitch) switching() bool {
	return m.state == StateSwitchingToClassic || m.state == StateSwitchingToSpectral
}

// request starts a switch towards target. Reversing an unfinished switch
// mirrors the progress so the output stays continuous. It reports whether
// a new switch began from a settled state.
func (m *modeSwitch) request(target Mode) bool {
	if target == m.active() {
		return false
	}

	if m.switching() {
		m.pos = m.length - m.pos
		m.state = switchingTo(target)

		return false
	}

	m.pos = 0
	m.state = switchingTo(target)

	return true
}

func switchingTo(target Mode) State {
	if target == ModeClassic {
		return StateSwitchingToClassic
	}

	return StateSwitchingToSpectral
}

// progress returns the crossfade position in [0, 1]; 1 when settled.
func (m *modeSwitch) progress() float64 {
	if !m.switching() {
		return 1
	}

	return float64(m.pos) / float64(m.length)
}

// gains returns the classic and spectral weights for the current sample.
func (m *modeSwitch) gains() (classic, spectral float64) {
	switch m.state {
	case StateClassic:
		return 1, 0
	case StateSpectral:
		return 0, 1
	}

	fadeIn, fadeOut := math.Sincos(m.progress() * math.Pi / 2)
	if m.state == StateSwitchingToSpectral {
		return fadeOut, fadeIn
	}

	return fadeIn, fadeOut
}

// advance moves one sample forward and reports whether the switch just
// completed.
func (m *modeSwitch) advance() bool {
	if !m.switching() {
		return false
	}

	m.pos++
	if m.pos < m.length {
		return false
	}

	m.pos = 0
	m.state = settledState(m.active())

	return true
}
