package engine

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	defaultChannels = 2
	// MaxChannels is the largest supported channel count.
	MaxChannels = 8
)

type config struct {
	channels  int
	logger    logrus.FieldLogger
	transport Transport
	seed      int64
	params    Params
	locking   bool
}

func defaultConfig() config {
	return config{
		channels:  defaultChannels,
		logger:    logrus.StandardLogger(),
		transport: FixedTempo(DefaultTempo),
		seed:      1,
		locking:   true,
	}
}

// Option mutates engine construction parameters.
type Option func(*config) error

// WithChannels sets the number of processed channels.
func WithChannels(n int) Option {
	return func(cfg *config) error {
		if n < 1 || n > MaxChannels {
			return fmt.Errorf("engine channels must be in [1, %d]: %d", MaxChannels, n)
		}

		cfg.channels = n

		return nil
	}
}

// WithLogger sets the logger used for control-path events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errors.New("engine logger must not be nil")
		}

		cfg.logger = l

		return nil
	}
}

// WithTransport sets the tempo source.
func WithTransport(t Transport) Option {
	return func(cfg *config) error {
		if t == nil {
			return errors.New("engine transport must not be nil")
		}

		cfg.transport = t

		return nil
	}
}

// WithSeed seeds the random LFO shape and the drift offsets.
func WithSeed(seed int64) Option {
	return func(cfg *config) error {
		cfg.seed = seed
		return nil
	}
}

// WithPhaseLocking toggles identity phase locking around spectral peaks in
// the phase vocoder. It is on by default.
func WithPhaseLocking(enabled bool) Option {
	return func(cfg *config) error {
		cfg.locking = enabled
		return nil
	}
}

// WithInitialParams loads a named parameter set before the first block.
// Unknown names are an error.
func WithInitialParams(p Params) Option {
	return func(cfg *config) error {
		for name := range p {
			if _, ok := Lookup(name); !ok {
				return fmt.Errorf("%w: %q", ErrUnknownParam, name)
			}
		}

		cfg.params = p

		return nil
	}
}
