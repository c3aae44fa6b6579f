// Command fshiftlive runs the frequency shifter on a full-duplex audio device.
//
// Usage:
//
//	fshiftlive [flags]
//
// While running, lines of the form name=value on stdin update engine
// parameters, for example "shift_hz=-250" or "mode=0".
//
// Examples:
//
//	fshiftlive -shift 5 -mode classic
//	fshiftlive -rate 48000 -block 256 -set smear_ms=40
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fshift/engine"
	"github.com/cwbudde/algo-fshift/internal/cliutil"
)

type paramList engine.Params

func (p paramList) String() string { return fmt.Sprint(engine.Params(p)) }

func (p paramList) Set(arg string) error {
	name, v, err := cliutil.ParseAssignment(arg)
	if err != nil {
		return err
	}

	p[name] = v

	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}

		logrus.WithError(err).Error("fshiftlive failed")
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("fshiftlive", flag.ContinueOnError)

	params := engine.Params{}
	fs.Var(paramList(params), "set", "engine parameter name=value (repeatable)")

	sampleRate := fs.Uint("rate", 48000, "device sample rate")
	channels := fs.Uint("channels", 2, "capture and playback channels")
	block := fs.Uint("block", 512, "maximum processing block size")
	periods := fs.Uint("periods", 2, "device buffer periods")
	shift := fs.Float64("shift", 0, "frequency shift in Hz")
	mode := fs.String("mode", "spectral", "processing mode: classic or spectral")
	verbose := fs.Bool("v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	switch strings.ToLower(*mode) {
	case "spectral":
		setDefault(params, "mode", float64(engine.ModeSpectral))
	case "classic":
		setDefault(params, "mode", float64(engine.ModeClassic))
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}

	setDefault(params, "shift_hz", *shift)

	if *block == 0 {
		return errors.New("block size must be > 0")
	}

	e, err := engine.New(float64(*sampleRate), int(*block),
		engine.WithChannels(int(*channels)),
		engine.WithInitialParams(params),
	)
	if err != nil {
		return err
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logrus.WithField("component", "malgo").Debug(strings.TrimSpace(message))
	})
	if err != nil {
		return err
	}

	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	cfg := malgo.DefaultDeviceConfig(malgo.Duplex)
	cfg.PerformanceProfile = malgo.LowLatency
	cfg.Capture.Format = malgo.FormatF32
	cfg.Capture.Channels = uint32(*channels)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = uint32(*channels)
	cfg.SampleRate = uint32(*sampleRate)
	cfg.Periods = uint32(*periods)

	p := newProcessor(e, int(*block))

	device, err := malgo.InitDevice(ctx.Context, cfg, malgo.DeviceCallbacks{Data: p.process})
	if err != nil {
		return err
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"sample_rate": *sampleRate,
		"channels":    *channels,
		"block":       *block,
		"mode":        e.Mode().String(),
		"latency":     e.LatencySamples(),
	}).Info("device started, press Ctrl-C to exit")

	go readControl(os.Stdin, e.Params())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig

	logrus.Info("exiting")

	return nil
}

func setDefault(p engine.Params, name string, v float64) {
	if _, ok := p[name]; !ok {
		p[name] = v
	}
}

// processor adapts the engine to the device callback.
type processor struct {
	mu     sync.Mutex
	engine *engine.Engine
	bufs   [][]float64
	view   [][]float64
}

func newProcessor(e *engine.Engine, block int) *processor {
	p := &processor{
		engine: e,
		bufs:   make([][]float64, e.Channels()),
		view:   make([][]float64, e.Channels()),
	}

	for ch := range p.bufs {
		p.bufs[ch] = make([]float64, block)
	}

	return p
}

// process handles one device period in chunks of at most the block size.
func (p *processor) process(out, in []byte, frameCount uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	nCh := len(p.bufs)
	stride := nCh * bytesPerSample
	block := len(p.bufs[0])

	for start := 0; start < int(frameCount); start += block {
		n := min(block, int(frameCount)-start)
		lo, hi := start*stride, (start+n)*stride

		for ch := range p.bufs {
			p.view[ch] = p.bufs[ch][:n]
			clear(p.view[ch])
		}

		if hi <= len(in) {
			deinterleave(p.view, in[lo:hi])
		}

		p.engine.ProcessBlock(p.view)

		if hi <= len(out) {
			interleave(out[lo:hi], p.view, n)
		}
	}
}

// readControl applies name=value lines from r until EOF.
func readControl(r io.Reader, store *engine.ParamStore) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		name, v, err := cliutil.ParseAssignment(line)
		if err == nil {
			err = store.SetByName(name, v)
		}

		if err != nil {
			logrus.WithError(err).Warn("ignoring control line")
			continue
		}

		logrus.WithFields(logrus.Fields{"param": name, "value": v}).Info("parameter updated")
	}
}
