package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/cwbudde/algo-fshift/dsp/core"
	"github.com/cwbudde/algo-fshift/dsp/effects/modulation"
	"github.com/cwbudde/algo-fshift/dsp/quantize"
	"github.com/cwbudde/algo-fshift/dsp/spectral"
	"github.com/cwbudde/algo-fshift/dsp/window"
)

// ErrUnknownParam is returned for parameter names or IDs that do not exist.
var ErrUnknownParam = errors.New("engine: unknown parameter")

// ParamID identifies a runtime parameter.
type ParamID int

const (
	ParamShiftHz ParamID = iota
	ParamQuantize
	ParamRootNote
	ParamScale
	ParamDryWet
	ParamPhaseVocoder
	ParamMode
	ParamSmearMs
	ParamWindow
	ParamPreserve
	ParamTransientSensitivity
	ParamTransientBypass
	ParamDriftAmount
	ParamDriftRate
	ParamDriftMode
	ParamDriftShape
	ParamDriftSpread
	ParamDriftOctaves
	ParamDriftLacunarity
	ParamDriftPersistence
	ParamMaskEnabled
	ParamMaskMode
	ParamMaskLowHz
	ParamMaskHighHz
	ParamMaskTransition
	ParamSDelayEnabled
	ParamSDelayTimeMs
	ParamSDelaySlope
	ParamSDelayFeedback
	ParamSDelayDamping
	ParamSDelayMix
	ParamSDelayGainDB
	ParamDelayEnabled
	ParamDelayTimeMs
	ParamDelaySync
	ParamFeedback
	ParamDamping
	ParamLFORate
	ParamLFODepthHz
	ParamLFOShape
	ParamLFOSync
	ParamLFOQuantize
	ParamDelayLFORate
	ParamDelayLFODepthMs
	ParamDelayLFOShape
	ParamDelayLFOSync
	ParamWarm
	ParamDecorrelate

	numParams
)

// NumParams is the number of runtime parameters.
const NumParams = int(numParams)

// ParamKind describes how a parameter value is interpreted.
type ParamKind int

const (
	KindFloat ParamKind = iota
	KindBool
	KindChoice
)

// dirty groups parameters whose change needs work on the audio thread
// before the next block.
type dirty uint32

const (
	dirtyReinit dirty = 1 << iota
	dirtyScale
	dirtyMask
	dirtySpectralDelay
	dirtyMode
	dirtyFeedback
)

// ParamSpec documents one parameter.
type ParamSpec struct {
	ID      ParamID
	Name    string
	Kind    ParamKind
	Min     float64
	Max     float64
	Default float64

	dirty dirty
}

var paramSpecs = [numParams]ParamSpec{
	ParamShiftHz:              {Name: "shift_hz", Min: -20000, Max: 20000},
	ParamQuantize:             {Name: "quantize", Max: 1},
	ParamRootNote:             {Name: "root_note", Kind: KindChoice, Max: 11, dirty: dirtyScale},
	ParamScale:                {Name: "scale", Kind: KindChoice, Max: float64(quantize.NumScales - 1), dirty: dirtyScale},
	ParamDryWet:               {Name: "dry_wet", Max: 1, Default: 1},
	ParamPhaseVocoder:         {Name: "phase_vocoder", Kind: KindBool, Max: 1, Default: 1},
	ParamMode:                 {Name: "mode", Kind: KindChoice, Max: 1, Default: float64(ModeSpectral), dirty: dirtyMode},
	ParamSmearMs:              {Name: "smear_ms", Min: 5, Max: 123, Default: 93, dirty: dirtyReinit},
	ParamWindow:               {Name: "window", Kind: KindChoice, Max: 2, dirty: dirtyReinit},
	ParamPreserve:             {Name: "preserve", Max: 1},
	ParamTransientSensitivity: {Name: "transient_sensitivity", Max: 1, Default: 0.5},
	ParamTransientBypass:      {Name: "transient_bypass", Max: 1},
	ParamDriftAmount:          {Name: "drift_amount", Max: 1},
	ParamDriftRate:            {Name: "drift_rate", Min: 0.01, Max: 20, Default: 1},
	ParamDriftMode:            {Name: "drift_mode", Kind: KindChoice, Max: 1, Default: float64(modulation.DriftPerlin)},
	ParamDriftShape:           {Name: "drift_shape", Kind: KindChoice, Max: 1, Default: float64(modulation.DriftSine)},
	ParamDriftSpread:          {Name: "drift_spread", Max: 1, Default: 0.5},
	ParamDriftOctaves:         {Name: "drift_octaves", Kind: KindChoice, Min: 1, Max: 4, Default: 2},
	ParamDriftLacunarity:      {Name: "drift_lacunarity", Min: 1, Max: 4, Default: 2},
	ParamDriftPersistence:     {Name: "drift_persistence", Max: 1, Default: 0.5},
	ParamMaskEnabled:          {Name: "mask_enabled", Kind: KindBool, Max: 1},
	ParamMaskMode:             {Name: "mask_mode", Kind: KindChoice, Max: 2, Default: float64(spectral.MaskBandPass), dirty: dirtyMask},
	ParamMaskLowHz:            {Name: "mask_low_hz", Min: 20, Max: 20000, Default: 200, dirty: dirtyMask},
	ParamMaskHighHz:           {Name: "mask_high_hz", Min: 20, Max: 20000, Default: 5000, dirty: dirtyMask},
	ParamMaskTransition:       {Name: "mask_transition", Min: 0.05, Max: 4, Default: 1, dirty: dirtyMask},
	ParamSDelayEnabled:        {Name: "sdelay_enabled", Kind: KindBool, Max: 1},
	ParamSDelayTimeMs:         {Name: "sdelay_time_ms", Max: 2000, Default: 200, dirty: dirtySpectralDelay},
	ParamSDelaySlope:          {Name: "sdelay_slope", Min: -100, Max: 100, dirty: dirtySpectralDelay},
	ParamSDelayFeedback:       {Name: "sdelay_feedback", Max: 0.95, Default: 0.3, dirty: dirtySpectralDelay},
	ParamSDelayDamping:        {Name: "sdelay_damping", Max: 100, Default: 30, dirty: dirtySpectralDelay},
	ParamSDelayMix:            {Name: "sdelay_mix", Max: 100, Default: 50, dirty: dirtySpectralDelay},
	ParamSDelayGainDB:         {Name: "sdelay_gain_db", Min: -12, Max: 24, dirty: dirtySpectralDelay},
	ParamDelayEnabled:         {Name: "delay_enabled", Kind: KindBool, Max: 1},
	ParamDelayTimeMs:          {Name: "delay_time_ms", Min: 10, Max: 2000, Default: 250},
	ParamDelaySync:            {Name: "delay_sync", Kind: KindChoice, Max: float64(len(delaySyncQuarterNotes) - 1)},
	ParamFeedback:             {Name: "feedback", Max: 0.95, Default: 0.3},
	ParamDamping:              {Name: "damping", Max: 1, Default: 0.3, dirty: dirtyFeedback},
	ParamLFORate:              {Name: "lfo_rate", Min: 0.01, Max: 20, Default: 1},
	ParamLFODepthHz:           {Name: "lfo_depth_hz", Max: 2000},
	ParamLFOShape:             {Name: "lfo_shape", Kind: KindChoice, Max: float64(modulation.ShapeRandom)},
	ParamLFOSync:              {Name: "lfo_sync", Kind: KindChoice, Max: float64(modulation.SyncThirtySecond)},
	ParamLFOQuantize:          {Name: "lfo_quantize", Kind: KindBool, Max: 1},
	ParamDelayLFORate:         {Name: "dlfo_rate", Min: 0.01, Max: 20, Default: 1},
	ParamDelayLFODepthMs:      {Name: "dlfo_depth_ms", Max: 500},
	ParamDelayLFOShape:        {Name: "dlfo_shape", Kind: KindChoice, Max: float64(modulation.ShapeRandom)},
	ParamDelayLFOSync:         {Name: "dlfo_sync", Kind: KindChoice, Max: float64(modulation.SyncThirtySecond)},
	ParamWarm:                 {Name: "warm", Kind: KindBool, Max: 1},
	ParamDecorrelate:          {Name: "decorrelate", Kind: KindBool, Max: 1},
}

var paramByName = func() map[string]ParamID {
	m := make(map[string]ParamID, numParams)
	for i := range paramSpecs {
		paramSpecs[i].ID = ParamID(i)
		m[paramSpecs[i].Name] = ParamID(i)
	}

	return m
}()

// ParamSpecs returns the parameter table.
func ParamSpecs() []ParamSpec {
	out := make([]ParamSpec, numParams)
	copy(out, paramSpecs[:])

	return out
}

// Lookup returns the ID of a named parameter.
func Lookup(name string) (ParamID, bool) {
	id, ok := paramByName[name]
	return id, ok
}

// Valid reports whether id names a parameter.
func (id ParamID) Valid() bool { return id >= 0 && id < numParams }

func (id ParamID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("ParamID(%d)", int(id))
	}

	return paramSpecs[id].Name
}

// sanitize clamps v into the parameter range and snaps bools and choices.
func (s *ParamSpec) sanitize(v float64) float64 {
	if math.IsNaN(v) {
		return s.Default
	}

	v = core.Clamp(v, s.Min, s.Max)

	switch s.Kind {
	case KindBool:
		if v >= 0.5 {
			return 1
		}

		return 0
	case KindChoice:
		return math.Round(v)
	default:
		return v
	}
}

// Params is a named parameter set, the form used for persistence.
type Params map[string]float64

// ParamStore holds every parameter in its own atomic. Setters may run on
// any goroutine; the audio thread reads a Snapshot once per block and
// consumes the pending update flags.
type ParamStore struct {
	values [numParams]atomic.Uint64
	dirty  atomic.Uint32
}

// NewParamStore returns a store holding the defaults.
func NewParamStore() *ParamStore {
	s := &ParamStore{}
	for i := range paramSpecs {
		s.values[i].Store(math.Float64bits(paramSpecs[i].Default))
	}

	return s
}

// Get returns the current value of id.
func (s *ParamStore) Get(id ParamID) float64 {
	if !id.Valid() {
		return 0
	}

	return math.Float64frombits(s.values[id].Load())
}

// Set clamps v into range and stores it. Changes to parameters that need
// deferred work mark the matching update flag.
func (s *ParamStore) Set(id ParamID, v float64) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownParam, int(id))
	}

	spec := &paramSpecs[id]
	v = spec.sanitize(v)

	old := s.values[id].Swap(math.Float64bits(v))
	if old != math.Float64bits(v) && spec.dirty != 0 {
		s.dirty.Or(uint32(spec.dirty))
	}

	return nil
}

// SetByName sets a parameter by its name.
func (s *ParamStore) SetByName(name string, v float64) error {
	id, ok := paramByName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}

	return s.Set(id, v)
}

// Values exports every parameter by name.
func (s *ParamStore) Values() Params {
	out := make(Params, numParams)
	for i := range paramSpecs {
		out[paramSpecs[i].Name] = s.Get(ParamID(i))
	}

	return out
}

// Load applies a named parameter set. Known names are applied even when
// unknown ones are present; the returned error lists the unknown names.
func (s *ParamStore) Load(p Params) error {
	var unknown []string

	for name, v := range p {
		if err := s.SetByName(name, v); err != nil {
			unknown = append(unknown, name)
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %v", ErrUnknownParam, unknown)
	}

	return nil
}

// takeDirty returns and clears the pending update flags.
func (s *ParamStore) takeDirty() dirty {
	return dirty(s.dirty.Swap(0))
}

// Snapshot is a plain copy of every parameter taken at the start of a
// block.
type Snapshot struct {
	ShiftHz              float64
	Quantize             float64
	RootNote             int
	Scale                quantize.Scale
	DryWet               float64
	PhaseVocoder         bool
	Mode                 Mode
	SmearMs              float64
	Window               window.Type
	Preserve             float64
	TransientSensitivity float64
	TransientBypass      float64
	DriftAmount          float64
	DriftRate            float64
	DriftMode            modulation.DriftMode
	DriftShape           modulation.DriftShape
	DriftSpread          float64
	DriftOctaves         int
	DriftLacunarity      float64
	DriftPersistence     float64

	MaskEnabled    bool
	MaskMode       spectral.MaskMode
	MaskLowHz      float64
	MaskHighHz     float64
	MaskTransition float64

	SDelayEnabled  bool
	SDelayTimeMs   float64
	SDelaySlope    float64
	SDelayFeedback float64
	SDelayDamping  float64
	SDelayMix      float64
	SDelayGainDB   float64

	DelayEnabled bool
	DelayTimeMs  float64
	DelaySync    int
	Feedback     float64
	Damping      float64

	LFORate     float64
	LFODepthHz  float64
	LFOShape    modulation.Shape
	LFOSync     modulation.SyncDivision
	LFOQuantize bool

	DelayLFORate    float64
	DelayLFODepthMs float64
	DelayLFOShape   modulation.Shape
	DelayLFOSync    modulation.SyncDivision

	Warm        bool
	Decorrelate bool
}

// Snapshot copies the current values into dst.
func (s *ParamStore) Snapshot(dst *Snapshot) {
	f := s.Get
	i := func(id ParamID) int { return int(s.Get(id)) }
	b := func(id ParamID) bool { return s.Get(id) >= 0.5 }

	dst.ShiftHz = f(ParamShiftHz)
	dst.Quantize = f(ParamQuantize)
	dst.RootNote = i(ParamRootNote)
	dst.Scale = quantize.Scale(i(ParamScale))
	dst.DryWet = f(ParamDryWet)
	dst.PhaseVocoder = b(ParamPhaseVocoder)
	dst.Mode = Mode(i(ParamMode))
	dst.SmearMs = f(ParamSmearMs)
	dst.Window = window.TypeHann + window.Type(i(ParamWindow))
	dst.Preserve = f(ParamPreserve)
	dst.TransientSensitivity = f(ParamTransientSensitivity)
	dst.TransientBypass = f(ParamTransientBypass)
	dst.DriftAmount = f(ParamDriftAmount)
	dst.DriftRate = f(ParamDriftRate)
	dst.DriftMode = modulation.DriftMode(i(ParamDriftMode))
	dst.DriftShape = modulation.DriftShape(i(ParamDriftShape))
	dst.DriftSpread = f(ParamDriftSpread)
	dst.DriftOctaves = i(ParamDriftOctaves)
	dst.DriftLacunarity = f(ParamDriftLacunarity)
	dst.DriftPersistence = f(ParamDriftPersistence)

	dst.MaskEnabled = b(ParamMaskEnabled)
	dst.MaskMode = spectral.MaskMode(i(ParamMaskMode))
	dst.MaskLowHz = f(ParamMaskLowHz)
	dst.MaskHighHz = f(ParamMaskHighHz)
	dst.MaskTransition = f(ParamMaskTransition)

	dst.SDelayEnabled = b(ParamSDelayEnabled)
	dst.SDelayTimeMs = f(ParamSDelayTimeMs)
	dst.SDelaySlope = f(ParamSDelaySlope)
	dst.SDelayFeedback = f(ParamSDelayFeedback)
	dst.SDelayDamping = f(ParamSDelayDamping)
	dst.SDelayMix = f(ParamSDelayMix)
	dst.SDelayGainDB = f(ParamSDelayGainDB)

	dst.DelayEnabled = b(ParamDelayEnabled)
	dst.DelayTimeMs = f(ParamDelayTimeMs)
	dst.DelaySync = i(ParamDelaySync)
	dst.Feedback = f(ParamFeedback)
	dst.Damping = f(ParamDamping)

	dst.LFORate = f(ParamLFORate)
	dst.LFODepthHz = f(ParamLFODepthHz)
	dst.LFOShape = modulation.Shape(i(ParamLFOShape))
	dst.LFOSync = modulation.SyncDivision(i(ParamLFOSync))
	dst.LFOQuantize = b(ParamLFOQuantize)

	dst.DelayLFORate = f(ParamDelayLFORate)
	dst.DelayLFODepthMs = f(ParamDelayLFODepthMs)
	dst.DelayLFOShape = modulation.Shape(i(ParamDelayLFOShape))
	dst.DelayLFOSync = modulation.SyncDivision(i(ParamDelayLFOSync))

	dst.Warm = b(ParamWarm)
	dst.Decorrelate = b(ParamDecorrelate)
}
