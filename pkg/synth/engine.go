package synth

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

const (
	SampleRate      = 44100 // Nominal output sample rate
	FramesPerBuffer = 256   // Nominal frames per device callback
	MaxVelocity     = 255   // Velocity that maps to full peak amplitude
	QueueCapacity   = 1024  // Note events buffered between renders
	InitialGain     = 0.5   // Master gain before any ramp request
)

var (
	ErrInvalidSampleRate    = errors.New("sample rate must be positive")
	ErrInvalidBufferSize    = errors.New("frames per buffer must be positive")
	ErrInvalidQueueCapacity = errors.New("queue capacity must be positive")
	ErrInvalidVelocity      = errors.New("max velocity must be positive")
)

// Config fixes the engine's rate, sizes and which optional subsystems run.
type Config struct {
	SampleRate      float64
	FramesPerBuffer int
	MaxVelocity     float64
	QueueCapacity   int
	InitialGain     float64

	Waveforms bool // blend sine, saw and square; pure sine when off
	Filter    bool
	VolumeLFO bool
	CutoffLFO bool
	SoftClip  bool
}

// DefaultConfig returns the nominal configuration with every subsystem on.
func DefaultConfig() Config {
	return Config{
		SampleRate:      SampleRate,
		FramesPerBuffer: FramesPerBuffer,
		MaxVelocity:     MaxVelocity,
		QueueCapacity:   QueueCapacity,
		InitialGain:     InitialGain,
		Waveforms:       true,
		Filter:          true,
		VolumeLFO:       true,
		CutoffLFO:       true,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0):
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, c.SampleRate)
	case c.FramesPerBuffer <= 0:
		return fmt.Errorf("%w: %d", ErrInvalidBufferSize, c.FramesPerBuffer)
	case c.QueueCapacity <= 0:
		return fmt.Errorf("%w: %d", ErrInvalidQueueCapacity, c.QueueCapacity)
	case !(c.MaxVelocity > 0):
		return fmt.Errorf("%w: %v", ErrInvalidVelocity, c.MaxVelocity)
	}
	return nil
}

// Stats are counters a collaborator can poll from outside the audio thread.
type Stats struct {
	Buffers       uint64
	Frames        uint64
	ActiveVoices  int
	EventsApplied uint64
	EventsDropped uint64
	Ignored       uint64 // note ids outside 0..255
	VoicesFreed   uint64
	Gain          float64
}

// Engine is a polyphonic synthesizer. The control methods may be called from
// any goroutine; RenderBlock must only be called from the audio callback.
type Engine struct {
	cfg Config

	// control side
	ctl     sync.Mutex // serializes producers; never taken by RenderBlock
	params  *ParamStore
	events  *EventQueue
	ignored atomic.Uint64

	// audio side
	voices    VoiceTable
	volumeLFO LFO
	cutoffLFO LFO
	filter    Filter
	gain      GainRamp
	snapshot  *Params

	// published by the audio side for Stats
	buffers     atomic.Uint64
	frames      atomic.Uint64
	applied     atomic.Uint64
	freed       atomic.Uint64
	activeCount atomic.Int64
	gainBits    atomic.Uint64
}

// NewEngine creates an engine with DefaultParams.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		params: NewParamStore(DefaultParams()),
		events: NewEventQueue(cfg.QueueCapacity),
		gain:   NewGainRamp(cfg.InitialGain),
	}
	e.gainBits.Store(math.Float64bits(e.gain.Current()))
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Params returns the most recently published parameter snapshot.
func (e *Engine) Params() Params {
	return *e.params.Load()
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Buffers:       e.buffers.Load(),
		Frames:        e.frames.Load(),
		ActiveVoices:  int(e.activeCount.Load()),
		EventsApplied: e.applied.Load(),
		EventsDropped: e.events.Dropped(),
		Ignored:       e.ignored.Load(),
		VoicesFreed:   e.freed.Load(),
		Gain:          math.Float64frombits(e.gainBits.Load()),
	}
}

// Voice returns the voice for id. It reads audio-thread state, so it is only
// safe while RenderBlock is not running (tests, offline rendering).
func (e *Engine) Voice(id int) (Voice, bool) {
	if id < 0 || id >= NumNotes {
		return Voice{}, false
	}
	return e.voices.Get(uint8(id))
}

// ActiveVoices returns the number of allocated voices. Like Voice, it is
// only safe between renders.
func (e *Engine) ActiveVoices() int {
	return e.voices.Len()
}

func (e *Engine) push(ev Event) {
	e.ctl.Lock()
	e.events.Push(ev)
	e.ctl.Unlock()
}

func validNote(id int) bool {
	return id >= 0 && id < NumNotes
}

// NoteOn queues a note start. Ids outside 0..255 are ignored; velocity is
// clamped to 0..255.
func (e *Engine) NoteOn(id, velocity int) {
	if !validNote(id) {
		e.ignored.Add(1)
		return
	}
	velocity = min(max(velocity, 0), 255)
	e.push(Event{Kind: EventNoteOn, Note: uint8(id), Velocity: uint8(velocity)})
}

// NoteOff queues a note release. Ids outside 0..255 are ignored.
func (e *Engine) NoteOff(id int) {
	if !validNote(id) {
		e.ignored.Add(1)
		return
	}
	e.push(Event{Kind: EventNoteOff, Note: uint8(id)})
}

// AllNotesOff releases every sounding voice.
func (e *Engine) AllNotesOff() {
	e.push(Event{Kind: EventAllNotesOff})
}

// SetGain ramps the master gain by delta (clamped to [-1,1]) over periodMs.
func (e *Engine) SetGain(delta, periodMs float64) {
	if math.IsNaN(delta) {
		return
	}
	delta = min(max(delta, -1), 1)
	e.push(Event{Kind: EventGainRamp, Delta: delta, PeriodMs: nonNegative(periodMs)})
}

func (e *Engine) update(fn func(p *Params)) {
	e.ctl.Lock()
	e.params.Update(fn)
	e.ctl.Unlock()
}

func nonNegative(x float64) float64 {
	if !(x > 0) {
		return 0
	}
	return x
}

// SetEnvelope publishes a new ADSR shape. It applies to stage transitions
// from the next buffer on.
func (e *Engine) SetEnvelope(attackMs, decayMs, sustain, releaseMs float64) {
	env := Envelope{
		AttackMs:  nonNegative(attackMs),
		DecayMs:   nonNegative(decayMs),
		Sustain:   clamp01(sustain),
		ReleaseMs: nonNegative(releaseMs),
	}
	e.update(func(p *Params) { p.Envelope = env })
}

// SetVolumeLFO configures the tremolo LFO.
func (e *Engine) SetVolumeLFO(frequencyHz, amplitude float64) {
	s := LFOSettings{FrequencyHz: nonNegative(frequencyHz), Amplitude: finite(amplitude)}
	e.update(func(p *Params) { p.VolumeLFO = s })
}

// SetCutoffLFO configures the LFO that sweeps the filter cutoff.
func (e *Engine) SetCutoffLFO(frequencyHz, amplitude float64) {
	s := LFOSettings{FrequencyHz: nonNegative(frequencyHz), Amplitude: finite(amplitude)}
	e.update(func(p *Params) { p.CutoffLFO = s })
}

// SetWaveformMix sets the oscillator weights. Each weight is clamped to
// [0,1]; callers are expected to keep the sum at most 1 (see NormalizeMix).
func (e *Engine) SetWaveformMix(wSin, wSaw, wSquare float64) {
	m := clampMix(Mix{Sin: wSin, Saw: wSaw, Square: wSquare})
	e.update(func(p *Params) { p.Mix = m })
}

// SetFilter sets the low-pass cutoff and resonance. Q <= 0 is clamped to
// MinQ when the coefficients are computed.
func (e *Engine) SetFilter(cutoffHz, q float64) {
	f := FilterSettings{CutoffHz: nonNegative(cutoffHz), Q: q}
	e.update(func(p *Params) { p.Filter = f })
}

// SetKeyFrequencyMap replaces the note id to frequency table. It applies to
// voices started (or re-struck) after the next buffer boundary.
func (e *Engine) SetKeyFrequencyMap(m KeyMap) {
	for i, f := range m {
		m[i] = min(nonNegative(f), e.cfg.SampleRate/2)
	}
	e.update(func(p *Params) { p.Keys = &m })
}

// Publish replaces the whole parameter snapshot at once.
func (e *Engine) Publish(p Params) {
	e.ctl.Lock()
	e.params.Publish(p)
	e.ctl.Unlock()
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// applyEvent runs on the audio thread at a buffer boundary.
func (e *Engine) applyEvent(ev Event) {
	sr := e.cfg.SampleRate
	env := &e.snapshot.Envelope
	switch ev.Kind {
	case EventNoteOn:
		peak := float64(ev.Velocity) / e.cfg.MaxVelocity
		e.voices.NoteOn(ev.Note, clamp01(peak), e.snapshot.Keys[ev.Note], env, sr)
	case EventNoteOff:
		e.voices.NoteOff(ev.Note, env, sr)
	case EventAllNotesOff:
		e.voices.ReleaseAll(env, sr)
	case EventGainRamp:
		e.gain.Request(ev.Delta, ev.PeriodMs, sr)
	}
}

// RenderBlock fills out with interleaved stereo frames and returns the
// number of frames written. It never blocks, locks or allocates.
func (e *Engine) RenderBlock(out []float32) int {
	frames := len(out) / 2
	sr := e.cfg.SampleRate

	e.snapshot = e.params.Load()
	p := e.snapshot
	applied := e.events.Drain(e.applyEvent)

	mix := Mix{Sin: 1}
	if e.cfg.Waveforms {
		mix = p.Mix
	}
	volumeLFO := e.cfg.VolumeLFO && p.VolumeLFO.Active()
	cutoffLFO := e.cfg.Filter && e.cfg.CutoffLFO && p.CutoffLFO.Active()
	if e.cfg.Filter && !cutoffLFO {
		e.filter.Design(p.Filter.CutoffHz, p.Filter.Q, 0, sr)
	}

	env := &p.Envelope
	for i := 0; i < frames; i++ {
		var sample float64
		for j := 0; j < e.voices.n; j++ {
			v := &e.voices.slots[e.voices.active[j]].voice
			amp := v.tick(env, sr)
			sample += amp * Waveform(mix, v.phase)
			v.phase = wrapPhase(v.phase + phaseIncrement(v.frequency, sr))
		}

		if volumeLFO {
			sample *= 1 + e.volumeLFO.Next(p.VolumeLFO, sr)
		}

		if e.cfg.Filter {
			if cutoffLFO {
				e.filter.Design(p.Filter.CutoffHz, p.Filter.Q, e.cutoffLFO.Next(p.CutoffLFO, sr), sr)
			}
			sample = e.filter.Process(sample)
		}

		sample *= e.gain.Next()

		if e.cfg.SoftClip {
			sample = SoftClip(sample)
		}
		s := float32(hardClip(sample))
		out[2*i] = s
		out[2*i+1] = s
	}

	freed := e.voices.Sweep()

	e.buffers.Add(1)
	e.frames.Add(uint64(frames))
	e.applied.Add(uint64(applied))
	e.freed.Add(uint64(freed))
	e.activeCount.Store(int64(e.voices.Len()))
	e.gainBits.Store(math.Float64bits(e.gain.Current()))
	return frames
}
