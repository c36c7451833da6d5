package synth

import (
	"math"
	"sync/atomic"
)

// NumNotes is the size of the note identity space (ids 0..255).
const NumNotes = 256

// KeyMap maps every note id to an oscillator frequency in Hz.
type KeyMap [NumNotes]float64

// Envelope is the global ADSR shape shared by all voices.
type Envelope struct {
	AttackMs  float64
	DecayMs   float64
	Sustain   float64 // level in [0,1], relative to a voice's peak
	ReleaseMs float64
}

// LFOSettings configures one low-frequency oscillator.
type LFOSettings struct {
	FrequencyHz float64
	Amplitude   float64
}

// Active reports whether the LFO has any effect.
func (l LFOSettings) Active() bool {
	return l.FrequencyHz != 0 && l.Amplitude != 0
}

// FilterSettings configures the low-pass filter.
type FilterSettings struct {
	CutoffHz float64
	Q        float64
}

// Mix holds the oscillator waveform weights.
type Mix struct {
	Sin    float64
	Saw    float64
	Square float64
}

// Params is an immutable snapshot of every control-thread setting. A
// published *Params is never modified again.
type Params struct {
	Envelope  Envelope
	VolumeLFO LFOSettings
	CutoffLFO LFOSettings
	Mix       Mix
	Filter    FilterSettings
	Keys      *KeyMap
}

// DefaultParams returns the settings a new engine starts with.
func DefaultParams() Params {
	keys := DefaultKeyMap()
	return Params{
		Envelope: Envelope{AttackMs: 10, DecayMs: 100, Sustain: 0.7, ReleaseMs: 200},
		Mix:      Mix{Sin: 1},
		Filter:   FilterSettings{CutoffHz: 20000, Q: DefaultQ},
		Keys:     &keys,
	}
}

// MIDINoteToFreq converts a note number to an equal-tempered frequency
// with note 69 at 440 Hz.
func MIDINoteToFreq(note uint8) float64 {
	return 440.0 * math.Pow(2, (float64(note)-69.0)/12.0)
}

// DefaultKeyMap returns an equal-tempered map over all note ids.
func DefaultKeyMap() KeyMap {
	var m KeyMap
	for i := range m {
		m[i] = MIDINoteToFreq(uint8(i))
	}
	return m
}

// ParamStore publishes Params snapshots from the control side to the audio
// thread. Load is wait-free; Publish replaces the snapshot atomically so a
// reader sees either the old or the new value, never a mix.
type ParamStore struct {
	current atomic.Pointer[Params]
}

// NewParamStore creates a store holding a copy of p.
func NewParamStore(p Params) *ParamStore {
	s := &ParamStore{}
	s.Publish(p)
	return s
}

// Load returns the current snapshot. Callers must not modify it.
func (s *ParamStore) Load() *Params {
	return s.current.Load()
}

// Publish stores a copy of p as the new snapshot.
func (s *ParamStore) Publish(p Params) {
	if p.Keys == nil {
		keys := DefaultKeyMap()
		p.Keys = &keys
	}
	s.current.Store(&p)
}

// Update publishes the result of applying fn to a copy of the current
// snapshot. It is a read-modify-write, so concurrent writers must serialize
// among themselves; Engine does that with its control mutex.
func (s *ParamStore) Update(fn func(p *Params)) {
	next := *s.current.Load()
	fn(&next)
	s.Publish(next)
}

// NormalizeMix scales the weights so they sum to at most 1. Negative
// weights become 0. The engine never renormalizes; control-side callers
// that let users edit weights independently use this before SetWaveformMix.
func NormalizeMix(m Mix) Mix {
	m.Sin = math.Max(0, m.Sin)
	m.Saw = math.Max(0, m.Saw)
	m.Square = math.Max(0, m.Square)
	sum := m.Sin + m.Saw + m.Square
	if sum <= 1 {
		return m
	}
	return Mix{Sin: m.Sin / sum, Saw: m.Saw / sum, Square: m.Square / sum}
}
