package synth

import "math"

// LFO is a sine low-frequency oscillator. Its phase belongs to the audio
// thread; rate and depth come from the parameter snapshot each sample.
type LFO struct {
	phase float64
}

// Next returns amplitude*sin(phase) and advances the phase by one sample.
func (l *LFO) Next(s LFOSettings, sampleRate float64) float64 {
	v := s.Amplitude * math.Sin(l.phase)
	l.phase = wrapPhase(l.phase + phaseIncrement(s.FrequencyHz, sampleRate))
	return v
}

// Phase returns the current phase in [0, 2π).
func (l *LFO) Phase() float64 {
	return l.phase
}

// Reset zeros the phase.
func (l *LFO) Reset() {
	l.phase = 0
}
