package synth

import "math"

const (
	ClipThreshold = 0.6  // Threshold where soft clipping begins
	ClipHardLimit = 0.85 // Maximum amplitude after clipping
)

// GainRamp moves the master gain linearly toward a target.
type GainRamp struct {
	current float64
	target  float64
	step    float64
	ramping bool
}

// NewGainRamp creates a ramp resting at gain, clamped to [0,1].
func NewGainRamp(gain float64) GainRamp {
	g := clamp01(gain)
	return GainRamp{current: g, target: g}
}

// Request starts a ramp of delta over periodMs. The target is clamped to
// [0,1]; the step is delta spread over the period, so a clamped target is
// simply reached early.
func (g *GainRamp) Request(delta, periodMs, sampleRate float64) {
	g.target = clamp01(g.current + delta)
	g.step = delta / stepSamples(periodMs, sampleRate)
	g.ramping = g.step != 0 && g.target != g.current
	if !g.ramping {
		g.step = 0
	}
}

// Next advances the ramp by one sample and returns the gain to apply.
func (g *GainRamp) Next() float64 {
	if g.ramping {
		next := g.current + g.step
		if (g.step > 0 && next >= g.target) || (g.step < 0 && next <= g.target) {
			g.current = g.target
			g.ramping = false
		} else {
			g.current = next
		}
	}
	return g.current
}

// Current returns the gain without advancing.
func (g *GainRamp) Current() float64 { return g.current }

// Target returns the gain the ramp is heading to.
func (g *GainRamp) Target() float64 { return g.target }

// Ramping reports whether a ramp is in progress.
func (g *GainRamp) Ramping() bool { return g.ramping }

// SoftClip applies soft clipping to prevent harsh distortion
func SoftClip(sample float64) float64 {
	if math.Abs(sample) > ClipThreshold {
		// Calculate how much the signal exceeds the threshold
		excess := math.Abs(sample) - ClipThreshold

		// Apply progressively stronger compression as the signal gets louder
		compressionFactor := 1.0 - math.Min(1.0, excess/(ClipHardLimit-ClipThreshold))

		sign := 1.0
		if sample < 0 {
			sign = -1.0
		}
		return sign * (ClipThreshold + excess*compressionFactor)
	}
	return sample
}

// hardClip limits a sample to the [-1,1] output range.
func hardClip(sample float64) float64 {
	switch {
	case sample > 1:
		return 1
	case sample < -1:
		return -1
	default:
		return sample
	}
}
