package synth

import "math"

const twoPi = 2 * math.Pi

// Sawtooth ramps from -2 to 2 across one cycle of phase in [0, 2π).
func Sawtooth(phase float64) float64 {
	return (2 / math.Pi) * (phase - math.Pi)
}

// Square is 1 for the first half of the cycle and -1 for the second.
func Square(phase float64) float64 {
	if phase < math.Pi {
		return 1
	}
	return -1
}

// Waveform returns the weighted blend of sine, sawtooth and square at the
// given phase. All three share the same phase so they stay locked.
func Waveform(m Mix, phase float64) float64 {
	return m.Sin*math.Sin(phase) + m.Saw*Sawtooth(phase) + m.Square*Square(phase)
}

// phaseIncrement returns the per-sample phase advance for frequency.
func phaseIncrement(frequency, sampleRate float64) float64 {
	return twoPi * frequency / sampleRate
}

// wrapPhase folds phase back into [0, 2π).
func wrapPhase(phase float64) float64 {
	if phase >= twoPi || phase < 0 {
		phase = math.Mod(phase, twoPi)
		if phase < 0 {
			phase += twoPi
		}
		// Mod of a value a hair below a multiple of 2π can round up to 2π.
		if phase >= twoPi {
			phase = 0
		}
	}
	return phase
}

// clampMix limits each weight to [0,1] without renormalizing.
func clampMix(m Mix) Mix {
	return Mix{Sin: clamp01(m.Sin), Saw: clamp01(m.Saw), Square: clamp01(m.Square)}
}
