package synth

// Stage is a voice's position in the ADSR envelope.
type Stage uint8

const (
	StageAttack Stage = iota
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

// levelEpsilon absorbs the rounding left over after summing a linear ramp
// n times, so a segment ends after n steps rather than n+1.
const levelEpsilon = 1e-9

// stepSamples converts a duration to a sample count, never less than one.
func stepSamples(ms, sampleRate float64) float64 {
	n := sampleRate * ms / 1000
	if !(n >= 1) { // also catches NaN
		return 1
	}
	return n
}

// attack (re)enters the attack stage from the voice's current amplitude.
func (v *Voice) attack(peak float64, env *Envelope, sampleRate float64) {
	if peak < v.amplitude {
		peak = v.amplitude
	}
	v.peak = peak
	v.stage = StageAttack
	v.keyHeld = true
	v.done = false
	v.step = (peak - v.amplitude) / stepSamples(env.AttackMs, sampleRate)
}

// release enters the release stage, ramping from the current amplitude to
// zero over the release time.
func (v *Voice) release(env *Envelope, sampleRate float64) {
	v.keyHeld = false
	if v.stage == StageRelease {
		return
	}
	v.stage = StageRelease
	v.step = -v.amplitude / stepSamples(env.ReleaseMs, sampleRate)
	if v.amplitude <= 0 {
		v.done = true
	}
}

// tick advances the envelope by one sample and returns the new amplitude.
func (v *Voice) tick(env *Envelope, sampleRate float64) float64 {
	switch v.stage {
	case StageAttack:
		v.amplitude += v.step
		if v.amplitude+levelEpsilon >= v.peak {
			v.amplitude = v.peak
			v.stage = StageDecay
			v.target = v.peak * clamp01(env.Sustain)
			v.step = (v.target - v.peak) / stepSamples(env.DecayMs, sampleRate)
		}
	case StageDecay:
		v.amplitude += v.step
		if v.amplitude-levelEpsilon <= v.target {
			v.amplitude = v.target
			v.stage = StageSustain
			v.step = 0
		}
	case StageSustain:
		if !v.keyHeld {
			v.release(env, sampleRate)
		}
	case StageRelease:
		if v.done {
			break
		}
		v.amplitude += v.step
		if v.amplitude-levelEpsilon <= 0 {
			v.amplitude = 0
			v.step = 0
			v.done = true
		}
	}
	return v.amplitude
}

func clamp01(x float64) float64 {
	switch {
	case x > 1:
		return 1
	case x >= 0:
		return x
	default: // negative or NaN
		return 0
	}
}
