package synth

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
)

const (
	// DefaultQ gives a maximally flat (Butterworth) response.
	DefaultQ = 1 / math.Sqrt2
	// MinQ is the floor applied to non-positive Q values.
	MinQ = 1e-3

	minOmega = 1e-6
	maxOmega = math.Pi - 1e-6
)

// LowpassCoefficients derives the RBJ cookbook low-pass biquad for angular
// frequency omega (radians per sample), normalized so a0 = 1.
func LowpassCoefficients(omega, q float64) biquad.Coefficients {
	if !(q > 0) {
		q = MinQ
	}
	switch {
	case !(omega >= minOmega):
		omega = minOmega
	case omega > maxOmega:
		omega = maxOmega
	}
	sin, cos := math.Sincos(omega)
	alpha := sin / (2 * q)

	a0 := 1 + alpha
	b1 := 1 - cos
	return biquad.Coefficients{
		B0: b1 / 2 / a0,
		B1: b1 / a0,
		B2: b1 / 2 / a0,
		A1: -2 * cos / a0,
		A2: (1 - alpha) / a0,
	}
}

// Filter is a direct form I biquad low-pass with its own sample history.
type Filter struct {
	coeffs biquad.Coefficients

	x1, x2 float64
	y1, y2 float64

	// settings the current coefficients were designed from
	cutoffHz, q, mod float64
	designed         bool
}

// Design recomputes the coefficients for cutoffHz and q, with the angular
// cutoff scaled by (1 + mod). It does nothing when the inputs match the
// previous design.
func (f *Filter) Design(cutoffHz, q, mod, sampleRate float64) {
	if f.designed && cutoffHz == f.cutoffHz && q == f.q && mod == f.mod {
		return
	}
	omega := twoPi * cutoffHz / sampleRate
	omega += mod * omega
	f.coeffs = LowpassCoefficients(omega, q)
	f.cutoffHz, f.q, f.mod = cutoffHz, q, mod
	f.designed = true
}

// Coefficients returns the coefficients currently in use.
func (f *Filter) Coefficients() biquad.Coefficients {
	return f.coeffs
}

// Process filters one sample.
func (f *Filter) Process(x float64) float64 {
	c := &f.coeffs
	y := c.B0*x + c.B1*f.x1 + c.B2*f.x2 - c.A1*f.y1 - c.A2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// Reset clears the sample history.
func (f *Filter) Reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}
