// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// Oscillator is a wrapping phase accumulator producing a fixed-frequency
// sine. Next is allocation-free so it can run inside a hardware period
// callback.
type Oscillator struct {
	phase float64
	inc   float64
}

// NewOscillator returns an oscillator at freq Hz for the given sample
// rate, starting at phase zero.
func NewOscillator(freq, sampleRate float64) Oscillator {
	return Oscillator{inc: 2 * math.Pi * freq / sampleRate}
}

// Next returns the next sample and advances the phase.
func (o *Oscillator) Next() float32 {
	v := float32(math.Sin(o.phase))
	o.phase += o.inc
	if o.phase >= 2*math.Pi {
		o.phase -= 2 * math.Pi
	}
	return v
}

// Reset rewinds the phase to zero.
func (o *Oscillator) Reset() {
	o.phase = 0
}

// WriteImpulse clears an interleaved buffer and puts a single
// full-amplitude sample on every channel of frame 0.
func WriteImpulse(buf []float32, channels int, amplitude float32) {
	for i := range buf {
		buf[i] = 0
	}
	for c := 0; c < channels && c < len(buf); c++ {
		buf[c] = amplitude
	}
}

// CubicInterpolate evaluates a Catmull-Rom spline at fractional
// position x (0 <= x <= 1) between y1 and y2, with y0 and y3 as the
// outer support points.
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return a0*x*x*x + a1*x*x + a2*x + a3
}
