// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/rackworks/outboard/dsp"
)

// Resampler streams from src to a target sample rate using cubic
// interpolation over a four-frame window. It preserves channel count
// and applies a simple one-pole low-pass when downsampling.
//
// The batch path never uses this (mismatched rates are rejected before
// processing); preview playback does, so arbitrary-rate files can still
// be auditioned at the session rate.
type Resampler struct {
	src      Source
	dstRate  int
	step     float64 // source frames advanced per output frame
	channels int

	// window[0] = t-1, window[1] = t0, window[2] = t+1, window[3] = t+2
	window [4][]float32
	have   [4]bool
	primed bool

	pos    float64 // fractional position between window[1] and window[2]
	srcBuf []float32
	eof    bool

	filterOn    bool
	filterAlpha float32
	filterState []float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	step := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:      src,
		dstRate:  dstRate,
		step:     step,
		channels: channels,
		srcBuf:   make([]float32, channels),
		// One-pole low-pass only matters when decimating
		filterOn:    step > 1.0,
		filterAlpha: 0.5,
		filterState: make([]float32, channels),
	}

	for i := range r.window {
		r.window[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }

func (r *Resampler) Close() error {
	err := r.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// shift moves the window one frame forward, reading the next source
// frame into the last slot.
func (r *Resampler) shift() error {
	if r.eof {
		return io.EOF
	}

	copy(r.window[0], r.window[1])
	copy(r.window[1], r.window[2])
	copy(r.window[2], r.window[3])
	r.have[0] = r.have[1]
	r.have[1] = r.have[2]
	r.have[2] = r.have[3]

	n, err := r.src.ReadSamples(r.srcBuf)
	if n > 0 {
		copy(r.window[3], r.srcBuf[:n])
		r.have[3] = true
		r.filter(r.window[3])
	} else {
		r.have[3] = false
	}

	if err == io.EOF {
		r.eof = true
		if !r.have[3] {
			return io.EOF
		}
	} else if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (r *Resampler) filter(frame []float32) {
	if !r.filterOn {
		return
	}
	for c := 0; c < r.channels; c++ {
		frame[c] = r.filterAlpha*frame[c] + (1-r.filterAlpha)*r.filterState[c]
		r.filterState[c] = frame[c]
	}
}

func (r *Resampler) prime() error {
	for i := 0; i < 4; i++ {
		n, err := r.src.ReadSamples(r.srcBuf)
		if n > 0 {
			copy(r.window[i], r.srcBuf[:n])
			r.have[i] = true
			if i == 0 && r.filterOn {
				copy(r.filterState, r.srcBuf[:n])
			}
		}
		if err == io.EOF {
			r.eof = true
			if i == 0 {
				return io.EOF
			}
			// Duplicate the last valid frame into the remaining slots
			for j := i; j < 4; j++ {
				copy(r.window[j], r.window[i-1])
				r.have[j] = true
			}
			break
		} else if err != nil {
			return fmt.Errorf("%w", err)
		}
	}
	r.primed = true
	return nil
}

// ReadSamples produces samples at the target rate. dst length must be a
// multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	framesWanted := len(dst) / r.channels

	for written < framesWanted {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.shift(); err != nil {
				if err == io.EOF {
					if written == 0 {
						return 0, io.EOF
					}
					return written * r.channels, io.EOF
				}
				return written * r.channels, err
			}
		}

		if !r.have[1] || !r.have[2] {
			if written == 0 {
				return 0, io.EOF
			}
			return written * r.channels, io.EOF
		}

		x := float32(r.pos)
		for c := 0; c < r.channels; c++ {
			y0 := r.window[1][c]
			if r.have[0] {
				y0 = r.window[0][c]
			}
			y3 := r.window[2][c]
			if r.have[3] {
				y3 = r.window[3][c]
			}

			dst[written*r.channels+c] = dsp.CubicInterpolate(y0, r.window[1][c], r.window[2][c], y3, x)
		}

		written++
		r.pos += r.step
	}

	return written * r.channels, nil
}
