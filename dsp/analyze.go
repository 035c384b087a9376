// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// rmsFloor keeps log10 away from -Inf on silent buffers.
const rmsFloor = 1e-6

// FindPeak scans an interleaved buffer for the single largest-magnitude
// sample and returns its frame offset, or -1 when that magnitude does
// not exceed threshold. The scan order is fixed, so the first occurrence
// of the maximum wins.
func FindPeak(buf []float32, channels int, threshold float32) int {
	if channels <= 0 {
		return -1
	}

	var maxValue float32
	maxIndex := -1

	for i, v := range buf {
		if v < 0 {
			v = -v
		}
		if v > maxValue {
			maxValue = v
			maxIndex = i
		}
	}

	if maxIndex < 0 || maxValue <= threshold {
		return -1
	}

	return maxIndex / channels
}

// RMS returns the root mean square over all samples of an interleaved
// buffer. An empty buffer has RMS 0.
func RMS(buf []float32) float64 {
	if len(buf) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range buf {
		sum += float64(v) * float64(v)
	}

	return math.Sqrt(sum / float64(len(buf)))
}

// DB returns the buffer level as 20*log10(RMS), floored so silence maps
// to a large negative number instead of -Inf.
func DB(buf []float32) float64 {
	return 20 * math.Log10(math.Max(RMS(buf), rmsFloor))
}

// BelowNoiseFloor reports whether a window has decayed under the
// measured noise floor plus margin. The margin scales the floor value
// itself: floor -96 dB at 10% gives a threshold of -105.6 dB, so a
// larger margin demands a quieter tail before recording stops.
func BelowNoiseFloor(window []float32, noiseFloorDB, marginPercent float64) bool {
	threshold := noiseFloorDB + noiseFloorDB*marginPercent/100.0
	return DB(window) < threshold
}

// RemoveDCOffset subtracts each channel's mean in place. Outboard gear
// with transformer outputs routinely leaves a few millivolts of offset
// on the captured signal.
func RemoveDCOffset(buf []float32, channels int) {
	if channels <= 0 || len(buf) < channels {
		return
	}
	frames := len(buf) / channels

	for c := 0; c < channels; c++ {
		sum := 0.0
		for f := 0; f < frames; f++ {
			sum += float64(buf[f*channels+c])
		}
		offset := float32(sum / float64(frames))

		for f := 0; f < frames; f++ {
			buf[f*channels+c] -= offset
		}
	}
}
