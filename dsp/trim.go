// SPDX-License-Identifier: EPL-2.0

package dsp

// Trim extracts targetFrames frames from an interleaved capture,
// skipping latencyFrames of round-trip delay at the front. The result
// always has exactly targetFrames frames: shortfalls are zero-filled
// and a negative offset is clamped to zero, because by the time this
// runs the audio has already been through the hardware and the rest of
// the batch must proceed.
//
// Latency is a frame count here and everywhere else in the module;
// callers must not pre-multiply by channel count.
func Trim(captured []float32, channels, latencyFrames, targetFrames int) []float32 {
	if channels <= 0 || targetFrames <= 0 {
		return nil
	}
	if latencyFrames < 0 {
		latencyFrames = 0
	}

	capturedFrames := len(captured) / channels
	out := make([]float32, targetFrames*channels)

	copyFrames := targetFrames
	if latencyFrames+copyFrames > capturedFrames {
		copyFrames = capturedFrames - latencyFrames
	}
	if copyFrames <= 0 {
		return out
	}

	copy(out, captured[latencyFrames*channels:(latencyFrames+copyFrames)*channels])
	return out
}
