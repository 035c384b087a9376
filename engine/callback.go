// SPDX-License-Identifier: EPL-2.0

package engine

import "github.com/rackworks/outboard/dsp"

// Process is the real-time entry point, invoked by the driver once per
// hardware period with interleaved stereo buffers. It must never
// allocate, block, log, or perform I/O; cross-thread handoff happens
// through the completion flags only.
func (s *Session) Process(out, in []float32, frames int) {
	silence(out)

	switch Mode(s.mode.Load()) {
	case ModeHardwareTest:
		s.runTone(out, frames)
	case ModeMeasuringLatency:
		s.runMeasurement(out, in, frames)
	case ModeProcessing:
		s.runBatch(out, in, frames)
	case ModePreviewing:
		s.runPreview(out, frames)
	}
}

func silence(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

// runTone emits the fixed-frequency test tone through a wrapping phase
// accumulator, held below clipping.
func (s *Session) runTone(out []float32, frames int) {
	if len(out) < frames*stereoChannels {
		return
	}
	for f := 0; f < frames; f++ {
		v := toneAmplitude * s.osc.Next()
		out[f*stereoChannels] = v
		out[f*stereoChannels+1] = v
	}
}

// runMeasurement sends one full-scale impulse on the first period, then
// appends input to the capture buffer and scans each period for the
// returning spike. Timeout is the capture buffer filling up.
func (s *Session) runMeasurement(out, in []float32, frames int) {
	if !s.impulseSent {
		if len(out) >= frames*stereoChannels {
			dsp.WriteImpulse(out[:frames*stereoChannels], stereoChannels, impulseAmplitude)
		}
		s.impulseSent = true
		return
	}

	if len(in) < frames*stereoChannels {
		return
	}

	base := s.latencyCapture.cursor
	space := s.latencyCapture.capFrames() - base
	n := frames
	if n > space {
		n = space
	}
	if n > 0 {
		copy(s.latencyCapture.data[base*stereoChannels:(base+n)*stereoChannels], in[:n*stereoChannels])
		s.latencyCapture.cursor = base + n

		if off := dsp.FindPeak(in[:n*stereoChannels], stereoChannels, s.settings.PeakThreshold); off >= 0 {
			// Capture starts one period after the impulse goes out,
			// while batch recording starts in the same period as
			// playback. Folding the skipped period in here keeps one
			// latency convention across measurement and trimming.
			s.latencyFrames = s.periodFrames + base + off
			s.mode.Store(int32(ModeIdle))
			s.measurementDone.Store(true)
			return
		}
	}

	if s.latencyCapture.cursor >= s.latencyCapture.capFrames() {
		s.latencyFrames = -1
		s.mode.Store(int32(ModeIdle))
		s.measurementDone.Store(true)
	}
}

// runBatch drives the Playing/Gap sub-states of batch processing.
func (s *Session) runBatch(out, in []float32, frames int) {
	if s.saveFile.Load() {
		// Holding: the handler is saving and re-arming.
		return
	}

	if !s.inGap {
		// Playing: send the source, keep capturing the return. Output
		// goes silent once the source is exhausted while the recording
		// cursor runs on to the precomputed target.
		if len(out) >= frames*stereoChannels {
			n := s.playback.remaining()
			if n > frames {
				n = frames
			}
			if n > 0 {
				from := s.playback.cursor * stereoChannels
				copy(out[:n*stereoChannels], s.playback.data[from:from+n*stereoChannels])
				s.playback.cursor += n
			}
		}

		s.recordInput(in, frames)

		if s.recording.cursor >= s.recordTarget {
			s.inGap = true
			s.gapRemaining = s.gapFrames()
		}
		return
	}

	// Gap: silence out, capture any remaining tail. In reverb mode the
	// countdown only runs while the input has decayed under the noise
	// floor margin; a tail that never decays is bounded by capacity and
	// flagged as an overrun later.
	captured := s.recordInput(in, frames)

	quiet := true
	if s.settings.ReverbTail && s.measurement.HasNoiseFloor && captured > 0 {
		quiet = dsp.BelowNoiseFloor(in[:captured*stereoChannels],
			s.measurement.NoiseFloorDB, s.settings.MarginPercent)
	}

	if quiet || s.recording.cursor >= s.recording.capFrames() {
		s.gapRemaining -= frames
	}
	if s.gapRemaining <= 0 {
		s.saveFile.Store(true)
	}
}

// recordInput appends one period of input to the recording buffer,
// clamped to capacity. Returns the number of frames written; a missing
// input side is a no-op.
func (s *Session) recordInput(in []float32, frames int) int {
	if len(in) < frames*stereoChannels {
		return 0
	}
	base := s.recording.cursor
	space := s.recording.capFrames() - base
	n := frames
	if n > space {
		n = space
	}
	if n <= 0 {
		return 0
	}
	copy(s.recording.data[base*stereoChannels:(base+n)*stereoChannels], in[:n*stereoChannels])
	s.recording.cursor = base + n
	return n
}

// runPreview is the playback-only mirror of runBatch: Playing then Gap,
// then a load-next handoff instead of a save.
func (s *Session) runPreview(out []float32, frames int) {
	if s.loadNext.Load() {
		return
	}

	if !s.inGap {
		if len(out) >= frames*stereoChannels {
			n := s.playback.remaining()
			if n > frames {
				n = frames
			}
			if n > 0 {
				from := s.playback.cursor * stereoChannels
				copy(out[:n*stereoChannels], s.playback.data[from:from+n*stereoChannels])
				s.playback.cursor += n
			}
		}
		if s.playback.remaining() == 0 {
			s.inGap = true
			s.gapRemaining = s.gapFrames()
		}
		return
	}

	s.gapRemaining -= frames
	if s.gapRemaining <= 0 {
		s.loadNext.Store(true)
	}
}
