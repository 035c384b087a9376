// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rackworks/outboard/audio"
	"github.com/rackworks/outboard/dsp"
	"github.com/rackworks/outboard/formats/wav"
	"github.com/rackworks/outboard/queue"
)

// tickInterval is the completion-handler poll rate. ~30 Hz keeps
// inter-file pauses imperceptible without touching the real-time path.
const tickInterval = 33 * time.Millisecond

// Run polls the completion handler until the context is canceled.
func (s *Session) Run(ctx context.Context) {
	t := time.NewTicker(tickInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Tick()
		}
	}
}

// Tick is one completion-handler pass. Flags are checked in a fixed
// order; all file I/O, trimming and buffer re-arming happens here,
// never on the real-time path.
func (s *Session) Tick() {
	if s.measurementDone.Load() {
		s.completeMeasurement()
		s.measurementDone.Store(false)
	}

	if s.saveFile.Load() {
		s.completeFile()
	}

	if s.loadNext.Load() {
		s.advancePreview()
	}

	s.reportProgress()
}

// completeMeasurement consumes the callback's measurement handoff:
// persist latency and noise floor, or log the failure sentinel.
func (s *Session) completeMeasurement() {
	lat := s.latencyFrames

	if lat < 0 {
		s.measurement = Measurement{LatencyFrames: -1}
		s.log.Error("Could not detect impulse in captured audio")
		if s.notify.MeasurementComplete != nil {
			s.notify.MeasurementComplete(-1, 0)
		}
		s.latencyCapture.clear()
		return
	}

	floor := dsp.DB(s.latencyCapture.written())
	s.measurement = Measurement{
		LatencyFrames: lat,
		PeriodFrames:  s.periodFrames,
		NoiseFloorDB:  floor,
		HasNoiseFloor: true,
	}

	s.log.WithFields(logrus.Fields{
		"latency_frames": lat,
		"latency_ms":     fmt.Sprintf("%.2f", s.measurement.Milliseconds(s.sampleRate)),
		"noise_floor_db": fmt.Sprintf("%.1f", floor),
		"period_frames":  s.periodFrames,
	}).Info("Latency measured")

	if s.notify.MeasurementComplete != nil {
		s.notify.MeasurementComplete(lat, floor)
	}

	s.latencyCapture.clear()
}

// completeFile saves the current capture, advances the batch, and
// either re-arms the callback with the next source or finishes the run.
// The saveFile flag is cleared only after the next file is fully staged.
func (s *Session) completeFile() {
	entry := s.entries[s.fileIndex]
	err := s.saveRecording(entry)
	if err != nil {
		entry.Status = queue.StatusFailed
		s.log.WithError(err).WithField("file", entry.Name()).Error("Save failed")
	} else {
		entry.Status = queue.StatusCompleted
		s.log.WithField("file", entry.OutputPath(s.settings.OutputFolder, s.settings.OutputPostfix)).Info("Saved")
	}
	if s.notify.FileSaved != nil {
		s.notify.FileSaved(s.fileIndex, err)
	}

	s.fileIndex++
	if s.loadBatchFile() {
		s.saveFile.Store(false)
		return
	}

	// Queue exhausted
	s.setMode(ModeIdle)
	s.saveFile.Store(false)
	s.reportBatchComplete()
}

// saveRecording trims the capture to the source length using the
// measured latency and writes it out. An out-of-range trim offset is
// clamped inside dsp.Trim rather than failing: the audio already went
// through the hardware and the batch must continue.
func (s *Session) saveRecording(entry *queue.Entry) error {
	// The gap tail is always captured and may itself be longer than a
	// short source's target, so it sits outside the overrun budget.
	if s.recording.cursor > overrunFactor*s.recordTarget+s.gapFrames() {
		return fmt.Errorf("%w: captured %d frames, target %d",
			ErrRecordingOverrun, s.recording.cursor, s.recordTarget)
	}

	trimmed := dsp.Trim(s.recording.written(), stereoChannels,
		s.measurement.LatencyFrames, s.sourceFrames)

	if s.settings.DCRemoval {
		dsp.RemoveDCOffset(trimmed, stereoChannels)
	}

	path := entry.OutputPath(s.settings.OutputFolder, s.settings.OutputPostfix)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := wav.Encode(f, trimmed, stereoChannels, s.sampleRate, s.settings.BitDepth); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	return nil
}

// loadBatchFile stages the entry at fileIndex (skipping unprocessable
// ones) into the playback buffer and re-arms the recording buffer.
// Returns false when the queue is exhausted.
func (s *Session) loadBatchFile() bool {
	for ; s.fileIndex < len(s.entries); s.fileIndex++ {
		entry := s.entries[s.fileIndex]

		switch entry.Status {
		case queue.StatusInvalidRate:
			s.log.WithField("file", entry.Name()).Warn("Skipping: sample rate mismatch")
			continue
		case queue.StatusFailed:
			s.log.WithField("file", entry.Name()).Warn("Skipping failed file")
			continue
		}

		clip, err := s.load(entry.Path, s.sampleRate)
		if err != nil {
			entry.Status = queue.StatusFailed
			s.log.WithError(err).WithField("file", entry.Name()).Error("Could not read file")
			if s.notify.FileSaved != nil {
				s.notify.FileSaved(s.fileIndex, err)
			}
			continue
		}

		entry.Status = queue.StatusProcessing
		s.stagePlayback(clip)

		lat := s.measurement.LatencyFrames
		s.recordTarget = s.sourceFrames + lat + tailLatencyFactor*lat
		s.recording.resize(s.recordCapacity(s.recordTarget))
		s.inGap = false

		s.log.WithFields(logrus.Fields{
			"file":          entry.Name(),
			"source_frames": s.sourceFrames,
			"record_target": s.recordTarget,
		}).Info("Processing")

		return true
	}

	return false
}

// stagePlayback adopts a loaded clip as the playback buffer and records
// its length as the trim target for this file.
func (s *Session) stagePlayback(clip *audio.Clip) {
	s.playback.load(clip.Samples)
	s.sourceFrames = s.playback.frames
}

// advancePreview wraps the preview index and stages the next file. The
// loadNext flag is cleared only once playback is staged.
func (s *Session) advancePreview() {
	s.previewIndex = (s.previewIndex + 1) % len(s.previewList)
	if s.loadPreviewFile() {
		s.loadNext.Store(false)
		return
	}

	// Nothing playable left
	s.setMode(ModeIdle)
	s.loadNext.Store(false)
	s.log.Info("Preview complete")
}

// loadPreviewFile stages the preview entry at previewIndex, trying each
// later entry (with wraparound) at most once.
func (s *Session) loadPreviewFile() bool {
	for range s.previewList {
		entry := s.previewList[s.previewIndex]

		clip, err := s.load(entry.Path, s.sampleRate)
		if err != nil {
			s.log.WithError(err).WithField("file", entry.Name()).Warn("Skipping preview file")
			s.previewIndex = (s.previewIndex + 1) % len(s.previewList)
			continue
		}

		s.stagePlayback(clip)
		s.inGap = false
		s.log.WithField("file", entry.Name()).Info("Previewing")
		return true
	}

	return false
}

func (s *Session) reportBatchComplete() {
	completed, failed := queue.Counts(s.entries)
	s.log.WithFields(logrus.Fields{
		"completed": completed,
		"failed":    failed,
	}).Info("Batch processing complete")
	if s.notify.BatchComplete != nil {
		s.notify.BatchComplete(completed, failed)
	}
}

func (s *Session) reportProgress() {
	if s.notify.Progress == nil {
		return
	}

	switch s.CurrentMode() {
	case ModeProcessing:
		if len(s.entries) > 0 {
			s.notify.Progress(s.fileIndex, float64(s.fileIndex)/float64(len(s.entries)))
		}
	case ModePreviewing:
		if len(s.previewList) > 0 {
			s.notify.Progress(s.previewIndex, float64(s.previewIndex)/float64(len(s.previewList)))
		}
	}
}
