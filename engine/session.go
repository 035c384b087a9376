// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/rackworks/outboard/audio"
	"github.com/rackworks/outboard/dsp"
	"github.com/rackworks/outboard/queue"
)

const (
	stereoChannels = 2

	toneAmplitude    = 0.5
	impulseAmplitude = 0.9

	// latencyCaptureSeconds bounds a measurement; no impulse return
	// within this window is a timeout.
	latencyCaptureSeconds = 5

	// tailLatencyFactor extends the recording target past the source
	// length: target = source + latency + tailLatencyFactor*latency.
	tailLatencyFactor = 4

	// overrunFactor flags a capture that ran away (reverb mode that
	// never found the floor, broken gear feeding back).
	overrunFactor = 2
)

// Driver is the hardware collaborator. After a successful open it
// reports the stream parameters the device actually granted, and it
// invokes the installed callback once per hardware period from its
// real-time context.
type Driver interface {
	Start(cb func(out, in []float32, frames int)) error
	Stop() error
	SampleRate() int
	PeriodFrames() int
	InputChannels() int
	OutputChannels() int
}

// Loader decodes a file into a stereo clip, resampling to targetRate
// when the container differs. The batch path never sees mismatched
// rates (entries are screened at probe time); preview relies on the
// resample.
type Loader func(path string, targetRate int) (*audio.Clip, error)

// Settings are the handler-owned processing knobs. The callback reads
// them only between mode transitions.
type Settings struct {
	ToneFrequency float64 // hardware test tone, Hz
	PeakThreshold float32 // impulse detection level
	GapMs         int     // silence between queue items

	ReverbTail    bool    // extend the gap until the tail decays under the floor
	MarginPercent float64 // noise-floor margin, scales the floor value itself

	DCRemoval     bool
	BitDepth      int // output WAV bit depth: 16, 24 or 32
	OutputFolder  string
	OutputPostfix string
}

func DefaultSettings() Settings {
	return Settings{
		ToneFrequency: 1000,
		PeakThreshold: 0.1,
		GapMs:         150,
		MarginPercent: 10,
		DCRemoval:     true,
		BitDepth:      24,
	}
}

// Measurement is the stored round-trip result. LatencyFrames is a frame
// count (one unit convention across the whole engine); -1 means not
// measured. A measurement is only trusted at the period size it was
// taken with.
type Measurement struct {
	LatencyFrames int
	PeriodFrames  int
	NoiseFloorDB  float64
	HasNoiseFloor bool
}

func (m Measurement) Valid(periodFrames int) bool {
	return m.LatencyFrames >= 0 && m.PeriodFrames == periodFrames
}

func (m Measurement) Milliseconds(sampleRate int) float64 {
	if m.LatencyFrames < 0 || sampleRate <= 0 {
		return 0
	}
	return float64(m.LatencyFrames) / float64(sampleRate) * 1000
}

// Notifications are pushed toward the UI driver from the non-real-time
// side. Nil funcs are skipped.
type Notifications struct {
	MeasurementComplete func(latencyFrames int, noiseFloorDB float64)
	FileSaved           func(index int, err error)
	BatchComplete       func(completed, failed int)
	Progress            func(index int, fraction float64)
}

// Session is the engine context shared by the real-time callback and
// the completion handler. Field groups are tagged with their single
// writer; crossing the boundary goes through the completion flags.
type Session struct {
	log      *logrus.Logger
	load     Loader
	settings Settings
	notify   Notifications

	driver       Driver
	sampleRate   int // adopted from the driver after open
	periodFrames int

	mode atomic.Int32

	// Completion flags: set only by the callback, cleared only by the
	// handler. The callback holds (emits silence) while its flag is up;
	// it never waits on the clear.
	measurementDone atomic.Bool
	saveFile        atomic.Bool
	loadNext        atomic.Bool

	// Callback-owned while a mode is active. The handler touches these
	// only before a mode starts or after observing the matching flag.
	playback       playbackBuffer
	recording      sampleBuffer
	recordTarget   int // frames; precomputed before Processing starts
	latencyCapture sampleBuffer
	osc            dsp.Oscillator
	impulseSent    bool
	inGap          bool
	gapRemaining   int
	latencyFrames  int // result the callback hands over via measurementDone

	// Handler-owned queue and measurement state; the callback reads
	// none of it except measurement during reverb-tail gaps.
	measurement  Measurement
	entries      []*queue.Entry
	fileIndex    int
	sourceFrames int
	previewList  []*queue.Entry
	previewIndex int
}

func NewSession(log *logrus.Logger, load Loader, settings Settings) *Session {
	if log == nil {
		log = logrus.New()
	}
	s := &Session{
		log:      log,
		load:     load,
		settings: settings,
	}
	s.measurement.LatencyFrames = -1
	s.latencyFrames = -1
	return s
}

func (s *Session) SetNotifications(n Notifications) {
	s.notify = n
}

// Settings returns a copy of the active settings.
func (s *Session) Settings() Settings {
	return s.settings
}

// UpdateSettings replaces the processing knobs. Only allowed while
// idle; an active mode owns the values it started with.
func (s *Session) UpdateSettings(settings Settings) error {
	if s.CurrentMode() != ModeIdle {
		return fmt.Errorf("cannot change settings in mode %s", s.CurrentMode())
	}
	s.settings = settings
	return nil
}

// Measurement returns the stored round-trip measurement.
func (s *Session) Measurement() Measurement {
	return s.measurement
}

// Attach stops any current driver, adopts the new driver's actual
// stream parameters, resizes the session buffers, and starts the
// real-time callback. Any stored measurement is invalidated: a device
// change means a different loop.
func (s *Session) Attach(d Driver) error {
	if s.driver != nil {
		if err := s.driver.Stop(); err != nil {
			s.log.WithError(err).Warn("stopping previous driver")
		}
	}
	s.setMode(ModeIdle)

	s.driver = d
	s.sampleRate = d.SampleRate()
	s.periodFrames = d.PeriodFrames()

	s.latencyCapture.resize(latencyCaptureSeconds * s.sampleRate)
	s.recording.clear()
	s.measurement = Measurement{LatencyFrames: -1}

	if err := d.Start(s.Process); err != nil {
		s.driver = nil
		return fmt.Errorf("starting driver: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"sample_rate":   s.sampleRate,
		"period_frames": s.periodFrames,
		"in_channels":   d.InputChannels(),
		"out_channels":  d.OutputChannels(),
	}).Info("Device configured")

	return nil
}

// Close stops the driver and returns the session to idle.
func (s *Session) Close() error {
	s.Stop()
	if s.driver == nil {
		return nil
	}
	err := s.driver.Stop()
	s.driver = nil
	if err != nil {
		return fmt.Errorf("stopping driver: %w", err)
	}
	return nil
}

// Stop cancels whatever is running. The callback emits silence from the
// next period on; in-flight cursors are not rolled back.
func (s *Session) Stop() {
	s.setMode(ModeIdle)
	s.measurementDone.Store(false)
	s.saveFile.Store(false)
	s.loadNext.Store(false)
	s.log.Info("Stopped")
}

func (s *Session) requireOutput() error {
	if s.driver == nil || s.driver.OutputChannels() < stereoChannels {
		return ErrDeviceUnavailable
	}
	return nil
}

func (s *Session) requireDuplex() error {
	if err := s.requireOutput(); err != nil {
		return err
	}
	if s.driver.InputChannels() < stereoChannels {
		return ErrDeviceUnavailable
	}
	return nil
}

// EnterHardwareTest starts the continuous loop-test tone.
func (s *Session) EnterHardwareTest() error {
	if err := s.requireDuplex(); err != nil {
		return err
	}

	s.osc = dsp.NewOscillator(s.settings.ToneFrequency, float64(s.sampleRate))
	s.setMode(ModeHardwareTest)
	s.log.WithField("frequency_hz", s.settings.ToneFrequency).Info("Hardware loop test started")
	return nil
}

// EnterMeasureLatency arms a round-trip measurement: the callback sends
// one impulse and watches the input until it returns or the capture
// window runs out.
func (s *Session) EnterMeasureLatency() error {
	if err := s.requireDuplex(); err != nil {
		return err
	}

	s.latencyCapture.clear()
	s.impulseSent = false
	s.latencyFrames = -1
	s.setMode(ModeMeasuringLatency)
	s.log.Info("Measuring latency...")
	return nil
}

// EnterProcessing starts the batch: every pending entry is played
// through the hardware loop and its capture written to the output
// folder. Requires a fresh latency measurement at the current period
// size.
func (s *Session) EnterProcessing(entries []*queue.Entry) error {
	if err := s.requireDuplex(); err != nil {
		return err
	}
	if s.measurement.LatencyFrames < 0 {
		return ErrLatencyNotMeasured
	}
	if !s.measurement.Valid(s.periodFrames) {
		return ErrLatencyStale
	}
	if len(entries) == 0 {
		return ErrNoFiles
	}
	if s.settings.OutputFolder == "" {
		return ErrNoOutputFolder
	}
	if info, err := os.Stat(s.settings.OutputFolder); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNoOutputFolder, s.settings.OutputFolder)
	}

	s.entries = entries
	s.fileIndex = 0

	if !s.loadBatchFile() {
		s.reportBatchComplete()
		return ErrNoFiles
	}

	s.setMode(ModeProcessing)
	s.log.WithField("files", len(entries)).Info("Starting batch processing")
	return nil
}

// EnterPreview plays the selected entries through the outputs in a
// round-robin loop, no recording.
func (s *Session) EnterPreview(entries []*queue.Entry) error {
	if err := s.requireOutput(); err != nil {
		return err
	}

	list := make([]*queue.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Selected && e.Status != queue.StatusFailed {
			list = append(list, e)
		}
	}
	if len(list) == 0 {
		return ErrNoFiles
	}

	s.previewList = list
	s.previewIndex = 0

	if !s.loadPreviewFile() {
		return ErrNoFiles
	}

	s.setMode(ModePreviewing)
	s.log.WithField("files", len(list)).Info("Preview started")
	return nil
}

// gapFrames converts the configured inter-file gap to frames at the
// session rate.
func (s *Session) gapFrames() int {
	return s.settings.GapMs * s.sampleRate / 1000
}

// recordCapacity is what the recording buffer must hold so the callback
// can never exceed it: the overrun allowance plus the gap tail and one
// period of slack.
func (s *Session) recordCapacity(target int) int {
	return overrunFactor*target + s.gapFrames() + s.periodFrames
}
