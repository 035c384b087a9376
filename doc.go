// SPDX-License-Identifier: EPL-2.0

// Package outboard processes audio files through external hardware: it
// plays each queued file out of a selected stereo pair, captures the
// return of the analog/digital loop, and writes a latency-compensated
// WAV for every entry.
//
// # Architecture
//
// The engine package holds the core: a real-time per-period callback
// (test tone, latency measurement, batch playback+capture, preview) and
// a polled completion handler that trims, saves and advances the queue.
// The two communicate through atomic completion flags only.
//
// Supporting packages: audio (decoded-PCM contract and registry),
// formats (WAV/AIFF/MP3/Vorbis codecs), dsp (peak/RMS/trim math),
// device (miniaudio duplex stream plus a loopback pipe), queue (file
// entries and statuses), config (YAML settings for the CLI).
//
// # Quick start
//
//	reg := outboard.NewRegistry()
//	sess := engine.NewSession(log, outboard.LoadClip(reg), engine.DefaultSettings())
//
//	drv, _ := device.New(device.Config{SampleRate: 44100, PeriodFrames: 256,
//		InputPair: device.StereoPair{Left: 0, Right: 1},
//		OutputPair: device.StereoPair{Left: 0, Right: 1}})
//	sess.Attach(drv)
//	go sess.Run(ctx)
//
//	sess.EnterMeasureLatency()
//	// ...after the MeasurementComplete notification:
//	sess.EnterProcessing(entries)
package outboard
