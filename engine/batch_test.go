package engine_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rackworks/outboard/audio"
	"github.com/rackworks/outboard/engine"
	"github.com/rackworks/outboard/formats/wav"
	"github.com/rackworks/outboard/queue"
)

const sourceFrames = 2000

// runBatch drives the pipe until the session leaves Processing, calling
// the completion handler after every period the way the ticker would.
func runBatch(t *testing.T, s *engine.Session, step func()) {
	t.Helper()

	for i := 0; i < 2000; i++ {
		if s.CurrentMode() != engine.ModeProcessing {
			return
		}
		step()
		s.Tick()
	}
	t.Fatal("batch never finished")
}

func readOutput(t *testing.T, path string) []float32 {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	src, err := wav.Decoder{}.Decode(f)
	require.NoError(t, err)
	defer src.Close()

	var out []float32
	buf := make([]float32, 4096)
	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err == io.EOF || n == 0 {
			return out
		}
		require.NoError(t, err)
	}
}

func TestBatch_RoundTrip(t *testing.T) {
	t.Parallel()

	clip := testClip(sourceFrames)
	s, pipe := newTestSession(t, map[string]*audio.Clip{"take1.wav": clip})
	outDir := t.TempDir()

	settings := s.Settings()
	settings.OutputFolder = outDir
	settings.DCRemoval = false // the loop is clean; keep samples comparable
	require.NoError(t, s.UpdateSettings(settings))

	measure(t, s, pipe)

	var saved []int
	var batchDone bool
	s.SetNotifications(engine.Notifications{
		FileSaved: func(index int, err error) {
			assert.NoError(t, err)
			saved = append(saved, index)
		},
		BatchComplete: func(completed, failed int) {
			assert.Equal(t, 1, completed)
			assert.Equal(t, 0, failed)
			batchDone = true
		},
	})

	entry := queue.NewEntry("take1.wav")
	require.NoError(t, s.EnterProcessing([]*queue.Entry{entry}))

	runBatch(t, s, pipe.Step)

	assert.Equal(t, queue.StatusCompleted, entry.Status)
	assert.Equal(t, []int{0}, saved)
	assert.True(t, batchDone)

	// The written file must be the source, latency-compensated: same
	// length, same samples, within output quantization.
	got := readOutput(t, filepath.Join(outDir, "take1.wav"))
	require.Len(t, got, sourceFrames*2)
	for i := range got {
		assert.InDelta(t, clip.Samples[i], got[i], 1e-4,
			"sample %d diverged after the loop", i)
	}
}

func TestBatch_OutputPostfix(t *testing.T) {
	t.Parallel()

	s, pipe := newTestSession(t, map[string]*audio.Clip{"take1.wav": testClip(500)})
	outDir := t.TempDir()

	settings := s.Settings()
	settings.OutputFolder = outDir
	settings.OutputPostfix = "_processed"
	require.NoError(t, s.UpdateSettings(settings))

	measure(t, s, pipe)

	require.NoError(t, s.EnterProcessing([]*queue.Entry{queue.NewEntry("take1.wav")}))
	runBatch(t, s, pipe.Step)

	_, err := os.Stat(filepath.Join(outDir, "take1_processed.wav"))
	assert.NoError(t, err)
}

func TestBatch_ShortSourceLongGap(t *testing.T) {
	t.Parallel()

	// At 44.1 kHz defaults the 150 ms gap tail (6615 frames) is longer
	// than the whole recording target of a short drum hit. The tail is
	// legitimate capture and must not trip the overrun abort.
	clip := testClip(500)
	s, pipe := newSessionAt(t, 44100, 512, map[string]*audio.Clip{"hit.wav": clip})
	outDir := t.TempDir()

	settings := s.Settings()
	settings.OutputFolder = outDir
	settings.DCRemoval = false
	require.NoError(t, s.UpdateSettings(settings))

	measure(t, s, pipe)

	var savedErr error
	var savedCalls int
	s.SetNotifications(engine.Notifications{
		FileSaved: func(index int, err error) {
			savedErr = err
			savedCalls++
		},
	})

	entry := queue.NewEntry("hit.wav")
	require.NoError(t, s.EnterProcessing([]*queue.Entry{entry}))
	runBatch(t, s, pipe.Step)

	require.Equal(t, 1, savedCalls)
	assert.NoError(t, savedErr)
	assert.Equal(t, queue.StatusCompleted, entry.Status)

	got := readOutput(t, filepath.Join(outDir, "hit.wav"))
	require.Len(t, got, 500*2)
	for i := range got {
		assert.InDelta(t, clip.Samples[i], got[i], 1e-4,
			"sample %d diverged after the loop", i)
	}
}

func TestBatch_RecordingTargetLength(t *testing.T) {
	t.Parallel()

	// A 1 s source at 44.1 kHz with a 512-frame loop records
	// 44100 + 512 + 4*512 = 46660 frames before the gap starts. Pin
	// that by counting hardware periods up to the save: 183 of
	// playback+capture, then 26 of gap tail.
	const (
		rate    = 44100
		latency = 512
		src     = rate
	)

	s, pipe := newSessionAt(t, rate, latency, map[string]*audio.Clip{"one.wav": testClip(src)})
	outDir := t.TempDir()

	settings := s.Settings()
	settings.OutputFolder = outDir
	settings.DCRemoval = false
	require.NoError(t, s.UpdateSettings(settings))

	measure(t, s, pipe)

	var savedStep int
	steps := 0
	s.SetNotifications(engine.Notifications{
		FileSaved: func(index int, err error) {
			assert.NoError(t, err)
			savedStep = steps
		},
	})

	require.NoError(t, s.EnterProcessing([]*queue.Entry{queue.NewEntry("one.wav")}))
	for i := 0; i < 2000 && s.CurrentMode() == engine.ModeProcessing; i++ {
		pipe.Step()
		steps++
		s.Tick()
	}
	require.Equal(t, engine.ModeIdle, s.CurrentMode(), "batch never finished")

	target := src + latency + 4*latency
	gap := s.Settings().GapMs * rate / 1000
	wantSteps := (target+testPeriod-1)/testPeriod + (gap+testPeriod-1)/testPeriod
	assert.Equal(t, wantSteps, savedStep)

	got := readOutput(t, filepath.Join(outDir, "one.wav"))
	assert.Len(t, got, src*2)
}

func TestBatch_BadFileDoesNotAbort(t *testing.T) {
	t.Parallel()

	clips := map[string]*audio.Clip{
		"one.wav":   testClip(500),
		"three.wav": testClip(500),
		// "two.wav" missing: the loader will fail on it
	}
	s, pipe := newTestSession(t, clips)
	outDir := t.TempDir()

	settings := s.Settings()
	settings.OutputFolder = outDir
	require.NoError(t, s.UpdateSettings(settings))

	measure(t, s, pipe)

	var completed, failed int
	var fileErrs []error
	s.SetNotifications(engine.Notifications{
		FileSaved: func(index int, err error) {
			fileErrs = append(fileErrs, err)
		},
		BatchComplete: func(c, f int) {
			completed, failed = c, f
		},
	})

	entries := []*queue.Entry{
		queue.NewEntry("one.wav"),
		queue.NewEntry("two.wav"),
		queue.NewEntry("three.wav"),
	}
	require.NoError(t, s.EnterProcessing(entries))
	runBatch(t, s, pipe.Step)

	assert.Equal(t, queue.StatusCompleted, entries[0].Status)
	assert.Equal(t, queue.StatusFailed, entries[1].Status)
	assert.Equal(t, queue.StatusCompleted, entries[2].Status)
	assert.Equal(t, 2, completed)
	assert.Equal(t, 1, failed)
	require.Len(t, fileErrs, 3)
	assert.Error(t, fileErrs[1], "the unreadable file must report its error")

	for _, name := range []string{"one.wav", "three.wav"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, "%s missing from output", name)
	}
}

func TestBatch_SkipsPreflaggedEntries(t *testing.T) {
	t.Parallel()

	s, pipe := newTestSession(t, map[string]*audio.Clip{"good.wav": testClip(500)})
	outDir := t.TempDir()

	settings := s.Settings()
	settings.OutputFolder = outDir
	require.NoError(t, s.UpdateSettings(settings))

	measure(t, s, pipe)

	wrongRate := queue.NewEntry("wrong-rate.wav")
	wrongRate.Status = queue.StatusInvalidRate
	good := queue.NewEntry("good.wav")

	var completed, failed int
	s.SetNotifications(engine.Notifications{
		BatchComplete: func(c, f int) { completed, failed = c, f },
	})

	require.NoError(t, s.EnterProcessing([]*queue.Entry{wrongRate, good}))
	runBatch(t, s, pipe.Step)

	assert.Equal(t, queue.StatusInvalidRate, wrongRate.Status, "skip must not rewrite the flag")
	assert.Equal(t, queue.StatusCompleted, good.Status)
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, failed)
}

func TestBatch_ReverbTailOverrun(t *testing.T) {
	t.Parallel()

	s, pipe := newTestSession(t, map[string]*audio.Clip{"take1.wav": testClip(500)})
	outDir := t.TempDir()

	settings := s.Settings()
	settings.OutputFolder = outDir
	settings.ReverbTail = true
	require.NoError(t, s.UpdateSettings(settings))

	measure(t, s, pipe)

	// Gear that never decays: constant signal well above the measured
	// floor keeps the tail hold open until the capture overruns.
	pipe.Transform = func(v float32) float32 { return v + 0.2 }

	var savedErr error
	s.SetNotifications(engine.Notifications{
		FileSaved: func(index int, err error) { savedErr = err },
	})

	entry := queue.NewEntry("take1.wav")
	require.NoError(t, s.EnterProcessing([]*queue.Entry{entry}))
	runBatch(t, s, pipe.Step)

	assert.ErrorIs(t, savedErr, engine.ErrRecordingOverrun)
	assert.Equal(t, queue.StatusFailed, entry.Status)
}

func TestPreview_CyclesThroughSelection(t *testing.T) {
	t.Parallel()

	clips := map[string]*audio.Clip{
		"a.wav": testClip(500),
		"b.wav": testClip(500),
	}
	s, pipe := newTestSession(t, clips)

	a := queue.NewEntry("a.wav")
	b := queue.NewEntry("b.wav")
	unselected := queue.NewEntry("c.wav")
	unselected.Selected = false

	require.NoError(t, s.EnterPreview([]*queue.Entry{a, b, unselected}))
	assert.Equal(t, engine.ModePreviewing, s.CurrentMode())

	// First clip plus the gap, then the handoff to the next one
	for i := 0; i < 100 && s.CurrentMode() == engine.ModePreviewing; i++ {
		pipe.Step()
		s.Tick()
	}

	// Preview loops; it only ends when asked to
	assert.Equal(t, engine.ModePreviewing, s.CurrentMode())

	s.Stop()
	assert.Equal(t, engine.ModeIdle, s.CurrentMode())
}

func TestPreview_RequiresSelection(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, nil)

	none := queue.NewEntry("a.wav")
	none.Selected = false

	assert.ErrorIs(t, s.EnterPreview([]*queue.Entry{none}), engine.ErrNoFiles)
}

func TestPreview_EmitsAudio(t *testing.T) {
	t.Parallel()

	s, pipe := newTestSession(t, map[string]*audio.Clip{"a.wav": testClip(500)})

	var heard bool
	pipe.Transform = func(v float32) float32 {
		if v > 0.1 || v < -0.1 {
			heard = true
		}
		return v
	}

	require.NoError(t, s.EnterPreview([]*queue.Entry{queue.NewEntry("a.wav")}))
	pipe.StepN(3)

	assert.True(t, heard, "preview produced no output")
}
