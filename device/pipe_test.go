package device

import "testing"

func TestPipe_LoopbackDelay(t *testing.T) {
	t.Parallel()

	const (
		period  = 256
		latency = 512
	)

	p := NewPipe(44100, period, latency)

	step := 0
	var seenAt, seenOffset int = -1, -1

	err := p.Start(func(out, in []float32, frames int) {
		if step == 0 {
			out[0] = 1.0
			out[1] = 1.0
		}
		for f := 0; f < frames; f++ {
			if in[f*2] > 0.5 && seenAt < 0 {
				seenAt = step
				seenOffset = f
			}
		}
		step++
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	p.StepN(10)

	if seenAt < 0 {
		t.Fatal("impulse never came back around the loop")
	}

	// Emitted in step 0 at frame 0, it must return latency frames later
	gotLatency := seenAt*period + seenOffset
	if gotLatency != latency {
		t.Errorf("round trip = %d frames, want %d", gotLatency, latency)
	}
}

func TestPipe_TransformApplied(t *testing.T) {
	t.Parallel()

	p := NewPipe(44100, 256, 256)
	p.Transform = func(v float32) float32 { return v * 0.5 }

	var got float32
	step := 0
	if err := p.Start(func(out, in []float32, frames int) {
		if step == 0 {
			out[0] = 0.8
		}
		if step == 1 && in[0] != 0 {
			got = in[0]
		}
		step++
	}); err != nil {
		t.Fatal(err)
	}

	p.StepN(3)

	if got != 0.4 {
		t.Errorf("looped sample = %f, want 0.4 after gain transform", got)
	}
}

func TestPipe_LatencyClampedToPeriod(t *testing.T) {
	t.Parallel()

	// A loop shorter than one period cannot exist; the pipe rounds up
	p := NewPipe(44100, 256, 64)

	seen := false
	step := 0
	if err := p.Start(func(out, in []float32, frames int) {
		if step == 0 {
			out[0] = 1.0
		}
		if step == 1 && in[0] == 1.0 {
			seen = true
		}
		step++
	}); err != nil {
		t.Fatal(err)
	}
	p.StepN(2)

	if !seen {
		t.Error("impulse did not return after exactly one period")
	}
}

func TestPipe_StoppedIsInert(t *testing.T) {
	t.Parallel()

	p := NewPipe(44100, 256, 256)
	calls := 0
	if err := p.Start(func(out, in []float32, frames int) { calls++ }); err != nil {
		t.Fatal(err)
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}

	p.StepN(5)
	if calls != 0 {
		t.Errorf("callback ran %d times after Stop", calls)
	}
}

func TestStereoPair(t *testing.T) {
	t.Parallel()

	if !(StereoPair{Left: 0, Right: 1}).valid() {
		t.Error("0/1 pair reported invalid")
	}
	if (StereoPair{Left: 2, Right: 2}).valid() {
		t.Error("duplicate channel pair reported valid")
	}
	if (StereoPair{Left: -1, Right: 0}).valid() {
		t.Error("negative channel pair reported valid")
	}

	if got := (StereoPair{Left: 2, Right: 5}).channelCount(); got != 6 {
		t.Errorf("channelCount() = %d, want 6", got)
	}
}
