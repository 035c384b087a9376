package dsp

import "testing"

// ramp builds an interleaved stereo buffer whose samples encode their
// frame index, so trim offsets are directly observable.
func ramp(frames int) []float32 {
	buf := make([]float32, frames*2)
	for f := 0; f < frames; f++ {
		buf[f*2] = float32(f)
		buf[f*2+1] = float32(f)
	}
	return buf
}

func TestTrim_SkipsLatency(t *testing.T) {
	t.Parallel()

	captured := ramp(1000)
	out := Trim(captured, 2, 128, 500)

	if len(out) != 500*2 {
		t.Fatalf("Trim() len = %d, want %d", len(out), 500*2)
	}
	if out[0] != 128 {
		t.Errorf("Trim() first frame = %f, want 128", out[0])
	}
	if out[499*2] != 128+499 {
		t.Errorf("Trim() last frame = %f, want %d", out[499*2], 128+499)
	}
}

func TestTrim_ExactLengthAlways(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		capturedFrames int
		latency        int
		target         int
	}{
		{"plenty", 2000, 100, 500},
		{"exact", 600, 100, 500},
		{"short capture", 300, 100, 500},
		{"latency past end", 100, 500, 500},
		{"empty capture", 0, 100, 500},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := Trim(ramp(tt.capturedFrames), 2, tt.latency, tt.target)
			if len(out) != tt.target*2 {
				t.Errorf("Trim() len = %d, want %d", len(out), tt.target*2)
			}
		})
	}
}

func TestTrim_ZeroFillsShortfall(t *testing.T) {
	t.Parallel()

	// 300 captured frames, 100 skipped: 200 real frames then zeros
	out := Trim(ramp(300), 2, 100, 500)

	if out[199*2] != 299 {
		t.Errorf("last real frame = %f, want 299", out[199*2])
	}
	for f := 200; f < 500; f++ {
		if out[f*2] != 0 || out[f*2+1] != 0 {
			t.Fatalf("frame %d = (%f,%f), want zero fill", f, out[f*2], out[f*2+1])
		}
	}
}

func TestTrim_NegativeLatencyClamped(t *testing.T) {
	t.Parallel()

	out := Trim(ramp(1000), 2, -50, 500)
	if out[0] != 0 {
		t.Errorf("Trim() with negative latency starts at frame %f, want 0", out[0])
	}
}

func TestTrim_DegenerateArgs(t *testing.T) {
	t.Parallel()

	if out := Trim(ramp(100), 0, 0, 50); out != nil {
		t.Error("Trim() with 0 channels should return nil")
	}
	if out := Trim(ramp(100), 2, 0, 0); out != nil {
		t.Error("Trim() with 0 target should return nil")
	}
}
