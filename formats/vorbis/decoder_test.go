// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"io"
	"testing"

	"github.com/rackworks/outboard/audio"
)

// mockOggReader simulates the oggvorbis.Reader for testing
type mockOggReader struct {
	sampleRate int
	channels   int
	samples    []float32
	offset     int
}

func (m *mockOggReader) SampleRate() int { return m.sampleRate }
func (m *mockOggReader) Channels() int   { return m.channels }

func (m *mockOggReader) Read(dst []float32) (int, error) {
	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}
	n := copy(dst, m.samples[m.offset:])
	m.offset += n
	return n, nil
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	mock := &mockOggReader{
		sampleRate: 44100,
		channels:   2,
		samples:    []float32{0.1, -0.1, 0.2, -0.2},
	}
	src := &source{dec: mock, sampleRate: 44100, channels: 2}

	dst := make([]float32, 4)
	n, err := src.ReadSamples(dst)
	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("ReadSamples() n = %d, want 4", n)
	}
	for i, want := range mock.samples {
		if dst[i] != want {
			t.Errorf("dst[%d] = %f, want %f", i, dst[i], want)
		}
	}
}

func TestSource_TrimsToWholeFrames(t *testing.T) {
	t.Parallel()

	mock := &mockOggReader{
		sampleRate: 44100,
		channels:   2,
		samples:    []float32{0.1, -0.1, 0.2, -0.2},
	}
	src := &source{dec: mock, sampleRate: 44100, channels: 2}

	// Odd destination: only 4 of the 5 slots are usable for stereo
	n, err := src.ReadSamples(make([]float32, 5))
	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 4 {
		t.Errorf("ReadSamples() n = %d, want 4 (whole frames only)", n)
	}
}

func TestSource_TooSmallDst(t *testing.T) {
	t.Parallel()

	src := &source{dec: &mockOggReader{channels: 2}, sampleRate: 44100, channels: 2}

	if _, err := src.ReadSamples(make([]float32, 1)); err != audio.ErrInvalidDstSize {
		t.Errorf("ReadSamples(1) error = %v, want ErrInvalidDstSize", err)
	}
}

func TestSource_EOF(t *testing.T) {
	t.Parallel()

	src := &source{dec: &mockOggReader{channels: 2}, sampleRate: 44100, channels: 2}

	n, err := src.ReadSamples(make([]float32, 8))
	if n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() = (%d, %v), want (0, io.EOF)", n, err)
	}
}

func TestDecoder_RejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := (Decoder{}).Decode(bytes.NewReader([]byte("not an ogg stream"))); err == nil {
		t.Error("Decode(garbage) error = nil, want failure")
	}
}
