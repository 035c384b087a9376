// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"io"
	"math"
	"testing"

	goaudio "github.com/go-audio/audio"
)

// mockAiffReader simulates the goaiff.Decoder for testing
type mockAiffReader struct {
	format  *goaudio.Format
	samples []int
	offset  int
}

func (m *mockAiffReader) Format() *goaudio.Format { return m.format }

func (m *mockAiffReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if m.offset >= len(m.samples) {
		return 0, nil
	}
	n := copy(buf.Data, m.samples[m.offset:])
	m.offset += n
	return n, nil
}

func TestSource_ReadSamples16Bit(t *testing.T) {
	t.Parallel()

	mock := &mockAiffReader{
		format:  &goaudio.Format{NumChannels: 2, SampleRate: 44100},
		samples: []int{0, 16384, -16384, 32767},
	}
	src := &source{dec: mock, sampleRate: 44100, channels: 2, bitDepth: 16}

	dst := make([]float32, 4)
	n, err := src.ReadSamples(dst)
	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("ReadSamples() n = %d, want 4", n)
	}

	want := []float32{0, 0.5, -0.5, 32767.0 / 32768}
	for i := range want {
		if math.Abs(float64(dst[i]-want[i])) > 1e-6 {
			t.Errorf("dst[%d] = %f, want %f", i, dst[i], want[i])
		}
	}
}

func TestSource_ReadSamples24Bit(t *testing.T) {
	t.Parallel()

	mock := &mockAiffReader{
		format:  &goaudio.Format{NumChannels: 1, SampleRate: 48000},
		samples: []int{4194304, -4194304},
	}
	src := &source{dec: mock, sampleRate: 48000, channels: 1, bitDepth: 24}

	dst := make([]float32, 2)
	n, err := src.ReadSamples(dst)
	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("ReadSamples() n = %d, want 2", n)
	}
	if math.Abs(float64(dst[0]-0.5)) > 1e-6 || math.Abs(float64(dst[1]+0.5)) > 1e-6 {
		t.Errorf("got (%f,%f), want (0.5,-0.5)", dst[0], dst[1])
	}
}

func TestSource_EOF(t *testing.T) {
	t.Parallel()

	mock := &mockAiffReader{format: &goaudio.Format{NumChannels: 2, SampleRate: 44100}}
	src := &source{dec: mock, sampleRate: 44100, channels: 2, bitDepth: 16}

	n, err := src.ReadSamples(make([]float32, 8))
	if n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() = (%d, %v), want (0, io.EOF)", n, err)
	}
}

func TestDecoder_RejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := (Decoder{}).Decode(bytes.NewReader([]byte("FORM but not really aiff"))); err == nil {
		t.Error("Decode(garbage) error = nil, want failure")
	}
}
