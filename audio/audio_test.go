package audio_test

import (
	"io"
	"testing"

	"github.com/rackworks/outboard/audio"
	"github.com/rackworks/outboard/internal/audiotest"
)

type nopDecoder struct{}

func (nopDecoder) Decode(r io.Reader) (audio.Source, error) {
	return audiotest.NewSilentSource(44100, 2, 0), nil
}

func TestRegistry_NormalizesExtensions(t *testing.T) {
	t.Parallel()

	reg := audio.NewRegistry()
	reg.Register("WAV", nopDecoder{})
	reg.Register(".aiff", nopDecoder{})

	for _, ext := range []string{"wav", ".wav", "WAV", ".WaV"} {
		if _, ok := reg.Get(ext); !ok {
			t.Errorf("Get(%q) = false, want registered", ext)
		}
	}
	if _, ok := reg.Get("aiff"); !ok {
		t.Error("Get(aiff) = false, want registered via dotted form")
	}
	if _, ok := reg.Get("flac"); ok {
		t.Error("Get(flac) = true, want unknown")
	}
}

func TestLoadAll(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(48000, 2, 10000, 0.25)

	clip, err := audio.LoadAll(src)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	if clip.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", clip.SampleRate)
	}
	if clip.Channels != 2 {
		t.Errorf("Channels = %d, want 2", clip.Channels)
	}
	if clip.Frames() != 10000 {
		t.Errorf("Frames() = %d, want 10000", clip.Frames())
	}
	for i, v := range clip.Samples {
		if v != 0.25 {
			t.Fatalf("Samples[%d] = %f, want 0.25", i, v)
		}
	}
}

func TestLoadAll_EmptySource(t *testing.T) {
	t.Parallel()

	clip, err := audio.LoadAll(audiotest.NewSilentSource(44100, 2, 0))
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if clip.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", clip.Frames())
	}
}

func TestClip_Frames(t *testing.T) {
	t.Parallel()

	clip := &audio.Clip{Samples: make([]float32, 2000), Channels: 2}
	if clip.Frames() != 1000 {
		t.Errorf("Frames() = %d, want 1000", clip.Frames())
	}

	empty := &audio.Clip{}
	if empty.Frames() != 0 {
		t.Errorf("empty Frames() = %d, want 0", empty.Frames())
	}
}
