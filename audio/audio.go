// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	// Close releases any resources.
	Close() error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry maps file extensions (lowercase, without the dot: "wav",
// "aiff", "mp3", "ogg") to decoders.
type Registry struct {
	codecs map[string]Decoder

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.Mutex{},
	}
}

func (r *Registry) Register(ext string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[normalizeExt(ext)] = d
}

func (r *Registry) Get(ext string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[normalizeExt(ext)]
	return d, ok
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Clip holds a fully decoded stream: interleaved samples plus the
// parameters needed to interpret them.
type Clip struct {
	Samples    []float32
	Channels   int
	SampleRate int
}

// Frames returns the clip length in frames.
func (c *Clip) Frames() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// LoadAll drains src into a Clip. The source is read to EOF but not
// closed; that stays with the caller that opened it.
func LoadAll(src Source) (*Clip, error) {
	clip := &Clip{
		Channels:   src.Channels(),
		SampleRate: src.SampleRate(),
	}

	buf := make([]float32, 4096)
	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			clip.Samples = append(clip.Samples, buf[:n]...)
		}

		if err == io.EOF {
			return clip, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
		if n == 0 {
			return clip, nil
		}
	}
}
