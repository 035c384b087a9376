// SPDX-License-Identifier: EPL-2.0

package outboard

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rackworks/outboard/audio"
	"github.com/rackworks/outboard/formats/aiff"
	"github.com/rackworks/outboard/formats/mp3"
	"github.com/rackworks/outboard/formats/vorbis"
	"github.com/rackworks/outboard/formats/wav"
)

// NewRegistry returns a decoder registry with every supported format
// registered: WAV, AIFF, MP3 and Ogg Vorbis.
func NewRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	return reg
}

// LoadClip decodes a file into a stereo clip at targetRate. Mono
// sources fan out to both channels; a sample-rate mismatch goes through
// cubic resampling. This is the engine.Loader implementation the batch
// and preview paths use.
func LoadClip(reg *audio.Registry) func(path string, targetRate int) (*audio.Clip, error) {
	return func(path string, targetRate int) (*audio.Clip, error) {
		dec, ok := reg.Get(filepath.Ext(path))
		if !ok {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), audio.ErrUnknownFormat)
		}

		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
		}
		defer f.Close()

		src, err := dec.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
		}
		defer src.Close()

		var stream audio.Source
		stream, err = audio.NewStereoSpread(src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}

		if stream.SampleRate() != targetRate {
			stream = audio.NewResampler(stream, targetRate)
		}

		clip, err := audio.LoadAll(stream)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
		}

		return clip, nil
	}
}
