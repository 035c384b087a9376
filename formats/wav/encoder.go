// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

// Encode writes interleaved float32 samples as a PCM WAV file at the
// given bit depth (16, 24 or 32). Samples outside [-1,1] are clamped,
// the way analog captures with a hot return level have to be.
func Encode(ws io.WriteSeeker, samples []float32, channels, sampleRate, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return ErrUnsupportedBitDepth
	}

	enc := gowav.NewEncoder(ws, sampleRate, bitDepth, channels, 1)

	// Positive full scale is one code short of the negative side
	maxVal := float64(int64(1)<<(bitDepth-1) - 1)

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: bitDepth,
	}

	for i, v := range samples {
		f := float64(v)
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		buf.Data[i] = int(f * maxVal)
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}

	return nil
}
