package audio

import "fmt"

// StereoSpread adapts any one- or two-channel source to stereo output.
// Mono input is duplicated onto both channels, the way a batch loop
// expects L/R pairs; stereo input passes through untouched. Sources
// with more than two channels are rejected up front.
type StereoSpread struct {
	src Source
	tmp []float32
}

func NewStereoSpread(src Source) (*StereoSpread, error) {
	if src.Channels() > 2 {
		return nil, ErrTooManyChannels
	}
	return &StereoSpread{
		src: src,
		tmp: make([]float32, 4096),
	}, nil
}

func (s *StereoSpread) SampleRate() int { return s.src.SampleRate() }
func (s *StereoSpread) Channels() int   { return 2 }

func (s *StereoSpread) Close() error {
	err := s.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (s *StereoSpread) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.src.Channels() == 2 {
		// Pass-through: already an L/R pair
		return s.src.ReadSamples(dst)
	}

	if len(dst)%2 != 0 {
		return 0, ErrInvalidDstSize
	}

	// Mono: read half as many samples, write each twice
	frames := len(dst) / 2
	if cap(s.tmp) < frames {
		s.tmp = make([]float32, frames)
	}
	s.tmp = s.tmp[:frames]

	n, err := s.src.ReadSamples(s.tmp)
	if n == 0 {
		return 0, err
	}

	for f := 0; f < n; f++ {
		v := s.tmp[f]
		dst[2*f] = v
		dst[2*f+1] = v
	}

	return n * 2, err
}
