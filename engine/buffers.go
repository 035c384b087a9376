package engine

// sampleBuffer is fixed-capacity interleaved stereo storage with a
// frame cursor. The handler (re)sizes and clears it between modes; an
// active callback is the only writer to its data region.
type sampleBuffer struct {
	data   []float32
	cursor int // frames
}

func (b *sampleBuffer) capFrames() int {
	return len(b.data) / stereoChannels
}

func (b *sampleBuffer) resize(frames int) {
	if b.capFrames() < frames {
		b.data = make([]float32, frames*stereoChannels)
	}
	b.clear()
}

func (b *sampleBuffer) clear() {
	for i := range b.data {
		b.data[i] = 0
	}
	b.cursor = 0
}

// written returns the filled interleaved region.
func (b *sampleBuffer) written() []float32 {
	return b.data[:b.cursor*stereoChannels]
}

// playbackBuffer holds the current source clip. Unlike sampleBuffer it
// adopts the loaded clip's storage directly; length is the clip length,
// not a capacity.
type playbackBuffer struct {
	data   []float32
	frames int
	cursor int // frames; invariant: cursor <= frames
}

func (b *playbackBuffer) load(samples []float32) {
	b.data = samples
	b.frames = len(samples) / stereoChannels
	b.cursor = 0
}

func (b *playbackBuffer) remaining() int {
	return b.frames - b.cursor
}
