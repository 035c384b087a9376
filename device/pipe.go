// SPDX-License-Identifier: EPL-2.0

package device

// Pipe is an in-process loopback driver: everything written to its
// output reappears on its input after a fixed number of frames, like a
// hardware loop with a unity-gain cable. It is clocked manually with
// Step, which makes engine behavior deterministic under test, and can
// stand in for real gear in dry runs.
//
// LatencyFrames must be at least one period; a real loop always is.
type Pipe struct {
	rate    int
	period  int
	latency int
	cb      Callback

	// Transform, when set, is applied to every looped sample -
	// a stand-in for whatever the outboard gear does.
	Transform func(float32) float32

	pending []float32 // interleaved stereo in flight through the "loop"
	out     []float32
	in      []float32
	running bool
}

func NewPipe(sampleRate, periodFrames, latencyFrames int) *Pipe {
	if latencyFrames < periodFrames {
		latencyFrames = periodFrames
	}
	return &Pipe{
		rate:    sampleRate,
		period:  periodFrames,
		latency: latencyFrames,
		pending: make([]float32, latencyFrames*2),
		out:     make([]float32, periodFrames*2),
		in:      make([]float32, periodFrames*2),
	}
}

func (p *Pipe) Start(cb func(out, in []float32, frames int)) error {
	p.cb = cb
	p.running = true
	return nil
}

func (p *Pipe) Stop() error {
	p.running = false
	return nil
}

func (p *Pipe) SampleRate() int     { return p.rate }
func (p *Pipe) PeriodFrames() int   { return p.period }
func (p *Pipe) InputChannels() int  { return 2 }
func (p *Pipe) OutputChannels() int { return 2 }

// Step runs one hardware period: deliver the oldest in-flight samples
// as input, collect the callback's output into the loop.
func (p *Pipe) Step() {
	if !p.running || p.cb == nil {
		return
	}

	n := p.period * 2
	copy(p.in, p.pending[:n])

	for i := range p.out {
		p.out[i] = 0
	}

	p.cb(p.out, p.in, p.period)

	looped := p.out
	if p.Transform != nil {
		for i, v := range p.out {
			looped[i] = p.Transform(v)
		}
	}

	p.pending = append(p.pending[n:], looped...)
}

// StepN runs count periods.
func (p *Pipe) StepN(count int) {
	for i := 0; i < count; i++ {
		p.Step()
	}
}
