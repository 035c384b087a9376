// SPDX-License-Identifier: EPL-2.0

package device

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/gen2brain/malgo"
)

// StereoPair selects two hardware channels (zero-based) as the L/R pair
// for one side of the loop.
type StereoPair struct {
	Left  int
	Right int
}

func (p StereoPair) valid() bool {
	return p.Left >= 0 && p.Right >= 0 && p.Left != p.Right
}

// channelCount is how many device channels must be opened to reach the
// pair.
func (p StereoPair) channelCount() int {
	n := p.Left
	if p.Right > n {
		n = p.Right
	}
	return n + 1
}

// Config requests a duplex stream. Name is matched as a case-insensitive
// substring of the device name; empty selects the system default.
type Config struct {
	Name         string
	SampleRate   int
	PeriodFrames int
	InputPair    StereoPair
	OutputPair   StereoPair
}

// Callback receives one hardware period of interleaved stereo samples.
// It runs on the audio thread and must not block.
type Callback func(out, in []float32, frames int)

// Duplex is the miniaudio-backed hardware collaborator. It opens one
// full-duplex stream, maps the configured stereo pairs in and out of
// the device's channel layout, and hands the engine plain stereo
// buffers.
type Duplex struct {
	cfg     Config
	ctx     *malgo.AllocatedContext
	dev     *malgo.Device
	cb      Callback
	inOpen  int // device channels opened per side
	outOpen int

	// Scratch stereo buffers reused across callbacks; sized at Start so
	// the audio thread never allocates.
	outScratch []float32
	inScratch  []float32
}

// Info describes an enumerated device.
type Info struct {
	Name string
}

// New initializes the audio backend. Call Start to open the stream.
func New(cfg Config) (*Duplex, error) {
	if !cfg.InputPair.valid() || !cfg.OutputPair.valid() {
		return nil, ErrInvalidPair
	}
	if cfg.SampleRate <= 0 || cfg.PeriodFrames <= 0 {
		return nil, ErrInvalidConfig
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	return &Duplex{
		cfg:     cfg,
		ctx:     ctx,
		inOpen:  cfg.InputPair.channelCount(),
		outOpen: cfg.OutputPair.channelCount(),
	}, nil
}

// List enumerates playback-capable devices.
func (d *Duplex) List() ([]Info, error) {
	infos, err := d.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	out := make([]Info, 0, len(infos))
	for _, info := range infos {
		out = append(out, Info{Name: info.Name()})
	}
	return out, nil
}

// findDevice resolves the configured name to playback and capture IDs.
// Empty name returns nil IDs, meaning system default.
func (d *Duplex) findDevice(kind malgo.DeviceType, name string) (unsafe.Pointer, error) {
	if name == "" {
		return nil, nil
	}

	infos, err := d.ctx.Devices(kind)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	for i := range infos {
		if strings.Contains(strings.ToLower(infos[i].Name()), strings.ToLower(name)) {
			return infos[i].ID.Pointer(), nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

// Start opens the duplex stream and begins invoking cb once per period.
// miniaudio converts internally to honor the requested rate and period,
// so the granted parameters equal the request.
func (d *Duplex) Start(cb func(out, in []float32, frames int)) error {
	if d.dev != nil {
		return ErrAlreadyRunning
	}

	playID, err := d.findDevice(malgo.Playback, d.cfg.Name)
	if err != nil {
		return err
	}
	capID, err := d.findDevice(malgo.Capture, d.cfg.Name)
	if err != nil {
		return err
	}

	devCfg := malgo.DefaultDeviceConfig(malgo.Duplex)
	devCfg.SampleRate = uint32(d.cfg.SampleRate)
	devCfg.PeriodSizeInFrames = uint32(d.cfg.PeriodFrames)
	devCfg.Capture.Format = malgo.FormatF32
	devCfg.Capture.Channels = uint32(d.inOpen)
	devCfg.Playback.Format = malgo.FormatF32
	devCfg.Playback.Channels = uint32(d.outOpen)
	if playID != nil {
		devCfg.Playback.DeviceID = playID
	}
	if capID != nil {
		devCfg.Capture.DeviceID = capID
	}

	d.cb = cb
	// Headroom over the requested period: miniaudio may deliver more
	// frames than asked for on some backends.
	scratch := d.cfg.PeriodFrames * 4
	d.outScratch = make([]float32, scratch*2)
	d.inScratch = make([]float32, scratch*2)

	dev, err := malgo.InitDevice(d.ctx.Context, devCfg, malgo.DeviceCallbacks{
		Data: d.onData,
	})
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}
	d.dev = dev

	if err := dev.Start(); err != nil {
		dev.Uninit()
		d.dev = nil
		return fmt.Errorf("start device: %w", err)
	}

	return nil
}

// onData runs on the audio thread: deinterleave the selected input pair
// into stereo, run the engine callback, scatter its stereo output onto
// the selected output channels.
func (d *Duplex) onData(pOut, pIn []byte, frameCount uint32) {
	frames := int(frameCount)
	if frames*2 > len(d.outScratch) {
		frames = len(d.outScratch) / 2
	}

	in := bytesAsFloat32(pIn)
	out := bytesAsFloat32(pOut)

	inStereo := d.inScratch[:frames*2]
	if len(in) >= frames*d.inOpen {
		for f := 0; f < frames; f++ {
			inStereo[f*2] = in[f*d.inOpen+d.cfg.InputPair.Left]
			inStereo[f*2+1] = in[f*d.inOpen+d.cfg.InputPair.Right]
		}
	} else {
		for i := range inStereo {
			inStereo[i] = 0
		}
	}

	outStereo := d.outScratch[:frames*2]
	for i := range outStereo {
		outStereo[i] = 0
	}

	if d.cb != nil {
		d.cb(outStereo, inStereo, frames)
	}

	if len(out) >= frames*d.outOpen {
		for i := range out[:frames*d.outOpen] {
			out[i] = 0
		}
		for f := 0; f < frames; f++ {
			out[f*d.outOpen+d.cfg.OutputPair.Left] = outStereo[f*2]
			out[f*d.outOpen+d.cfg.OutputPair.Right] = outStereo[f*2+1]
		}
	}
}

// Stop closes the stream. The context stays initialized so the device
// can be reconfigured and restarted.
func (d *Duplex) Stop() error {
	if d.dev == nil {
		return nil
	}
	err := d.dev.Stop()
	d.dev.Uninit()
	d.dev = nil
	if err != nil {
		return fmt.Errorf("stop device: %w", err)
	}
	return nil
}

// Close releases the audio backend.
func (d *Duplex) Close() error {
	if err := d.Stop(); err != nil {
		return err
	}
	if d.ctx != nil {
		if err := d.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninit context: %w", err)
		}
		d.ctx.Free()
		d.ctx = nil
	}
	return nil
}

func (d *Duplex) SampleRate() int     { return d.cfg.SampleRate }
func (d *Duplex) PeriodFrames() int   { return d.cfg.PeriodFrames }
func (d *Duplex) InputChannels() int  { return 2 }
func (d *Duplex) OutputChannels() int { return 2 }

// bytesAsFloat32 reinterprets a raw sample buffer without copying. The
// result is only valid for the duration of the callback.
func bytesAsFloat32(data []byte) []float32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), len(data)/4)
}
