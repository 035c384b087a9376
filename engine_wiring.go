// SPDX-License-Identifier: EPL-2.0

package outboard

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rackworks/outboard/config"
	"github.com/rackworks/outboard/device"
	"github.com/rackworks/outboard/engine"
)

// NewEngine assembles a ready session from a config: decoder registry,
// malgo duplex device, and engine settings, with the device already
// attached. The caller owns both returned values; close the session
// first, then the device.
func NewEngine(cfg config.Config, log *logrus.Logger) (*engine.Session, *device.Duplex, error) {
	dev, err := device.New(device.Config{
		Name:         cfg.Device,
		SampleRate:   cfg.SampleRate,
		PeriodFrames: cfg.PeriodFrames,
		InputPair:    device.StereoPair{Left: cfg.InputPair.Left, Right: cfg.InputPair.Right},
		OutputPair:   device.StereoPair{Left: cfg.OutputPair.Left, Right: cfg.OutputPair.Right},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initializing audio backend: %w", err)
	}

	settings := engine.DefaultSettings()
	settings.GapMs = cfg.GapMs
	settings.ReverbTail = cfg.ReverbTail
	settings.MarginPercent = cfg.MarginPercent
	settings.DCRemoval = cfg.DCRemoval
	settings.BitDepth = cfg.BitDepth
	settings.OutputFolder = cfg.OutputFolder
	settings.OutputPostfix = cfg.OutputPostfix

	session := engine.NewSession(log, LoadClip(NewRegistry()), settings)
	if err := session.Attach(dev); err != nil {
		dev.Close()
		return nil, nil, err
	}

	return session, dev, nil
}
