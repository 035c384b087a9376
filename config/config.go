// SPDX-License-Identifier: EPL-2.0

// Package config loads the CLI front end's YAML settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pair mirrors device.StereoPair in the settings file (zero-based
// channel indices).
type Pair struct {
	Left  int `yaml:"left"`
	Right int `yaml:"right"`
}

type Config struct {
	Device       string `yaml:"device"`
	SampleRate   int    `yaml:"sample_rate"`
	PeriodFrames int    `yaml:"period_frames"`
	InputPair    Pair   `yaml:"input_pair"`
	OutputPair   Pair   `yaml:"output_pair"`

	GapMs         int     `yaml:"gap_ms"`
	ReverbTail    bool    `yaml:"reverb_tail"`
	MarginPercent float64 `yaml:"noise_floor_margin_percent"`
	DCRemoval     bool    `yaml:"dc_removal"`
	BitDepth      int     `yaml:"bit_depth"`

	OutputFolder  string `yaml:"output_folder"`
	OutputPostfix string `yaml:"output_postfix"`
}

// Default matches the hardware defaults the engine assumes: 44.1 kHz,
// 256-frame periods, channels 1+2 on both sides.
func Default() Config {
	return Config{
		SampleRate:    44100,
		PeriodFrames:  256,
		InputPair:     Pair{Left: 0, Right: 1},
		OutputPair:    Pair{Left: 0, Right: 1},
		GapMs:         150,
		MarginPercent: 10,
		DCRemoval:     true,
		BitDepth:      24,
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample_rate %d", ErrInvalid, c.SampleRate)
	}
	if c.PeriodFrames <= 0 {
		return fmt.Errorf("%w: period_frames %d", ErrInvalid, c.PeriodFrames)
	}
	switch c.BitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("%w: bit_depth %d (want 16, 24 or 32)", ErrInvalid, c.BitDepth)
	}
	return nil
}
