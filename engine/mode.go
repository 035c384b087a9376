// SPDX-License-Identifier: EPL-2.0

package engine

import "github.com/sirupsen/logrus"

// Mode is the session's single operating state. Exactly one mode is
// active at any time; the value lives in one atomic word so a request
// for a new mode while another is running normalizes to the new mode
// before the next hardware period executes.
type Mode int32

const (
	ModeIdle Mode = iota
	ModeHardwareTest
	ModeMeasuringLatency
	ModeProcessing
	ModePreviewing
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeHardwareTest:
		return "hardware-test"
	case ModeMeasuringLatency:
		return "measuring-latency"
	case ModeProcessing:
		return "processing"
	case ModePreviewing:
		return "previewing"
	default:
		return "unknown"
	}
}

// setMode is the only mode transition point on the non-real-time side.
// Replacing an active mode implicitly stops it; the callback sees the
// new value at its next period.
func (s *Session) setMode(to Mode) {
	from := Mode(s.mode.Load())
	if from == to {
		return
	}
	if from != ModeIdle && to != ModeIdle {
		s.log.WithFields(logrus.Fields{
			"from": from.String(),
			"to":   to.String(),
		}).Debug("replacing active mode")
	}
	s.mode.Store(int32(to))
}

// CurrentMode reports the active mode; safe from any goroutine.
func (s *Session) CurrentMode() Mode {
	return Mode(s.mode.Load())
}
