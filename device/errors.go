package device

import "errors"

var (
	ErrInvalidPair    = errors.New("invalid stereo pair selection")
	ErrInvalidConfig  = errors.New("invalid device configuration")
	ErrDeviceNotFound = errors.New("no matching audio device")
	ErrAlreadyRunning = errors.New("device already running")
)
