// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	ErrDeviceUnavailable  = errors.New("device or channel pair unavailable")
	ErrLatencyNotMeasured = errors.New("latency not measured")
	ErrLatencyStale       = errors.New("latency measured at a different period size")
	ErrNoFiles            = errors.New("no files to process")
	ErrNoOutputFolder     = errors.New("no output folder configured")
	ErrRecordingOverrun   = errors.New("recording ran far past the target length")
)
