// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize  = errors.New("dst size must be multiple of channels")
	ErrUnknownFormat   = errors.New("no decoder registered for format")
	ErrTooManyChannels = errors.New("source has more than two channels")
)
