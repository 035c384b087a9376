// SPDX-License-Identifier: EPL-2.0

// Package wav decodes WAV files into audio.Source streams and encodes
// processed captures back to PCM WAV at 16, 24 or 32 bit.
//
// It uses the github.com/go-audio library for container handling.
package wav
