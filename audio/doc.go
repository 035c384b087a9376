// SPDX-License-Identifier: EPL-2.0

// Package audio defines the decoded-PCM contract shared by the rest of
// the module: interleaved float32 samples in [-1,1], a Source/Decoder
// pair for streaming decode, and an extension-keyed decoder Registry.
//
// Playback material is loaded with LoadAll into a flat Clip, optionally
// through StereoSpread (mono files fan out to L/R) and Resampler
// (preview of files that don't match the session rate).
package audio
