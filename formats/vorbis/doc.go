// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis files into audio.Source streams.
//
// This package uses github.com/jfreymuth/oggvorbis for decoding.
package vorbis
