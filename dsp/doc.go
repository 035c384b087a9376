// SPDX-License-Identifier: EPL-2.0

// Package dsp holds the stateless signal primitives the engine is built
// on: peak and RMS analysis, latency trimming, DC-offset removal, and
// the sine/impulse generators used for hardware testing and latency
// measurement.
//
// Everything here is pure math over sample slices. Functions that
// allocate (Trim) are only ever called from the non-real-time side;
// the generators and analyzers are safe inside a period callback.
package dsp
