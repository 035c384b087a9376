// SPDX-License-Identifier: EPL-2.0

// Package device opens the full-duplex hardware stream the engine runs
// on. Duplex wraps miniaudio (github.com/gen2brain/malgo) and maps the
// configured stereo pairs onto the device's channel layout; Pipe is a
// deterministic in-process loopback used by tests and dry runs.
package device
