// SPDX-License-Identifier: EPL-2.0

// Package engine drives the hardware loop: a per-period real-time
// callback (Session.Process) moving samples between the device and the
// session buffers, and a timer-polled completion handler (Session.Tick)
// doing everything that may allocate or touch disk.
//
// The two sides share the Session without locks. Each field group has
// exactly one writer; the callback raises atomic completion flags and
// holds (emitting silence) until the handler has finished the
// corresponding work and cleared the flag. The handler resizes or
// clears buffers only before a mode starts or after observing a flag.
//
// Latency is a frame count everywhere: measurement, recording targets,
// and trimming all share the one convention.
package engine
