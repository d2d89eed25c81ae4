// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay bridges one sensor device to any number of viewers over
// TCP.
//
// The relay owns two listeners. The device listener accepts the
// instrument's connection; the device streams newline-terminated lines
// and receives command lines back. The viewer listener accepts any
// number of viewers; each receives one JSON record per line and may
// send START_SAMPLING or STOP_SAMPLING commands.
//
// Sessions never talk to each other. Everything crosses two hubs:
//
//	device ──SENSOR: line──▶ [sensor hub] ──JSON line──▶ every viewer
//	device ◀──command line── [command hub] ◀──command── any viewer
//
// Both hubs deliver best-effort: a slow viewer loses its oldest queued
// messages instead of slowing the device or other viewers (see
// [hub.Hub]).
//
// Every session moves through the same lifecycle. On accept it marks
// its role connected in the shared [liveness.State]; a device session
// additionally broadcasts a connection_status record and a viewer
// session sends one to its own viewer only. The session then races
// "next line from the peer" against "next hub message" until the peer
// disconnects, a write fails, or the relay is stopped. On the way out
// it marks its role disconnected and, for a device, broadcasts the new
// status.
//
// Only a failure to bind either listener is fatal. Malformed lines,
// I/O errors, accept errors and lagging subscribers are logged, counted
// in [Metrics], and confined to the session or message they affect.
package relay
