// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package liveness tracks whether a device and whether any viewer are
// connected to the relay.
//
// A single [State] is created at startup and shared by every session.
// Sessions flip their own flag when they start and when they end; each
// mutation holds the lock only for that single-field write. The two
// flags are independent and no operation offers cross-field
// consistency: a reader may observe one flag mid-transition relative
// to the other.
//
// Both flags are backed by session counts. Marking a session connected
// increments its count and marking it disconnected decrements it, so
// one viewer leaving does not mark the others absent, and a second
// device overlapping the first keeps the device flag set until both
// are gone.
package liveness

import "sync"

// State is the shared liveness record. The zero value is ready to use
// with both flags false.
type State struct {
	mutex       sync.Mutex
	deviceCount int
	viewerCount int
}

// New returns a State with both flags false.
func New() *State {
	return &State{}
}

// SetDeviceConnected records a device session starting (true) or
// ending (false) and returns the resulting device flag.
func (state *State) SetDeviceConnected(connected bool) bool {
	state.mutex.Lock()
	defer state.mutex.Unlock()
	state.deviceCount = adjust(state.deviceCount, connected)
	return state.deviceCount > 0
}

// SetViewerConnected records a viewer session starting (true) or
// ending (false) and returns the resulting viewer flag.
func (state *State) SetViewerConnected(connected bool) bool {
	state.mutex.Lock()
	defer state.mutex.Unlock()
	state.viewerCount = adjust(state.viewerCount, connected)
	return state.viewerCount > 0
}

// DeviceConnected reports whether at least one device session is
// active.
func (state *State) DeviceConnected() bool {
	state.mutex.Lock()
	defer state.mutex.Unlock()
	return state.deviceCount > 0
}

// Snapshot is a point-in-time copy of the liveness record.
type Snapshot struct {
	DeviceConnected bool `json:"device_connected"`
	ViewerConnected bool `json:"viewer_connected"`
	Devices         int  `json:"devices"`
	Viewers         int  `json:"viewers"`
}

// Snapshot copies the record under a single lock acquisition.
func (state *State) Snapshot() Snapshot {
	state.mutex.Lock()
	defer state.mutex.Unlock()
	return Snapshot{
		DeviceConnected: state.deviceCount > 0,
		ViewerConnected: state.viewerCount > 0,
		Devices:         state.deviceCount,
		Viewers:         state.viewerCount,
	}
}

// adjust applies one connect or disconnect to a session count. A
// disconnect never takes the count below zero.
func adjust(count int, connected bool) int {
	if connected {
		return count + 1
	}
	if count > 0 {
		return count - 1
	}
	return 0
}
