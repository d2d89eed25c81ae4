// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package reading

// TypeConnectionStatus is the "type" discriminator of a [StatusEvent].
// Sensor readings carry no "type" field.
const TypeConnectionStatus = "connection_status"

// StatusEvent announces device and backend connectivity to viewers.
// The relay sends one to each viewer when it connects and broadcasts
// one on every device connect and disconnect.
type StatusEvent struct {
	Type string `json:"type"`

	// ArduinoConnected reports whether a device session is active. The
	// JSON name predates support for other device boards.
	ArduinoConnected bool `json:"arduino_connected"`

	// BackendConnected is always true while the relay runs; viewers use
	// it to distinguish "relay up, device down" from "relay down".
	BackendConnected bool `json:"backend_connected"`
}

// NewStatusEvent builds the status event for the given device
// connectivity.
func NewStatusEvent(deviceConnected bool) StatusEvent {
	return StatusEvent{
		Type:             TypeConnectionStatus,
		ArduinoConnected: deviceConnected,
		BackendConnected: true,
	}
}
