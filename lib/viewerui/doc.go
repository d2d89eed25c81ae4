// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package viewerui is a bubbletea terminal viewer for the relay.
//
// The [Model] shows relay and device connectivity, the latest reading's
// seven gas channels with a short sparkline of recent values, the
// device's state and level codes, how many readings have arrived, and
// running min/max/mean/std per channel. Keys: s sends START_SAMPLING,
// x sends STOP_SAMPLING, e and j export the session as CSV or JSON, r
// retries a lost relay, q quits.
//
// With [Model.WithReconnect] the model redials when the relay stream
// ends and carries on with the new connection.
//
// The model reads [reading.Message] values from a channel (normally
// [viewerclient.Client.Messages]) and sends commands through a
// [Commander], so tests drive it without a network.
package viewerui
