// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the two time operations the relay needs: the
// current instant (receive timestamps on sensor readings) and a
// one-shot delay (accept-loop backoff, simulator pacing).
//
// Production code injects [Real]. Tests inject [Fake], whose time
// stands still until [FakeClock.Advance] is called, so timestamps are
// exact and delays fire deterministically.
package clock
