// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides connection helpers shared by the relay and
// its clients.
//
// [ReadLines] moves line scanning onto a background goroutine and
// exposes the lines as a channel, so a session loop can select between
// "next line from the peer" and any other event source.
//
// [IsExpectedCloseError] classifies errors produced by normal
// connection teardown so they are not logged as failures.
package netutil
