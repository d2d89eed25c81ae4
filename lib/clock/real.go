// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Real returns the wall clock used outside tests.
func Real() Clock {
	return wallClock{}
}

type wallClock struct{}

func (wallClock) Now() time.Time {
	return time.Now()
}

func (wallClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
