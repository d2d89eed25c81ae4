// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package reading

import "strings"

// Commands a viewer may send. A viewer line is forwarded verbatim to
// the device when it starts with one of these; arguments after the
// command word travel along untouched.
const (
	CommandStartSampling = "START_SAMPLING"
	CommandStopSampling  = "STOP_SAMPLING"
)

// IsCommand reports whether a viewer line is a recognised command.
func IsCommand(line string) bool {
	return strings.HasPrefix(line, CommandStartSampling) ||
		strings.HasPrefix(line, CommandStopSampling)
}
