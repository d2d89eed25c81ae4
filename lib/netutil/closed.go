// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// closeErrors are the errors a session sees when its peer, or the relay
// itself, tears the connection down.
var closeErrors = []error{
	io.EOF,
	io.ErrUnexpectedEOF,
	net.ErrClosed,
	syscall.EPIPE,
	syscall.ECONNRESET,
}

// IsExpectedCloseError reports whether err only says the connection is
// gone. Sessions log such errors at Info and anything else at Warn.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	for _, closeError := range closeErrors {
		if errors.Is(err, closeError) {
			return true
		}
	}
	return false
}
