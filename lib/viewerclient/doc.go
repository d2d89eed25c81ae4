// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package viewerclient speaks the relay's viewer protocol from the
// viewer side.
//
// A [Client] decodes the relay's newline-delimited JSON into
// [reading.Message] values on a background goroutine and delivers them
// on [Client.Messages]. Lines that are not valid records are logged and
// skipped, so one corrupt line never ends the stream. Commands are
// written as single lines; the relay forwards START_SAMPLING and
// STOP_SAMPLING to the device and drops anything else.
//
//	client, err := viewerclient.Dial(ctx, "relay.local:8082", viewerclient.Options{})
//	...
//	defer client.Close()
//	client.StartSampling()
//	for message := range client.Messages() {
//		...
//	}
//
// [DialWithRetry] makes a bounded number of attempts with a fixed delay
// between them, for viewers that outlive a relay restart.
package viewerclient
