// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"net"

	"github.com/aromasense/aromasense/lib/reading"
)

// runViewerSession relays one viewer connection: sensor hub messages go
// to the viewer, recognised commands from the viewer go to the command
// hub.
func (r *Relay) runViewerSession(ctx context.Context, connection net.Conn, sessionID uint64) {
	messages, deviceConnected := r.greetingStatus()
	defer messages.Close()

	session := r.openSession(ctx, connection, RoleViewer, sessionID)
	defer session.close()

	r.state.SetViewerConnected(true)
	r.metrics.sessionOpened(RoleViewer)
	session.logger.Info("viewer connected")

	defer func() {
		r.state.SetViewerConnected(false)
		r.metrics.sessionClosed(RoleViewer)
		session.logger.Info("viewer disconnected")
	}()

	// The greeting reaches this viewer only. It reports the device flag
	// as of the subscription; later transitions arrive through it.
	greeting, err := reading.Encode(reading.NewStatusEvent(deviceConnected))
	if err != nil {
		session.logger.Error("encoding status event failed", "error", err)
		return
	}
	if err := session.writeLine(greeting); err != nil {
		session.logWriteFailure(ctx, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			session.logger.Info("session ending: relay shutting down")
			return

		case message, ok := <-messages.C():
			if !ok {
				return
			}
			if missed := messages.TakeMissed(); missed > 0 {
				r.metrics.missed(HubSensor, missed)
				session.logger.Warn("viewer lagged; messages dropped", "missed", missed)
			}
			if err := session.writeLine(message); err != nil {
				session.logWriteFailure(ctx, err)
				return
			}

		case line, ok := <-session.lines.Lines():
			if !ok {
				session.logReadEnd(ctx)
				return
			}
			r.handleViewerLine(session, line)
		}
	}
}

// handleViewerLine publishes recognised commands and drops the rest.
func (r *Relay) handleViewerLine(session *session, line string) {
	if !reading.IsCommand(line) {
		r.metrics.viewerLineIgnored()
		session.logger.Info("ignoring unrecognised viewer input", "line", line)
		return
	}
	delivered := r.commandHub.Publish(line)
	r.metrics.commandPublished()
	session.logger.Debug("command published", "command", line, "devices", delivered)
}
