// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/aromasense/aromasense/lib/hub"
	"github.com/aromasense/aromasense/lib/reading"
)

// runDeviceSession relays one device connection: sensor lines go to the
// sensor hub, commands from the command hub go to the device.
func (r *Relay) runDeviceSession(ctx context.Context, connection net.Conn, sessionID uint64) {
	// Subscribe before announcing the device so a command sent in
	// reaction to the status broadcast cannot be missed.
	commands := r.commandHub.Subscribe()
	defer commands.Close()

	session := r.openSession(ctx, connection, RoleDevice, sessionID)
	defer session.close()

	r.setDeviceConnected(session.logger, true)
	r.metrics.sessionOpened(RoleDevice)
	if active := r.state.Snapshot().Devices; active > 1 {
		session.logger.Warn("concurrent device session; sensor streams will interleave",
			"active_devices", active,
		)
	}
	session.logger.Info("device connected")

	defer func() {
		connected := r.setDeviceConnected(session.logger, false)
		r.metrics.sessionClosed(RoleDevice)
		session.logger.Info("device disconnected", "device_connected", connected)
	}()

	for {
		select {
		case <-ctx.Done():
			session.logger.Info("session ending: relay shutting down")
			return

		case line, ok := <-session.lines.Lines():
			if !ok {
				session.logReadEnd(ctx)
				return
			}
			r.handleDeviceLine(session, line)

		case command, ok := <-commands.C():
			if !ok {
				return
			}
			if missed := commands.TakeMissed(); missed > 0 {
				r.metrics.missed(HubCommand, missed)
				session.logger.Warn("device session lagged; commands dropped", "missed", missed)
			}
			if err := session.writeLine(command); err != nil {
				session.logWriteFailure(ctx, err)
				return
			}
			r.metrics.commandForwarded()
			session.logger.Debug("command forwarded to device", "command", command)
		}
	}
}

// handleDeviceLine routes one line read from the device.
func (r *Relay) handleDeviceLine(session *session, line string) {
	switch {
	case reading.IsSensorLine(line):
		sensorReading, fallbacks, err := reading.ParseLine(line, r.clock.Now())
		if err != nil {
			var fieldCountError *reading.FieldCountError
			if errors.As(err, &fieldCountError) {
				r.metrics.lineRejected(RejectFieldCount)
			}
			session.logger.Warn("rejected sensor line", "line", line, "error", err)
			return
		}
		if len(fallbacks) > 0 {
			session.logger.Debug("sensor fields took fallback values", "fields", fallbacks, "line", line)
		}
		encoded, err := reading.Encode(sensorReading)
		if err != nil {
			r.metrics.lineRejected(RejectEncode)
			session.logger.Warn("encoding sensor reading failed", "line", line, "error", err)
			return
		}
		delivered := r.sensorHub.Publish(encoded)
		r.metrics.readingRelayed(fallbacks)
		session.logger.Debug("sensor reading relayed", "subscribers", delivered)

	case reading.IsReadyLine(line):
		session.logger.Info("device reported ready", "line", line)

	default:
		session.logger.Debug("ignoring device line", "line", line)
	}
}

// setDeviceConnected records a device session starting or ending and
// broadcasts the resulting aggregate flag. Holding statusMutex across
// both steps keeps broadcasts in the order the flag changed.
func (r *Relay) setDeviceConnected(logger *slog.Logger, connected bool) bool {
	r.statusMutex.Lock()
	defer r.statusMutex.Unlock()

	deviceConnected := r.state.SetDeviceConnected(connected)
	encoded, err := reading.Encode(reading.NewStatusEvent(deviceConnected))
	if err != nil {
		logger.Error("encoding status event failed", "error", err)
		return deviceConnected
	}
	delivered := r.sensorHub.Publish(encoded)
	logger.Debug("status broadcast",
		"device_connected", deviceConnected,
		"subscribers", delivered,
	)
	return deviceConnected
}

// greetingStatus subscribes to the sensor hub and reads the device flag
// in one step, so no transition falls between the greeting and the
// first broadcast the subscriber sees.
func (r *Relay) greetingStatus() (*hub.Subscription[string], bool) {
	r.statusMutex.Lock()
	defer r.statusMutex.Unlock()
	return r.sensorHub.Subscribe(), r.state.DeviceConnected()
}
