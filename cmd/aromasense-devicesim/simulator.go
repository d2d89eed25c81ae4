// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/aromasense/aromasense/lib/clock"
	"github.com/aromasense/aromasense/lib/netutil"
	"github.com/aromasense/aromasense/lib/reading"
)

// readyBanner is the first line the firmware prints after boot.
const readyBanner = "Arduino CONNECTED"

// levelCount is the number of concentration level codes the firmware
// reports, 0 through levelCount-1.
const levelCount = 4

// baseline holds typical clean-air values for each gas channel, in
// display order. Samples wander around these.
var baseline = [7]float64{0.05, 2.5, 1.2, 0.8, 300, 150, 80}

// device is the firmware state machine: sampling on or off, and the
// position in the level cycle.
type device struct {
	random   *rand.Rand
	sampling bool
	samples  int
}

func newDevice(seed uint64) *device {
	return &device{random: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// handleCommand applies a command line from the relay. It reports
// whether the line was a recognised command.
func (d *device) handleCommand(line string) bool {
	switch {
	case strings.HasPrefix(line, reading.CommandStartSampling):
		d.sampling = true
	case strings.HasPrefix(line, reading.CommandStopSampling):
		d.sampling = false
	default:
		return false
	}
	return true
}

func (d *device) stateCode() int32 {
	if d.sampling {
		return 1
	}
	return 0
}

// sample produces the next reading. Each channel is its baseline with
// up to 10% noise; the level code advances by one per sample.
func (d *device) sample() reading.SensorReading {
	var values [7]float64
	for index, base := range baseline {
		noise := (d.random.Float64()*2 - 1) * 0.1 * base
		values[index] = roundTo(base+noise, 3)
	}
	level := int32(d.samples % levelCount)
	d.samples++

	return reading.SensorReading{
		NO2:     values[0],
		Eth:     values[1],
		VOC:     values[2],
		CO:      values[3],
		COMics:  values[4],
		EthMics: values[5],
		VOCMics: values[6],
		State:   d.stateCode(),
		Level:   level,
	}
}

func roundTo(value float64, places int) float64 {
	scale := 1.0
	for range places {
		scale *= 10
	}
	return float64(int64(value*scale)) / scale
}

// Simulator speaks the device side of the relay's line protocol over a
// single connection.
type Simulator struct {
	// Interval between sensor lines while sampling.
	Interval time.Duration

	// Seed makes the generated values reproducible.
	Seed uint64

	Clock clock.Clock

	// Logger receives structured log output. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

func (s *Simulator) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Run announces readiness on connection and then emits a sensor line
// every Interval while sampling, toggling sampling on commands read
// from the connection. It returns nil when the relay closes the
// connection or ctx is done. The caller owns the connection and must
// close it to unblock the reader once Run returns.
func (s *Simulator) Run(ctx context.Context, connection io.ReadWriter) error {
	if s.Interval <= 0 {
		return fmt.Errorf("devicesim: interval must be positive, got %s", s.Interval)
	}
	simulatorClock := s.Clock
	if simulatorClock == nil {
		simulatorClock = clock.Real()
	}
	logger := s.logger()

	if err := writeLine(connection, readyBanner); err != nil {
		return err
	}
	logger.Info("announced readiness")

	lines := netutil.ReadLines(connection, netutil.LineOptions{})
	defer lines.Stop()

	state := newDevice(s.Seed)
	tick := simulatorClock.After(s.Interval)
	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines.Lines():
			if !ok {
				if err := lines.Err(); err != nil && !netutil.IsExpectedCloseError(err) {
					return fmt.Errorf("devicesim: reading commands: %w", err)
				}
				logger.Info("relay closed the connection")
				return nil
			}
			line = strings.TrimSpace(line)
			if state.handleCommand(line) {
				logger.Info("command received", "command", line, "sampling", state.sampling)
			} else {
				logger.Debug("ignoring line", "line", line)
			}

		case <-tick:
			tick = simulatorClock.After(s.Interval)
			if !state.sampling {
				continue
			}
			sensorLine := state.sample().FormatLine()
			if err := writeLine(connection, sensorLine); err != nil {
				if netutil.IsExpectedCloseError(err) {
					return nil
				}
				return err
			}
			logger.Debug("sent reading", "line", sensorLine)
		}
	}
}

func writeLine(writer io.Writer, line string) error {
	if _, err := io.WriteString(writer, line+"\n"); err != nil {
		return fmt.Errorf("devicesim: writing line: %w", err)
	}
	return nil
}
