// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package viewerui

import (
	"strings"

	"github.com/aromasense/aromasense/lib/reading"
)

const channelCount = 7

// historyLength is how many recent values each sparkline shows.
const historyLength = 32

var channelLabels = [channelCount]string{
	"NO2",
	"Ethanol",
	"VOC",
	"CO",
	"MiCS CO",
	"MiCS Ethanol",
	"MiCS VOC",
}

// channelValues returns a reading's gas channels in display order.
func channelValues(sensorReading reading.SensorReading) [channelCount]float64 {
	return [channelCount]float64{
		sensorReading.NO2,
		sensorReading.Eth,
		sensorReading.VOC,
		sensorReading.CO,
		sensorReading.COMics,
		sensorReading.EthMics,
		sensorReading.VOCMics,
	}
}

// isPrimaryChannel reports whether a channel uses the invalid-analyte
// sentinel.
func isPrimaryChannel(index int) bool {
	return index < 4
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline renders values scaled between their minimum and maximum.
// Invalid primary readings are drawn as a gap.
func sparkline(values []float64, primary bool) string {
	low, high := 0.0, 0.0
	first := true
	for _, value := range values {
		if primary && value == reading.InvalidAnalyte {
			continue
		}
		if first {
			low, high = value, value
			first = false
			continue
		}
		low = min(low, value)
		high = max(high, value)
	}

	var builder strings.Builder
	for _, value := range values {
		if primary && value == reading.InvalidAnalyte {
			builder.WriteRune(' ')
			continue
		}
		level := 0
		if high > low {
			level = int((value - low) / (high - low) * float64(len(sparkLevels)-1))
		}
		builder.WriteRune(sparkLevels[level])
	}
	return builder.String()
}
