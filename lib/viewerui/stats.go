// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package viewerui

import (
	"math"

	"github.com/aromasense/aromasense/lib/reading"
)

// ChannelStats summarizes every value a gas channel has reported since
// the viewer started. Invalid primary readings are not counted.
type ChannelStats struct {
	Label string
	Count int
	Min   float64
	Max   float64
	Mean  float64
	// StdDev is the population standard deviation.
	StdDev float64
}

// channelAccumulator keeps running statistics with Welford's update, so
// memory stays constant however long the session runs.
type channelAccumulator struct {
	count                  int
	mean                   float64
	sumOfSquaredDeviations float64
	min                    float64
	max                    float64
}

func (accumulator channelAccumulator) add(value float64) channelAccumulator {
	accumulator.count++
	if accumulator.count == 1 {
		accumulator.min, accumulator.max = value, value
	} else {
		accumulator.min = min(accumulator.min, value)
		accumulator.max = max(accumulator.max, value)
	}
	delta := value - accumulator.mean
	accumulator.mean += delta / float64(accumulator.count)
	accumulator.sumOfSquaredDeviations += delta * (value - accumulator.mean)
	return accumulator
}

func (accumulator channelAccumulator) stats(label string) ChannelStats {
	if accumulator.count == 0 {
		return ChannelStats{Label: label}
	}
	return ChannelStats{
		Label:  label,
		Count:  accumulator.count,
		Min:    accumulator.min,
		Max:    accumulator.max,
		Mean:   accumulator.mean,
		StdDev: math.Sqrt(accumulator.sumOfSquaredDeviations / float64(accumulator.count)),
	}
}

// accumulateReading folds one reading into per-channel accumulators.
func accumulateReading(accumulators [channelCount]channelAccumulator, sensorReading reading.SensorReading) [channelCount]channelAccumulator {
	for index, value := range channelValues(sensorReading) {
		if isPrimaryChannel(index) && value == reading.InvalidAnalyte {
			continue
		}
		accumulators[index] = accumulators[index].add(value)
	}
	return accumulators
}
