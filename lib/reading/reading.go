// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package reading

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// SensorPrefix tags a device line carrying a sensor sample.
const SensorPrefix = "SENSOR:"

// FieldDelimiter separates the numeric fields of a sensor line.
const FieldDelimiter = ","

// FieldCount is the number of numeric fields a sensor line must carry.
// Additional trailing fields are ignored.
const FieldCount = 9

// InvalidAnalyte is the value a primary analyte channel takes when its
// field cannot be parsed. Real concentrations are never negative, so
// viewers treat it as "no valid measurement".
const InvalidAnalyte = -1.0

// ErrNotSensorLine is returned by [ParseLine] when the line does not
// start with [SensorPrefix].
var ErrNotSensorLine = errors.New("reading: line is not a sensor line")

// FieldCountError reports a sensor line with fewer than [FieldCount]
// fields. The record is dropped; the session that received it carries
// on.
type FieldCountError struct {
	Got int
}

func (e *FieldCountError) Error() string {
	return fmt.Sprintf("reading: sensor line has %d fields, need %d", e.Got, FieldCount)
}

// SensorReading is one sample from the device. It is built once per
// valid sensor line, serialized, and not retained after broadcast.
//
// Field order and JSON names are the viewer wire contract.
type SensorReading struct {
	// Timestamp is when the relay received the line, in UTC. Any
	// timestamp the device might embed in the line is ignored.
	Timestamp time.Time `json:"timestamp"`

	// Primary analyte channels. InvalidAnalyte marks a field that did
	// not parse.
	NO2 float64 `json:"no2"`
	Eth float64 `json:"eth"`
	VOC float64 `json:"voc"`
	CO  float64 `json:"co"`

	// Auxiliary (MiCS) channels. Zero when the field did not parse.
	COMics  float64 `json:"co_mics"`
	EthMics float64 `json:"eth_mics"`
	VOCMics float64 `json:"voc_mics"`

	// State is the device's operating-state code.
	State int32 `json:"state"`

	// Level is the device's alert-level code.
	Level int32 `json:"level"`
}

// fieldNames lists the JSON name of each positional field, in line
// order. ParseLine reports fallbacks by these names.
var fieldNames = [FieldCount]string{
	"no2", "eth", "voc", "co",
	"co_mics", "eth_mics", "voc_mics",
	"state", "level",
}

// IsSensorLine reports whether line carries the sensor tag.
func IsSensorLine(line string) bool {
	return strings.HasPrefix(line, SensorPrefix)
}

// IsReadyLine reports whether line is the device's readiness banner.
// Both capitalisations appear in deployed firmware.
func IsReadyLine(line string) bool {
	return strings.Contains(line, "CONNECTED") || strings.Contains(line, "Connected")
}

// ParseLine decodes a sensor line received at receivedAt.
//
// The returned slice names the fields that failed to parse and were
// replaced by their fallback value; it is nil when every field parsed.
// The error is [ErrNotSensorLine] or a [*FieldCountError]; per-field
// failures are never errors.
func ParseLine(line string, receivedAt time.Time) (SensorReading, []string, error) {
	if !IsSensorLine(line) {
		return SensorReading{}, nil, ErrNotSensorLine
	}
	content := line
	for strings.HasPrefix(content, SensorPrefix) {
		content = content[len(SensorPrefix):]
	}

	fields := strings.Split(content, FieldDelimiter)
	if len(fields) < FieldCount {
		return SensorReading{}, nil, &FieldCountError{Got: len(fields)}
	}

	var fallbacks []string
	analyte := func(index int) float64 {
		value, ok := parseFloat(fields[index])
		if !ok {
			fallbacks = append(fallbacks, fieldNames[index])
			return InvalidAnalyte
		}
		return value
	}
	auxiliary := func(index int) float64 {
		value, ok := parseFloat(fields[index])
		if !ok {
			fallbacks = append(fallbacks, fieldNames[index])
			return 0
		}
		return value
	}
	code := func(index int) int32 {
		value, err := strconv.ParseInt(fields[index], 10, 32)
		if err != nil {
			fallbacks = append(fallbacks, fieldNames[index])
			return 0
		}
		return int32(value)
	}

	reading := SensorReading{
		Timestamp: receivedAt.UTC(),
		NO2:       analyte(0),
		Eth:       analyte(1),
		VOC:       analyte(2),
		CO:        analyte(3),
		COMics:    auxiliary(4),
		EthMics:   auxiliary(5),
		VOCMics:   auxiliary(6),
		State:     code(7),
		Level:     code(8),
	}
	return reading, fallbacks, nil
}

// parseFloat parses a finite decimal float. NaN and infinities count as
// parse failures: they cannot be represented in the JSON sent to
// viewers. Hexadecimal mantissas are not part of the device protocol.
func parseFloat(field string) (float64, bool) {
	digits := strings.TrimLeft(field, "+-")
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	value, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// FieldNames returns the JSON name of each positional field, in line
// order.
func FieldNames() [FieldCount]string {
	return fieldNames
}

// FieldValues renders each positional field as text, in line order.
// Floats use the shortest representation that round-trips.
func (r SensorReading) FieldValues() [FieldCount]string {
	return [FieldCount]string{
		formatFloat(r.NO2), formatFloat(r.Eth), formatFloat(r.VOC), formatFloat(r.CO),
		formatFloat(r.COMics), formatFloat(r.EthMics), formatFloat(r.VOCMics),
		strconv.FormatInt(int64(r.State), 10), strconv.FormatInt(int64(r.Level), 10),
	}
}

// FormatLine renders the reading in the device line protocol. The
// timestamp is not part of the line. Used by the device simulator.
func (r SensorReading) FormatLine() string {
	values := r.FieldValues()
	return SensorPrefix + strings.Join(values[:], FieldDelimiter)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
