// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package reading is the record codec shared by the relay, its mirrors,
// and viewer clients.
//
// The device side of the relay speaks a line protocol. A sensor line is
// the tag "SENSOR:" followed by nine comma-separated numbers in fixed
// order:
//
//	SENSOR:no2,eth,voc,co,co_mics,eth_mics,voc_mics,state,level
//
// [ParseLine] turns such a line into a [SensorReading] stamped with the
// time the relay received it. A line with fewer than nine fields is
// rejected with a [*FieldCountError]. A field that does not parse never
// rejects the record: the four primary analyte channels fall back to
// [InvalidAnalyte] and every other field falls back to zero, so one
// noisy channel cannot discard an otherwise valid sample.
//
// The viewer side receives newline-delimited JSON records. [Encode]
// produces one record (without the trailing newline); [Decode] is the
// inverse used by viewer clients and mirrors and dispatches between a
// [StatusEvent] and a [SensorReading].
//
// Viewers may send control lines. [IsCommand] recognises the two
// commands the relay forwards to the device; everything else is
// dropped by the caller.
package reading
