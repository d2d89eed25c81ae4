// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR encoding configuration used when relay
// traffic leaves the process in binary form.
//
// Viewers always receive JSON lines. Mirrors (MQTT, Kafka) may be
// configured to carry CBOR instead, which roughly halves the size of a
// sensor reading on constrained links. Every CBOR producer goes through
// this package so that identical readings encode to identical bytes.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Timestamps are written as RFC 3339 text with nanosecond precision so
// a CBOR record and its JSON counterpart carry the same instant.
//
// Types shared between the viewer protocol and the mirrors use `json`
// struct tags only; fxamacker/cbor falls back to them when no `cbor`
// tag is present, so one tag set names fields in both formats.
package codec
