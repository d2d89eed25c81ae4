// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package mirror copies relay traffic to message brokers.
//
// A [Forwarder] subscribes to the relay's sensor hub exactly like a
// viewer does and hands each record to a [Sink]. Delivery follows the
// hub's contract: best effort, never backpressuring the device. When a
// sink is slower than the device the forwarder loses the oldest queued
// records and logs how many; a send error drops that one record.
//
// Two sinks are provided. [MQTTSink] publishes to a topic through an
// eclipse/paho client; [KafkaSink] writes to a topic through a
// segmentio/kafka-go writer. Payloads are either the viewer JSON line
// unchanged or the same record re-encoded as deterministic CBOR (see
// lib/codec).
//
// [SubscribeCommands] is the reverse path for MQTT: recognised command
// messages on a topic are published to the relay's command hub, so a
// remote operator can start and stop sampling without a TCP viewer.
// [LogWriter] forwards the process log to a topic.
package mirror
