// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// aromasense-relay bridges one AromaSense sensing device and any number
// of viewers over TCP. The device connects to the device port (8081 by
// default) and streams SENSOR lines; viewers connect to the viewer port
// (8082) and receive each reading as a JSON record together with
// connection status events. Commands typed by viewers are forwarded to
// the device.
//
// Configuration comes from the YAML file named by --config or
// AROMASENSE_CONFIG; flags override individual file values. When
// configured, the relay also serves /healthz, /status and /metrics over
// HTTP and mirrors sensor records to MQTT and Kafka.
package main
