// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package statusapi serves the relay's optional HTTP surface:
//
//	GET /healthz  "ok" while the process runs
//	GET /status   liveness flags, session counts and hub counters as JSON
//	GET /metrics  Prometheus exposition of the relay registry
//
// The surface is read-only and carries no sensor data; viewers use the
// TCP viewer port for that.
package statusapi
