// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the entrypoint error handler shared by the
// AromaSense binaries. It covers the one case where output goes to
// stderr directly: a startup failure before the structured logger
// exists, or one that must end the process.
package process
