// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the AromaSense
// binaries.
//
// [GitCommit], [GitDirty], [BuildTime] and [Version] are injected with
// -ldflags -X:
//
//	go build -ldflags "-X github.com/aromasense/aromasense/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/...
//
// They default to "unknown" and "0.1.0-dev" in development builds and
// test runs. [Info] is the --version output; [Full] adds the Go
// toolchain and platform.
package version
