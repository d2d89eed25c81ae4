// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireClosed], and [RequireEventually] wrap the
// timeout safety valve pattern (a select or poll bounded by a
// wall-clock deadline) so that individual tests never hang on a
// missing message and never call time.After directly. These are the
// only real-clock waits in the test suite; production code under test
// receives a fake clock from lib/clock.
//
// [ReadLine] reads one newline-terminated line from a network
// connection under a deadline, which is how relay tests observe what a
// device or viewer peer receives.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since a timed-out wait is not recoverable.
package testutil
