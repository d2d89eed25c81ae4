// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

// Package hub provides a bounded, best-effort fan-out channel.
//
// A [Hub] delivers every published message to every [Subscription]
// that existed when the message was published. Delivery is
// at-most-once: [Hub.Publish] never blocks and never fails, including
// when there are no subscribers (the message is simply discarded).
//
// Each subscription owns a queue of the hub's capacity. When a
// subscriber falls behind and its queue is full, the oldest queued
// message is evicted to make room for the new one and the
// subscription's missed counter grows. The subscriber observes the gap
// through [Subscription.TakeMissed]. A slow subscriber never delays
// the publisher or any other subscriber.
//
// The relay uses two hubs: serialized sensor and status records flow
// from the device session to every viewer, and command lines flow from
// viewers to the device session.
package hub
