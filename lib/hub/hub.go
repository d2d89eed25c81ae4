// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package hub

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the per-subscriber queue depth used by the relay.
const DefaultCapacity = 100

// Hub is a fan-out channel for values of type T. All methods are safe
// for concurrent use.
type Hub[T any] struct {
	// mutex serializes publishers against each other and against
	// subscription changes. Publish only performs non-blocking channel
	// operations while holding it.
	mutex       sync.Mutex
	capacity    int
	subscribers map[uint64]*Subscription[T]
	nextID      uint64
	closed      bool

	published atomic.Uint64
	unrouted  atomic.Uint64
	dropped   atomic.Uint64
}

// Stats are cumulative counters for a hub.
type Stats struct {
	// Published counts every Publish call, including unrouted ones.
	Published uint64 `json:"published"`

	// Unrouted counts messages published while nobody was subscribed.
	Unrouted uint64 `json:"unrouted"`

	// Dropped counts per-subscriber evictions caused by lagging
	// subscribers.
	Dropped uint64 `json:"dropped"`

	// Subscribers is the current subscription count.
	Subscribers int `json:"subscribers"`
}

// New creates a hub whose subscriptions each queue up to capacity
// messages. Panics if capacity is not positive.
func New[T any](capacity int) *Hub[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("hub: capacity must be positive, got %d", capacity))
	}
	return &Hub[T]{
		capacity:    capacity,
		subscribers: make(map[uint64]*Subscription[T]),
	}
}

// Publish queues message for every current subscriber and returns how
// many subscribers it was queued for. It never blocks. A subscriber
// whose queue is full loses its oldest queued message instead.
// Publishing to a closed hub is a no-op that returns 0.
func (hub *Hub[T]) Publish(message T) int {
	hub.published.Add(1)

	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	if hub.closed || len(hub.subscribers) == 0 {
		hub.unrouted.Add(1)
		return 0
	}

	for _, subscription := range hub.subscribers {
		select {
		case subscription.channel <- message:
			continue
		default:
		}

		// Queue full: evict the oldest entry. The subscriber may have
		// drained one concurrently, in which case there is nothing to
		// evict and the send below still succeeds. Only publishers
		// send, and they hold the mutex, so the send cannot block.
		select {
		case <-subscription.channel:
			subscription.missed.Add(1)
			hub.dropped.Add(1)
		default:
		}
		select {
		case subscription.channel <- message:
		default:
			subscription.missed.Add(1)
			hub.dropped.Add(1)
		}
	}
	return len(hub.subscribers)
}

// Subscribe returns a subscription that receives every message
// published after this call. Subscribing to a closed hub returns a
// subscription whose channel is already closed.
func (hub *Hub[T]) Subscribe() *Subscription[T] {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	subscription := &Subscription[T]{
		hub:     hub,
		channel: make(chan T, hub.capacity),
	}
	if hub.closed {
		subscription.closed = true
		close(subscription.channel)
		return subscription
	}

	hub.nextID++
	subscription.id = hub.nextID
	hub.subscribers[subscription.id] = subscription
	return subscription
}

// SubscriberCount returns the number of open subscriptions.
func (hub *Hub[T]) SubscriberCount() int {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	return len(hub.subscribers)
}

// Stats returns the hub's cumulative counters.
func (hub *Hub[T]) Stats() Stats {
	return Stats{
		Published:   hub.published.Load(),
		Unrouted:    hub.unrouted.Load(),
		Dropped:     hub.dropped.Load(),
		Subscribers: hub.SubscriberCount(),
	}
}

// Close closes every subscription's channel and makes further
// publishes no-ops. Messages already queued remain readable until the
// subscriber drains them. Close is idempotent.
func (hub *Hub[T]) Close() {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	if hub.closed {
		return
	}
	hub.closed = true
	for id, subscription := range hub.subscribers {
		delete(hub.subscribers, id)
		subscription.closed = true
		close(subscription.channel)
	}
}

// Subscription is one subscriber's view of a hub.
type Subscription[T any] struct {
	hub     *Hub[T]
	id      uint64
	channel chan T
	missed  atomic.Uint64
	// closed is guarded by hub.mutex.
	closed bool
}

// C returns the channel messages arrive on. It is closed when the
// subscription or its hub is closed.
func (subscription *Subscription[T]) C() <-chan T {
	return subscription.channel
}

// TakeMissed returns the number of messages evicted from this
// subscription's queue since the previous call, and resets the count.
// A non-zero result is the subscriber's "missed messages" event.
func (subscription *Subscription[T]) TakeMissed() uint64 {
	return subscription.missed.Swap(0)
}

// Close unsubscribes and closes the channel. Close is idempotent.
func (subscription *Subscription[T]) Close() {
	hub := subscription.hub
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	if subscription.closed {
		return
	}
	subscription.closed = true
	delete(hub.subscribers, subscription.id)
	close(subscription.channel)
}
