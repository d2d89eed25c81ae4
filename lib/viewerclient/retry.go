// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package viewerclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aromasense/aromasense/lib/clock"
)

const (
	// DefaultAttempts is how many dials DialWithRetry makes before
	// giving up.
	DefaultAttempts = 5

	// DefaultRetryDelay separates consecutive dials.
	DefaultRetryDelay = 2 * time.Second

	// DefaultAttemptTimeout bounds a single dial.
	DefaultAttemptTimeout = 5 * time.Second
)

// ErrRelayUnreachable is wrapped by the error DialWithRetry returns
// once every attempt has failed.
var ErrRelayUnreachable = errors.New("viewerclient: relay unreachable")

// RetryPolicy bounds [DialWithRetry]. Zero fields select the defaults.
type RetryPolicy struct {
	Attempts       int
	Delay          time.Duration
	AttemptTimeout time.Duration

	// Clock paces the delay between attempts. If nil, clock.Real() is
	// used.
	Clock clock.Clock
}

// DialWithRetry dials address up to policy.Attempts times, waiting
// policy.Delay between failures. It returns early if ctx is cancelled.
func DialWithRetry(ctx context.Context, address string, options Options, policy RetryPolicy) (*Client, error) {
	attempts := policy.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	delay := policy.Delay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	attemptTimeout := policy.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	retryClock := policy.Clock
	if retryClock == nil {
		retryClock = clock.Real()
	}
	logger := options.logger()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptContext, cancel := context.WithTimeout(ctx, attemptTimeout)
		client, err := Dial(attemptContext, address, options)
		cancel()
		if err == nil {
			if attempt > 1 {
				logger.Info("connected to relay after retrying", "relay_addr", address, "attempt", attempt)
			}
			return client, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, fmt.Errorf("viewerclient: dialing %s: %w", address, ctx.Err())
		}
		logger.Warn("relay dial failed",
			"relay_addr", address,
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err,
		)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("viewerclient: dialing %s: %w", address, ctx.Err())
		case <-retryClock.After(delay):
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRelayUnreachable, attempts, lastErr)
}
