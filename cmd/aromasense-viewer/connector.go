// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aromasense/aromasense/lib/viewerclient"
	"github.com/aromasense/aromasense/lib/viewerui"
)

var errConnectorClosed = errors.New("viewer is shutting down")

// relayConnector owns the viewer's current relay client and replaces it
// when the relay connection drops.
type relayConnector struct {
	address string
	options viewerclient.Options
	policy  viewerclient.RetryPolicy
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mutex   sync.Mutex
	current *viewerclient.Client
	closed  bool
}

func newRelayConnector(address string, options viewerclient.Options, policy viewerclient.RetryPolicy) *relayConnector {
	ctx, cancel := context.WithCancel(context.Background())
	return &relayConnector{
		address: address,
		options: options,
		policy:  policy,
		logger:  options.Logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// connect closes the current client, if any, and dials a new one with
// the retry policy. It implements viewerui.Reconnector.
func (c *relayConnector) connect() (viewerui.Connection, error) {
	c.mutex.Lock()
	previous := c.current
	c.current = nil
	c.mutex.Unlock()
	if previous != nil {
		previous.Close()
		if err := previous.Err(); err != nil {
			c.logger.Warn("relay connection ended", "error", err)
		} else {
			c.logger.Info("relay connection ended")
		}
	}

	client, err := viewerclient.DialWithRetry(c.ctx, c.address, c.options, c.policy)
	if err != nil {
		return viewerui.Connection{}, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		client.Close()
		return viewerui.Connection{}, errConnectorClosed
	}
	c.current = client
	c.logger.Info("connected to relay", "relay_addr", c.address)
	return viewerui.Connection{Commander: client, Messages: client.Messages()}, nil
}

// close stops any reconnect in progress and closes the current client.
func (c *relayConnector) close() {
	c.cancel()
	c.mutex.Lock()
	c.closed = true
	current := c.current
	c.current = nil
	c.mutex.Unlock()
	if current == nil {
		return
	}
	current.Close()
	if err := current.Err(); err != nil {
		c.logger.Warn("relay connection ended", "error", err)
	}
}
