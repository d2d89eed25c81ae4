// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package viewerclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/aromasense/aromasense/lib/netutil"
	"github.com/aromasense/aromasense/lib/reading"
)

// ErrClosed is returned by SendCommand after Close.
var ErrClosed = errors.New("viewerclient: client closed")

// Options configures a [Client].
type Options struct {
	// Logger receives skipped-line warnings. If nil, slog.Default() is
	// used.
	Logger *slog.Logger

	// Buffer is the capacity of the Messages channel. Zero selects 64.
	Buffer int

	// DialContext opens the TCP connection. If nil, a zero net.Dialer
	// is used.
	DialContext func(ctx context.Context, network, address string) (net.Conn, error)
}

func (options Options) logger() *slog.Logger {
	if options.Logger != nil {
		return options.Logger
	}
	return slog.Default()
}

// Client is a connection to the relay's viewer port.
type Client struct {
	connection net.Conn
	lines      *netutil.LineReader
	messages   chan reading.Message
	logger     *slog.Logger

	writeMutex sync.Mutex
	closed     bool

	closeOnce sync.Once
	stop      chan struct{}
	finished  chan struct{}
	err       error
}

// Dial connects to the viewer port at address.
func Dial(ctx context.Context, address string, options Options) (*Client, error) {
	dialContext := options.DialContext
	if dialContext == nil {
		var dialer net.Dialer
		dialContext = dialer.DialContext
	}
	connection, err := dialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("viewerclient: dialing %s: %w", address, err)
	}
	return New(connection, options), nil
}

// New wraps an established connection.
func New(connection net.Conn, options Options) *Client {
	logger := options.logger()
	buffer := options.Buffer
	if buffer <= 0 {
		buffer = 64
	}
	logger = logger.With("relay_addr", connection.RemoteAddr().String())
	lines := netutil.ReadLines(connection, netutil.LineOptions{
		Oversized: func(discardedBytes int) {
			logger.Warn("skipping oversized relay line", "bytes", discardedBytes)
		},
	})
	client := &Client{
		connection: connection,
		lines:      lines,
		messages:   make(chan reading.Message, buffer),
		logger:     logger,
		stop:       make(chan struct{}),
		finished:   make(chan struct{}),
	}
	go client.decodeLoop()
	return client
}

func (c *Client) decodeLoop() {
	defer close(c.finished)
	defer close(c.messages)

	for line := range c.lines.Lines() {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		message, err := reading.Decode([]byte(line))
		if err != nil {
			c.logger.Warn("skipping undecodable relay line", "line", line, "error", err)
			continue
		}
		select {
		case c.messages <- message:
		case <-c.stop:
			return
		}
	}
	if err := c.lines.Err(); err != nil && !netutil.IsExpectedCloseError(err) {
		c.err = err
	}
}

// Messages delivers decoded relay messages in arrival order. It is
// closed when the relay disconnects or Close is called.
func (c *Client) Messages() <-chan reading.Message {
	return c.messages
}

// Err returns the read error that ended the stream, or nil for a clean
// disconnect. Only meaningful after Messages has been closed.
func (c *Client) Err() error {
	return c.err
}

// SendCommand writes one command line. A trailing newline is added.
func (c *Client) SendCommand(command string) error {
	if strings.ContainsAny(command, "\r\n") {
		return fmt.Errorf("viewerclient: command %q contains a line break", command)
	}

	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()
	if c.closed {
		return ErrClosed
	}
	if _, err := io.WriteString(c.connection, command+"\n"); err != nil {
		return fmt.Errorf("viewerclient: sending %s: %w", command, err)
	}
	return nil
}

// StartSampling asks the device to start sampling.
func (c *Client) StartSampling() error {
	return c.SendCommand(reading.CommandStartSampling)
}

// StopSampling asks the device to stop sampling.
func (c *Client) StopSampling() error {
	return c.SendCommand(reading.CommandStopSampling)
}

// Close disconnects and waits for the decode goroutine to exit.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMutex.Lock()
		c.closed = true
		c.writeMutex.Unlock()

		close(c.stop)
		err = c.connection.Close()
		c.lines.Stop()
		<-c.finished
	})
	return err
}
