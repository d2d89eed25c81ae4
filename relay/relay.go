// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aromasense/aromasense/lib/clock"
	"github.com/aromasense/aromasense/lib/hub"
	"github.com/aromasense/aromasense/lib/liveness"
)

// Accept retry bounds. A listener that keeps failing (file descriptor
// exhaustion, for example) is retried with doubling delays so the loop
// does not spin.
const (
	acceptBackoffInitial = 5 * time.Millisecond
	acceptBackoffMax     = time.Second
)

// Config configures a [Relay].
type Config struct {
	// DeviceListenAddr is the TCP address the device connects to, for
	// example "0.0.0.0:8081". Port 0 picks a free port.
	DeviceListenAddr string

	// ViewerListenAddr is the TCP address viewers connect to, for
	// example "0.0.0.0:8082".
	ViewerListenAddr string

	// HubCapacity is how many messages a subscriber may fall behind
	// before it loses the oldest. Zero selects hub.DefaultCapacity.
	HubCapacity int

	// Clock stamps readings and paces accept retries. Nil selects the
	// wall clock.
	Clock clock.Clock

	// Logger receives structured log output. Nil selects
	// slog.Default().
	Logger *slog.Logger

	// Metrics records relay activity. Nil disables metrics.
	Metrics *Metrics
}

// Relay is the device-to-viewers bridge. Create one with [New], then
// call [Relay.Start].
type Relay struct {
	config  Config
	clock   clock.Clock
	metrics *Metrics

	state      *liveness.State
	sensorHub  *hub.Hub[string]
	commandHub *hub.Hub[string]

	// statusMutex orders device flag changes with their broadcasts.
	statusMutex sync.Mutex

	deviceListener net.Listener
	viewerListener net.Listener

	cancel        context.CancelFunc
	done          chan struct{}
	sessions      sync.WaitGroup
	nextSessionID atomic.Uint64
}

// Status is a point-in-time view of the relay for the status API.
type Status struct {
	Liveness   liveness.Snapshot `json:"liveness"`
	SensorHub  hub.Stats         `json:"sensor_hub"`
	CommandHub hub.Stats         `json:"command_hub"`
}

// New creates a relay. The hubs and liveness state exist immediately,
// so mirrors may subscribe before Start.
func New(config Config) *Relay {
	capacity := config.HubCapacity
	if capacity <= 0 {
		capacity = hub.DefaultCapacity
	}
	relayClock := config.Clock
	if relayClock == nil {
		relayClock = clock.Real()
	}
	return &Relay{
		config:     config,
		clock:      relayClock,
		metrics:    config.Metrics,
		state:      liveness.New(),
		sensorHub:  hub.New[string](capacity),
		commandHub: hub.New[string](capacity),
	}
}

func (r *Relay) logger() *slog.Logger {
	if r.config.Logger != nil {
		return r.config.Logger
	}
	return slog.Default()
}

// Start binds both listeners and begins accepting connections. It
// returns an error, with neither listener left open, if either address
// cannot be bound. The relay runs until Stop is called or ctx is
// cancelled.
func (r *Relay) Start(ctx context.Context) error {
	if r.config.DeviceListenAddr == "" {
		return errors.New("relay: DeviceListenAddr is required")
	}
	if r.config.ViewerListenAddr == "" {
		return errors.New("relay: ViewerListenAddr is required")
	}

	deviceListener, err := net.Listen("tcp", r.config.DeviceListenAddr)
	if err != nil {
		return fmt.Errorf("relay: binding device listener on %s: %w", r.config.DeviceListenAddr, err)
	}
	viewerListener, err := net.Listen("tcp", r.config.ViewerListenAddr)
	if err != nil {
		deviceListener.Close()
		return fmt.Errorf("relay: binding viewer listener on %s: %w", r.config.ViewerListenAddr, err)
	}
	r.deviceListener = deviceListener
	r.viewerListener = viewerListener

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	// Closing the listeners is what unblocks Accept.
	context.AfterFunc(ctx, func() {
		deviceListener.Close()
		viewerListener.Close()
	})

	var loops sync.WaitGroup
	loops.Add(2)
	go func() {
		defer loops.Done()
		r.acceptLoop(ctx, deviceListener, RoleDevice, r.runDeviceSession)
	}()
	go func() {
		defer loops.Done()
		r.acceptLoop(ctx, viewerListener, RoleViewer, r.runViewerSession)
	}()

	go func() {
		defer close(r.done)
		loops.Wait()
		r.sessions.Wait()
		// Subscribers outside the relay (mirrors) see their channels
		// close once no session can publish again.
		r.sensorHub.Close()
		r.commandHub.Close()
	}()

	r.logger().Info("relay started",
		"device_addr", deviceListener.Addr().String(),
		"viewer_addr", viewerListener.Addr().String(),
	)
	return nil
}

// DeviceAddr returns the bound device listener address, or nil before
// Start.
func (r *Relay) DeviceAddr() net.Addr {
	if r.deviceListener == nil {
		return nil
	}
	return r.deviceListener.Addr()
}

// ViewerAddr returns the bound viewer listener address, or nil before
// Start.
func (r *Relay) ViewerAddr() net.Addr {
	if r.viewerListener == nil {
		return nil
	}
	return r.viewerListener.Addr()
}

// SensorHub carries encoded JSON records (no trailing newline) from
// device sessions to viewers and mirrors.
func (r *Relay) SensorHub() *hub.Hub[string] {
	return r.sensorHub
}

// CommandHub carries command lines from viewers (and the MQTT command
// ingress) to device sessions.
func (r *Relay) CommandHub() *hub.Hub[string] {
	return r.commandHub
}

// State returns the shared liveness record.
func (r *Relay) State() *liveness.State {
	return r.state
}

// Status reports liveness and hub counters.
func (r *Relay) Status() Status {
	return Status{
		Liveness:   r.state.Snapshot(),
		SensorHub:  r.sensorHub.Stats(),
		CommandHub: r.commandHub.Stats(),
	}
}

// Stop closes both listeners, ends every session, and waits for all of
// them to finish.
func (r *Relay) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.Wait()
}

// Wait blocks until the relay has stopped.
func (r *Relay) Wait() {
	if r.done != nil {
		<-r.done
	}
}

type sessionHandler func(ctx context.Context, connection net.Conn, sessionID uint64)

// acceptLoop accepts connections until ctx is cancelled, starting one
// session goroutine per connection.
func (r *Relay) acceptLoop(ctx context.Context, listener net.Listener, role string, handle sessionHandler) {
	var backoff time.Duration
	for {
		connection, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, net.ErrClosed) {
				r.logger().Error("listener closed unexpectedly", "role", role)
				return
			}
			r.metrics.acceptFailed(role)
			backoff = nextAcceptBackoff(backoff)
			r.logger().Error("accept failed",
				"role", role,
				"error", err,
				"retry_in", backoff,
			)
			select {
			case <-r.clock.After(backoff):
			case <-ctx.Done():
				return
			}
			continue
		}
		backoff = 0

		sessionID := r.nextSessionID.Add(1)
		r.sessions.Add(1)
		go func() {
			defer r.sessions.Done()
			handle(ctx, connection, sessionID)
		}()
	}
}

func nextAcceptBackoff(current time.Duration) time.Duration {
	if current <= 0 {
		return acceptBackoffInitial
	}
	return min(current*2, acceptBackoffMax)
}
