// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package statusapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 5 * time.Second

// Server serves the status routes on a TCP address.
type Server struct {
	// Addr is the listen address, e.g. "127.0.0.1:9100".
	Addr string

	Source   StatusSource
	Gatherer prometheus.Gatherer

	// Logger receives structured log output. If nil, slog.Default() is
	// used.
	Logger *slog.Logger

	listener net.Listener
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Listen binds the listener. Serve calls it when needed; call it first
// to learn the bound address of a ":0" listener.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	if s.Source == nil {
		return errors.New("statusapi: Source is required")
	}
	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("statusapi: listening on %s: %w", s.Addr, err)
	}
	s.listener = listener
	return nil
}

// BoundAddr returns the bound address, or nil before Listen.
func (s *Server) BoundAddr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	logger := s.logger()
	server := &http.Server{
		Handler:           Wrap(NewRouter(s.Source, s.Gatherer), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(s.listener)
	}()
	logger.Info("status api listening", "addr", s.listener.Addr().String())

	select {
	case err := <-serveErr:
		return fmt.Errorf("statusapi: serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("statusapi: shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("statusapi: serving: %w", err)
	}
	return nil
}
