// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"io"
	"log/slog"
	"net"

	"github.com/aromasense/aromasense/lib/netutil"
)

// session holds what both session kinds share: the connection, its
// line reader, and a logger tagged with the session identity.
type session struct {
	connection net.Conn
	lines      *netutil.LineReader
	logger     *slog.Logger
	stopWatch  func() bool
}

// openSession starts reading lines from connection. Cancelling ctx
// closes the connection, which unblocks any pending read or write.
func (r *Relay) openSession(ctx context.Context, connection net.Conn, role string, sessionID uint64) *session {
	logger := r.logger().With(
		"role", role,
		"session_id", sessionID,
		"remote_addr", connection.RemoteAddr().String(),
	)
	lines := netutil.ReadLines(connection, netutil.LineOptions{
		Oversized: func(discardedBytes int) {
			r.metrics.oversizedLine(role)
			logger.Warn("dropped oversized line",
				"bytes", discardedBytes,
				"limit", netutil.DefaultMaxLineBytes,
			)
		},
	})
	return &session{
		connection: connection,
		lines:      lines,
		logger:     logger,
		stopWatch:  context.AfterFunc(ctx, func() { connection.Close() }),
	}
}

// close tears the connection down and waits for the reader goroutine
// to exit.
func (s *session) close() {
	s.stopWatch()
	s.connection.Close()
	s.lines.Stop()
	for range s.lines.Lines() {
	}
}

func (s *session) writeLine(line string) error {
	_, err := io.WriteString(s.connection, line+"\n")
	return err
}

// logReadEnd records why the peer's line stream ended.
func (s *session) logReadEnd(ctx context.Context) {
	err := s.lines.Err()
	switch {
	case ctx.Err() != nil:
		s.logger.Info("session ending: relay shutting down")
	case err == nil || netutil.IsExpectedCloseError(err):
		s.logger.Info("peer closed connection")
	default:
		s.logger.Warn("read failed", "error", err)
	}
}

// logWriteFailure records a write error that ends the session.
func (s *session) logWriteFailure(ctx context.Context, err error) {
	switch {
	case ctx.Err() != nil:
		s.logger.Info("session ending: relay shutting down")
	case netutil.IsExpectedCloseError(err):
		s.logger.Info("peer went away during write", "error", err)
	default:
		s.logger.Warn("write failed", "error", err)
	}
}
