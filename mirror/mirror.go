// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aromasense/aromasense/lib/codec"
	"github.com/aromasense/aromasense/lib/hub"
	"github.com/aromasense/aromasense/lib/reading"
)

// Encoding selects the payload format of mirrored records.
type Encoding string

const (
	// EncodingJSON forwards the viewer JSON line unchanged.
	EncodingJSON Encoding = "json"
	// EncodingCBOR re-encodes the record as deterministic CBOR.
	EncodingCBOR Encoding = "cbor"
)

// ParseEncoding validates an encoding name. The empty string selects
// JSON.
func ParseEncoding(name string) (Encoding, error) {
	switch Encoding(name) {
	case "", EncodingJSON:
		return EncodingJSON, nil
	case EncodingCBOR:
		return EncodingCBOR, nil
	default:
		return "", fmt.Errorf("mirror: unknown encoding %q", name)
	}
}

// EncodePayload converts one sensor hub message to the wire payload for
// encoding.
func EncodePayload(message string, encoding Encoding) ([]byte, error) {
	switch encoding {
	case "", EncodingJSON:
		return []byte(message), nil
	case EncodingCBOR:
		decoded, err := reading.Decode([]byte(message))
		if err != nil {
			return nil, fmt.Errorf("mirror: decoding hub message: %w", err)
		}
		payload, err := codec.MarshalMessage(decoded)
		if err != nil {
			return nil, fmt.Errorf("mirror: encoding cbor: %w", err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("mirror: unknown encoding %q", encoding)
	}
}

// DescribePayload renders an encoded payload for logs: JSON as is, CBOR
// in diagnostic notation.
func DescribePayload(payload []byte, encoding Encoding) string {
	if encoding != EncodingCBOR {
		return string(payload)
	}
	notation, err := codec.Diagnose(payload)
	if err != nil {
		return fmt.Sprintf("undiagnosable cbor (%d bytes): %v", len(payload), err)
	}
	return notation
}

// Sink receives mirrored payloads.
type Sink interface {
	// Send delivers one payload. It should return promptly once ctx
	// is cancelled.
	Send(ctx context.Context, payload []byte) error

	// Name identifies the sink in logs.
	Name() string
}

// Forwarder copies every sensor hub message to a sink.
type Forwarder struct {
	Source   *hub.Hub[string]
	Sink     Sink
	Encoding Encoding

	// Logger receives structured log output. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

func (f *Forwarder) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

// Run forwards messages until ctx is cancelled or the hub is closed.
// Per-message failures are logged and never end the loop.
func (f *Forwarder) Run(ctx context.Context) error {
	if f.Source == nil || f.Sink == nil {
		return fmt.Errorf("mirror: forwarder requires Source and Sink")
	}
	if _, err := ParseEncoding(string(f.Encoding)); err != nil {
		return err
	}

	logger := f.logger().With("sink", f.Sink.Name(), "encoding", string(f.Encoding))
	subscription := f.Source.Subscribe()
	defer subscription.Close()
	logger.Info("mirror started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("mirror stopped")
			return nil
		case message, ok := <-subscription.C():
			if !ok {
				logger.Info("mirror source closed")
				return nil
			}
			if missed := subscription.TakeMissed(); missed > 0 {
				logger.Warn("mirror lagged; messages dropped", "missed", missed)
			}
			payload, err := EncodePayload(message, f.Encoding)
			if err != nil {
				logger.Warn("skipping unencodable message", "error", err)
				continue
			}
			if err := f.Sink.Send(ctx, payload); err != nil {
				if ctx.Err() != nil {
					logger.Info("mirror stopped")
					return nil
				}
				logger.Warn("mirror send failed", "error", err)
				continue
			}
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Debug("mirrored message",
					"bytes", len(payload),
					"payload", DescribePayload(payload, f.Encoding),
				)
			}
		}
	}
}
