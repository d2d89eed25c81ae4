// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package reading

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownMessage is returned by [Decode] for a well-formed JSON
// object that is neither a status event nor a sensor reading.
var ErrUnknownMessage = errors.New("reading: unknown message")

// Message is one decoded viewer-side record. Exactly one of Status and
// Reading is set.
type Message struct {
	Status  *StatusEvent
	Reading *SensorReading
}

// Encode serializes a SensorReading or StatusEvent as one JSON record,
// without a trailing newline. The session that writes it to the socket
// appends the newline.
func Encode(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("reading: encode %T: %w", value, err)
	}
	return string(data), nil
}

// Decode parses one viewer-side record. A record whose "type" is
// [TypeConnectionStatus] decodes as a StatusEvent; a record carrying a
// "no2" field decodes as a SensorReading; anything else is
// [ErrUnknownMessage].
func Decode(data []byte) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Message{}, fmt.Errorf("reading: decode: %w", err)
	}

	if rawType, ok := fields["type"]; ok {
		var messageType string
		if err := json.Unmarshal(rawType, &messageType); err != nil {
			return Message{}, fmt.Errorf("reading: decode type: %w", err)
		}
		if messageType != TypeConnectionStatus {
			return Message{}, fmt.Errorf("%w: type %q", ErrUnknownMessage, messageType)
		}
		var status StatusEvent
		if err := json.Unmarshal(data, &status); err != nil {
			return Message{}, fmt.Errorf("reading: decode status: %w", err)
		}
		return Message{Status: &status}, nil
	}

	if _, ok := fields["no2"]; ok {
		var sample SensorReading
		if err := json.Unmarshal(data, &sample); err != nil {
			return Message{}, fmt.Errorf("reading: decode sensor reading: %w", err)
		}
		return Message{Reading: &sample}, nil
	}

	return Message{}, ErrUnknownMessage
}
