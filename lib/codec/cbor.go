// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"errors"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/aromasense/aromasense/lib/reading"
)

// ErrEmptyMessage is returned by MarshalMessage for a message that
// carries neither a status event nor a reading.
var ErrEmptyMessage = errors.New("codec: message carries no record")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	var err error
	if encMode, err = encOptions.EncMode(); err != nil {
		panic("codec: building CBOR encoder: " + err.Error())
	}

	// Records decoded into any come back as map[string]any, the same
	// shape encoding/json produces for the viewer line.
	decOptions := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}
	if decMode, err = decOptions.DecMode(); err != nil {
		panic("codec: building CBOR decoder: " + err.Error())
	}
}

// Marshal encodes v deterministically.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// MarshalMessage encodes whichever record message holds. The CBOR map
// has the same keys as the JSON line viewers receive.
func MarshalMessage(message reading.Message) ([]byte, error) {
	switch {
	case message.Status != nil:
		return Marshal(message.Status)
	case message.Reading != nil:
		return Marshal(message.Reading)
	default:
		return nil, ErrEmptyMessage
	}
}

// Diagnose renders data in CBOR diagnostic notation (RFC 8949 §8).
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
