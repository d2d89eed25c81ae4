// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"sync"
)

// DefaultMaxLineBytes bounds a single protocol line. Device lines are a
// few dozen bytes and viewer records a few hundred; anything past
// 64 KiB without a newline is not protocol traffic.
const DefaultMaxLineBytes = 64 * 1024

// LineOptions configures [ReadLines].
type LineOptions struct {
	// MaxLineBytes bounds a line, excluding its terminator. Longer
	// lines are skipped up to and including the next newline and the
	// stream carries on. Zero selects DefaultMaxLineBytes.
	MaxLineBytes int

	// Oversized, when set, is called on the reader goroutine with the
	// size of every skipped line.
	Oversized func(discardedBytes int)
}

// LineReader reads newline-terminated lines from a reader on a
// background goroutine. Trailing "\n" and "\r\n" are stripped.
type LineReader struct {
	lines    chan string
	stop     chan struct{}
	stopOnce sync.Once
	// err is written before lines is closed and read only after.
	err error
}

// ReadLines starts reading lines from reader.
func ReadLines(reader io.Reader, options LineOptions) *LineReader {
	if options.MaxLineBytes <= 0 {
		options.MaxLineBytes = DefaultMaxLineBytes
	}
	lineReader := &LineReader{
		lines: make(chan string),
		stop:  make(chan struct{}),
	}
	go lineReader.run(reader, options)
	return lineReader
}

func (lineReader *LineReader) run(reader io.Reader, options LineOptions) {
	defer close(lineReader.lines)

	// Room for a "\r\n" after a line of exactly MaxLineBytes.
	buffered := bufio.NewReaderSize(reader, options.MaxLineBytes+2)
	for {
		line, err := buffered.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			discarded := len(line)
			for errors.Is(err, bufio.ErrBufferFull) {
				line, err = buffered.ReadSlice('\n')
				discarded += len(line)
			}
			if options.Oversized != nil {
				options.Oversized(discarded)
			}
			if err == nil {
				continue
			}
			line = nil
		}

		if len(line) > 0 {
			text := string(bytes.TrimSuffix(bytes.TrimSuffix(line, []byte("\n")), []byte("\r")))
			select {
			case lineReader.lines <- text:
			case <-lineReader.stop:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				lineReader.err = err
			}
			return
		}
	}
}

// Lines returns the channel lines are delivered on. It is closed at
// end of input, on a read error, or after Stop.
func (lineReader *LineReader) Lines() <-chan string {
	return lineReader.lines
}

// Err returns the read error that ended the stream, or nil at a clean
// end of input. Only meaningful after Lines has been closed.
func (lineReader *LineReader) Err() error {
	return lineReader.err
}

// Stop abandons reading. A goroutine blocked delivering a line exits;
// one blocked in Read exits once the caller closes the underlying
// connection.
func (lineReader *LineReader) Stop() {
	lineReader.stopOnce.Do(func() { close(lineReader.stop) })
}
