// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aromasense/aromasense/lib/codec"
	"github.com/aromasense/aromasense/lib/hub"
	"github.com/aromasense/aromasense/lib/reading"
	"github.com/aromasense/aromasense/lib/testutil"
)

const sampleReadingLine = `{"timestamp":"2026-05-01T12:00:00Z","no2":12.5,"eth":3.1,"voc":0.9,"co":0.2,"co_mics":100,"eth_mics":50,"voc_mics":20,"state":1,"level":2}`

// recordingSink captures payloads; it fails every send while failing is
// set.
type recordingSink struct {
	mutex    sync.Mutex
	failing  bool
	attempts int
	payloads chan []byte
}

func newRecordingSink() *recordingSink {
	return &recordingSink{payloads: make(chan []byte, 16)}
}

func (s *recordingSink) Send(_ context.Context, payload []byte) error {
	s.mutex.Lock()
	s.attempts++
	failing := s.failing
	s.mutex.Unlock()
	if failing {
		return errors.New("broker unavailable")
	}
	s.payloads <- payload
	return nil
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) attemptCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.attempts
}

func (s *recordingSink) setFailing(failing bool) {
	s.mutex.Lock()
	s.failing = failing
	s.mutex.Unlock()
}

func startForwarder(t *testing.T, source *hub.Hub[string], sink Sink, encoding Encoding) (cancel func(), done <-chan struct{}) {
	t.Helper()
	ctx, cancelFunc := context.WithCancel(context.Background())
	forwarder := &Forwarder{
		Source:   source,
		Sink:     sink,
		Encoding: encoding,
		Logger:   slog.New(slog.DiscardHandler),
	}
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		if err := forwarder.Run(ctx); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()
	testutil.RequireEventually(t, func() bool { return source.SubscriberCount() == 1 }, time.Second, "forwarder subscription")
	t.Cleanup(func() {
		cancelFunc()
		<-finished
	})
	return cancelFunc, finished
}

func TestParseEncoding(t *testing.T) {
	for _, name := range []string{"", "json", "cbor"} {
		if _, err := ParseEncoding(name); err != nil {
			t.Errorf("ParseEncoding(%q): %v", name, err)
		}
	}
	if _, err := ParseEncoding("avro"); err == nil {
		t.Error("ParseEncoding(avro) should fail")
	}
}

func TestEncodePayload_JSONPassThrough(t *testing.T) {
	payload, err := EncodePayload(sampleReadingLine, EncodingJSON)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	if string(payload) != sampleReadingLine {
		t.Errorf("payload = %s, want the hub line unchanged", payload)
	}
}

func TestEncodePayload_CBORReading(t *testing.T) {
	payload, err := EncodePayload(sampleReadingLine, EncodingCBOR)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	var decoded reading.SensorReading
	if err := codec.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.NO2 != 12.5 || decoded.COMics != 100 || decoded.Level != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if !decoded.Timestamp.Equal(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", decoded.Timestamp)
	}
}

func TestEncodePayload_CBORStatus(t *testing.T) {
	line, err := reading.Encode(reading.NewStatusEvent(true))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	payload, err := EncodePayload(line, EncodingCBOR)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	var decoded reading.StatusEvent
	if err := codec.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != reading.NewStatusEvent(true) {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestEncodePayload_CBORRejectsUnknownMessage(t *testing.T) {
	if _, err := EncodePayload(`{"hello":"world"}`, EncodingCBOR); err == nil {
		t.Error("expected error for a message that is neither status nor reading")
	}
}

func TestForwarder_CopiesHubMessages(t *testing.T) {
	source := hub.New[string](8)
	sink := newRecordingSink()
	startForwarder(t, source, sink, EncodingJSON)

	source.Publish(sampleReadingLine)
	got := testutil.RequireReceive(t, sink.payloads, time.Second, "mirrored payload")
	if string(got) != sampleReadingLine {
		t.Errorf("payload = %s", got)
	}
}

func TestForwarder_SendFailureDropsOnlyThatMessage(t *testing.T) {
	source := hub.New[string](8)
	sink := newRecordingSink()
	startForwarder(t, source, sink, EncodingJSON)

	sink.setFailing(true)
	source.Publish(`{"type":"connection_status","arduino_connected":true,"backend_connected":true}`)
	testutil.RequireEventually(t, func() bool {
		return sink.attemptCount() == 1
	}, time.Second, "waiting for the failed send")

	sink.setFailing(false)
	source.Publish(sampleReadingLine)

	got := testutil.RequireReceive(t, sink.payloads, time.Second, "payload after recovery")
	if string(got) != sampleReadingLine {
		t.Errorf("payload = %s, want the reading sent after recovery", got)
	}
}

func TestForwarder_SkipsUnencodableMessages(t *testing.T) {
	source := hub.New[string](8)
	sink := newRecordingSink()
	startForwarder(t, source, sink, EncodingCBOR)

	source.Publish("not json")
	source.Publish(sampleReadingLine)

	got := testutil.RequireReceive(t, sink.payloads, time.Second, "cbor payload")
	var decoded reading.SensorReading
	if err := codec.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("first delivered payload is not the reading: %v", err)
	}
}

func TestForwarder_StopsWhenHubCloses(t *testing.T) {
	source := hub.New[string](8)
	_, done := startForwarder(t, source, newRecordingSink(), EncodingJSON)

	source.Close()
	testutil.RequireClosed(t, done, time.Second, "forwarder should exit when the hub closes")
}

func TestForwarder_RequiresSourceAndSink(t *testing.T) {
	forwarder := &Forwarder{Sink: newRecordingSink()}
	if err := forwarder.Run(context.Background()); err == nil {
		t.Error("Run without Source should fail")
	}
}

func TestDescribePayload(t *testing.T) {
	payload, err := EncodePayload(sampleReadingLine, EncodingCBOR)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	notation := DescribePayload(payload, EncodingCBOR)
	for _, want := range []string{`"no2": 12.5`, `"2026-05-01T12:00:00Z"`} {
		if !strings.Contains(notation, want) {
			t.Errorf("notation %q does not contain %s", notation, want)
		}
	}

	if got := DescribePayload([]byte(sampleReadingLine), EncodingJSON); got != sampleReadingLine {
		t.Errorf("json description = %q, want the payload unchanged", got)
	}
	if got := DescribePayload([]byte{0xff, 0x00}, EncodingCBOR); !strings.Contains(got, "undiagnosable") {
		t.Errorf("malformed cbor description = %q", got)
	}
}

// logLines hands each slog record written to it to the test.
type logLines chan string

func (l logLines) Write(data []byte) (int, error) {
	l <- string(data)
	return len(data), nil
}

func TestForwarder_DebugLogShowsDiagnosticNotation(t *testing.T) {
	source := hub.New[string](8)
	sink := newRecordingSink()
	records := make(logLines, 16)
	ctx, cancel := context.WithCancel(context.Background())
	forwarder := &Forwarder{
		Source:   source,
		Sink:     sink,
		Encoding: EncodingCBOR,
		Logger:   slog.New(slog.NewTextHandler(records, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		forwarder.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-finished
	})
	testutil.RequireEventually(t, func() bool { return source.SubscriberCount() == 1 }, time.Second, "forwarder subscription")

	source.Publish(sampleReadingLine)
	testutil.RequireReceive(t, sink.payloads, time.Second, "cbor payload")
	for {
		record := testutil.RequireReceive(t, records, time.Second, "mirrored message log record")
		if !strings.Contains(record, "mirrored message") {
			continue
		}
		if !strings.Contains(record, "no2") || !strings.Contains(record, "12.5") {
			t.Errorf("debug record %q does not show the decoded payload", record)
		}
		return
	}
}
