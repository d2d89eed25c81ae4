// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/aromasense/aromasense/lib/hub"
	"github.com/aromasense/aromasense/lib/reading"
)

// MQTTPublisher is the part of mqtt.Client used to publish.
type MQTTPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSubscriber is the part of mqtt.Client used to receive commands.
type MQTTSubscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// MQTTOptions configures [DialMQTT].
type MQTTOptions struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string

	// ClientID identifies this client to the broker.
	ClientID string

	// Logger receives connection state changes. If nil,
	// slog.Default() is used.
	Logger *slog.Logger
}

// DialMQTT connects to a broker with automatic reconnection enabled.
// It blocks until the first connection succeeds, fails, or ctx is
// done.
func DialMQTT(ctx context.Context, options MQTTOptions) (mqtt.Client, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("broker", options.Broker)

	clientOptions := mqtt.NewClientOptions().
		AddBroker(options.Broker).
		SetClientID(options.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.Info("mqtt connected")
		})

	client := mqtt.NewClient(clientOptions)
	if err := waitToken(ctx, client.Connect()); err != nil {
		return nil, fmt.Errorf("mirror: connecting to mqtt broker %s: %w", options.Broker, err)
	}
	return client, nil
}

// waitToken waits for token to complete or ctx to be done.
func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MQTTSink publishes each payload to a fixed topic.
type MQTTSink struct {
	client MQTTPublisher
	topic  string
	qos    byte
}

// NewMQTTSink creates a sink publishing to topic with the given QoS.
func NewMQTTSink(client MQTTPublisher, topic string, qos byte) *MQTTSink {
	return &MQTTSink{client: client, topic: topic, qos: qos}
}

// Send publishes payload and waits for the broker acknowledgement the
// QoS level implies.
func (s *MQTTSink) Send(ctx context.Context, payload []byte) error {
	if err := waitToken(ctx, s.client.Publish(s.topic, s.qos, false, payload)); err != nil {
		return fmt.Errorf("mirror: publishing to %s: %w", s.topic, err)
	}
	return nil
}

// Name returns "mqtt:<topic>".
func (s *MQTTSink) Name() string {
	return "mqtt:" + s.topic
}

// SubscribeCommands subscribes to topic and publishes every recognised
// command message to commands. Each MQTT message is one command line;
// anything else is logged and dropped, as for viewer input.
func SubscribeCommands(ctx context.Context, client MQTTSubscriber, topic string, qos byte, commands *hub.Hub[string], logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("topic", topic)

	handler := func(_ mqtt.Client, message mqtt.Message) {
		line := strings.TrimRight(string(message.Payload()), "\r\n")
		if !reading.IsCommand(line) {
			logger.Info("ignoring unrecognised mqtt command", "payload", line)
			return
		}
		delivered := commands.Publish(line)
		logger.Debug("mqtt command published", "command", line, "devices", delivered)
	}

	if err := waitToken(ctx, client.Subscribe(topic, qos, handler)); err != nil {
		return fmt.Errorf("mirror: subscribing to %s: %w", topic, err)
	}
	logger.Info("listening for mqtt commands")
	return nil
}

// LogWriter is an io.Writer that publishes each write to an MQTT topic
// without waiting for delivery. Combine it with os.Stderr through
// io.MultiWriter to mirror the process log.
type LogWriter struct {
	client MQTTPublisher
	topic  string
}

// NewLogWriter creates a writer publishing to topic at QoS 0.
func NewLogWriter(client MQTTPublisher, topic string) *LogWriter {
	return &LogWriter{client: client, topic: topic}
}

// Write publishes a copy of p. It never fails, so a broker outage
// cannot break logging.
func (w *LogWriter) Write(p []byte) (int, error) {
	payload := make([]byte, len(p))
	copy(payload, p)
	w.client.Publish(w.topic, 0, false, payload)
	return len(p), nil
}
