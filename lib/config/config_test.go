// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Device.Listen != "0.0.0.0:8081" {
		t.Errorf("device.listen = %q, want 0.0.0.0:8081", cfg.Device.Listen)
	}
	if cfg.Viewer.Listen != "0.0.0.0:8082" {
		t.Errorf("viewer.listen = %q, want 0.0.0.0:8082", cfg.Viewer.Listen)
	}
	if cfg.Hub.Capacity != 100 {
		t.Errorf("hub.capacity = %d, want 100", cfg.Hub.Capacity)
	}
	if cfg.Status.Listen != "" {
		t.Errorf("status.listen = %q, want disabled", cfg.Status.Listen)
	}
	if cfg.MQTTEnabled() || cfg.KafkaEnabled() {
		t.Error("mirrors should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_WithoutVariableUsesDefault(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Viewer.Listen != Default().Viewer.Listen {
		t.Errorf("viewer.listen = %q, want default", cfg.Viewer.Listen)
	}
}

func TestLoad_WithVariable(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "aromasense.yaml")
	content := `
device:
  listen: 127.0.0.1:9081
hub:
  capacity: 16
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv(EnvironmentVariable, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Device.Listen != "127.0.0.1:9081" {
		t.Errorf("device.listen = %q", cfg.Device.Listen)
	}
	if cfg.Hub.Capacity != 16 {
		t.Errorf("hub.capacity = %d, want 16", cfg.Hub.Capacity)
	}
	// Untouched sections keep their defaults.
	if cfg.Viewer.Listen != "0.0.0.0:8082" {
		t.Errorf("viewer.listen = %q, want default", cfg.Viewer.Listen)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.HasPrefix(err.Error(), "config: reading") {
		t.Errorf("error = %q, want config: reading prefix", err)
	}
}

func TestParse_FullDocument(t *testing.T) {
	cfg, err := Parse([]byte(`
device:
  listen: 0.0.0.0:7001
viewer:
  listen: 0.0.0.0:7002
status:
  listen: 127.0.0.1:9100
log:
  level: debug
  format: json
mirror:
  encoding: cbor
  mqtt:
    broker: tcp://mqtt:1883
    sensor_topic: aromasense/sensor
    command_topic: aromasense/command
    log_topic: logs/aromasense-relay
    qos: 1
  kafka:
    brokers: [kafka:9092, kafka2:9092]
    topic: sensor.readings
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Status.Listen != "127.0.0.1:9100" {
		t.Errorf("status.listen = %q", cfg.Status.Listen)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Mirror.Encoding != "cbor" {
		t.Errorf("mirror.encoding = %q", cfg.Mirror.Encoding)
	}
	mqtt := cfg.Mirror.MQTT
	if mqtt.Broker != "tcp://mqtt:1883" || mqtt.QoS != 1 || mqtt.CommandTopic != "aromasense/command" {
		t.Errorf("mirror.mqtt = %+v", mqtt)
	}
	if mqtt.ClientID != "aromasense-relay" {
		t.Errorf("mirror.mqtt.client_id = %q, want default", mqtt.ClientID)
	}
	if len(cfg.Mirror.Kafka.Brokers) != 2 || cfg.Mirror.Kafka.Topic != "sensor.readings" {
		t.Errorf("mirror.kafka = %+v", cfg.Mirror.Kafka)
	}
	if !cfg.MQTTEnabled() || !cfg.KafkaEnabled() {
		t.Error("both mirrors should be enabled")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("device: [unterminated")); err == nil {
		t.Fatal("expected yaml error")
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("AROMASENSE_TEST_HOST", "broker.internal")
	t.Setenv("AROMASENSE_TEST_EMPTY", "")

	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"tcp://${AROMASENSE_TEST_HOST}:1883", "tcp://broker.internal:1883"},
		{"${AROMASENSE_TEST_UNSET:-fallback}", "fallback"},
		{"${AROMASENSE_TEST_EMPTY:-fallback}", "fallback"},
		{"${AROMASENSE_TEST_UNSET}", ""},
		{"${AROMASENSE_TEST_HOST:-ignored}", "broker.internal"},
	}
	for _, test := range tests {
		if got := expandVars(test.input); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("AROMASENSE_TEST_KAFKA", "kafka.internal:9092")

	cfg, err := Parse([]byte(`
viewer:
  listen: ${AROMASENSE_TEST_VIEWER:-127.0.0.1:8082}
mirror:
  kafka:
    brokers: ["${AROMASENSE_TEST_KAFKA}", "${AROMASENSE_TEST_UNSET}"]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Viewer.Listen != "127.0.0.1:8082" {
		t.Errorf("viewer.listen = %q", cfg.Viewer.Listen)
	}
	if len(cfg.Mirror.Kafka.Brokers) != 1 || cfg.Mirror.Kafka.Brokers[0] != "kafka.internal:9092" {
		t.Errorf("kafka brokers = %v, want only the expanded one", cfg.Mirror.Kafka.Brokers)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Device.Listen = ""
	cfg.Viewer.Listen = "no-port"
	cfg.Hub.Capacity = 0
	cfg.Log.Level = "trace"
	cfg.Log.Format = "xml"
	cfg.Mirror.Encoding = "protobuf"
	cfg.Mirror.MQTT.Broker = "tcp://mqtt:1883"
	cfg.Mirror.MQTT.QoS = 3
	cfg.Mirror.Kafka.Brokers = []string{"kafka:9092"}
	cfg.Mirror.Kafka.Topic = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	message := err.Error()
	for _, want := range []string{
		"device.listen is required",
		"viewer.listen",
		"hub.capacity",
		"log.level",
		"log.format",
		"mirror.encoding",
		"mirror.mqtt.qos",
		"mirror.kafka.topic",
	} {
		if !strings.Contains(message, want) {
			t.Errorf("validation error missing %q:\n%s", want, message)
		}
	}
}

func TestValidate_StatusListenOptional(t *testing.T) {
	cfg := Default()
	cfg.Status.Listen = "bad"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "status.listen") {
		t.Errorf("Validate = %v, want status.listen error", err)
	}
}
