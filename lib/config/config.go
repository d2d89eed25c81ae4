// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the environment variable consulted by
// [Load].
const EnvironmentVariable = "AROMASENSE_CONFIG"

// Config is the complete relay configuration.
type Config struct {
	// Device configures the device-facing listener.
	Device ListenerConfig `yaml:"device"`

	// Viewer configures the viewer-facing listener.
	Viewer ListenerConfig `yaml:"viewer"`

	// Hub sizes the sensor and command hubs.
	Hub HubConfig `yaml:"hub"`

	// Status configures the optional HTTP status surface.
	Status StatusConfig `yaml:"status"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log"`

	// Mirror configures optional sinks fed from the sensor hub.
	Mirror MirrorConfig `yaml:"mirror"`
}

// ListenerConfig is a TCP listen address.
type ListenerConfig struct {
	// Listen is host:port. Port 0 picks a free port.
	Listen string `yaml:"listen"`
}

// HubConfig sizes the broadcast hubs.
type HubConfig struct {
	// Capacity is the number of messages a subscriber may fall behind
	// before its oldest queued messages are dropped.
	// Default: 100
	Capacity int `yaml:"capacity"`
}

// StatusConfig configures the HTTP status surface.
type StatusConfig struct {
	// Listen is host:port for /healthz, /status and /metrics. Empty
	// disables the surface.
	Listen string `yaml:"listen"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is text or json.
	// Default: text
	Format string `yaml:"format"`
}

// MirrorConfig configures the MQTT and Kafka mirrors.
type MirrorConfig struct {
	// Encoding of mirrored payloads: json or cbor.
	// Default: json
	Encoding string `yaml:"encoding"`

	MQTT  MQTTConfig  `yaml:"mqtt"`
	Kafka KafkaConfig `yaml:"kafka"`
}

// MQTTConfig configures the MQTT mirror. An empty Broker disables it.
type MQTTConfig struct {
	// Broker is the broker URL, for example tcp://localhost:1883.
	Broker string `yaml:"broker"`

	// ClientID identifies the relay to the broker.
	// Default: aromasense-relay
	ClientID string `yaml:"client_id"`

	// SensorTopic receives every sensor hub message. Empty disables
	// sensor mirroring while keeping the connection for commands and
	// logs.
	SensorTopic string `yaml:"sensor_topic"`

	// CommandTopic, when set, is subscribed and recognised commands
	// are published to the command hub.
	CommandTopic string `yaml:"command_topic"`

	// LogTopic, when set, receives a copy of every log line.
	LogTopic string `yaml:"log_topic"`

	// QoS is the MQTT quality of service, 0 to 2.
	// Default: 0
	QoS int `yaml:"qos"`
}

// KafkaConfig configures the Kafka mirror. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`

	// Topic receives every sensor hub message.
	// Default: aromasense.sensor
	Topic string `yaml:"topic"`
}

// Default returns the reference configuration: device on port 8081,
// viewers on port 8082, both on all interfaces, hub capacity 100, no
// status surface and no mirrors.
func Default() *Config {
	return &Config{
		Device: ListenerConfig{Listen: "0.0.0.0:8081"},
		Viewer: ListenerConfig{Listen: "0.0.0.0:8082"},
		Hub:    HubConfig{Capacity: 100},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Mirror: MirrorConfig{
			Encoding: "json",
			MQTT: MQTTConfig{
				ClientID: "aromasense-relay",
			},
			Kafka: KafkaConfig{
				Topic: "aromasense.sensor",
			},
		},
	}
}

// Load loads configuration from the file named by AROMASENSE_CONFIG.
// When the variable is unset it returns [Default].
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path, layered over [Default].
// Fields absent from the file keep their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration layered over [Default] and expands
// environment references.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing yaml: %w", err)
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) expandVariables() {
	c.Device.Listen = expandVars(c.Device.Listen)
	c.Viewer.Listen = expandVars(c.Viewer.Listen)
	c.Status.Listen = expandVars(c.Status.Listen)
	c.Mirror.MQTT.Broker = expandVars(c.Mirror.MQTT.Broker)
	c.Mirror.MQTT.ClientID = expandVars(c.Mirror.MQTT.ClientID)
	c.Mirror.MQTT.SensorTopic = expandVars(c.Mirror.MQTT.SensorTopic)
	c.Mirror.MQTT.CommandTopic = expandVars(c.Mirror.MQTT.CommandTopic)
	c.Mirror.MQTT.LogTopic = expandVars(c.Mirror.MQTT.LogTopic)
	c.Mirror.Kafka.Topic = expandVars(c.Mirror.Kafka.Topic)

	brokers := c.Mirror.Kafka.Brokers[:0]
	for _, broker := range c.Mirror.Kafka.Brokers {
		if expanded := expandVars(broker); expanded != "" {
			brokers = append(brokers, expanded)
		}
	}
	c.Mirror.Kafka.Brokers = brokers
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} and ${VAR:-default} with the environment
// value, or the default when the variable is unset or empty.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
	encodings  = []string{"json", "cbor"}
)

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if err := validateAddress("device.listen", c.Device.Listen); err != nil {
		errs = append(errs, err)
	}
	if err := validateAddress("viewer.listen", c.Viewer.Listen); err != nil {
		errs = append(errs, err)
	}
	if c.Status.Listen != "" {
		if err := validateAddress("status.listen", c.Status.Listen); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Hub.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("hub.capacity must be positive, got %d", c.Hub.Capacity))
	}

	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", logFormats))
	}
	if !slices.Contains(encodings, c.Mirror.Encoding) {
		errs = append(errs, fmt.Errorf("mirror.encoding must be one of: %v", encodings))
	}

	if c.Mirror.MQTT.Broker != "" {
		if c.Mirror.MQTT.QoS < 0 || c.Mirror.MQTT.QoS > 2 {
			errs = append(errs, fmt.Errorf("mirror.mqtt.qos must be 0, 1, or 2, got %d", c.Mirror.MQTT.QoS))
		}
		if c.Mirror.MQTT.ClientID == "" {
			errs = append(errs, errors.New("mirror.mqtt.client_id is required when mirror.mqtt.broker is set"))
		}
	}
	if len(c.Mirror.Kafka.Brokers) > 0 && c.Mirror.Kafka.Topic == "" {
		errs = append(errs, errors.New("mirror.kafka.topic is required when mirror.kafka.brokers is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func validateAddress(field, address string) error {
	if address == "" {
		return fmt.Errorf("%s is required", field)
	}
	if _, _, err := net.SplitHostPort(address); err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

// MQTTEnabled reports whether an MQTT broker is configured.
func (c *Config) MQTTEnabled() bool {
	return c.Mirror.MQTT.Broker != ""
}

// KafkaEnabled reports whether Kafka brokers are configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.Mirror.Kafka.Brokers) > 0
}
