// Copyright 2026 The AromaSense Authors
// SPDX-License-Identifier: Apache-2.0

package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaKey is the message key of every mirrored record. A single key
// keeps all records from one relay on one partition, in order.
const KafkaKey = "aromasense"

// KafkaWriter is the part of *kafka.Writer the sink uses.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, messages ...kafka.Message) error
}

// NewKafkaWriter returns a synchronous writer for topic on brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// KafkaSink writes each payload as one Kafka message.
type KafkaSink struct {
	writer KafkaWriter
	topic  string
}

// NewKafkaSink creates a sink over writer. topic is used for naming
// only; the writer decides where messages go.
func NewKafkaSink(writer KafkaWriter, topic string) *KafkaSink {
	return &KafkaSink{writer: writer, topic: topic}
}

// Send writes payload keyed by KafkaKey.
func (s *KafkaSink) Send(ctx context.Context, payload []byte) error {
	message := kafka.Message{
		Key:   []byte(KafkaKey),
		Value: payload,
	}
	if err := s.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("mirror: writing to kafka topic %s: %w", s.topic, err)
	}
	return nil
}

// Name returns "kafka:<topic>".
func (s *KafkaSink) Name() string {
	return "kafka:" + s.topic
}
