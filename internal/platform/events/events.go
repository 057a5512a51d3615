// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package events publishes moderation transitions to Kafka for downstream
consumers (search indexing, notifications).

Publishing is best effort. The audit trail in PostgreSQL is the record of
truth, so a failed publish is logged by the caller and never undoes a write.
Each write runs detached from the caller's cancellation and is bounded by
its own timeout.
*/
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Writer is the subset of [kafka.Writer] the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends one JSON-encoded event under a partitioning key.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
	Close() error
}

// KafkaPublisher implements [Publisher] over a Kafka writer.
type KafkaPublisher struct {
	writer  Writer
	timeout time.Duration
}

// NewKafkaPublisher creates a publisher writing to topic on brokers. Each
// publish gives up after timeout.
func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: timeout,
		MaxAttempts:  3,
	}, timeout)
}

// NewKafkaPublisherWithWriter injects a writer, mostly for tests.
func NewKafkaPublisherWithWriter(w Writer, timeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: timeout}
}

// Publish marshals value and writes it with key. Events of the same key land
// on the same partition and so keep their order.
func (p *KafkaPublisher) Publish(ctx context.Context, key string, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}

	// The event describes a committed write; a client hanging up must not drop it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: body}); err != nil {
		return fmt.Errorf("events: write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop discards every event. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }
