// Package events publishes claim lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// TypeClaimAssembled is emitted once a claim has been persisted.
const TypeClaimAssembled = "claim.assembled"

type ClaimEvent struct {
	Type       string    `json:"type"`
	ClaimID    string    `json:"claimId"`
	UserID     string    `json:"userId"`
	DocumentID string    `json:"documentId"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers claim events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev ClaimEvent) error
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ClaimEvent) error { return nil }

// messageWriter abstracts kafka.Writer for testability.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON keyed by user id, so one user's
// events land on one partition in order.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher for topic. brokers is a
// comma-separated list of host:port.
func NewKafkaPublisher(brokers, topic string) *KafkaPublisher {
	var addrs []string
	for _, a := range strings.Split(brokers, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return &KafkaPublisher{writer: newKafkaWriter(addrs, topic)}
}

// publishBatchTimeout bounds how long a synchronous Publish waits for a batch
// to fill. Each upload publishes a single event.
const publishBatchTimeout = 10 * time.Millisecond

func newKafkaWriter(addrs []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: publishBatchTimeout,
		WriteTimeout: 5 * time.Second,
	}
}

func newKafkaPublisherWith(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (k *KafkaPublisher) Publish(ctx context.Context, ev ClaimEvent) error {
	if ev.Type == "" {
		ev.Type = TypeClaimAssembled
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.UserID), Value: b}); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
