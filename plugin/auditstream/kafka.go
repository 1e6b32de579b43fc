// Package auditstream streams routing audit entries to Kafka for offline
// learning and external observability tooling.
package auditstream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/hrygo/dispatchsense/routing"
)

// KafkaSink implements routing.AuditLog by publishing entries to a topic.
// It is always combined with the store-backed sink through the routing
// fan-out, so a broker outage costs the stream copy only.
type KafkaSink struct {
	writer *kafka.Writer
}

// streamEntry is the wire shape of one audit entry.
type streamEntry struct {
	EventID      string `json:"eventId"`
	TicketUID    string `json:"ticketUid"`
	Operation    string `json:"operation"`
	Input        string `json:"input"`
	Output       string `json:"output,omitempty"`
	Success      bool   `json:"success"`
	LatencyMs    int64  `json:"latencyMs"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	EmittedAt    string `json:"emittedAt"`
}

// NewKafkaSink creates a Kafka-backed audit sink.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: 5 * time.Second,
		},
	}
}

// Append publishes one audit entry, keyed by ticket UID so entries for a
// ticket land on one partition in order.
func (s *KafkaSink) Append(ctx context.Context, entry *routing.AuditEntry) error {
	value, err := json.Marshal(streamEntry{
		EventID:      uuid.NewString(),
		TicketUID:    entry.TicketUID,
		Operation:    entry.Operation,
		Input:        entry.Input,
		Output:       entry.Output,
		Success:      entry.Success,
		LatencyMs:    entry.Latency.Milliseconds(),
		ErrorMessage: entry.ErrorMessage,
		EmittedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return errors.Wrap(err, "failed to marshal audit entry")
	}

	msg := kafka.Message{
		Key:   []byte(entry.TicketUID),
		Value: value,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "failed to write audit entry to kafka")
	}
	return nil
}

// Close closes the Kafka writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
