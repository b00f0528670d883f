// Package audit records verified payment events. The log recorder is
// the boundary this core guarantees; the Kafka recorder additionally
// publishes an envelope for downstream reconciliation (an order ledger
// consumer can deduplicate on event_id).
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/DPT73/urban-art-project/internal/webhook"
)

const paymentEventsTopic = "payment-events"

// LogRecorder writes every entry to the structured log.
type LogRecorder struct{}

func (LogRecorder) Record(ctx context.Context, e webhook.Entry) error {
	args := []any{
		"event_id", e.EventID,
		"event_type", e.EventType,
		"object_id", e.ObjectID,
		"amount_total", e.AmountTotal,
	}
	switch e.Outcome {
	case webhook.OutcomeFailed:
		slog.WarnContext(ctx, "payment failed", append(args, "reason", e.Reason)...)
	case webhook.OutcomeUnhandled:
		slog.InfoContext(ctx, "unhandled payment event", args...)
	default:
		slog.InfoContext(ctx, "payment event", append(args, "outcome", string(e.Outcome))...)
	}
	return nil
}

// envelope is the wire shape published to the payment-events topic.
type envelope struct {
	webhook.Entry
	OccurredAt time.Time `json:"occurred_at"`
}

type KafkaRecorder struct {
	writer *kafka.Writer
}

func NewKafkaRecorder(brokers ...string) *KafkaRecorder {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  paymentEventsTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaRecorder{writer: w}
}

func (r *KafkaRecorder) Record(ctx context.Context, e webhook.Entry) error {
	value, err := json.Marshal(envelope{Entry: e, OccurredAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(e.EventID), // event id for consumer-side dedup
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
		},
	}
	return r.writer.WriteMessages(ctx, msg)
}

func (r *KafkaRecorder) Close() error {
	return r.writer.Close()
}

// MultiRecorder fans one entry out to several recorders. Every recorder
// sees the entry; errors are joined.
type MultiRecorder []webhook.Recorder

func (m MultiRecorder) Record(ctx context.Context, e webhook.Entry) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
