// Package alerting carries structured notifications to the external
// alerting/notification collaborator. The decision to page a human lives on
// the other side of this boundary.
package alerting

import (
	"context"
	"log/slog"
	"time"

	"replicare/internal/platform/kafka"
)

// Message is the structured notification contract: actor, action, subject,
// timestamp, severity, plus a free-form detail line.
type Message struct {
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Timestamp time.Time `json:"timestamp"`
	Severity  string    `json:"severity"`
	Detail    string    `json:"detail,omitempty"`
}

// Notifier delivers messages to the alerting collaborator.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// KafkaNotifier publishes messages to the alert topic.
type KafkaNotifier struct {
	publisher *kafka.Publisher
}

func NewKafkaNotifier(publisher *kafka.Publisher) *KafkaNotifier {
	return &KafkaNotifier{publisher: publisher}
}

func (n *KafkaNotifier) Notify(ctx context.Context, msg Message) error {
	return n.publisher.Publish(ctx, msg.Subject, msg)
}

// LogNotifier is the fallback when Kafka is not configured: notifications
// still surface in structured logs.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	n.logger.WarnContext(ctx, "alert notification",
		"actor", msg.Actor,
		"action", msg.Action,
		"subject", msg.Subject,
		"severity", msg.Severity,
		"detail", msg.Detail,
	)
	return nil
}
