// Package kafka wraps the franz-go producer used for alert and failover
// notification fan-out. The audit trail remains the source of truth; Kafka is
// the delivery channel to the alerting collaborator.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"replicare/internal/platform/config"
)

// Publisher produces JSON-encoded messages to a single topic.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New creates a publisher and ensures the topic exists. Returns nil if no
// brokers are configured (Kafka fan-out disabled).
func New(ctx context.Context, cfg config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	// Best-effort topic creation; a pre-existing topic is not an error.
	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopics(ctx, 3, 1, nil, cfg.AlertTopic); err != nil {
		logger.Warn("kafka topic creation failed, relying on auto-create",
			"topic", cfg.AlertTopic,
			"error", err,
		)
	}

	return &Publisher{client: client, topic: cfg.AlertTopic, logger: logger}, nil
}

// Publish marshals payload as JSON and produces it synchronously, keyed for
// partition affinity per subject.
func (p *Publisher) Publish(ctx context.Context, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal kafka payload: %w", err)
	}
	record := &kgo.Record{Topic: p.topic, Key: []byte(key), Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Publisher) Close() {
	p.client.Close()
}
