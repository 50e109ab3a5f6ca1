package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/IBM/sarama"

	"github.com/rankforge/rankforge/internal/pkg/errors"
)

// Publisher pushes events to an external sink. Implementations must respect
// the context deadline; the emitter treats any error as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// KafkaConfig holds Kafka producer settings.
type KafkaConfig struct {
	Brokers  []string      `json:"brokers" yaml:"brokers"`
	Topic    string        `json:"topic" yaml:"topic"`
	ClientID string        `json:"client_id" yaml:"client_id"`
	Version  string        `json:"version" yaml:"version"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// KafkaPublisher delivers events to a Kafka topic keyed by run ID, so one
// session's events land on one partition in order.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher creates a Kafka-backed publisher.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.CodeValidation, "kafka brokers cannot be empty")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "rankforge-stream"
	}
	if cfg.Version == "" {
		cfg.Version = "2.8.0"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	version, err := sarama.ParseKafkaVersion(cfg.Version)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "invalid kafka version", err)
	}

	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Version = version
	kafkaConfig.ClientID = cfg.ClientID
	kafkaConfig.Producer.Return.Successes = true
	kafkaConfig.Producer.Return.Errors = true
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Net.DialTimeout = cfg.Timeout
	kafkaConfig.Net.ReadTimeout = cfg.Timeout
	kafkaConfig.Net.WriteTimeout = cfg.Timeout

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnavailable, "failed to create kafka producer", err)
	}
	return &KafkaPublisher{producer: producer, topic: cfg.Topic}, nil
}

// Publish sends one event to the configured topic.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.CodeTimeout, "publish cancelled", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to marshal event", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.RunID),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return errors.Wrap(errors.CodeUnavailable, "failed to publish event", err)
	}
	return nil
}

// Close shuts down the producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// WebhookConfig holds webhook delivery settings.
type WebhookConfig struct {
	URL     string        `json:"url" yaml:"url"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// WebhookPublisher POSTs each event as JSON to a fixed endpoint.
type WebhookPublisher struct {
	url    string
	client *http.Client
}

// NewWebhookPublisher creates an HTTP webhook publisher.
func NewWebhookPublisher(cfg WebhookConfig) (*WebhookPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New(errors.CodeValidation, "webhook url cannot be empty")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &WebhookPublisher{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Publish delivers one event; any non-2xx response is an error.
func (p *WebhookPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to marshal event", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "failed to build webhook request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.CodeUnavailable, "webhook request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New(errors.CodeUnavailable, fmt.Sprintf("webhook returned status %d", resp.StatusCode))
	}
	return nil
}

// Close is a no-op for the webhook publisher.
func (p *WebhookPublisher) Close() error { return nil }
