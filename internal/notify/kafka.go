package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
)

// KafkaDispatcher publishes JSON envelopes to a topic, keyed by template.
type KafkaDispatcher struct {
	producer sarama.SyncProducer
	topic    string
}

// DialKafka creates a synchronous producer that waits for all replicas.
func DialKafka(brokers []string, topic string) (*KafkaDispatcher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Producer.Retry.Backoff = 500 * time.Millisecond
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaDispatcher(producer, topic), nil
}

func NewKafkaDispatcher(producer sarama.SyncProducer, topic string) *KafkaDispatcher {
	return &KafkaDispatcher{producer: producer, topic: topic}
}

func (d *KafkaDispatcher) Send(ctx context.Context, templateID string, vars map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env, err := newEnvelope(templateID, vars)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: d.topic,
		Key:   sarama.StringEncoder(templateID),
		Value: sarama.ByteEncoder(value),
	}
	if deadline, ok := ctx.Deadline(); ok {
		msg.Metadata = deadline
	}
	if _, _, err := d.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}
	return nil
}

func (d *KafkaDispatcher) Close() error {
	return d.producer.Close()
}
